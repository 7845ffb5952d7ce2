package ledgersync

import (
	"context"
	"github.com/everFinance/ledgersync/cache"
	"github.com/everFinance/ledgersync/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

type stubSigner struct{}

func (stubSigner) Sign(ctx context.Context, tx schema.Transaction) (schema.Transaction, error) {
	tx.SignedTx = "SIG_K1_test"
	return tx, nil
}

func newTestSpender(t *testing.T, ft *fakeTransport, c *Cache, signer Signer) *Spender {
	fees, err := cache.NewFeeCache(time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fees.Close() })
	inv := NewInvoker(schema.CapabilityApi, []string{"a1", "a2"})
	return NewSpender(c, ft, inv, NewStaticKeyring(testPubKey, testActor), signer, fees, "FIO", "tpid@edge")
}

func TestMakeSpend_BalanceCheck(t *testing.T) {
	c := NewCache(nil)
	_, err := c.SetBalance("FIO", "100")
	require.NoError(t, err)

	ft := newFakeTransport()
	ft.fees[schema.FeeTransferPubKey] = "20"
	sp := newTestSpender(t, ft, c, nil)
	req := schema.SpendRequest{PublicAddress: otherKey, NativeAmount: "90"}

	_, err = sp.MakeSpend(context.Background(), req)
	assert.Equal(t, schema.ErrInsufficientFunds, err)

	ft.fees[schema.FeeTransferPubKey] = "5"
	sp.fees.Invalidate(schema.FeeTransferPubKey, "")
	tx, err := sp.MakeSpend(context.Background(), req)
	assert.NoError(t, err)
	assert.Equal(t, "-95", tx.NativeAmount)
	assert.Equal(t, "5", tx.NetworkFee)
	assert.Equal(t, "FIO", tx.CurrencyCode)
	assert.NotEmpty(t, tx.TxId)
	assert.Equal(t, schema.TransferPayload{
		PayeePublicKey: otherKey,
		Amount:         "90",
		MaxFee:         "5",
		Actor:          testActor,
		Tpid:           "tpid@edge",
	}, tx.OtherParams.Payload)
	// nothing recorded before broadcast
	assert.Equal(t, 0, c.GetNumTransactions("FIO"))
}

func TestMakeSpend_PrecheckSkipsFee(t *testing.T) {
	c := NewCache(nil)
	_, err := c.SetBalance("FIO", "10")
	require.NoError(t, err)
	ft := newFakeTransport()
	sp := newTestSpender(t, ft, c, nil)

	_, err = sp.MakeSpend(context.Background(), schema.SpendRequest{PublicAddress: otherKey, NativeAmount: "11"})
	assert.Equal(t, schema.ErrInsufficientFunds, err)
	assert.Equal(t, 0, ft.countCalls("get_fee"))
}

func TestMakeSpend_InvalidRequest(t *testing.T) {
	sp := newTestSpender(t, newFakeTransport(), NewCache(nil), nil)
	ctx := context.Background()

	_, err := sp.MakeSpend(ctx, schema.SpendRequest{CurrencyCode: "BTC", PublicAddress: otherKey, NativeAmount: "1"})
	assert.Equal(t, schema.ErrUnknownCurrency, err)
	_, err = sp.MakeSpend(ctx, schema.SpendRequest{NativeAmount: "1"})
	assert.Equal(t, schema.ErrNullAddress, err)
	_, err = sp.MakeSpend(ctx, schema.SpendRequest{PublicAddress: otherKey, NativeAmount: "-1"})
	assert.Equal(t, schema.ErrInvalidAmount, err)
	_, err = sp.MakeSpend(ctx, schema.SpendRequest{PublicAddress: otherKey, NativeAmount: "1.5"})
	assert.Equal(t, schema.ErrInvalidAmount, err)
}

func TestMakeSpend_FeeRejected(t *testing.T) {
	c := NewCache(nil)
	_, err := c.SetBalance("FIO", "100")
	require.NoError(t, err)
	ft := newFakeTransport()
	ft.feeErr = &schema.ApplicationError{Code: 400, Message: "Invalid end point"}
	sp := newTestSpender(t, ft, c, nil)

	_, err = sp.MakeSpend(context.Background(), schema.SpendRequest{PublicAddress: otherKey, NativeAmount: "1"})
	res, ok := ErrorResult(err)
	assert.True(t, ok)
	assert.Equal(t, 400, res.Code)
	assert.Equal(t, 1, ft.countCalls("get_fee"))
}

func TestSignAndBroadcast(t *testing.T) {
	c := NewCache(nil)
	_, err := c.SetBalance("FIO", "100")
	require.NoError(t, err)
	ft := newFakeTransport()
	ft.fees[schema.FeeTransferPubKey] = "5"
	ft.pushResp = schema.RespPushTx{TransactionId: "abc123", Processed: schema.Processed{Id: "abc123", BlockNum: 777}}
	ft.down["a1"] = errTimeout
	sp := newTestSpender(t, ft, c, stubSigner{})
	ctx := context.Background()

	tx, err := sp.MakeSpend(ctx, schema.SpendRequest{PublicAddress: otherKey, NativeAmount: "90"})
	require.NoError(t, err)
	tx, err = sp.SignTx(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, "SIG_K1_test", tx.SignedTx)

	done, err := sp.BroadcastTx(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, "abc123", done.TxId)
	assert.Equal(t, int64(777), done.BlockHeight)
	assert.Equal(t, 0, c.FindTransaction("FIO", "abc123"))

	require.Equal(t, 1, len(ft.pushed))
	assert.Equal(t, schema.ActionTransferPubKey, ft.pushed[0].Action)
	assert.Equal(t, testActor, ft.pushed[0].Actor)
	assert.Equal(t, "SIG_K1_test", ft.pushed[0].Signature)
}

func TestBroadcast_NotBroadcastable(t *testing.T) {
	sp := newTestSpender(t, newFakeTransport(), NewCache(nil), nil)
	_, err := sp.BroadcastTx(context.Background(), schema.Transaction{TxId: "x"})
	assert.Equal(t, schema.ErrNotBroadcastable, err)
}

func TestOtherMethods(t *testing.T) {
	c := NewCache(nil)
	_, err := c.SetBalance("FIO", "100")
	require.NoError(t, err)
	ft := newFakeTransport()
	ft.fees[schema.FeeRegAddress] = "40"
	ft.fees[schema.FeeRegDomain] = "800"
	ft.avail["taken@edge"] = 1
	ft.pushResp = schema.RespPushTx{TransactionId: "reg1"}
	ft.callResp = []byte(`{"head_block_num":1}`)
	sp := newTestSpender(t, ft, c, nil)
	ctx := context.Background()

	ok, err := sp.IsAvailable(ctx, "taken@edge")
	assert.NoError(t, err)
	assert.False(t, ok)
	ok, err = sp.IsAvailable(ctx, "free@edge")
	assert.NoError(t, err)
	assert.True(t, ok)

	resp, err := sp.RegisterAddress(ctx, "free@edge")
	assert.NoError(t, err)
	assert.Equal(t, "reg1", resp.TransactionId)
	assert.Equal(t, schema.ActionRegAddress, ft.pushed[0].Action)
	assert.Equal(t, schema.ActionAddrContract, ft.pushed[0].Account)

	_, err = sp.RegisterDomain(ctx, "edge")
	assert.Equal(t, schema.ErrInsufficientFunds, err)

	// fee quotes come from the cache the second time
	_, err = sp.Fee(ctx, schema.FeeRegAddress, "")
	assert.NoError(t, err)
	assert.Equal(t, 2, ft.countCalls("get_fee"))

	body, err := sp.Call(ctx, "get_info", nil)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"head_block_num":1}`, string(body))
}
