package ledgersync

import (
	"context"
	"github.com/everFinance/ledgersync/cache"
	"github.com/everFinance/ledgersync/schema"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"time"
)

// Spender builds, signs and broadcasts spends of the native currency.
type Spender struct {
	cache        *Cache
	transport    Transport
	invoker      *Invoker
	keys         Keyring
	signer       Signer
	fees         *cache.FeeCache
	currencyCode string
	tpid         string
}

func NewSpender(c *Cache, transport Transport, invoker *Invoker, keys Keyring, signer Signer, fees *cache.FeeCache, currencyCode, tpid string) *Spender {
	return &Spender{
		cache:        c,
		transport:    transport,
		invoker:      invoker,
		keys:         keys,
		signer:       signer,
		fees:         fees,
		currencyCode: currencyCode,
		tpid:         tpid,
	}
}

// MakeSpend returns an unsigned transaction moving req.NativeAmount to
// req.PublicAddress. Its txid is provisional until broadcast.
func (s *Spender) MakeSpend(ctx context.Context, req schema.SpendRequest) (schema.Transaction, error) {
	code := req.CurrencyCode
	if code == "" {
		code = s.currencyCode
	}
	if code != s.currencyCode {
		return schema.Transaction{}, schema.ErrUnknownCurrency
	}
	if req.PublicAddress == "" {
		return schema.Transaction{}, schema.ErrNullAddress
	}
	amount, err := decimal.NewFromString(req.NativeAmount)
	if err != nil || !amount.IsPositive() || !amount.Equal(amount.Truncate(0)) {
		return schema.Transaction{}, schema.ErrInvalidAmount
	}

	balance, err := decimal.NewFromString(s.cache.GetBalance(code))
	if err != nil {
		log.Error("decimal.NewFromString(balance)", "err", err, "currency", code)
		return schema.Transaction{}, err
	}
	// the amount alone already exceeds what we hold, no need to ask for a fee
	if amount.GreaterThan(balance) {
		return schema.Transaction{}, schema.ErrInsufficientFunds
	}

	fee, err := s.Fee(ctx, schema.FeeTransferPubKey, "")
	if err != nil {
		return schema.Transaction{}, err
	}
	total := amount.Add(fee)
	if total.GreaterThan(balance) {
		return schema.Transaction{}, schema.ErrInsufficientFunds
	}

	return schema.Transaction{
		TxId:                uuid.NewString(),
		Date:                time.Now().Unix(),
		CurrencyCode:        code,
		NativeAmount:        total.Neg().String(),
		NetworkFee:          fee.String(),
		OurReceiveAddresses: []string{},
		Metadata:            req.Metadata,
		OtherParams: &schema.TxParams{
			Action:  schema.ActionTransferPubKey,
			Account: schema.ActionTokenContract,
			Payload: schema.TransferPayload{
				PayeePublicKey: req.PublicAddress,
				Amount:         amount.String(),
				MaxFee:         fee.String(),
				Actor:          s.keys.Actor(),
				Tpid:           s.tpid,
			},
		},
	}, nil
}

// SignTx hands the transaction to the signer. Without a signer the chain
// authorizes the push itself and the transaction passes through.
func (s *Spender) SignTx(ctx context.Context, tx schema.Transaction) (schema.Transaction, error) {
	if s.signer == nil {
		return tx, nil
	}
	return s.signer.Sign(ctx, tx)
}

// BroadcastTx pushes a built transaction and records it. The provisional
// txid, date and height are replaced by what the chain confirmed.
func (s *Spender) BroadcastTx(ctx context.Context, tx schema.Transaction) (schema.Transaction, error) {
	if tx.OtherParams == nil {
		return tx, schema.ErrNotBroadcastable
	}
	resp, err := s.push(ctx, tx.OtherParams.Action, tx.OtherParams.Account, tx.OtherParams.Payload, tx.SignedTx)
	if err != nil {
		return tx, err
	}
	if resp.TransactionId == "" {
		return tx, ErrNoTxId
	}

	tx.TxId = resp.TransactionId
	tx.Date = time.Now().Unix()
	tx.BlockHeight = resp.Processed.BlockNum
	if tx.CurrencyCode == "" {
		tx.CurrencyCode = s.currencyCode
	}
	if s.cache.AddTransaction(tx.CurrencyCode, tx) {
		s.cache.FlushTransactions()
	}
	log.Info("broadcast tx success", "txid", tx.TxId, "blockHeight", tx.BlockHeight, "amount", tx.NativeAmount)
	return tx, nil
}

// Fee returns the chain fee of feeEndpoint in native units, cached for a short while.
func (s *Spender) Fee(ctx context.Context, feeEndpoint, address string) (decimal.Decimal, error) {
	if s.fees != nil {
		if fee, ok := s.fees.GetFee(feeEndpoint, address); ok {
			return decimal.NewFromString(fee)
		}
	}
	resp, err := Invoke(ctx, s.invoker, func(ctx context.Context, endpoint string) (schema.RespFee, error) {
		return s.transport.GetFee(ctx, endpoint, feeEndpoint, address)
	})
	if err != nil {
		return decimal.Zero, err
	}
	fee, err := decimal.NewFromString(resp.Fee)
	if err != nil {
		log.Error("decimal.NewFromString(fee)", "err", err, "feeEndpoint", feeEndpoint, "fee", resp.Fee)
		return decimal.Zero, err
	}
	if s.fees != nil {
		if err := s.fees.SetFee(feeEndpoint, address, fee.String()); err != nil {
			log.Warn("cache fee failed", "err", err, "feeEndpoint", feeEndpoint)
		}
	}
	return fee, nil
}

func (s *Spender) push(ctx context.Context, action, account string, data interface{}, signature string) (schema.RespPushTx, error) {
	req := schema.ReqPushTx{
		Action:    action,
		Account:   account,
		Actor:     s.keys.Actor(),
		Data:      data,
		Signature: signature,
	}
	return Invoke(ctx, s.invoker, func(ctx context.Context, endpoint string) (schema.RespPushTx, error) {
		return s.transport.PushTransaction(ctx, endpoint, req)
	})
}
