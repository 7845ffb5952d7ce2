package ledgersync

import (
	"fmt"
	"github.com/everFinance/ledgersync/schema"
	"github.com/stretchr/testify/assert"
	"testing"
)

const (
	testPubKey = "FIO7isxEua78KPVbGzKemH4nj2bWE52gqj8Hkac3tc7jKNvpfWzYS"
	testActor  = "wjeo4abqmxjc"
	otherKey   = "FIO5NMm9Vf3NjYFnhoc7yxTCrLW963KPUCzeMGv3SJ6zR3GMez4ub"
	otherActor = "ebrmbxz5hrfy"
)

func newTestHistorySync(ft *fakeTransport, cache *Cache, chunk int64) *HistorySync {
	inv := NewInvoker(schema.CapabilityHistory, []string{"h1", "h2"})
	return NewHistorySync(cache, ft, inv, NewStaticKeyring(testPubKey, testActor), "FIO", 9, chunk)
}

func TestHistorySync_WatermarkScenario(t *testing.T) {
	ft := newFakeTransport()
	heights := []int64{60, 70, 80, 90, 110, 120, 130, 140, 150}
	for i, h := range heights {
		ft.history = append(ft.history, notifyAction(int64(i), h, fmt.Sprintf("tx%d", h), testPubKey, otherActor, 1000))
	}
	cache := NewCache(nil)
	cache.SetHighestTxHeight(100)

	hs := newTestHistorySync(ft, cache, 3)
	assert.NoError(t, hs.Sync(liveRun()))

	assert.Equal(t, int64(150), cache.GetHighestTxHeight())
	assert.Equal(t, 5, cache.GetNumTransactions("FIO"))
	assert.Equal(t, -1, cache.FindTransaction("FIO", "tx90"))
	assert.Equal(t, 1, ft.countCalls("get_actions(8,-2)"))
	assert.Equal(t, 1, ft.countCalls("get_actions(5,-2)"))
	// the page holding height 90 halts paging
	assert.Equal(t, 0, ft.countCalls("get_actions(2,-2)"))

	tx := cache.GetTransactions("FIO")[cache.FindTransaction("FIO", "tx150")]
	assert.Equal(t, "1000", tx.NativeAmount)
	assert.Equal(t, []string{testPubKey}, tx.OurReceiveAddresses)
	assert.Equal(t, int64(150), tx.BlockHeight)
	assert.Equal(t, int64(1614592800), tx.Date)
}

func TestHistorySync_SelfTransferNetsZero(t *testing.T) {
	ft := newFakeTransport()
	ft.history = []schema.Action{
		notifyAction(0, 200, "self", testPubKey, testActor, 5000000000),
		feeAction(1, 200, "self", testActor, "2.000000000 FIO"),
	}
	cache := NewCache(nil)
	assert.NoError(t, newTestHistorySync(ft, cache, 20).Sync(liveRun()))

	assert.Equal(t, 1, cache.GetNumTransactions("FIO"))
	tx := cache.GetTransactions("FIO")[0]
	assert.Equal(t, "0", tx.NativeAmount)
	assert.Equal(t, "2000000000", tx.NetworkFee)
	assert.Equal(t, int64(200), cache.GetHighestTxHeight())
}

func TestHistorySync_OutgoingAndFeeOnly(t *testing.T) {
	ft := newFakeTransport()
	ft.history = []schema.Action{
		feeAction(0, 300, "fee-only", testActor, "0.400000000 FIO"),
		feeAction(1, 310, "send", testActor, "2.000000000 FIO"),
		notifyAction(2, 310, "send", otherKey, testActor, 7000000000),
		{AccountSeq: 3, BlockNum: 320, Trace: schema.ActionTrace{TrxId: "vote", Act: schema.Act{Name: "voteproducer"}}},
	}
	cache := NewCache(nil)
	assert.NoError(t, newTestHistorySync(ft, cache, 20).Sync(liveRun()))

	assert.Equal(t, 2, cache.GetNumTransactions("FIO"))
	txs := cache.GetTransactions("FIO")
	send := txs[cache.FindTransaction("FIO", "send")]
	assert.Equal(t, "-9000000000", send.NativeAmount)
	assert.Equal(t, "2000000000", send.NetworkFee)
	assert.Equal(t, 0, len(send.OurReceiveAddresses))

	fee := txs[cache.FindTransaction("FIO", "fee-only")]
	assert.Equal(t, "-400000000", fee.NativeAmount)
	assert.Equal(t, "400000000", fee.NetworkFee)

	// unknown kinds still move the watermark
	assert.Equal(t, int64(320), cache.GetHighestTxHeight())
}

func TestHistorySync_FeeRecordOnOtherPage(t *testing.T) {
	cases := []struct {
		name     string
		history  []schema.Action
		native   string
		fee      string
		receives int
	}{
		{
			name: "fee record after notification",
			history: []schema.Action{
				notifyAction(0, 100, "x", testPubKey, otherActor, 1000000000),
				notifyAction(1, 200, "send", otherKey, testActor, 7000000000),
				feeAction(2, 200, "send", testActor, "2.000000000 FIO"),
				notifyAction(3, 300, "y", testPubKey, otherActor, 1000000000),
			},
			native: "-9000000000",
			fee:    "2000000000",
		},
		{
			name: "fee record before notification",
			history: []schema.Action{
				notifyAction(0, 100, "x", testPubKey, otherActor, 1000000000),
				feeAction(1, 200, "send", testActor, "2.000000000 FIO"),
				notifyAction(2, 200, "send", otherKey, testActor, 7000000000),
				notifyAction(3, 300, "y", testPubKey, otherActor, 1000000000),
			},
			native: "-9000000000",
			fee:    "2000000000",
		},
		{
			name: "self transfer",
			history: []schema.Action{
				notifyAction(0, 100, "x", testPubKey, otherActor, 1000000000),
				notifyAction(1, 200, "send", testPubKey, testActor, 7000000000),
				feeAction(2, 200, "send", testActor, "2.000000000 FIO"),
				notifyAction(3, 300, "y", testPubKey, otherActor, 1000000000),
			},
			native:   "0",
			fee:      "2000000000",
			receives: 1,
		},
	}
	for _, c := range cases {
		for _, chunk := range []int64{1, 2, 3, 20} {
			ft := newFakeTransport()
			ft.history = c.history
			cache := NewCache(nil)
			assert.NoError(t, newTestHistorySync(ft, cache, chunk).Sync(liveRun()))

			assert.Equal(t, 3, cache.GetNumTransactions("FIO"), "%s chunk=%d", c.name, chunk)
			send, ok := cache.GetTransaction("FIO", "send")
			assert.True(t, ok)
			assert.Equal(t, c.native, send.NativeAmount, "%s chunk=%d", c.name, chunk)
			assert.Equal(t, c.fee, send.NetworkFee, "%s chunk=%d", c.name, chunk)
			assert.Equal(t, c.receives, len(send.OurReceiveAddresses), "%s chunk=%d", c.name, chunk)
			assert.Equal(t, int64(300), cache.GetHighestTxHeight())
		}
	}
}

func TestHistorySync_FeeRecordInterruptedCycle(t *testing.T) {
	ft := newFakeTransport()
	ft.history = []schema.Action{
		notifyAction(0, 100, "x", testPubKey, otherActor, 1000000000),
		notifyAction(1, 200, "send", otherKey, testActor, 7000000000),
		feeAction(2, 200, "send", testActor, "2.000000000 FIO"),
		notifyAction(3, 300, "y", testPubKey, otherActor, 1000000000),
	}
	cb := &recordCallbacks{}
	cache := NewCache(cb)
	hs := newTestHistorySync(ft, cache, 2)

	// the cycle dies after the page holding the fee record
	ft.failActionsAfter = 2
	assert.Error(t, hs.Sync(liveRun()))
	send, ok := cache.GetTransaction("FIO", "send")
	assert.True(t, ok)
	assert.Equal(t, "-2000000000", send.NativeAmount)
	assert.Equal(t, int64(0), cache.GetHighestTxHeight())
	cache.FlushTransactions()
	ft.failActionsAfter = 0

	assert.NoError(t, hs.Sync(liveRun()))
	assert.Equal(t, 3, cache.GetNumTransactions("FIO"))
	send, _ = cache.GetTransaction("FIO", "send")
	assert.Equal(t, "-9000000000", send.NativeAmount)
	assert.Equal(t, "2000000000", send.NetworkFee)
	assert.Equal(t, int64(300), cache.GetHighestTxHeight())

	// the completed transaction is announced again
	cache.FlushTransactions()
	assert.Equal(t, 2, len(cb.txBatches))
	assert.Equal(t, 2, len(cb.txBatches[1]))
}

func TestHistorySync_OtherAccountTransfer(t *testing.T) {
	ft := newFakeTransport()
	ft.history = []schema.Action{
		feeAction(0, 100, "in", otherActor, "1.000000000 FIO"),
		notifyAction(1, 100, "in", testPubKey, otherActor, 3000000000),
		feeAction(2, 110, "other", otherActor, "1.000000000 FIO"),
	}
	cache := NewCache(nil)
	assert.NoError(t, newTestHistorySync(ft, cache, 20).Sync(liveRun()))

	assert.Equal(t, 1, cache.GetNumTransactions("FIO"))
	in, ok := cache.GetTransaction("FIO", "in")
	assert.True(t, ok)
	assert.Equal(t, "3000000000", in.NativeAmount)
	assert.Equal(t, "0", in.NetworkFee)
	assert.Equal(t, -1, cache.FindTransaction("FIO", "other"))
	// skipped records still move the watermark
	assert.Equal(t, int64(110), cache.GetHighestTxHeight())
}

func TestHistorySync_IdempotentAcrossCycles(t *testing.T) {
	ft := newFakeTransport()
	for i := int64(0); i < 7; i++ {
		ft.history = append(ft.history, notifyAction(i, 100+i*10, fmt.Sprintf("tx%d", i), testPubKey, otherActor, 10))
	}
	cache := NewCache(nil)
	hs := newTestHistorySync(ft, cache, 3)

	// first cycle dies after merging one page
	ft.failActionsAfter = 2
	assert.Error(t, hs.Sync(liveRun()))
	assert.Equal(t, 3, cache.GetNumTransactions("FIO"))
	assert.Equal(t, int64(0), cache.GetHighestTxHeight())
	ft.failActionsAfter = 0

	assert.NoError(t, hs.Sync(liveRun()))
	assert.NoError(t, hs.Sync(liveRun()))
	assert.Equal(t, 7, cache.GetNumTransactions("FIO"))
	assert.Equal(t, int64(160), cache.GetHighestTxHeight())
}

func TestHistorySync_ResyncAfterReset(t *testing.T) {
	ft := newFakeTransport()
	for i := int64(0); i < 6; i++ {
		ft.history = append(ft.history, notifyAction(i, 100+i*10, fmt.Sprintf("tx%d", i), testPubKey, otherActor, 10))
	}
	cache := NewCache(nil)
	hs := newTestHistorySync(ft, cache, 4)

	assert.NoError(t, hs.Sync(liveRun()))
	assert.Equal(t, 6, cache.GetNumTransactions("FIO"))

	cache.Reset()
	assert.Equal(t, 0, cache.GetNumTransactions("FIO"))
	assert.Equal(t, int64(0), cache.GetHighestTxHeight())
	assert.NoError(t, hs.Sync(liveRun()))
	assert.Equal(t, 6, cache.GetNumTransactions("FIO"))
}

func TestHistorySync_StoppedRunDoesNotCommit(t *testing.T) {
	ft := newFakeTransport()
	ft.history = []schema.Action{notifyAction(0, 100, "tx", testPubKey, otherActor, 10)}
	cache := NewCache(nil)
	run := liveRun()
	run.sch.active.Store(false)

	assert.NoError(t, newTestHistorySync(ft, cache, 20).Sync(run))
	assert.Equal(t, 0, cache.GetNumTransactions("FIO"))
	assert.Equal(t, int64(0), cache.GetHighestTxHeight())
}

func TestHistorySync_NothingNew(t *testing.T) {
	ft := newFakeTransport()
	ft.history = []schema.Action{notifyAction(0, 100, "tx", testPubKey, otherActor, 10)}
	cache := NewCache(nil)
	cache.SetHighestTxHeight(100)

	assert.NoError(t, newTestHistorySync(ft, cache, 20).Sync(liveRun()))
	assert.Equal(t, 0, cache.GetNumTransactions("FIO"))
	assert.Equal(t, 1, ft.countCalls("get_actions(0,-19)"))
}

func TestWalkDone(t *testing.T) {
	page := func(heights ...int64) []schema.Action {
		res := make([]schema.Action, 0, len(heights))
		for _, h := range heights {
			res = append(res, schema.Action{BlockNum: h})
		}
		return res
	}
	assert.True(t, walkDone(nil, 3, 10, 100))
	assert.True(t, walkDone(page(150, 140, 130), 3, -1, 100))
	assert.True(t, walkDone(page(150, 140), 3, 5, 100))
	assert.True(t, walkDone(page(120, 110, 90), 3, 5, 100))
	assert.True(t, walkDone(page(120, 110, 100), 3, 5, 100))
	assert.False(t, walkDone(page(150, 140, 130), 3, 5, 100))
	assert.False(t, walkDone(page(150, 150, 150), 3, 5, 100))
}

func TestStalled(t *testing.T) {
	assert.True(t, stalled(nil, 0, 0))
	assert.True(t, stalled([]schema.Action{{BlockNum: 100}}, 100, 0))
	assert.False(t, stalled([]schema.Action{{BlockNum: 101}}, 100, 0))
	// later pages repeat the candidate when one block spans pages
	assert.False(t, stalled([]schema.Action{{BlockNum: 150}}, 150, 1))
}

func TestSortActions(t *testing.T) {
	actions := []schema.Action{
		feeAction(1, 200, "a", testActor, "1.0 FIO"),
		notifyAction(0, 200, "a", otherKey, testActor, 1),
		notifyAction(2, 300, "b", otherKey, testActor, 1),
	}
	sortActions(actions)
	assert.Equal(t, int64(300), actions[0].BlockNum)
	assert.Equal(t, schema.ActionTransferPubKey, actions[1].Trace.Act.Name)
	assert.Equal(t, schema.ActionTransfer, actions[2].Trace.Act.Name)
}

func TestParseQuantity(t *testing.T) {
	q, err := parseQuantity("2.5 FIO", 9)
	assert.NoError(t, err)
	assert.Equal(t, "2500000000", q.String())
	_, err = parseQuantity("", 9)
	assert.Error(t, err)
	_, err = parseQuantity("abc FIO", 9)
	assert.Error(t, err)
}
