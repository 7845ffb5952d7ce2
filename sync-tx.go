package ledgersync

import (
	"context"
	"fmt"
	"github.com/everFinance/ledgersync/schema"
	"github.com/shopspring/decimal"
	"sort"
	"strings"
	"time"
)

// HistorySync walks the account action history backwards from the latest
// action and merges new records into the cache.
type HistorySync struct {
	cache        *Cache
	transport    Transport
	invoker      *Invoker
	keys         Keyring
	currencyCode string
	denomination int32
	chunkSize    int64
}

func NewHistorySync(cache *Cache, transport Transport, invoker *Invoker, keys Keyring, currencyCode string, denomination int32, chunkSize int64) *HistorySync {
	if chunkSize < 1 {
		chunkSize = schema.DefaultHistoryChunkSize
	}
	return &HistorySync{
		cache:        cache,
		transport:    transport,
		invoker:      invoker,
		keys:         keys,
		currencyCode: currencyCode,
		denomination: denomination,
		chunkSize:    chunkSize,
	}
}

func (h *HistorySync) Sync(run *Run) error {
	ctx := run.Context()
	account := h.keys.Actor()

	latest, err := h.getActions(ctx, account, schema.LatestActionPos, -1)
	if err != nil {
		return err
	}
	if len(latest) == 0 {
		log.Debug("no account actions", "account", account)
		return nil
	}
	pos := latest[0].AccountSeq
	for _, act := range latest {
		if act.AccountSeq > pos {
			pos = act.AccountSeq
		}
	}

	watermark := h.cache.GetHighestTxHeight()
	candidate := watermark
	fees := make(map[string]string) // key: trx id, collected over the whole walk
	for page := 0; pos >= 0; page++ {
		actions, err := h.getActions(ctx, account, pos, -(h.chunkSize - 1))
		if err != nil {
			return err
		}
		sortActions(actions)
		if stalled(actions, candidate, page) {
			break
		}

		if !run.Commit(func() {
			collectFees(fees, actions, account)
			for _, act := range actions {
				if height := h.processAction(act, watermark, fees); height > candidate {
					candidate = height
				}
			}
		}) {
			log.Warn("engine stopped, drop history page", "account", account, "pos", pos)
			return nil
		}

		pos -= h.chunkSize
		if walkDone(actions, h.chunkSize, pos, watermark) {
			break
		}
	}

	if candidate > watermark {
		run.Commit(func() {
			if h.cache.SetHighestTxHeight(candidate) {
				metricHighestTxHeight(account, candidate)
				log.Debug("advance tx history watermark", "account", account, "from", watermark, "to", candidate)
			}
		})
	}
	return nil
}

func (h *HistorySync) getActions(ctx context.Context, account string, pos, offset int64) ([]schema.Action, error) {
	resp, err := Invoke(ctx, h.invoker, func(ctx context.Context, endpoint string) (schema.RespActions, error) {
		return h.transport.GetActions(ctx, endpoint, account, pos, offset)
	})
	if err != nil {
		return nil, err
	}
	return resp.Actions, nil
}

// stalled reports that a page makes no backward progress: its first record
// sits exactly at the running candidate watermark. On the first page the
// candidate is the committed watermark, so nothing new exists at all.
func stalled(actions []schema.Action, candidate int64, page int) bool {
	if len(actions) == 0 {
		return true
	}
	return page == 0 && actions[0].BlockNum <= candidate
}

// walkDone decides, after a page was merged, whether paging backward stops:
// the cursor went below zero, the page was a final partial page, or the
// oldest record of the page already lies at or below the watermark.
func walkDone(actions []schema.Action, chunkSize, nextPos, watermark int64) bool {
	if len(actions) == 0 || nextPos < 0 {
		return true
	}
	if int64(len(actions)) < chunkSize {
		return true
	}
	return actions[len(actions)-1].BlockNum <= watermark
}

// sortActions orders a page by height descending. Within a height the
// ownership-transfer-notification comes before the value-transfer sharing
// its transaction, then the newest account sequence first.
func sortActions(actions []schema.Action) {
	sort.SliceStable(actions, func(i, j int) bool {
		a, b := actions[i], actions[j]
		if a.BlockNum != b.BlockNum {
			return a.BlockNum > b.BlockNum
		}
		ra, rb := kindRank(a.Trace.Act.Name), kindRank(b.Trace.Act.Name)
		if ra != rb {
			return ra < rb
		}
		return a.AccountSeq > b.AccountSeq
	})
}

func kindRank(name string) int {
	switch name {
	case schema.ActionTransferPubKey:
		return 0
	case schema.ActionTransfer:
		return 1
	default:
		return 2
	}
}

// collectFees adds the fee charged to account by value-transfer records, keyed by trx id.
func collectFees(fees map[string]string, actions []schema.Action, account string) {
	for _, act := range actions {
		if act.Trace.Act.Name != schema.ActionTransfer || act.Trace.Act.Data.From != account {
			continue
		}
		fees[act.Trace.TrxId] = act.Trace.Act.Data.Quantity
	}
}

// processAction merges one record and returns its height. Records at or
// below the watermark and unknown kinds change nothing.
func (h *HistorySync) processAction(act schema.Action, watermark int64, fees map[string]string) int64 {
	height := act.BlockNum
	if height <= watermark {
		return height
	}
	switch act.Trace.Act.Name {
	case schema.ActionTransfer:
		h.processTransfer(act)
	case schema.ActionTransferPubKey:
		h.processTransferPubKey(act, fees)
	}
	return height
}

// processTransfer records the fee a value-transfer charged to the account.
// When the notification of the same trx is already recorded without its
// fee, the fee is folded into it instead.
func (h *HistorySync) processTransfer(act schema.Action) {
	txid := act.Trace.TrxId
	if act.Trace.Act.Data.From != h.keys.Actor() {
		log.Debug("skip value transfer of other account", "txid", txid, "from", act.Trace.Act.Data.From)
		return
	}
	fee, err := parseQuantity(act.Trace.Act.Data.Quantity, h.denomination)
	if err != nil {
		log.Error("parseQuantity(quantity)", "err", err, "txid", txid, "quantity", act.Trace.Act.Data.Quantity)
		return
	}

	recorded, ok := h.cache.GetTransaction(h.currencyCode, txid)
	if !ok {
		h.cache.AddTransaction(h.currencyCode, schema.Transaction{
			TxId:                txid,
			Date:                blockDate(act.BlockTime),
			BlockHeight:         act.BlockNum,
			NativeAmount:        fee.Neg().String(),
			NetworkFee:          fee.String(),
			OurReceiveAddresses: []string{},
		})
		return
	}
	if recordedFee, err := decimal.NewFromString(recorded.NetworkFee); err != nil || !recordedFee.IsZero() {
		return
	}
	native, err := decimal.NewFromString(recorded.NativeAmount)
	if err != nil {
		log.Error("decimal.NewFromString(nativeAmount)", "err", err, "txid", txid)
		return
	}
	if len(recorded.OurReceiveAddresses) == 0 {
		native = native.Sub(fee)
	}
	recorded.NativeAmount = native.String()
	recorded.NetworkFee = fee.String()
	if h.cache.UpdateTransaction(h.currencyCode, recorded) {
		log.Debug("fold fee into transfer", "txid", txid, "fee", fee)
	}
}

func (h *HistorySync) processTransferPubKey(act schema.Action, fees map[string]string) {
	data := act.Trace.Act.Data
	txid := act.Trace.TrxId
	amount := decimal.NewFromInt(data.Amount)
	fee := decimal.Zero
	if q, ok := fees[txid]; ok {
		if f, err := parseQuantity(q, h.denomination); err == nil {
			fee = f
		}
	}

	recorded, found := h.cache.GetTransaction(h.currencyCode, txid)
	if found {
		f, ok := feeOnly(recorded)
		if !ok {
			log.Debug("transaction already recorded", "txid", txid)
			return
		}
		fee = f
	}

	receive := make([]string, 0, 1)
	var native decimal.Decimal
	if data.PayeePublicKey == h.keys.PublicKey() {
		receive = append(receive, h.keys.PublicKey())
		native = amount
		if data.Actor == h.keys.Actor() {
			// sent to ourselves: nets to zero
			native = decimal.Zero
		}
	} else {
		native = amount.Add(fee).Neg()
	}

	tx := schema.Transaction{
		TxId:                txid,
		Date:                blockDate(act.BlockTime),
		BlockHeight:         act.BlockNum,
		NativeAmount:        native.String(),
		NetworkFee:          fee.String(),
		OurReceiveAddresses: receive,
	}
	if !found {
		h.cache.AddTransaction(h.currencyCode, tx)
		return
	}
	// the fee record of this trx was merged first, by an earlier page or cycle
	tx.Metadata = recorded.Metadata
	if h.cache.UpdateTransaction(h.currencyCode, tx) {
		log.Debug("complete fee only transaction", "txid", txid, "nativeAmount", tx.NativeAmount)
	}
}

// feeOnly reports whether tx was recorded from a value-transfer alone and
// returns its fee.
func feeOnly(tx schema.Transaction) (decimal.Decimal, bool) {
	if len(tx.OurReceiveAddresses) != 0 {
		return decimal.Zero, false
	}
	fee, err := decimal.NewFromString(tx.NetworkFee)
	if err != nil || fee.IsZero() {
		return decimal.Zero, false
	}
	native, err := decimal.NewFromString(tx.NativeAmount)
	if err != nil || !native.Equal(fee.Neg()) {
		return decimal.Zero, false
	}
	return fee, true
}

// parseQuantity converts "2.5 FIO" to native units.
func parseQuantity(quantity string, denomination int32) (decimal.Decimal, error) {
	fields := strings.Fields(quantity)
	if len(fields) == 0 {
		return decimal.Zero, fmt.Errorf("empty quantity")
	}
	amount, err := decimal.NewFromString(fields[0])
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Shift(denomination), nil
}

func blockDate(blockTime string) int64 {
	t, err := time.ParseInLocation(schema.BlockTimeLayout, blockTime, time.UTC)
	if err != nil {
		return time.Now().Unix()
	}
	return t.Unix()
}
