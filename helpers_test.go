package ledgersync

import (
	"context"
	"fmt"
	"github.com/everFinance/ledgersync/schema"
	"sync"
)

type recordCallbacks struct {
	lock      sync.Mutex
	balances  []string
	heights   []int64
	txBatches [][]schema.Transaction
}

func (r *recordCallbacks) OnBalanceChanged(currencyCode, amount string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.balances = append(r.balances, currencyCode+":"+amount)
}

func (r *recordCallbacks) OnBlockHeightChanged(height int64) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.heights = append(r.heights, height)
}

func (r *recordCallbacks) OnTransactionsChanged(txs []schema.Transaction) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.txBatches = append(r.txBatches, txs)
}

// fakeTransport serves a scripted chain. history is ordered by account sequence.
type fakeTransport struct {
	lock sync.Mutex

	down     map[string]error // endpoint -> transport error
	info     schema.ChainInfo
	balances map[string]schema.RespBalance
	names    schema.RespNames
	namesErr error
	history  []schema.Action
	fees     map[string]string
	feeErr   error
	avail    map[string]int
	pushResp schema.RespPushTx
	pushErr  error
	callResp []byte

	// GetActions fails once it was called more than failActionsAfter times, 0 disables
	failActionsAfter int
	actionCalls      int

	calls  []string
	pushed []schema.ReqPushTx
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		down:     make(map[string]error),
		balances: make(map[string]schema.RespBalance),
		fees:     make(map[string]string),
		avail:    make(map[string]int),
	}
}

func (f *fakeTransport) record(method, endpoint string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls = append(f.calls, method+"@"+endpoint)
	return f.down[endpoint]
}

func (f *fakeTransport) countCalls(method string) int {
	f.lock.Lock()
	defer f.lock.Unlock()
	n := 0
	for _, c := range f.calls {
		if len(c) > len(method) && c[:len(method)+1] == method+"@" {
			n++
		}
	}
	return n
}

func (f *fakeTransport) GetInfo(ctx context.Context, endpoint string) (schema.ChainInfo, error) {
	if err := f.record("get_info", endpoint); err != nil {
		return schema.ChainInfo{}, err
	}
	return f.info, nil
}

func (f *fakeTransport) GetBalance(ctx context.Context, endpoint, publicKey, currencyCode string) (schema.RespBalance, error) {
	if err := f.record("get_balance", endpoint); err != nil {
		return schema.RespBalance{}, err
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	bal, ok := f.balances[currencyCode]
	if !ok {
		return schema.RespBalance{}, &schema.ApplicationError{Code: 404, Message: "Public key not found"}
	}
	return bal, nil
}

func (f *fakeTransport) GetNames(ctx context.Context, endpoint, publicKey string) (schema.RespNames, error) {
	if err := f.record("get_names", endpoint); err != nil {
		return schema.RespNames{}, err
	}
	return f.names, f.namesErr
}

// GetActions emulates the history paging: pos -1 is the latest action and a
// negative offset returns the records in [pos+offset, pos].
func (f *fakeTransport) GetActions(ctx context.Context, endpoint, account string, pos, offset int64) (schema.RespActions, error) {
	if err := f.record(fmt.Sprintf("get_actions(%d,%d)", pos, offset), endpoint); err != nil {
		return schema.RespActions{}, err
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	f.actionCalls++
	if f.failActionsAfter > 0 && f.actionCalls > f.failActionsAfter {
		return schema.RespActions{}, errTimeout
	}
	res := schema.RespActions{Actions: make([]schema.Action, 0)}
	if len(f.history) == 0 {
		return res, nil
	}
	if pos == schema.LatestActionPos {
		res.Actions = append(res.Actions, f.history[len(f.history)-1])
		return res, nil
	}
	lo := pos + offset
	for _, act := range f.history {
		if act.AccountSeq >= lo && act.AccountSeq <= pos {
			res.Actions = append(res.Actions, act)
		}
	}
	return res, nil
}

func (f *fakeTransport) GetFee(ctx context.Context, endpoint, feeEndpoint, address string) (schema.RespFee, error) {
	if err := f.record("get_fee", endpoint); err != nil {
		return schema.RespFee{}, err
	}
	if f.feeErr != nil {
		return schema.RespFee{}, f.feeErr
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	return schema.RespFee{Fee: f.fees[feeEndpoint]}, nil
}

func (f *fakeTransport) AvailCheck(ctx context.Context, endpoint, name string) (schema.RespAvail, error) {
	if err := f.record("avail_check", endpoint); err != nil {
		return schema.RespAvail{}, err
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	return schema.RespAvail{IsRegistered: f.avail[name]}, nil
}

func (f *fakeTransport) PushTransaction(ctx context.Context, endpoint string, req schema.ReqPushTx) (schema.RespPushTx, error) {
	if err := f.record("push_transaction", endpoint); err != nil {
		return schema.RespPushTx{}, err
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	f.pushed = append(f.pushed, req)
	return f.pushResp, f.pushErr
}

func (f *fakeTransport) Call(ctx context.Context, endpoint, method string, params interface{}) ([]byte, error) {
	if err := f.record(method, endpoint); err != nil {
		return nil, err
	}
	return f.callResp, nil
}

// liveRun returns a run of an active scheduler that is allowed to commit.
func liveRun() *Run {
	s := NewScheduler()
	s.active.Store(true)
	return &Run{ctx: context.Background(), sch: s, epoch: s.epoch.Load()}
}

func notifyAction(seq, height int64, txid, payee, actor string, amount int64) schema.Action {
	return schema.Action{
		AccountSeq: seq,
		BlockNum:   height,
		BlockTime:  "2021-03-01T10:00:00.000",
		Trace: schema.ActionTrace{
			TrxId: txid,
			Act: schema.Act{
				Account: schema.ActionTokenContract,
				Name:    schema.ActionTransferPubKey,
				Data:    schema.ActionData{PayeePublicKey: payee, Amount: amount, Actor: actor},
			},
		},
	}
}

func feeAction(seq, height int64, txid, from, quantity string) schema.Action {
	return schema.Action{
		AccountSeq: seq,
		BlockNum:   height,
		BlockTime:  "2021-03-01T10:00:00.000",
		Trace: schema.ActionTrace{
			TrxId: txid,
			Act: schema.Act{
				Account: schema.ActionTokenContract,
				Name:    schema.ActionTransfer,
				Data:    schema.ActionData{From: from, To: "fio.treasury", Quantity: quantity},
			},
		},
	}
}
