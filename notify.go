package ledgersync

import (
	"github.com/everFinance/ledgersync/schema"
)

// Callbacks is the change-notification surface of the wallet core.
type Callbacks interface {
	OnBalanceChanged(currencyCode, amount string)
	OnBlockHeightChanged(height int64)
	OnTransactionsChanged(txs []schema.Transaction)
}

type NopCallbacks struct{}

func (NopCallbacks) OnBalanceChanged(string, string)            {}
func (NopCallbacks) OnBlockHeightChanged(int64)                 {}
func (NopCallbacks) OnTransactionsChanged([]schema.Transaction) {}

// MultiCallbacks fans every notification out to each member in order.
type MultiCallbacks []Callbacks

func (m MultiCallbacks) OnBalanceChanged(currencyCode, amount string) {
	for _, cb := range m {
		cb.OnBalanceChanged(currencyCode, amount)
	}
}

func (m MultiCallbacks) OnBlockHeightChanged(height int64) {
	for _, cb := range m {
		cb.OnBlockHeightChanged(height)
	}
}

func (m MultiCallbacks) OnTransactionsChanged(txs []schema.Transaction) {
	for _, cb := range m {
		cb.OnTransactionsChanged(txs)
	}
}
