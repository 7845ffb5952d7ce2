package ledgersync

import (
	"github.com/everFinance/ledgersync/schema"
	"github.com/shopspring/decimal"
	"sync"
)

// Cache is the single mutation surface of an account's LedgerState and
// transaction lists. Every mutation marks it dirty and bumps its version.
type Cache struct {
	state   schema.LedgerState
	txs     map[string][]schema.Transaction // key: currencyCode
	txIndex map[string]map[string]int       // key: currencyCode, val: txid -> index in txs
	changed []schema.Transaction            // queued "transactions changed" notification
	dirty   bool
	version uint64
	cb      Callbacks
	lock    sync.RWMutex
}

func NewCache(cb Callbacks) *Cache {
	if cb == nil {
		cb = NopCallbacks{}
	}
	return &Cache{
		state:   schema.NewLedgerState(),
		txs:     make(map[string][]schema.Transaction),
		txIndex: make(map[string]map[string]int),
		changed: make([]schema.Transaction, 0),
		cb:      cb,
	}
}

// Load restores a persisted snapshot. The loaded state is clean.
func (c *Cache) Load(snap schema.Snapshot) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.state = copyState(snap.State)
	c.txs = make(map[string][]schema.Transaction, len(snap.Transactions))
	c.txIndex = make(map[string]map[string]int, len(snap.Transactions))
	for code, txs := range snap.Transactions {
		for _, tx := range txs {
			c.appendTx(code, tx)
		}
	}
	c.version = snap.Version
	c.dirty = false
}

func (c *Cache) markDirty() {
	c.dirty = true
	c.version++
}

func (c *Cache) GetBlockHeight() int64 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.state.BlockHeight
}

// SetBlockHeight only moves the height forward.
func (c *Cache) SetBlockHeight(height int64) bool {
	c.lock.Lock()
	if height <= c.state.BlockHeight {
		c.lock.Unlock()
		return false
	}
	c.state.BlockHeight = height
	c.markDirty()
	c.lock.Unlock()

	c.cb.OnBlockHeightChanged(height)
	return true
}

func (c *Cache) GetBalance(currencyCode string) string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	bal, ok := c.state.TotalBalances[currencyCode]
	if !ok {
		return "0"
	}
	return bal
}

// SetBalance stores amount when it differs from the cached value as a decimal,
// so "1.0" and "1" are the same balance.
func (c *Cache) SetBalance(currencyCode, amount string) (bool, error) {
	newBal, err := decimal.NewFromString(amount)
	if err != nil {
		return false, err
	}

	c.lock.Lock()
	if old, ok := c.state.TotalBalances[currencyCode]; ok {
		if oldBal, err := decimal.NewFromString(old); err == nil && oldBal.Equal(newBal) {
			c.lock.Unlock()
			return false, nil
		}
	}
	c.state.TotalBalances[currencyCode] = amount
	c.markDirty()
	c.lock.Unlock()

	c.cb.OnBalanceChanged(currencyCode, amount)
	return true, nil
}

// FindTransaction returns the index of txid in the currency list, or -1.
func (c *Cache) FindTransaction(currencyCode, txid string) int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.findTx(currencyCode, txid)
}

func (c *Cache) findTx(currencyCode, txid string) int {
	idx, ok := c.txIndex[currencyCode][txid]
	if !ok {
		return -1
	}
	return idx
}

// AddTransaction appends tx and queues a transactions changed notification.
// A txid already recorded for the currency is not appended again; false is
// returned. Use UpdateTransaction to rewrite it.
func (c *Cache) AddTransaction(currencyCode string, tx schema.Transaction) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.findTx(currencyCode, tx.TxId) >= 0 {
		return false
	}
	tx.CurrencyCode = currencyCode
	c.appendTx(currencyCode, tx)
	c.changed = append(c.changed, tx)
	c.markDirty()
	return true
}

// UpdateTransaction rewrites the recorded transaction carrying tx.TxId and
// queues it for the transactions changed notification. It returns false when
// txid is unknown or nothing changed.
func (c *Cache) UpdateTransaction(currencyCode string, tx schema.Transaction) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	idx := c.findTx(currencyCode, tx.TxId)
	if idx < 0 {
		return false
	}
	tx.CurrencyCode = currencyCode
	if sameTx(c.txs[currencyCode][idx], tx) {
		return false
	}
	c.txs[currencyCode][idx] = tx
	c.changed = append(c.changed, tx)
	c.markDirty()
	return true
}

// GetTransaction returns a copy of the recorded transaction carrying txid.
func (c *Cache) GetTransaction(currencyCode, txid string) (schema.Transaction, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	idx := c.findTx(currencyCode, txid)
	if idx < 0 {
		return schema.Transaction{}, false
	}
	return c.txs[currencyCode][idx], true
}

func sameTx(a, b schema.Transaction) bool {
	if a.NativeAmount != b.NativeAmount || a.NetworkFee != b.NetworkFee ||
		a.BlockHeight != b.BlockHeight || a.Date != b.Date || a.Metadata != b.Metadata ||
		len(a.OurReceiveAddresses) != len(b.OurReceiveAddresses) {
		return false
	}
	for i := range a.OurReceiveAddresses {
		if a.OurReceiveAddresses[i] != b.OurReceiveAddresses[i] {
			return false
		}
	}
	return true
}

func (c *Cache) appendTx(currencyCode string, tx schema.Transaction) {
	if _, ok := c.txIndex[currencyCode]; !ok {
		c.txIndex[currencyCode] = make(map[string]int)
	}
	c.txIndex[currencyCode][tx.TxId] = len(c.txs[currencyCode])
	c.txs[currencyCode] = append(c.txs[currencyCode], tx)
}

// FlushTransactions delivers the queued transactions changed notification.
func (c *Cache) FlushTransactions() {
	c.lock.Lock()
	if len(c.changed) == 0 {
		c.lock.Unlock()
		return
	}
	txs := c.changed
	c.changed = make([]schema.Transaction, 0)
	c.lock.Unlock()

	c.cb.OnTransactionsChanged(txs)
}

func (c *Cache) GetTransactions(currencyCode string) []schema.Transaction {
	c.lock.RLock()
	defer c.lock.RUnlock()
	res := make([]schema.Transaction, len(c.txs[currencyCode]))
	copy(res, c.txs[currencyCode])
	return res
}

func (c *Cache) GetNumTransactions(currencyCode string) int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.txs[currencyCode])
}

func (c *Cache) GetHighestTxHeight() int64 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.state.HighestTxHeight
}

// SetHighestTxHeight only moves the watermark forward.
func (c *Cache) SetHighestTxHeight(height int64) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if height <= c.state.HighestTxHeight {
		return false
	}
	c.state.HighestTxHeight = height
	c.markDirty()
	return true
}

// UpsertAddress appends a new address or updates the expiration of a known one.
func (c *Cache) UpsertAddress(addr schema.Address) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	for i, a := range c.state.Addresses {
		if a.Name != addr.Name {
			continue
		}
		if a.Expiration == addr.Expiration {
			return false
		}
		c.state.Addresses[i].Expiration = addr.Expiration
		c.markDirty()
		return true
	}
	c.state.Addresses = append(c.state.Addresses, addr)
	c.markDirty()
	return true
}

// UpsertDomain appends a new domain or updates expiration and visibility of a known one.
func (c *Cache) UpsertDomain(dom schema.Domain) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	for i, d := range c.state.Domains {
		if d.Name != dom.Name {
			continue
		}
		if d.Expiration == dom.Expiration && d.IsPublic == dom.IsPublic {
			return false
		}
		c.state.Domains[i].Expiration = dom.Expiration
		c.state.Domains[i].IsPublic = dom.IsPublic
		c.markDirty()
		return true
	}
	c.state.Domains = append(c.state.Domains, dom)
	c.markDirty()
	return true
}

func (c *Cache) GetAddresses() []schema.Address {
	c.lock.RLock()
	defer c.lock.RUnlock()
	res := make([]schema.Address, len(c.state.Addresses))
	copy(res, c.state.Addresses)
	return res
}

func (c *Cache) GetDomains() []schema.Domain {
	c.lock.RLock()
	defer c.lock.RUnlock()
	res := make([]schema.Domain, len(c.state.Domains))
	copy(res, c.state.Domains)
	return res
}

func (c *Cache) GetState() schema.LedgerState {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return copyState(c.state)
}

// Reset is the resync primitive: balances are kept, everything else is
// cleared back to its empty form.
func (c *Cache) Reset() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.state.BlockHeight = 0
	c.state.HighestTxHeight = 0
	c.state.Addresses = make([]schema.Address, 0)
	c.state.Domains = make([]schema.Domain, 0)
	c.txs = make(map[string][]schema.Transaction)
	c.txIndex = make(map[string]map[string]int)
	c.changed = make([]schema.Transaction, 0)
	c.markDirty()
}

func (c *Cache) IsDirty() bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.dirty
}

// Snapshot returns a deep copy of the cache tagged with its current version.
func (c *Cache) Snapshot() schema.Snapshot {
	c.lock.RLock()
	defer c.lock.RUnlock()
	txs := make(map[string][]schema.Transaction, len(c.txs))
	for code, list := range c.txs {
		cp := make([]schema.Transaction, len(list))
		copy(cp, list)
		txs[code] = cp
	}
	return schema.Snapshot{
		Version:      c.version,
		State:        copyState(c.state),
		Transactions: txs,
	}
}

// ClearDirty clears the dirty flag if nothing changed since the snapshot of
// the given version was taken.
func (c *Cache) ClearDirty(version uint64) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.version != version {
		return false
	}
	c.dirty = false
	return true
}

func copyState(st schema.LedgerState) schema.LedgerState {
	res := schema.LedgerState{
		BlockHeight:     st.BlockHeight,
		HighestTxHeight: st.HighestTxHeight,
		TotalBalances:   make(map[string]string, len(st.TotalBalances)),
		Addresses:       make([]schema.Address, len(st.Addresses)),
		Domains:         make([]schema.Domain, len(st.Domains)),
	}
	for k, v := range st.TotalBalances {
		res.TotalBalances[k] = v
	}
	copy(res.Addresses, st.Addresses)
	copy(res.Domains, st.Domains)
	return res
}
