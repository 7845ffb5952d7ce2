package schema

import "time"

// ArchivedTx is the sql row of one recorded transaction.
type ArchivedTx struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	Account      string `gorm:"uniqueIndex:idx_tx,priority:1" json:"account"`
	CurrencyCode string `gorm:"uniqueIndex:idx_tx,priority:2" json:"currencyCode"`
	TxId         string `gorm:"uniqueIndex:idx_tx,priority:3" json:"txid"`
	Date         int64  `json:"date"`
	BlockHeight  int64  `gorm:"index:idx_height" json:"blockHeight"`
	NativeAmount string `json:"nativeAmount"`
	NetworkFee   string `json:"networkFee"`
	Name         string `json:"name"`
	Notes        string `json:"notes"`
}

func (ArchivedTx) TableName() string {
	return "ledger_transactions"
}
