package schema

const (
	BalanceTopic     = "ledgersync_balance"
	HeightTopic      = "ledgersync_height"
	TransactionTopic = "ledgersync_transactions"
)

type KBalance struct {
	Account      string `json:"account"`
	CurrencyCode string `json:"currencyCode"`
	Balance      string `json:"balance"`
}

type KHeight struct {
	Account     string `json:"account"`
	BlockHeight int64  `json:"blockHeight"`
}

type KTransactions struct {
	Account      string        `json:"account"`
	Transactions []Transaction `json:"transactions"`
}
