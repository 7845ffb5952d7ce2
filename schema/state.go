package schema

// Address is a named alias owned by the account.
type Address struct {
	Name       string `json:"name"`
	Expiration string `json:"expiration"`
}

// Domain is a named grouping owned by the account.
type Domain struct {
	Name       string `json:"name"`
	Expiration string `json:"expiration"`
	IsPublic   bool   `json:"isPublic"`
}

// LedgerState is the locally known chain state of one account.
type LedgerState struct {
	BlockHeight     int64             `json:"blockHeight"`
	TotalBalances   map[string]string `json:"totalBalances"` // key: currencyCode, val: native amount
	HighestTxHeight int64             `json:"highestTxHeight"`
	Addresses       []Address         `json:"addresses"`
	Domains         []Domain          `json:"domains"`
}

func NewLedgerState() LedgerState {
	return LedgerState{
		TotalBalances: make(map[string]string),
		Addresses:     make([]Address, 0),
		Domains:       make([]Domain, 0),
	}
}

type TxMetadata struct {
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

type Transaction struct {
	TxId                string     `json:"txid"`
	Date                int64      `json:"date"` // unix seconds
	CurrencyCode        string     `json:"currencyCode"`
	BlockHeight         int64      `json:"blockHeight"`
	NativeAmount        string     `json:"nativeAmount"` // signed
	NetworkFee          string     `json:"networkFee"`
	OurReceiveAddresses []string   `json:"ourReceiveAddresses"`
	Metadata            TxMetadata `json:"metadata"`
	SignedTx            string     `json:"signedTx,omitempty"`
	OtherParams         *TxParams  `json:"otherParams,omitempty"`
}

// TxParams carries the action a locally built spend will push.
type TxParams struct {
	Action  string          `json:"action"`
	Account string          `json:"account"`
	Payload TransferPayload `json:"payload"`
}

// Snapshot is what the persistence job writes out. Version identifies the
// mutation generation it was taken at.
type Snapshot struct {
	Version      uint64                   `json:"version"`
	State        LedgerState              `json:"state"`
	Transactions map[string][]Transaction `json:"transactions"` // key: currencyCode
}

type SpendRequest struct {
	CurrencyCode  string     `json:"currencyCode"`
	PublicAddress string     `json:"publicAddress"`
	NativeAmount  string     `json:"nativeAmount"`
	Metadata      TxMetadata `json:"metadata"`
}
