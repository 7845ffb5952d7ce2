package schema

// remote ledger responses

type ChainInfo struct {
	ChainId          string `json:"chain_id"`
	HeadBlockNum     int64  `json:"head_block_num"`
	LastIrreversible int64  `json:"last_irreversible_block_num"`
}

type RespBalance struct {
	Balance   string `json:"balance"` // native units
	Available string `json:"available"`
}

type RespAddress struct {
	Address    string `json:"fio_address"`
	Expiration string `json:"expiration"`
}

type RespDomain struct {
	Domain     string `json:"fio_domain"`
	Expiration string `json:"expiration"`
	IsPublic   int    `json:"is_public"`
}

type RespNames struct {
	Addresses []RespAddress `json:"fio_addresses"`
	Domains   []RespDomain  `json:"fio_domains"`
}

type RespFee struct {
	Fee string `json:"fee"` // native units
}

type RespAvail struct {
	IsRegistered int `json:"is_registered"`
}

type ActionAuth struct {
	Actor      string `json:"actor"`
	Permission string `json:"permission"`
}

// ActionData is the union of the data fields of the recognized action kinds.
type ActionData struct {
	// ownership-transfer-notification
	PayeePublicKey string `json:"payee_public_key"`
	Amount         int64  `json:"amount"`
	MaxFee         int64  `json:"max_fee"`
	Actor          string `json:"actor"`
	Tpid           string `json:"tpid"`

	// value-transfer
	From     string `json:"from"`
	To       string `json:"to"`
	Quantity string `json:"quantity"` // e.g "2.000000000 FIO"
	Memo     string `json:"memo"`
}

type Act struct {
	Account       string       `json:"account"`
	Name          string       `json:"name"`
	Authorization []ActionAuth `json:"authorization"`
	Data          ActionData   `json:"data"`
}

type ActionTrace struct {
	TrxId string `json:"trx_id"`
	Act   Act    `json:"act"`
}

type Action struct {
	GlobalSeq  int64       `json:"global_action_seq"`
	AccountSeq int64       `json:"account_action_seq"`
	BlockNum   int64       `json:"block_num"`
	BlockTime  string      `json:"block_time"` // "2006-01-02T15:04:05.000", UTC
	Trace      ActionTrace `json:"action_trace"`
}

type RespActions struct {
	Actions               []Action `json:"actions"`
	LastIrreversibleBlock int64    `json:"last_irreversible_block"`
}

// TransferPayload is the unsigned body of a spend.
type TransferPayload struct {
	PayeePublicKey string `json:"payee_public_key"`
	Amount         string `json:"amount"`
	MaxFee         string `json:"max_fee"`
	Actor          string `json:"actor"`
	Tpid           string `json:"tpid"`
}

type ReqPushTx struct {
	Action    string      `json:"action"`
	Account   string      `json:"account"`
	Actor     string      `json:"actor"`
	Data      interface{} `json:"data"`
	Signature string      `json:"signature,omitempty"`
}

type Processed struct {
	Id       string `json:"id"`
	BlockNum int64  `json:"block_num"`
}

type RespPushTx struct {
	TransactionId string    `json:"transaction_id"`
	Processed     Processed `json:"processed"`
}
