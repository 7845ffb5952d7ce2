package schema

type RespInfo struct {
	BlockHeight     int64  `json:"blockHeight"`
	HighestTxHeight int64  `json:"highestTxHeight"`
	Active          bool   `json:"active"`
	PublicKey       string `json:"publicKey"`
}

type RespBal struct {
	CurrencyCode string `json:"currencyCode"`
	Balance      string `json:"balance"`
}

type RespAddr struct {
	PublicAddress string `json:"publicAddress"`
}

type ReqRpc struct {
	Params map[string]interface{} `json:"params"`
}

type RespErr struct {
	Err string `json:"error"`
}

func (r RespErr) Error() string {
	return r.Err
}
