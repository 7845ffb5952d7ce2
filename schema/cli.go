package schema

import "time"

type Config struct {
	PublicKey        string        `yaml:"publicKey"`
	Actor            string        `yaml:"actor"`
	CurrencyCode     string        `yaml:"currencyCode"`
	Tokens           []string      `yaml:"tokens"` // extra currency codes polled for balance
	Denomination     int32         `yaml:"denomination"` // decimal places of one whole unit
	Tpid             string        `yaml:"tpid"`
	ApiEndpoints     []string      `yaml:"apiEndpoints"`
	HistoryEndpoints []string      `yaml:"historyEndpoints"`
	HistoryChunkSize int64         `yaml:"historyChunkSize"`
	Timeout          time.Duration `yaml:"timeout"`
	FeeCacheTTL      time.Duration `yaml:"feeCacheTTL"`

	Intervals Intervals `yaml:"intervals"`

	BoltDir   string `yaml:"boltDir"`
	Sqlite    string `yaml:"sqlite"`
	Mysql     string `yaml:"mysql"`
	Port      string `yaml:"port"`
	RateLimit int    `yaml:"rateLimit"` // requests per second per origin+ip, 0 disables

	Kafka Kafka `yaml:"kafka"`
}

type Intervals struct {
	BlockHeight time.Duration `yaml:"blockHeight"`
	Balance     time.Duration `yaml:"balance"`
	AccountMeta time.Duration `yaml:"accountMeta"`
	TxHistory   time.Duration `yaml:"txHistory"`
	Persist     time.Duration `yaml:"persist"`
}

type Kafka struct {
	Start bool   `yaml:"start"`
	Uri   string `yaml:"uri"`
}
