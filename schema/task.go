package schema

import "time"

const (
	// named polling tasks
	TaskBlockHeight = "blockHeight"
	TaskBalance     = "balance"
	TaskAccountMeta = "accountMeta"
	TaskTxHistory   = "txHistory"
	TaskPersist     = "persist"

	DefaultBlockHeightInterval = 15 * time.Second
	DefaultBalanceInterval     = 10 * time.Second
	DefaultAccountMetaInterval = 10 * time.Second
	DefaultTxHistoryInterval   = 10 * time.Second
	DefaultPersistInterval     = 5 * time.Second

	DefaultHistoryChunkSize = 20
	DefaultFeeCacheTTL      = 60 * time.Second

	// endpoint capabilities
	CapabilityApi     = "api"
	CapabilityHistory = "history"
)

const (
	// history action kinds
	ActionTransferPubKey = "trnsfiopubky" // ownership-transfer-notification
	ActionTransfer       = "transfer"     // value-transfer

	// registration actions
	ActionRegAddress    = "regaddress"
	ActionRenewAddress  = "renewaddress"
	ActionRegDomain     = "regdomain"
	ActionRenewDomain   = "renewdomain"
	ActionSetDomainPub  = "setdomainpub"
	ActionTokenContract = "fio.token"
	ActionAddrContract  = "fio.address"

	// fee endpoints
	FeeTransferPubKey = "transfer_tokens_pub_key"
	FeeRegAddress     = "register_fio_address"
	FeeRenewAddress   = "renew_fio_address"
	FeeRegDomain      = "register_fio_domain"
	FeeRenewDomain    = "renew_fio_domain"
	FeeSetDomainPub   = "set_fio_domain_public"

	// sentinel position meaning "most recent"
	LatestActionPos = -1

	BlockTimeLayout = "2006-01-02T15:04:05.000"
)

// TaskStatus is the run record of one polling task.
type TaskStatus struct {
	Name           string        `json:"name"`
	Interval       time.Duration `json:"interval"`
	CountSuccessed int64         `json:"countSuccessed"`
	CountFailed    int64         `json:"countFailed"`
	LastErr        string        `json:"lastErr"`
	LastRun        int64         `json:"lastRun"` // unix seconds
}
