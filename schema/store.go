package schema

var (
	// bucket
	StateBucket       = "ledger-state-bucket"       // key: StateKey, val: json.marshal(Snapshot.State)
	TransactionBucket = "ledger-transaction-bucket" // key: currencyCode, val: json.marshal([]Transaction)
	ConstantsBucket   = "constants-bucket"          // key: VersionKey

	StateKey   = "state"
	VersionKey = "snapshot-version"
)
