package rawdb

type KeyValueDB interface {
	Put(bucket, key string, value interface{}) (err error)

	Get(bucket, key string) (data []byte, err error)

	// PutBatch writes all entries in one transaction
	PutBatch(entries []Entry) (err error)

	GetAllKey(bucket string) (keys []string, err error)

	Delete(bucket, key string) (err error)

	Close() (err error)

	Type() string

	Exist(bucket, key string) bool
}

type Entry struct {
	Bucket string
	Key    string
	Value  []byte
}
