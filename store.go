package ledgersync

import (
	"encoding/json"
	"errors"
	"github.com/everFinance/ledgersync/rawdb"
	"github.com/everFinance/ledgersync/schema"
	"strconv"
)

// Store persists cache snapshots in a key value db.
type Store struct {
	KVDb rawdb.KeyValueDB
}

func NewBoltStore(boltDirPath string) (*Store, error) {
	Db, err := rawdb.NewBoltDB(boltDirPath)
	if err != nil {
		return nil, err
	}
	return &Store{KVDb: Db}, nil
}

func (s *Store) Close() error {
	return s.KVDb.Close()
}

// SaveSnapshot writes state, transactions and version atomically.
func (s *Store) SaveSnapshot(snap schema.Snapshot) error {
	state, err := json.Marshal(snap.State)
	if err != nil {
		return err
	}
	entries := []rawdb.Entry{
		{Bucket: schema.StateBucket, Key: schema.StateKey, Value: state},
		{Bucket: schema.ConstantsBucket, Key: schema.VersionKey, Value: []byte(strconv.FormatUint(snap.Version, 10))},
	}
	// currencies cleared by a reset are overwritten with an empty list
	stale, err := s.KVDb.GetAllKey(schema.TransactionBucket)
	if err != nil {
		return err
	}
	for _, code := range stale {
		if _, ok := snap.Transactions[code]; !ok {
			entries = append(entries, rawdb.Entry{Bucket: schema.TransactionBucket, Key: code, Value: []byte("[]")})
		}
	}
	for code, txs := range snap.Transactions {
		val, err := json.Marshal(txs)
		if err != nil {
			return err
		}
		entries = append(entries, rawdb.Entry{Bucket: schema.TransactionBucket, Key: code, Value: val})
	}
	return s.KVDb.PutBatch(entries)
}

// LoadSnapshot returns schema.ErrNotExist when nothing was saved yet.
func (s *Store) LoadSnapshot() (schema.Snapshot, error) {
	snap := schema.Snapshot{
		State:        schema.NewLedgerState(),
		Transactions: make(map[string][]schema.Transaction),
	}
	data, err := s.KVDb.Get(schema.StateBucket, schema.StateKey)
	if err != nil {
		return snap, err
	}
	if err = json.Unmarshal(data, &snap.State); err != nil {
		return snap, err
	}
	if snap.State.TotalBalances == nil {
		snap.State.TotalBalances = make(map[string]string)
	}

	if ver, err := s.KVDb.Get(schema.ConstantsBucket, schema.VersionKey); err == nil {
		snap.Version, err = strconv.ParseUint(string(ver), 10, 64)
		if err != nil {
			return snap, err
		}
	} else if !errors.Is(err, schema.ErrNotExist) {
		return snap, err
	}

	codes, err := s.KVDb.GetAllKey(schema.TransactionBucket)
	if err != nil {
		return snap, err
	}
	for _, code := range codes {
		data, err := s.KVDb.Get(schema.TransactionBucket, code)
		if err != nil {
			return snap, err
		}
		txs := make([]schema.Transaction, 0)
		if err = json.Unmarshal(data, &txs); err != nil {
			return snap, err
		}
		snap.Transactions[code] = txs
	}
	return snap, nil
}
