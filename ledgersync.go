package ledgersync

import (
	"context"
	"github.com/everFinance/ledgersync/cache"
	"github.com/everFinance/ledgersync/config"
	"github.com/everFinance/ledgersync/schema"
	"github.com/gin-gonic/gin"
	"sync"
)

// LedgerSync mirrors the state of one account on the remote ledger.
type LedgerSync struct {
	config    schema.Config
	keys      Keyring
	transport Transport

	apiInvoker     *Invoker
	historyInvoker *Invoker

	cache     *Cache
	scheduler *Scheduler
	taskMg    *TaskManager
	history   *HistorySync
	meta      *MetaSync
	spender   *Spender
	fees      *cache.FeeCache

	store *Store // nil when snapshots are disabled
	wdb   *Wdb   // nil when the tx archive is disabled
	kafka *KafkaNotifier

	archived  map[string]map[string]string // key: currencyCode, val: txid -> archiveKey
	engine    *gin.Engine
	closeOnce sync.Once
}

// New builds an engine from cfg. Storage, archive and kafka are enabled by
// their config fields. signer and cb may be nil.
func New(cfg schema.Config, transport Transport, signer Signer, cb Callbacks) (*LedgerSync, error) {
	if err := config.Validate(&cfg); err != nil {
		return nil, err
	}
	keys := NewStaticKeyring(cfg.PublicKey, cfg.Actor)

	callbacks := MultiCallbacks{}
	if cb != nil {
		callbacks = append(callbacks, cb)
	}
	var kafka *KafkaNotifier
	if cfg.Kafka.Start {
		k, err := NewKafkaNotifier(cfg.Kafka.Uri, cfg.Actor)
		if err != nil {
			return nil, err
		}
		kafka = k
		callbacks = append(callbacks, k)
	}

	fees, err := cache.NewFeeCache(cfg.FeeCacheTTL)
	if err != nil {
		return nil, err
	}

	s := &LedgerSync{
		config:         cfg,
		keys:           keys,
		transport:      transport,
		apiInvoker:     NewInvoker(schema.CapabilityApi, cfg.ApiEndpoints),
		historyInvoker: NewInvoker(schema.CapabilityHistory, cfg.HistoryEndpoints),
		cache:          NewCache(callbacks),
		scheduler:      NewScheduler(),
		taskMg:         NewTaskMg(),
		fees:           fees,
		kafka:          kafka,
		archived:       make(map[string]map[string]string),
	}
	s.history = NewHistorySync(s.cache, transport, s.historyInvoker, keys, cfg.CurrencyCode, cfg.Denomination, cfg.HistoryChunkSize)
	s.meta = NewMetaSync(s.cache, transport, s.apiInvoker, keys)
	s.spender = NewSpender(s.cache, transport, s.apiInvoker, keys, signer, fees, cfg.CurrencyCode, cfg.Tpid)

	if cfg.BoltDir != "" {
		if s.store, err = NewBoltStore(cfg.BoltDir); err != nil {
			return nil, err
		}
		snap, err := s.store.LoadSnapshot()
		switch err {
		case nil:
			s.cache.Load(snap)
			log.Info("load ledger snapshot", "version", snap.Version, "blockHeight", snap.State.BlockHeight, "highestTxHeight", snap.State.HighestTxHeight)
		case schema.ErrNotExist:
		default:
			return nil, err
		}
	}
	if cfg.Mysql != "" {
		s.wdb = NewMysqlDb(cfg.Mysql)
	} else if cfg.Sqlite != "" {
		s.wdb = NewSqliteDb(cfg.Sqlite)
	}
	if s.wdb != nil {
		if err = s.wdb.Migrate(); err != nil {
			return nil, err
		}
	}

	if err = s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *LedgerSync) Run(port string) {
	if err := s.StartEngine(); err != nil {
		panic(err)
	}
	go s.runAPI(port)
}

func (s *LedgerSync) Close() {
	s.closeOnce.Do(func() {
		s.StopEngine()
		s.scheduler.Wait()
		if err := s.persist(); err != nil {
			log.Error("s.persist()", "err", err)
		}
		if s.kafka != nil {
			s.kafka.Close()
		}
		if s.store != nil {
			if err := s.store.Close(); err != nil {
				log.Error("s.store.Close()", "err", err)
			}
		}
		if s.wdb != nil {
			s.wdb.Close()
		}
		if err := s.fees.Close(); err != nil {
			log.Error("s.fees.Close()", "err", err)
		}
	})
}

func (s *LedgerSync) StartEngine() error {
	if err := s.scheduler.Start(); err != nil {
		return err
	}
	log.Info("engine started", "account", s.keys.Actor(), "tasks", s.scheduler.Tasks())
	return nil
}

func (s *LedgerSync) StopEngine() {
	s.scheduler.Stop()
	log.Info("engine stopped", "account", s.keys.Actor())
}

func (s *LedgerSync) IsActive() bool {
	return s.scheduler.IsActive()
}

// Resync drops everything learned from the chain except balances and
// starts syncing from scratch.
func (s *LedgerSync) Resync() error {
	active := s.scheduler.IsActive()
	s.scheduler.Stop()
	// stopped runs can no longer commit, but they still hold their task slot
	s.scheduler.Wait()
	s.scheduler.Exclusive(s.cache.Reset)
	log.Info("ledger state reset", "account", s.keys.Actor())
	if !active {
		return nil
	}
	return s.scheduler.Start()
}

func (s *LedgerSync) GetBalance(currencyCode string) string {
	if currencyCode == "" {
		currencyCode = s.config.CurrencyCode
	}
	return s.cache.GetBalance(currencyCode)
}

func (s *LedgerSync) GetFreshAddress() string {
	return s.keys.PublicKey()
}

func (s *LedgerSync) GetBlockHeight() int64 {
	return s.cache.GetBlockHeight()
}

func (s *LedgerSync) GetState() schema.LedgerState {
	return s.cache.GetState()
}

func (s *LedgerSync) GetTransactions(currencyCode string) []schema.Transaction {
	if currencyCode == "" {
		currencyCode = s.config.CurrencyCode
	}
	return s.cache.GetTransactions(currencyCode)
}

func (s *LedgerSync) GetNumTransactions(currencyCode string) int {
	if currencyCode == "" {
		currencyCode = s.config.CurrencyCode
	}
	return s.cache.GetNumTransactions(currencyCode)
}

func (s *LedgerSync) MakeSpend(ctx context.Context, req schema.SpendRequest) (schema.Transaction, error) {
	return s.spender.MakeSpend(ctx, req)
}

func (s *LedgerSync) SignTx(ctx context.Context, tx schema.Transaction) (schema.Transaction, error) {
	return s.spender.SignTx(ctx, tx)
}

func (s *LedgerSync) BroadcastTx(ctx context.Context, tx schema.Transaction) (schema.Transaction, error) {
	return s.spender.BroadcastTx(ctx, tx)
}

// OtherMethods exposes the named chain procedures: fees, name availability,
// address and domain registration and raw calls.
func (s *LedgerSync) OtherMethods() *Spender {
	return s.spender
}
