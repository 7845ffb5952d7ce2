package ledgersync

import (
	"context"
	"errors"
	"fmt"
	"github.com/everFinance/ledgersync/schema"
	"github.com/panjf2000/ants/v2"
	"sync"
	"time"
)

func (s *LedgerSync) registerJobs() error {
	iv := s.config.Intervals
	jobs := []struct {
		name     string
		interval time.Duration
		fn       TaskFunc
	}{
		{schema.TaskBlockHeight, iv.BlockHeight, s.updateBlockHeight},
		{schema.TaskBalance, iv.Balance, s.updateBalances},
		{schema.TaskAccountMeta, iv.AccountMeta, s.meta.Sync},
		{schema.TaskTxHistory, iv.TxHistory, s.history.Sync},
	}
	if s.store != nil || s.wdb != nil {
		jobs = append(jobs, struct {
			name     string
			interval time.Duration
			fn       TaskFunc
		}{schema.TaskPersist, iv.Persist, s.runPersist})
	}
	for _, j := range jobs {
		if err := s.scheduler.Register(j.name, j.interval, j.fn); err != nil {
			return err
		}
		s.taskMg.AddTask(j.name, j.interval)
	}
	s.scheduler.AfterRun(func(name string, err error) {
		s.taskMg.Done(name, err)
		// deliver the transactions a run queued, once per run
		s.cache.FlushTransactions()
	})
	return nil
}

func (s *LedgerSync) updateBlockHeight(run *Run) error {
	info, err := Invoke(run.Context(), s.apiInvoker, func(ctx context.Context, endpoint string) (schema.ChainInfo, error) {
		return s.transport.GetInfo(ctx, endpoint)
	})
	if err != nil {
		return err
	}
	run.Commit(func() {
		if s.cache.SetBlockHeight(info.HeadBlockNum) {
			metricBlockHeight(s.keys.Actor(), info.HeadBlockNum)
		}
	})
	return nil
}

// updateBalances polls the balance of the native currency and every
// configured token concurrently.
func (s *LedgerSync) updateBalances(run *Run) error {
	codes := append([]string{s.config.CurrencyCode}, s.config.Tokens...)

	var (
		wg       sync.WaitGroup
		lock     sync.Mutex
		firstErr error
	)
	p, err := ants.NewPoolWithFunc(len(codes), func(i interface{}) {
		defer wg.Done()
		code := i.(string)
		if err := s.updateBalance(run, code); err != nil {
			log.Error("s.updateBalance(code)", "err", err, "currency", code)
			lock.Lock()
			if firstErr == nil {
				firstErr = err
			}
			lock.Unlock()
		}
	})
	if err != nil {
		return err
	}
	defer p.Release()

	for _, code := range codes {
		wg.Add(1)
		if err := p.Invoke(code); err != nil {
			wg.Done()
			return err
		}
	}
	wg.Wait()
	return firstErr
}

func (s *LedgerSync) updateBalance(run *Run, currencyCode string) error {
	bal, err := Invoke(run.Context(), s.apiInvoker, func(ctx context.Context, endpoint string) (schema.RespBalance, error) {
		return s.transport.GetBalance(ctx, endpoint, s.keys.PublicKey(), currencyCode)
	})
	if err != nil {
		// unknown keys have never held anything
		appErr := &schema.ApplicationError{}
		if !errors.As(err, &appErr) || appErr.Code != 404 {
			return err
		}
		bal.Balance = "0"
	}

	var setErr error
	run.Commit(func() {
		_, setErr = s.cache.SetBalance(currencyCode, bal.Balance)
	})
	return setErr
}

// archiveKey identifies the archived content of a transaction.
func archiveKey(tx schema.Transaction) string {
	return fmt.Sprintf("%d/%s/%s/%s/%s", tx.BlockHeight, tx.NativeAmount, tx.NetworkFee, tx.Metadata.Name, tx.Metadata.Notes)
}

func (s *LedgerSync) runPersist(run *Run) error {
	return s.persist()
}

// persist writes a snapshot of a dirty cache and archives the transactions
// added or rewritten since the last archive. The dirty flag is cleared only when
// nothing changed meanwhile.
func (s *LedgerSync) persist() error {
	if !s.cache.IsDirty() {
		return nil
	}
	snap := s.cache.Snapshot()
	if s.store != nil {
		if err := s.store.SaveSnapshot(snap); err != nil {
			return err
		}
	}
	if s.wdb != nil {
		for code, txs := range snap.Transactions {
			marks, ok := s.archived[code]
			if !ok {
				marks = make(map[string]string)
				s.archived[code] = marks
			}
			pending := make([]schema.Transaction, 0)
			for _, tx := range txs {
				if marks[tx.TxId] != archiveKey(tx) {
					pending = append(pending, tx)
				}
			}
			if err := s.wdb.ArchiveTxs(s.keys.Actor(), pending); err != nil {
				return err
			}
			for _, tx := range pending {
				marks[tx.TxId] = archiveKey(tx)
			}
		}
	}
	if s.cache.ClearDirty(snap.Version) {
		log.Debug("persist ledger snapshot", "version", snap.Version)
	}
	return nil
}
