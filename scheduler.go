package ledgersync

import (
	"context"
	"fmt"
	"github.com/go-co-op/gocron"
	"sync"
	"sync/atomic"
	"time"
)

// TaskFunc is one invocation of a named polling task. Mutations of shared
// state must go through run.Commit.
type TaskFunc func(run *Run) error

// Run is the handle of a single task invocation.
type Run struct {
	ctx   context.Context
	sch   *Scheduler
	epoch uint64
}

func (r *Run) Context() context.Context {
	return r.ctx
}

// Live reports whether the activation this run was started in is still current.
func (r *Run) Live() bool {
	return r.sch.active.Load() && r.sch.epoch.Load() == r.epoch
}

// Commit runs fn if the run is still live. fn never overlaps with Exclusive.
func (r *Run) Commit(fn func()) bool {
	r.sch.commitLock.RLock()
	defer r.sch.commitLock.RUnlock()
	if !r.Live() {
		return false
	}
	fn()
	return true
}

type task struct {
	name     string
	interval time.Duration
	fn       TaskFunc
	running  atomic.Bool
}

// Scheduler owns named recurring tasks, started and stopped together.
// A task never overlaps with itself; distinct tasks may run concurrently.
type Scheduler struct {
	tasks    map[string]*task
	order    []string
	cron     *gocron.Scheduler
	afterRun func(name string, err error)

	active     atomic.Bool
	epoch      atomic.Uint64
	lock       sync.Mutex
	commitLock sync.RWMutex
	inflight   sync.WaitGroup
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		tasks: make(map[string]*task),
		order: make([]string, 0),
	}
}

// AfterRun installs a hook called after every finished invocation.
func (s *Scheduler) AfterRun(fn func(name string, err error)) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.afterRun = fn
}

func (s *Scheduler) Register(name string, interval time.Duration, fn TaskFunc) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.tasks[name]; ok {
		return ErrTaskExist
	}
	if interval <= 0 {
		return fmt.Errorf("task %s interval must be positive", name)
	}
	s.tasks[name] = &task{name: name, interval: interval, fn: fn}
	s.order = append(s.order, name)
	return nil
}

func (s *Scheduler) Tasks() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	res := make([]string, len(s.order))
	copy(res, s.order)
	return res
}

func (s *Scheduler) IsActive() bool {
	return s.active.Load()
}

// Start activates every registered task. Each task fires immediately and then on its interval.
func (s *Scheduler) Start() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.active.Load() {
		return nil
	}

	epoch := s.epoch.Add(1)
	cron := gocron.NewScheduler(time.UTC)
	for _, name := range s.order {
		tk := s.tasks[name]
		if _, err := cron.Every(tk.interval).SingletonMode().Do(func() {
			s.invoke(tk, epoch)
		}); err != nil {
			return fmt.Errorf("schedule task %s failed: %v", name, err)
		}
	}
	s.cron = cron
	s.active.Store(true)
	cron.StartAsync()
	return nil
}

// Stop cancels all pending timers. In-flight invocations finish but can no longer commit.
func (s *Scheduler) Stop() {
	s.lock.Lock()
	if !s.active.Load() {
		s.lock.Unlock()
		return
	}
	s.active.Store(false)
	cron := s.cron
	s.cron = nil
	s.lock.Unlock()

	// gocron waits for running jobs, which take s.lock in invoke
	if cron != nil {
		cron.Stop()
		cron.Clear()
	}
}

// Exclusive runs fn while no task is committing.
func (s *Scheduler) Exclusive(fn func()) {
	s.commitLock.Lock()
	defer s.commitLock.Unlock()
	fn()
}

// Trigger runs the named task now in the calling goroutine, honoring single-flight.
func (s *Scheduler) Trigger(name string) error {
	s.lock.Lock()
	tk, ok := s.tasks[name]
	s.lock.Unlock()
	if !ok {
		return ErrTaskNotFound
	}
	s.invoke(tk, s.epoch.Load())
	return nil
}

// Wait blocks until no task invocation is in flight.
func (s *Scheduler) Wait() {
	s.inflight.Wait()
}

func (s *Scheduler) invoke(tk *task, epoch uint64) {
	if !tk.running.CompareAndSwap(false, true) {
		log.Debug("task still running, skip this tick", "task", tk.name)
		return
	}
	defer tk.running.Store(false)

	// Stop flips active under s.lock, so no Add can follow a Wait started after Stop
	s.lock.Lock()
	if !s.active.Load() || s.epoch.Load() != epoch {
		s.lock.Unlock()
		return
	}
	s.inflight.Add(1)
	s.lock.Unlock()
	defer s.inflight.Done()

	run := &Run{ctx: context.Background(), sch: s, epoch: epoch}
	err := safeRun(tk.fn, run)
	if err != nil {
		log.Error("task run failed", "task", tk.name, "err", err)
		metricTaskError(tk.name)
	}

	s.lock.Lock()
	after := s.afterRun
	s.lock.Unlock()
	if after != nil {
		after(tk.name, err)
	}
}

func safeRun(fn TaskFunc, run *Run) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panic: %v", r)
		}
	}()
	return fn(run)
}
