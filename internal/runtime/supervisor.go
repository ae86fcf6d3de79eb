package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// RestartPolicy lets the supervisor run a failed worker again instead of
// tearing the whole process down.
type RestartPolicy struct {
	// Delay is the pause before each restart.
	Delay time.Duration
	// MaxRestarts caps the number of restarts; zero means unlimited.
	MaxRestarts int
	// Retry decides whether an error is worth a restart. A nil Retry
	// restarts on every error.
	Retry func(error) bool
	// OnRestart is called before the worker runs again.
	OnRestart func(name string, attempt int, err error)
}

func (p *RestartPolicy) allows(attempt int, err error) bool {
	if p == nil {
		return false
	}
	if p.MaxRestarts > 0 && attempt > p.MaxRestarts {
		return false
	}
	return p.Retry == nil || p.Retry(err)
}

type worker struct {
	name   string
	run    func(context.Context) error
	closeF func() error
	policy *RestartPolicy
}

// Supervisor runs named workers until the parent context ends or a worker
// fails in a way its policy does not cover. The first such failure cancels
// every other worker and is returned from Wait.
type Supervisor struct {
	mu      sync.Mutex
	workers []worker
	wg      sync.WaitGroup
	errOnce sync.Once
	err     error

	ctx    context.Context
	cancel context.CancelFunc
}

func NewSupervisor() *Supervisor {
	return &Supervisor{}
}

func (s *Supervisor) Add(name string, run func(context.Context) error, closeF func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append(s.workers, worker{name: name, run: run, closeF: closeF})
}

// AddWithRestart registers a worker that is run again according to policy
// when it returns an error.
func (s *Supervisor) AddWithRestart(name string, run func(context.Context) error, closeF func() error, policy RestartPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append(s.workers, worker{name: name, run: run, closeF: closeF, policy: &policy})
}

func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		return fmt.Errorf("supervisor already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.ctx, s.cancel = runCtx, cancel
	for _, w := range s.workers {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.supervise(runCtx, w)
		}()
	}
	return nil
}

func (s *Supervisor) supervise(ctx context.Context, w worker) {
	attempt := 0
	for {
		err := w.run(ctx)
		if ctx.Err() != nil || err == nil {
			// Shutdown, or the worker finished on its own.
			return
		}

		attempt++
		if !w.policy.allows(attempt, err) {
			log.WithFields(log.Fields{
				"worker": w.name,
			}).WithError(err).Error("Worker failed")
			s.fail(fmt.Errorf("%s: %w", w.name, err))
			return
		}

		log.WithFields(log.Fields{
			"worker":  w.name,
			"attempt": attempt,
			"delay":   w.policy.Delay,
		}).WithError(err).Warn("Restarting worker")
		if w.policy.OnRestart != nil {
			w.policy.OnRestart(w.name, attempt, err)
		}

		t := time.NewTimer(w.policy.Delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (s *Supervisor) fail(err error) {
	s.errOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
	})
	s.cancel()
}

// Wait blocks until ctx ends or a worker fails, then closes the workers in
// reverse order and waits for them to return.
func (s *Supervisor) Wait(ctx context.Context) error {
	s.mu.Lock()
	inner := s.ctx
	cancel := s.cancel
	workers := append([]worker(nil), s.workers...)
	s.mu.Unlock()
	if inner == nil {
		inner = ctx
	}

	select {
	case <-ctx.Done():
	case <-inner.Done():
	}

	// Close in reverse order.
	for i := len(workers) - 1; i >= 0; i-- {
		if workers[i].closeF != nil {
			_ = workers[i].closeF()
		}
	}
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
