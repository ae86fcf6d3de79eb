package netmon

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/ifwatchd/internal/metrics"
	"github.com/dmdmdm-nz/ifwatchd/internal/runtime"
)

// Status summarises the service for the status API.
type Status struct {
	Generation  string   `json:"generation,omitempty"`
	Generations int      `json:"generations"`
	Ready       bool     `json:"ready"`
	LastError   string   `json:"last_error,omitempty"`
	Interfaces  []string `json:"interfaces"`
	Subscribers int      `json:"subscribers"`
}

// Service runs watcher generations and fans their events out to
// subscribers. It keeps the set of interfaces last reported up so a new
// subscriber starts from a snapshot.
type Service struct {
	newSource  SourceFactory
	queueLimit int
	metrics    *metrics.Metrics

	mu          sync.RWMutex
	interfaces  map[string]struct{}
	generation  uuid.UUID
	generations int
	lastErr     error

	ready atomic.Bool

	subsMu           sync.Mutex
	subs             map[int]*runtime.SubQueue[LinkEvent]
	nextSubscriberID int
	closed           bool
}

var _ UpdateSink = (*Service)(nil)

// NewService builds a service that opens sources with newSource. queueLimit
// bounds each subscriber's backlog (0 is unbounded).
func NewService(newSource SourceFactory, queueLimit int, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.New()
	}
	return &Service{
		newSource:  newSource,
		queueLimit: queueLimit,
		metrics:    m,
		interfaces: make(map[string]struct{}),
		subs:       make(map[int]*runtime.SubQueue[LinkEvent]),
	}
}

// Subscribe returns a channel that first carries an up event for every
// interface currently up, then every live event. Call the returned function
// to unsubscribe.
func (s *Service) Subscribe() (<-chan LinkEvent, func()) {
	// Hold the state lock until registered so no event falls between the
	// snapshot and the live stream.
	s.mu.RLock()
	snapshot := make([]LinkEvent, 0, len(s.interfaces))
	for _, name := range s.sortedInterfaces() {
		snapshot = append(snapshot, LinkEvent{InterfaceName: name, Up: true})
	}

	sub := runtime.NewSubQueue[LinkEvent](len(snapshot)+8, s.queueLimit)

	s.subsMu.Lock()
	id := s.nextSubscriberID
	s.nextSubscriberID++
	if s.closed {
		sub.Close()
	} else {
		s.subs[id] = sub
		s.metrics.Subscribers.Set(float64(len(s.subs)))
	}
	s.subsMu.Unlock()

	sub.SendSnapshot(snapshot)
	s.mu.RUnlock()

	// Transition to live: flush queued events, then unpause.
	sub.SetPaused(false)

	unsub := func() {
		s.subsMu.Lock()
		if q, ok := s.subs[id]; ok {
			delete(s.subs, id)
			q.Close()
			s.metrics.Subscribers.Set(float64(len(s.subs)))
		}
		s.subsMu.Unlock()
	}
	return sub.Chan(), unsub
}

// Start runs a single watcher generation until ctx ends or the watcher
// fails. The supervisor restarts it with a fresh source on restartable
// errors.
func (s *Service) Start(ctx context.Context) error {
	src, err := s.newSource()
	if err != nil {
		s.recordError(err)
		return err
	}

	w := NewWatcher(src, s.metrics)
	s.mu.Lock()
	s.generation = w.ID()
	s.generations++
	s.resetInterfaces()
	s.mu.Unlock()

	logger := log.WithField("generation", w.ID().String())
	logger.Info("Starting link watcher")
	s.ready.Store(true)

	err = w.Run(ctx, s)
	s.ready.Store(false)
	if err != nil {
		s.recordError(err)
		return err
	}
	logger.Info("Stopping link watcher")
	return nil
}

// Close ends every subscription. It is safe to call more than once.
func (s *Service) Close() error {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for id, q := range s.subs {
		q.Close()
		delete(s.subs, id)
	}
	s.metrics.Subscribers.Set(0)
	return nil
}

// OnInterfaceUpdate records the transition and forwards it to every
// subscriber. A down for an interface that was never up is still forwarded.
func (s *Service) OnInterfaceUpdate(name string, up bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if up {
		s.interfaces[name] = struct{}{}
	} else {
		delete(s.interfaces, name)
	}
	s.metrics.TrackedInterfaces.Set(float64(len(s.interfaces)))

	s.broadcast(LinkEvent{InterfaceName: name, Up: up})
}

// Interfaces lists the interfaces currently up, sorted.
func (s *Service) Interfaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedInterfaces()
}

// IsTracked reports whether name was last reported up.
func (s *Service) IsTracked(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.interfaces[name]
	return ok
}

// Ready reports whether a watcher generation has its socket open.
func (s *Service) Ready() bool {
	return s.ready.Load()
}

func (s *Service) Status() Status {
	s.mu.RLock()
	st := Status{
		Generations: s.generations,
		Ready:       s.ready.Load(),
		Interfaces:  s.sortedInterfaces(),
	}
	if s.generation != uuid.Nil {
		st.Generation = s.generation.String()
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	s.mu.RUnlock()

	s.subsMu.Lock()
	st.Subscribers = len(s.subs)
	s.subsMu.Unlock()
	return st
}

func (s *Service) recordError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// resetInterfaces forgets every interface and reports each one down. A new
// generation starts with empty dedup state, so nothing is known to be up
// until the kernel announces it again. Requires s.mu held for writing.
func (s *Service) resetInterfaces() {
	for _, name := range s.sortedInterfaces() {
		delete(s.interfaces, name)
		s.broadcast(LinkEvent{InterfaceName: name, Up: false})
	}
	s.metrics.TrackedInterfaces.Set(0)
}

// sortedInterfaces requires s.mu.
func (s *Service) sortedInterfaces() []string {
	names := make([]string, 0, len(s.interfaces))
	for name := range s.interfaces {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (s *Service) broadcast(ev LinkEvent) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for id, sub := range s.subs {
		if sub.Enqueue(ev) {
			s.metrics.QueueDropped.Inc()
			log.WithFields(log.Fields{
				"subscriber": id,
				"interface":  ev.InterfaceName,
			}).Warn("Subscriber queue full, dropped oldest event")
		}
	}
}
