package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/ifwatchd/internal/netmon"
	"github.com/dmdmdm-nz/ifwatchd/internal/operstate"
	"github.com/dmdmdm-nz/ifwatchd/pkg/version"
)

// LinkMonitor is the part of netmon.Service the API reads.
type LinkMonitor interface {
	Subscribe() (<-chan netmon.LinkEvent, func())
	Interfaces() []string
	IsTracked(name string) bool
	Ready() bool
	Status() netmon.Status
}

type OperStateProbe interface {
	Report(name string) operstate.Report
}

// Service represents the HTTP server for the API
type Service struct {
	address  string
	port     int
	gatherer prometheus.Gatherer

	monitor LinkMonitor
	probe   OperStateProbe

	mu     sync.Mutex
	server *http.Server
	done   chan struct{}
	closed bool
}

func NewService(host string, port int, gatherer prometheus.Gatherer) *Service {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Service{
		address:  host,
		port:     port,
		gatherer: gatherer,
		done:     make(chan struct{}),
	}
}

func (s *Service) AttachMonitor(m LinkMonitor) {
	s.monitor = m
}

func (s *Service) AttachProbe(p OperStateProbe) {
	s.probe = p
}

// Start serves the API until ctx is cancelled or Close is called.
func (s *Service) Start(ctx context.Context) error {
	if s.monitor == nil {
		return errors.New("AttachMonitor was not called before Start")
	}

	addr := net.JoinHostPort(s.address, fmt.Sprint(s.port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		return nil
	}
	s.server = srv
	s.mu.Unlock()

	log.Infof("Starting ifwatchd API service at %s", ln.Addr())
	defer log.Info("Stopping ifwatchd API service")

	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// Handler builds the API routes.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if s.monitor == nil || !s.monitor.Ready() {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/interfaces", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, s.monitor.Interfaces())
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/interfaces/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/interfaces/")
		if len(name) == 0 || strings.Contains(name, "/") {
			http.Error(w, "missing interface name", http.StatusBadRequest)
			return
		}

		switch r.Method {
		case http.MethodGet:
			info := InterfaceInfo{Name: name, Up: s.monitor.IsTracked(name)}
			if s.probe != nil {
				report := s.probe.Report(name)
				info.Probe = &report
			}
			writeJSON(w, info)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, StatusResponse{
				Version:   version.Version,
				Commit:    version.CommitHash,
				BuildTime: version.BuildTime,
				Watcher:   s.monitor.Status(),
			})
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/ws/events", func(w http.ResponseWriter, r *http.Request) {
		StreamEvents(s, r.URL.Query().Get("interface"), w, r)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Add("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("Failed to encode response: %v", err), http.StatusInternalServerError)
	}
}
