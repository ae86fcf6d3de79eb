package netmon

import (
	"context"
	"errors"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/ifwatchd/internal/metrics"
	"github.com/dmdmdm-nz/ifwatchd/internal/rtnl"
)

// SourceFactory opens a fresh frame source for each watcher generation.
type SourceFactory func() (rtnl.FrameSource, error)

// DefaultSource opens the kernel's link group.
func DefaultSource() (rtnl.FrameSource, error) {
	s, err := rtnl.Open()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Restartable reports whether a watcher error is cured by a new socket and
// empty dedup state.
func Restartable(err error) bool {
	return errors.Is(err, rtnl.ErrProtocol) || errors.Is(err, rtnl.ErrSocket)
}

// Watcher is one generation of the link watch loop. It owns its source and
// dedup state and must not be reused after Run returns.
type Watcher struct {
	source  rtnl.FrameSource
	dedup   *DedupTracker
	metrics *metrics.Metrics
	id      uuid.UUID
	log     *log.Entry
}

// NewWatcher takes ownership of src. A nil m records into unregistered
// collectors.
func NewWatcher(src rtnl.FrameSource, m *metrics.Metrics) *Watcher {
	if m == nil {
		m = metrics.New()
	}
	id := uuid.New()
	return &Watcher{
		source:  src,
		dedup:   NewDedupTracker(),
		metrics: m,
		id:      id,
		log:     log.WithField("generation", id.String()),
	}
}

// ID identifies the generation in logs and status output.
func (w *Watcher) ID() uuid.UUID { return w.id }

// Dedup exposes the tracker for inspection once Run has returned.
func (w *Watcher) Dedup() *DedupTracker { return w.dedup }

// Run receives datagrams until ctx is cancelled or the source fails, handing
// each emitted transition to sink. It returns nil on cancellation, a
// *rtnl.ProtocolError when the kernel sends NLMSG_ERROR, and the source's
// error when a receive fails. The source is closed when Run returns.
func (w *Watcher) Run(ctx context.Context, sink UpdateSink) error {
	stop := context.AfterFunc(ctx, func() { _ = w.source.Close() })
	defer func() {
		stop()
		_ = w.source.Close()
	}()

	for {
		buf, err := w.source.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.metrics.SocketErrors.Inc()
			w.log.WithError(err).Error("Link socket receive failed")
			return err
		}

		if err := w.handle(ctx, buf, sink); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (w *Watcher) handle(ctx context.Context, buf []byte, sink UpdateSink) error {
	for u, err := range rtnl.Updates(buf) {
		if err != nil {
			var pe *rtnl.ProtocolError
			if errors.As(err, &pe) {
				w.metrics.ProtocolErrors.Inc()
				w.log.WithFields(log.Fields{
					"seq":   pe.Header.Seq,
					"pid":   pe.Header.Pid,
					"errno": int(pe.Errno),
				}).Error("Kernel sent an error on the link group")
				return pe
			}
			w.metrics.Malformed.Inc()
			w.log.WithError(err).Trace("Skipping malformed link message")
			continue
		}

		w.metrics.LinkMessages.WithLabelValues(u.Header.Type.String()).Inc()
		w.log.WithFields(log.Fields{
			"type":      u.Header.Type,
			"interface": u.Link.Name,
			"index":     u.Link.Index,
			"flags":     u.Link.Flags,
			"operstate": u.Link.OperState,
		}).Trace("Link message")

		ev, decision := w.dedup.Apply(u)
		switch decision {
		case Unkeyed:
			w.metrics.Unkeyed.Inc()
		case Duplicate:
			w.metrics.Duplicates.Inc()
			w.log.WithFields(log.Fields{
				"interface": ev.InterfaceName,
			}).Debug("Suppressing repeated up announcement")
		case Emit:
			w.metrics.Events.WithLabelValues(ev.State()).Inc()
			w.log.WithFields(log.Fields{
				"interface": ev.InterfaceName,
				"state":     ev.State(),
			}).Info("Interface state changed")
			sink.OnInterfaceUpdate(ev.InterfaceName, ev.Up)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
	return nil
}
