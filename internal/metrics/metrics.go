package metrics

import (
	"fmt"
	"reflect"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ifwatchd"

// Metrics holds every collector the daemon exports. All fields must be
// prometheus.Collector values; Register walks them by reflection.
type Metrics struct {
	// LinkMessages counts decoded NEWLINK/DELLINK messages by type.
	LinkMessages *prometheus.CounterVec
	// Malformed counts frames and link payloads skipped as undecodable.
	Malformed prometheus.Counter

	// Events counts emitted link events by direction (up|down).
	Events *prometheus.CounterVec
	// Duplicates counts NEWLINK announcements suppressed by the dedup state.
	Duplicates prometheus.Counter
	// Unkeyed counts link messages without an interface name.
	Unkeyed prometheus.Counter

	ProtocolErrors prometheus.Counter
	SocketErrors   prometheus.Counter

	// Restarts counts supervisor restarts by worker name.
	Restarts *prometheus.CounterVec

	// QueueDropped counts events discarded by full subscriber queues.
	QueueDropped prometheus.Counter
	// Subscribers is the number of live event subscribers.
	Subscribers prometheus.Gauge
	// TrackedInterfaces is the number of interfaces last reported up.
	TrackedInterfaces prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		LinkMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_messages_total",
			Help:      "Link messages decoded from the netlink link group.",
		}, []string{"type"}),
		Malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_frames_total",
			Help:      "Netlink frames or link payloads skipped because they could not be decoded.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_events_total",
			Help:      "Interface state events emitted after deduplication.",
		}, []string{"state"}),
		Duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_announcements_total",
			Help:      "Up announcements suppressed because the flags were unchanged.",
		}),
		Unkeyed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unnamed_link_messages_total",
			Help:      "Link messages ignored because they carried no interface name.",
		}),
		ProtocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "NLMSG_ERROR messages received; each one ends a watcher generation.",
		}),
		SocketErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "socket_errors_total",
			Help:      "Failed receives on the netlink socket.",
		}),
		Restarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_restarts_total",
			Help:      "Supervisor restarts of failed workers.",
		}, []string{"worker"}),
		QueueDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_dropped_total",
			Help:      "Events dropped from full subscriber queues.",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Live event subscribers.",
		}),
		TrackedInterfaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_interfaces",
			Help:      "Interfaces currently reported up.",
		}),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	v := reflect.ValueOf(*m)
	for i := 0; i < v.NumField(); i++ {
		c, ok := v.Field(i).Interface().(prometheus.Collector)
		if !ok {
			return fmt.Errorf("field %s is not a collector", v.Type().Field(i).Name)
		}
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("error registering %s: %w", v.Type().Field(i).Name, err)
		}
	}
	return nil
}
