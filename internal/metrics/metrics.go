package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vovakirdan/collabhub-server/internal/activity"
)

const namespace = "collabhub"

// Collector turns activity events into Prometheus series on its own registry.
type Collector struct {
	registry *prometheus.Registry

	connections  prometheus.Counter
	roomsCreated prometheus.Counter
	joins        prometheus.Counter
	leaves       prometheus.Counter
	edits        prometheus.Counter
	chats        prometheus.Counter
	dropped      prometheus.Counter
}

// New registers the collector's series plus Go and process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry:     reg,
		connections:  counter("connections_total", "Transport connections accepted."),
		roomsCreated: counter("rooms_created_total", "Rooms created implicitly or explicitly."),
		joins:        counter("member_joins_total", "Display names entering a room."),
		leaves:       counter("member_leaves_total", "Display names leaving a room."),
		edits:        counter("document_edits_total", "Document replacements applied."),
		chats:        counter("chat_messages_total", "Chat messages relayed."),
		dropped:      counter("deliveries_dropped_total", "Outbound events dropped for slow connections."),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.connections, c.roomsCreated, c.joins, c.leaves, c.edits, c.chats, c.dropped,
	)
	return c
}

func counter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
}

// TrackGauges exposes live connection and room counts read at scrape time.
func (c *Collector) TrackGauges(connections, rooms func() int) {
	c.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Currently connected transport sessions.",
		}, func() float64 { return float64(connections()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Rooms currently held in memory.",
		}, func() float64 { return float64(rooms()) }),
	)
}

// TrackDropped exposes the activity events discarded by a full recorder queue.
func (c *Collector) TrackDropped(dropped func() uint64) {
	c.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_events_dropped_total",
		Help:      "Activity events discarded because the recorder queue was full.",
	}, func() float64 { return float64(dropped()) }))
}

// Record implements activity.Sink. It only increments counters, so it is
// safe to register as an inline sink.
func (c *Collector) Record(_ context.Context, ev activity.Event) error {
	switch ev.Kind {
	case activity.KindConnectionOpened:
		c.connections.Inc()
	case activity.KindRoomCreated:
		c.roomsCreated.Inc()
	case activity.KindMemberJoined:
		c.joins.Inc()
	case activity.KindMemberLeft:
		c.leaves.Inc()
	case activity.KindDocumentEdited:
		c.edits.Inc()
	case activity.KindChatRelayed:
		c.chats.Inc()
	case activity.KindDeliveryDropped:
		c.dropped.Inc()
	}
	return nil
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler exposes the registry at /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
