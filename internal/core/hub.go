package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/collabhub-server/internal/activity"
	"github.com/vovakirdan/collabhub-server/internal/store"
	"github.com/vovakirdan/collabhub-server/internal/store/memory"
)

const defaultInboxSize = 256

// Option customizes a Hub or Router.
type Option func(*settings)

type settings struct {
	log       *zerolog.Logger
	activity  activity.Emitter
	now       func() time.Time
	inboxSize int
}

func newSettings(opts []Option) settings {
	nop := zerolog.Nop()
	s := settings{
		log:       &nop,
		activity:  activity.Discard,
		now:       time.Now,
		inboxSize: defaultInboxSize,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithActivity routes lifecycle events to e.
func WithActivity(e activity.Emitter) Option {
	return func(s *settings) {
		if e != nil {
			s.activity = e
		}
	}
}

// WithClock overrides the clock used for chat timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithInboxSize sets the capacity of the hub's event inbox.
func WithInboxSize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.inboxSize = n
		}
	}
}

type envelopeKind int

const (
	envelopeConnect envelopeKind = iota
	envelopeCommand
	envelopeDisconnect
)

type envelope struct {
	kind   envelopeKind
	client *Client
	cmd    *Command
}

// Hub serializes every connection's events through one goroutine, so per
// room ordering is exactly the order events reach the inbox.
type Hub struct {
	router *Router
	inbox  chan envelope
	done   chan struct{}
	log    *zerolog.Logger
}

// NewHub creates a hub over rooms. A nil store gets a fresh in-memory one.
func NewHub(rooms store.RoomStore, opts ...Option) *Hub {
	if rooms == nil {
		rooms = memory.New()
	}
	s := newSettings(opts)
	return &Hub{
		router: newRouter(rooms, NewRegistry(), s),
		inbox:  make(chan envelope, s.inboxSize),
		done:   make(chan struct{}),
		log:    s.log,
	}
}

// Run processes events until ctx is cancelled. It must be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case env := <-h.inbox:
			h.dispatch(env)
		case <-ctx.Done():
			return
		}
	}
}

// RegisterClient starts forwarding the client's commands to the hub.
func (h *Hub) RegisterClient(c *Client) {
	go h.pump(c)
}

// UnregisterClient signals that the transport is gone. Commands already
// queued are processed before the disconnect.
func (h *Hub) UnregisterClient(c *Client) {
	c.markDone()
}

// Stats returns router counters.
func (h *Hub) Stats() Stats {
	return h.router.Stats()
}

func (h *Hub) pump(c *Client) {
	if !h.enqueue(envelope{kind: envelopeConnect, client: c}) {
		return
	}
	for {
		select {
		case cmd := <-c.Commands:
			if !h.enqueue(envelope{kind: envelopeCommand, client: c, cmd: cmd}) {
				return
			}
		case <-c.done:
			h.drain(c)
			h.enqueue(envelope{kind: envelopeDisconnect, client: c})
			return
		case <-h.done:
			return
		}
	}
}

func (h *Hub) drain(c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			if !h.enqueue(envelope{kind: envelopeCommand, client: c, cmd: cmd}) {
				return
			}
		default:
			return
		}
	}
}

func (h *Hub) enqueue(env envelope) bool {
	select {
	case h.inbox <- env:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) dispatch(env envelope) {
	switch env.kind {
	case envelopeConnect:
		h.router.Connect(env.client)
	case envelopeCommand:
		if env.cmd == nil || !h.router.registry.Connected(env.client.ID) {
			return
		}
		h.deliver(h.router.Handle(env.client, env.cmd))
	case envelopeDisconnect:
		h.deliver(h.router.Disconnect(env.client.ID))
		env.client.closeEvents()
	}
}

// deliver never blocks: a client whose buffer is full loses that one event
// and the rest of the fan-out continues.
func (h *Hub) deliver(deliveries []Delivery) {
	for _, d := range deliveries {
		for _, c := range d.To {
			select {
			case c.Events <- d.Event:
			default:
				h.log.Warn().Str("client_id", c.ID).Str("event", d.Event.Kind.String()).Msg("dropping event for slow client")
				h.router.deliveryDropped(c.ID, d.Event)
			}
		}
	}
}
