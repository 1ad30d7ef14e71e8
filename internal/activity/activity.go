package activity

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Kind names a room or connection lifecycle occurrence.
type Kind string

const (
	KindConnectionOpened Kind = "connection_opened"
	KindConnectionClosed Kind = "connection_closed"
	KindRoomCreated      Kind = "room_created"
	KindRoomDestroyed    Kind = "room_destroyed"
	KindMemberJoined     Kind = "member_joined"
	KindMemberLeft       Kind = "member_left"
	KindDocumentEdited   Kind = "document_edited"
	KindChatRelayed      Kind = "chat_relayed"
	KindDeliveryDropped  Kind = "delivery_dropped"
)

// Event is one observed occurrence. It never carries document or chat text.
type Event struct {
	Kind   Kind      `json:"kind"`
	RoomID string    `json:"roomId,omitempty"`
	ConnID string    `json:"connectionId,omitempty"`
	User   string    `json:"user,omitempty"`
	Size   int       `json:"size,omitempty"` // document length for edits
	At     time.Time `json:"at"`
}

// Emitter accepts events without blocking the caller.
type Emitter interface {
	Emit(ev Event)
}

// Sink persists or forwards events. Implementations may block briefly.
type Sink interface {
	Record(ctx context.Context, ev Event) error
}

type discard struct{}

func (discard) Emit(Event) {}

// Discard is an Emitter that drops everything.
var Discard Emitter = discard{}

const (
	defaultBuffer = 1024
	flushTimeout  = 2 * time.Second
)

// Recorder queues events and hands them to sinks on its own goroutine.
// Emit drops events instead of blocking when the queue is full.
type Recorder struct {
	queue   chan Event
	sinks   []Sink
	inline  []Sink
	log     *zerolog.Logger
	now     func() time.Time
	dropped atomic.Uint64
	done    chan struct{}
}

// NewRecorder builds a recorder with the given queue size (<=0 uses a default).
func NewRecorder(logger *zerolog.Logger, buffer int, sinks ...Sink) *Recorder {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Recorder{
		queue: make(chan Event, buffer),
		sinks: sinks,
		log:   logger,
		now:   time.Now,
		done:  make(chan struct{}),
	}
}

// Inline registers sinks that Emit calls synchronously. They must not block.
// Call before the recorder is shared.
func (r *Recorder) Inline(sinks ...Sink) *Recorder {
	r.inline = append(r.inline, sinks...)
	return r
}

// Emit enqueues ev, stamping it with the current time when At is zero.
func (r *Recorder) Emit(ev Event) {
	if ev.At.IsZero() {
		ev.At = r.now()
	}
	for _, sink := range r.inline {
		if err := sink.Record(context.Background(), ev); err != nil {
			r.log.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("inline activity sink failed")
		}
	}
	select {
	case r.queue <- ev:
	default:
		r.dropped.Add(1)
	}
}

// Dropped reports how many events were discarded because the queue was full.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Run dispatches queued events until ctx is cancelled, then flushes what is
// left in the queue and returns.
func (r *Recorder) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case ev := <-r.queue:
			r.dispatch(ctx, ev)
		case <-ctx.Done():
			r.flush()
			return
		}
	}
}

// Done is closed once Run has returned.
func (r *Recorder) Done() <-chan struct{} {
	return r.done
}

func (r *Recorder) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	for {
		select {
		case ev := <-r.queue:
			r.dispatch(ctx, ev)
		default:
			return
		}
	}
}

func (r *Recorder) dispatch(ctx context.Context, ev Event) {
	for _, sink := range r.sinks {
		if err := sink.Record(ctx, ev); err != nil {
			r.log.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("activity sink failed")
		}
	}
}
