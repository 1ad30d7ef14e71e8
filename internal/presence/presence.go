// Package presence answers discovery queries about live rooms.
package presence

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/collabhub-server/internal/activity"
	"github.com/vovakirdan/collabhub-server/internal/core"
	"github.com/vovakirdan/collabhub-server/internal/store"
)

// ErrRoomNotFound is returned when a room id has no live room.
var ErrRoomNotFound = errors.New("room not found")

// StatsSource reports connection counters, normally the hub.
type StatsSource interface {
	Stats() core.Stats
}

// Health is a point-in-time view of server load.
type Health struct {
	Uptime            time.Duration
	ActiveConnections int
	TotalConnections  int64
	ActiveRooms       int
	RoomsCreated      int64
	TotalMessages     int64
	TotalEdits        int64
	DroppedDeliveries int64
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithActivity reports explicit room creation to e.
func WithActivity(e activity.Emitter) Option {
	return func(s *Service) {
		if e != nil {
			s.activity = e
		}
	}
}

// WithClock overrides the clock used for uptime.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service is a read-mostly facade over the room store.
type Service struct {
	rooms    store.RoomStore
	stats    StatsSource
	activity activity.Emitter
	log      *zerolog.Logger
	now      func() time.Time
	started  time.Time
}

// New creates a Service. stats may be nil when no hub is running.
func New(rooms store.RoomStore, stats StatsSource, opts ...Option) *Service {
	nop := zerolog.Nop()
	s := &Service{
		rooms:    rooms,
		stats:    stats,
		activity: activity.Discard,
		log:      &nop,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()
	return s
}

// ListRooms returns every live room, most recently active first.
func (s *Service) ListRooms() []store.Summary {
	return s.rooms.ListRooms()
}

// GetRoom returns one room or ErrRoomNotFound.
func (s *Service) GetRoom(id string) (store.Summary, error) {
	sum, ok := s.rooms.GetRoom(id)
	if !ok {
		return store.Summary{}, ErrRoomNotFound
	}
	return sum, nil
}

// CreateRoom creates an empty room under a fresh id.
func (s *Service) CreateRoom() string {
	id := s.rooms.CreateRoom()
	s.activity.Emit(activity.Event{Kind: activity.KindRoomCreated, RoomID: id})
	s.log.Info().Str("room", id).Msg("room created via api")
	return id
}

// Health reports uptime and counters.
func (s *Service) Health() Health {
	st := s.rooms.Stats()
	h := Health{
		Uptime:       s.now().Sub(s.started),
		ActiveRooms:  st.ActiveRooms,
		RoomsCreated: st.RoomsCreated,
	}
	if s.stats != nil {
		cs := s.stats.Stats()
		h.ActiveConnections = cs.ActiveConnections
		h.TotalConnections = cs.TotalConnections
		h.TotalMessages = cs.TotalMessages
		h.TotalEdits = cs.TotalEdits
		h.DroppedDeliveries = cs.DroppedDeliveries
	}
	return h
}
