package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/vovakirdan/collabhub-server/internal/store"
	"github.com/vovakirdan/collabhub-server/internal/utils"
)

// Store is an in-memory store.RoomStore guarded by a single mutex.
// All check-and-create and check-and-delete steps happen under the lock.
type Store struct {
	mu      sync.RWMutex
	rooms   map[string]*room
	created int64

	now             func() time.Time
	newID           func() string
	defaultDocument string
	createdDocument string
}

type room struct {
	id           string
	document     string
	members      map[string]int // name -> live connection count
	createdAt    time.Time
	lastActivity time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides how CreateRoom picks ids.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithDocuments overrides the welcome documents for implicit and explicit rooms.
func WithDocuments(joined, created string) Option {
	return func(s *Store) {
		s.defaultDocument = joined
		s.createdDocument = created
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		rooms:           make(map[string]*room),
		now:             time.Now,
		newID:           utils.NewRoomID,
		defaultDocument: store.DefaultDocument,
		createdDocument: store.CreatedDocument,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ensureLocked returns the room for id, creating it when absent. Caller holds s.mu.
func (s *Store) ensureLocked(id, document string) (*room, bool) {
	if rm, ok := s.rooms[id]; ok {
		return rm, false
	}
	now := s.now()
	rm := &room{
		id:           id,
		document:     document,
		members:      make(map[string]int),
		createdAt:    now,
		lastActivity: now,
	}
	s.rooms[id] = rm
	s.created++
	return rm, true
}

// EnsureRoom returns the room, creating it with the default document if absent.
func (s *Store) EnsureRoom(id string) (store.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm, created := s.ensureLocked(id, s.defaultDocument)
	return rm.snapshot(), created
}

// CreateRoom creates an empty room under a fresh, unused id.
func (s *Store) CreateRoom() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		id := s.newID()
		if _, taken := s.rooms[id]; taken {
			continue
		}
		s.ensureLocked(id, s.createdDocument)
		return id
	}
}

// Join ensures the room exists and adds one reference for name in one step.
func (s *Store) Join(id, name string) store.JoinResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm, created := s.ensureLocked(id, s.defaultDocument)
	added := rm.addMember(name)
	rm.lastActivity = s.now()
	return store.JoinResult{
		Document: rm.document,
		Created:  created,
		Added:    added,
	}
}

// AddMember adds one reference for name. Reports false if the room is absent.
func (s *Store) AddMember(id, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm, ok := s.rooms[id]
	if !ok {
		return false
	}
	rm.addMember(name)
	rm.lastActivity = s.now()
	return true
}

// RemoveMember drops one reference for name and deletes the room once no
// names remain. Unknown rooms and names are no-ops.
func (s *Store) RemoveMember(id, name string) store.LeaveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm, ok := s.rooms[id]
	if !ok {
		return store.LeaveResult{}
	}
	count, ok := rm.members[name]
	if !ok {
		return store.LeaveResult{}
	}

	var res store.LeaveResult
	if count > 1 {
		rm.members[name] = count - 1
	} else {
		delete(rm.members, name)
		res.Removed = true
	}
	if len(rm.members) == 0 {
		delete(s.rooms, id)
		res.Deleted = true
	}
	return res
}

// SetDocument replaces the document verbatim. Reports false if the room is absent.
func (s *Store) SetDocument(id, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm, ok := s.rooms[id]
	if !ok {
		return false
	}
	rm.document = text
	rm.lastActivity = s.now()
	return true
}

// Touch bumps the last activity timestamp. Reports false if the room is absent.
func (s *Store) Touch(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm, ok := s.rooms[id]
	if !ok {
		return false
	}
	rm.lastActivity = s.now()
	return true
}

// GetDocument returns the current document text.
func (s *Store) GetDocument(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rm, ok := s.rooms[id]
	if !ok {
		return "", false
	}
	return rm.document, true
}

// GetRoom returns a summary of one room.
func (s *Store) GetRoom(id string) (store.Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rm, ok := s.rooms[id]
	if !ok {
		return store.Summary{}, false
	}
	return rm.summary(), true
}

// ListRooms returns all rooms, most recently active first.
func (s *Store) ListRooms() []store.Summary {
	s.mu.RLock()
	out := make([]store.Summary, 0, len(s.rooms))
	for _, rm := range s.rooms {
		out = append(out, rm.summary())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastActivity.Equal(out[j].LastActivity) {
			return out[i].LastActivity.After(out[j].LastActivity)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Stats returns the number of live rooms and rooms ever created.
func (s *Store) Stats() store.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return store.Stats{
		ActiveRooms:  len(s.rooms),
		RoomsCreated: s.created,
	}
}

func (r *room) addMember(name string) bool {
	count := r.members[name]
	r.members[name] = count + 1
	return count == 0
}

func (r *room) memberNames() []string {
	names := make([]string, 0, len(r.members))
	for name := range r.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *room) summary() store.Summary {
	return store.Summary{
		ID:           r.id,
		Members:      r.memberNames(),
		LastActivity: r.lastActivity,
	}
}

func (r *room) snapshot() store.Room {
	return store.Room{
		ID:           r.id,
		Document:     r.document,
		Members:      r.memberNames(),
		CreatedAt:    r.createdAt,
		LastActivity: r.lastActivity,
	}
}

var _ store.RoomStore = (*Store)(nil)
