package core

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/collabhub-server/internal/activity"
	"github.com/vovakirdan/collabhub-server/internal/store"
)

// Delivery is one outbound event addressed to a set of clients.
type Delivery struct {
	To    []*Client
	Event *Event
}

// Stats are cumulative router counters.
type Stats struct {
	ActiveConnections int
	TotalConnections  int64
	TotalMessages     int64
	TotalEdits        int64
	DroppedDeliveries int64
}

// Router turns inbound client events into room store mutations and returns
// the deliveries the caller must perform. It never sends anything itself, so
// no store or registry lock is held while events are delivered.
type Router struct {
	rooms    store.RoomStore
	registry *Registry
	activity activity.Emitter
	log      *zerolog.Logger
	now      func() time.Time

	totalConnections atomic.Int64
	totalMessages    atomic.Int64
	totalEdits       atomic.Int64
	dropped          atomic.Int64
}

// NewRouter builds a router over the given store and registry.
func NewRouter(rooms store.RoomStore, registry *Registry, opts ...Option) *Router {
	return newRouter(rooms, registry, newSettings(opts))
}

func newRouter(rooms store.RoomStore, registry *Registry, s settings) *Router {
	return &Router{
		rooms:    rooms,
		registry: registry,
		activity: s.activity,
		log:      s.log,
		now:      s.now,
	}
}

// Connect registers a newly opened connection.
func (r *Router) Connect(c *Client) {
	r.registry.Connect(c)
	r.totalConnections.Add(1)
	r.emit(activity.Event{Kind: activity.KindConnectionOpened, ConnID: c.ID})
	r.log.Debug().Str("client_id", c.ID).Msg("client connected")
}

// Handle dispatches a command to the matching operation.
func (r *Router) Handle(c *Client, cmd *Command) []Delivery {
	switch cmd.Kind {
	case CommandJoinRoom:
		return r.Join(c, cmd.Room, cmd.User)
	case CommandEditDocument:
		return r.Edit(c, cmd.Room, cmd.Text)
	case CommandSendChat:
		return r.Chat(c, cmd.Room, cmd.Text, cmd.User)
	default:
		return []Delivery{r.self(c, ErrorEvent(ErrCodeInvalidMessage, "unknown command"))}
	}
}

// Join places the client in roomID under name, creating the room on first
// use. A client already in another room leaves it first.
func (r *Router) Join(c *Client, roomID, name string) []Delivery {
	var out []Delivery

	prev, joined := r.registry.Lookup(c.ID)
	if joined && prev.RoomID == roomID && prev.Name == name {
		if doc, exists := r.rooms.GetDocument(roomID); exists {
			r.rooms.Touch(roomID)
			return []Delivery{r.self(c, &Event{Kind: EventDocumentSnapshot, Room: roomID, Document: doc})}
		}
	}
	if joined && prev.RoomID != roomID {
		out = append(out, r.leave(c.ID, prev)...)
	}

	res := r.rooms.Join(roomID, name)
	r.registry.RecordJoin(c.ID, roomID, name)

	if res.Created {
		r.emit(activity.Event{Kind: activity.KindRoomCreated, RoomID: roomID, ConnID: c.ID})
		r.log.Info().Str("room", roomID).Msg("room created")
	}

	out = append(out, r.self(c, &Event{Kind: EventDocumentSnapshot, Room: roomID, Document: res.Document}))

	if res.Added {
		r.emit(activity.Event{Kind: activity.KindMemberJoined, RoomID: roomID, ConnID: c.ID, User: name})
		r.log.Debug().Str("room", roomID).Str("user", name).Msg("user joined")
		if others := r.others(roomID, c.ID); len(others) > 0 {
			out = append(out, Delivery{
				To:    others,
				Event: &Event{Kind: EventUserJoined, Room: roomID, User: name},
			})
		}
	}

	// Renaming within the same room drops the old name only after the new
	// one holds the room open.
	if joined && prev.RoomID == roomID && prev.Name != name {
		out = append(out, r.leave(c.ID, prev)...)
	}
	return out
}

// Edit replaces the room document and forwards it to everyone else in the
// room. Edits to rooms that no longer exist are dropped.
func (r *Router) Edit(c *Client, roomID, text string) []Delivery {
	if !r.rooms.SetDocument(roomID, text) {
		r.log.Debug().Str("room", roomID).Str("client_id", c.ID).Msg("edit for missing room dropped")
		return nil
	}
	r.totalEdits.Add(1)

	var author string
	if m, ok := r.registry.Lookup(c.ID); ok && m.RoomID == roomID {
		author = m.Name
	}
	r.emit(activity.Event{Kind: activity.KindDocumentEdited, RoomID: roomID, ConnID: c.ID, User: author, Size: len(text)})

	others := r.others(roomID, c.ID)
	if len(others) == 0 {
		return nil
	}
	return []Delivery{{
		To:    others,
		Event: &Event{Kind: EventDocumentUpdate, Room: roomID, User: author, Document: text},
	}}
}

// Chat relays a message to every client in the room, sender included, with
// a server-assigned timestamp. Chats to missing rooms are dropped.
func (r *Router) Chat(c *Client, roomID, text, name string) []Delivery {
	if name == "" {
		if m, ok := r.registry.Lookup(c.ID); ok {
			name = m.Name
		}
	}
	if !r.rooms.Touch(roomID) {
		r.log.Debug().Str("room", roomID).Str("client_id", c.ID).Msg("chat for missing room dropped")
		return nil
	}
	r.totalMessages.Add(1)

	msg := Message{
		Room:      roomID,
		From:      name,
		Text:      text,
		CreatedAt: r.now(),
	}
	r.emit(activity.Event{Kind: activity.KindChatRelayed, RoomID: roomID, ConnID: c.ID, User: name, At: msg.CreatedAt})

	to := r.registry.Connections(roomID)
	if len(to) == 0 {
		return nil
	}
	return []Delivery{{
		To:    to,
		Event: &Event{Kind: EventChatMessage, Room: roomID, User: name, Message: msg},
	}}
}

// Disconnect forgets the connection and leaves its room, if any.
func (r *Router) Disconnect(connID string) []Delivery {
	if r.registry.Connected(connID) {
		r.emit(activity.Event{Kind: activity.KindConnectionClosed, ConnID: connID})
		r.log.Debug().Str("client_id", connID).Msg("client disconnected")
	}
	m, ok := r.registry.Remove(connID)
	if !ok {
		return nil
	}
	return r.leave(connID, m)
}

// Stats returns a snapshot of router counters.
func (r *Router) Stats() Stats {
	return Stats{
		ActiveConnections: r.registry.Count(),
		TotalConnections:  r.totalConnections.Load(),
		TotalMessages:     r.totalMessages.Load(),
		TotalEdits:        r.totalEdits.Load(),
		DroppedDeliveries: r.dropped.Load(),
	}
}

func (r *Router) leave(connID string, m Membership) []Delivery {
	res := r.rooms.RemoveMember(m.RoomID, m.Name)
	if res.Removed {
		r.emit(activity.Event{Kind: activity.KindMemberLeft, RoomID: m.RoomID, ConnID: connID, User: m.Name})
		r.log.Debug().Str("room", m.RoomID).Str("user", m.Name).Msg("user left")
	}
	if res.Deleted {
		r.emit(activity.Event{Kind: activity.KindRoomDestroyed, RoomID: m.RoomID})
		r.log.Info().Str("room", m.RoomID).Msg("empty room cleaned up")
		return nil
	}
	if !res.Removed {
		return nil
	}
	others := r.others(m.RoomID, connID)
	if len(others) == 0 {
		return nil
	}
	return []Delivery{{
		To:    others,
		Event: &Event{Kind: EventUserLeft, Room: m.RoomID, User: m.Name},
	}}
}

func (r *Router) deliveryDropped(connID string, ev *Event) {
	r.dropped.Add(1)
	r.emit(activity.Event{Kind: activity.KindDeliveryDropped, RoomID: ev.Room, ConnID: connID})
}

func (r *Router) others(roomID, exclude string) []*Client {
	all := r.registry.Connections(roomID)
	out := all[:0]
	for _, c := range all {
		if c.ID != exclude {
			out = append(out, c)
		}
	}
	return out
}

func (r *Router) self(c *Client, ev *Event) Delivery {
	return Delivery{To: []*Client{c}, Event: ev}
}

func (r *Router) emit(ev activity.Event) {
	r.activity.Emit(ev)
}
