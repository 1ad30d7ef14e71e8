package core

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/collabhub-server/internal/activity"
	"github.com/vovakirdan/collabhub-server/internal/store"
	"github.com/vovakirdan/collabhub-server/internal/store/memory"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []activity.Event
}

func (r *recordingEmitter) Emit(ev activity.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingEmitter) kinds() []activity.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]activity.Kind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

type routerFixture struct {
	router *Router
	store  *memory.Store
	events *recordingEmitter
}

func newRouterFixture(t *testing.T, opts ...Option) *routerFixture {
	t.Helper()
	st := memory.New()
	rec := &recordingEmitter{}
	opts = append([]Option{WithActivity(rec)}, opts...)
	return &routerFixture{
		router: NewRouter(st, NewRegistry(), opts...),
		store:  st,
		events: rec,
	}
}

func (f *routerFixture) connect(id string) *Client {
	c := NewClient(id, 0)
	f.router.Connect(c)
	return c
}

func recipients(d Delivery) []string {
	ids := make([]string, 0, len(d.To))
	for _, c := range d.To {
		ids = append(ids, c.ID)
	}
	sort.Strings(ids)
	return ids
}

func TestRouterFirstJoinCreatesRoom(t *testing.T) {
	f := newRouterFixture(t)
	alice := f.connect("a")

	out := f.router.Join(alice, "r", "alice")
	require.Len(t, out, 1)
	assert.Equal(t, []string{"a"}, recipients(out[0]))
	assert.Equal(t, EventDocumentSnapshot, out[0].Event.Kind)
	assert.Equal(t, store.DefaultDocument, out[0].Event.Document)

	assert.Equal(t, []activity.Kind{
		activity.KindConnectionOpened,
		activity.KindRoomCreated,
		activity.KindMemberJoined,
	}, f.events.kinds())
}

func TestRouterJoinNotifiesOthers(t *testing.T) {
	f := newRouterFixture(t)
	alice := f.connect("a")
	bob := f.connect("b")

	f.router.Join(alice, "r", "alice")
	out := f.router.Join(bob, "r", "bob")

	require.Len(t, out, 2)
	assert.Equal(t, []string{"b"}, recipients(out[0]))
	assert.Equal(t, EventDocumentSnapshot, out[0].Event.Kind)
	assert.Equal(t, []string{"a"}, recipients(out[1]))
	assert.Equal(t, EventUserJoined, out[1].Event.Kind)
	assert.Equal(t, "bob", out[1].Event.User)
}

func TestRouterSharedNameIsReferenceCounted(t *testing.T) {
	f := newRouterFixture(t)
	tab1 := f.connect("t1")
	tab2 := f.connect("t2")
	bob := f.connect("b")

	f.router.Join(bob, "r", "bob")
	f.router.Join(tab1, "r", "alice")

	out := f.router.Join(tab2, "r", "alice")
	require.Len(t, out, 1, "second connection under an existing name is not announced")

	assert.Empty(t, f.router.Disconnect("t1"), "name still held by another connection")
	sum, ok := f.store.GetRoom("r")
	require.True(t, ok)
	assert.Equal(t, []string{"alice", "bob"}, sum.Members)

	out = f.router.Disconnect("t2")
	require.Len(t, out, 1)
	assert.Equal(t, EventUserLeft, out[0].Event.Kind)
	assert.Equal(t, "alice", out[0].Event.User)
	assert.Equal(t, []string{"b"}, recipients(out[0]))
}

func TestRouterRejoinSendsSnapshotOnly(t *testing.T) {
	f := newRouterFixture(t)
	alice := f.connect("a")
	bob := f.connect("b")

	f.router.Join(alice, "r", "alice")
	f.router.Join(bob, "r", "bob")
	f.router.Edit(alice, "r", "v2")

	out := f.router.Join(bob, "r", "bob")
	require.Len(t, out, 1)
	assert.Equal(t, EventDocumentSnapshot, out[0].Event.Kind)
	assert.Equal(t, "v2", out[0].Event.Document)
}

func TestRouterSwitchRoomLeavesPrevious(t *testing.T) {
	f := newRouterFixture(t)
	alice := f.connect("a")
	bob := f.connect("b")

	f.router.Join(alice, "r1", "alice")
	f.router.Join(bob, "r1", "bob")

	out := f.router.Join(bob, "r2", "bob")
	require.Len(t, out, 2)
	assert.Equal(t, EventUserLeft, out[0].Event.Kind)
	assert.Equal(t, "r1", out[0].Event.Room)
	assert.Equal(t, []string{"a"}, recipients(out[0]))
	assert.Equal(t, EventDocumentSnapshot, out[1].Event.Kind)
	assert.Equal(t, "r2", out[1].Event.Room)

	assert.Empty(t, f.router.Edit(alice, "r1", "solo"), "bob no longer receives r1 updates")
	m, ok := f.router.registry.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, Membership{RoomID: "r2", Name: "bob"}, m)
}

func TestRouterRenameKeepsSoleMemberRoom(t *testing.T) {
	f := newRouterFixture(t)
	alice := f.connect("a")

	f.router.Join(alice, "r", "alice")
	f.router.Edit(alice, "r", "keep me")
	f.router.Join(alice, "r", "alicia")

	doc, ok := f.store.GetDocument("r")
	require.True(t, ok)
	assert.Equal(t, "keep me", doc)
	sum, _ := f.store.GetRoom("r")
	assert.Equal(t, []string{"alicia"}, sum.Members)
}

func TestRouterEditExcludesSender(t *testing.T) {
	f := newRouterFixture(t)
	alice := f.connect("a")
	bob := f.connect("b")
	carol := f.connect("c")

	f.router.Join(alice, "r", "alice")
	f.router.Join(bob, "r", "bob")
	f.router.Join(carol, "r", "carol")

	out := f.router.Edit(alice, "r", "new text")
	require.Len(t, out, 1)
	assert.Equal(t, []string{"b", "c"}, recipients(out[0]))
	assert.Equal(t, EventDocumentUpdate, out[0].Event.Kind)
	assert.Equal(t, "new text", out[0].Event.Document)
	assert.Equal(t, "alice", out[0].Event.User)

	doc, _ := f.store.GetDocument("r")
	assert.Equal(t, "new text", doc)
	assert.Equal(t, int64(1), f.router.Stats().TotalEdits)
}

func TestRouterDropsTrafficForMissingRoom(t *testing.T) {
	f := newRouterFixture(t)
	alice := f.connect("a")

	assert.Nil(t, f.router.Edit(alice, "ghost", "x"))
	assert.Nil(t, f.router.Chat(alice, "ghost", "hi", "alice"))
	_, ok := f.store.GetRoom("ghost")
	assert.False(t, ok, "traffic must not create rooms")
	assert.Zero(t, f.router.Stats().TotalMessages)
}

func TestRouterChatIncludesSenderAndStampsTime(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f := newRouterFixture(t, WithClock(func() time.Time { return at }))
	alice := f.connect("a")
	bob := f.connect("b")

	f.router.Join(alice, "r", "alice")
	f.router.Join(bob, "r", "bob")

	out := f.router.Chat(alice, "r", "hello", "")
	require.Len(t, out, 1)
	assert.Equal(t, []string{"a", "b"}, recipients(out[0]))
	ev := out[0].Event
	assert.Equal(t, EventChatMessage, ev.Kind)
	assert.Equal(t, "alice", ev.User, "empty display name falls back to join name")
	assert.Equal(t, Message{Room: "r", From: "alice", Text: "hello", CreatedAt: at}, ev.Message)

	out = f.router.Chat(bob, "r", "hey", "Robert")
	require.Len(t, out, 1)
	assert.Equal(t, "Robert", out[0].Event.Message.From)
}

func TestRouterLastLeaveDestroysRoom(t *testing.T) {
	f := newRouterFixture(t)
	alice := f.connect("a")

	f.router.Join(alice, "r", "alice")
	f.router.Edit(alice, "r", "gone soon")
	assert.Empty(t, f.router.Disconnect("a"))

	_, ok := f.store.GetRoom("r")
	assert.False(t, ok)
	assert.Contains(t, f.events.kinds(), activity.KindRoomDestroyed)

	carol := f.connect("c")
	out := f.router.Join(carol, "r", "carol")
	require.Len(t, out, 1)
	assert.Equal(t, store.DefaultDocument, out[0].Event.Document, "recreated room starts fresh")
}

func TestRouterDisconnectUnknownIsNoop(t *testing.T) {
	f := newRouterFixture(t)
	assert.Nil(t, f.router.Disconnect("nobody"))
	assert.Empty(t, f.events.kinds())
}

func TestRouterHandleUnknownCommand(t *testing.T) {
	f := newRouterFixture(t)
	alice := f.connect("a")

	out := f.router.Handle(alice, &Command{Kind: CommandKind(99)})
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Event.Error)
	assert.Equal(t, ErrCodeInvalidMessage, out[0].Event.Error.Code)
}
