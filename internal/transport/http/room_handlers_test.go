package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/collabhub-server/internal/activity"
	"github.com/vovakirdan/collabhub-server/internal/config"
	"github.com/vovakirdan/collabhub-server/internal/store"
	"github.com/vovakirdan/collabhub-server/internal/store/sqlite"
)

func doRequest(t *testing.T, env *testEnv, method, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	resp := httptest.NewRecorder()
	env.server.Config.Handler.ServeHTTP(resp, req)
	return resp
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v), "body: %s", resp.Body.String())
	return v
}

func TestListRoomsEmpty(t *testing.T) {
	env := startTestServer(t)

	resp := doRequest(t, env, http.MethodGet, "/rooms")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"rooms":[],"totalRooms":0}`, resp.Body.String())
}

func TestCreateAndGetRoom(t *testing.T) {
	env := startTestServer(t)

	resp := doRequest(t, env, http.MethodPost, "/rooms")
	require.Equal(t, http.StatusOK, resp.Code)
	created := decode[CreateRoomResponse](t, resp)
	assert.Regexp(t, `^room-[0-9a-z]{9}$`, created.RoomID)
	assert.Equal(t, "Room created successfully", created.Message)

	resp = doRequest(t, env, http.MethodGet, "/rooms/"+created.RoomID)
	require.Equal(t, http.StatusOK, resp.Code)
	room := decode[RoomResponse](t, resp)
	assert.Equal(t, created.RoomID, room.RoomID)
	assert.Zero(t, room.UserCount)
	assert.NotNil(t, room.Users)
	assert.Empty(t, room.Users)

	at, err := time.Parse(time.RFC3339Nano, room.LastActivity)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), at, time.Minute)
	assert.Regexp(t, `\.\d{3}Z$`, room.LastActivity, "millisecond precision in UTC")

	doc, ok := env.store.GetDocument(created.RoomID)
	require.True(t, ok)
	assert.Equal(t, store.CreatedDocument, doc)
}

func TestGetRoomNotFound(t *testing.T) {
	env := startTestServer(t)

	resp := doRequest(t, env, http.MethodGet, "/rooms/room-missing")
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.JSONEq(t, `{"error":"Room not found"}`, resp.Body.String())
}

func TestListRoomsReflectsMembership(t *testing.T) {
	env := startTestServer(t)

	env.store.Join("older", "zed")
	time.Sleep(5 * time.Millisecond)
	env.store.Join("newer", "bob")
	env.store.Join("newer", "alice")

	resp := doRequest(t, env, http.MethodGet, "/rooms")
	require.Equal(t, http.StatusOK, resp.Code)
	list := decode[ListRoomsResponse](t, resp)

	require.Equal(t, 2, list.TotalRooms)
	require.Len(t, list.Rooms, 2)
	assert.Equal(t, "newer", list.Rooms[0].RoomID, "most recently active first")
	assert.Equal(t, []string{"alice", "bob"}, list.Rooms[0].Users)
	assert.Equal(t, 2, list.Rooms[0].UserCount)
	assert.Equal(t, "older", list.Rooms[1].RoomID)
}

func TestDiscoveryRateLimit(t *testing.T) {
	env := startTestServer(t, func(cfg *config.Config, _ *Deps) {
		cfg.HTTPRateLimit = 2
		cfg.HTTPRateWindow = time.Minute
	})

	for i := range 2 {
		resp := doRequest(t, env, http.MethodGet, "/rooms")
		require.Equal(t, http.StatusOK, resp.Code, "request %d", i)
	}
	resp := doRequest(t, env, http.MethodGet, "/rooms")
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)

	// Liveness probes are not limited.
	resp = doRequest(t, env, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestUnknownRoute(t *testing.T) {
	env := startTestServer(t)

	resp := doRequest(t, env, http.MethodGet, "/nope")
	require.Equal(t, http.StatusNotFound, resp.Code)
	body := decode[ErrorResponse](t, resp)
	assert.Equal(t, "Not found", body.Error)
	assert.Contains(t, body.Message, "/nope")
}

func TestBannerAndDetailedHealth(t *testing.T) {
	env := startTestServer(t)
	env.presence.CreateRoom()

	resp := doRequest(t, env, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, resp.Code)
	banner := decode[BannerResponse](t, resp)
	assert.Equal(t, "ok", banner.Status)
	assert.Equal(t, "test", banner.Version)

	resp = doRequest(t, env, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, resp.Code)
	health := decode[HealthResponse](t, resp)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 1, health.Rooms.Active)
	assert.Equal(t, int64(1), health.Rooms.Created)
	assert.Positive(t, health.Goroutines)
}

func TestActivityEndpoint(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		env := startTestServer(t)
		resp := doRequest(t, env, http.MethodGet, "/api/activity")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("journal", func(t *testing.T) {
		journal, err := sqlite.New(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { journal.Close() })

		ctx := context.Background()
		base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
		require.NoError(t, journal.Record(ctx, activity.Event{Kind: activity.KindRoomCreated, RoomID: "r1", At: base}))
		require.NoError(t, journal.Record(ctx, activity.Event{Kind: activity.KindMemberJoined, RoomID: "r1", User: "alice", At: base.Add(time.Second)}))
		require.NoError(t, journal.Record(ctx, activity.Event{Kind: activity.KindRoomCreated, RoomID: "r2", At: base.Add(2 * time.Second)}))

		env := startTestServer(t, func(_ *config.Config, deps *Deps) {
			deps.Journal = journal
		})

		resp := doRequest(t, env, http.MethodGet, "/api/activity?room=r1&limit=10")
		require.Equal(t, http.StatusOK, resp.Code)
		body := decode[ActivityResponse](t, resp)
		require.Len(t, body.Events, 2)
		assert.Equal(t, activity.KindMemberJoined, body.Events[0].Kind)
		assert.Equal(t, "alice", body.Events[0].User)

		resp = doRequest(t, env, http.MethodGet, "/api/activity?limit=zero")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}
