package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/collabhub-server/internal/activity"
)

func TestRecordCountsByKind(t *testing.T) {
	c := New()
	ctx := context.Background()

	events := []activity.Kind{
		activity.KindConnectionOpened,
		activity.KindConnectionOpened,
		activity.KindRoomCreated,
		activity.KindMemberJoined,
		activity.KindDocumentEdited,
		activity.KindChatRelayed,
		activity.KindChatRelayed,
		activity.KindChatRelayed,
		activity.KindDeliveryDropped,
		activity.KindRoomDestroyed,
	}
	for _, kind := range events {
		require.NoError(t, c.Record(ctx, activity.Event{Kind: kind}))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(c.connections))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.roomsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.joins))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.leaves))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.edits))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.chats))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.dropped))
}

func TestHandlerExposesGauges(t *testing.T) {
	c := New()
	conns, rooms := 3, 2
	c.TrackGauges(func() int { return conns }, func() int { return rooms })

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)

	assert.True(t, strings.Contains(text, "collabhub_active_connections 3"), text)
	assert.True(t, strings.Contains(text, "collabhub_active_rooms 2"), text)
	assert.True(t, strings.Contains(text, "collabhub_chat_messages_total 0"), text)
}

func TestHandlerExposesDroppedActivity(t *testing.T) {
	c := New()
	var dropped uint64 = 7
	c.TrackDropped(func() uint64 { return dropped })

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "collabhub_activity_events_dropped_total 7")
}
