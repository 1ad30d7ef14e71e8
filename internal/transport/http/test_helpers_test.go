package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/collabhub-server/internal/config"
	"github.com/vovakirdan/collabhub-server/internal/core"
	"github.com/vovakirdan/collabhub-server/internal/presence"
	"github.com/vovakirdan/collabhub-server/internal/proto"
	"github.com/vovakirdan/collabhub-server/internal/store/memory"
)

type testEnv struct {
	server   *httptest.Server
	hub      *core.Hub
	store    *memory.Store
	presence *presence.Service
}

// startTestServer runs a hub and an httptest server. Options may adjust the
// config or deps before the handler is built.
func startTestServer(t *testing.T, setup ...func(*config.Config, *Deps)) *testEnv {
	t.Helper()

	logger := zerolog.Nop()
	st := memory.New()
	hub := core.NewHub(st, core.WithLogger(&logger))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	svc := presence.New(st, hub, presence.WithLogger(&logger))

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.PingInterval = 0
	cfg.CORSOrigins = nil
	deps := Deps{Hub: hub, Presence: svc, Version: "test"}
	for _, fn := range setup {
		fn(&cfg, &deps)
	}

	ts := httptest.NewServer(NewHandler(cfg, deps, &logger))
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, hub: hub, store: st, presence: svc}
}

func (e *testEnv) dial(t *testing.T, ctx context.Context) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(e.server.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

type testOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readOutbound(t *testing.T, ctx context.Context, conn *websocket.Conn) testOutbound {
	t.Helper()

	var out testOutbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return out
}

// readEvent reads until an event with the given name arrives and decodes its data.
func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, into any) {
	t.Helper()

	readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	for {
		out := readOutbound(t, readCtx, conn)
		if out.Type != proto.OutboundTypeEvent || out.Event != event {
			continue
		}
		if err := json.Unmarshal(out.Data, into); err != nil {
			t.Fatalf("unmarshal %s data: %v", event, err)
		}
		return
	}
}

func readError(t *testing.T, ctx context.Context, conn *websocket.Conn) *proto.Error {
	t.Helper()

	out := readOutbound(t, ctx, conn)
	if out.Type != proto.OutboundTypeError || out.Error == nil {
		t.Fatalf("expected error envelope, got %+v", out)
	}
	return out.Error
}

func ptr(s string) *string { return &s }
