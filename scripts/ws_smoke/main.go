package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/collabhub-server/internal/proto"
)

type outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:5000/ws", "WebSocket address")
	user := flag.String("user", "tester", "display name to join with")
	room := flag.String("room", "room-smoke", "room id")
	text := flag.String("text", "hello from smoke test", "chat text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(typ string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", typ, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeJoin, proto.JoinData{Room: *room, User: *user}); err != nil {
		return err
	}
	if err := send(proto.InboundTypeChat, proto.ChatData{Room: *room, Text: *text}); err != nil {
		return err
	}

	for {
		var out outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received outbound: type=%s", out.Type)
		if out.Event != "" {
			fmt.Printf(" event=%s", out.Event)
		}
		fmt.Println()

		if out.Error != nil {
			return fmt.Errorf("server error %s: %s", out.Error.Code, out.Error.Msg)
		}

		switch out.Event {
		case proto.EventDocument:
			var doc proto.DocumentData
			if err := json.Unmarshal(out.Data, &doc); err != nil {
				return fmt.Errorf("unmarshal document: %w", err)
			}
			fmt.Printf("Document: room=%s bytes=%d\n", doc.Room, len(doc.Text))
		case proto.EventMessage:
			var msg proto.MessageData
			if err := json.Unmarshal(out.Data, &msg); err != nil {
				fmt.Printf("Raw data: %s\n", string(out.Data))
				return fmt.Errorf("unmarshal message: %w", err)
			}
			fmt.Printf("Message: room=%s user=%s text=%q ts=%d\n", msg.Room, msg.User, msg.Text, msg.TS)
			return nil
		default:
			// keep looping for message
		}
	}
}
