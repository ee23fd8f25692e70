package http

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/portalchat/internal/config"
	"github.com/vovakirdan/portalchat/internal/core"
	"github.com/vovakirdan/portalchat/internal/proto"
)

func dialWS(ctx context.Context, t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(env.server.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func readOutbound(ctx context.Context, t *testing.T, conn *websocket.Conn) proto.OutboundFrame {
	t.Helper()

	var out proto.OutboundFrame
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return out
}

func readHistory(ctx context.Context, t *testing.T, conn *websocket.Conn) proto.EventHistoryData {
	t.Helper()

	out := readOutbound(ctx, t, conn)
	if out.Type != proto.OutboundTypeEvent || out.Event != proto.EventHistory {
		t.Fatalf("expected history event, got %+v", out)
	}
	var history proto.EventHistoryData
	if err := json.Unmarshal(out.Data, &history); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	return history
}

func sendText(ctx context.Context, t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()

	payload, _ := json.Marshal(proto.SendData{Text: text})
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeSend, Data: payload}); err != nil {
		t.Fatalf("send: %v", err)
	}
}

func TestWebSocketHistoryOnConnect(t *testing.T) {
	env := startTestServer(t, config.Default())

	if err := env.ctrl.Submit("earlier"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	env.assistant.release()
	env.ctrl.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(ctx, t, env)
	history := readHistory(ctx, t, conn)
	if history.InFlight || len(history.Messages) != 2 {
		t.Fatalf("unexpected history: %+v", history)
	}
	if history.Messages[0].Content != "earlier" || history.Messages[1].Content != "reply: earlier" {
		t.Fatalf("unexpected history messages: %+v", history.Messages)
	}
}

func TestWebSocketSendAndEvents(t *testing.T) {
	env := startTestServer(t, config.Default())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(ctx, t, env)
	connB := dialWS(ctx, t, env)
	readHistory(ctx, t, connA)
	readHistory(ctx, t, connB)

	sendText(ctx, t, connA, "hi there")

	// B observes the whole turn in order.
	out := readOutbound(ctx, t, connB)
	var appended proto.EventMessageData
	if out.Event != proto.EventMessage {
		t.Fatalf("expected message event, got %+v", out)
	}
	if err := json.Unmarshal(out.Data, &appended); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}
	if appended.Index != 0 || appended.Message.Sender != "user" || appended.Message.Content != "hi there" {
		t.Fatalf("unexpected user message event: %+v", appended)
	}

	if out = readOutbound(ctx, t, connB); out.Event != proto.EventSendStarted {
		t.Fatalf("expected send_started, got %+v", out)
	}

	env.assistant.release()

	out = readOutbound(ctx, t, connB)
	if err := json.Unmarshal(out.Data, &appended); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}
	if out.Event != proto.EventMessage || appended.Index != 1 || appended.Message.Content != "reply: hi there" {
		t.Fatalf("unexpected reply event: %+v %+v", out, appended)
	}

	if out = readOutbound(ctx, t, connB); out.Event != proto.EventSendSettled {
		t.Fatalf("expected send_settled, got %+v", out)
	}
}

func TestWebSocketSkipsAreErrorFrames(t *testing.T) {
	env := startTestServer(t, config.Default())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(ctx, t, env)
	readHistory(ctx, t, conn)

	sendText(ctx, t, conn, "   ")
	if out := readOutbound(ctx, t, conn); out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Code != core.ErrCodeEmptyInput {
		t.Fatalf("expected empty_input error, got %+v", out)
	}

	sendText(ctx, t, conn, "first")
	readOutbound(ctx, t, conn) // message
	readOutbound(ctx, t, conn) // send_started

	sendText(ctx, t, conn, "second")
	if out := readOutbound(ctx, t, conn); out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Code != core.ErrCodeSendInFlight {
		t.Fatalf("expected send_in_flight error, got %+v", out)
	}

	if n := env.ctrl.Conversation().Len(); n != 1 {
		t.Fatalf("expected 1 message, got %d", n)
	}
}

func TestWebSocketRateLimit(t *testing.T) {
	cfg := config.Default()
	cfg.MaxSendsPerMinute = 1
	env := startTestServer(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(ctx, t, env)
	readHistory(ctx, t, conn)

	sendText(ctx, t, conn, "   ")
	if out := readOutbound(ctx, t, conn); out.Error == nil || out.Error.Code != core.ErrCodeEmptyInput {
		t.Fatalf("expected empty_input error, got %+v", out)
	}

	// The blank send above did not use up the budget.
	sendText(ctx, t, conn, "hello")
	if out := readOutbound(ctx, t, conn); out.Event != proto.EventMessage {
		t.Fatalf("expected message event, got %+v", out)
	}
	readOutbound(ctx, t, conn) // send_started

	// Retrying while the reply is pending is a skip, not a rate limit.
	sendText(ctx, t, conn, "again")
	if out := readOutbound(ctx, t, conn); out.Error == nil || out.Error.Code != core.ErrCodeSendInFlight {
		t.Fatalf("expected send_in_flight error, got %+v", out)
	}

	env.assistant.release()
	readOutbound(ctx, t, conn) // reply
	if out := readOutbound(ctx, t, conn); out.Event != proto.EventSendSettled {
		t.Fatalf("expected send_settled, got %+v", out)
	}

	sendText(ctx, t, conn, "third")
	if out := readOutbound(ctx, t, conn); out.Error == nil || out.Error.Code != core.ErrCodeRateLimited {
		t.Fatalf("expected rate_limited error, got %+v", out)
	}
}

func TestWebSocketUnknownType(t *testing.T) {
	env := startTestServer(t, config.Default())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(ctx, t, env)
	readHistory(ctx, t, conn)

	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: "join"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if out := readOutbound(ctx, t, conn); out.Error == nil || out.Error.Code != "invalid_message" {
		t.Fatalf("expected invalid_message error, got %+v", out)
	}
}
