package http

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/portalchat/internal/config"
	"github.com/vovakirdan/portalchat/internal/proto"
)

func TestProtocolVersionMismatch(t *testing.T) {
	env := startTestServer(t, config.Default())

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	conn := dialWS(ctx, t, env)
	readHistory(ctx, t, conn)

	helloPayload, _ := json.Marshal(proto.HelloData{User: "alice", Protocol: proto.ProtocolVersion + 1})
	if writeErr := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeHello, Data: helloPayload}); writeErr != nil {
		t.Fatalf("send hello: %v", writeErr)
	}

	out := readOutbound(ctx, t, conn)
	if out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Code != "unsupported_version" {
		t.Fatalf("expected unsupported_version error, got %+v", out)
	}

	// Matching hello is accepted silently; the connection stays usable.
	helloPayload, _ = json.Marshal(proto.HelloData{User: "alice", Protocol: proto.ProtocolVersion})
	if writeErr := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeHello, Data: helloPayload}); writeErr != nil {
		t.Fatalf("send hello: %v", writeErr)
	}
	sendText(ctx, t, conn, "")
	if out := readOutbound(ctx, t, conn); out.Error == nil || out.Error.Code != "empty_input" {
		t.Fatalf("expected empty_input after hello, got %+v", out)
	}
}
