package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/portalchat/internal/core"
	"github.com/vovakirdan/portalchat/internal/proto"
	"github.com/vovakirdan/portalchat/internal/utils"
)

// WSHandler upgrades HTTP connections and streams the conversation to them.
type WSHandler struct {
	ctrl           *core.Controller
	sendsPerMinute int
	log            *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(ctrl *core.Controller, sendsPerMinute int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{ctrl: ctrl, sendsPerMinute: sendsPerMinute, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	connID := utils.NewID()
	log := h.log.With().Str("conn_id", connID).Logger()

	// Subscribe before the snapshot; events already covered by it are skipped.
	conv := h.ctrl.Conversation()
	events, _ := conv.Subscribe(ctx)
	history := conv.Messages()
	if err := wsjson.Write(ctx, conn, historyOutbound(history, h.ctrl.InFlight())); err != nil {
		log.Warn().Err(err).Msg("write ws history")
		return
	}

	limiter := newRateLimiter(h.sendsPerMinute)
	limiter.startReset(ctx.Done())

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, limiter, &log)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, events, len(history), &log)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, limiter *rateLimiter, log *zerolog.Logger) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			log.Debug().Err(err).Msg("read ws inbound")
			return err
		}

		if out, ok := h.handleInbound(inbound, limiter, log); ok {
			if err := wsjson.Write(ctx, conn, out); err != nil {
				return err
			}
		}
	}
}

// handleInbound applies one client frame. It returns a frame to answer with, if any.
func (h *WSHandler) handleInbound(inbound proto.Inbound, limiter *rateLimiter, log *zerolog.Logger) (proto.Outbound, bool) {
	switch inbound.Type {
	case proto.InboundTypeHello:
		var hello proto.HelloData
		if protoErr := decodeData(inbound, &hello); protoErr != nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: protoErr}, true
		}
		if hello.Protocol != 0 && hello.Protocol != proto.ProtocolVersion {
			return errorOutbound(errCodeUnsupportedVersion, "unsupported protocol version"), true
		}
		log.Debug().Str("user", hello.User).Msg("ws hello")
		return proto.Outbound{}, false
	case proto.InboundTypeSend:
		var send proto.SendData
		if protoErr := decodeData(inbound, &send); protoErr != nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: protoErr}, true
		}
		// Only accepted sends count against the budget.
		if limiter.exhausted() {
			log.Debug().Msg("ws send rate limited")
			return errorOutbound(core.ErrCodeRateLimited, "too many messages, slow down"), true
		}
		if err := h.ctrl.Submit(send.Text); err != nil {
			return submitErrorOutbound(err), true
		}
		limiter.record()
		return proto.Outbound{}, false
	default:
		return errorOutbound(errCodeInvalidMessage, "unknown message type"), true
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, events <-chan *core.Event, seen int, log *zerolog.Logger) error {
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if event.Kind == core.EventMessageAppended && event.Index < seen {
				continue
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				log.Debug().Err(err).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
