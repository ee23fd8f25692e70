package http

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/vovakirdan/portalchat/internal/core"
	"github.com/vovakirdan/portalchat/internal/proto"
	"github.com/vovakirdan/portalchat/internal/render"
)

const (
	errCodeUnsupportedVersion = "unsupported_version"
	errCodeInvalidMessage     = "invalid_message"
)

func messageToProto(msg core.Message) proto.Message {
	out := proto.Message{
		ID:        msg.ID,
		Content:   msg.Content,
		Sender:    string(msg.Sender),
		Timestamp: msg.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if msg.Sender == core.SenderAssistant {
		out.HTML = render.HTML(msg.Content)
	}
	return out
}

func messagesToProto(msgs []core.Message) []proto.Message {
	out := make([]proto.Message, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, messageToProto(msg))
	}
	return out
}

func historyOutbound(msgs []core.Message, inFlight bool) proto.Outbound {
	return proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: proto.EventHistory,
		Data: proto.EventHistoryData{
			Messages: messagesToProto(msgs),
			InFlight: inFlight,
		},
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventMessageAppended:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessage,
			Data: proto.EventMessageData{
				Index:   event.Index,
				Message: messageToProto(event.Message),
			},
		}
	case core.EventSendStarted:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventSendStarted,
			Data:  proto.EventSendData{InFlight: true},
		}
	case core.EventSendSettled:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventSendSettled,
			Data:  proto.EventSendData{InFlight: false},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func errorOutbound(code, msg string) proto.Outbound {
	return proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: &proto.Error{Code: code, Msg: msg},
	}
}

// submitErrorOutbound maps a Submit rejection to an error frame.
func submitErrorOutbound(err error) proto.Outbound {
	var coreErr *core.CoreError
	if errors.As(err, &coreErr) {
		return errorOutbound(coreErr.Code, coreErr.Message)
	}
	return errorOutbound(core.ErrCodeBadRequest, err.Error())
}

func decodeData(inbound proto.Inbound, v any) *proto.Error {
	if len(inbound.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(inbound.Data, v); err != nil {
		return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "invalid data for " + inbound.Type}
	}
	return nil
}
