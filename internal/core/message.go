package core

import (
	"time"

	"github.com/vovakirdan/portalchat/internal/utils"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}

// Message is one entry of the conversation. It is never modified after creation.
type Message struct {
	ID        string
	Content   string
	Sender    Sender
	Timestamp time.Time // display only; order comes from the conversation
}

// NewMessage builds a message with a fresh id.
func NewMessage(sender Sender, content string, now time.Time) Message {
	return Message{
		ID:        utils.NewID(),
		Content:   content,
		Sender:    sender,
		Timestamp: now,
	}
}
