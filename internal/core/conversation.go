package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/portalchat/internal/utils"
)

// subscriberBuffer is the channel buffer for each subscriber.
const subscriberBuffer = 64

// Conversation is the ordered message log shared by the controller and displays.
// Messages are kept in append order and are never reordered or removed.
type Conversation struct {
	mu       sync.RWMutex
	messages []Message

	subMu       sync.Mutex
	subscribers map[string]chan *Event

	log *zerolog.Logger
}

// NewConversation constructs an empty conversation. Pass nil logger to disable logging.
func NewConversation(logger *zerolog.Logger) *Conversation {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Conversation{
		messages:    make([]Message, 0, 16),
		subscribers: make(map[string]chan *Event),
		log:         logger,
	}
}

// Append adds msg to the end of the conversation and notifies subscribers.
func (c *Conversation) Append(msg Message) {
	// subMu is held across the append so events reach subscribers in append order.
	c.subMu.Lock()
	defer c.subMu.Unlock()

	c.mu.Lock()
	c.messages = append(c.messages, msg)
	index := len(c.messages) - 1
	c.mu.Unlock()

	c.broadcastLocked(&Event{Kind: EventMessageAppended, Message: msg, Index: index})
}

// Messages returns a snapshot of the conversation in append order.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	copied := make([]Message, len(c.messages))
	copy(copied, c.messages)
	return copied
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Subscribe registers a subscriber. The subscription ends when ctx is done or
// Unsubscribe is called; the channel is closed then.
func (c *Conversation) Subscribe(ctx context.Context) (<-chan *Event, string) {
	id := utils.NewID()
	ch := make(chan *Event, subscriberBuffer)

	c.subMu.Lock()
	c.subscribers[id] = ch
	c.subMu.Unlock()

	c.log.Debug().Str("sub_id", id).Msg("subscriber added")

	go func() {
		<-ctx.Done()
		c.Unsubscribe(id)
	}()

	return ch, id
}

// Unsubscribe removes a subscription and closes its channel.
func (c *Conversation) Unsubscribe(id string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	ch, ok := c.subscribers[id]
	if !ok {
		return
	}
	delete(c.subscribers, id)
	close(ch)

	c.log.Debug().Str("sub_id", id).Msg("subscriber removed")
}

// Subscribers returns the number of active subscriptions.
func (c *Conversation) Subscribers() int {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	return len(c.subscribers)
}

func (c *Conversation) publish(event *Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.broadcastLocked(event)
}

func (c *Conversation) broadcastLocked(event *Event) {
	for id, ch := range c.subscribers {
		select {
		case ch <- event:
		default:
			// Drop if slow consumer; it can resync from Messages.
			c.log.Debug().Str("sub_id", id).Str("event", event.Kind.String()).Msg("dropped event for slow subscriber")
		}
	}
}
