package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/portalchat/internal/utils"
)

const (
	// PlaceholderReply is appended when the assistant answers without text.
	PlaceholderReply = "I received your message!"
	// ErrorReply is appended when the exchange with the assistant fails.
	ErrorReply = "Sorry, I encountered an error. Please try again."
)

// Reply is the assistant's answer to one message.
type Reply struct {
	Response  string
	Timestamp string
}

// Assistant is the remote service that answers user messages.
// Timeouts are the implementation's responsibility.
type Assistant interface {
	Send(ctx context.Context, message string) (Reply, error)
}

// InputBuffer is the widget the user types into.
type InputBuffer interface {
	Clear()
}

// TurnObserver is told about every settled turn.
type TurnObserver interface {
	TurnSettled(ctx context.Context, turn Turn) error
}

// State of the controller.
type State int

const (
	StateIdle State = iota
	StateSending
)

func (s State) String() string {
	if s == StateSending {
		return "sending"
	}
	return "idle"
}

// Outcome of a turn.
type Outcome string

const (
	OutcomeReplied     Outcome = "replied"
	OutcomePlaceholder Outcome = "placeholder"
	OutcomeFailed      Outcome = "failed"
)

// Turn summarizes one request/response cycle.
type Turn struct {
	ID        string
	PromptID  string
	ReplyID   string
	Outcome   Outcome
	StartedAt time.Time
	Latency   time.Duration
}

// Option configures a Controller.
type Option func(*Controller)

// WithInput sets the input buffer cleared on every accepted submit.
func WithInput(input InputBuffer) Option {
	return func(c *Controller) {
		c.input = input
	}
}

// WithObserver sets the turn observer.
func WithObserver(observer TurnObserver) Option {
	return func(c *Controller) {
		c.observer = observer
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.log = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// Controller drives one user turn at a time: it appends the user message, asks
// the assistant and appends the reply (or a fixed error text).
type Controller struct {
	conv      *Conversation
	assistant Assistant
	input     InputBuffer
	observer  TurnObserver
	log       *zerolog.Logger
	now       func() time.Time

	mu       sync.Mutex
	inFlight bool
	wg       sync.WaitGroup
}

// NewController builds a controller writing to conv and asking assistant.
func NewController(conv *Conversation, assistant Assistant, opts ...Option) *Controller {
	nop := zerolog.Nop()
	c := &Controller{
		conv:      conv,
		assistant: assistant,
		log:       &nop,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Conversation returns the conversation the controller writes to.
func (c *Controller) Conversation() *Conversation {
	return c.conv
}

// Submit starts a turn for raw. It returns ErrEmptyInput or ErrSendInFlight
// (both match ErrSkipped) without touching the conversation when the input
// is blank or a turn is already running. The reply arrives asynchronously.
func (c *Controller) Submit(raw string) error {
	if isBlank(raw) {
		return ErrEmptyInput
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		c.log.Debug().Msg("submit dropped: send in flight")
		return ErrSendInFlight
	}

	startedAt := c.now()
	prompt := NewMessage(SenderUser, raw, startedAt)
	c.conv.Append(prompt)
	if c.input != nil {
		c.input.Clear()
	}
	c.inFlight = true
	c.wg.Add(1)
	c.mu.Unlock()

	c.conv.publish(&Event{Kind: EventSendStarted, InFlight: true})
	c.log.Debug().Str("message_id", prompt.ID).Msg("send started")

	go c.exchange(raw, prompt, startedAt)
	return nil
}

// InFlight reports whether a turn is running.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// State returns StateSending while a turn runs, StateIdle otherwise.
func (c *Controller) State() State {
	if c.InFlight() {
		return StateSending
	}
	return StateIdle
}

// Wait blocks until the running turn, if any, has settled.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) exchange(raw string, prompt Message, startedAt time.Time) {
	defer c.wg.Done()

	turn := Turn{
		ID:        utils.NewID(),
		PromptID:  prompt.ID,
		StartedAt: startedAt,
	}
	defer c.settle(&turn)

	content, outcome := c.ask(raw)
	reply := NewMessage(SenderAssistant, content, c.now())
	c.conv.Append(reply)

	turn.ReplyID = reply.ID
	turn.Outcome = outcome
}

// ask never fails: errors and panics from the assistant become ErrorReply.
func (c *Controller) ask(raw string) (content string, outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Err(remoteError(fmt.Errorf("assistant panic: %v", r))).Msg("assistant request failed")
			content, outcome = ErrorReply, OutcomeFailed
		}
	}()

	// No cancellation: the call always runs to completion.
	reply, err := c.assistant.Send(context.Background(), raw)
	if err != nil {
		c.log.Warn().Err(remoteError(err)).Msg("assistant request failed")
		return ErrorReply, OutcomeFailed
	}
	if reply.Response == "" {
		return PlaceholderReply, OutcomePlaceholder
	}
	return reply.Response, OutcomeReplied
}

func (c *Controller) settle(turn *Turn) {
	turn.Latency = c.now().Sub(turn.StartedAt)
	if turn.Outcome == "" {
		turn.Outcome = OutcomeFailed
	}

	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()

	c.conv.publish(&Event{Kind: EventSendSettled, InFlight: false})
	c.log.Debug().
		Str("turn_id", turn.ID).
		Str("outcome", string(turn.Outcome)).
		Dur("latency", turn.Latency).
		Msg("send settled")

	if c.observer == nil {
		return
	}
	if err := c.observer.TurnSettled(context.Background(), *turn); err != nil {
		c.log.Warn().Err(err).Str("turn_id", turn.ID).Msg("failed to record turn")
	}
}

// isBlank reports whether s holds only whitespace. The byte order mark counts
// as whitespace and NEL does not, matching what browsers trim from input.
func isBlank(s string) bool {
	return strings.TrimFunc(s, func(r rune) bool {
		if r == '\uFEFF' {
			return true
		}
		return r != '\u0085' && unicode.IsSpace(r)
	}) == ""
}
