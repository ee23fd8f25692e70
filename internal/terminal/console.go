package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/portalchat/internal/core"
)

const timeFormat = "15:04:05"

var (
	userColor      = color.New(color.FgCyan, color.Bold)
	assistantColor = color.New(color.FgGreen, color.Bold)
	dimColor       = color.New(color.Faint)
	errorColor     = color.New(color.FgRed)
)

// Console is an interactive line-based chat display.
type Console struct {
	ctrl  *core.Controller
	input *LineBuffer
	in    io.Reader
	log   *zerolog.Logger

	outMu sync.Mutex
	out   io.Writer
}

// NewConsole builds a console reading from in and printing to out. input must be
// the buffer the controller was built with (core.WithInput).
func NewConsole(ctrl *core.Controller, input *LineBuffer, in io.Reader, out io.Writer, logger *zerolog.Logger) *Console {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Console{
		ctrl:  ctrl,
		input: input,
		in:    in,
		out:   out,
		log:   logger,
	}
}

// Run reads input until EOF, a quit command or ctx cancellation. It always
// waits for the in-flight turn to settle before returning.
func (c *Console) Run(ctx context.Context) error {
	conv := c.ctrl.Conversation()

	subCtx, unsubscribe := context.WithCancel(context.Background())
	events, _ := conv.Subscribe(subCtx)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for event := range events {
			c.printEvent(event)
		}
	}()
	defer func() {
		c.ctrl.Wait()
		unsubscribe()
		<-printed
	}()

	c.printBanner(conv.Len() == 0)

	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErr <- err
			return
		}
		readErr <- io.EOF
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case line = <-lines:
		}

		// Commands work even while kept text waits to be resent.
		if quit, handled := c.command(strings.TrimSpace(line)); handled {
			if quit {
				c.discardPending()
				return nil
			}
			continue
		}

		if text, more := continued(line); more {
			c.input.Append(text)
			continue
		}
		if line != "" || !c.input.Pending() {
			c.input.Append(line)
		}
		c.submit()
	}
}

func (c *Console) submit() {
	err := c.ctrl.Submit(c.input.Text())
	switch {
	case err == nil:
	case errors.Is(err, core.ErrEmptyInput):
		c.input.Clear()
	case errors.Is(err, core.ErrSendInFlight):
		// Text stays in the buffer; an empty line resends it.
		c.log.Debug().Msg("message kept: assistant still replying")
	default:
		c.printf(errorColor, "[error] %v\n", err)
	}
}

func (c *Console) discardPending() {
	if !c.input.Pending() {
		return
	}
	c.printf(dimColor, "Unsent message discarded.\n")
	c.log.Debug().Msg("pending text dropped on quit")
	c.input.Clear()
}

// command handles slash commands. It reports whether the line was a command
// and whether the console should quit.
func (c *Console) command(input string) (quit, handled bool) {
	switch input {
	case "/quit", "/exit", "/q":
		return true, true
	case "/help":
		c.printHelp()
		return false, true
	case "/history":
		c.printHistory()
		return false, true
	case "/status":
		c.printf(dimColor, "state: %s, messages: %d\n", c.ctrl.State(), c.ctrl.Conversation().Len())
		return false, true
	}
	return false, false
}

func (c *Console) printBanner(empty bool) {
	c.printf(nil, "portalchat: type a message and press Enter. /help for commands. Ctrl+C to quit.\n")
	if empty {
		c.printf(dimColor, "Start a conversation with the assistant.\n")
	}
	c.printf(nil, "\n")
}

func (c *Console) printHelp() {
	c.printf(nil, "Commands:\n")
	c.printf(nil, "  /history       Show the conversation so far\n")
	c.printf(nil, "  /status        Show whether a message is being sent\n")
	c.printf(nil, "  /help          Show this help\n")
	c.printf(nil, "  /quit          Exit (also /exit, /q)\n")
	c.printf(nil, "End a line with \\ to continue the message on the next line.\n")
}

func (c *Console) printHistory() {
	msgs := c.ctrl.Conversation().Messages()
	if len(msgs) == 0 {
		c.printf(dimColor, "No messages yet.\n")
		return
	}
	for _, msg := range msgs {
		c.printMessage(msg)
	}
}

func (c *Console) printEvent(event *core.Event) {
	switch event.Kind {
	case core.EventMessageAppended:
		c.printMessage(event.Message)
	case core.EventSendStarted:
		c.printf(dimColor, "assistant is typing...\n")
	}
}

func (c *Console) printMessage(msg core.Message) {
	label, clr := "you", userColor
	if msg.Sender == core.SenderAssistant {
		label, clr = "assistant", assistantColor
	}

	c.outMu.Lock()
	defer c.outMu.Unlock()
	_, _ = dimColor.Fprintf(c.out, "[%s] ", msg.Timestamp.Local().Format(timeFormat))
	_, _ = clr.Fprintf(c.out, "%s:", label)
	_, _ = fmt.Fprintf(c.out, " %s\n", msg.Content)
}

func (c *Console) printf(clr *color.Color, format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	if clr == nil {
		_, _ = fmt.Fprintf(c.out, format, args...)
		return
	}
	_, _ = clr.Fprintf(c.out, format, args...)
}
