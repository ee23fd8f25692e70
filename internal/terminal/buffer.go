package terminal

import (
	"strings"
	"sync"
)

// LineBuffer collects the lines of one message before it is submitted.
// A line ending in a backslash continues the message on the next line.
type LineBuffer struct {
	mu    sync.Mutex
	lines []string
}

// Append adds a line to the pending message.
func (b *LineBuffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
}

// Text returns the pending message with lines joined by newlines.
func (b *LineBuffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "\n")
}

// Pending reports whether any line is buffered.
func (b *LineBuffer) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines) > 0
}

// Clear implements core.InputBuffer.
func (b *LineBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = nil
}

// continued strips a trailing continuation backslash.
func continued(line string) (string, bool) {
	if strings.HasSuffix(line, `\`) && !strings.HasSuffix(line, `\\`) {
		return strings.TrimSuffix(line, `\`), true
	}
	return line, false
}
