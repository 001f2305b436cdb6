package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	consoleInfoPrefix  = "[勤怠通知]"
	consoleErrorPrefix = "[勤怠エラー]"
)

// Console prints notifications to the terminal.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	errOut  io.Writer
	info    lipgloss.Style
	failure lipgloss.Style
	plain   bool
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithWriters overrides stdout and stderr.
func WithWriters(out, errOut io.Writer) ConsoleOption {
	return func(c *Console) {
		c.out = out
		c.errOut = errOut
	}
}

// WithoutColor disables styling regardless of the terminal.
func WithoutColor() ConsoleOption {
	return func(c *Console) {
		c.plain = true
	}
}

// NewConsole creates a console notifier writing to stdout and stderr.
func NewConsole(opts ...ConsoleOption) *Console {
	c := &Console{out: os.Stdout, errOut: os.Stderr}
	for _, opt := range opts {
		opt(c)
	}

	infoRenderer := lipgloss.NewRenderer(c.out)
	errRenderer := lipgloss.NewRenderer(c.errOut)
	if c.plain {
		infoRenderer.SetColorProfile(termenv.Ascii)
		errRenderer.SetColorProfile(termenv.Ascii)
	}
	c.info = infoRenderer.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	c.failure = errRenderer.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	return c
}

// Send implements Notifier.
func (c *Console) Send(_ context.Context, message string) error {
	return c.write(c.out, c.info.Render(consoleInfoPrefix), message)
}

// SendError implements Notifier.
func (c *Console) SendError(_ context.Context, message string) error {
	return c.write(c.errOut, c.failure.Render(consoleErrorPrefix), FailureMessage(message))
}

func (c *Console) write(w io.Writer, prefix, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(w, "%s %s\n", prefix, message)
	return err
}
