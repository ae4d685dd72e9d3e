package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/spice-ledger/internal/conversation"
)

// Console is the terminal chat platform. It doubles as the state machine's
// Sender so broadcasts show up in the transcript.
type Console struct {
	program *tea.Program
	pending []outboundMsg
	mu      sync.Mutex
}

// NewConsole creates a console that is not yet running.
func NewConsole() *Console {
	return &Console{}
}

// Send shows a message pushed to userID. Messages sent before the console
// starts are shown once it does.
func (c *Console) Send(_ context.Context, userID string, msg conversation.Message) error {
	out := outboundMsg{userID: userID, message: msg}

	c.mu.Lock()
	p := c.program
	if p == nil {
		c.pending = append(c.pending, out)
	}
	c.mu.Unlock()

	if p != nil {
		p.Send(out)
	}
	return nil
}

// Run starts the console and blocks until the user quits or ctx is cancelled.
func (c *Console) Run(ctx context.Context, handler Handler, opts ...Option) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.UserID == "" {
		return errors.New("user id is required")
	}

	m := newModel(ctx, handler, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	c.mu.Lock()
	c.program = p
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	go func() {
		for _, out := range pending {
			p.Send(out)
		}
	}()

	_, err := p.Run()

	c.mu.Lock()
	c.program = nil
	c.mu.Unlock()

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("console failed: %w", err)
	}
	return nil
}
