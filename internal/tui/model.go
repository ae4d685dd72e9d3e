// Package tui provides a local terminal chat against the conversation state
// machine, standing in for a messaging platform.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/spice-ledger/internal/conversation"
	"github.com/Veraticus/spice-ledger/internal/tui/themes"
)

// Handler answers chat events.
type Handler interface {
	Handle(ctx context.Context, ev conversation.Event) conversation.Reply
}

type speaker int

const (
	speakerUser speaker = iota
	speakerBot
	speakerOutbound
	speakerSystem
)

type line struct {
	text string
	from speaker
}

// Model holds the console state.
type Model struct {
	ctx      context.Context
	handler  Handler
	save     func(conversation.Document) (string, error)
	theme    themes.Theme
	help     help.Model
	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	keymap   KeyMap
	config   Config
	lines    []line
	buttons  []conversation.Button
	selected int
	width    int
	height   int
	busy     bool
	quitting bool
}

// newModel creates a new model with the given configuration.
func newModel(ctx context.Context, handler Handler, cfg Config) Model {
	input := textinput.New()
	input.Placeholder = "Type a message or /help"
	input.Prompt = "> "
	input.Focus()

	spin := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		ctx:      ctx,
		handler:  handler,
		config:   cfg,
		theme:    cfg.Theme,
		keymap:   DefaultKeyMap(),
		help:     help.New(),
		input:    input,
		spinner:  spin,
		viewport: viewport.New(cfg.Width, 1),
		selected: -1,
	}
	m.save = m.writeDocument
	m.resize(cfg.Width, cfg.Height)
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keymap.Send):
			if cmd := m.submit(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		case key.Matches(msg, m.keymap.NextButton):
			m.cycleButton(1)
		case key.Matches(msg, m.keymap.PrevButton):
			m.cycleButton(-1)
		case key.Matches(msg, m.keymap.ScrollUp), key.Matches(msg, m.keymap.ScrollDown):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}

	case replyMsg:
		m.busy = false
		m.buttons = nil
		m.selected = -1
		for _, out := range msg.reply.Messages {
			if out.Text != "" {
				m.lines = append(m.lines, line{from: speakerBot, text: out.Text})
			}
			if out.Document != nil {
				cmds = append(cmds, m.saveDocument(*out.Document))
			}
			if len(out.Buttons) > 0 {
				m.buttons = out.Buttons
				m.selected = 0
			}
		}

	case outboundMsg:
		if msg.userID == m.config.UserID {
			m.lines = append(m.lines, line{from: speakerBot, text: msg.message.Text})
		} else {
			m.lines = append(m.lines, line{
				from: speakerOutbound,
				text: fmt.Sprintf("to %s: %s", msg.userID, msg.message.Text),
			})
		}

	case savedMsg:
		if msg.err != nil {
			m.lines = append(m.lines, line{from: speakerSystem, text: "could not save file: " + msg.err.Error()})
		} else {
			m.lines = append(m.lines, line{from: speakerSystem, text: "saved " + msg.path})
		}

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.refresh()
	return m, tea.Batch(cmds...)
}

// submit sends the typed text, or presses the selected button when the input
// is empty.
func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())

	var ev conversation.Event
	switch {
	case text != "":
		ev = conversation.TextMessage(m.config.UserID, text)
		m.lines = append(m.lines, line{from: speakerUser, text: text})
		m.input.Reset()
	case m.selected >= 0 && m.selected < len(m.buttons):
		b := m.buttons[m.selected]
		ev = conversation.ButtonPress(m.config.UserID, b.ID)
		m.lines = append(m.lines, line{from: speakerUser, text: "[" + b.Label + "]"})
	default:
		return nil
	}

	m.busy = true
	return tea.Batch(m.dispatch(ev), m.spinner.Tick)
}

func (m Model) dispatch(ev conversation.Event) tea.Cmd {
	ctx, handler := m.ctx, m.handler
	return func() tea.Msg {
		return replyMsg{reply: handler.Handle(ctx, ev)}
	}
}

func (m *Model) cycleButton(step int) {
	if len(m.buttons) == 0 {
		return
	}
	m.selected = (m.selected + step + len(m.buttons)) % len(m.buttons)
}

func (m Model) saveDocument(doc conversation.Document) tea.Cmd {
	save := m.save
	return func() tea.Msg {
		path, err := save(doc)
		return savedMsg{path: path, err: err}
	}
}

func (m Model) writeDocument(doc conversation.Document) (string, error) {
	path := filepath.Join(m.config.DownloadDir, filepath.Base(doc.Name))
	if err := os.WriteFile(path, doc.Data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(width-4, 10)
	m.help.Width = width
	m.viewport.Width = width
	m.viewport.Height = max(height-m.chromeHeight(), 3)
	m.refresh()
}

// chromeHeight is the number of rows used by everything except the transcript.
func (m Model) chromeHeight() int {
	// title, input, help, spacing
	return 5 + len(m.buttons)
}

func (m *Model) refresh() {
	m.viewport.Height = max(m.height-m.chromeHeight(), 3)
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}
