package tui

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/conversation"
)

type scriptedHandler struct {
	replies map[string]conversation.Reply
	mu      sync.Mutex
	events  []conversation.Event
}

func (h *scriptedHandler) Handle(_ context.Context, ev conversation.Event) conversation.Reply {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	key := ev.Text
	if ev.Kind == conversation.EventButton {
		key = ev.CallbackID
	}
	return h.replies[key]
}

// collect runs cmd and flattens batches into their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, collect(c)...)
	}
	return out
}

func findReply(t *testing.T, msgs []tea.Msg) replyMsg {
	t.Helper()
	for _, msg := range msgs {
		if r, ok := msg.(replyMsg); ok {
			return r
		}
	}
	t.Fatal("no reply produced")
	return replyMsg{}
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	next, ok := updated.(Model)
	require.True(t, ok)
	return next, cmd
}

func newTestModel(h Handler, opts ...Option) Model {
	cfg := defaultConfig()
	cfg.UserID = "9"
	for _, opt := range opts {
		opt(&cfg)
	}
	return newModel(context.Background(), h, cfg)
}

func TestModel_SendText(t *testing.T) {
	h := &scriptedHandler{replies: map[string]conversation.Reply{
		"coffee 3 usd": {Messages: []conversation.Message{{Text: "Saved: Coffee -3 USD"}}},
	}}
	m := newTestModel(h)
	m.input.SetValue("  coffee 3 usd ")

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.busy)
	assert.Empty(t, m.input.Value())
	require.NotEmpty(t, m.lines)
	assert.Equal(t, line{from: speakerUser, text: "coffee 3 usd"}, m.lines[len(m.lines)-1])

	reply := findReply(t, collect(cmd))
	m, _ = step(t, m, reply)

	assert.False(t, m.busy)
	assert.Equal(t, line{from: speakerBot, text: "Saved: Coffee -3 USD"}, m.lines[len(m.lines)-1])
	require.Len(t, h.events, 1)
	assert.Equal(t, conversation.TextMessage("9", "coffee 3 usd"), h.events[0])
}

func TestModel_EmptyInputWithoutButtonsDoesNothing(t *testing.T) {
	m := newTestModel(&scriptedHandler{})
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.busy)
	assert.Nil(t, cmd)
	assert.Empty(t, m.lines)
}

func TestModel_ButtonSelection(t *testing.T) {
	h := &scriptedHandler{replies: map[string]conversation.Reply{
		"delete_category": {Messages: []conversation.Message{{Text: "Send the category to delete."}}},
	}}
	m := newTestModel(h)

	m, _ = step(t, m, replyMsg{reply: conversation.Reply{Messages: []conversation.Message{{
		Text: "Your categories: Food",
		Buttons: []conversation.Button{
			{Label: "Add", ID: "add_category"},
			{Label: "Delete", ID: "delete_category"},
			{Label: "Back", ID: "go_back"},
		},
	}}}})
	assert.Equal(t, 0, m.selected)
	assert.Contains(t, m.View(), "Delete")

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, 2, m.selected, "shift+tab wraps around")
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, m.selected)

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, line{from: speakerUser, text: "[Delete]"}, m.lines[len(m.lines)-1])

	m, _ = step(t, m, findReply(t, collect(cmd)))
	require.Len(t, h.events, 1)
	assert.Equal(t, conversation.ButtonPress("9", "delete_category"), h.events[0])
	assert.Empty(t, m.buttons, "buttons belong to the reply that carried them")
	assert.Equal(t, -1, m.selected)
}

func TestModel_IgnoresInputWhileBusy(t *testing.T) {
	m := newTestModel(&scriptedHandler{})
	m.busy = true
	m.input.SetValue("hello")

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "hello", m.input.Value())
	assert.Contains(t, m.View(), "thinking")
}

func TestModel_SavesDocuments(t *testing.T) {
	dir := t.TempDir()
	m := newTestModel(&scriptedHandler{}, WithDownloadDir(dir))

	m, cmd := step(t, m, replyMsg{reply: conversation.Reply{Messages: []conversation.Message{{
		Text:     "Here are your transactions.",
		Document: &conversation.Document{Name: "9_transactions.csv", Data: []byte("Date,Amount,Category,Currency\n")},
	}}}})

	msgs := collect(cmd)
	require.Len(t, msgs, 1)
	saved, ok := msgs[0].(savedMsg)
	require.True(t, ok)
	require.NoError(t, saved.err)

	data, err := os.ReadFile(filepath.Join(dir, "9_transactions.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Date,Amount,Category,Currency\n", string(data))

	m, _ = step(t, m, saved)
	assert.Equal(t, speakerSystem, m.lines[len(m.lines)-1].from)
}

func TestModel_OutboundMessages(t *testing.T) {
	m := newTestModel(&scriptedHandler{})

	m, _ = step(t, m, outboundMsg{userID: "9", message: conversation.Message{Text: "maintenance tonight"}})
	m, _ = step(t, m, outboundMsg{userID: "2", message: conversation.Message{Text: "maintenance tonight"}})

	require.Len(t, m.lines, 2)
	assert.Equal(t, line{from: speakerBot, text: "maintenance tonight"}, m.lines[0])
	assert.Equal(t, line{from: speakerOutbound, text: "to 2: maintenance tonight"}, m.lines[1])
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(&scriptedHandler{})
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}

func TestConsole_BuffersBeforeStart(t *testing.T) {
	c := NewConsole()
	require.NoError(t, c.Send(context.Background(), "2", conversation.Message{Text: "hello"}))

	c.mu.Lock()
	defer c.mu.Unlock()
	require.Len(t, c.pending, 1)
	assert.Equal(t, "2", c.pending[0].userID)
}

func TestConsole_RunRequiresHandler(t *testing.T) {
	err := NewConsole().Run(context.Background(), nil)
	assert.Error(t, err)
}
