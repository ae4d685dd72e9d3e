package conversation

import "strings"

// EventKind distinguishes text messages from button presses.
type EventKind int

// Event kinds.
const (
	EventText EventKind = iota
	EventButton
)

func (k EventKind) String() string {
	if k == EventButton {
		return "button"
	}
	return "text"
}

// Event is one inbound chat interaction.
type Event struct {
	UserID     string
	Text       string
	CallbackID string
	Kind       EventKind
}

// TextMessage builds a text event.
func TextMessage(userID, text string) Event {
	return Event{UserID: userID, Kind: EventText, Text: text}
}

// ButtonPress builds a button event.
func ButtonPress(userID, callbackID string) Event {
	return Event{UserID: userID, Kind: EventButton, CallbackID: callbackID}
}

// Command returns the lower-cased command name when the text is a slash
// command. "/Report@ledger_bot now" yields "report".
func (e Event) Command() (string, bool) {
	if e.Kind != EventText {
		return "", false
	}
	text := strings.TrimSpace(e.Text)
	if !strings.HasPrefix(text, "/") || len(text) == 1 {
		return "", false
	}

	name := strings.Fields(text[1:])[0]
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), name != ""
}
