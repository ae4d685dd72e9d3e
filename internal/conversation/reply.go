package conversation

import "fmt"

// Button is an inline choice; ID comes back as the callback id when pressed.
type Button struct {
	Label string
	ID    string
}

// Document is a file attached to a message.
type Document struct {
	Name string
	MIME string
	Data []byte
}

// Message is one outbound chat message.
type Message struct {
	Document *Document
	Text     string
	Buttons  []Button
}

// Reply is everything sent back for one event, in order.
type Reply struct {
	Messages []Message
}

// Text concatenates the text of every message, one per line.
func (r Reply) Text() string {
	var out string
	for i, m := range r.Messages {
		if i > 0 {
			out += "\n"
		}
		out += m.Text
	}
	return out
}

func textReply(text string) Reply {
	return Reply{Messages: []Message{{Text: text}}}
}

func textReplyf(format string, args ...any) Reply {
	return textReply(fmt.Sprintf(format, args...))
}

func buttonsReply(text string, buttons ...Button) Reply {
	return Reply{Messages: []Message{{Text: text, Buttons: buttons}}}
}

func (r Reply) then(next Reply) Reply {
	return Reply{Messages: append(r.Messages, next.Messages...)}
}
