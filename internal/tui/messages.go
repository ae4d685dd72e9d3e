package tui

import "github.com/Veraticus/spice-ledger/internal/conversation"

// replyMsg carries the state machine's answer to the last event.
type replyMsg struct {
	reply conversation.Reply
}

// outboundMsg is a message pushed outside of a reply, such as a broadcast.
type outboundMsg struct {
	userID  string
	message conversation.Message
}

// savedMsg reports where a received document was written.
type savedMsg struct {
	err  error
	path string
}
