// Package chat connects chat transports to the conversation state machine.
package chat

import (
	"context"

	"github.com/Veraticus/spice-ledger/internal/conversation"
)

// Platform is a chat transport: a source of inbound events and a sink for
// outbound messages.
type Platform interface {
	// Updates streams inbound events until ctx is cancelled or the
	// transport shuts down, then closes the channel.
	Updates(ctx context.Context) (<-chan conversation.Event, error)
	Send(ctx context.Context, userID string, msg conversation.Message) error
}

// Handler turns one event into a reply.
type Handler interface {
	Handle(ctx context.Context, ev conversation.Event) conversation.Reply
}
