package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// BroadcastResult counts the outcome of one broadcast.
type BroadcastResult struct {
	Recipients int
	Delivered  int
	Failed     int
}

func (m *Machine) canBroadcast(userID string) bool {
	_, ok := m.allowed[userID]
	return ok
}

// Broadcast sends text to every known user, one at a time. A failed delivery
// is logged and counted without stopping the rest. Senders outside the
// allow-list get common.ErrPermissionDenied before any recipient is looked up.
func (m *Machine) Broadcast(ctx context.Context, senderID, text string) (BroadcastResult, error) {
	if !m.canBroadcast(senderID) {
		return BroadcastResult{}, fmt.Errorf("broadcast from %s: %w", senderID, common.ErrPermissionDenied)
	}

	recipients, err := m.store.ListUserIDs(ctx)
	if err != nil {
		return BroadcastResult{}, fmt.Errorf("failed to list recipients: %w", err)
	}

	result := BroadcastResult{Recipients: len(recipients)}
	for _, id := range recipients {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := m.sender.Send(ctx, id, Message{Text: text}); err != nil {
			m.logger.Warn("Broadcast delivery failed", "recipient", id, "error", err)
			result.Failed++
			continue
		}
		result.Delivered++
	}

	m.logger.Info("Broadcast finished",
		"sender", senderID,
		"recipients", result.Recipients,
		"delivered", result.Delivered,
		"failed", result.Failed)
	return result, nil
}

func (m *Machine) broadcastMessage(ctx context.Context, t *turn) (Reply, State) {
	text := strings.TrimSpace(t.event.Text)
	if text == "" {
		return textReply("Nothing to broadcast."), StateNormal
	}

	result, err := m.Broadcast(ctx, t.userID(), text)
	switch {
	case errors.Is(err, common.ErrPermissionDenied):
		return textReply(msgPermissionDenied), StateNormal
	case err != nil && result.Recipients == 0:
		return m.failure(t, "broadcast", err), StateNormal
	case err != nil:
		t.log.Warn("Broadcast interrupted", "error", err)
	}
	return textReplyf("Broadcast finished: delivered to %d of %d users, %d failed.",
		result.Delivered, result.Recipients, result.Failed), StateNormal
}
