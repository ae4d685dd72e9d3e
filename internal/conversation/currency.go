package conversation

import (
	"context"
	"strings"
)

// setDefaultCurrency asks the oracle for the currency the message names and
// saves it. Oracle failures keep the state so the user can retry.
func (m *Machine) setDefaultCurrency(ctx context.Context, t *turn) (Reply, State) {
	if strings.TrimSpace(t.event.Text) == "" {
		return textReply(msgAskCurrency), StateSetDefaultCurrency
	}

	currency, err := m.oracle.ExtractCurrency(ctx, t.event.Text)
	if err != nil {
		return m.failure(t, "extract currency", err).then(textReply(msgAskCurrency)), StateSetDefaultCurrency
	}

	user, err := m.user(ctx, t)
	if err != nil {
		return m.failure(t, "set currency", err), StateNormal
	}
	user.DefaultCurrency = currency
	if err := m.store.UpsertUser(ctx, user); err != nil {
		return m.failure(t, "set currency", err), StateNormal
	}

	t.log.Info("Default currency set", "currency", currency)
	return textReplyf("Default currency set to %s.", currency), StateNormal
}
