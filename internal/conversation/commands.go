package conversation

import (
	"context"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/export"
)

// Button callback ids.
const (
	buttonAddCategory        = "add_category"
	buttonDeleteCategory     = "delete_category"
	buttonEditCategory       = "edit_category"
	buttonChangeCurrency     = "change_currency"
	buttonGoBack             = "go_back"
	buttonEditTransaction    = "edit_transaction"
	buttonDeleteTransaction  = "delete_transaction"
	buttonBackToTransactions = "back_to_transactions"
	buttonSheets             = "sheets"

	transactionButtonPrefix = "transaction_"
)

func (m *Machine) cmdStart(ctx context.Context, t *turn) (Reply, State) {
	user, err := m.user(ctx, t)
	if err != nil {
		return m.failure(t, "start", err), StateNormal
	}

	greeting := textReply("Hi! Send me your income and expenses in plain words and I will keep track of them.\n\n" + msgHelp)
	if !user.HasDefaultCurrency() {
		return greeting.then(textReply(msgAskCurrency)), StateSetDefaultCurrency
	}
	return greeting, StateNormal
}

func (m *Machine) cmdCategory(ctx context.Context, t *turn) (Reply, State) {
	user, err := m.user(ctx, t)
	if err != nil {
		return m.failure(t, "category", err), StateNormal
	}

	var text string
	if len(user.Categories) == 0 {
		text = "You have no categories yet."
	} else {
		text = "Your categories:\n- " + strings.Join(user.Categories, "\n- ")
	}
	return buttonsReply(text,
		Button{Label: "Add category", ID: buttonAddCategory},
		Button{Label: "Delete category", ID: buttonDeleteCategory},
		Button{Label: "Edit category", ID: buttonEditCategory},
		Button{Label: "<- Back", ID: buttonGoBack},
	), StateNormal
}

func (m *Machine) cmdCurrency(ctx context.Context, t *turn) (Reply, State) {
	user, err := m.user(ctx, t)
	if err != nil {
		return m.failure(t, "currency", err), StateNormal
	}

	text := "You have no default currency yet."
	if user.HasDefaultCurrency() {
		text = "Your default currency: " + user.DefaultCurrency
	}
	return buttonsReply(text,
		Button{Label: "Change currency", ID: buttonChangeCurrency},
		Button{Label: "<- Back", ID: buttonGoBack},
	), StateNormal
}

func (m *Machine) cmdEdit(context.Context, *turn) (Reply, State) {
	return textReply(msgEditPrompt), StateEditFilterInput
}

func (m *Machine) cmdReport(context.Context, *turn) (Reply, State) {
	return textReply(msgAskReportRange), StateReportDateRangeInput
}

func (m *Machine) cmdExport(context.Context, *turn) (Reply, State) {
	buttons := make([]Button, 0, len(export.Formats)+2)
	for _, f := range export.Formats {
		buttons = append(buttons, Button{Label: strings.ToUpper(string(f)), ID: string(f)})
	}
	if m.sheets != nil {
		buttons = append(buttons, Button{Label: "Google Sheets", ID: buttonSheets})
	}
	buttons = append(buttons, Button{Label: "<- Back", ID: buttonGoBack})
	return buttonsReply("Choose the export format:", buttons...), StateNormal
}

func (m *Machine) cmdNormal(context.Context, *turn) (Reply, State) {
	return textReply(msgBackToNormal), StateNormal
}

func (m *Machine) cmdAddToList(context.Context, *turn) (Reply, State) {
	return textReply("Send the text to add to your list."), StateAddToList
}

func (m *Machine) cmdBroadcast(_ context.Context, t *turn) (Reply, State) {
	if !m.canBroadcast(t.userID()) {
		t.log.Warn("Unauthorized broadcast attempt")
		return textReply(msgPermissionDenied), StateNormal
	}
	return textReply("Send the message to broadcast to all users."), StateAwaitingBroadcastMessage
}

func (m *Machine) cmdHelp(context.Context, *turn) (Reply, State) {
	return textReply(msgHelp), StateNormal
}

func (m *Machine) cmdUnknown(_ context.Context, t *turn) (Reply, State) {
	t.log.Debug("Unknown command", "text", t.event.Text)
	return textReply("Unknown command.\n\n" + msgHelp), StateNormal
}

func (m *Machine) btnGoBack(context.Context, *turn) (Reply, State) {
	return textReply(msgBackToNormal), StateNormal
}

func (m *Machine) btnChangeCurrency(context.Context, *turn) (Reply, State) {
	return textReply(msgAskCurrency), StateSetDefaultCurrency
}

// addToList appends the message to the session's note list.
func (m *Machine) addToList(_ context.Context, t *turn) (Reply, State) {
	note := strings.TrimSpace(t.event.Text)
	if note == "" {
		return textReply("Nothing to add."), StateNormal
	}
	t.session.Notes = append(t.session.Notes, note)
	return textReplyf("Added to your list (%d items).", len(t.session.Notes)), StateNormal
}
