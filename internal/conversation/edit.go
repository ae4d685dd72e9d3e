package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/filter"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// maxListed caps how many transactions one list shows as buttons.
const maxListed = 100

var editFieldLabels = [...]string{"Date", "Amount", "Category", "Currency"}

// EditFields is the replacement data of an edited transaction.
type EditFields struct {
	Date     time.Time
	Category string
	Currency string
	Amount   int64
}

// ParseEditFields parses "Date: YYYY-MM-DD, Amount: N, Category: X, Currency: C".
// Exactly four fields in that order are required, none empty, with an integer
// amount and a valid date. Violations wrap common.ErrOracleContract.
func ParseEditFields(text string) (EditFields, error) {
	parts := strings.Split(strings.TrimSpace(text), ", ")
	if len(parts) != len(editFieldLabels) {
		return EditFields{}, common.ContractViolation("expected %d fields, got %d", len(editFieldLabels), len(parts))
	}

	var values [len(editFieldLabels)]string
	for i, part := range parts {
		label, value, ok := strings.Cut(part, ":")
		if !ok {
			return EditFields{}, common.ContractViolation("field %q has no label", part)
		}
		if !strings.EqualFold(strings.TrimSpace(label), editFieldLabels[i]) {
			return EditFields{}, common.ContractViolation("field %d is %q, want %s", i+1, label, editFieldLabels[i])
		}
		if values[i] = strings.TrimSpace(value); values[i] == "" {
			return EditFields{}, common.ContractViolation("field %s is empty", editFieldLabels[i])
		}
	}

	date, err := model.ParseDate(values[0])
	if err != nil {
		return EditFields{}, common.ContractViolation("date %q is not YYYY-MM-DD", values[0])
	}
	amount, err := strconv.ParseInt(values[1], 10, 64)
	if err != nil {
		return EditFields{}, common.ContractViolation("amount %q is not an integer", values[1])
	}

	return EditFields{
		Date:     date,
		Amount:   amount,
		Category: values[2],
		Currency: strings.ToUpper(values[3]),
	}, nil
}

// filterTransactions runs the filter expression and lists the matches as
// selection buttons.
func (m *Machine) filterTransactions(ctx context.Context, t *turn) (Reply, State) {
	txns, err := m.queries.Run(ctx, t.userID(), t.event.Text)

	var parseErr *filter.ParseError
	switch {
	case errors.As(err, &parseErr):
		return textReplyf("Could not read %q: %s. Use /edit to try again.", parseErr.Token, parseErr.Reason), StateNormal
	case errors.Is(err, common.ErrNoTransactions):
		return textReply(msgNoTransactions), StateNormal
	case err != nil:
		return m.failure(t, "filter transactions", err), StateNormal
	}

	listed := make([]model.Snapshot, len(txns))
	for i, txn := range txns {
		listed[i] = txn.Snapshot()
	}
	t.session.Listed = listed
	t.session.Selected = nil

	t.log.Info("Transactions listed", "count", len(listed))
	return listReply(listed), StateNormal
}

func listReply(listed []model.Snapshot) Reply {
	shown := listed
	text := "Your transactions:"
	if len(shown) > maxListed {
		shown = shown[:maxListed]
		text = fmt.Sprintf("Your transactions (first %d of %d, narrow the filter to see the rest):", maxListed, len(listed))
	}

	buttons := make([]Button, len(shown))
	for i, snap := range shown {
		buttons[i] = Button{Label: snap.Label(), ID: transactionButtonID(snap.ID)}
	}
	return buttonsReply(text, buttons...)
}

func transactionButtonID(id int64) string {
	return transactionButtonPrefix + strconv.FormatInt(id, 10)
}

// selectTransaction resolves a transaction button against the last list. An
// id missing from that list leaves the session untouched.
func (m *Machine) selectTransaction(_ context.Context, t *turn) (Reply, State) {
	if len(t.session.Listed) == 0 {
		t.log.Warn("Transaction selected with no list cached", "callback_id", t.event.CallbackID)
		return textReply(msgDetailsNotFound), StateNormal
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(t.event.CallbackID, transactionButtonPrefix), 10, 64)
	if err != nil {
		t.log.Warn("Malformed transaction button", "callback_id", t.event.CallbackID)
		return textReply(msgDetailsNotFound), t.session.State
	}
	snap, ok := t.session.lookup(id)
	if !ok {
		t.log.Warn("Transaction not in the cached list", "transaction_id", id)
		return textReply(msgDetailsNotFound), t.session.State
	}

	t.session.Selected = &snap
	return textReply("Transaction selected: "+snap.String()).then(buttonsReply("Choose an action:",
		Button{Label: "Edit transaction", ID: buttonEditTransaction},
		Button{Label: "Delete transaction", ID: buttonDeleteTransaction},
		Button{Label: "<- Back", ID: buttonBackToTransactions},
	)), StateNormal
}

func (m *Machine) btnEditTransaction(_ context.Context, t *turn) (Reply, State) {
	if t.session.Selected == nil {
		return textReply(msgNoSelection), StateNormal
	}
	return textReplyf("Write what you want to change in %s", t.session.Selected.String()), StateAwaitingNewTransactionData
}

func (m *Machine) btnDeleteTransaction(ctx context.Context, t *turn) (Reply, State) {
	selected := t.session.Selected
	if selected == nil {
		return textReply(msgNoSelection), StateNormal
	}

	err := m.store.DeleteTransaction(ctx, t.userID(), selected.ID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return m.failure(t, "delete transaction", err), StateNormal
	}
	t.session.Selected = nil
	t.session.forget(selected.ID)

	if err != nil {
		return textReply(msgNoSelection), StateNormal
	}
	t.log.Info("Transaction deleted", "transaction_id", selected.ID)
	return textReplyf("Transaction %s deleted.", selected.String()), StateNormal
}

func (m *Machine) btnBackToTransactions(_ context.Context, t *turn) (Reply, State) {
	if len(t.session.Listed) == 0 {
		return textReply(msgBackToNormal), StateNormal
	}
	return listReply(t.session.Listed), StateNormal
}

// submitEdit replaces the selected transaction with the oracle's reading of
// the message. The row keeps its id.
func (m *Machine) submitEdit(ctx context.Context, t *turn) (Reply, State) {
	selected := t.session.Selected
	if selected == nil {
		return textReply(msgNoSelection), StateNormal
	}

	formatted, err := m.oracle.ReformatEdit(ctx, *selected, t.event.Text)
	if err != nil {
		return m.failure(t, "reformat edit", err), StateNormal
	}
	fields, err := ParseEditFields(formatted)
	if err != nil {
		t.log.Warn("Invalid edit data", "formatted", formatted, "error", err)
		return textReply(msgInvalidEdit), StateNormal
	}

	txn := model.Transaction{
		ID:       selected.ID,
		UserID:   t.userID(),
		Date:     fields.Date,
		Amount:   fields.Amount,
		Category: fields.Category,
		Currency: fields.Currency,
	}
	err = m.store.ReplaceTransaction(ctx, &txn)
	switch {
	case errors.Is(err, common.ErrNotFound):
		t.session.Selected = nil
		t.session.forget(selected.ID)
		return textReply(msgNoSelection), StateNormal
	case err != nil:
		return m.failure(t, "replace transaction", err), StateNormal
	}

	updated := txn.Snapshot()
	t.session.Selected = &updated
	t.session.replace(updated)

	t.log.Info("Transaction edited", "transaction_id", txn.ID)
	return textReplyf("Transaction\n\n%s\n\nupdated to\n\n%s.", selected.String(), updated.String()), StateNormal
}
