package conversation

import (
	"bytes"
	"context"

	"github.com/Veraticus/spice-ledger/internal/export"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// exportHandler returns the button handler sending the user's transactions
// as a file in format f.
func (m *Machine) exportHandler(f export.Format) handlerFunc {
	return func(ctx context.Context, t *turn) (Reply, State) {
		txns, ok, reply := m.exportable(ctx, t)
		if !ok {
			return reply, StateNormal
		}

		var buf bytes.Buffer
		if err := export.Encode(&buf, f, txns); err != nil {
			return m.failure(t, "export", err), StateNormal
		}

		t.log.Info("Transactions exported", "format", string(f), "count", len(txns), "bytes", buf.Len())
		return Reply{Messages: []Message{{
			Text: "Here are your transactions.",
			Document: &Document{
				Name: export.FileName(t.userID(), f),
				MIME: f.MIME(),
				Data: buf.Bytes(),
			},
		}}}, StateNormal
	}
}

func (m *Machine) btnSheets(ctx context.Context, t *turn) (Reply, State) {
	txns, ok, reply := m.exportable(ctx, t)
	if !ok {
		return reply, StateNormal
	}

	url, err := m.sheets.Export(ctx, t.userID(), txns)
	if err != nil {
		return m.failure(t, "sheets export", err), StateNormal
	}

	t.log.Info("Transactions exported to Google Sheets", "count", len(txns))
	return textReplyf("Exported %d transactions to Google Sheets: %s", len(txns), url), StateNormal
}

// exportable loads the user's transactions, or the reply to send when there
// is nothing to export.
func (m *Machine) exportable(ctx context.Context, t *turn) ([]model.Transaction, bool, Reply) {
	txns, err := m.store.ListTransactions(ctx, t.userID())
	if err != nil {
		return nil, false, m.failure(t, "list transactions", err)
	}
	if len(txns) == 0 {
		return nil, false, textReply(msgNothingToExport)
	}
	return txns, true, Reply{}
}

// exportInProgress answers text sent while an export is pending. Export
// buttons finish within their own turn and never leave a session here.
func (m *Machine) exportInProgress(_ context.Context, t *turn) (Reply, State) {
	return textReply("Your export has already been sent. Use /export to start another."), StateNormal
}
