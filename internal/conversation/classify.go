package conversation

import (
	"context"
	"errors"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/llm"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// classify records a plain message as a transaction when the oracle says it
// is financial.
func (m *Machine) classify(ctx context.Context, t *turn) (Reply, State) {
	text := strings.TrimSpace(t.event.Text)
	if text == "" {
		return textReply(msgNotFinancial), StateNormal
	}

	user, err := m.user(ctx, t)
	if err != nil {
		return m.failure(t, "classify", err), StateNormal
	}

	financial, err := m.oracle.IsFinancial(ctx, text)
	if err != nil {
		return m.failure(t, "classify", err), StateNormal
	}
	if !financial {
		return textReply(msgNotFinancial), StateNormal
	}

	extraction, err := m.oracle.ExtractTransaction(ctx, llm.ExtractionRequest{
		Message:         text,
		Today:           m.now().UTC(),
		DefaultCurrency: user.DefaultCurrency,
		Categories:      user.AllowedCategories(),
	})
	if errors.Is(err, llm.ErrNoCurrency) {
		return textReply("I could not tell the currency and you have no default currency yet. " + msgAskCurrency),
			StateSetDefaultCurrency
	}
	if err != nil {
		return m.failure(t, "extract", err), StateNormal
	}

	category := extraction.Category
	if category != model.UncategorizedCategory && !user.HasCategory(category) {
		t.log.Warn("Oracle returned a category outside the user's list",
			"category", category)
		category = model.UncategorizedCategory
	}

	txn := model.Transaction{
		UserID:   user.ID,
		Amount:   extraction.Amount,
		Date:     extraction.Date,
		Category: category,
		Currency: extraction.Currency,
	}
	if _, err := m.store.InsertTransaction(ctx, &txn); err != nil {
		return m.failure(t, "save transaction", err), StateNormal
	}
	t.log.Info("Transaction recorded",
		"transaction_id", txn.ID,
		"amount", txn.Amount,
		"currency", txn.Currency,
		"category", txn.Category)

	summary, err := m.oracle.Summarize(ctx, text, txn)
	if err != nil {
		t.log.Warn("Failed to summarize transaction", "error", err)
		summary = "Saved. " + txn.Snapshot().String()
	}
	return textReply(summary), StateNormal
}
