package conversation

import (
	"context"

	"github.com/Veraticus/spice-ledger/internal/filter"
	"github.com/Veraticus/spice-ledger/internal/report"
)

func (m *Machine) generateReport(ctx context.Context, t *turn) (Reply, State) {
	start, end, err := filter.ParseDateRange(t.event.Text)
	if err != nil {
		t.log.Debug("Invalid report range", "text", t.event.Text, "error", err)
		return textReply(msgInvalidRange), StateNormal
	}

	r, err := m.reports.Generate(ctx, t.userID(), start, end)
	if err != nil {
		return m.failure(t, "report", err), StateNormal
	}
	return textReply(report.Render(r)), StateNormal
}
