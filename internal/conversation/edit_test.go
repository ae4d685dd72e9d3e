package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

func TestParseEditFields(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := ParseEditFields("Date: 2025-02-23, Amount: -450, Category: Продукты, Currency: usd")
		require.NoError(t, err)
		assert.Equal(t, EditFields{
			Date:     mustDate("2025-02-23"),
			Amount:   -450,
			Category: "Продукты",
			Currency: "USD",
		}, got)
	})

	invalid := []struct {
		name  string
		input string
	}{
		{"three fields", "Date: 2025-02-23, Amount: 450, Category: Food"},
		{"five fields", "Date: 2025-02-23, Amount: 450, Category: Food, Currency: USD, Note: x"},
		{"empty value", "Date: 2025-02-23, Amount: , Category: Food, Currency: USD"},
		{"missing label", "2025-02-23, Amount: 450, Category: Food, Currency: USD"},
		{"wrong order", "Amount: 450, Date: 2025-02-23, Category: Food, Currency: USD"},
		{"fractional amount", "Date: 2025-02-23, Amount: 4.5, Category: Food, Currency: USD"},
		{"bad date", "Date: 23.02.2025, Amount: 450, Category: Food, Currency: USD"},
		{"free text", "I changed the amount to 450"},
		{"empty", ""},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEditFields(tt.input)
			assert.ErrorIs(t, err, common.ErrOracleContract)
		})
	}
}

func TestListReply_CapsButtons(t *testing.T) {
	listed := make([]model.Snapshot, maxListed+5)
	for i := range listed {
		listed[i] = model.Snapshot{ID: int64(i + 1), Date: "2025-01-01", Currency: "USD"}
	}

	reply := listReply(listed)
	require.Len(t, reply.Messages, 1)
	assert.Len(t, reply.Messages[0].Buttons, maxListed)
	assert.Equal(t, "transaction_1", reply.Messages[0].Buttons[0].ID)
	assert.Contains(t, reply.Messages[0].Text, "first 100 of 105")
}

func mustDate(value string) time.Time {
	d, err := model.ParseDate(value)
	if err != nil {
		panic(err)
	}
	return d
}
