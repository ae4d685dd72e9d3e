package ofx

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Sample OFX data for testing.
const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>Whole Foods Market
</STMTTRN>
<STMTTRN>
<TRNTYPE>CHECK
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>-500.00
<FITID>2024012501
<CHECKNUM>1234
<NAME>CHECK #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240131120000[0:GMT]
<TRNAMT>2000.50
<FITID>2024013101
<PAYEE>
<NAME>ACME Corp
<ADDR1>1 Main St
<CITY>Springfield
<STATE>IL
<POSTALCODE>62701
<PHONE>555-0100
</PAYEE>
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>EUR
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<NAME>AMAZON.COM*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	tests := []struct {
		name          string
		ofxData       string
		expectedCount int
		expectedError bool
	}{
		{
			name:          "valid bank statement",
			ofxData:       sampleBankOFX,
			expectedCount: 4,
		},
		{
			name:          "valid credit card statement",
			ofxData:       sampleCreditCardOFX,
			expectedCount: 2,
		},
		{
			name:          "invalid OFX data",
			ofxData:       "not valid OFX",
			expectedError: true,
		},
		{
			name:          "empty OFX",
			ofxData:       "",
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewParser("usd")
			entries, err := parser.ParseFile(context.Background(), "42", strings.NewReader(tt.ofxData))

			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, entries, tt.expectedCount)
		})
	}
}

func TestParseBankTransactions(t *testing.T) {
	entries, err := NewParser("").ParseFile(context.Background(), "42", strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	starbucks := entries[0]
	assert.Equal(t, "2024011501", starbucks.FitID)
	assert.Equal(t, "1234567890", starbucks.AccountID)
	assert.Equal(t, "STARBUCKS STORE #1234", starbucks.Payee)
	assert.Equal(t, "DEBIT", starbucks.Type)
	assert.Equal(t, model.Transaction{
		UserID:   "42",
		Date:     mustDate(t, "2024-01-15"),
		Amount:   -26,
		Category: model.UncategorizedCategory,
		Currency: "USD",
	}, starbucks.Transaction)

	assert.Equal(t, int64(-125), entries[1].Transaction.Amount)
	assert.Equal(t, "Whole Foods Market", entries[1].Payee)
	assert.Equal(t, int64(-500), entries[2].Transaction.Amount)

	payroll := entries[3]
	assert.Equal(t, int64(2001), payroll.Transaction.Amount)
	assert.Equal(t, "ACME Corp", payroll.Payee)
	assert.Equal(t, "2024-01-31", payroll.Transaction.DateString())
}

func TestParseCreditCardTransactions(t *testing.T) {
	entries, err := NewParser("USD").ParseFile(context.Background(), "7", strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	amazon := entries[0]
	assert.Equal(t, "CC2024011001", amazon.FitID)
	assert.Equal(t, "4111111111111111", amazon.AccountID)
	assert.Equal(t, int64(-46), amazon.Transaction.Amount)
	assert.Equal(t, "EUR", amazon.Transaction.Currency, "statement currency wins over the default")
	assert.Equal(t, "7", amazon.Transaction.UserID)

	assert.Equal(t, int64(-15), entries[1].Transaction.Amount)
}

func TestParseFile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser("USD").ParseFile(ctx, "42", strings.NewReader(sampleBankOFX))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRoundAmount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"25.49", 25},
		{"25.50", 26},
		{"-25.50", -26},
		{"-25.49", -25},
		{"0.5", 1},
		{"-0.5", -1},
		{"-0.4", 0},
		{"1234567.999", 1234568},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, ok := new(big.Rat).SetString(tt.in)
			require.True(t, ok)
			got, err := RoundAmount(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	huge, _ := new(big.Rat).SetString("99999999999999999999")
	_, err := RoundAmount(huge)
	assert.Error(t, err)
}

func TestExtractMerchantName(t *testing.T) {
	parser := NewParser("USD")

	tests := []struct {
		name     string
		input    string
		memo     string
		expected string
	}{
		{
			name:     "remove POS prefix",
			input:    "POS PURCHASE STARBUCKS",
			expected: "STARBUCKS",
		},
		{
			name:     "remove DEBIT CARD prefix",
			input:    "DEBIT CARD PURCHASE WHOLE FOODS",
			expected: "WHOLE FOODS",
		},
		{
			name:     "keep clean name",
			input:    "NETFLIX.COM",
			expected: "NETFLIX.COM",
		},
		{
			name:     "trim whitespace",
			input:    "  AMAZON.COM  ",
			expected: "AMAZON.COM",
		},
		{
			name:     "generic name falls back to memo",
			input:    "PAYMENT",
			memo:     "CITY WATER",
			expected: "CITY WATER",
		},
		{
			name:     "leading posting date",
			input:    "01/15 CORNER CAFE",
			expected: "CORNER CAFE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := ofxgo.Transaction{
				Name: ofxgo.String(tt.input),
				Memo: ofxgo.String(tt.memo),
			}
			assert.Equal(t, tt.expected, parser.extractMerchantName(tx))
		})
	}
}

func TestDedupe(t *testing.T) {
	entries := []Entry{
		{FitID: "1", AccountID: "A", Transaction: model.Transaction{Amount: 1}},
		{FitID: "1", AccountID: "B", Transaction: model.Transaction{Amount: 2}},
		{FitID: "1", AccountID: "A", Transaction: model.Transaction{Amount: 3}},
		{FitID: "", AccountID: "A", Transaction: model.Transaction{Amount: 4}},
		{FitID: "", AccountID: "A", Transaction: model.Transaction{Amount: 5}},
	}

	got := Transactions(Dedupe(entries))

	amounts := make([]int64, len(got))
	for i, txn := range got {
		amounts[i] = txn.Amount
	}
	assert.Equal(t, []int64{1, 2, 4, 5}, amounts)
	assert.Equal(t, int64(3), entries[2].Transaction.Amount, "input is not modified")
}

func TestGetAccounts(t *testing.T) {
	parser := NewParser("USD")

	accounts, err := parser.GetAccounts(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"1234567890"}, accounts)

	accounts, err = parser.GetAccounts(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"4111111111111111"}, accounts)
}

func TestPreprocessOFX(t *testing.T) {
	parser := NewParser("USD")

	got := parser.preprocessOFX("\n\n  <SEVERITY>Info</SEVERITY>\n<STMTTRN\n")
	assert.Equal(t, "<SEVERITY>INFO</SEVERITY>\n<STMTTRN>\n", got)
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := model.ParseDate(value)
	require.NoError(t, err)
	return d
}
