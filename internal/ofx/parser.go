// Package ofx reads bank and credit card statements in OFX/QFX format into
// ledger transactions.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Entry is one statement posting converted to a transaction, with the
// statement details the ledger does not store.
type Entry struct {
	Transaction model.Transaction
	FitID       string
	AccountID   string
	Payee       string
	Type        string
}

// Parser implements OFX/QFX file parsing.
type Parser struct {
	// DefaultCurrency is used when a statement declares no currency.
	DefaultCurrency string
}

// NewParser creates a new OFX parser.
func NewParser(defaultCurrency string) *Parser {
	return &Parser{DefaultCurrency: strings.ToUpper(defaultCurrency)}
}

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML exports sometimes drop the closing bracket of a bare opening tag.
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

func (p *Parser) parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// ParseFile parses an OFX/QFX file into entries owned by userID.
func (p *Parser) ParseFile(ctx context.Context, userID string, reader io.Reader) ([]Entry, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			txns, err := p.processStatement(userID, stmt.BankTranList, string(stmt.BankAcctFrom.AcctID), stmt.CurDef)
			if err != nil {
				slog.Warn("Failed to process bank statement",
					"account", stmt.BankAcctFrom.AcctID,
					"error", err)
				continue
			}
			entries = append(entries, txns...)
		}
	}

	for _, msg := range resp.CreditCard {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			txns, err := p.processStatement(userID, stmt.BankTranList, string(stmt.CCAcctFrom.AcctID), stmt.CurDef)
			if err != nil {
				slog.Warn("Failed to process credit card statement",
					"account", stmt.CCAcctFrom.AcctID,
					"error", err)
				continue
			}
			entries = append(entries, txns...)
		}
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(entries),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return entries, nil
}

func (p *Parser) processStatement(userID string, list *ofxgo.TransactionList, accountID string, curDef ofxgo.CurrSymbol) ([]Entry, error) {
	if list == nil {
		return nil, nil
	}

	currency := currencyCode(curDef)
	if currency == "" {
		currency = p.DefaultCurrency
	}
	if currency == "" {
		return nil, fmt.Errorf("statement for account %s declares no currency", accountID)
	}

	entries := make([]Entry, 0, len(list.Transactions))
	for _, ofxTx := range list.Transactions {
		entry, err := p.convertTransaction(userID, ofxTx, accountID, currency)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// convertTransaction converts an OFX posting. OFX amounts are already signed
// (debits negative) and are rounded to whole units, half away from zero.
func (p *Parser) convertTransaction(userID string, ofxTx ofxgo.Transaction, accountID, currency string) (Entry, error) {
	amount, err := RoundAmount(&ofxTx.TrnAmt.Rat)
	if err != nil {
		return Entry{}, fmt.Errorf("transaction %s: %w", ofxTx.FiTID, err)
	}

	if ofxTx.Currency != nil {
		if code := currencyCode(ofxTx.Currency.CurSym); code != "" {
			currency = code
		}
	}

	posted := ofxTx.DtPosted.Time
	return Entry{
		Transaction: model.Transaction{
			UserID:   userID,
			Date:     time.Date(posted.Year(), posted.Month(), posted.Day(), 0, 0, 0, 0, time.UTC),
			Amount:   amount,
			Category: model.UncategorizedCategory,
			Currency: currency,
		},
		FitID:     string(ofxTx.FiTID),
		AccountID: accountID,
		Payee:     p.extractMerchantName(ofxTx),
		Type:      ofxTx.TrnType.String(),
	}, nil
}

// RoundAmount rounds r to the nearest integer, halves away from zero.
func RoundAmount(r *big.Rat) (int64, error) {
	num := new(big.Int).Abs(r.Num())
	den := r.Denom()

	q, m := new(big.Int).QuoRem(num, den, new(big.Int))
	if m.Lsh(m, 1).Cmp(den) >= 0 {
		q.Add(q, big.NewInt(1))
	}
	if r.Sign() < 0 {
		q.Neg(q)
	}
	if !q.IsInt64() {
		return 0, fmt.Errorf("amount %s overflows", r.FloatString(2))
	}
	return q.Int64(), nil
}

func currencyCode(sym ofxgo.CurrSymbol) string {
	code := strings.ToUpper(strings.TrimSpace(sym.String()))
	if code == "XXX" {
		return ""
	}
	return code
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	// PAYEE is cleaner when present.
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "MM/DD " posting dates.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

// GetAccounts extracts unique account IDs from the OFX file.
func (p *Parser) GetAccounts(_ context.Context, reader io.Reader) ([]string, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var accounts []string
	add := func(id ofxgo.String) {
		if id != "" && !seen[string(id)] {
			seen[string(id)] = true
			accounts = append(accounts, string(id))
		}
	}

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			add(stmt.BankAcctFrom.AcctID)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			add(stmt.CCAcctFrom.AcctID)
		}
	}

	return accounts, nil
}

// Dedupe drops entries whose account and FITID were already seen, keeping the
// first occurrence. Overlapping statement downloads repeat postings.
func Dedupe(entries []Entry) []Entry {
	seen := make(map[[2]string]bool, len(entries))
	out := entries[:0:0]
	for _, e := range entries {
		if e.FitID != "" {
			key := [2]string{e.AccountID, e.FitID}
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, e)
	}
	return out
}

// Transactions extracts the ledger transactions from entries.
func Transactions(entries []Entry) []model.Transaction {
	txns := make([]model.Transaction, len(entries))
	for i, e := range entries {
		txns[i] = e.Transaction
	}
	return txns
}
