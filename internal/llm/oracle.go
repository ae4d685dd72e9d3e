package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// DefaultCurrency is used when the currency prompt names none.
const DefaultCurrency = "USD"

const defaultTimeout = 30 * time.Second

// ErrNoCurrency is returned by ExtractTransaction when neither the message nor
// the request names a currency. It is a contract violation.
var ErrNoCurrency = common.ContractViolation("no currency and no default currency")

// Extraction is a transaction read out of a free-form message.
type Extraction struct {
	Date     time.Time
	Category string
	Currency string
	Amount   int64
}

// ExtractionRequest carries the message and the user context the extractor
// may draw on.
type ExtractionRequest struct {
	Today           time.Time
	Message         string
	DefaultCurrency string
	Categories      []string
}

// Oracle wraps a completion client with the prompts and response contracts
// the chat flows rely on. Every call is rate limited, bounded by a timeout and
// retried on transient failures; malformed responses are never retried.
type Oracle struct {
	client    Client
	limiter   *rateLimiter
	logger    *slog.Logger
	retryOpts service.RetryOptions
	timeout   time.Duration
}

// NewOracle creates an oracle for the configured provider.
func NewOracle(cfg Config, logger *slog.Logger) (*Oracle, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return NewOracleWithClient(client, cfg, logger), nil
}

// NewOracleWithClient creates an oracle over an existing client. Only the call
// settings of cfg are used.
func NewOracleWithClient(client Client, cfg Config, logger *slog.Logger) *Oracle {
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Oracle{
		client:    client,
		limiter:   newRateLimiter(cfg.RateLimit),
		logger:    logger,
		retryOpts: retryOpts,
		timeout:   timeout,
	}
}

// Close releases the rate limiter.
func (o *Oracle) Close() {
	o.limiter.Close()
}

// call runs one prompt through the client and hands the raw text to parse.
func (o *Oracle) call(ctx context.Context, op, system, prompt string, parse func(string) error) error {
	start := time.Now()
	attempts := 0

	err := common.WithRetry(ctx, func() error {
		attempts++
		if err := o.limiter.wait(ctx); err != nil {
			return err
		}

		callCtx, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()

		raw, err := o.client.Complete(callCtx, system, prompt)
		if err != nil {
			if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				return fmt.Errorf("%w: %s timed out after %s", common.ErrOracleUnavailable, op, o.timeout)
			}
			return err
		}

		o.logger.Debug("oracle response", "op", op, "response", truncate(raw, 200))
		return parse(raw)
	}, o.retryOpts)

	if err != nil {
		o.logger.Warn("oracle call failed",
			"op", op,
			"attempts", attempts,
			"duration", time.Since(start),
			"error", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	o.logger.Debug("oracle call completed", "op", op, "attempts", attempts, "duration", time.Since(start))
	return nil
}

// IsFinancial reports whether the message mentions income or expenses.
func (o *Oracle) IsFinancial(ctx context.Context, message string) (bool, error) {
	const system = `Determine if the user's message contains information about income or expenses. ` +
		`Return the result strictly as JSON: {"contains_financial_info": true} or {"contains_financial_info": false}.`

	var financial bool
	err := o.call(ctx, "classify", system, message, func(raw string) error {
		var resp struct {
			ContainsFinancialInfo *bool `json:"contains_financial_info"`
		}
		if err := decodeContract(raw, &resp); err != nil {
			return err
		}
		if resp.ContainsFinancialInfo == nil {
			return common.ContractViolation("missing contains_financial_info")
		}
		financial = *resp.ContainsFinancialInfo
		return nil
	})
	return financial, err
}

// ExtractCurrency reads a currency code from the message, defaulting to USD
// when the response names none.
func (o *Oracle) ExtractCurrency(ctx context.Context, message string) (string, error) {
	const system = `You determine the currency the user means. ` +
		`Return the result strictly as JSON with double quotes, like {"currency": "EUR"}, ` +
		`using a short currency code such as USD, EUR or UAH.`

	currency := DefaultCurrency
	err := o.call(ctx, "currency", system, message, func(raw string) error {
		var resp struct {
			Currency string `json:"currency"`
		}
		if err := decodeContract(raw, &resp); err != nil {
			return err
		}
		if code := normalizeCurrency(resp.Currency); code != "" {
			currency = code
		}
		return nil
	})
	return currency, err
}

// ExtractTransaction reads the signed balance change, date, category and
// currency out of a message. A missing date falls back to req.Today and a
// missing currency to req.DefaultCurrency. The category is returned as given;
// callers decide what to do with names outside req.Categories.
func (o *Oracle) ExtractTransaction(ctx context.Context, req ExtractionRequest) (Extraction, error) {
	categories, err := json.Marshal(req.Categories)
	if err != nil {
		return Extraction{}, fmt.Errorf("failed to encode categories: %w", err)
	}
	today := req.Today.Format(model.DateLayout)

	system := fmt.Sprintf(`Analyze the user's message and calculate the net change in balance from the income and expenses it mentions: income is positive, expenses are negative.
Determine the date of the transaction. If no date is mentioned, infer it from the message; otherwise use the current date (%s).
Categorize the transaction using only these categories: %s. If none fits, use "%s".
Determine the currency as a short code such as USD, EUR or UAH. If no currency is mentioned, use the default currency (%s).
Return the result strictly as JSON with double quotes: {"balance_change": X, "date": "YYYY-MM-DD", "category": "name", "currency": "CODE"}, where X is an integer.`,
		today, categories, model.UncategorizedCategory, req.DefaultCurrency)

	var out Extraction
	err = o.call(ctx, "extract", system, req.Message, func(raw string) error {
		var resp struct {
			BalanceChange json.Number `json:"balance_change"`
			Date          string      `json:"date"`
			Category      string      `json:"category"`
			Currency      string      `json:"currency"`
		}
		if err := decodeContract(raw, &resp); err != nil {
			return err
		}

		amount, err := parseInteger(resp.BalanceChange)
		if err != nil {
			return err
		}

		date := req.Today
		if d := strings.TrimSpace(resp.Date); d != "" {
			if date, err = model.ParseDate(d); err != nil {
				return common.ContractViolation("date %q is not YYYY-MM-DD", d)
			}
		}

		category := strings.TrimSpace(resp.Category)
		if category == "" {
			category = model.UncategorizedCategory
		}

		currency := normalizeCurrency(resp.Currency)
		if currency == "" {
			currency = req.DefaultCurrency
		}
		if currency == "" {
			return ErrNoCurrency
		}

		out = Extraction{Amount: amount, Date: date, Category: category, Currency: currency}
		return nil
	})
	return out, err
}

// ReformatEdit asks for the replacement of snapshot described by message, as
// "Date: YYYY-MM-DD, Amount: N, Category: X, Currency: C". Fields the user did
// not mention keep their snapshot values. The text is returned unvalidated.
func (o *Oracle) ReformatEdit(ctx context.Context, snapshot model.Snapshot, message string) (string, error) {
	system := fmt.Sprintf(`You format a user's transaction correction for storage.
Old transaction data: %s.
Use the old values for every field the user does not change.
Return strictly one line in the format: 'Date: YYYY-MM-DD, Amount: 100, Category: Example, Currency: USD'.`,
		snapshot)

	var formatted string
	err := o.call(ctx, "reformat", system, message, func(raw string) error {
		formatted = strings.Trim(strings.TrimSpace(raw), "'\"`")
		if formatted == "" {
			return common.ContractViolation("empty reformatted transaction")
		}
		return nil
	})
	return formatted, err
}

// Summarize writes a short confirmation of a stored transaction in the
// language of the original message.
func (o *Oracle) Summarize(ctx context.Context, message string, txn model.Transaction) (string, error) {
	system := fmt.Sprintf(`You confirm a recorded transaction. Use the user's message only to detect their language and answer in that language (keep the word "%s" in English).
Format the response:
- Last change: %d.
- Date: %s.
- Category: %s.
- Currency: %s.
Keep it short, clear and formal.`,
		model.UncategorizedCategory, txn.Amount, txn.DateString(), txn.Category, txn.Currency)

	var summary string
	err := o.call(ctx, "summarize", system, message, func(raw string) error {
		if summary = strings.TrimSpace(raw); summary == "" {
			return common.ContractViolation("empty summary")
		}
		return nil
	})
	return summary, err
}

func parseInteger(n json.Number) (int64, error) {
	if n == "" {
		return 0, common.ContractViolation("missing balance_change")
	}
	if v, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return v, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
		return 0, common.ContractViolation("balance_change %q is not an integer", n)
	}
	return int64(f), nil
}

func normalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
