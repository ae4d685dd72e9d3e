package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/export"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// spreadsheetAPI is the slice of the Sheets API the writer drives.
type spreadsheetAPI interface {
	Create(ctx context.Context, title, timeZone string) (string, error)
	Tabs(ctx context.Context, spreadsheetID string) (map[string]int64, error)
	AddTab(ctx context.Context, spreadsheetID, title string) (int64, error)
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error
	Format(ctx context.Context, spreadsheetID string, sheetID int64, columns int) error
}

// Writer exports transactions into one tab per user of a shared spreadsheet.
type Writer struct {
	api           spreadsheetAPI
	logger        *slog.Logger
	config        Config
	retryOpts     service.RetryOptions
	spreadsheetID string
	mu            sync.Mutex
}

// NewWriter creates a writer authenticated per config.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	api, err := newGoogleAPI(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return newWriter(api, config, logger), nil
}

func newWriter(api spreadsheetAPI, config Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	return &Writer{
		api:           api,
		config:        config,
		logger:        logger,
		spreadsheetID: config.SpreadsheetID,
		retryOpts: service.RetryOptions{
			MaxAttempts:  config.RetryAttempts,
			InitialDelay: config.RetryDelay,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Export replaces the user's tab with txns and returns a link to it.
func (w *Writer) Export(ctx context.Context, userID string, txns []model.Transaction) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.logger.Info("starting sheets export", "user_id", userID, "transactions", len(txns))

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	title := TabTitle(userID)
	sheetID, err := w.ensureTab(ctx, spreadsheetID, title)
	if err != nil {
		return "", fmt.Errorf("failed to prepare tab %q: %w", title, err)
	}

	err = w.retry(ctx, func() error {
		return w.api.Clear(ctx, spreadsheetID, quoteRange(title, "A:D"))
	})
	if err != nil {
		return "", fmt.Errorf("failed to clear sheet: %w", err)
	}

	values := prepareValues(txns)
	if err := w.writeData(ctx, spreadsheetID, title, values); err != nil {
		return "", fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = w.retry(ctx, func() error {
			return w.api.Format(ctx, spreadsheetID, sheetID, len(export.Header))
		})
		if err != nil {
			// The data is already written.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("sheets export completed",
		"spreadsheet_id", spreadsheetID,
		"tab", title,
		"rows_written", len(values))

	return SheetURL(spreadsheetID, sheetID), nil
}

func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.spreadsheetID != "" {
		return w.spreadsheetID, nil
	}

	var id string
	err := w.retry(ctx, func() error {
		var err error
		id, err = w.api.Create(ctx, w.config.SpreadsheetName, w.config.TimeZone)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet", "id", id)
	w.spreadsheetID = id
	return id, nil
}

func (w *Writer) ensureTab(ctx context.Context, spreadsheetID, title string) (int64, error) {
	var tabs map[string]int64
	err := w.retry(ctx, func() error {
		var err error
		tabs, err = w.api.Tabs(ctx, spreadsheetID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("unable to access spreadsheet %s: %w", spreadsheetID, err)
	}
	if id, ok := tabs[title]; ok {
		return id, nil
	}

	var sheetID int64
	err = w.retry(ctx, func() error {
		var err error
		sheetID, err = w.api.AddTab(ctx, spreadsheetID, title)
		return err
	})
	return sheetID, err
}

// writeData writes values in batches to stay under API request limits.
func (w *Writer) writeData(ctx context.Context, spreadsheetID, title string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))
		batch := values[i:end]

		err := w.retry(ctx, func() error {
			return w.api.Update(ctx, spreadsheetID, quoteRange(title, fmt.Sprintf("A%d", i+1)), batch)
		})
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}
	return nil
}

func (w *Writer) retry(ctx context.Context, op func() error) error {
	return common.WithRetry(ctx, func() error {
		return classifyAPIError(op())
	}, w.retryOpts)
}

// classifyAPIError marks throttling and server errors from Google as retryable.
func classifyAPIError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= http.StatusInternalServerError:
		return &common.RetryableError{Err: err, Retryable: true}
	default:
		return err
	}
}

// prepareValues lays out the header and one row per transaction in export order.
func prepareValues(txns []model.Transaction) [][]any {
	rows := export.Rows(txns)
	values := make([][]any, 0, len(rows)+1)

	header := make([]any, len(export.Header))
	for i, h := range export.Header {
		header[i] = h
	}
	values = append(values, header)

	for _, r := range rows {
		values = append(values, []any{r.Date, r.Amount, r.Category, r.Currency})
	}
	return values
}

// TabTitle is the sheet tab holding a user's transactions. Characters the
// Sheets API rejects in titles are replaced.
func TabTitle(userID string) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]*?/\:'`, r) {
			return '_'
		}
		return r
	}, userID)
	return "user " + clean
}

// SheetURL links directly to a tab.
func SheetURL(spreadsheetID string, sheetID int64) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%d", spreadsheetID, sheetID)
}

func quoteRange(title, cells string) string {
	return "'" + title + "'!" + cells
}
