package sheets

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

type updateCall struct {
	rng    string
	values [][]any
}

// fakeAPI is an in-memory spreadsheetAPI. failures[op] errors are returned
// (and consumed) before the op succeeds.
type fakeAPI struct {
	failures  map[string][]error
	tabs      map[string]int64
	created   []string
	cleared   []string
	updates   []updateCall
	formatted []int64
	nextTab   int64
	mu        sync.Mutex
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{failures: map[string][]error{}, tabs: map[string]int64{}, nextTab: 100}
}

func (f *fakeAPI) fail(op string) error {
	if errs := f.failures[op]; len(errs) > 0 {
		f.failures[op] = errs[1:]
		return errs[0]
	}
	return nil
}

func (f *fakeAPI) Create(_ context.Context, title, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("create"); err != nil {
		return "", err
	}
	f.created = append(f.created, title)
	return "new-sheet", nil
}

func (f *fakeAPI) Tabs(context.Context, string) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("tabs"); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(f.tabs))
	for k, v := range f.tabs {
		out[k] = v
	}
	return out, nil
}

func (f *fakeAPI) AddTab(_ context.Context, _, title string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTab++
	f.tabs[title] = f.nextTab
	return f.nextTab, nil
}

func (f *fakeAPI) Clear(_ context.Context, _, rng string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, rng)
	return nil
}

func (f *fakeAPI) Update(_ context.Context, _, rng string, values [][]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("update"); err != nil {
		return err
	}
	f.updates = append(f.updates, updateCall{rng: rng, values: values})
	return nil
}

func (f *fakeAPI) Format(_ context.Context, _ string, sheetID int64, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("format"); err != nil {
		return err
	}
	f.formatted = append(f.formatted, sheetID)
	return nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func sampleTransactions() []model.Transaction {
	day := func(s string) time.Time {
		d, _ := model.ParseDate(s)
		return d
	}
	return []model.Transaction{
		{ID: 2, UserID: "42", Date: day("2025-01-10"), Amount: -200, Category: "Food", Currency: "USD"},
		{ID: 1, UserID: "42", Date: day("2025-01-05"), Amount: 1000, Category: "Salary", Currency: "USD"},
	}
}

func TestWriter_ExportCreatesSpreadsheetAndTab(t *testing.T) {
	api := newFakeAPI()
	w := newWriter(api, testConfig(), nil)

	url, err := w.Export(context.Background(), "42", sampleTransactions())
	require.NoError(t, err)

	assert.Equal(t, "https://docs.google.com/spreadsheets/d/new-sheet/edit#gid=101", url)
	assert.Equal(t, []string{"Ledger Transactions"}, api.created)
	assert.Equal(t, map[string]int64{"user 42": 101}, api.tabs)
	assert.Equal(t, []string{"'user 42'!A:D"}, api.cleared)
	require.Len(t, api.updates, 1)
	assert.Equal(t, "'user 42'!A1", api.updates[0].rng)
	assert.Equal(t, [][]any{
		{"Date", "Amount", "Category", "Currency"},
		{"2025-01-05", int64(1000), "Salary", "USD"},
		{"2025-01-10", int64(-200), "Food", "USD"},
	}, api.updates[0].values)
	assert.Equal(t, []int64{101}, api.formatted)

	// The spreadsheet and tab are reused on the next export.
	_, err = w.Export(context.Background(), "42", nil)
	require.NoError(t, err)
	assert.Len(t, api.created, 1)
	assert.Len(t, api.tabs, 1)
}

func TestWriter_ExportUsesConfiguredSpreadsheet(t *testing.T) {
	api := newFakeAPI()
	api.tabs["user 7"] = 5
	cfg := testConfig()
	cfg.SpreadsheetID = "existing"
	cfg.EnableFormatting = false

	url, err := newWriter(api, cfg, nil).Export(context.Background(), "7", sampleTransactions())
	require.NoError(t, err)

	assert.Equal(t, "https://docs.google.com/spreadsheets/d/existing/edit#gid=5", url)
	assert.Empty(t, api.created)
	assert.Empty(t, api.formatted)
}

func TestWriter_ExportBatches(t *testing.T) {
	api := newFakeAPI()
	cfg := testConfig()
	cfg.BatchSize = 2

	_, err := newWriter(api, cfg, nil).Export(context.Background(), "42", sampleTransactions())
	require.NoError(t, err)

	require.Len(t, api.updates, 2)
	assert.Equal(t, "'user 42'!A1", api.updates[0].rng)
	assert.Len(t, api.updates[0].values, 2)
	assert.Equal(t, "'user 42'!A3", api.updates[1].rng)
	assert.Len(t, api.updates[1].values, 1)
}

func TestWriter_RetriesTransientErrors(t *testing.T) {
	api := newFakeAPI()
	api.failures["update"] = []error{
		&googleapi.Error{Code: http.StatusServiceUnavailable},
		&googleapi.Error{Code: http.StatusTooManyRequests},
	}
	cfg := testConfig()
	cfg.RetryAttempts = 3

	w := newWriter(api, cfg, nil)
	w.retryOpts.MaxDelay = time.Millisecond

	_, err := w.Export(context.Background(), "42", sampleTransactions())
	require.NoError(t, err)
	assert.Len(t, api.updates, 1)
}

func TestWriter_PermanentErrorsFailFast(t *testing.T) {
	api := newFakeAPI()
	api.failures["update"] = []error{&googleapi.Error{Code: http.StatusForbidden}}

	_, err := newWriter(api, testConfig(), nil).Export(context.Background(), "42", sampleTransactions())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write data")
	assert.Empty(t, api.failures["update"], "the forbidden error was consumed exactly once")
	assert.Empty(t, api.updates)
}

func TestWriter_FormattingFailureIsNotFatal(t *testing.T) {
	api := newFakeAPI()
	api.failures["format"] = []error{errors.New("bad request")}

	url, err := newWriter(api, testConfig(), nil).Export(context.Background(), "42", sampleTransactions())

	require.NoError(t, err)
	assert.NotEmpty(t, url)
	assert.Empty(t, api.formatted)
}

func TestClassifyAPIError(t *testing.T) {
	assert.True(t, common.IsRetryable(classifyAPIError(&googleapi.Error{Code: 500})))
	assert.True(t, common.IsRetryable(classifyAPIError(&googleapi.Error{Code: 429})))
	assert.False(t, common.IsRetryable(classifyAPIError(&googleapi.Error{Code: 404})))
	assert.False(t, common.IsRetryable(classifyAPIError(errors.New("plain"))))
	assert.NoError(t, classifyAPIError(nil))
}

func TestTabTitle(t *testing.T) {
	assert.Equal(t, "user 42", TabTitle("42"))
	assert.Equal(t, "user a_b_c_", TabTitle("a/b:c'"))
}

func TestMockWriter(t *testing.T) {
	m := NewMockWriter()

	url, err := m.Export(context.Background(), "42", sampleTransactions())
	require.NoError(t, err)
	assert.Equal(t, SheetURL("mock", 0), url)

	m.SetExportError(errors.New("quota"))
	_, err = m.Export(context.Background(), "42", nil)
	assert.EqualError(t, err, "quota")

	calls := m.GetExportCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "42", calls[0].UserID)
	assert.Len(t, calls[0].Transactions, 2)
	assert.Error(t, calls[1].Error)

	m.Reset()
	assert.Zero(t, m.ExportCallCount)
}
