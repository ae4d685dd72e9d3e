package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// MockWriter is an in-memory stand-in for Writer in tests.
type MockWriter struct {
	ExportFunc      func(ctx context.Context, userID string, txns []model.Transaction) (string, error)
	ExportCalls     []ExportCall
	ExportCallCount int
	mu              sync.Mutex
}

// ExportCall records a single call to Export.
type ExportCall struct {
	Error        error
	UserID       string
	Transactions []model.Transaction
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		ExportCalls: make([]ExportCall, 0),
	}
}

// Export records the call and returns ExportFunc's result, or a fixed URL.
func (m *MockWriter) Export(ctx context.Context, userID string, txns []model.Transaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ExportCallCount++

	url := SheetURL("mock", 0)
	var err error
	if m.ExportFunc != nil {
		url, err = m.ExportFunc(ctx, userID, txns)
	}

	m.ExportCalls = append(m.ExportCalls, ExportCall{
		UserID:       userID,
		Transactions: txns,
		Error:        err,
	})

	return url, err
}

// Reset clears all recorded calls.
func (m *MockWriter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ExportCallCount = 0
	m.ExportCalls = make([]ExportCall, 0)
}

// GetExportCalls returns a copy of all export calls.
func (m *MockWriter) GetExportCalls() []ExportCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]ExportCall, len(m.ExportCalls))
	copy(calls, m.ExportCalls)
	return calls
}

// SetExportError configures the mock to fail every Export call with err.
func (m *MockWriter) SetExportError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ExportFunc = func(context.Context, string, []model.Transaction) (string, error) {
		return "", err
	}
}
