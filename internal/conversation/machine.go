package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/export"
	"github.com/Veraticus/spice-ledger/internal/filter"
	"github.com/Veraticus/spice-ledger/internal/llm"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/report"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// Oracle is the language-model boundary the flows depend on.
type Oracle interface {
	IsFinancial(ctx context.Context, message string) (bool, error)
	ExtractCurrency(ctx context.Context, message string) (string, error)
	ExtractTransaction(ctx context.Context, req llm.ExtractionRequest) (llm.Extraction, error)
	ReformatEdit(ctx context.Context, snapshot model.Snapshot, message string) (string, error)
	Summarize(ctx context.Context, message string, txn model.Transaction) (string, error)
}

// Sender delivers a message to a user outside of a reply, as broadcast does.
type Sender interface {
	Send(ctx context.Context, userID string, msg Message) error
}

// SheetsExporter writes a user's transactions to a spreadsheet and returns its URL.
type SheetsExporter interface {
	Export(ctx context.Context, userID string, txns []model.Transaction) (string, error)
}

// Config holds the optional collaborators and settings of a Machine.
type Config struct {
	Now                func() time.Time
	Logger             *slog.Logger
	Sessions           *SessionStore
	Sheets             SheetsExporter
	BroadcastAllowList []string
}

// handlerFunc handles one event and names the single successor state.
type handlerFunc func(ctx context.Context, t *turn) (Reply, State)

// turn is the per-event context handed to handlers.
type turn struct {
	session *Session
	log     *slog.Logger
	event   Event
}

func (t *turn) userID() string { return t.session.UserID }

// Machine is the conversation state machine.
type Machine struct {
	store    service.Storage
	oracle   Oracle
	sender   Sender
	sheets   SheetsExporter
	sessions *SessionStore
	queries  *filter.Builder
	reports  *report.Service
	now      func() time.Time
	logger   *slog.Logger
	allowed  map[string]struct{}
	commands map[string]handlerFunc
	buttons  map[string]handlerFunc
	texts    map[State]handlerFunc
}

// New creates a state machine over store, oracle and sender.
func New(store service.Storage, oracle Oracle, sender Sender, cfg Config) *Machine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Sessions == nil {
		cfg.Sessions = NewSessionStore(DefaultIdleTTL, cfg.Logger)
	}

	m := &Machine{
		store:    store,
		oracle:   oracle,
		sender:   sender,
		sheets:   cfg.Sheets,
		sessions: cfg.Sessions,
		queries:  filter.NewBuilder(store),
		reports:  report.NewService(store),
		now:      cfg.Now,
		logger:   cfg.Logger,
		allowed:  make(map[string]struct{}, len(cfg.BroadcastAllowList)),
	}
	for _, id := range cfg.BroadcastAllowList {
		m.allowed[strings.TrimSpace(id)] = struct{}{}
	}

	m.commands = map[string]handlerFunc{
		"start":     m.cmdStart,
		"category":  m.cmdCategory,
		"currency":  m.cmdCurrency,
		"edit":      m.cmdEdit,
		"report":    m.cmdReport,
		"export":    m.cmdExport,
		"normal":    m.cmdNormal,
		"addtolist": m.cmdAddToList,
		"broadcast": m.cmdBroadcast,
		"help":      m.cmdHelp,
	}

	m.buttons = map[string]handlerFunc{
		buttonAddCategory:        m.btnAddCategory,
		buttonDeleteCategory:     m.btnDeleteCategory,
		buttonEditCategory:       m.btnEditCategory,
		buttonChangeCurrency:     m.btnChangeCurrency,
		buttonGoBack:             m.btnGoBack,
		buttonEditTransaction:    m.btnEditTransaction,
		buttonDeleteTransaction:  m.btnDeleteTransaction,
		buttonBackToTransactions: m.btnBackToTransactions,
	}
	for _, f := range export.Formats {
		m.buttons[string(f)] = m.exportHandler(f)
	}
	if m.sheets != nil {
		m.buttons[buttonSheets] = m.btnSheets
	}

	m.texts = map[State]handlerFunc{
		StateNormal:                     m.classify,
		StateAddToList:                  m.addToList,
		StateAddCategory:                m.addCategory,
		StateDeleteCategory:             m.deleteCategory,
		StateEditCategory:               m.editCategory,
		StateEditCategoryName:           m.editCategoryName,
		StateEditFilterInput:            m.filterTransactions,
		StateAwaitingNewTransactionData: m.submitEdit,
		StateExportFormatChosen:         m.exportInProgress,
		StateReportDateRangeInput:       m.generateReport,
		StateSetDefaultCurrency:         m.setDefaultCurrency,
		StateAwaitingBroadcastMessage:   m.broadcastMessage,
	}

	return m
}

// Sessions exposes the session store, for housekeeping.
func (m *Machine) Sessions() *SessionStore {
	return m.sessions
}

// Handle processes one event to completion under the user's session lock and
// returns the reply. Errors never escape; they become reply text.
func (m *Machine) Handle(ctx context.Context, ev Event) (reply Reply) {
	logger := m.logger.With(
		"correlation_id", uuid.NewString(),
		"user_id", ev.UserID,
		"event", ev.Kind.String(),
	)

	session, unlock := m.sessions.Lock(ev.UserID)
	defer unlock()

	before := session.State
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Handler panicked", "panic", r, "state", session.State)
			session.Reset()
			reply = textReply(msgFailure)
		}
		logger.Info("Handled event",
			"state_before", before.String(),
			"state_after", session.State.String())
	}()

	handler := m.route(session, ev)
	reply, next := handler(ctx, &turn{session: session, event: ev, log: logger})
	session.transition(next)
	return reply
}

// route picks the handler: buttons by id, then commands, then the current
// state's text handler.
func (m *Machine) route(session *Session, ev Event) handlerFunc {
	if ev.Kind == EventButton {
		if strings.HasPrefix(ev.CallbackID, transactionButtonPrefix) {
			return m.selectTransaction
		}
		if h, ok := m.buttons[ev.CallbackID]; ok {
			return h
		}
		return m.unknownButton
	}

	if name, ok := ev.Command(); ok {
		if h, ok := m.commands[name]; ok {
			return h
		}
		return m.cmdUnknown
	}

	if h, ok := m.texts[session.State]; ok {
		return h
	}
	return m.classify
}

func (m *Machine) unknownButton(_ context.Context, t *turn) (Reply, State) {
	t.log.Warn("Unknown button", "callback_id", t.event.CallbackID)
	return textReply(msgDetailsNotFound), StateNormal
}

// failure converts err into reply text and logs it.
func (m *Machine) failure(t *turn, op string, err error) Reply {
	switch {
	case errors.Is(err, common.ErrOracleUnavailable), errors.Is(err, context.DeadlineExceeded):
		t.log.Warn("Oracle unavailable", "operation", op, "error", err)
		return textReply(msgOracleUnavailable)
	case errors.Is(err, common.ErrOracleContract):
		t.log.Warn("Oracle contract violation", "operation", op, "error", err)
		return textReply(msgOracleContract)
	default:
		t.log.Error("Operation failed", "operation", op, "error", err)
		return textReply(common.UserMessage(err, msgFailure))
	}
}

func (m *Machine) user(ctx context.Context, t *turn) (*model.User, error) {
	user, err := m.store.EnsureUser(ctx, t.userID())
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}
