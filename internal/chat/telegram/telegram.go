// Package telegram adapts the Telegram Bot API to the chat Platform.
package telegram

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Veraticus/spice-ledger/internal/certs"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/conversation"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// Mode selects how updates are received.
type Mode string

// Update modes.
const (
	ModePolling Mode = "polling"
	ModeWebhook Mode = "webhook"
)

const (
	defaultPollTimeout = 60
	defaultWebhookPath = "/telegram/webhook"
	maxMessageLength   = 4096
)

// Config configures the Telegram adapter.
type Config struct {
	Token       string
	Mode        Mode
	WebhookURL  string
	Listen      string
	// CertDir holds a self-signed certificate for the webhook host. When
	// set, the listener serves TLS and the certificate is uploaded to
	// Telegram with the webhook.
	CertDir     string
	PollTimeout int
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("%w: telegram.token is required", common.ErrInvalidConfig)
	}
	switch c.Mode {
	case "", ModePolling:
	case ModeWebhook:
		if c.WebhookURL == "" {
			return fmt.Errorf("%w: telegram.webhook_url is required in webhook mode", common.ErrInvalidConfig)
		}
		if c.Listen == "" {
			return fmt.Errorf("%w: telegram.listen is required in webhook mode", common.ErrInvalidConfig)
		}
		if c.CertDir != "" {
			if u, err := url.Parse(c.WebhookURL); err != nil || u.Scheme != "https" || u.Hostname() == "" {
				return fmt.Errorf("%w: a self-signed webhook needs an https telegram.webhook_url", common.ErrInvalidConfig)
			}
		}
	default:
		return fmt.Errorf("%w: unknown telegram.mode %q", common.ErrInvalidConfig, c.Mode)
	}
	return nil
}

// botAPI is the subset of tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

// certificateSource supplies the webhook certificate.
type certificateSource interface {
	GetOrCreateCertificate() (tls.Certificate, error)
}

// Adapter is a chat.Platform backed by a Telegram bot.
type Adapter struct {
	api     botAPI
	certs   certificateSource
	logger  *slog.Logger
	webhook chan tgbotapi.Update
	cfg     Config
	retry   service.RetryOptions
}

// New connects to the Bot API with the configured token.
func New(cfg Config, logger *slog.Logger) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connected to telegram", "bot", api.Self.UserName, "mode", string(cfg.mode()))

	a := newAdapter(api, cfg, logger)
	if cfg.mode() == ModeWebhook && cfg.CertDir != "" {
		host, err := cfg.webhookHost()
		if err != nil {
			return nil, err
		}
		a.certs = certs.NewFileManager(cfg.CertDir, host)
	}
	return a, nil
}

func newAdapter(api botAPI, cfg Config, logger *slog.Logger) *Adapter {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = defaultPollTimeout
	}
	return &Adapter{
		api:     api,
		cfg:     cfg,
		logger:  logger,
		webhook: make(chan tgbotapi.Update, 100),
		retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     30 * time.Second,
			Multiplier:   2,
		},
	}
}

// webhookHost is the host the webhook certificate is issued for.
func (c Config) webhookHost() (string, error) {
	u, err := url.Parse(c.WebhookURL)
	if err != nil {
		return "", fmt.Errorf("%w: telegram.webhook_url: %w", common.ErrInvalidConfig, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: telegram.webhook_url %q has no host", common.ErrInvalidConfig, c.WebhookURL)
	}
	return u.Hostname(), nil
}

func (c Config) mode() Mode {
	if c.Mode == "" {
		return ModePolling
	}
	return c.Mode
}

// Updates starts receiving updates and converts them to conversation events.
// Button presses are acknowledged as they arrive.
func (a *Adapter) Updates(ctx context.Context) (<-chan conversation.Event, error) {
	var source <-chan tgbotapi.Update

	switch a.cfg.mode() {
	case ModeWebhook:
		wh, err := a.webhookConfig()
		if err != nil {
			return nil, err
		}
		if _, err := a.api.Request(wh); err != nil {
			return nil, fmt.Errorf("failed to register webhook: %w", err)
		}
		source = a.webhook
	default:
		// A leftover webhook makes getUpdates fail.
		if _, err := a.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			return nil, fmt.Errorf("failed to remove webhook: %w", err)
		}
		u := tgbotapi.NewUpdate(0)
		u.Timeout = a.cfg.PollTimeout
		source = a.api.GetUpdatesChan(u)
	}

	out := make(chan conversation.Event)
	go func() {
		defer close(out)
		defer func() {
			if a.cfg.mode() == ModePolling {
				a.api.StopReceivingUpdates()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-source:
				if !ok {
					return
				}
				ev, ok := a.toEvent(update)
				if !ok {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// webhookConfig builds the setWebhook request, attaching the self-signed
// certificate when one is managed.
func (a *Adapter) webhookConfig() (tgbotapi.WebhookConfig, error) {
	if a.certs == nil {
		wh, err := tgbotapi.NewWebhook(a.cfg.WebhookURL)
		if err != nil {
			return tgbotapi.WebhookConfig{}, fmt.Errorf("invalid webhook url: %w", err)
		}
		return wh, nil
	}

	cert, err := a.certs.GetOrCreateCertificate()
	if err != nil {
		return tgbotapi.WebhookConfig{}, fmt.Errorf("failed to load webhook certificate: %w", err)
	}
	encoded, err := certs.PEM(cert)
	if err != nil {
		return tgbotapi.WebhookConfig{}, err
	}
	wh, err := tgbotapi.NewWebhookWithCert(a.cfg.WebhookURL, tgbotapi.FileBytes{Name: "webhook.pem", Bytes: encoded})
	if err != nil {
		return tgbotapi.WebhookConfig{}, fmt.Errorf("invalid webhook url: %w", err)
	}
	return wh, nil
}

func (a *Adapter) toEvent(update tgbotapi.Update) (conversation.Event, bool) {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		cb := update.CallbackQuery
		if _, err := a.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			a.logger.Warn("failed to answer callback", "callback_id", cb.ID, "error", err)
		}
		return conversation.ButtonPress(userKey(cb.From.ID), cb.Data), true

	case update.Message != nil && update.Message.From != nil && update.Message.Text != "":
		return conversation.TextMessage(userKey(update.Message.From.ID), update.Message.Text), true
	}

	a.logger.Debug("ignoring update", "update_id", update.UpdateID)
	return conversation.Event{}, false
}

// Send delivers msg to a user's private chat. Long texts are split across
// several messages; buttons and documents ride on the last one.
func (a *Adapter) Send(ctx context.Context, userID string, msg conversation.Message) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram user id %q: %w", userID, err)
	}

	chunks := splitText(msg.Text, maxMessageLength)
	if msg.Document != nil {
		// The caption limit is far below the message limit; send the text first.
		for _, chunk := range chunks {
			if err := a.send(ctx, tgbotapi.NewMessage(chatID, chunk)); err != nil {
				return err
			}
		}
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
			Name:  msg.Document.Name,
			Bytes: msg.Document.Data,
		})
		if len(msg.Buttons) > 0 {
			doc.ReplyMarkup = keyboard(msg.Buttons)
		}
		return a.send(ctx, doc)
	}

	if len(chunks) == 0 {
		if len(msg.Buttons) == 0 {
			return nil
		}
		chunks = []string{"..."}
	}
	for i, chunk := range chunks {
		out := tgbotapi.NewMessage(chatID, chunk)
		if i == len(chunks)-1 && len(msg.Buttons) > 0 {
			out.ReplyMarkup = keyboard(msg.Buttons)
		}
		if err := a.send(ctx, out); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) send(ctx context.Context, c tgbotapi.Chattable) error {
	return common.WithRetry(ctx, func() error {
		_, err := a.api.Send(c)
		if err == nil {
			return nil
		}
		var tgErr *tgbotapi.Error
		if errors.As(err, &tgErr) && tgErr.RetryAfter > 0 {
			return &common.RateLimitError{RetryAfter: time.Duration(tgErr.RetryAfter) * time.Second}
		}
		return fmt.Errorf("telegram send failed: %w", err)
	}, a.retry)
}

// keyboard lays buttons out one per row.
func keyboard(buttons []conversation.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.Label, b.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// splitText cuts text into chunks of at most limit runes, preferring line
// breaks as cut points.
func splitText(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}
	return append(chunks, string(runes))
}

func userKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
