package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/chat"
	"github.com/Veraticus/spice-ledger/internal/chat/telegram"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/conversation"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func clearSheetsEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN",
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
		"GOOGLE_SHEETS_SPREADSHEET_ID",
		"GOOGLE_SHEETS_SPREADSHEET_NAME",
	} {
		t.Setenv(key, "")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("LEDGER_TEST_DIR", "/srv/ledger")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "data", "ledger.db"), ExpandPath("~/data/ledger.db"))
	assert.Equal(t, "/srv/ledger/ledger.db", ExpandPath("$LEDGER_TEST_DIR/ledger.db"))
	assert.Equal(t, "/abs/path", ExpandPath("/abs/path"))
}

func TestDatabasePath(t *testing.T) {
	v := newViper()
	path, err := DatabasePath(v)
	require.NoError(t, err)
	assert.Equal(t, "ledger.db", filepath.Base(path))

	v.Set("database.path", "/tmp/custom.db")
	path, err = DatabasePath(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.db", path)
}

func TestLLM(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	t.Run("openai from config", func(t *testing.T) {
		v := newViper()
		v.Set("llm.openai_api_key", "sk-test")
		cfg, err := LLM(v)
		require.NoError(t, err)
		assert.Equal(t, "openai", cfg.Provider)
		assert.Equal(t, "sk-test", cfg.APIKey)
		assert.Equal(t, "gpt-4o-mini", cfg.Model)
		assert.Equal(t, 30*time.Second, cfg.Timeout)
		assert.Equal(t, 3, cfg.MaxRetries)
	})

	t.Run("openai from legacy env", func(t *testing.T) {
		t.Setenv("API_KEY", "sk-env")
		cfg, err := LLM(newViper())
		require.NoError(t, err)
		assert.Equal(t, "sk-env", cfg.APIKey)
	})

	t.Run("anthropic", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "ak")
		v := newViper()
		v.Set("llm.provider", "Anthropic")
		v.Set("llm.model", "claude-custom")
		cfg, err := LLM(v)
		require.NoError(t, err)
		assert.Equal(t, "anthropic", cfg.Provider)
		assert.Equal(t, "claude-custom", cfg.Model)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := LLM(newViper())
		assert.ErrorIs(t, err, common.ErrMissingConfig)
	})

	t.Run("unknown provider", func(t *testing.T) {
		v := newViper()
		v.Set("llm.provider", "ollama")
		_, err := LLM(v)
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
	})
}

func TestTelegram(t *testing.T) {
	t.Setenv("TG_API", "")

	_, err := Telegram(newViper())
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	t.Setenv("TG_API", "123:abc")
	cfg, err := Telegram(newViper())
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Token)
	assert.Equal(t, telegram.ModePolling, cfg.Mode)

	v := newViper()
	v.Set("telegram.token", "from-config")
	v.Set("telegram.mode", "WEBHOOK")
	v.Set("telegram.webhook_url", "https://bot.example.com/tg")
	v.Set("telegram.listen", ":8443")
	cfg, err = Telegram(v)
	require.NoError(t, err)
	assert.Equal(t, "from-config", cfg.Token)
	assert.Equal(t, telegram.ModeWebhook, cfg.Mode)
	assert.Empty(t, cfg.CertDir)

	t.Setenv("HOME", t.TempDir())
	v.Set("telegram.self_signed", true)
	cfg, err = Telegram(v)
	require.NoError(t, err)
	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "certs"), cfg.CertDir)

	v.Set("telegram.cert_dir", "/srv/ledger/certs")
	cfg, err = Telegram(v)
	require.NoError(t, err)
	assert.Equal(t, "/srv/ledger/certs", cfg.CertDir)
}

func TestWorkersAndSession(t *testing.T) {
	v := newViper()
	assert.Equal(t, chat.DefaultWorkers, Workers(v))
	v.Set("telegram.workers", 3)
	assert.Equal(t, 3, Workers(v))
	v.Set("telegram.workers", -1)
	assert.Equal(t, chat.DefaultWorkers, Workers(v))

	ttl, interval := Session(v)
	assert.Equal(t, conversation.DefaultIdleTTL, ttl)
	assert.Equal(t, time.Hour, interval)

	v.Set("session.idle_ttl", "2h")
	ttl, _ = Session(v)
	assert.Equal(t, 2*time.Hour, ttl)
}

func TestBroadcastAllowList(t *testing.T) {
	v := newViper()
	assert.Empty(t, BroadcastAllowList(v))

	v.Set("broadcast.allowed_users", []string{"1", " 2 "})
	assert.Equal(t, []string{"1", "2"}, BroadcastAllowList(v))

	v.Set("broadcast.allowed_users", "10,20, ,30")
	assert.Equal(t, []string{"10", "20", "30"}, BroadcastAllowList(v))
}

func TestSheets(t *testing.T) {
	clearSheetsEnv(t)

	cfg, err := Sheets(newViper())
	require.NoError(t, err)
	assert.Nil(t, cfg, "sheets are optional")

	v := newViper()
	v.Set("sheets.service_account_path", "/secrets/sa.json")
	v.Set("sheets.spreadsheet_name", "Family ledger")
	cfg, err = Sheets(v)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "/secrets/sa.json", cfg.ServiceAccountPath)
	assert.Equal(t, "Family ledger", cfg.SpreadsheetName)

	v.Set("sheets.client_id", "id")
	v.Set("sheets.client_secret", "secret")
	v.Set("sheets.refresh_token", "token")
	_, err = Sheets(v)
	assert.ErrorIs(t, err, common.ErrInvalidConfig, "two auth methods at once")
}
