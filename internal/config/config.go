package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/chat"
	"github.com/Veraticus/spice-ledger/internal/chat/telegram"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/conversation"
	"github.com/Veraticus/spice-ledger/internal/llm"
	"github.com/Veraticus/spice-ledger/internal/sheets"
)

// SetDefaults registers default values for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", time.Second)
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 500)
	v.SetDefault("telegram.mode", string(telegram.ModePolling))
	v.SetDefault("telegram.workers", chat.DefaultWorkers)
	v.SetDefault("session.idle_ttl", conversation.DefaultIdleTTL)
	v.SetDefault("session.prune_interval", time.Hour)
}

// DatabasePath returns database.path, defaulting to
// ~/.local/share/ledger/ledger.db.
func DatabasePath(v *viper.Viper) (string, error) {
	if p := v.GetString("database.path"); p != "" {
		return ExpandPath(p), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "ledger", "ledger.db"), nil
}

// LLM builds the oracle configuration. API keys fall back to the provider's
// conventional environment variable.
func LLM(v *viper.Viper) (llm.Config, error) {
	cfg := llm.Config{
		Provider:    strings.ToLower(v.GetString("llm.provider")),
		Model:       v.GetString("llm.model"),
		BaseURL:     v.GetString("llm.base_url"),
		Temperature: v.GetFloat64("llm.temperature"),
		MaxTokens:   v.GetInt("llm.max_tokens"),
		MaxRetries:  v.GetInt("llm.max_retries"),
		RetryDelay:  v.GetDuration("llm.retry_delay"),
		RateLimit:   v.GetInt("llm.rate_limit"),
		Timeout:     v.GetDuration("llm.timeout"),
	}

	switch cfg.Provider {
	case "openai":
		cfg.APIKey = firstNonEmpty(v.GetString("llm.openai_api_key"), os.Getenv("OPENAI_API_KEY"), os.Getenv("API_KEY"))
		if cfg.Model == "" {
			cfg.Model = "gpt-4o-mini"
		}
	case "anthropic":
		cfg.APIKey = firstNonEmpty(v.GetString("llm.anthropic_api_key"), os.Getenv("ANTHROPIC_API_KEY"))
		if cfg.Model == "" {
			cfg.Model = "claude-3-5-haiku-latest"
		}
	default:
		return llm.Config{}, fmt.Errorf("%w: unsupported llm.provider %q", common.ErrInvalidConfig, cfg.Provider)
	}

	if cfg.APIKey == "" {
		return llm.Config{}, fmt.Errorf("%w: no API key for provider %s", common.ErrMissingConfig, cfg.Provider)
	}
	return cfg, nil
}

// Telegram builds the Telegram adapter configuration. TG_API is accepted as
// a fallback for the token.
func Telegram(v *viper.Viper) (telegram.Config, error) {
	cfg := telegram.Config{
		Token:       firstNonEmpty(v.GetString("telegram.token"), os.Getenv("TG_API")),
		Mode:        telegram.Mode(strings.ToLower(v.GetString("telegram.mode"))),
		WebhookURL:  v.GetString("telegram.webhook_url"),
		Listen:      v.GetString("telegram.listen"),
		PollTimeout: v.GetInt("telegram.poll_timeout"),
	}
	if v.GetBool("telegram.self_signed") {
		cfg.CertDir = ExpandPath(v.GetString("telegram.cert_dir"))
		if cfg.CertDir == "" {
			dir, err := Dir()
			if err != nil {
				return telegram.Config{}, err
			}
			cfg.CertDir = filepath.Join(dir, "certs")
		}
	}
	if err := cfg.Validate(); err != nil {
		return telegram.Config{}, err
	}
	return cfg, nil
}

// Workers returns how many events the dispatcher handles at once.
func Workers(v *viper.Viper) int {
	if n := v.GetInt("telegram.workers"); n > 0 {
		return n
	}
	return chat.DefaultWorkers
}

// BroadcastAllowList returns the ids allowed to broadcast. Both a YAML list
// and a comma separated string are accepted.
func BroadcastAllowList(v *viper.Viper) []string {
	var ids []string
	for _, raw := range v.GetStringSlice("broadcast.allowed_users") {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// Sheets loads the Google Sheets configuration from sheets.* keys and the
// GOOGLE_SHEETS_* variables. It returns nil when no credentials are present.
func Sheets(v *viper.Viper) (*sheets.Config, error) {
	cfg := sheets.DefaultConfig()
	cfg.ServiceAccountPath = ExpandPath(v.GetString("sheets.service_account_path"))
	cfg.ClientID = v.GetString("sheets.client_id")
	cfg.ClientSecret = v.GetString("sheets.client_secret")
	cfg.RefreshToken = v.GetString("sheets.refresh_token")
	cfg.SpreadsheetID = v.GetString("sheets.spreadsheet_id")
	if name := v.GetString("sheets.spreadsheet_name"); name != "" {
		cfg.SpreadsheetName = name
	}

	_ = cfg.LoadFromEnv()
	if !cfg.Configured() {
		return nil, nil
	}
	cfg.ServiceAccountPath = ExpandPath(cfg.ServiceAccountPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// Session returns the idle TTL and prune interval of the session store.
func Session(v *viper.Viper) (idleTTL, pruneInterval time.Duration) {
	idleTTL = v.GetDuration("session.idle_ttl")
	if idleTTL <= 0 {
		idleTTL = conversation.DefaultIdleTTL
	}
	pruneInterval = v.GetDuration("session.prune_interval")
	if pruneInterval <= 0 {
		pruneInterval = time.Hour
	}
	return idleTTL, pruneInterval
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
