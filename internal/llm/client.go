package llm

import (
	"context"
	"time"
)

// Client sends one system+user prompt pair to a provider and returns the raw
// completion text.
type Client interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Config holds provider and call settings.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxRetries  int
	RetryDelay  time.Duration
	Timeout     time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
}
