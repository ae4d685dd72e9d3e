package tui

import (
	"github.com/Veraticus/spice-ledger/internal/tui/themes"
)

// Config holds console configuration.
type Config struct {
	Theme       themes.Theme
	UserID      string
	DownloadDir string
	Width       int
	Height      int
}

// Option is a functional option for configuring the console.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:       themes.Default,
		UserID:      "1",
		DownloadDir: ".",
		Width:       80,
		Height:      24,
	}
}

// WithUserID sets the chat user the console speaks as.
func WithUserID(id string) Option {
	return func(c *Config) {
		c.UserID = id
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithDownloadDir sets where received documents are written.
func WithDownloadDir(dir string) Option {
	return func(c *Config) {
		c.DownloadDir = dir
	}
}
