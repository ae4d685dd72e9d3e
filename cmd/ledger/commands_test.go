package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateRangeArg(t *testing.T) {
	assert.Equal(t, "2024-01-01 - 2024-01-31", dateRangeArg([]string{"2024-01-01", " 2024-01-31"}))
	assert.Equal(t, "2024-01-01 - 2024-01-31", dateRangeArg([]string{"2024-01-01 - 2024-01-31"}))
}

func TestExpandFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.ofx", "b.ofx", "c.qfx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600))
	}

	files, err := expandFiles([]string{filepath.Join(dir, "*.ofx"), filepath.Join(dir, "c.qfx")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.ofx"),
		filepath.Join(dir, "b.ofx"),
		filepath.Join(dir, "c.qfx"),
	}, files)

	_, err = expandFiles([]string{filepath.Join(dir, "*.csv")})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Café Ce…", truncate("Café Central", 8))
}

func TestRequireUser(t *testing.T) {
	cmd := exportCmd()
	_, err := requireUser(cmd)
	assert.Error(t, err)

	require.NoError(t, cmd.Flags().Set("user", " 42 "))
	user, err := requireUser(cmd)
	require.NoError(t, err)
	assert.Equal(t, "42", user)
}
