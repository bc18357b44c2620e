package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	require.Equal(t, 8, cfg.PageBatchSize)
	require.Equal(t, 15*time.Second, cfg.HeaderTimeout)
	require.Equal(t, "https://www.ratemyprofessors.com", cfg.ListingBaseURL)
	require.True(t, cfg.Headless)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PAGE_BATCH_SIZE=20\nBUTTON_TIMEOUT=2s\nSERVER_PORT=9000\n"), 0o600))
	t.Setenv("SERVER_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 20, cfg.PageBatchSize)
	require.Equal(t, 2*time.Second, cfg.ButtonTimeout)
	require.Equal(t, "9100", cfg.ServerPort)
}

func TestLoadRejectsZeroBatchSize(t *testing.T) {
	t.Setenv("PAGE_BATCH_SIZE", "0")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}
