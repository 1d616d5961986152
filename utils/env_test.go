package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_LocalFileWins(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CODEBRO_TEST_KEY=from-env\nCODEBRO_TEST_ONLY_ENV=yes\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("CODEBRO_TEST_KEY=from-local\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("CODEBRO_TEST_KEY")
		os.Unsetenv("CODEBRO_TEST_ONLY_ENV")
	})

	require.NoError(t, LoadEnv(dir))

	assert.Equal(t, "from-local", os.Getenv("CODEBRO_TEST_KEY"))
	assert.Equal(t, "yes", os.Getenv("CODEBRO_TEST_ONLY_ENV"))
}

func TestLoadEnv_NoFiles(t *testing.T) {
	assert.NoError(t, LoadEnv(t.TempDir()))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(false, "")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))

	logPath := filepath.Join(t.TempDir(), "logs", "codebro.log")
	logger, err = NewLogger(true, logPath)
	require.NoError(t, err)

	logger.Debug("scan started")
	_ = logger.Sync()

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"scan started"`)
}
