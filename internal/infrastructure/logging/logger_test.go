package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "textwarden.log")
	cfg := DefaultConfig()
	cfg.File = path

	logger, err := New(cfg)
	require.NoError(t, err)
	logger.Info("analysis finished", zap.Int("issues", 2))
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"analysis finished"`)
	assert.Contains(t, string(data), `"issues":2`)
}

func TestWrapAndNamed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := Wrap(zap.New(core)).Named("watcher").With(zap.String("field", "f1"))

	logger.Debug("scheduled")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "watcher", entries[0].LoggerName)
	assert.Equal(t, "f1", entries[0].ContextMap()["field"])
}

func TestWrapNil(t *testing.T) {
	assert.NotNil(t, Wrap(nil).Logger)
	assert.NoError(t, NewNop().Close())
}
