package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xiebiao/bookshop/internal/infrastructure/config"
)

func TestNew_JSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := New(config.LogConfig{Level: "warn", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Info("不应输出")
	logger.Warn("库存不足", zap.Uint("book_id", 7))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.NotContains(t, content, "不应输出")
	assert.Contains(t, content, `"message":"库存不足"`)
	assert.Contains(t, content, `"book_id":7`)
	assert.Equal(t, 1, strings.Count(content, "\n"))
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	logger, err := New(config.LogConfig{Level: "verbose", Output: "stderr"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNamed_NilLogger(t *testing.T) {
	assert.NotNil(t, Named(nil, "order"))
}
