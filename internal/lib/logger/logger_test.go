package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/linemk/gamekeys-shop/internal/lib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger_Levels(t *testing.T) {
	ctx := context.Background()

	local := logger.SetupLogger(logger.EnvLocal)
	assert.True(t, local.Enabled(ctx, slog.LevelDebug), "local logger should log debug")

	dev := logger.SetupLogger(logger.EnvDev)
	assert.True(t, dev.Enabled(ctx, slog.LevelDebug), "dev logger should log debug")

	prod := logger.SetupLogger(logger.EnvProd)
	assert.False(t, prod.Enabled(ctx, slog.LevelDebug), "prod logger should skip debug")
	assert.True(t, prod.Enabled(ctx, slog.LevelInfo))

	unknown := logger.SetupLogger("something-else")
	assert.False(t, unknown.Enabled(ctx, slog.LevelDebug))
}

func TestNew_JSONCarriesAppAndEnv(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.EnvProd, &buf)

	log.Info("order paid", slog.String("order_id", "42"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "order paid", entry["msg"])
	assert.Equal(t, "gamekeys-shop", entry["app"])
	assert.Equal(t, "prod", entry["env"])
	assert.Equal(t, "42", entry["order_id"])
}

func TestNew_PrettyWritesMessage(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.EnvLocal, &buf)

	log.Warn("cart load dropped", slog.Int("seq", 3))

	assert.Contains(t, buf.String(), "cart load dropped")
	assert.Contains(t, buf.String(), `"seq": 3`)
}
