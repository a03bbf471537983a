package logger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"stockflow/internal/pkg/logger"
)

func TestZapLogger_FieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.FromZap(zap.New(core))

	log.Debug("buscando produto", map[string]interface{}{"product_id": "p1"})
	log.Warn("estoque baixo", map[string]interface{}{"quantity": 3, "min_stock": 5})
	log.Error("falha no DB", errors.New("conn reset"))

	entries := logs.AllUntimed()
	assert.Len(t, entries, 3)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "p1", entries[0].ContextMap()["product_id"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.EqualValues(t, 3, entries[1].ContextMap()["quantity"])

	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "conn reset", entries[2].ContextMap()["error"])
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	log := logger.NewLogger("error", "production")
	assert.NotNil(t, log)

	// Não deve entrar em pânico com campos nulos.
	log.Info("ignorado", nil)
	logger.NewNop().Info("nop", map[string]interface{}{"k": "v"})
}
