package common_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ingredient-extractor/internal/pkg/common"
)

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, common.Clamp01(-0.2))
	assert.Equal(t, 0.0, common.Clamp01(math.NaN()))
	assert.Equal(t, 0.4, common.Clamp01(0.4))
	assert.Equal(t, 1.0, common.Clamp01(3))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.33, common.Round2(1.0/3))
	assert.Equal(t, 1.5, common.Round2(1.499999))
	assert.Equal(t, 2.0, common.Round2(2))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", common.TruncateString("abc", 5))
	assert.Equal(t, "ab...", common.TruncateString("abcdef", 2))
	assert.Equal(t, "食材...", common.TruncateString("食材擷取", 2))
	assert.Equal(t, "abc", common.TruncateString("abc", 0))
}

func TestErrors(t *testing.T) {
	wrapped := fmt.Errorf("stage: %w", common.ErrLLMDisabled)
	assert.ErrorIs(t, wrapped, common.ErrLLMDisabled)

	cause := errors.New("connection refused")
	err := common.NewError(common.ErrCodeAIService, "AI 服務錯誤", 503, cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "AI 服務錯誤: connection refused", err.Error())

	assert.True(t, common.IsValidationError(common.NewValidationError("bad")))
	assert.False(t, common.IsValidationError(cause))

	pe := common.NewParseError("invalid JSON object", "{", cause)
	assert.True(t, common.IsParseError(fmt.Errorf("wrap: %w", pe)))
	assert.ErrorIs(t, pe, cause)
}

func TestLogger_TruncatesVerboseFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	common.SetLogger(zap.New(core))
	defer common.SetLogger(nil)

	long := make([]byte, 800)
	for i := range long {
		long[i] = 'x'
	}
	common.LogDebug("Sending request", zap.String("prompt", string(long)), zap.String("model", string(long)))

	entries := logs.All()
	assert.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Len(t, fields["prompt"], 503)
	assert.Len(t, fields["model"], 800)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, common.ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, common.ParseLevel("warning"))
	assert.Equal(t, zapcore.InfoLevel, common.ParseLevel("loud"))
}
