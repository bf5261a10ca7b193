package ssalog_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/loopjit/ssacore/internal/ssalog"
)

func TestNew_BuildsAtRequestedLevel(t *testing.T) {
	logger, err := ssalog.New(zapcore.DebugLevel)
	require.NoError(t, err)
	require.NotNil(t, logger)
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestComponent_AddsField(t *testing.T) {
	base, err := ssalog.New(zapcore.InfoLevel)
	require.NoError(t, err)

	scoped := ssalog.Component(base, "pipeline")
	require.NotNil(t, scoped)
	require.NotSame(t, base, scoped)
}
