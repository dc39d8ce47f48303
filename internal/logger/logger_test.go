package logger

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevelParsing(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, NewLogger("server", "debug").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewLogger("server", "nonsense").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewLogger("server", "").GetLevel())
}

func TestContextRoundTrip(t *testing.T) {
	l := Nop()
	ctx := l.WithContext(context.Background())

	got := FromContext(ctx)
	require.NotNil(t, got)
	assert.Same(t, l, got)
}

func TestFromContextWithoutLoggerFallsBackToNop(t *testing.T) {
	got := FromContext(context.Background())
	require.NotNil(t, got)
	assert.Equal(t, zerolog.Disabled, got.GetLevel())
}
