package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}

func TestInitializeAndLog(t *testing.T) {
	require.NoError(t, Initialize("debug"))
	require.NotNil(t, GetLogger())

	// Context-carried fields must not panic regardless of what is present.
	ctx := context.WithValue(context.Background(), CorrelationIDKey, "cid-1")
	ctx = context.WithValue(ctx, RoomIDKey, "r1")
	Info(ctx, "test message")
	Debug(context.Background(), "no context fields")
}

func TestAppendContextFields(t *testing.T) {
	ctx := context.WithValue(context.Background(), PlayerIDKey, "p1")
	fields := appendContextFields(ctx, nil)

	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Key)
	}
	assert.Contains(t, names, "player_id")
	assert.Contains(t, names, "service")
}
