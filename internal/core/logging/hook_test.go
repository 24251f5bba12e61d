package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logWith(t *testing.T, ctx context.Context) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Hook(ContextHook{})
	logger.Info().Ctx(ctx).Msg("iteration finished")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestContextHook_SessionAndIteration(t *testing.T) {
	ctx := WithIteration(WithSessionID(context.Background(), "0b6f"), 3)

	entry := logWith(t, ctx)
	assert.Equal(t, "0b6f", entry["session_id"])
	assert.InDelta(t, 3, entry["iteration"], 0)
}

func TestContextHook_BeforeFirstIteration(t *testing.T) {
	entry := logWith(t, WithSessionID(context.Background(), "0b6f"))

	assert.Equal(t, "0b6f", entry["session_id"])
	assert.NotContains(t, entry, "iteration")
}

func TestContextHook_PlainContext(t *testing.T) {
	entry := logWith(t, context.Background())

	assert.NotContains(t, entry, "session_id")
	assert.NotContains(t, entry, "iteration")
}
