package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHandler captures log records as JSON lines.
type testHandler struct {
	buf   *bytes.Buffer
	level slog.Level
	attrs []slog.Attr
}

func newTestHandler() *testHandler {
	return &testHandler{
		buf:   &bytes.Buffer{},
		level: slog.LevelDebug,
	}
}

func (h *testHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *testHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	for _, attr := range h.attrs {
		data[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})
	return json.NewEncoder(h.buf).Encode(data)
}

func (h *testHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &testHandler{buf: h.buf, level: h.level, attrs: merged}
}

func (h *testHandler) WithGroup(_ string) slog.Handler {
	return h
}

func (h *testHandler) lastRecord() map[string]any {
	lines := bytes.Split(bytes.TrimSpace(h.buf.Bytes()), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		var m map[string]any
		if err := json.Unmarshal(lines[i], &m); err == nil {
			return m
		}
	}
	return nil
}

func TestRelationLogger(t *testing.T) {
	t.Run("adds relation and kind", func(t *testing.T) {
		h := newTestHandler()

		RelationLogger(slog.New(h), "colors", "many").Info("encoding")

		record := h.lastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "colors", record["relation"])
		assert.Equal(t, "many", record["relation_kind"])
		assert.Equal(t, "encoding", record["msg"])
	})

	t.Run("nil logger returns nil", func(t *testing.T) {
		assert.Nil(t, RelationLogger(nil, "colors", "many"))
	})
}

func TestLogRegistrySealed(t *testing.T) {
	h := newTestHandler()

	LogRegistrySealed(slog.New(h), "colors", 3, true)

	record := h.lastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "DEBUG", record["level"])
	assert.Equal(t, "registry sealed", record["msg"])
	assert.Equal(t, "colors", record["registry"])
	assert.Equal(t, float64(3), record["records"])
	assert.Equal(t, true, record["null_record"])

	assert.NotPanics(t, func() { LogRegistrySealed(nil, "colors", 3, false) })
}

func TestLogRelationBound(t *testing.T) {
	h := newTestHandler()

	LogRelationBound(slog.New(h), "color", "colors", "color_mask", "one")

	record := h.lastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "relation bound", record["msg"])
	assert.Equal(t, "color", record["relation"])
	assert.Equal(t, "colors", record["registry"])
	assert.Equal(t, "color_mask", record["slot"])
	assert.Equal(t, "one", record["relation_kind"])
}

func TestLogDroppedIDs(t *testing.T) {
	t.Run("logs dropped ids", func(t *testing.T) {
		h := newTestHandler()

		LogDroppedIDs(slog.New(h), "colors", []string{":zzz", `"bad"`})

		record := h.lastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "unknown ids dropped", record["msg"])
		assert.Equal(t, []any{":zzz", `"bad"`}, record["ids"])
	})

	t.Run("nothing dropped logs nothing", func(t *testing.T) {
		h := newTestHandler()

		LogDroppedIDs(slog.New(h), "colors", nil)
		assert.Empty(t, h.buf.String())
	})
}

func TestLogSetMiss(t *testing.T) {
	h := newTestHandler()

	LogSetMiss(slog.New(h), "color", ":purple")

	record := h.lastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "record not found", record["msg"])
	assert.Equal(t, ":purple", record["id"])
}

func TestLogQuery(t *testing.T) {
	t.Run("logs completed query", func(t *testing.T) {
		h := newTestHandler()

		LogQuery(slog.New(h), "sqlite", "colors_mask & ? != 0", 4, 1.5)

		record := h.lastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "store query completed", record["msg"])
		assert.Equal(t, "sqlite", record["backend"])
		assert.Equal(t, float64(4), record["rows"])
		assert.Equal(t, 1.5, record["duration_ms"])
	})

	t.Run("logs failure", func(t *testing.T) {
		h := newTestHandler()

		LogQueryError(slog.New(h), "memory", "save", errors.New("boom"))

		record := h.lastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "ERROR", record["level"])
		assert.Equal(t, "save", record["operation"])
		assert.Equal(t, "boom", record["error"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogQuery(nil, "sqlite", "", 0, 0)
			LogQueryError(nil, "sqlite", "load", errors.New("x"))
		})
	})
}

func TestLogRetry(t *testing.T) {
	h := newTestHandler()

	LogRetry(slog.New(h), "sqlite", "save", 2, errors.New("database is locked"))

	record := h.lastRecord()
	require.NotNil(t, record)
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "store operation retrying", record["msg"])
	assert.Equal(t, float64(2), record["attempt"])
	assert.Equal(t, "database is locked", record["error"])

	assert.NotPanics(t, func() { LogRetry(nil, "sqlite", "save", 1, errors.New("x")) })
}

func TestTimedOperation(t *testing.T) {
	done := TimedOperation()
	assert.GreaterOrEqual(t, done(), 0.0)
}
