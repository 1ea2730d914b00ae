package server_test

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/example/go-value-encoder/internal/server"
)

// capturingHandler captures all slog records during a test.
type capturingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (c *capturingHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }
func (c *capturingHandler) Handle(_ context.Context, r slog.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
	return nil
}
func (c *capturingHandler) WithAttrs(_ []slog.Attr) slog.Handler { return c }
func (c *capturingHandler) WithGroup(_ string) slog.Handler      { return c }

func (c *capturingHandler) attrMap(idx int) map[string]any {
	m := make(map[string]any)
	c.records[idx].Attrs(func(a slog.Attr) bool {
		m[a.Key] = a.Value.Any()
		return true
	})
	return m
}

func TestTransform_LogsOutcome(t *testing.T) {
	capture := &capturingHandler{}
	h := newTextHandler(t, server.WithLogger(slog.New(capture)))

	rec := postJSON(h, "/transform", `{"values":["ab","c"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	if len(capture.records) == 0 {
		t.Fatal("want at least one log record, got none")
	}

	attrs := capture.attrMap(len(capture.records) - 1)
	if attrs["values"] != int64(2) {
		t.Errorf("values attr = %v; want 2", attrs["values"])
	}

	if attrs["batch"] != true {
		t.Errorf("batch attr = %v; want true", attrs["batch"])
	}

	if attrs["dtype"] != "int8" {
		t.Errorf("dtype attr = %v; want int8", attrs["dtype"])
	}

	if _, ok := attrs["duration_ms"]; !ok {
		t.Error("no duration_ms attribute")
	}
}

func TestTransform_LogsErrorOnFailure(t *testing.T) {
	capture := &capturingHandler{}
	h := newTextHandler(t, server.WithLogger(slog.New(capture)))

	rec := postJSON(h, "/transform", `{"values":"xyz"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("want 422, got %d", rec.Code)
	}

	var foundError bool
	for i := range capture.records {
		if _, ok := capture.attrMap(i)["error"]; ok {
			foundError = true
		}
	}

	if !foundError {
		t.Error("want a log record with an 'error' attribute on transform failure")
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		level   string
		wantLvl slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}

	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			lvl, err := server.ParseLogLevel(tc.level)
			if err != nil {
				t.Fatalf("ParseLogLevel(%q) error: %v", tc.level, err)
			}

			if lvl != tc.wantLvl {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tc.level, lvl, tc.wantLvl)
			}
		})
	}
}

func TestParseLogLevel_InvalidLevelReturnsError(t *testing.T) {
	if _, err := server.ParseLogLevel("verbose"); err == nil {
		t.Error("want error for unknown log level")
	}
}
