package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newBufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{
		Level:     slog.LevelDebug,
		Component: component,
		Output:    buf,
	})
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentWorker)

	logger.Info("Successfully processed job", FieldRecordID, 7)
	logger.WithComponent(ComponentAMQP).Warn("Reconnecting")

	out := buf.String()
	if !strings.Contains(out, "component=worker") || !strings.Contains(out, "record_id=7") {
		t.Errorf("missing worker fields: %q", out)
	}
	if !strings.Contains(out, "component=amqp") {
		t.Errorf("WithComponent did not switch component: %q", out)
	}
	if strings.Count(out, "component=") != 2 {
		t.Errorf("component logged more than once per record: %q", out)
	}
}

func TestLevelFor(t *testing.T) {
	if LevelFor(true) != slog.LevelDebug || LevelFor(false) != slog.LevelInfo {
		t.Fatal("unexpected level mapping")
	}

	var buf bytes.Buffer
	logger := New(Config{Level: LevelFor(false), Output: &buf})
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug record written at info level: %q", buf.String())
	}
}

func TestMiddlewareChainEnrichesContextLogger(t *testing.T) {
	var buf bytes.Buffer
	base := newBufferLogger(&buf, ComponentApp)

	var got *Logger
	handler := Middleware(base)(
		ComponentMiddleware(ComponentHTTP)(
			RequestIDMiddleware(func(*http.Request) string { return "req_abc" })(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					got = FromContext(r.Context())
					got.InfoContext(r.Context(), "inside handler")
				}),
			),
		),
	)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/goals", nil))

	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("expected http component logger, got %+v", got)
	}
	out := buf.String()
	if !strings.Contains(out, "request_id=req_abc") || !strings.Contains(out, "component=http") {
		t.Errorf("context logger missing fields: %q", out)
	}
}

func TestFromContextDefault(t *testing.T) {
	logger := FromContext(context.Background())
	if logger == nil || logger.Component() != ComponentApp {
		t.Fatalf("unexpected default logger: %+v", logger)
	}
}

func TestStructuredLogger(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
	}{
		{"success logs info", http.StatusOK, "level=INFO"},
		{"client error logs warn", http.StatusNotFound, "level=WARN"},
		{"server error logs error", http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			sl := NewStructuredLogger(newBufferLogger(&buf, ComponentTrace))
			r := httptest.NewRequest(http.MethodGet, "/api/reports?x=1", nil)

			sl.LogHTTPEnd(context.Background(), r, "req_1", tt.status, 15*time.Millisecond, "10.0.0.1")

			out := buf.String()
			if !strings.Contains(out, tt.level) {
				t.Errorf("expected %s in %q", tt.level, out)
			}
			if !strings.Contains(out, "duration_ms=15") || !strings.Contains(out, "request_id=req_1") {
				t.Errorf("missing response fields: %q", out)
			}
		})
	}

	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf, ComponentTransaction))
	sl.LogError(context.Background(), "Failed to save transaction", errors.New("disk full"), OpCreate,
		NewFields().WithTransaction("expense", "food", "12.50"))
	out := buf.String()
	for _, want := range []string{"error=\"disk full\"", "operation=create", "amount=12.50", "category=food"} {
		if !strings.Contains(out, want) {
			t.Errorf("LogError output missing %s: %q", want, out)
		}
	}
}
