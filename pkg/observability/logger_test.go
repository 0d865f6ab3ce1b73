package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithField("tenant_id", "t1").Info("robot status updated")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "robot status updated" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	if entry["tenant_id"] != "t1" {
		t.Errorf("expected tenant_id field, got %v", entry["tenant_id"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("expected level INFO, got %v", entry["level"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WarnLevel, &buf)

	logger.Info("should be dropped")
	if buf.Len() != 0 {
		t.Errorf("info message logged at warn level: %s", buf.String())
	}

	logger.Warn("should be logged")
	if buf.Len() == 0 {
		t.Error("warn message not logged at warn level")
	}
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	t.Run("nil error is a no-op", func(t *testing.T) {
		if got := logger.WithError(nil); got != logger {
			t.Error("expected same logger for nil error")
		}
	})

	t.Run("error becomes a field", func(t *testing.T) {
		logger.WithError(context.DeadlineExceeded).Error("store write failed")

		var entry map[string]interface{}
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if entry["error"] != context.DeadlineExceeded.Error() {
			t.Errorf("unexpected error field: %v", entry["error"])
		}
	})
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	ctx := WithLogger(context.Background(), logger)
	ctx = WithRequestID(ctx, "req-123")
	ctx = WithTenantID(ctx, "t1")
	ctx = WithSubject(ctx, "user-9")

	FromContext(ctx).Info("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["request_id"] != "req-123" {
		t.Errorf("missing request_id: %v", entry)
	}
	if entry["tenant_id"] != "t1" {
		t.Errorf("missing tenant_id: %v", entry)
	}
	if entry["subject"] != "user-9" {
		t.Errorf("missing subject: %v", entry)
	}
}

func TestGetLogger_DefaultWhenUnset(t *testing.T) {
	if GetLogger(context.Background()) == nil {
		t.Fatal("expected a fallback logger")
	}
	if GetRequestID(context.Background()) != "" {
		t.Error("expected empty request id on bare context")
	}
	if GetTenantID(context.Background()) != "" {
		t.Error("expected empty tenant id on bare context")
	}
}
