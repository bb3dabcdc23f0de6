package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestWithContextAddsRequestAndUser(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, "user-1")
	log.WithContext(ctx).Info("hello")

	entry := decodeLine(t, &buf)
	if entry["request_id"] != "req-1" || entry["user_id"] != "user-1" {
		t.Fatalf("expected request and user ids, got %v", entry)
	}
}

func TestProductionDropsDebug(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("production", &buf).Debug("noise")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}

	NewWithWriter("development", &buf).Debug("noise")
	if !strings.Contains(buf.String(), "noise") {
		t.Fatalf("expected debug output in development, got %q", buf.String())
	}
}

func TestDistributionFailedFields(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("production", &buf).DistributionFailed("lead-1", "insurance", errors.New("rpc down"))

	entry := decodeLine(t, &buf)
	if entry["msg"] != "lead_distribution_failed" || entry["lead_id"] != "lead-1" || entry["error"] != "rpc down" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if entry["level"] != "WARN" {
		t.Fatalf("expected WARN, got %v", entry["level"])
	}
}
