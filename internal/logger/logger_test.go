package logger

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestLogger_RedactsCredentialKeys(t *testing.T) {
	log, logs := observed()

	log.Info("configured", "openai_api_key", "sk-secret", "Authorization", "Bearer x", "bucket", "adhook")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["openai_api_key"] != "[REDACTED]" {
		t.Errorf("openai_api_key = %v, want [REDACTED]", fields["openai_api_key"])
	}
	if fields["Authorization"] != "[REDACTED]" {
		t.Errorf("Authorization = %v, want [REDACTED]", fields["Authorization"])
	}
	if fields["bucket"] != "adhook" {
		t.Errorf("bucket = %v, want adhook", fields["bucket"])
	}
}

func TestLogger_TruncatesDataURLs(t *testing.T) {
	log, logs := observed()

	long := "data:image/png;base64," + strings.Repeat("A", 500)
	log.Debug("fetched", "url", long)

	got, _ := logs.All()[0].ContextMap()["url"].(string)
	if !strings.HasSuffix(got, "[truncated]") || len(got) >= len(long) {
		t.Errorf("url = %q, want truncated", got)
	}
}

func TestLogger_With(t *testing.T) {
	log, logs := observed()

	log.With("service", "store").Warn("slow")

	if logs.All()[0].ContextMap()["service"] != "store" {
		t.Errorf("With() field missing: %v", logs.All()[0].ContextMap())
	}
}

func TestSanitizeKVs_OddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Errorf("sanitizeKVs() = %v", out)
	}
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", ""},
		{"short", "*****"},
		{"sk-1234567890abcd", "sk-1*********abcd"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := MaskKey(tt.key); got != tt.want {
				t.Errorf("MaskKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}
