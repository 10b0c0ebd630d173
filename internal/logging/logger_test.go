package logging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })
	return logs
}

func TestInitialize_SilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer SetLogger(nil)

	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be a no-op when no level is configured")
	}
}

func TestInitialize_FromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")

	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	defer SetLogger(nil)

	core := GetLogger().Core()
	if core.Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !core.Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled at warn level")
	}
}

func TestInitializeFile(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	path := filepath.Join(t.TempDir(), "sim.log")

	if err := InitializeFile("", FileOptions{Path: path}); err != nil {
		t.Fatalf("InitializeFile() error = %v", err)
	}
	defer SetLogger(nil)

	Info("Command received", zap.String("path", "/zrap/sys"))
	Debug("hidden")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `"msg":"Command received"`) {
		t.Errorf("log file = %s", data)
	}
	if strings.Contains(string(data), "hidden") {
		t.Error("debug entry written at default info level")
	}
}

func TestInitializeFile_EmptyPath(t *testing.T) {
	if err := InitializeFile("info", FileOptions{}); err == nil {
		t.Error("InitializeFile() should reject an empty path")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogConnection(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	LogConnection("10.0.0.5", "closed", zap.Int("code", 1000))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["address"] != "10.0.0.5" {
		t.Errorf("address = %v, want 10.0.0.5", fields["address"])
	}
	if fields["event"] != "closed" {
		t.Errorf("event = %v, want closed", fields["event"])
	}
	if fields["code"] != int64(1000) {
		t.Errorf("code = %v, want 1000", fields["code"])
	}
}

func TestLogDispatch(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	LogDispatch("POST", "http://10.0.0.5/zrap/sys", 200, []byte("OK"), nil)
	LogDispatch("POST", "http://10.0.0.5/zrap/sys", 0, nil, errors.New("connection refused"))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel {
		t.Errorf("success level = %v, want info", entries[0].Level)
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Errorf("failure level = %v, want warn", entries[1].Level)
	}
	if got := entries[1].ContextMap()["error"]; got != "connection refused" {
		t.Errorf("error field = %v, want connection refused", got)
	}
}

func TestLogWebSocketMessage_TextContent(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	LogWebSocketMessage("10.0.0.5", "received", 1, []byte(`{"eid1":{}}`))

	fields := logs.All()[0].ContextMap()
	if fields["content"] != `{"eid1":{}}` {
		t.Errorf("content = %v", fields["content"])
	}
	if fields["message_type"] != "text" {
		t.Errorf("message_type = %v, want text", fields["message_type"])
	}
	if _, ok := fields["hex_dump"]; ok {
		t.Error("text messages should not carry a hex dump below debug level")
	}
}

func TestTruncate(t *testing.T) {
	long := []byte(strings.Repeat("x", maxDumpBytes+10))
	got := truncate(long)
	if !strings.HasSuffix(got, "...") || len(got) != maxDumpBytes+3 {
		t.Errorf("truncate() length = %d, want %d", len(got), maxDumpBytes+3)
	}
}

func TestAsciiDump(t *testing.T) {
	if got := asciiDump([]byte{'a', 0x00, 'b', 0x7f}); got != "a.b." {
		t.Errorf("asciiDump() = %q, want %q", got, "a.b.")
	}
}
