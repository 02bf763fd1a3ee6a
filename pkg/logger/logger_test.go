package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestGetLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		envLevel string
		want     zerolog.Level
	}{
		{"Debug level", "DEBUG", zerolog.DebugLevel},
		{"Info level", "INFO", zerolog.InfoLevel},
		{"Warn level", "WARN", zerolog.WarnLevel},
		{"Error level", "ERROR", zerolog.ErrorLevel},
		{"Empty defaults to Info", "", zerolog.InfoLevel},
		{"Invalid defaults to Info", "INVALID", zerolog.InfoLevel},
		{"Case insensitive", "debug", zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("LOG_LEVEL", tt.envLevel)
			defer os.Unsetenv("LOG_LEVEL")

			if got := getLogLevel(); got != tt.want {
				t.Errorf("getLogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name      string
		setLevel  zerolog.Level
		logFunc   func(string, string, ...interface{})
		wantLevel string
		shouldLog bool
	}{
		{"Debug logs when Debug", zerolog.DebugLevel, Debug, "debug", true},
		{"Debug doesn't log when Info", zerolog.InfoLevel, Debug, "", false},
		{"Info logs when Info", zerolog.InfoLevel, Info, "info", true},
		{"Info doesn't log when Error", zerolog.ErrorLevel, Info, "", false},
		{"Warn logs when Warn", zerolog.WarnLevel, Warn, "warn", true},
		{"Error always logs", zerolog.ErrorLevel, Error, "error", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			restore := SetOutput(&buf)
			defer restore()
			SetLevel(tt.setLevel)

			tt.logFunc("TEST", "message %d", 42)

			output := strings.TrimSpace(buf.String())
			if (output != "") != tt.shouldLog {
				t.Fatalf("Expected log output: %v, got output: %q", tt.shouldLog, output)
			}
			if !tt.shouldLog {
				return
			}

			var entry map[string]interface{}
			if err := json.Unmarshal([]byte(output), &entry); err != nil {
				t.Fatalf("Failed to decode log line %q: %v", output, err)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %v", entry["level"], tt.wantLevel)
			}
			if entry["namespace"] != "TEST" {
				t.Errorf("namespace = %v, want TEST", entry["namespace"])
			}
			if entry["message"] != "message 42" {
				t.Errorf("message = %v, want %q", entry["message"], "message 42")
			}
		})
	}
}
