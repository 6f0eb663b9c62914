package main

import (
	"log/slog"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"ERROR", slog.LevelError, false},
		{"", slog.LevelInfo, false},
		{"  info  ", slog.LevelInfo, false},
		{"verbose", 0, true},
	}
	for _, tc := range tests {
		got, err := parseLogLevel(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestSelectedLogLevel(t *testing.T) {
	tests := []struct {
		name       string
		flag       string
		env        string
		config     string
		wantLevel  string
		wantSource string
	}{
		{"flag wins", "debug", "info", "warn", "debug", "flag"},
		{"env next", "", "info", "warn", "info", "env"},
		{"config next", "", "", "warn", "warn", "config"},
		{"default", "", "", "", "", "default"},
		{"blank flag skipped", "  ", "error", "", "error", "env"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			level, source := selectedLogLevel(tc.flag, tc.env, tc.config)
			if level != tc.wantLevel || source != tc.wantSource {
				t.Errorf("expected (%q, %q), got (%q, %q)", tc.wantLevel, tc.wantSource, level, source)
			}
		})
	}
}
