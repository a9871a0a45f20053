package cliconfig

import (
	"testing"
	"time"
)

func TestParseArgsDefaults(t *testing.T) {
	cfg, err := ParseArgs(nil)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if cfg.LogLevel != "info" || cfg.Headless || cfg.Loop || cfg.TempoFactor != 1.0 || cfg.Timeout != 0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestParseArgsFilePath(t *testing.T) {
	cfg, err := ParseArgs([]string{"--loop", "--tempo", "1.5", "song.mid"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if cfg.MidiPath != "song.mid" {
		t.Fatalf("expected MidiPath song.mid, got %q", cfg.MidiPath)
	}
	if !cfg.Loop {
		t.Fatalf("expected Loop to be true")
	}
	if cfg.TempoFactor != 1.5 {
		t.Fatalf("expected TempoFactor 1.5, got %v", cfg.TempoFactor)
	}
}

func TestParseArgsTimeout(t *testing.T) {
	cfg, err := ParseArgs([]string{"-t", "5"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %v", cfg.Timeout)
	}
}

func TestParseArgsRejectsInvalidLogLevel(t *testing.T) {
	if _, err := ParseArgs([]string{"--log-level", "verbose"}); err == nil {
		t.Fatalf("expected an error for an invalid log level")
	}
}

func TestParseArgsRejectsNonPositiveTempo(t *testing.T) {
	if _, err := ParseArgs([]string{"--tempo", "0"}); err == nil {
		t.Fatalf("expected an error for a non-positive tempo factor")
	}
}

func TestParseArgsRejectsNegativeTimeout(t *testing.T) {
	if _, err := ParseArgs([]string{"--timeout", "-1"}); err == nil {
		t.Fatalf("expected an error for a negative timeout")
	}
}
