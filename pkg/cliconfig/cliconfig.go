// Package cliconfig parses command-line arguments and environment variables
// into the configuration smfplay needs to load and play a Standard MIDI
// File.
package cliconfig

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings resolved from command-line flags and
// environment variables.
type Config struct {
	MidiPath    string        // path to the .mid/.smf file to load
	LogLevel    string        // debug, info, warn, error
	Headless    bool          // skip audio device/synth init, decode and schedule only
	Loop        bool          // loop playback of the whole sequence indefinitely
	TempoFactor float64       // playback speed multiplier (1.0 is normal)
	Timeout     time.Duration // exit automatically after this long; 0 means run until EOF
	ShowHelp    bool
}

// ParseArgs parses args (normally os.Args[1:]) into a Config, applying
// environment variable fallbacks (MIDI_LOG_LEVEL, MIDI_HEADLESS) for any flag
// left at its default.
func ParseArgs(args []string) (*Config, error) {
	reordered := reorderArgs(args)

	fs := flag.NewFlagSet("smfplay", flag.ContinueOnError)
	config := &Config{}

	var timeoutSec int
	var tempoFactor float64
	fs.IntVar(&timeoutSec, "timeout", 0, "exit automatically after N seconds")
	fs.IntVar(&timeoutSec, "t", 0, "exit automatically after N seconds (short form)")
	fs.StringVar(&config.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&config.LogLevel, "l", "info", "log level (short form)")
	fs.BoolVar(&config.Headless, "headless", false, "decode and schedule without opening an audio device")
	fs.BoolVar(&config.Loop, "loop", false, "loop playback of the whole sequence indefinitely")
	fs.Float64Var(&tempoFactor, "tempo", 1.0, "playback speed multiplier")
	fs.BoolVar(&config.ShowHelp, "help", false, "show this help message")
	fs.BoolVar(&config.ShowHelp, "h", false, "show this help message (short form)")

	if err := fs.Parse(reordered); err != nil {
		return nil, err
	}

	if !config.Headless {
		if env := os.Getenv("MIDI_HEADLESS"); env != "" {
			config.Headless = env == "1" || strings.ToLower(env) == "true"
		}
	}
	if timeoutSec == 0 {
		if env := os.Getenv("MIDI_TIMEOUT"); env != "" {
			if t, err := strconv.Atoi(env); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}
	if config.LogLevel == "info" {
		if env := os.Getenv("MIDI_LOG_LEVEL"); env != "" {
			config.LogLevel = strings.ToLower(env)
		}
	}
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	if tempoFactor <= 0 {
		return nil, fmt.Errorf("tempo factor must be positive, got %v", tempoFactor)
	}
	config.TempoFactor = tempoFactor

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	if fs.NArg() > 0 {
		config.MidiPath = fs.Arg(0)
	}

	return config, nil
}

// reorderArgs moves flags before positional arguments so flag.FlagSet can
// parse a trailing file path regardless of where the user placed it.
func reorderArgs(args []string) []string {
	var flags, positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				if arg != "-h" && arg != "--help" && arg != "--headless" && arg != "--loop" {
					i++
					flags = append(flags, args[i])
				}
			}
		} else {
			positional = append(positional, arg)
		}
	}

	return append(flags, positional...)
}

// PrintHelp writes usage information to stdout.
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `smfplay - Standard MIDI File player

Usage:
  smfplay [options] <file.mid>

Options:
  -t, --timeout <seconds>   exit automatically after the given number of seconds
  -l, --log-level <level>   debug, info, warn, error (default: info)
      --headless            decode and schedule without opening an audio device
      --loop                loop playback of the whole sequence indefinitely
      --tempo <factor>      playback speed multiplier (default: 1.0)
  -h, --help                show this help message

Environment Variables:
  MIDI_HEADLESS=1            same as --headless
  MIDI_TIMEOUT=<seconds>     same as --timeout
  MIDI_LOG_LEVEL=<level>     same as --log-level

Examples:
  smfplay song.mid
  smfplay --loop --tempo 1.5 song.mid
  smfplay --headless --timeout 30 song.mid
`)
}
