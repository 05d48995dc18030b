// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// logger is shared by every command and handed to the engine
var logger = zerolog.Nop()

// resolveLogLevel picks the flag value if set, then OICTL_LOG_LEVEL, then
// the config file value, then "info".
func resolveLogLevel(flagValue string, flagSet bool) string {
	if flagSet {
		return flagValue
	}
	if env := os.Getenv("OICTL_LOG_LEVEL"); env != "" {
		return env
	}
	if flagValue != "" {
		return flagValue
	}
	return "info"
}

func newLogger(out io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

func setupLogger(level string) error {
	l, err := newLogger(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05.000",
	}, level)
	if err != nil {
		return err
	}
	logger = l
	return nil
}
