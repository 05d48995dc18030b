// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/Thermoquad/oictl/pkg/oi"
)

// timingConfig holds the BRC and baud timings passed to the engine
type timingConfig struct {
	WakeEdge       time.Duration
	BRCEdge        time.Duration
	BaudSettle     time.Duration
	KeepAwakeEvery time.Duration
	KeepAwakePulse time.Duration
}

func defaultTiming() timingConfig {
	return timingConfig{
		WakeEdge:       oi.DefaultWakeEdgeDelay,
		BRCEdge:        oi.DefaultBRCEdgeDelay,
		BaudSettle:     oi.BaudSettleDelay,
		KeepAwakeEvery: oi.DefaultKeepAwakeEvery,
		KeepAwakePulse: oi.DefaultKeepAwakePulse,
	}
}

// fileConfig is the on-disk TOML layout. Every key is optional.
//
//	port = "/dev/ttyUSB0"
//	baud = 115200
//	brc = "rts"
//	initial_mode = "passive"
//
//	[timing]
//	wake_edge = "500ms"
//	baud_settle = "100ms"
type fileConfig struct {
	Port        string     `toml:"port"`
	Baud        int        `toml:"baud"`
	URL         string     `toml:"url"`
	Username    string     `toml:"username"`
	NoSSLVerify bool       `toml:"no_ssl_verify"`
	BRC         string     `toml:"brc"`
	Trace       bool       `toml:"trace"`
	Strict      bool       `toml:"strict"`
	LogLevel    string     `toml:"log_level"`
	InitialMode string     `toml:"initial_mode"`
	Timing      fileTiming `toml:"timing"`
}

type fileTiming struct {
	WakeEdge       string `toml:"wake_edge"`
	BRCEdge        string `toml:"brc_edge"`
	BaudSettle     string `toml:"baud_settle"`
	KeepAwakeEvery string `toml:"keep_awake_every"`
	KeepAwakePulse string `toml:"keep_awake_pulse"`
}

// applyConfigFile loads path and copies every key it defines into the
// matching setting, unless changed reports that the flag was set on the
// command line.
func applyConfigFile(path string, changed func(flag string) bool) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	use := func(key, flag string) bool {
		return meta.IsDefined(key) && !changed(flag)
	}

	if use("port", "port") {
		portName = strings.TrimSpace(raw.Port)
	}
	if use("baud", "baud") {
		baudRate = raw.Baud
	}
	if use("url", "url") {
		wsURL = strings.TrimSpace(raw.URL)
	}
	if use("username", "username") {
		wsUsername = strings.TrimSpace(raw.Username)
	}
	if use("no_ssl_verify", "no-ssl-verify") {
		wsNoSSLVerify = raw.NoSSLVerify
	}
	if use("brc", "brc") {
		brcLine = strings.TrimSpace(raw.BRC)
	}
	if use("trace", "trace") {
		traceEnabled = raw.Trace
	}
	if use("strict", "strict") {
		strictModes = raw.Strict
	}
	if use("log_level", "log-level") {
		logLevel = strings.TrimSpace(raw.LogLevel)
	}
	if use("initial_mode", "initial-mode") {
		initialMode = strings.TrimSpace(raw.InitialMode)
	}

	durations := []struct {
		key string
		val string
		dst *time.Duration
	}{
		{"wake_edge", raw.Timing.WakeEdge, &timing.WakeEdge},
		{"brc_edge", raw.Timing.BRCEdge, &timing.BRCEdge},
		{"baud_settle", raw.Timing.BaudSettle, &timing.BaudSettle},
		{"keep_awake_every", raw.Timing.KeepAwakeEvery, &timing.KeepAwakeEvery},
		{"keep_awake_pulse", raw.Timing.KeepAwakePulse, &timing.KeepAwakePulse},
	}
	for _, d := range durations {
		if !meta.IsDefined("timing", d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.val))
		if err != nil {
			return fmt.Errorf("parse timing.%s: %w", d.key, err)
		}
		if v < 0 {
			return fmt.Errorf("timing.%s must not be negative", d.key)
		}
		*d.dst = v
	}

	return nil
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
