// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"

	"github.com/Thermoquad/oictl/pkg/oi"
)

// engineOptions turns the resolved settings into engine options
func engineOptions(pin oi.Pin) []oi.Option {
	opts := []oi.Option{
		oi.WithLogger(logger),
		oi.WithBaudRate(baudRate),
		oi.WithWakeEdgeDelay(timing.WakeEdge),
		oi.WithBRCEdgeDelay(timing.BRCEdge),
		oi.WithBaudSettle(timing.BaudSettle),
	}
	if pin != nil {
		opts = append(opts, oi.WithPin(pin))
	}
	if traceEnabled {
		opts = append(opts, oi.WithTrace(oi.DefaultTraceCapacity))
	}
	if strictModes {
		opts = append(opts, oi.WithStrictModes())
	}
	return opts
}

// newEngine builds an engine on w and applies --initial-mode
func newEngine(w io.Writer, pin oi.Pin, extra ...oi.Option) (*oi.Engine, error) {
	mode, err := oi.ParseMode(initialMode)
	if err != nil {
		return nil, fmt.Errorf("--initial-mode: %w", err)
	}

	engine := oi.New(w, append(engineOptions(pin), extra...)...)
	if err := engine.SetMode(mode); err != nil {
		return nil, err
	}
	return engine, nil
}

// openSession opens the configured connection and an engine on top of it.
// The caller closes the connection.
func openSession(extra ...oi.Option) (*oi.Engine, Connection, string, error) {
	conn, pin, connInfo, err := OpenConnection()
	if err != nil {
		return nil, nil, "", err
	}

	engine, err := newEngine(conn, pin, extra...)
	if err != nil {
		conn.Close()
		return nil, nil, "", err
	}

	logger.Info().Str("conn", connInfo).Str("mode", engine.Mode().String()).Msg("connected")
	return engine, conn, connInfo, nil
}

// ensureStarted sends Start when the robot is believed to be off
func ensureStarted(engine *oi.Engine) error {
	if engine.Mode() != oi.ModeOff {
		return nil
	}
	return engine.Dispatch(oi.OpStart, nil)
}
