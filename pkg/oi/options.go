// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import (
	"time"

	"github.com/rs/zerolog"
)

// Config holds the engine configuration.
type Config struct {
	// Pin drives the BRC line for wake and baud-change pulses (optional)
	Pin Pin

	// Logger receives dispatch and rejection events
	Logger zerolog.Logger

	// Legality decides which opcodes each mode accepts
	Legality LegalityTable

	// TraceCapacity is the number of trace entries kept. Zero disables
	// tracing.
	TraceCapacity int

	// BaudRate is the rate the robot is assumed to be listening at
	BaudRate int

	// WakeEdgeDelay is the time spent at each level of the wake sequence
	WakeEdgeDelay time.Duration

	// BRCEdgeDelay is the time spent at each level of the power-on
	// baud-change sequence
	BRCEdgeDelay time.Duration

	// BaudSettle is how long SetBaud blocks after sending the Baud command.
	// Zero leaves the settle delay to the caller.
	BaudSettle time.Duration

	// Sleep blocks for the given duration
	Sleep func(time.Duration)
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Logger:        zerolog.Nop(),
		Legality:      DefaultLegality(),
		BaudRate:      DefaultBaudRate,
		WakeEdgeDelay: DefaultWakeEdgeDelay,
		BRCEdgeDelay:  DefaultBRCEdgeDelay,
		Sleep:         time.Sleep,
	}
}

// Option is a functional option for configuring the Engine.
type Option func(*Config)

// WithPin attaches the BRC pin.
//
// Example:
//
//	engine := oi.New(port, oi.WithPin(rtsPin))
func WithPin(pin Pin) Option {
	return func(c *Config) {
		c.Pin = pin
	}
}

// WithLogger sets the logger for engine events.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithTrace enables the trace with the given capacity. A capacity of zero
// or less disables it.
//
// Example:
//
//	engine := oi.New(port, oi.WithTrace(oi.DefaultTraceCapacity))
func WithTrace(capacity int) Option {
	return func(c *Config) {
		if capacity < 0 {
			capacity = 0
		}
		c.TraceCapacity = capacity
	}
}

// WithStrictModes restricts actuator commands to Safe and Full mode.
func WithStrictModes() Option {
	return func(c *Config) {
		c.Legality = StrictLegality()
	}
}

// WithBaudRate sets the rate the robot is initially assumed to use.
func WithBaudRate(rate int) Option {
	return func(c *Config) {
		if rate > 0 {
			c.BaudRate = rate
		}
	}
}

// WithWakeEdgeDelay sets the per-edge delay of the wake sequence.
// Default is 500ms.
func WithWakeEdgeDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.WakeEdgeDelay = d
		}
	}
}

// WithBRCEdgeDelay sets the per-edge delay of the baud-change pulse
// sequence. The robot requires 50-500ms. Default is 250ms.
func WithBRCEdgeDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.BRCEdgeDelay = d
		}
	}
}

// WithBaudSettle makes SetBaud block for d after the Baud command.
//
// Example:
//
//	engine := oi.New(port, oi.WithBaudSettle(oi.BaudSettleDelay))
func WithBaudSettle(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.BaudSettle = d
		}
	}
}

// WithSleep replaces time.Sleep for all timed sequences.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Config) {
		if sleep != nil {
			c.Sleep = sleep
		}
	}
}
