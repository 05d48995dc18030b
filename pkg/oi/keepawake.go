// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// KeepAwake periodically pulses the BRC pin while the robot is in Passive
// mode, which otherwise falls asleep after five minutes without serial
// activity. It only uses the Engine's public methods, so it never writes
// to the transport.
type KeepAwake struct {
	Engine   *Engine
	Interval time.Duration // time between pulses, default 60s
	Pulse    time.Duration // low time per pulse, default 1s

	// OnError is called when a pulse fails (optional). The task keeps
	// running.
	OnError func(error)

	Logger zerolog.Logger
}

// NewKeepAwake creates a keep-awake task with the default duty cycle.
func NewKeepAwake(engine *Engine) *KeepAwake {
	return &KeepAwake{
		Engine:   engine,
		Interval: DefaultKeepAwakeEvery,
		Pulse:    DefaultKeepAwakePulse,
		Logger:   zerolog.Nop(),
	}
}

// Run pulses until ctx is cancelled and returns ctx.Err().
//
// Example:
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	go oi.NewKeepAwake(engine).Run(ctx)
func (k *KeepAwake) Run(ctx context.Context) error {
	interval := k.Interval
	if interval <= 0 {
		interval = DefaultKeepAwakeEvery
	}
	pulse := k.Pulse
	if pulse <= 0 {
		pulse = DefaultKeepAwakePulse
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if k.Engine.Mode() != ModePassive {
				continue
			}
			k.Logger.Debug().Dur("pulse", pulse).Msg("keep-awake pulse")
			if err := k.Engine.PulseLow(pulse); err != nil {
				k.Logger.Warn().Err(err).Msg("keep-awake pulse failed")
				if k.OnError != nil {
					k.OnError(err)
				}
			}
		}
	}
}
