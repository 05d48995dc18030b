// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oictl/pkg/oi"
)

var keepAwakeCmd = &cobra.Command{
	Use:   "keep_awake",
	Short: "Keep a passive robot from falling asleep",
	Long: `Start the OI and pulse the BRC pin periodically so the robot stays
awake in passive mode. Runs until interrupted (Ctrl+C).`,
	Args: cobra.NoArgs,
	RunE: runKeepAwake,
}

var (
	keepAwakeEvery time.Duration
	keepAwakePulse time.Duration
)

func init() {
	keepAwakeCmd.Flags().DurationVar(&keepAwakeEvery, "every", 0, "Time between pulses (default from config, 1m)")
	keepAwakeCmd.Flags().DurationVar(&keepAwakePulse, "pulse", 0, "Pulse length (default from config, 1s)")
	rootCmd.AddCommand(keepAwakeCmd)
}

func runKeepAwake(cmd *cobra.Command, args []string) error {
	engine, conn, connInfo, err := openSession()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := ensureStarted(engine); err != nil {
		return err
	}

	k := newKeepAwake(engine)
	fmt.Printf("Keeping robot awake on %s (pulse %s every %s), Ctrl+C to stop\n", connInfo, k.Pulse, k.Interval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := k.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newKeepAwake(engine *oi.Engine) *oi.KeepAwake {
	k := oi.NewKeepAwake(engine)
	k.Interval = timing.KeepAwakeEvery
	k.Pulse = timing.KeepAwakePulse
	if keepAwakeEvery > 0 {
		k.Interval = keepAwakeEvery
	}
	if keepAwakePulse > 0 {
		k.Pulse = keepAwakePulse
	}
	k.Logger = logger
	return k
}
