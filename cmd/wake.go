// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var wakeCmd = &cobra.Command{
	Use:   "wake",
	Short: "Wake a sleeping robot with the BRC pin",
	Long: `Pulse the BRC pin low-high-low three times to wake a robot that has
gone to sleep. The sequence takes about 4.5 seconds.

Requires a serial connection with the BRC line wired (--brc).`,
	Args: cobra.NoArgs,
	RunE: runWake,
}

var wakeStart bool

func init() {
	wakeCmd.Flags().BoolVar(&wakeStart, "start", false, "Send START after waking")
	rootCmd.AddCommand(wakeCmd)
}

func runWake(cmd *cobra.Command, args []string) error {
	engine, conn, connInfo, err := openSession()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Waking robot on %s...\n", connInfo)
	if err := engine.WakeUp(); err != nil {
		return err
	}

	if wakeStart {
		if err := ensureStarted(engine); err != nil {
			return err
		}
	}

	fmt.Printf("Wake sequence sent (mode %s)\n", engine.Mode())
	return nil
}
