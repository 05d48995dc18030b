// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oictl/pkg/oi"
)

var traceDumpCmd = &cobra.Command{
	Use:   "trace_dump <file>",
	Short: "Print a CBOR trace written by run --trace-out",
	Args:  cobra.ExactArgs(1),
	RunE:  runTraceDump,
}

func init() {
	rootCmd.AddCommand(traceDumpCmd)
}

func runTraceDump(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	snap, err := oi.DecodeTrace(data)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	fmt.Printf("Mode: %s  Baud: %d  Entries: %d (most recent first)\n\n", snap.Mode, snap.BaudRate, len(snap.Entries))
	fmt.Print(oi.FormatTrace(snap.Entries))
	return nil
}
