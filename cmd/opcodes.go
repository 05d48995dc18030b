// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oictl/pkg/oi"
)

var opcodesCmd = &cobra.Command{
	Use:   "opcodes",
	Short: "List every OI command and the modes that accept it",
	Long: `Print the OI command table: opcode, number of data bytes (n+ for
variable length commands), the mode the robot enters, and the modes the
command may be sent in. Honors --strict. No device is needed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		legal := oi.DefaultLegality()
		if strictModes {
			legal = oi.StrictLegality()
		}
		fmt.Print(oi.FormatCommandTable(legal))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(opcodesCmd)
}
