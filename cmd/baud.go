// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oictl/pkg/oi"
)

var baudCmd = &cobra.Command{
	Use:   "baud <code>",
	Short: "Change the robot's serial bit rate",
	Long: `Send the BAUD command with an OI baud code and retune the host port.

  code  rate      code  rate      code  rate
   0    300        4    4800       8    28800
   1    600        5    9600       9    38400
   2    1200       6    14400     10    57600
   3    2400       7    19200     11    115200

START is sent first if the robot is believed to be off.

With --pulse the code is ignored and the power-on BRC sequence is sent
instead, which forces 19200 bps. It must be run within a few seconds of
switching the robot on.`,
	Args: cobra.RangeArgs(0, 1),
	RunE: runBaud,
}

var baudPulse bool

func init() {
	baudCmd.Flags().BoolVar(&baudPulse, "pulse", false, "Use the power-on BRC pulse sequence (19200 bps)")
	rootCmd.AddCommand(baudCmd)
}

func runBaud(cmd *cobra.Command, args []string) error {
	code := -1
	if !baudPulse {
		if len(args) != 1 {
			return fmt.Errorf("baud code required (0-11)")
		}
		c, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid baud code %q", args[0])
		}
		if _, ok := oi.BaudRateForCode(c); !ok {
			return &oi.InvalidBaudCodeError{Code: c}
		}
		code = c
	}

	engine, conn, connInfo, err := openSession()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Connected: %s\n", connInfo)

	if baudPulse {
		if err := engine.PulseBaudChange(); err != nil {
			return err
		}
	} else {
		if err := ensureStarted(engine); err != nil {
			return err
		}
		if err := engine.SetBaud(code); err != nil {
			return err
		}
	}

	fmt.Printf("Robot now at %d bps (mode %s)\n", engine.BaudRate(), engine.Mode())
	return nil
}
