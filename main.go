// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// oictl - Roomba Open Interface controller
//
// A CLI tool for sending mode-checked Open Interface commands to iRobot
// Roomba 600 series robots over a serial port or WebSocket bridge.

package main

import (
	"os"

	"github.com/Thermoquad/oictl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
