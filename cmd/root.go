// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Engine flags
	brcLine      string
	traceEnabled bool
	strictModes  bool
	initialMode  string

	// Ambient flags
	configPath string
	envPath    string
	logLevel   string

	timing = defaultTiming()
)

var rootCmd = &cobra.Command{
	Use:   "oictl",
	Short: "Roomba Open Interface controller",
	Long: `oictl - A CLI tool for driving iRobot Roomba 600 series robots over the
Open Interface (OI).

Every command is checked against the robot's current OI mode before it is
written, so commands the robot would silently ignore are rejected on the
host instead.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200] [--brc rts]
  WebSocket: --url ws://host/path [--username user]

The BRC (baud rate change) pin is driven from the serial port's RTS or DTR
line. Prefix the line with ! when the adapter inverts it (--brc '!rts').

For WebSocket authentication, the password is read from the OICTL_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.

Settings may also come from a TOML file (--config) and a .env file; flags
given on the command line take precedence.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Engine flags
	rootCmd.PersistentFlags().StringVar(&brcLine, "brc", "rts", "Modem line wired to BRC: rts, dtr, !rts, !dtr or none")
	rootCmd.PersistentFlags().BoolVar(&traceEnabled, "trace", false, "Record the last 10 commands sent; run prints them when it ends")
	rootCmd.PersistentFlags().BoolVar(&strictModes, "strict", false, "Reject actuator commands in passive mode")
	rootCmd.PersistentFlags().StringVar(&initialMode, "initial-mode", "", "Assume the robot is already in this mode (off, passive, safe, full)")

	// Ambient flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env-file", ".env", "Environment file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); default OICTL_LOG_LEVEL or info")
}

// loadSettings resolves .env, config file and logging before any command runs
func loadSettings(cmd *cobra.Command, args []string) error {
	if err := loadDotEnv(envPath); err != nil {
		return err
	}

	if configPath != "" {
		if err := applyConfigFile(configPath, cmd.Flags().Changed); err != nil {
			return err
		}
	}

	return setupLogger(resolveLogLevel(logLevel, cmd.Flags().Changed("log-level")))
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
