// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oictl/pkg/oi"
)

var traceOut string

var runCmd = &cobra.Command{
	Use:   "run <cmd[:b,b,...]>...",
	Short: "Send a sequence of OI commands",
	Long: `Send OI commands in order, stopping at the first rejected command.

Each argument is a command name or opcode, optionally followed by a colon
and comma separated data bytes (decimal or 0x hex):

  oictl run -p /dev/ttyUSB0 start safe clean
  oictl run -p /dev/ttyUSB0 start full drive_direct:0,100,0,100 wait:2s drive_direct:0,0,0,0
  oictl run -p /dev/ttyUSB0 start baud:11

wait:<duration> pauses between commands without sending anything. BAUD
also retunes the host serial port to the new rate.

With --trace the last commands are printed when the run ends. With
--trace-out they are written as CBOR; read that back with trace_dump.
Both happen even when a command fails.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&traceOut, "trace-out", "o", "", "Write the command trace to this file (CBOR)")
	rootCmd.AddCommand(runCmd)
}

// step is one parsed run argument
type step struct {
	op      oi.Opcode
	payload []byte
	wait    time.Duration
}

func (s step) String() string {
	if s.wait > 0 {
		return "wait " + s.wait.String()
	}
	return fmt.Sprintf("%s %s", oi.FormatOpcode(s.op), oi.FormatPayload(s.payload))
}

// parseStep parses "name", "name:b,b,..." or "wait:duration"
func parseStep(arg string) (step, error) {
	name, data, hasData := strings.Cut(strings.TrimSpace(arg), ":")

	if strings.EqualFold(name, "wait") {
		d, err := time.ParseDuration(data)
		if err != nil || d <= 0 {
			return step{}, fmt.Errorf("invalid wait %q", data)
		}
		return step{wait: d}, nil
	}

	op, err := oi.ParseCommand(name)
	if err != nil {
		return step{}, err
	}

	s := step{op: op}
	if !hasData {
		return s, nil
	}
	for _, field := range strings.Split(data, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		b, err := strconv.ParseUint(field, 0, 8)
		if err != nil {
			return step{}, fmt.Errorf("%s: invalid data byte %q", oi.FormatOpcode(op), field)
		}
		s.payload = append(s.payload, byte(b))
	}
	return s, nil
}

func parseSteps(args []string) ([]step, error) {
	steps := make([]step, 0, len(args))
	for _, arg := range args {
		s, err := parseStep(arg)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, nil
}

// execStep sends one step. BAUD with a single code byte goes through
// SetBaud so the host follows the robot.
func execStep(engine *oi.Engine, s step) error {
	if s.wait > 0 {
		time.Sleep(s.wait)
		return nil
	}
	if s.op == oi.OpBaud && len(s.payload) == 1 {
		return engine.SetBaud(int(s.payload[0]))
	}
	return engine.Dispatch(s.op, s.payload)
}

func runRun(cmd *cobra.Command, args []string) error {
	steps, err := parseSteps(args)
	if err != nil {
		return err
	}

	var extra []oi.Option
	if traceOut != "" && !traceEnabled {
		extra = append(extra, oi.WithTrace(oi.DefaultTraceCapacity))
	}

	engine, conn, connInfo, err := openSession(extra...)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Connected: %s (mode %s)\n", connInfo, engine.Mode())

	runErr := func() error {
		for i, s := range steps {
			if err := execStep(engine, s); err != nil {
				return fmt.Errorf("step %d (%s): %w", i+1, s, err)
			}
			if s.wait == 0 {
				fmt.Printf("%-20s data=%-12s -> %s\n", oi.FormatOpcode(s.op), oi.FormatPayload(s.payload), engine.Mode())
			}
		}
		return nil
	}()

	return reportTrace(os.Stdout, engine, runErr)
}

// reportTrace prints and saves the trace as requested by --trace and
// --trace-out, keeping runErr alongside any trace error
func reportTrace(w io.Writer, engine *oi.Engine, runErr error) error {
	if traceEnabled {
		if err := printTrace(w, engine); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}

	if traceOut != "" {
		if err := writeTraceFile(engine, traceOut); err != nil {
			return errors.Join(runErr, err)
		}
		fmt.Fprintf(w, "Trace written to %s\n", traceOut)
	}

	return runErr
}

// printTrace writes the engine trace, most recent first
func printTrace(w io.Writer, engine *oi.Engine) error {
	entries, err := engine.Trace()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nTrace (last %d of %d):\n", len(entries), engine.TraceCapacity())
	fmt.Fprint(w, oi.FormatTrace(entries))
	return nil
}

func writeTraceFile(engine *oi.Engine, path string) error {
	snap, err := engine.Snapshot()
	if err != nil {
		return err
	}
	data, err := oi.EncodeTrace(snap)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	return nil
}
