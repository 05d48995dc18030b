// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatOpcode returns the human-readable name for an opcode
func FormatOpcode(op Opcode) string {
	if spec, ok := commandsByOpcode[op]; ok {
		return spec.Name
	}
	return "UNKNOWN"
}

// String returns the lower-case mode name used by the OI documentation
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeOff:
		return "off"
	case ModePassive:
		return "passive"
	case ModeSafe:
		return "safe"
	case ModeFull:
		return "full"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses a mode name. "none" and "" parse to ModeNone.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ModeNone, nil
	case "off":
		return ModeOff, nil
	case "passive":
		return ModePassive, nil
	case "safe":
		return ModeSafe, nil
	case "full":
		return ModeFull, nil
	}
	return ModeNone, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// ParseCommand resolves a command name ("clean", "seek-dock", "SEEK_DOCK")
// or a numeric opcode ("135", "0x87") to a registered opcode.
func ParseCommand(s string) (Opcode, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 0, 8); err == nil {
		op := Opcode(n)
		if _, err := Lookup(op); err != nil {
			return 0, err
		}
		return op, nil
	}

	name := strings.ToUpper(strings.ReplaceAll(s, "-", "_"))
	for _, c := range commands {
		if c.Name == name {
			return c.Opcode, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOpcode, s)
}

// FormatPayload renders data bytes as a hex dump
func FormatPayload(payload []byte) string {
	if len(payload) == 0 {
		return "-"
	}
	var b strings.Builder
	for i, v := range payload {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", v)
	}
	return b.String()
}

// FormatTraceEntry formats one trace entry on a single line
func FormatTraceEntry(e TraceEntry) string {
	return fmt.Sprintf("%-20s (%3d) -> %-7s data=%s",
		FormatOpcode(e.Opcode), e.Opcode, e.Mode, FormatPayload(e.Payload))
}

// FormatTrace formats a trace, most recent entry first
func FormatTrace(entries []TraceEntry) string {
	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "%2d  %s\n", i, FormatTraceEntry(e))
	}
	return b.String()
}

// FormatCommandTable renders the command table with per-mode availability
func FormatCommandTable(legal LegalityTable) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %6s %6s %-8s %s\n", "COMMAND", "OPCODE", "DATA", "MODE", "ALLOWED IN")
	for _, c := range Commands() {
		data := strconv.Itoa(c.PayloadLen)
		if c.Variable() {
			data += "+"
		}
		var allowed []string
		for _, m := range []Mode{ModeOff, ModePassive, ModeSafe, ModeFull} {
			if legal.Allows(m, c.Opcode) {
				allowed = append(allowed, m.String())
			}
		}
		result := c.ResultMode.String()
		if c.ResultMode == ModeNone {
			result = "-"
		}
		fmt.Fprintf(&b, "%-20s %6d %6s %-8s %s\n", c.Name, c.Opcode, data, result, strings.Join(allowed, ","))
	}
	return b.String()
}
