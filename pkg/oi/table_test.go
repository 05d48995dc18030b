// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import (
	"errors"
	"strings"
	"testing"
)

// Opcode values from the Roomba 600 Open Interface command reference
func TestOpcodeValues(t *testing.T) {
	tests := []struct {
		op   Opcode
		want uint8
	}{
		{OpReset, 7},
		{OpStart, 128},
		{OpBaud, 129},
		{OpControl, 130},
		{OpSafe, 131},
		{OpFull, 132},
		{OpPower, 133},
		{OpSpot, 134},
		{OpClean, 135},
		{OpMaxClean, 136},
		{OpDrive, 137},
		{OpMotors, 138},
		{OpLEDs, 139},
		{OpSong, 140},
		{OpPlay, 141},
		{OpQuery, 142},
		{OpSeekDock, 143},
		{OpPWMMotors, 144},
		{OpDriveDirect, 145},
		{OpDrivePWM, 146},
		{OpStream, 148},
		{OpQueryList, 149},
		{OpPauseResumeStream, 150},
		{OpSchedulingLEDs, 162},
		{OpDigitLEDsRaw, 163},
		{OpDigitLEDsASCII, 164},
		{OpButtons, 165},
		{OpSchedule, 167},
		{OpSetDayTime, 168},
		{OpStop, 173},
	}

	for _, tt := range tests {
		t.Run(FormatOpcode(tt.op), func(t *testing.T) {
			if uint8(tt.op) != tt.want {
				t.Errorf("opcode = %d, want %d", tt.op, tt.want)
			}
			if _, err := Lookup(tt.op); err != nil {
				t.Errorf("Lookup(%d) failed: %v", tt.op, err)
			}
		})
	}

	if len(Commands()) != len(tests) {
		t.Errorf("len(Commands()) = %d, want %d", len(Commands()), len(tests))
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		op         Opcode
		payloadLen int
		mode       Mode
	}{
		{OpStart, 0, ModePassive},
		{OpReset, 0, ModeOff},
		{OpStop, 0, ModeOff},
		{OpBaud, 1, ModeNone},
		{OpSafe, 0, ModeSafe},
		{OpFull, 0, ModeFull},
		{OpClean, 0, ModePassive},
		{OpPower, 0, ModePassive},
		{OpSeekDock, 0, ModePassive},
		{OpDrive, 4, ModeNone},
		{OpSchedule, 15, ModeNone},
	}

	for _, tt := range tests {
		spec, err := Lookup(tt.op)
		if err != nil {
			t.Fatalf("Lookup(%d) failed: %v", tt.op, err)
		}
		if spec.Opcode != tt.op || spec.PayloadLen != tt.payloadLen || spec.ResultMode != tt.mode {
			t.Errorf("Lookup(%s) = %+v, want payload=%d mode=%s", spec.Name, spec, tt.payloadLen, tt.mode)
		}
	}
}

func TestLookup_Unknown(t *testing.T) {
	for _, op := range []Opcode{0, 1, 0x10, 147, 166, 255} {
		_, err := Lookup(op)
		if !errors.Is(err, ErrUnknownOpcode) {
			t.Errorf("Lookup(%d) = %v, want ErrUnknownOpcode", op, err)
		}
	}
}

func TestCommandTable_ResultModesValid(t *testing.T) {
	for _, c := range Commands() {
		if c.ResultMode != ModeNone && !c.ResultMode.Valid() {
			t.Errorf("%s has invalid result mode %d", c.Name, c.ResultMode)
		}
		if c.PayloadLen < 0 {
			t.Errorf("%s has negative payload length", c.Name)
		}
	}
}

func TestExpectedLen(t *testing.T) {
	song, _ := Lookup(OpSong)
	stream, _ := Lookup(OpStream)
	drive, _ := Lookup(OpDrive)

	tests := []struct {
		name    string
		spec    CommandSpec
		payload []byte
		want    int
	}{
		{"fixed", drive, []byte{1}, 4},
		{"song prefix only", song, []byte{0}, 2},
		{"song three notes", song, []byte{0, 3}, 8},
		{"stream empty", stream, nil, 1},
		{"stream two ids", stream, []byte{2}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.spec.ExpectedLen(tt.payload); got != tt.want {
				t.Errorf("ExpectedLen = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDefaultLegality(t *testing.T) {
	legal := DefaultLegality()

	off := legal.Opcodes(ModeOff)
	if len(off) != 2 || off[0] != OpReset || off[1] != OpStart {
		t.Errorf("off allows %v, want [RESET START]", off)
	}

	passive := legal.Opcodes(ModePassive)
	for _, m := range []Mode{ModeSafe, ModeFull} {
		other := legal.Opcodes(m)
		if len(other) != len(passive) {
			t.Fatalf("%s allows %d opcodes, passive %d", m, len(other), len(passive))
		}
		for i := range other {
			if other[i] != passive[i] {
				t.Errorf("%s[%d] = %d, passive = %d", m, i, other[i], passive[i])
			}
		}
	}

	// Off is a strict subset of the other modes
	for _, op := range off {
		if !legal.Allows(ModePassive, op) {
			t.Errorf("passive does not allow bootstrap opcode %s", FormatOpcode(op))
		}
	}
	if len(passive) != len(Commands()) {
		t.Errorf("passive allows %d opcodes, want all %d", len(passive), len(Commands()))
	}

	if legal.Allows(ModeNone, OpStart) {
		t.Error("ModeNone should allow nothing")
	}
}

func TestStrictLegality(t *testing.T) {
	legal := StrictLegality()

	for _, c := range Commands() {
		if got := legal.Allows(ModePassive, c.Opcode); got == c.Actuator {
			t.Errorf("strict passive allows %s = %v, actuator = %v", c.Name, got, c.Actuator)
		}
		if !legal.Allows(ModeSafe, c.Opcode) || !legal.Allows(ModeFull, c.Opcode) {
			t.Errorf("strict safe/full must allow %s", c.Name)
		}
	}
}

func TestBaudCodes(t *testing.T) {
	tests := []struct {
		code int
		rate int
	}{
		{0, 300}, {1, 600}, {2, 1200}, {3, 2400}, {4, 4800}, {5, 9600},
		{6, 14400}, {7, 19200}, {8, 28800}, {9, 38400}, {10, 57600}, {11, 115200},
	}

	for _, tt := range tests {
		rate, ok := BaudRateForCode(tt.code)
		if !ok || rate != tt.rate {
			t.Errorf("BaudRateForCode(%d) = %d, %v; want %d", tt.code, rate, ok, tt.rate)
		}
		code, ok := BaudCodeForRate(tt.rate)
		if !ok || code != tt.code {
			t.Errorf("BaudCodeForRate(%d) = %d, %v; want %d", tt.rate, code, ok, tt.code)
		}
	}

	for _, code := range []int{-1, 12, 100} {
		if _, ok := BaudRateForCode(code); ok {
			t.Errorf("BaudRateForCode(%d) should fail", code)
		}
	}
	if _, ok := BaudCodeForRate(250000); ok {
		t.Error("BaudCodeForRate(250000) should fail")
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in      string
		want    Opcode
		wantErr bool
	}{
		{"start", OpStart, false},
		{"CLEAN", OpClean, false},
		{"seek-dock", OpSeekDock, false},
		{"seek_dock", OpSeekDock, false},
		{"135", OpClean, false},
		{"0x87", OpClean, false},
		{"7", OpReset, false},
		{"dance", 0, true},
		{"16", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCommand(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownOpcode) {
					t.Errorf("ParseCommand(%q) = %v, want ErrUnknownOpcode", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCommand(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseCommand(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeNone, ModeOff, ModePassive, ModeSafe, ModeFull} {
		got, err := ParseMode(strings.ToUpper(m.String()))
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %s, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("kernel"); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("ParseMode(kernel) = %v, want ErrInvalidMode", err)
	}
}

func TestFormatCommandTable(t *testing.T) {
	out := FormatCommandTable(DefaultLegality())
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != len(Commands())+1 {
		t.Fatalf("table has %d lines, want %d", len(lines), len(Commands())+1)
	}
	if !strings.Contains(out, "START") || !strings.Contains(out, "off,passive,safe,full") {
		t.Errorf("table missing START availability:\n%s", out)
	}
	if !strings.Contains(out, "SONG") || !strings.Contains(out, "2+") {
		t.Errorf("table missing variable-length marker:\n%s", out)
	}
}

func TestFormatTraceEntry(t *testing.T) {
	got := FormatTraceEntry(TraceEntry{Mode: ModeNone, Opcode: OpBaud, Payload: []byte{0x0B}})
	if !strings.Contains(got, "BAUD") || !strings.Contains(got, "none") || !strings.Contains(got, "data=0B") {
		t.Errorf("FormatTraceEntry = %q", got)
	}
	if FormatOpcode(Opcode(0x01)) != "UNKNOWN" {
		t.Error("FormatOpcode(0x01) should be UNKNOWN")
	}
}
