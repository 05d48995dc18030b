// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import "slices"

// CommandSpec describes one OI command: its opcode, how many data bytes
// follow it on the wire, and the mode the robot enters after it.
type CommandSpec struct {
	Opcode Opcode
	Name   string

	// PayloadLen is the number of data bytes. For variable-length commands
	// it is the length of the fixed prefix that carries the count.
	PayloadLen int

	// ResultMode is the mode after the command, or ModeNone for no change.
	ResultMode Mode

	// Actuator commands are only honored in Safe and Full under strict
	// legality.
	Actuator bool

	variable func(payload []byte) int
}

// Variable reports whether the payload length depends on the payload.
func (s CommandSpec) Variable() bool {
	return s.variable != nil
}

// ExpectedLen returns the payload length required for this command given
// the payload about to be sent.
func (s CommandSpec) ExpectedLen(payload []byte) int {
	if s.variable == nil || len(payload) < s.PayloadLen {
		return s.PayloadLen
	}
	return s.variable(payload)
}

// songLen: [song number][note count n] followed by n (note, duration) pairs
func songLen(payload []byte) int {
	return 2 + 2*int(payload[1])
}

// packetListLen: [packet count n] followed by n packet IDs
func packetListLen(payload []byte) int {
	return 1 + int(payload[0])
}

// commands is the full OI command set, in opcode order.
var commands = []CommandSpec{
	{Opcode: OpReset, Name: "RESET", ResultMode: ModeOff},
	{Opcode: OpStart, Name: "START", ResultMode: ModePassive},
	{Opcode: OpBaud, Name: "BAUD", PayloadLen: 1},
	{Opcode: OpControl, Name: "CONTROL", ResultMode: ModeSafe},
	{Opcode: OpSafe, Name: "SAFE", ResultMode: ModeSafe},
	{Opcode: OpFull, Name: "FULL", ResultMode: ModeFull},
	{Opcode: OpPower, Name: "POWER", ResultMode: ModePassive},
	{Opcode: OpSpot, Name: "SPOT", ResultMode: ModePassive},
	{Opcode: OpClean, Name: "CLEAN", ResultMode: ModePassive},
	{Opcode: OpMaxClean, Name: "MAX_CLEAN", ResultMode: ModePassive},
	{Opcode: OpDrive, Name: "DRIVE", PayloadLen: 4, Actuator: true},
	{Opcode: OpMotors, Name: "MOTORS", PayloadLen: 1, Actuator: true},
	{Opcode: OpLEDs, Name: "LEDS", PayloadLen: 3, Actuator: true},
	{Opcode: OpSong, Name: "SONG", PayloadLen: 2, variable: songLen},
	{Opcode: OpPlay, Name: "PLAY", PayloadLen: 1, Actuator: true},
	{Opcode: OpQuery, Name: "QUERY", PayloadLen: 1},
	{Opcode: OpSeekDock, Name: "SEEK_DOCK", ResultMode: ModePassive},
	{Opcode: OpPWMMotors, Name: "PWM_MOTORS", PayloadLen: 3, Actuator: true},
	{Opcode: OpDriveDirect, Name: "DRIVE_DIRECT", PayloadLen: 4, Actuator: true},
	{Opcode: OpDrivePWM, Name: "DRIVE_PWM", PayloadLen: 4, Actuator: true},
	{Opcode: OpStream, Name: "STREAM", PayloadLen: 1, variable: packetListLen},
	{Opcode: OpQueryList, Name: "QUERY_LIST", PayloadLen: 1, variable: packetListLen},
	{Opcode: OpPauseResumeStream, Name: "PAUSE_RESUME_STREAM", PayloadLen: 1},
	{Opcode: OpSchedulingLEDs, Name: "SCHEDULING_LEDS", PayloadLen: 2, Actuator: true},
	{Opcode: OpDigitLEDsRaw, Name: "DIGIT_LEDS_RAW", PayloadLen: 4, Actuator: true},
	{Opcode: OpDigitLEDsASCII, Name: "DIGIT_LEDS_ASCII", PayloadLen: 4, Actuator: true},
	{Opcode: OpButtons, Name: "BUTTONS", PayloadLen: 1},
	{Opcode: OpSchedule, Name: "SCHEDULE", PayloadLen: 15},
	{Opcode: OpSetDayTime, Name: "SET_DAY_TIME", PayloadLen: 3},
	{Opcode: OpStop, Name: "STOP", ResultMode: ModeOff},
}

var commandsByOpcode = func() map[Opcode]CommandSpec {
	m := make(map[Opcode]CommandSpec, len(commands))
	for _, c := range commands {
		m[c.Opcode] = c
	}
	return m
}()

// Lookup returns the CommandSpec registered for op.
func Lookup(op Opcode) (CommandSpec, error) {
	spec, ok := commandsByOpcode[op]
	if !ok {
		return CommandSpec{}, &UnknownOpcodeError{Opcode: op}
	}
	return spec, nil
}

// Commands returns every registered command in opcode order.
func Commands() []CommandSpec {
	out := make([]CommandSpec, len(commands))
	copy(out, commands)
	return out
}

// LegalityTable maps each mode to the opcodes the robot accepts in it.
type LegalityTable map[Mode]map[Opcode]struct{}

// bootstrap commands are the only ones the robot listens to while off
var bootstrap = []Opcode{OpStart, OpReset}

// DefaultLegality returns the host-side legality table: Off accepts only
// Start and Reset, every other mode accepts the whole command set.
func DefaultLegality() LegalityTable {
	return buildLegality(false)
}

// StrictLegality is DefaultLegality with actuator commands removed from
// Passive, matching the robot's documented per-mode availability.
func StrictLegality() LegalityTable {
	return buildLegality(true)
}

func buildLegality(strict bool) LegalityTable {
	t := LegalityTable{
		ModeOff:     {},
		ModePassive: {},
		ModeSafe:    {},
		ModeFull:    {},
	}
	for _, op := range bootstrap {
		t[ModeOff][op] = struct{}{}
	}
	for _, c := range commands {
		for _, m := range []Mode{ModePassive, ModeSafe, ModeFull} {
			if strict && c.Actuator && m == ModePassive {
				continue
			}
			t[m][c.Opcode] = struct{}{}
		}
	}
	return t
}

// Allows reports whether op may be sent while in mode m.
func (t LegalityTable) Allows(m Mode, op Opcode) bool {
	_, ok := t[m][op]
	return ok
}

// Opcodes returns the opcodes permitted in mode m, sorted.
func (t LegalityTable) Opcodes(m Mode) []Opcode {
	ops := make([]Opcode, 0, len(t[m]))
	for op := range t[m] {
		ops = append(ops, op)
	}
	slices.Sort(ops)
	return ops
}
