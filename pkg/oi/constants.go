// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package oi is a host-side driver for the Roomba 600 Open Interface.
//
// The Open Interface (OI) is a one-byte-opcode serial protocol. Every
// command is an opcode optionally followed by data bytes, and the robot
// only accepts a command while it is in a mode that permits it. This
// package tracks the robot's mode on the host, rejects commands the robot
// would ignore, enforces payload lengths, and keeps a bounded trace of
// what was sent.
//
// See the iRobot Roomba 600 Open Interface Specification.
package oi

import "time"

// Opcode is a single-byte OI command identifier.
type Opcode uint8

// Getting started commands
const (
	OpReset   Opcode = 7
	OpStart   Opcode = 128
	OpBaud    Opcode = 129
	OpControl Opcode = 130 // legacy alias of Safe
	OpSafe    Opcode = 131
	OpFull    Opcode = 132
	OpStop    Opcode = 173
)

// Cleaning commands
const (
	OpPower      Opcode = 133
	OpSpot       Opcode = 134
	OpClean      Opcode = 135
	OpMaxClean   Opcode = 136
	OpSeekDock   Opcode = 143
	OpSchedule   Opcode = 167
	OpSetDayTime Opcode = 168
)

// Actuator commands
const (
	OpDrive          Opcode = 137
	OpMotors         Opcode = 138
	OpLEDs           Opcode = 139
	OpSong           Opcode = 140
	OpPlay           Opcode = 141
	OpPWMMotors      Opcode = 144
	OpDriveDirect    Opcode = 145
	OpDrivePWM       Opcode = 146
	OpSchedulingLEDs Opcode = 162
	OpDigitLEDsRaw   Opcode = 163
	OpDigitLEDsASCII Opcode = 164
	OpButtons        Opcode = 165
)

// Input commands. Responses to these are not decoded by this package.
const (
	OpQuery             Opcode = 142
	OpStream            Opcode = 148
	OpQueryList         Opcode = 149
	OpPauseResumeStream Opcode = 150
)

// Mode is the OI operating mode tracked on the host.
type Mode int

// Mode values. ModeNone is not a device mode: in a CommandSpec it means
// "no mode change", and SetMode treats it as a no-op.
const (
	ModeNone Mode = iota
	ModeOff
	ModePassive
	ModeSafe
	ModeFull
)

// Valid reports whether m is one of the four device modes.
func (m Mode) Valid() bool {
	return m >= ModeOff && m <= ModeFull
}

// Baud rates, indexed by OI baud code
var baudCodes = [...]int{
	0:  300,
	1:  600,
	2:  1200,
	3:  2400,
	4:  4800,
	5:  9600,
	6:  14400,
	7:  19200,
	8:  28800,
	9:  38400,
	10: 57600,
	11: 115200,
}

// Serial defaults
const (
	DefaultBaudRate = 115200
	BRCBaudRate     = 19200 // rate selected by the BRC power-on pulse sequence
)

// Timing defaults
const (
	DefaultWakeEdgeDelay  = 500 * time.Millisecond
	DefaultBRCEdgeDelay   = 250 * time.Millisecond
	BaudSettleDelay       = 100 * time.Millisecond // required quiet time after a Baud command
	DefaultTraceCapacity  = 10
	DefaultKeepAwakeEvery = 60 * time.Second
	DefaultKeepAwakePulse = time.Second
)

// BaudRateForCode returns the bit rate for an OI baud code.
func BaudRateForCode(code int) (int, bool) {
	if code < 0 || code >= len(baudCodes) {
		return 0, false
	}
	return baudCodes[code], true
}

// BaudCodeForRate returns the OI baud code for a bit rate.
func BaudCodeForRate(rate int) (int, bool) {
	for code, r := range baudCodes {
		if r == rate {
			return code, true
		}
	}
	return 0, false
}
