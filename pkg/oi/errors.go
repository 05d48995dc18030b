// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching against the typed errors below.
var (
	ErrUnknownOpcode    = errors.New("unknown opcode")
	ErrIllegalCommand   = errors.New("illegal command for mode")
	ErrPayloadLength    = errors.New("payload length mismatch")
	ErrInvalidMode      = errors.New("invalid mode")
	ErrInvalidBaudCode  = errors.New("invalid baud code")
	ErrTraceUnavailable = errors.New("trace is disabled for this engine")
	ErrNoPin            = errors.New("no BRC pin configured")
)

// UnknownOpcodeError indicates an opcode that is not in the command table.
type UnknownOpcodeError struct {
	Opcode Opcode
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode %d (0x%02X)", e.Opcode, uint8(e.Opcode))
}

func (e *UnknownOpcodeError) Is(target error) bool { return target == ErrUnknownOpcode }

// IllegalCommandError indicates a command the robot does not accept in its
// current mode. Nothing was written to the transport.
type IllegalCommandError struct {
	Opcode Opcode
	Mode   Mode
}

func (e *IllegalCommandError) Error() string {
	return fmt.Sprintf("cannot send %s (%d) in %s mode", FormatOpcode(e.Opcode), e.Opcode, e.Mode)
}

func (e *IllegalCommandError) Is(target error) bool { return target == ErrIllegalCommand }

// PayloadLengthError indicates the wrong number of data bytes for a
// command. The opcode byte has already been written when this is returned.
type PayloadLengthError struct {
	Opcode   Opcode
	Expected int
	Actual   int
}

func (e *PayloadLengthError) Error() string {
	return fmt.Sprintf("%s expects %d data bytes, got %d", FormatOpcode(e.Opcode), e.Expected, e.Actual)
}

func (e *PayloadLengthError) Is(target error) bool { return target == ErrPayloadLength }

// InvalidModeError indicates a value outside the OI mode enumeration.
type InvalidModeError struct {
	Mode Mode
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("mode %d is not a valid OI mode", int(e.Mode))
}

func (e *InvalidModeError) Is(target error) bool { return target == ErrInvalidMode }

// InvalidBaudCodeError indicates a baud code outside 0-11.
type InvalidBaudCodeError struct {
	Code int
}

func (e *InvalidBaudCodeError) Error() string {
	return fmt.Sprintf("invalid baud code %d: valid codes are 0-%d", e.Code, len(baudCodes)-1)
}

func (e *InvalidBaudCodeError) Is(target error) bool { return target == ErrInvalidBaudCode }
