// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Statistics counts engine activity
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	Dispatched      uint64
	Rejected        uint64
	UnknownOpcodes  uint64
	IllegalCommands uint64
	PayloadMismatch uint64
	TransportErrors uint64
	BytesWritten    uint64
	ModeTransitions uint64
	WakeSequences   uint64
	BaudChanges     uint64

	// Rates (calculated)
	CommandRate float64 // commands/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// recordDispatch updates counters for a dispatch attempt
func (s *Statistics) recordDispatch(err error, modeChanged bool) {
	s.LastUpdateTime = time.Now()

	if err == nil {
		s.Dispatched++
		if modeChanged {
			s.ModeTransitions++
		}
		return
	}

	switch {
	case errors.Is(err, ErrUnknownOpcode):
		s.UnknownOpcodes++
		s.Rejected++
	case errors.Is(err, ErrIllegalCommand):
		s.IllegalCommands++
		s.Rejected++
	case errors.Is(err, ErrPayloadLength):
		s.PayloadMismatch++
		s.Rejected++
	default:
		s.TransportErrors++
	}
}

// CalculateRates calculates the command rate
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.CommandRate = float64(s.Dispatched) / elapsed
	}
}

// String returns a formatted statistics summary
func (s Statistics) String() string {
	s.CalculateRates()

	var b strings.Builder
	fmt.Fprintf(&b, "=== Statistics (%.0f seconds) ===\n", time.Since(s.StartTime).Seconds())
	fmt.Fprintf(&b, "Dispatched:      %8d\n", s.Dispatched)
	fmt.Fprintf(&b, "Rejected:        %8d\n", s.Rejected)
	if s.UnknownOpcodes > 0 {
		fmt.Fprintf(&b, "  Unknown Opcode:   %5d\n", s.UnknownOpcodes)
	}
	if s.IllegalCommands > 0 {
		fmt.Fprintf(&b, "  Illegal In Mode:  %5d\n", s.IllegalCommands)
	}
	if s.PayloadMismatch > 0 {
		fmt.Fprintf(&b, "  Payload Length:   %5d\n", s.PayloadMismatch)
	}
	if s.TransportErrors > 0 {
		fmt.Fprintf(&b, "Transport Errors:%8d\n", s.TransportErrors)
	}
	fmt.Fprintf(&b, "Bytes Written:   %8d\n", s.BytesWritten)
	fmt.Fprintf(&b, "Mode Changes:    %8d\n", s.ModeTransitions)
	fmt.Fprintf(&b, "Wake Sequences:  %8d\n", s.WakeSequences)
	fmt.Fprintf(&b, "Baud Changes:    %8d\n", s.BaudChanges)
	fmt.Fprintf(&b, "Command Rate:    %8.1f cmds/sec\n", s.CommandRate)
	b.WriteString("================================\n")
	return b.String()
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
