// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// traceFormatVersion is bumped on incompatible changes to the CBOR layout
const traceFormatVersion = 1

// TraceSnapshot is an engine's trace together with the state it ended in,
// as written by EncodeTrace.
type TraceSnapshot struct {
	Mode     Mode
	BaudRate int
	Entries  []TraceEntry // most recent first
}

// CBOR layout: {0: version, 1: mode, 2: baud, 3: [{0: mode, 1: opcode, 2: data}...]}
type cborTrace struct {
	Version  uint64       `cbor:"0,keyasint"`
	Mode     int64        `cbor:"1,keyasint"`
	BaudRate uint64       `cbor:"2,keyasint"`
	Entries  []cborRecord `cbor:"3,keyasint"`
}

type cborRecord struct {
	Mode    int64  `cbor:"0,keyasint"`
	Opcode  uint8  `cbor:"1,keyasint"`
	Payload []byte `cbor:"2,keyasint,omitempty"`
}

// Snapshot captures the current mode, baud rate and trace.
func (e *Engine) Snapshot() (TraceSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.trace == nil {
		return TraceSnapshot{}, ErrTraceUnavailable
	}
	return TraceSnapshot{Mode: e.mode, BaudRate: e.baudRate, Entries: e.trace.snapshot()}, nil
}

// EncodeTrace encodes a snapshot as CBOR.
func EncodeTrace(s TraceSnapshot) ([]byte, error) {
	msg := cborTrace{
		Version:  traceFormatVersion,
		Mode:     int64(s.Mode),
		BaudRate: uint64(s.BaudRate),
		Entries:  make([]cborRecord, 0, len(s.Entries)),
	}
	for _, e := range s.Entries {
		msg.Entries = append(msg.Entries, cborRecord{
			Mode:    int64(e.Mode),
			Opcode:  uint8(e.Opcode),
			Payload: e.Payload,
		})
	}

	data, err := cbor.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trace: %w", err)
	}
	return data, nil
}

// DecodeTrace decodes a snapshot written by EncodeTrace.
func DecodeTrace(data []byte) (TraceSnapshot, error) {
	if len(data) == 0 {
		return TraceSnapshot{}, fmt.Errorf("empty trace data")
	}

	var msg cborTrace
	if err := cbor.Unmarshal(data, &msg); err != nil {
		return TraceSnapshot{}, fmt.Errorf("failed to decode trace: %w", err)
	}
	if msg.Version != traceFormatVersion {
		return TraceSnapshot{}, fmt.Errorf("unsupported trace version %d", msg.Version)
	}

	s := TraceSnapshot{Mode: Mode(msg.Mode), BaudRate: int(msg.BaudRate)}
	if !s.Mode.Valid() {
		return TraceSnapshot{}, &InvalidModeError{Mode: s.Mode}
	}
	for i, r := range msg.Entries {
		m := Mode(r.Mode)
		if m != ModeNone && !m.Valid() {
			return TraceSnapshot{}, fmt.Errorf("entry %d: %w", i, &InvalidModeError{Mode: m})
		}
		s.Entries = append(s.Entries, TraceEntry{Mode: m, Opcode: Opcode(r.Opcode), Payload: r.Payload})
	}
	return s, nil
}
