// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

// TraceEntry records one dispatched command.
type TraceEntry struct {
	Mode    Mode   // mode the command switched to, ModeNone if unchanged
	Opcode  Opcode // command sent
	Payload []byte // data bytes sent, nil if none
}

// traceRing is a fixed-capacity ring buffer of trace entries
type traceRing struct {
	entries []TraceEntry
	next    int // slot the next push writes
	count   int
}

func newTraceRing(capacity int) *traceRing {
	return &traceRing{entries: make([]TraceEntry, capacity)}
}

// push adds e as the most recent entry, overwriting the oldest when full
func (r *traceRing) push(e TraceEntry) {
	r.entries[r.next] = e
	r.next = (r.next + 1) % len(r.entries)
	if r.count < len(r.entries) {
		r.count++
	}
}

// snapshot returns the entries most recent first
func (r *traceRing) snapshot() []TraceEntry {
	out := make([]TraceEntry, r.count)
	for i := 0; i < r.count; i++ {
		idx := (r.next - 1 - i + len(r.entries)) % len(r.entries)
		e := r.entries[idx]
		if e.Payload != nil {
			e.Payload = append([]byte(nil), e.Payload...)
		}
		out[i] = e
	}
	return out
}

func (r *traceRing) capacity() int {
	return len(r.entries)
}
