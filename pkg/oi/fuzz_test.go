// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import (
	"errors"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// newFuzzRng creates a random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := time.Now().UnixNano()
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if s, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			seed = s
		}
	}
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// checkDispatch dispatches one command from the given mode and checks the
// wire, trace and mode against the outcome.
func checkDispatch(t *testing.T, op Opcode, payload []byte, mode Mode) {
	t.Helper()
	tr := &mockTransport{}
	e := New(tr, WithTrace(DefaultTraceCapacity), WithSleep(func(time.Duration) {}))
	if err := e.SetMode(mode); err != nil {
		t.Fatalf("SetMode(%s) failed: %v", mode, err)
	}

	err := e.Dispatch(op, payload)
	trace, _ := e.Trace()

	switch {
	case err == nil:
		if len(trace) != 1 || trace[0].Opcode != op {
			t.Errorf("%s from %s: accepted command not traced: %v", FormatOpcode(op), mode, trace)
		}
		if tr.buf.Len() == 0 || tr.buf.Bytes()[0] != byte(op) {
			t.Errorf("%s from %s: wire = % X", FormatOpcode(op), mode, tr.buf.Bytes())
		}
	case errors.Is(err, ErrUnknownOpcode), errors.Is(err, ErrIllegalCommand):
		if tr.buf.Len() != 0 {
			t.Errorf("%d from %s: rejected command wrote % X", op, mode, tr.buf.Bytes())
		}
	case errors.Is(err, ErrPayloadLength):
		if tr.buf.Len() != 1 {
			t.Errorf("%s from %s: length mismatch wrote % X, want opcode only", FormatOpcode(op), mode, tr.buf.Bytes())
		}
	default:
		t.Errorf("%d from %s: unexpected error: %v", op, mode, err)
	}

	if err != nil {
		if len(trace) != 0 {
			t.Errorf("%d from %s: rejected command traced: %v", op, mode, trace)
		}
		if e.Mode() != mode {
			t.Errorf("%d from %s: mode changed to %s on rejection", op, mode, e.Mode())
		}
	}
}

var fuzzModes = []Mode{ModeOff, ModePassive, ModeSafe, ModeFull}

// TestFuzzDispatch_RandomCommands dispatches random opcodes and payloads
func TestFuzzDispatch_RandomCommands(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		op := Opcode(rng.Intn(256))
		payload := make([]byte, rng.Intn(20))
		rng.Read(payload)
		checkDispatch(t, op, payload, fuzzModes[rng.Intn(len(fuzzModes))])
	}
}

// TestFuzzDispatch_KnownCommands uses registered opcodes with payloads
// around the expected length
func TestFuzzDispatch_KnownCommands(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()
	cmds := Commands()

	for i := 0; i < rounds; i++ {
		spec := cmds[rng.Intn(len(cmds))]
		n := spec.PayloadLen + rng.Intn(3) - 1
		if n < 0 {
			n = 0
		}
		payload := make([]byte, n)
		rng.Read(payload)
		checkDispatch(t, spec.Opcode, payload, fuzzModes[rng.Intn(len(fuzzModes))])
	}
}

func FuzzDispatch(f *testing.F) {
	f.Add(uint8(OpStart), []byte{}, uint8(0))
	f.Add(uint8(OpClean), []byte{}, uint8(0))
	f.Add(uint8(OpDrive), []byte{0, 100, 0x80, 0}, uint8(2))
	f.Add(uint8(OpSong), []byte{0, 2, 60, 8}, uint8(3))
	f.Add(uint8(OpSong), []byte{0, 200}, uint8(3))
	f.Add(uint8(OpStream), []byte{3, 7}, uint8(1))
	f.Add(uint8(0x10), []byte{1, 2, 3}, uint8(1))

	f.Fuzz(func(t *testing.T, op uint8, payload []byte, mode uint8) {
		checkDispatch(t, Opcode(op), payload, fuzzModes[int(mode)%len(fuzzModes)])
	})
}
