// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Pin is the BRC (baud rate change) line on the robot's mini-DIN
// connector, used to wake the robot and to force 19200 bps at power-on.
type Pin interface {
	SetOutput() error
	Set(high bool) error
}

// BaudRateSetter is implemented by transports that can change the host
// side bit rate. After a successful SetBaud or PulseBaudChange the engine
// retunes such transports to the new rate.
type BaudRateSetter interface {
	SetBaudRate(rate int) error
}

// Engine tracks the robot's OI mode and gates every outgoing command
// through the legality table and payload-length rules before writing it.
//
// Engine methods are serialized internally, so a KeepAwake task may run
// alongside the controlling goroutine. A single Engine must own the
// transport and pin for the whole session.
type Engine struct {
	mu        sync.Mutex
	transport io.Writer
	config    Config

	mode     Mode
	baudRate int
	trace    *traceRing
	stats    *Statistics
}

// New creates an Engine writing to transport. The robot is assumed to be
// in Off mode.
//
// Example:
//
//	engine := oi.New(port,
//	    oi.WithPin(brc),
//	    oi.WithTrace(oi.DefaultTraceCapacity),
//	)
//	err := engine.Dispatch(oi.OpStart, nil)
func New(transport io.Writer, opts ...Option) *Engine {
	if transport == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Engine{
		transport: transport,
		config:    cfg,
		mode:      ModeOff,
		baudRate:  cfg.BaudRate,
		stats:     NewStatistics(),
	}
	if cfg.TraceCapacity > 0 {
		e.trace = newTraceRing(cfg.TraceCapacity)
	}
	return e
}

// Dispatch sends op followed by payload.
//
// The command is rejected without any transport write if op is unknown or
// not accepted in the current mode. A non-empty payload whose length does
// not match the command is rejected after the opcode byte has been written;
// the robot will have received the opcode alone. An empty payload sends
// the opcode alone.
func (e *Engine) Dispatch(op Opcode, payload []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dispatch(op, payload)
}

func (e *Engine) dispatch(op Opcode, payload []byte) (err error) {
	prev := e.mode
	defer func() {
		e.stats.recordDispatch(err, e.mode != prev)
		if err != nil {
			e.config.Logger.Warn().Err(err).
				Str("cmd", FormatOpcode(op)).
				Str("mode", e.mode.String()).
				Msg("command rejected")
		}
	}()

	spec, err := Lookup(op)
	if err != nil {
		return err
	}

	if !e.config.Legality.Allows(e.mode, op) {
		return &IllegalCommandError{Opcode: op, Mode: e.mode}
	}

	if err := e.write([]byte{byte(op)}); err != nil {
		return fmt.Errorf("write %s opcode: %w", spec.Name, err)
	}

	var sent []byte
	if len(payload) > 0 {
		expected := spec.ExpectedLen(payload)
		if len(payload) != expected {
			return &PayloadLengthError{Opcode: op, Expected: expected, Actual: len(payload)}
		}
		if expected > 0 {
			sent = append([]byte(nil), payload...)
			if err := e.write(sent); err != nil {
				return fmt.Errorf("write %s data: %w", spec.Name, err)
			}
		}
	}

	if err := e.setMode(spec.ResultMode); err != nil {
		panic(fmt.Sprintf("oi: corrupt command table entry for %s: %v", spec.Name, err))
	}

	if e.trace != nil {
		e.trace.push(TraceEntry{Mode: spec.ResultMode, Opcode: op, Payload: sent})
	}

	e.config.Logger.Debug().
		Str("cmd", spec.Name).
		Uint8("opcode", uint8(op)).
		Str("data", FormatPayload(sent)).
		Str("mode", e.mode.String()).
		Msg("command sent")
	return nil
}

func (e *Engine) write(b []byte) error {
	n, err := e.transport.Write(b)
	e.stats.BytesWritten += uint64(n)
	if err != nil {
		return err
	}
	if n != len(b) {
		return io.ErrShortWrite
	}
	return nil
}

// SetMode assigns the tracked mode directly, without sending anything.
// ModeNone leaves the mode unchanged.
func (e *Engine) SetMode(m Mode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setMode(m)
}

func (e *Engine) setMode(m Mode) error {
	if m == ModeNone {
		return nil
	}
	if !m.Valid() {
		return &InvalidModeError{Mode: m}
	}
	e.mode = m
	return nil
}

// Mode returns the tracked OI mode
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// CanSend reports whether op would pass the legality check right now
func (e *Engine) CanSend(op Opcode) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config.Legality.Allows(e.mode, op)
}

// BaudRate returns the bit rate the robot is believed to be using
func (e *Engine) BaudRate() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.baudRate
}

// OverrideBaudRate records a bit rate set outside the engine, for example
// by the robot's button sequence. Nothing is sent.
func (e *Engine) OverrideBaudRate(rate int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.baudRate = rate
}

// Trace returns the recorded commands, most recent first.
func (e *Engine) Trace() ([]TraceEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.trace == nil {
		return nil, ErrTraceUnavailable
	}
	return e.trace.snapshot(), nil
}

// TraceCapacity returns the trace capacity, zero when tracing is disabled
func (e *Engine) TraceCapacity() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.trace == nil {
		return 0
	}
	return e.trace.capacity()
}

// Stats returns a copy of the engine's counters
func (e *Engine) Stats() Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := *e.stats
	s.CalculateRates()
	return s
}

// ResetStats clears the engine statistics.
func (e *Engine) ResetStats() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.Reset()
}

// SetBaud sends the Baud command for an OI baud code (0-11) and records
// the new rate.
//
// The robot ignores input for 100ms after a Baud command. SetBaud only
// waits for that when configured WithBaudSettle; otherwise the caller must
// wait BaudSettleDelay before sending anything else.
func (e *Engine) SetBaud(code int) error {
	rate, ok := BaudRateForCode(code)
	if !ok {
		return &InvalidBaudCodeError{Code: code}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.dispatch(OpBaud, []byte{byte(code)}); err != nil {
		return err
	}
	e.baudRate = rate
	e.stats.BaudChanges++
	e.config.Logger.Info().Int("code", code).Int("baud", rate).Msg("baud rate changed")

	if err := e.retune(rate); err != nil {
		return err
	}
	if e.config.BaudSettle > 0 {
		e.config.Sleep(e.config.BaudSettle)
	}
	return nil
}

func (e *Engine) retune(rate int) error {
	setter, ok := e.transport.(BaudRateSetter)
	if !ok {
		return nil
	}
	if err := setter.SetBaudRate(rate); err != nil {
		return fmt.Errorf("retune host to %d bps: %w", rate, err)
	}
	return nil
}

// WakeUp pulses the BRC pin low-high-low three times to wake a sleeping
// robot. It blocks for nine edge delays and cannot be interrupted.
func (e *Engine) WakeUp() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pin, err := e.outputPin()
	if err != nil {
		return err
	}

	for i := 0; i < 3; i++ {
		for _, level := range []bool{false, true, false} {
			if err := pin.Set(level); err != nil {
				return fmt.Errorf("wake: %w", err)
			}
			e.config.Sleep(e.config.WakeEdgeDelay)
		}
	}

	e.stats.WakeSequences++
	e.config.Logger.Info().Msg("wake sequence sent")
	return nil
}

// PulseBaudChange sends the power-on BRC sequence, three low pulses, that
// switches the robot to 19200 bps. It must be issued within a few seconds
// of power-on, before any command.
func (e *Engine) PulseBaudChange() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pin, err := e.outputPin()
	if err != nil {
		return err
	}

	for i := 0; i < 3; i++ {
		for _, level := range []bool{false, true} {
			if err := pin.Set(level); err != nil {
				return fmt.Errorf("baud change pulse: %w", err)
			}
			e.config.Sleep(e.config.BRCEdgeDelay)
		}
	}

	e.baudRate = BRCBaudRate
	e.stats.BaudChanges++
	e.config.Logger.Info().Int("baud", BRCBaudRate).Msg("baud change pulses sent")
	return e.retune(BRCBaudRate)
}

// PulseLow holds the BRC pin low for d and releases it. In Passive mode
// this resets the robot's five minute sleep timer.
func (e *Engine) PulseLow(d time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pin, err := e.outputPin()
	if err != nil {
		return err
	}
	if err := pin.Set(false); err != nil {
		return fmt.Errorf("pulse: %w", err)
	}
	e.config.Sleep(d)
	if err := pin.Set(true); err != nil {
		return fmt.Errorf("pulse: %w", err)
	}
	return nil
}

func (e *Engine) outputPin() (Pin, error) {
	if e.config.Pin == nil {
		return nil, ErrNoPin
	}
	if err := e.config.Pin.SetOutput(); err != nil {
		return nil, fmt.Errorf("configure BRC pin: %w", err)
	}
	return e.config.Pin, nil
}
