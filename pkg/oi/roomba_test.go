// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func newTestRoomba(t *testing.T, mode Mode) (*Roomba, *mockTransport) {
	t.Helper()
	e, tr := newTestEngine(t)
	if err := e.SetMode(mode); err != nil {
		t.Fatal(err)
	}
	return NewRoomba(e), tr
}

func TestRoomba_Commands(t *testing.T) {
	tests := []struct {
		name string
		call func(r *Roomba) error
		wire []byte
	}{
		{"drive straight", func(r *Roomba) error { return r.Drive(-200, RadiusStraight) }, []byte{137, 0xFF, 0x38, 0x80, 0x00}},
		{"drive spin", func(r *Roomba) error { return r.Drive(100, RadiusSpinCW) }, []byte{137, 0x00, 0x64, 0xFF, 0xFF}},
		{"drive direct", func(r *Roomba) error { return r.DriveDirect(500, -500) }, []byte{145, 0x01, 0xF4, 0xFE, 0x0C}},
		{"drive pwm", func(r *Roomba) error { return r.DrivePWM(255, 0) }, []byte{146, 0x00, 0xFF, 0x00, 0x00}},
		{"halt", func(r *Roomba) error { return r.Halt() }, []byte{145, 0, 0, 0, 0}},
		{"motors", func(r *Roomba) error { return r.Motors(MotorVacuum | MotorMainBrush) }, []byte{138, 0x06}},
		{"pwm motors", func(r *Roomba) error { return r.PWMMotors(-127, 64, 127) }, []byte{144, 0x81, 0x40, 0x7F}},
		{"leds", func(r *Roomba) error { return r.LEDs(LEDDock, 0, 255) }, []byte{139, 0x04, 0x00, 0xFF}},
		{"digits", func(r *Roomba) error { return r.DigitLEDsASCII("HI") }, []byte{164, 'H', 'I', ' ', ' '}},
		{"song", func(r *Roomba) error { return r.Song(0, []Note{{60, 32}}) }, []byte{140, 0, 1, 60, 32}},
		{"play", func(r *Roomba) error { return r.Play(0) }, []byte{141, 0}},
		{"query", func(r *Roomba) error { return r.Query(7) }, []byte{142, 7}},
		{"query list", func(r *Roomba) error { return r.QueryList(7, 8) }, []byte{149, 2, 7, 8}},
		{"stream", func(r *Roomba) error { return r.Stream(35) }, []byte{148, 1, 35}},
		{"pause stream", func(r *Roomba) error { return r.PauseStream() }, []byte{150, 0}},
		{"resume stream", func(r *Roomba) error { return r.ResumeStream() }, []byte{150, 1}},
		{"set day time", func(r *Roomba) error { return r.SetDayTime(time.Wednesday, 13, 45) }, []byte{168, 3, 13, 45}},
		{"buttons", func(r *Roomba) error { return r.Buttons(0x01) }, []byte{165, 0x01}},
		{"scheduling leds", func(r *Roomba) error { return r.SchedulingLEDs(0x7F, 0x1F) }, []byte{162, 0x7F, 0x1F}},
		{"digits raw", func(r *Roomba) error { return r.DigitLEDsRaw([4]byte{1, 2, 3, 4}) }, []byte{163, 1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, tr := newTestRoomba(t, ModeFull)
			if err := tt.call(r); err != nil {
				t.Fatalf("call failed: %v", err)
			}
			if !bytes.Equal(tr.buf.Bytes(), tt.wire) {
				t.Errorf("wire = % X, want % X", tr.buf.Bytes(), tt.wire)
			}
		})
	}
}

func TestRoomba_Schedule(t *testing.T) {
	r, tr := newTestRoomba(t, ModePassive)

	var times [7]ScheduleTime
	times[1] = ScheduleTime{Hour: 9, Minute: 30}
	if err := r.Schedule(0x02, times); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	wire := tr.buf.Bytes()
	if len(wire) != 16 || wire[0] != 167 || wire[1] != 0x02 || wire[4] != 9 || wire[5] != 30 {
		t.Errorf("wire = % X", wire)
	}
}

func TestRoomba_ModeCommands(t *testing.T) {
	r, _ := newTestRoomba(t, ModeOff)

	steps := []struct {
		call func() error
		want Mode
	}{
		{r.Start, ModePassive},
		{r.Full, ModeFull},
		{r.Spot, ModePassive},
		{r.Safe, ModeSafe},
		{r.MaxClean, ModePassive},
		{r.SeekDock, ModePassive},
		{r.Stop, ModeOff},
		{r.Reset, ModeOff},
	}
	for i, s := range steps {
		if err := s.call(); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		if r.Engine().Mode() != s.want {
			t.Errorf("step %d: Mode() = %s, want %s", i, r.Engine().Mode(), s.want)
		}
	}
}

func TestRoomba_StartCleaningAndShutdown(t *testing.T) {
	r, tr := newTestRoomba(t, ModeOff)

	if err := r.StartCleaning(); err != nil {
		t.Fatalf("StartCleaning failed: %v", err)
	}
	if r.Engine().Mode() != ModePassive {
		t.Errorf("Mode() = %s, want passive", r.Engine().Mode())
	}
	if err := r.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if r.Engine().Mode() != ModeOff {
		t.Errorf("Mode() = %s, want off", r.Engine().Mode())
	}
	if !bytes.Equal(tr.buf.Bytes(), []byte{128, 131, 135, 133, 173}) {
		t.Errorf("wire = % X", tr.buf.Bytes())
	}
}

func TestRoomba_Baud(t *testing.T) {
	r, tr := newTestRoomba(t, ModePassive)
	if err := r.Baud(7); err != nil {
		t.Fatal(err)
	}
	if r.Engine().BaudRate() != 19200 {
		t.Errorf("BaudRate() = %d, want 19200", r.Engine().BaudRate())
	}
	if !bytes.Equal(tr.buf.Bytes(), []byte{129, 7}) {
		t.Errorf("wire = % X", tr.buf.Bytes())
	}
}

func TestRoomba_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		call func(r *Roomba) error
	}{
		{"velocity too high", func(r *Roomba) error { return r.Drive(501, 0) }},
		{"radius too large", func(r *Roomba) error { return r.Drive(100, 2001) }},
		{"wheel velocity", func(r *Roomba) error { return r.DriveDirect(0, -501) }},
		{"wheel pwm", func(r *Roomba) error { return r.DrivePWM(256, 0) }},
		{"vacuum pwm", func(r *Roomba) error { return r.PWMMotors(0, 0, 128) }},
		{"brush pwm", func(r *Roomba) error { return r.PWMMotors(-128, 0, 0) }},
		{"song slot", func(r *Roomba) error { return r.Song(5, []Note{{60, 8}}) }},
		{"empty song", func(r *Roomba) error { return r.Song(0, nil) }},
		{"long text", func(r *Roomba) error { return r.DigitLEDsASCII("HELLO") }},
		{"unprintable", func(r *Roomba) error { return r.DigitLEDsASCII("\x01") }},
		{"empty query list", func(r *Roomba) error { return r.QueryList() }},
		{"bad hour", func(r *Roomba) error { return r.SetDayTime(time.Monday, 24, 0) }},
		{"bad day", func(r *Roomba) error { return r.SetDayTime(time.Weekday(7), 0, 0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, tr := newTestRoomba(t, ModeFull)
			if err := tt.call(r); err == nil {
				t.Error("expected error")
			}
			if tr.buf.Len() != 0 {
				t.Errorf("invalid arguments wrote % X", tr.buf.Bytes())
			}
		})
	}
}

func TestRoomba_IllegalInOff(t *testing.T) {
	r, tr := newTestRoomba(t, ModeOff)
	if err := r.Clean(); !errors.Is(err, ErrIllegalCommand) {
		t.Errorf("Clean in off = %v, want ErrIllegalCommand", err)
	}
	if err := r.Power(); !errors.Is(err, ErrIllegalCommand) {
		t.Errorf("Power in off = %v, want ErrIllegalCommand", err)
	}
	if tr.buf.Len() != 0 {
		t.Error("illegal command wrote to transport")
	}
}
