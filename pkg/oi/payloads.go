// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Payload builders encode command arguments into OI data bytes. Multi-byte
// values are sent high byte first.

// Special Drive radius values
const (
	RadiusStraight int16 = -32768 // 0x8000
	RadiusSpinCW   int16 = -1
	RadiusSpinCCW  int16 = 1
)

// Drive limits
const (
	MaxVelocity = 500  // mm/s
	MaxRadius   = 2000 // mm
	MaxPWM      = 255
)

// Motors bits
const (
	MotorSideBrush          = 1 << 0
	MotorVacuum             = 1 << 1
	MotorMainBrush          = 1 << 2
	MotorSideBrushClockwise = 1 << 3
	MotorMainBrushOutward   = 1 << 4
)

// LEDs bits
const (
	LEDDebris     = 1 << 0
	LEDSpot       = 1 << 1
	LEDDock       = 1 << 2
	LEDCheckRobot = 1 << 3
)

// Song limits
const (
	MaxSongNumber = 4
	MaxSongNotes  = 16
)

// Note is one note of a song: a MIDI note number (31-107, anything else
// is a rest) and a duration in 1/64ths of a second.
type Note struct {
	Number   uint8
	Duration uint8
}

// ScheduleTime is one day's start time in a cleaning schedule.
type ScheduleTime struct {
	Hour   uint8
	Minute uint8
}

// DrivePayload encodes a Drive command: velocity in mm/s, turn radius in mm.
func DrivePayload(velocity, radius int16) ([]byte, error) {
	if velocity < -MaxVelocity || velocity > MaxVelocity {
		return nil, fmt.Errorf("velocity %d out of range -%d..%d", velocity, MaxVelocity, MaxVelocity)
	}
	if radius != RadiusStraight && (radius < -MaxRadius || radius > MaxRadius) {
		return nil, fmt.Errorf("radius %d out of range -%d..%d", radius, MaxRadius, MaxRadius)
	}
	return pairPayload(velocity, radius), nil
}

// DriveDirectPayload encodes per-wheel velocities in mm/s.
func DriveDirectPayload(right, left int16) ([]byte, error) {
	for _, v := range []int16{right, left} {
		if v < -MaxVelocity || v > MaxVelocity {
			return nil, fmt.Errorf("wheel velocity %d out of range -%d..%d", v, MaxVelocity, MaxVelocity)
		}
	}
	return pairPayload(right, left), nil
}

// DrivePWMPayload encodes per-wheel PWM duty cycles.
func DrivePWMPayload(right, left int16) ([]byte, error) {
	for _, v := range []int16{right, left} {
		if v < -MaxPWM || v > MaxPWM {
			return nil, fmt.Errorf("wheel PWM %d out of range -%d..%d", v, MaxPWM, MaxPWM)
		}
	}
	return pairPayload(right, left), nil
}

func pairPayload(a, b int16) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint16(buf[0:2], uint16(a))
	binary.BigEndian.PutUint16(buf[2:4], uint16(b))
	return buf
}

// PWMMotorsPayload encodes brush and vacuum duty cycles. Brushes take
// -127..127, the vacuum 0..127.
func PWMMotorsPayload(mainBrush, sideBrush int8, vacuum uint8) ([]byte, error) {
	if vacuum > 127 {
		return nil, fmt.Errorf("vacuum PWM %d out of range 0..127", vacuum)
	}
	if mainBrush == -128 || sideBrush == -128 {
		return nil, fmt.Errorf("brush PWM out of range -127..127")
	}
	return []byte{byte(mainBrush), byte(sideBrush), vacuum}, nil
}

// SongPayload encodes song slot number (0-4) and up to 16 notes.
func SongPayload(number uint8, notes []Note) ([]byte, error) {
	if number > MaxSongNumber {
		return nil, fmt.Errorf("song number %d out of range 0..%d", number, MaxSongNumber)
	}
	if len(notes) == 0 || len(notes) > MaxSongNotes {
		return nil, fmt.Errorf("song must have 1..%d notes, got %d", MaxSongNotes, len(notes))
	}
	buf := make([]byte, 0, 2+2*len(notes))
	buf = append(buf, number, uint8(len(notes)))
	for _, n := range notes {
		buf = append(buf, n.Number, n.Duration)
	}
	return buf, nil
}

// PacketListPayload encodes a sensor packet ID list for Stream and
// QueryList.
func PacketListPayload(ids ...uint8) ([]byte, error) {
	if len(ids) == 0 || len(ids) > 255 {
		return nil, fmt.Errorf("packet list must have 1..255 IDs, got %d", len(ids))
	}
	buf := make([]byte, 0, 1+len(ids))
	buf = append(buf, uint8(len(ids)))
	return append(buf, ids...), nil
}

// DigitLEDsASCIIPayload encodes up to four printable characters for the
// seven-segment display, left to right, space padded.
func DigitLEDsASCIIPayload(text string) ([]byte, error) {
	if len(text) > 4 {
		return nil, fmt.Errorf("display text %q longer than 4 characters", text)
	}
	buf := []byte("    ")
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c < 32 || c > 126 {
			return nil, fmt.Errorf("display character 0x%02X not printable", c)
		}
		buf[i] = c
	}
	return buf, nil
}

// SchedulePayload encodes a weekly cleaning schedule. days is a bitmask
// with Sunday as bit 0; times is indexed by day starting with Sunday.
func SchedulePayload(days uint8, times [7]ScheduleTime) ([]byte, error) {
	if days&0x80 != 0 {
		return nil, fmt.Errorf("schedule day mask 0x%02X has bit 7 set", days)
	}
	buf := make([]byte, 0, 15)
	buf = append(buf, days)
	for i, t := range times {
		if t.Hour > 23 || t.Minute > 59 {
			return nil, fmt.Errorf("schedule time for day %d invalid: %02d:%02d", i, t.Hour, t.Minute)
		}
		buf = append(buf, t.Hour, t.Minute)
	}
	return buf, nil
}

// DayTimePayload encodes the robot clock.
func DayTimePayload(day time.Weekday, hour, minute uint8) ([]byte, error) {
	if day < time.Sunday || day > time.Saturday {
		return nil, fmt.Errorf("invalid weekday %d", day)
	}
	if hour > 23 || minute > 59 {
		return nil, fmt.Errorf("invalid time %02d:%02d", hour, minute)
	}
	return []byte{uint8(day), hour, minute}, nil
}
