// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package oi

import "time"

// Roomba exposes one method per OI command. Every method delegates to the
// wrapped Engine, which does all validation and mode tracking.
type Roomba struct {
	engine *Engine
}

// NewRoomba wraps an engine.
func NewRoomba(engine *Engine) *Roomba {
	return &Roomba{engine: engine}
}

// Engine returns the wrapped engine.
func (r *Roomba) Engine() *Engine {
	return r.engine
}

// Start starts the OI. It must be the first command after power-on or
// after Stop/Reset. Changes mode to Passive.
func (r *Roomba) Start() error { return r.engine.Dispatch(OpStart, nil) }

// Reset resets the robot as if the battery had been reinserted. Changes
// mode to Off.
func (r *Roomba) Reset() error { return r.engine.Dispatch(OpReset, nil) }

// Stop stops the OI; the robot no longer responds until Start. Changes
// mode to Off.
func (r *Roomba) Stop() error { return r.engine.Dispatch(OpStop, nil) }

// Safe enters Safe mode.
func (r *Roomba) Safe() error { return r.engine.Dispatch(OpSafe, nil) }

// Full enters Full mode. Cliff, wheel-drop and charger safety features are
// turned off.
func (r *Roomba) Full() error { return r.engine.Dispatch(OpFull, nil) }

// Power powers the robot down. Changes mode to Passive.
func (r *Roomba) Power() error { return r.engine.Dispatch(OpPower, nil) }

func (r *Roomba) Spot() error     { return r.engine.Dispatch(OpSpot, nil) }
func (r *Roomba) Clean() error    { return r.engine.Dispatch(OpClean, nil) }
func (r *Roomba) MaxClean() error { return r.engine.Dispatch(OpMaxClean, nil) }
func (r *Roomba) SeekDock() error { return r.engine.Dispatch(OpSeekDock, nil) }

// Baud changes the robot's bit rate. See Engine.SetBaud.
func (r *Roomba) Baud(code int) error { return r.engine.SetBaud(code) }

// WakeUp wakes a sleeping robot. See Engine.WakeUp.
func (r *Roomba) WakeUp() error { return r.engine.WakeUp() }

// Drive drives at velocity (mm/s) along a turn of radius (mm). Use
// RadiusStraight, RadiusSpinCW or RadiusSpinCCW for the special cases.
func (r *Roomba) Drive(velocity, radius int16) error {
	data, err := DrivePayload(velocity, radius)
	if err != nil {
		return err
	}
	return r.engine.Dispatch(OpDrive, data)
}

// DriveDirect sets each wheel's velocity in mm/s.
func (r *Roomba) DriveDirect(right, left int16) error {
	data, err := DriveDirectPayload(right, left)
	if err != nil {
		return err
	}
	return r.engine.Dispatch(OpDriveDirect, data)
}

// DrivePWM sets each wheel's PWM duty cycle.
func (r *Roomba) DrivePWM(right, left int16) error {
	data, err := DrivePWMPayload(right, left)
	if err != nil {
		return err
	}
	return r.engine.Dispatch(OpDrivePWM, data)
}

// Halt stops both wheels.
func (r *Roomba) Halt() error { return r.DriveDirect(0, 0) }

// Motors switches the cleaning motors on and off (Motor* bits).
func (r *Roomba) Motors(bits uint8) error {
	return r.engine.Dispatch(OpMotors, []byte{bits})
}

// PWMMotors sets the cleaning motor duty cycles.
func (r *Roomba) PWMMotors(mainBrush, sideBrush int8, vacuum uint8) error {
	data, err := PWMMotorsPayload(mainBrush, sideBrush, vacuum)
	if err != nil {
		return err
	}
	return r.engine.Dispatch(OpPWMMotors, data)
}

// LEDs sets the LED bits and the Clean/Power LED color and intensity.
func (r *Roomba) LEDs(bits, color, intensity uint8) error {
	return r.engine.Dispatch(OpLEDs, []byte{bits, color, intensity})
}

func (r *Roomba) SchedulingLEDs(weekday, bits uint8) error {
	return r.engine.Dispatch(OpSchedulingLEDs, []byte{weekday, bits})
}

func (r *Roomba) DigitLEDsRaw(digits [4]byte) error {
	return r.engine.Dispatch(OpDigitLEDsRaw, digits[:])
}

// DigitLEDsASCII shows up to four characters on the display.
func (r *Roomba) DigitLEDsASCII(text string) error {
	data, err := DigitLEDsASCIIPayload(text)
	if err != nil {
		return err
	}
	return r.engine.Dispatch(OpDigitLEDsASCII, data)
}

// Buttons pushes buttons as if pressed (bits as in the Buttons sensor
// packet).
func (r *Roomba) Buttons(bits uint8) error {
	return r.engine.Dispatch(OpButtons, []byte{bits})
}

// Song stores a song in slot number.
func (r *Roomba) Song(number uint8, notes []Note) error {
	data, err := SongPayload(number, notes)
	if err != nil {
		return err
	}
	return r.engine.Dispatch(OpSong, data)
}

// Play plays a stored song.
func (r *Roomba) Play(number uint8) error {
	return r.engine.Dispatch(OpPlay, []byte{number})
}

// Schedule sets the weekly cleaning schedule.
func (r *Roomba) Schedule(days uint8, times [7]ScheduleTime) error {
	data, err := SchedulePayload(days, times)
	if err != nil {
		return err
	}
	return r.engine.Dispatch(OpSchedule, data)
}

// SetDayTime sets the robot clock.
func (r *Roomba) SetDayTime(day time.Weekday, hour, minute uint8) error {
	data, err := DayTimePayload(day, hour, minute)
	if err != nil {
		return err
	}
	return r.engine.Dispatch(OpSetDayTime, data)
}

// Query requests one sensor packet. The response is not read.
func (r *Roomba) Query(packetID uint8) error {
	return r.engine.Dispatch(OpQuery, []byte{packetID})
}

// QueryList requests several sensor packets. The response is not read.
func (r *Roomba) QueryList(ids ...uint8) error {
	data, err := PacketListPayload(ids...)
	if err != nil {
		return err
	}
	return r.engine.Dispatch(OpQueryList, data)
}

// Stream starts a sensor stream. The stream is not read.
func (r *Roomba) Stream(ids ...uint8) error {
	data, err := PacketListPayload(ids...)
	if err != nil {
		return err
	}
	return r.engine.Dispatch(OpStream, data)
}

func (r *Roomba) PauseStream() error {
	return r.engine.Dispatch(OpPauseResumeStream, []byte{0})
}

func (r *Roomba) ResumeStream() error {
	return r.engine.Dispatch(OpPauseResumeStream, []byte{1})
}

// StartCleaning starts the OI, takes control and starts a default clean.
func (r *Roomba) StartCleaning() error {
	for _, op := range []Opcode{OpStart, OpSafe, OpClean} {
		if err := r.engine.Dispatch(op, nil); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown powers the robot down and stops the OI.
func (r *Roomba) Shutdown() error {
	for _, op := range []Opcode{OpPower, OpStop} {
		if err := r.engine.Dispatch(op, nil); err != nil {
			return err
		}
	}
	return nil
}
