// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"testing"
	"time"

	"github.com/Thermoquad/oictl/pkg/oi"
)

func TestParseBRCLine(t *testing.T) {
	tests := []struct {
		in       string
		line     string
		inverted bool
		wantErr  bool
	}{
		{"rts", "rts", false, false},
		{"DTR", "dtr", false, false},
		{"!rts", "rts", true, false},
		{" !dtr ", "dtr", true, false},
		{"none", "none", false, false},
		{"", "none", false, false},
		{"!none", "", false, true},
		{"cts", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			line, inverted, err := parseBRCLine(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseBRCLine(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if line != tt.line || inverted != tt.inverted {
				t.Errorf("parseBRCLine(%q) = %q, %v; want %q, %v", tt.in, line, inverted, tt.line, tt.inverted)
			}
		})
	}
}

// modemLines records RTS/DTR levels
type modemLines struct {
	rts []bool
	dtr []bool
}

func (m *modemLines) SetRTS(v bool) error {
	m.rts = append(m.rts, v)
	return nil
}

func (m *modemLines) SetDTR(v bool) error {
	m.dtr = append(m.dtr, v)
	return nil
}

func TestModemLinePin(t *testing.T) {
	lines := &modemLines{}
	rts := &modemLinePin{port: lines, line: "rts"}
	dtr := &modemLinePin{port: lines, line: "dtr", inverted: true}

	for _, p := range []*modemLinePin{rts, dtr} {
		if err := p.SetOutput(); err != nil {
			t.Fatal(err)
		}
		p.Set(false)
		p.Set(true)
	}

	if len(lines.rts) != 2 || lines.rts[0] || !lines.rts[1] {
		t.Errorf("rts = %v, want [false true]", lines.rts)
	}
	if len(lines.dtr) != 2 || !lines.dtr[0] || lines.dtr[1] {
		t.Errorf("inverted dtr = %v, want [true false]", lines.dtr)
	}
}

func TestModemLinePin_WakeUp(t *testing.T) {
	lines := &modemLines{}
	pin := &modemLinePin{port: lines, line: "rts"}
	engine := oi.New(&modemSink{}, oi.WithPin(pin), oi.WithSleep(func(time.Duration) {}))

	if err := engine.WakeUp(); err != nil {
		t.Fatalf("WakeUp() failed: %v", err)
	}
	want := []bool{false, true, false, false, true, false, false, true, false}
	if len(lines.rts) != len(want) {
		t.Fatalf("rts edges = %v", lines.rts)
	}
	for i := range want {
		if lines.rts[i] != want[i] {
			t.Errorf("edge %d = %v, want %v", i, lines.rts[i], want[i])
		}
	}
}

type modemSink struct{}

func (modemSink) Write(p []byte) (int, error) { return len(p), nil }

func TestOpenConnection_NoTarget(t *testing.T) {
	saveSettings(t)
	portName, wsURL = "", ""

	if _, _, _, err := OpenConnection(); err == nil {
		t.Error("OpenConnection() with no port or URL should fail")
	}
}

func TestOpenConnection_BadBRCLine(t *testing.T) {
	saveSettings(t)
	portName, wsURL, brcLine = "/dev/does-not-exist", "", "cts"

	_, _, _, err := OpenConnection()
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenWebSocketConnection_BadScheme(t *testing.T) {
	if _, err := OpenWebSocketConnection("http://example.invalid/ws", "", "", false); err == nil {
		t.Error("http:// URL should be rejected")
	}
}

func TestConnectionManager_NoPin(t *testing.T) {
	cm := newConnectionManager(nil, nil, "", 115200, openConnectionAt)
	if err := cm.SetOutput(); !errors.Is(err, oi.ErrNoPin) {
		t.Errorf("SetOutput() = %v, want ErrNoPin", err)
	}
	if _, err := cm.Write([]byte{128}); !errors.Is(err, errNotConnected) {
		t.Errorf("Write() = %v, want errNotConnected", err)
	}
}

// flakyConn fails every write once broken is set
type flakyConn struct {
	rate   int
	broken bool
	closed bool
}

func (c *flakyConn) Write(p []byte) (int, error) {
	if c.broken {
		return 0, errors.New("link down")
	}
	return len(p), nil
}

func (c *flakyConn) Close() error {
	c.closed = true
	return nil
}

func (c *flakyConn) SetBaudRate(rate int) error {
	c.rate = rate
	return nil
}

func TestConnectionManager_ReconnectKeepsBaudRate(t *testing.T) {
	first := &flakyConn{rate: 115200}
	var opened []int
	open := func(rate int) (Connection, oi.Pin, string, error) {
		opened = append(opened, rate)
		return &flakyConn{rate: rate}, nil, "fake", nil
	}

	cm := newConnectionManager(first, nil, "fake", 115200, open)
	cm.backoff = time.Millisecond
	engine := oi.New(cm, oi.WithBaudRate(115200), oi.WithSleep(func(time.Duration) {}))

	if err := engine.Dispatch(oi.OpStart, nil); err != nil {
		t.Fatal(err)
	}
	if err := engine.SetBaud(7); err != nil {
		t.Fatalf("SetBaud failed: %v", err)
	}
	if first.rate != 19200 {
		t.Fatalf("old link rate = %d, want 19200", first.rate)
	}

	first.broken = true
	if err := engine.Dispatch(oi.OpSafe, nil); err == nil {
		t.Fatal("expected write error")
	}

	select {
	case <-cm.lost:
	default:
		t.Fatal("write error did not mark the connection lost")
	}
	if !cm.reconnect() {
		t.Fatal("reconnect returned false")
	}

	if len(opened) != 1 || opened[0] != engine.BaudRate() {
		t.Errorf("reopened at %v, want [%d]", opened, engine.BaudRate())
	}
	if !first.closed {
		t.Error("old connection not closed")
	}
	if err := engine.Dispatch(oi.OpSafe, nil); err != nil {
		t.Errorf("Dispatch after reconnect failed: %v", err)
	}
}
