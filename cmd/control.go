// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/oictl/pkg/oi"
)

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for driving the robot",
	Long: `Control the robot via an interactive terminal UI.

Features:
  - Single-key OI commands (start, safe, full, clean, dock, ...)
  - Arrow key driving with adjustable speed
  - Raw command entry (":" then e.g. drive_direct:0,100,0,100)
  - Tracked mode, baud rate and command statistics
  - Trace of the last commands sent
  - Keep-awake toggle
  - Automatic reconnection on connection loss

Supports both serial and WebSocket connections.`,
	Args: cobra.NoArgs,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
}

var errNotConnected = fmt.Errorf("not connected")

// connectionOpener opens a link with the serial side at rate
type connectionOpener func(rate int) (Connection, oi.Pin, string, error)

// connectionManager handles connection lifecycle and reconnection. The
// engine writes through it, so a replaced connection keeps the tracked
// mode and trace. rate follows every successful SetBaudRate so a reopened
// link talks at the robot's current rate.
type connectionManager struct {
	conn     Connection
	pin      oi.Pin
	connInfo string
	rate     int
	open     connectionOpener
	backoff  time.Duration
	mu       sync.RWMutex
	p        *tea.Program
	done     chan struct{}
	lost     chan struct{}
}

func newConnectionManager(conn Connection, pin oi.Pin, connInfo string, rate int, open connectionOpener) *connectionManager {
	return &connectionManager{
		conn:     conn,
		pin:      pin,
		connInfo: connInfo,
		rate:     rate,
		open:     open,
		backoff:  1 * time.Second,
		done:     make(chan struct{}),
		lost:     make(chan struct{}, 1),
	}
}

func (cm *connectionManager) getConn() (Connection, oi.Pin) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.conn, cm.pin
}

func (cm *connectionManager) baudRate() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.rate
}

func (cm *connectionManager) setConn(conn Connection, pin oi.Pin, connInfo string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.conn = conn
	cm.pin = pin
	cm.connInfo = connInfo
}

func (cm *connectionManager) markLost() {
	select {
	case cm.lost <- struct{}{}:
	default:
	}
}

func (cm *connectionManager) Write(p []byte) (int, error) {
	conn, _ := cm.getConn()
	if conn == nil {
		return 0, errNotConnected
	}
	n, err := conn.Write(p)
	if err != nil {
		cm.markLost()
	}
	return n, err
}

// SetBaudRate retunes the current connection if it supports it and
// remembers the rate for reconnects
func (cm *connectionManager) SetBaudRate(rate int) error {
	conn, _ := cm.getConn()
	if setter, ok := conn.(oi.BaudRateSetter); ok {
		if err := setter.SetBaudRate(rate); err != nil {
			return err
		}
	}
	cm.mu.Lock()
	cm.rate = rate
	cm.mu.Unlock()
	return nil
}

// SetOutput and Set forward to the current connection's BRC pin
func (cm *connectionManager) SetOutput() error {
	_, pin := cm.getConn()
	if pin == nil {
		return oi.ErrNoPin
	}
	return pin.SetOutput()
}

func (cm *connectionManager) Set(high bool) error {
	_, pin := cm.getConn()
	if pin == nil {
		return oi.ErrNoPin
	}
	return pin.Set(high)
}

func (cm *connectionManager) Close() error {
	conn, _ := cm.getConn()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// send delivers a message to the TUI unless it is shutting down
func (cm *connectionManager) send(msg tea.Msg) {
	select {
	case <-cm.done:
	default:
		if cm.p != nil {
			cm.p.Send(msg)
		}
	}
}

// tuiLogWriter feeds formatted log lines into the TUI event log
type tuiLogWriter struct {
	cm *connectionManager
}

func (w tuiLogWriter) Write(p []byte) (int, error) {
	line := strings.TrimSpace(string(p))
	if line != "" {
		w.cm.send(logLineMsg(line))
	}
	return len(p), nil
}

func runControl(cmd *cobra.Command, args []string) error {
	conn, pin, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}

	cm := newConnectionManager(conn, pin, connInfo, baudRate, openConnectionAt)

	// Engine logs go to the event log while the alt screen is up
	tuiLogger := logger.Output(zerolog.ConsoleWriter{
		Out:        tuiLogWriter{cm: cm},
		NoColor:    true,
		TimeFormat: "15:04:05",
	})

	engine, err := newEngine(cm, cm, oi.WithLogger(tuiLogger), oi.WithTrace(oi.DefaultTraceCapacity))
	if err != nil {
		cm.Close()
		return err
	}

	m := initialControlModel(engine, connInfo, tuiLogger)

	p := tea.NewProgram(m, tea.WithAltScreen())
	cm.p = p

	go cm.reconnectLoop()

	final, err := p.Run()
	close(cm.done)
	if fm, ok := final.(controlModel); ok {
		fm.stopKeepAwake()
	}
	cm.Close()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	fmt.Print(engine.Stats())
	return nil
}

// reconnectLoop waits for write failures and reopens the connection
func (cm *connectionManager) reconnectLoop() {
	for {
		select {
		case <-cm.done:
			return
		case <-cm.lost:
		}

		cm.send(connectionLostMsg{})

		if !cm.reconnect() {
			return // Shutdown requested during reconnect
		}
	}
}

// reconnect attempts to reconnect with exponential backoff
// Returns false if shutdown was requested during reconnection
func (cm *connectionManager) reconnect() bool {
	if conn, _ := cm.getConn(); conn != nil {
		conn.Close()
	}

	backoff := cm.backoff
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-cm.done:
			return false
		case <-time.After(backoff):
		}

		conn, pin, connInfo, err := cm.open(cm.baudRate())
		if err == nil {
			cm.setConn(conn, pin, connInfo)
			// Drop failures from the old connection
			select {
			case <-cm.lost:
			default:
			}
			cm.send(reconnectedMsg{connInfo: connInfo})
			return true
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
