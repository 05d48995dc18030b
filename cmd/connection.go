// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"

	"github.com/Thermoquad/oictl/pkg/oi"
)

// Connection is the byte sink the engine writes OI commands to
type Connection interface {
	io.Writer
	io.Closer
}

// SerialConnection wraps a serial port
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConnection) Close() error {
	return s.port.Close()
}

// SetBaudRate retunes the host side of the link after a Baud command
func (s *SerialConnection) SetBaudRate(rate int) error {
	return s.port.SetMode(serialMode(rate))
}

// Pin returns the BRC pin wired to the given modem line, or nil for "none"
func (s *SerialConnection) Pin(line string) (oi.Pin, error) {
	name, inverted, err := parseBRCLine(line)
	if err != nil {
		return nil, err
	}
	if name == "none" {
		return nil, nil
	}
	return &modemLinePin{port: s.port, line: name, inverted: inverted}, nil
}

func serialMode(rate int) *serial.Mode {
	return &serial.Mode{
		BaudRate: rate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// parseBRCLine parses rts, dtr, !rts, !dtr or none
func parseBRCLine(s string) (line string, inverted bool, err error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "!") {
		inverted = true
		s = s[1:]
	}
	switch s {
	case "rts", "dtr":
		return s, inverted, nil
	case "", "none":
		if inverted {
			break
		}
		return "none", false, nil
	}
	return "", false, fmt.Errorf("invalid BRC line %q (use rts, dtr, !rts, !dtr or none)", s)
}

// modemLineSetter is the subset of serial.Port used to drive BRC
type modemLineSetter interface {
	SetRTS(rts bool) error
	SetDTR(dtr bool) error
}

// modemLinePin drives BRC from RTS or DTR. Modem lines are always outputs.
type modemLinePin struct {
	port     modemLineSetter
	line     string
	inverted bool
}

func (p *modemLinePin) SetOutput() error {
	return nil
}

func (p *modemLinePin) Set(high bool) error {
	level := high != p.inverted
	if p.line == "dtr" {
		return p.port.SetDTR(level)
	}
	return p.port.SetRTS(level)
}

// ErrConnectionClosed is returned when writing to a closed WebSocket connection
var ErrConnectionClosed = fmt.Errorf("websocket connection closed")

// WebSocketConnection sends OI bytes through a WiFi-serial bridge as binary
// messages. Anything the bridge sends back is discarded.
type WebSocketConnection struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool // Track if connection has failed/closed
}

func newWebSocketConnection(conn *websocket.Conn) *WebSocketConnection {
	w := &WebSocketConnection{conn: conn}
	go w.drain()
	return w
}

// drain keeps control frames flowing and notices when the bridge goes away
func (w *WebSocketConnection) drain() {
	for {
		if _, _, err := w.conn.ReadMessage(); err != nil {
			w.mu.Lock()
			w.closed = true
			w.mu.Unlock()
			return
		}
	}
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, ErrConnectionClosed
	}
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		w.closed = true
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketConnection) Close() error {
	return w.conn.Close()
}

// OpenSerialConnection opens a serial port connection
func OpenSerialConnection(portName string, baudRate int) (*SerialConnection, error) {
	port, err := serial.Open(portName, serialMode(baudRate))
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	return &SerialConnection{port: port}, nil
}

// OpenWebSocketConnection opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool) (*WebSocketConnection, error) {
	// Parse and validate URL
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return newWebSocketConnection(conn), nil
}

// promptedPassword is reused when the control TUI reconnects
var promptedPassword string

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("OICTL_PASSWORD"); pw != "" {
		return pw, nil
	}
	if promptedPassword != "" {
		return promptedPassword, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		promptedPassword = strings.TrimSpace(password)
		return promptedPassword, nil
	}

	fmt.Fprintln(os.Stderr)
	promptedPassword = string(passwordBytes)
	return promptedPassword, nil
}

// OpenConnection opens either a serial or WebSocket connection based on
// flags. The pin is nil when the link has no BRC line.
func OpenConnection() (Connection, oi.Pin, string, error) {
	return openConnectionAt(baudRate)
}

// openConnectionAt is OpenConnection with the serial port opened at rate
// instead of --baud. WebSocket links ignore the rate.
func openConnectionAt(rate int) (Connection, oi.Pin, string, error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, nil, "", err
			}
		}

		conn, err := OpenWebSocketConnection(wsURL, wsUsername, password, wsNoSSLVerify)
		if err != nil {
			return nil, nil, "", err
		}

		return conn, nil, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	if portName != "" {
		if _, _, err := parseBRCLine(brcLine); err != nil {
			return nil, nil, "", err
		}

		conn, err := OpenSerialConnection(portName, rate)
		if err != nil {
			return nil, nil, "", err
		}

		pin, err := conn.Pin(brcLine)
		if err != nil {
			conn.Close()
			return nil, nil, "", err
		}

		return conn, pin, fmt.Sprintf("Serial: %s @ %d baud", portName, rate), nil
	}

	return nil, nil, "", fmt.Errorf("either --port or --url must be specified")
}
