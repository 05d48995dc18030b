// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/Thermoquad/oictl/pkg/oi"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

const (
	defaultDriveSpeed = 200 // mm/s
	driveSpeedStep    = 50
	minDriveSpeed     = 50
	maxLogEntries     = 100
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// controlKey binds a single key to a robot command
type controlKey struct {
	key   string
	label string
	run   func(r *oi.Roomba) error
}

var controlKeys = []controlKey{
	{"s", "start", (*oi.Roomba).Start},
	{"a", "safe", (*oi.Roomba).Safe},
	{"f", "full", (*oi.Roomba).Full},
	{"c", "clean", (*oi.Roomba).Clean},
	{"x", "spot", (*oi.Roomba).Spot},
	{"m", "max", (*oi.Roomba).MaxClean},
	{"d", "dock", (*oi.Roomba).SeekDock},
	{"p", "power", (*oi.Roomba).Power},
	{"o", "stop", (*oi.Roomba).Stop},
	{"r", "reset", (*oi.Roomba).Reset},
	{"w", "wake", (*oi.Roomba).WakeUp},
	{" ", "halt", (*oi.Roomba).Halt},
}

func findControlKey(key string) (controlKey, bool) {
	for _, k := range controlKeys {
		if k.key == key {
			return k, true
		}
	}
	return controlKey{}, false
}

type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	engine   *oi.Engine
	robot    *oi.Roomba
	logger   zerolog.Logger
	connInfo string

	// Engine state, refreshed by engineSnapshotMsg
	mode       oi.Mode
	baud       int
	stats      oi.Statistics
	traceTable table.Model

	// Control
	cmdInput        textinput.Model
	inputActive     bool
	driveSpeed      int16
	pending         int
	keepAwakeCancel context.CancelFunc

	eventLog []logEntry

	// UI state
	width          int
	height         int
	quitting       bool
	connectionLost bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type controlTickMsg time.Time

type engineSnapshotMsg struct {
	mode  oi.Mode
	baud  int
	stats oi.Statistics
	trace []oi.TraceEntry
}

type actionDoneMsg struct {
	label string
	err   error
}

type keepAwakeStoppedMsg struct {
	err error
}

type logLineMsg string

type connectionLostMsg struct{}

type reconnectedMsg struct {
	connInfo string
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialControlModel(engine *oi.Engine, connInfo string, log zerolog.Logger) controlModel {
	ti := textinput.New()
	ti.Prompt = ": "
	ti.Placeholder = "drive_direct:0,100,0,100"
	ti.CharLimit = 128
	ti.Width = 40

	columns := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Command", Width: 20},
		{Title: "Op", Width: 4},
		{Title: "Data", Width: 24},
		{Title: "Mode", Width: 8},
	}
	tt := table.New(
		table.WithColumns(columns),
		table.WithHeight(engine.TraceCapacity()+1),
		table.WithFocused(false),
	)

	return controlModel{
		engine:     engine,
		robot:      oi.NewRoomba(engine),
		logger:     log,
		connInfo:   connInfo,
		mode:       engine.Mode(),
		baud:       engine.BaudRate(),
		traceTable: tt,
		cmdInput:   ti,
		driveSpeed: defaultDriveSpeed,
		eventLog:   make([]logEntry, 0),
		width:      80,
		height:     24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	return tea.Batch(controlTickCmd(), snapshotCmd(m.engine))
}

func controlTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return controlTickMsg(t)
	})
}

// snapshotCmd reads engine state off the UI goroutine; the engine may be
// busy with a wake sequence for several seconds.
func snapshotCmd(engine *oi.Engine) tea.Cmd {
	return func() tea.Msg {
		trace, _ := engine.Trace()
		return engineSnapshotMsg{
			mode:  engine.Mode(),
			baud:  engine.BaudRate(),
			stats: engine.Stats(),
			trace: trace,
		}
	}
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd := m.handleKeyMsg(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case controlTickMsg:
		return m, tea.Batch(controlTickCmd(), snapshotCmd(m.engine))

	case engineSnapshotMsg:
		m.mode = msg.mode
		m.baud = msg.baud
		m.stats = msg.stats
		m.traceTable.SetRows(traceRows(msg.trace))

	case actionDoneMsg:
		if m.pending > 0 {
			m.pending--
		}
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("%s: %v", msg.label, msg.err), true)
		} else {
			m.addLogEntry(msg.label, false)
		}
		return m, snapshotCmd(m.engine)

	case keepAwakeStoppedMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.addLogEntry(fmt.Sprintf("keep-awake stopped: %v", msg.err), true)
			m.keepAwakeCancel = nil
		}

	case logLineMsg:
		m.addLogEntry(string(msg), false)

	case connectionLostMsg:
		m.connectionLost = true
		m.addLogEntry("Connection lost - reconnecting...", true)

	case reconnectedMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		m.addLogEntry("Reconnected", false)
	}

	return m, nil
}

func (m *controlModel) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if m.inputActive {
		switch msg.Type {
		case tea.KeyEsc:
			m.closeInput()
			return nil
		case tea.KeyEnter:
			text := m.cmdInput.Value()
			m.closeInput()
			return m.submitInput(text)
		}
		var cmd tea.Cmd
		m.cmdInput, cmd = m.cmdInput.Update(msg)
		return cmd
	}

	speed := m.driveSpeed
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.stopKeepAwake()
		return tea.Quit

	case ":":
		m.inputActive = true
		return m.cmdInput.Focus()

	case "up":
		return m.action(fmt.Sprintf("forward %d", speed), func(r *oi.Roomba) error { return r.DriveDirect(speed, speed) })

	case "down":
		return m.action(fmt.Sprintf("reverse %d", speed), func(r *oi.Roomba) error { return r.DriveDirect(-speed, -speed) })

	case "left":
		return m.action(fmt.Sprintf("spin left %d", speed), func(r *oi.Roomba) error { return r.Drive(speed, oi.RadiusSpinCCW) })

	case "right":
		return m.action(fmt.Sprintf("spin right %d", speed), func(r *oi.Roomba) error { return r.Drive(speed, oi.RadiusSpinCW) })

	case "+", "=":
		m.driveSpeed = min(m.driveSpeed+driveSpeedStep, oi.MaxVelocity)
		return nil

	case "-":
		m.driveSpeed = max(m.driveSpeed-driveSpeedStep, minDriveSpeed)
		return nil

	case "k":
		return m.toggleKeepAwake()

	case "z":
		engine := m.engine
		return func() tea.Msg {
			engine.ResetStats()
			return actionDoneMsg{label: "statistics reset"}
		}
	}

	if k, ok := findControlKey(msg.String()); ok {
		return m.action(k.label, k.run)
	}
	return nil
}

// action runs fn against the robot off the UI goroutine
func (m *controlModel) action(label string, fn func(r *oi.Roomba) error) tea.Cmd {
	m.pending++
	robot := m.robot
	return func() tea.Msg {
		return actionDoneMsg{label: label, err: fn(robot)}
	}
}

// submitInput parses a raw command line ("name:b,b" or "wait:1s")
func (m *controlModel) submitInput(text string) tea.Cmd {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	s, err := parseStep(text)
	if err != nil {
		m.addLogEntry(err.Error(), true)
		return nil
	}
	return m.action(s.String(), func(r *oi.Roomba) error { return execStep(r.Engine(), s) })
}

func (m *controlModel) closeInput() {
	m.inputActive = false
	m.cmdInput.Blur()
	m.cmdInput.SetValue("")
}

func (m *controlModel) toggleKeepAwake() tea.Cmd {
	if m.keepAwakeCancel != nil {
		m.stopKeepAwake()
		m.addLogEntry("keep-awake off", false)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.keepAwakeCancel = cancel

	k := newKeepAwake(m.engine)
	k.Logger = m.logger
	m.addLogEntry(fmt.Sprintf("keep-awake on (pulse %s every %s)", k.Pulse, k.Interval), false)

	return func() tea.Msg {
		return keepAwakeStoppedMsg{err: k.Run(ctx)}
	}
}

func (m *controlModel) stopKeepAwake() {
	if m.keepAwakeCancel != nil {
		m.keepAwakeCancel()
		m.keepAwakeCancel = nil
	}
}

func (m *controlModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	if len(m.eventLog) > maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-maxLogEntries:]
	}
}

func traceRows(entries []oi.TraceEntry) []table.Row {
	rows := make([]table.Row, 0, len(entries))
	for i, e := range entries {
		mode := e.Mode.String()
		if e.Mode == oi.ModeNone {
			mode = "-"
		}
		rows = append(rows, table.Row{
			strconv.Itoa(i),
			oi.FormatOpcode(e.Opcode),
			strconv.Itoa(int(e.Opcode)),
			oi.FormatPayload(e.Payload),
			mode,
		})
	}
	return rows
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	s.WriteString(titleStyle.Render("OICTL CONTROL"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.connectionLost {
		connStatus = warningStyle.Render("RECONNECTING...")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit :=command k=keep-awake z=reset stats", connStatus)))
	s.WriteString("\n\n")

	// Status and key help side by side
	status := m.renderStatus(statsLabelStyle, statsValueStyle, warningStyle)
	keys := m.renderKeyHelp(statsLabelStyle, headerStyle)
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Width(34).Render(status), " ",
		boxStyle.Width(max(m.width-40, 30)).Render(keys)))
	s.WriteString("\n")

	s.WriteString(m.renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle))
	s.WriteString("\n")

	// Trace
	var trace strings.Builder
	trace.WriteString(statsLabelStyle.Render("TRACE (most recent first)"))
	trace.WriteString("\n")
	trace.WriteString(m.traceTable.View())
	s.WriteString(boxStyle.Width(max(m.width-4, 40)).Render(trace.String()))
	s.WriteString("\n")

	if m.inputActive {
		s.WriteString(m.cmdInput.View())
		s.WriteString("\n")
	}

	s.WriteString(m.renderEventLog(statsLabelStyle, errorStyle, headerStyle, boxStyle))

	return s.String()
}

//////////////////////////////////////////////////////////////
// View Helpers
//////////////////////////////////////////////////////////////

func (m controlModel) renderStatus(labelStyle, valueStyle, warningStyle lipgloss.Style) string {
	var s strings.Builder

	mode := valueStyle.Render(strings.ToUpper(m.mode.String()))
	if m.mode == oi.ModeOff {
		mode = warningStyle.Render("OFF")
	}
	fmt.Fprintf(&s, "%s %s\n", labelStyle.Render("Mode:"), mode)
	fmt.Fprintf(&s, "%s %s\n", labelStyle.Render("Baud:"), valueStyle.Render(fmt.Sprintf("%d bps", m.baud)))
	fmt.Fprintf(&s, "%s %s\n", labelStyle.Render("Speed:"), valueStyle.Render(fmt.Sprintf("%d mm/s", m.driveSpeed)))

	keepAwake := "off"
	if m.keepAwakeCancel != nil {
		keepAwake = "on"
	}
	fmt.Fprintf(&s, "%s %s", labelStyle.Render("Keep-awake:"), valueStyle.Render(keepAwake))

	if m.pending > 0 {
		fmt.Fprintf(&s, "\n%s", warningStyle.Render(fmt.Sprintf("%d command(s) in flight", m.pending)))
	}
	return s.String()
}

func (m controlModel) renderKeyHelp(labelStyle, headerStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("KEYS"))
	s.WriteString("\n")

	for i, k := range controlKeys {
		key := k.key
		if key == " " {
			key = "space"
		}
		fmt.Fprintf(&s, "%-6s %-7s", key, k.label)
		if i%3 == 2 {
			s.WriteString("\n")
		}
	}
	s.WriteString(headerStyle.Render("arrows drive  +/- speed"))
	return s.String()
}

func (m controlModel) renderStatisticsBar(labelStyle, valueStyle, errorStyle, boxStyle lipgloss.Style) string {
	rejected := valueStyle.Render("0")
	if m.stats.Rejected > 0 {
		rejected = errorStyle.Render(fmt.Sprintf("%d", m.stats.Rejected))
	}

	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s  %s %s",
		labelStyle.Render("Sent:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.Dispatched)),
		labelStyle.Render("Rejected:"), rejected,
		labelStyle.Render("Bytes:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.BytesWritten)),
		labelStyle.Render("Mode changes:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.ModeTransitions)),
		labelStyle.Render("Rate:"), valueStyle.Render(fmt.Sprintf("%.1f cmd/s", m.stats.CommandRate)),
	)

	return boxStyle.Width(max(m.width-4, 40)).Render(content)
}

func (m controlModel) renderEventLog(labelStyle, errorStyle, headerStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")

	logHeight := 6
	if len(m.eventLog) < logHeight {
		logHeight = len(m.eventLog)
	}
	startIdx := len(m.eventLog) - logHeight

	if len(m.eventLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			line := fmt.Sprintf("%s %s", entry.timestamp.Format("15:04:05.000"), entry.message)
			if entry.isError {
				line = errorStyle.Render(line)
			}
			s.WriteString(line)
			if i < len(m.eventLog)-1 {
				s.WriteString("\n")
			}
		}
	}

	return boxStyle.Width(max(m.width-4, 40)).Render(s.String())
}
