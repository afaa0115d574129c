// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Thermoquad/unistat/pkg/unimotion"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Focus states
const (
	focusSensorTable = iota
	focusCommandBar
)

// sensorRow is the monitor's view of one sensor slot
type sensorRow struct {
	device    unimotion.UniSensorDevice
	datagram  unimotion.Datagram
	hasData   bool
	lastSeen  time.Time
	count     uint64
	lastCount uint64
	rate      float64 // datagrams/sec over the last tick
}

type monitorModel struct {
	session  *unimotion.Session
	connInfo string
	station  unimotion.StationState

	sensors map[uint8]*sensorRow
	table   table.Model
	input   textinput.Model
	focus   int

	stats         *unimotion.Statistics
	errorLog      []errorLogEntry
	maxLogEntries int

	lastTick time.Time
	width    int
	height   int
	quitting bool
	closed   bool
}

type monitorTickMsg time.Time

// commandResultMsg reports the outcome of a command sent from the bar
type commandResultMsg struct {
	command unimotion.Command
	err     error
}

func initialMonitorModel(session *unimotion.Session, connInfo string) monitorModel {
	ti := textinput.New()
	ti.Placeholder = "enable-ahrs 3"
	ti.Prompt = "> "
	ti.CharLimit = 64
	ti.Width = 40

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 3},
			{Title: "Address", Width: 17},
			{Title: "Batt", Width: 5},
			{Title: "AHRS", Width: 4},
			{Title: "Roll", Width: 7},
			{Title: "Pitch", Width: 7},
			{Title: "Yaw", Width: 7},
			{Title: "Rate", Width: 7},
			{Title: "Last", Width: 8},
		}),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	m := monitorModel{
		session:       session,
		connInfo:      connInfo,
		station:       session.Station(),
		sensors:       make(map[uint8]*sensorRow),
		table:         t,
		input:         ti,
		focus:         focusSensorTable,
		stats:         unimotion.NewStatistics(),
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		lastTick:      time.Now(),
		width:         80,
		height:        24,
	}

	for _, dev := range session.Sensors() {
		if dev.Present() {
			m.sensors[dev.ID] = &sensorRow{device: dev}
		}
	}
	m.addLogEntry(fmt.Sprintf("Station ready: %s, %d sensors paired", unimotion.FormatStation(m.station), len(m.sensors)), false)
	m.refreshTable(time.Now())
	return m
}

func (m monitorModel) Init() tea.Cmd {
	return monitorTickCmd()
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateTableSize()

	case monitorTickMsg:
		now := time.Time(msg)
		elapsed := now.Sub(m.lastTick).Seconds()
		if elapsed > 0 {
			for _, row := range m.sensors {
				row.rate = float64(row.count-row.lastCount) / elapsed
				row.lastCount = row.count
			}
		}
		m.lastTick = now
		m.stats.CalculateRates()
		m.refreshTable(now)
		return m, monitorTickCmd()

	case monitorBatchMsg:
		for _, ev := range msg.events {
			m.processEvent(ev)
		}
		m.refreshTable(time.Now())

	case commandResultMsg:
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("Send %q failed: %v", msg.command.String(), msg.err), true)
		} else {
			m.addLogEntry(fmt.Sprintf("Sent %q", msg.command.String()), false)
		}

	case sessionClosedMsg:
		m.closed = true
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("Connection lost: %v", msg.err), true)
		} else {
			m.addLogEntry("Session closed", true)
		}
	}

	return m, nil
}

func (m monitorModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab", "shift+tab":
		if m.focus == focusSensorTable {
			m.focus = focusCommandBar
			m.table.Blur()
			cmd := m.input.Focus()
			return m, cmd
		}
		m.focus = focusSensorTable
		m.input.Blur()
		m.table.Focus()
		return m, nil
	}

	if m.focus == focusCommandBar {
		if msg.String() == "enter" {
			return m.submitCommand()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "i":
		// Request sensor info for the selected sensor
		if id, ok := m.selectedSensor(); ok {
			return m, m.sendCommand(unimotion.RequestSensorInfo(id))
		}
		return m, nil

	case "r":
		m.stats.Reset()
		m.addLogEntry("Statistics reset", false)
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// submitCommand parses the command bar and sends the command
func (m monitorModel) submitCommand() (tea.Model, tea.Cmd) {
	fields := strings.Fields(m.input.Value())
	m.input.SetValue("")
	if len(fields) == 0 {
		return m, nil
	}

	command, err := unimotion.ParseCommand(fields[0], fields[1:])
	if err != nil {
		m.addLogEntry(err.Error(), true)
		return m, nil
	}
	if m.closed {
		m.addLogEntry("Cannot send command: connection lost", true)
		return m, nil
	}
	return m, m.sendCommand(command)
}

func (m monitorModel) sendCommand(command unimotion.Command) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		return commandResultMsg{command: command, err: session.SendCommand(command)}
	}
}

func (m monitorModel) selectedSensor() (uint8, bool) {
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return 0, false
	}
	id, err := strconv.ParseUint(row[0], 10, 8)
	if err != nil {
		return 0, false
	}
	return uint8(id), true
}

// processEvent applies one response to the model
func (m *monitorModel) processEvent(ev monitorEvent) {
	validationErrors := unimotion.ValidateResponse(ev.resp)
	m.stats.Update(ev.resp, validationErrors)
	for _, err := range validationErrors {
		m.addLogEntry(fmt.Sprintf("%s: %s", unimotion.FormatKind(ev.resp.Kind()), err.Message), true)
	}

	switch v := ev.resp.(type) {
	case unimotion.DataResponse:
		id := v.Datagram.ID
		if int(id) >= unimotion.MaxUniSensorCount {
			return
		}
		row := m.row(id)
		if ev.device.Present() {
			row.device = ev.device
		}
		row.datagram = v.Datagram
		row.hasData = true
		row.lastSeen = ev.timestamp
		row.count++

	case unimotion.DeviceResponse:
		if m.session.ApplyDevice(v) {
			if v.Addr.IsNil() {
				delete(m.sensors, v.ID)
			} else {
				m.row(v.ID).device = m.session.Device(v.ID)
			}
		}

	case unimotion.SensorInfoResponse:
		// Only paired rows keep the info; the reply's address is the station's
		if row, ok := m.sensors[v.ID]; ok && row.device.Present() {
			info := v.Info
			row.device.Info = &info
		}
		m.addLogEntry(fmt.Sprintf("Sensor %d: v%d ch=%d tx=%d datamode=%d", v.ID, v.Info.Version, v.Info.Channel, v.Info.TxPower, v.Info.Datamode), false)

	case unimotion.ChannelResponse:
		m.station.Channel = v.Channel
		m.addLogEntry(fmt.Sprintf("Channel: %d", v.Channel), false)

	case unimotion.DatamodeResponse:
		m.station.Datamode = v.Mode
		m.addLogEntry(fmt.Sprintf("Datamode: %d", v.Mode), false)

	case unimotion.AutoOffResponse:
		m.station.AutoOff = v
		m.addLogEntry(fmt.Sprintf("Auto-off: %s", unimotion.FormatStation(m.station)), false)

	case unimotion.AcknowledgeResponse:
		m.addLogEntry(fmt.Sprintf("Acknowledge: %s", v.Ack), false)

	case unimotion.ErrorResponse:
		m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", v.Err), true)
	}
}

func (m *monitorModel) row(id uint8) *sensorRow {
	row, ok := m.sensors[id]
	if !ok {
		row = &sensorRow{device: unimotion.UniSensorDevice{ID: id}}
		m.sensors[id] = row
	}
	return row
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	m.errorLog = append(m.errorLog, errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

// refreshTable rebuilds the table rows, ordered by sensor id
func (m *monitorModel) refreshTable(now time.Time) {
	ids := make([]int, 0, len(m.sensors))
	for id := range m.sensors {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	rows := make([]table.Row, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, sensorTableRow(m.sensors[uint8(id)], now))
	}
	m.table.SetRows(rows)
}

// sensorTableRow formats one sensor for the table
func sensorTableRow(row *sensorRow, now time.Time) table.Row {
	addr := "-"
	if row.device.Present() {
		addr = row.device.Addr.String()
	}

	r := table.Row{strconv.Itoa(int(row.device.ID)), addr, "-", "-", "-", "-", "-", "-", "never"}
	if !row.hasData {
		return r
	}

	d := row.datagram
	r[2] = strconv.Itoa(int(d.BatteryVoltage))
	r[3] = strconv.Itoa(int(d.AHRSEnable))
	if q, ok := d.Quaternion(0); ok && !q.IsZero() {
		roll, pitch, yaw := q.Euler()
		r[4] = fmt.Sprintf("%.1f", roll)
		r[5] = fmt.Sprintf("%.1f", pitch)
		r[6] = fmt.Sprintf("%.1f", yaw)
	}
	r[7] = fmt.Sprintf("%.0f/s", row.rate)
	r[8] = fmt.Sprintf("%.1fs", now.Sub(row.lastSeen).Seconds())
	return r
}

func (m *monitorModel) updateTableSize() {
	// Header, station line, stats box, command bar and a minimal event log
	h := m.height - 22
	if h < 3 {
		h = 3
	}
	m.table.SetHeight(h)
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	focusedBoxStyle := boxStyle.BorderForeground(lipgloss.Color("12"))

	var s strings.Builder
	s.WriteString(titleStyle.Render("UNISTAT - MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Session %s | tab: focus, i: sensor info, r: reset stats, q: quit",
		m.connInfo, m.session.ID().String()[:8])))
	s.WriteString("\n")

	if m.closed {
		s.WriteString(errorStyle.Render("✗ Disconnected"))
	} else {
		s.WriteString(statsValueStyle.Render("✓ " + unimotion.FormatStation(m.station)))
	}
	s.WriteString("\n\n")

	tableBox := boxStyle
	if m.focus == focusSensorTable {
		tableBox = focusedBoxStyle
	}
	s.WriteString(tableBox.Render(m.table.View()))
	s.WriteString("\n")

	s.WriteString(boxStyle.Render(renderStats(m.stats)))
	s.WriteString("\n")

	inputBox := boxStyle
	if m.focus == focusCommandBar {
		inputBox = focusedBoxStyle
	}
	s.WriteString(inputBox.Width(m.width - 4).Render(m.input.View()))
	s.WriteString("\n")

	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	logHeight := m.height - 20 - len(m.table.Rows())
	if logHeight < 3 {
		logHeight = 3
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(renderEventLog(m.errorLog, logHeight)))

	return s.String()
}
