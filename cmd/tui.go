// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Thermoquad/unistat/pkg/unimotion"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Event log entry
type errorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for info
}

// TUI model
type model struct {
	connInfo      string
	statsInterval int
	showAll       bool
	stats         *unimotion.Statistics
	errorLog      []errorLogEntry
	maxLogEntries int
	synchronized  bool
	invalidLines  int
	width         int
	height        int
	quitting      bool
	streamErr     error
	streamDone    bool
	lastDatagram  map[uint8]unimotion.Datagram
}

// Messages
type tickMsg time.Time

// formatUptime formats a duration in milliseconds to a human-friendly string
func formatUptime(ms uint64) string {
	if ms == 0 {
		return "0 seconds"
	}

	seconds := ms / 1000
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	unit := func(n uint64, name string) string {
		if n == 1 {
			return "1 " + name
		}
		return fmt.Sprintf("%d %ss", n, name)
	}

	parts := []string{}
	if days > 0 {
		parts = append(parts, unit(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, unit(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, unit(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, unit(seconds, "second"))
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

func initialModel(connInfo string, statsInterval int, showAll bool) model {
	return model{
		connInfo:      connInfo,
		statsInterval: statsInterval,
		showAll:       showAll,
		stats:         unimotion.NewStatistics(),
		errorLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
		lastDatagram:  make(map[uint8]unimotion.Datagram),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.stats.Reset()
			m.addLogEntry("Statistics reset", false)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.stats.CalculateRates()
		return m, tickCmd()

	case syncMsg:
		m.synchronized = true
		m.invalidLines = msg.invalidLines
		if msg.invalidLines > 0 {
			m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d invalid lines", msg.invalidLines), false)
		} else {
			m.addLogEntry("Synchronized", false)
		}

	case lineMsg:
		m.processLine(msg)

	case streamDoneMsg:
		m.streamDone = true
		m.streamErr = msg.err
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("Connection lost: %v", msg.err), true)
		} else {
			m.addLogEntry("Connection closed", true)
		}
	}

	return m, nil
}

func (m *model) processLine(msg lineMsg) {
	m.stats.Update(msg.resp, msg.validationErrors)

	kind := unimotion.FormatKind(msg.resp.Kind())
	switch v := msg.resp.(type) {
	case unimotion.ErrorResponse:
		m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", v.Err), true)
		return
	case unimotion.DataResponse:
		m.lastDatagram[v.Datagram.ID] = v.Datagram
	case unimotion.AcknowledgeResponse:
		m.addLogEntry(fmt.Sprintf("ACKNOWLEDGE: %s", v.Ack), false)
		return
	}

	if len(msg.validationErrors) > 0 {
		for _, err := range msg.validationErrors {
			m.addLogEntry(fmt.Sprintf("%s: %s", kind, err.Message), true)
		}
	} else if m.showAll {
		m.addLogEntry(fmt.Sprintf("%s (valid)", kind), false)
	}
}

func (m *model) addLogEntry(message string, isError bool) {
	entry := errorLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.errorLog = append(m.errorLog, entry)

	// Keep only last N entries
	if len(m.errorLog) > m.maxLogEntries {
		m.errorLog = m.errorLog[len(m.errorLog)-m.maxLogEntries:]
	}
}

// Shared TUI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("UNISTAT - ERROR DETECTION"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Mode: %s | Running %s | 'r' reset, 'q' quit",
		m.connInfo, func() string {
			if m.showAll {
				return "All lines"
			}
			return "Errors only"
		}(), formatUptime(uint64(time.Since(m.stats.StartTime).Milliseconds())))))
	s.WriteString("\n\n")

	// Sync status
	switch {
	case m.streamDone:
		s.WriteString(errorStyle.Render("✗ Disconnected"))
		s.WriteString("\n\n")
	case !m.synchronized:
		s.WriteString(warningStyle.Render("⏳ Waiting for synchronization..."))
		s.WriteString("\n\n")
	default:
		s.WriteString(statsValueStyle.Render("✓ Synchronized"))
		if m.invalidLines > 0 {
			s.WriteString(headerStyle.Render(fmt.Sprintf(" (skipped %d invalid lines)", m.invalidLines)))
		}
		s.WriteString("\n\n")
	}

	s.WriteString(boxStyle.Render(renderStats(m.stats)))
	s.WriteString("\n\n")

	// Telemetry section (only shown if telemetry received)
	if len(m.lastDatagram) > 0 {
		s.WriteString(statsLabelStyle.Render("Latest Telemetry:"))
		s.WriteString("\n")

		ids := make([]int, 0, len(m.lastDatagram))
		for id := range m.lastDatagram {
			ids = append(ids, int(id))
		}
		sort.Ints(ids)

		telemetryContent := strings.Builder{}
		for _, id := range ids {
			d := m.lastDatagram[uint8(id)]
			q, _ := d.Quaternion(0)
			roll, pitch, yaw := q.Euler()
			telemetryContent.WriteString(fmt.Sprintf("%s %s  %s %d  (%d quaternions)\n",
				statsLabelStyle.Render(fmt.Sprintf("Sensor %2d:", id)),
				statsValueStyle.Render(fmt.Sprintf("roll=%6.1f° pitch=%6.1f° yaw=%6.1f°", roll, pitch, yaw)),
				statsLabelStyle.Render("Battery:"), d.BatteryVoltage,
				len(d.Quaternions),
			))
		}

		s.WriteString(boxStyle.Render(strings.TrimRight(telemetryContent.String(), "\n")))
		s.WriteString("\n\n")
	}

	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	// Reserve space for header and stats
	logHeight := m.height - 15 - len(m.lastDatagram)
	if logHeight < 5 {
		logHeight = 5
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(renderEventLog(m.errorLog, logHeight)))

	return s.String()
}

// renderStats renders the statistics box content
func renderStats(stats *unimotion.Statistics) string {
	stats.CalculateRates()
	errors := stats.Errors() + stats.AnomalousValues

	var validPercent, errorPercent float64
	if stats.TotalLines > 0 {
		validPercent = float64(stats.ValidLines) * 100.0 / float64(stats.TotalLines)
		errorPercent = float64(errors) * 100.0 / float64(stats.TotalLines)
	}

	content := strings.Builder{}
	content.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", stats.TotalLines)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", stats.ValidLines, validPercent)),
		statsLabelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", errors, errorPercent)),
	))

	if stats.Errors() > 0 {
		content.WriteString(fmt.Sprintf("%s %s (%s: %d, %s: %d, %s: %d, %s: %d, %s: %d)\n",
			statsLabelStyle.Render("Malformed:"), errorStyle.Render(fmt.Sprintf("%d", stats.Errors())),
			headerStyle.Render("parse"), stats.ParseErrors,
			headerStyle.Render("length"), stats.LengthErrors,
			headerStyle.Render("base64"), stats.Base64Errors,
			headerStyle.Render("undecoded"), stats.NotImplemented,
			headerStyle.Render("overflow"), stats.DecodeErrors,
		))
	}

	if stats.AnomalousValues > 0 {
		content.WriteString(fmt.Sprintf("%s %s\n",
			statsLabelStyle.Render("Anomalous:"), warningStyle.Render(fmt.Sprintf("%d", stats.AnomalousValues)),
		))
	}

	content.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		statsLabelStyle.Render("Line Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f lines/s", stats.LineRate)),
		statsLabelStyle.Render("Data Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f dg/s", stats.DataRate)),
		statsLabelStyle.Render("Error Rate:"), func() string {
			if stats.ErrorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f err/s", stats.ErrorRate))
			}
			return statsValueStyle.Render(fmt.Sprintf("%.1f err/s", stats.ErrorRate))
		}(),
	))

	return content.String()
}

// renderEventLog renders the last height entries of the event log
func renderEventLog(entries []errorLogEntry, height int) string {
	if len(entries) == 0 {
		return headerStyle.Render("  (no events yet)")
	}

	startIdx := len(entries) - height
	if startIdx < 0 {
		startIdx = 0
	}

	logContent := strings.Builder{}
	for _, entry := range entries[startIdx:] {
		timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
		if entry.isError {
			logContent.WriteString(fmt.Sprintf("%s %s\n",
				headerStyle.Render(timestamp),
				errorStyle.Render("✗ "+entry.message),
			))
		} else {
			logContent.WriteString(fmt.Sprintf("%s %s\n",
				headerStyle.Render(timestamp),
				warningStyle.Render("ℹ "+entry.message),
			))
		}
	}
	return strings.TrimRight(logContent.String(), "\n")
}
