// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"testing"
	"time"

	"github.com/Thermoquad/unistat/pkg/unimotion"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		ms   uint64
		want string
	}{
		{0, "0 seconds"},
		{999, "0 seconds"},
		{1000, "1 second"},
		{61000, "1 minute and 1 second"},
		{3600000, "1 hour"},
		{2*86400000 + 3*3600000 + 4*60000 + 5000, "2 days, 3 hours, 4 minutes, and 5 seconds"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatUptime(tt.ms), "ms=%d", tt.ms)
	}
}

func lineOf(raw string) lineMsg {
	resp := unimotion.Parse([]byte(raw))
	return lineMsg{resp: resp, validationErrors: unimotion.ValidateResponse(resp), timestamp: time.Now()}
}

func TestModel_ProcessLine(t *testing.T) {
	m := initialModel("test", 5, false)

	for _, raw := range []string{vectorDataLine, "_ch 1", "_ok WIFI_ON", "garbage", "_datamode 9"} {
		updated, _ := m.Update(lineOf(raw))
		m = updated.(model)
	}

	assert.Equal(t, uint64(5), m.stats.TotalLines)
	assert.Equal(t, uint64(1), m.stats.Errors())
	assert.Equal(t, uint64(1), m.stats.AnomalousValues)
	require.Contains(t, m.lastDatagram, uint8(7))

	// Valid lines are not logged unless showAll is set
	var messages []string
	for _, e := range m.errorLog {
		messages = append(messages, e.message)
	}
	require.Len(t, messages, 3)
	assert.Contains(t, messages[0], "ACKNOWLEDGE")
	assert.Contains(t, messages[1], "DECODE ERROR")
	assert.Contains(t, messages[2], "DATAMODE")

	view := m.View()
	assert.Contains(t, view, "UNISTAT - ERROR DETECTION")
	assert.Contains(t, view, "Sensor  7:")
}

func TestModel_ShowAll(t *testing.T) {
	m := initialModel("test", 5, true)
	updated, _ := m.Update(lineOf("_ch 1"))
	m = updated.(model)

	require.Len(t, m.errorLog, 1)
	assert.Contains(t, m.errorLog[0].message, "(valid)")
}

func TestModel_Lifecycle(t *testing.T) {
	m := initialModel("test", 5, false)
	assert.Contains(t, m.View(), "Waiting for synchronization")

	updated, _ := m.Update(syncMsg{invalidLines: 2})
	m = updated.(model)
	assert.Contains(t, m.View(), "skipped 2 invalid lines")

	updated, _ = m.Update(lineOf("garbage"))
	m = updated.(model)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = updated.(model)
	assert.Equal(t, uint64(0), m.stats.TotalLines)

	updated, _ = m.Update(streamDoneMsg{err: errors.New("read failed")})
	m = updated.(model)
	assert.True(t, m.streamDone)
	assert.Contains(t, m.View(), "Disconnected")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.True(t, updated.(model).quitting)
}

func TestRenderEventLog(t *testing.T) {
	assert.Contains(t, renderEventLog(nil, 5), "no events yet")

	entries := []errorLogEntry{
		{timestamp: time.Now(), message: "first"},
		{timestamp: time.Now(), message: "second", isError: true},
		{timestamp: time.Now(), message: "third"},
	}
	out := renderEventLog(entries, 2)
	assert.NotContains(t, out, "first")
	assert.Contains(t, out, "second")
	assert.Contains(t, out, "third")
}
