// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Thermoquad/unistat/pkg/unimotion"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive TUI for monitoring paired sensors",
	Long: `Monitor UniStation sensors via an interactive terminal UI.

The station is initialized first (channel, datamode, auto-off and the paired
sensor table are read), then telemetry is shown live per sensor.

Features:
  - Sensor table (address, battery, orientation, datagram rate)
  - Statistics and anomaly tracking
  - Event log (acknowledges, sensor info, decode errors)
  - Command bar: type a command such as "enable-ahrs 3" and press enter

Tab switches between the sensor table and the command bar.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	session, connInfo, err := OpenSession()
	if err != nil {
		return err
	}
	defer session.Close()

	m := initialMonitorModel(session, connInfo)
	p := tea.NewProgram(m, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go pumpSession(ctx, session, p.Send)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// monitorEvent is one response taken off a session queue
type monitorEvent struct {
	resp      unimotion.Response
	device    unimotion.UniSensorDevice
	timestamp time.Time
}

// monitorBatchMsg carries the events gathered since the last batch
type monitorBatchMsg struct {
	events []monitorEvent
}

// sessionClosedMsg is sent once the session's reader stops
type sessionClosedMsg struct {
	err error
}

// pumpSession drains every session queue and forwards the responses to send
// in batches, so a 144 fps telemetry stream does not redraw per datagram.
// Once the session stops and its queues are empty, a sessionClosedMsg
// follows the last batch.
func pumpSession(ctx context.Context, session *unimotion.Session, send func(tea.Msg)) {
	events := make(chan monitorEvent, 256)
	router := session.Router()

	forward := func(ev monitorEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	var wg sync.WaitGroup
	spawn := func(f func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}

	// Telemetry goes through Update so each datagram carries its sensor slot
	spawn(func() {
		for {
			dev, dg, err := session.Update()
			if err != nil {
				return
			}
			if !forward(monitorEvent{resp: unimotion.DataResponse{Datagram: dg}, device: dev, timestamp: time.Now()}) {
				return
			}
		}
	})
	spawn(func() { drainQueue(ctx, router.SensorInfo, forward) })
	spawn(func() { drainQueue(ctx, router.Device, forward) })
	spawn(func() { drainQueue(ctx, router.Channel, forward) })
	spawn(func() { drainQueue(ctx, router.AutoOff, forward) })
	spawn(func() { drainQueue(ctx, router.Acknowledge, forward) })
	spawn(func() { drainQueue(ctx, router.Datamode, forward) })
	spawn(func() { drainQueue(ctx, router.Error, forward) })

	go func() {
		wg.Wait()
		close(events)
	}()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	var batch monitorBatchMsg
	flush := func() {
		if len(batch.events) > 0 {
			send(batch)
			batch = monitorBatchMsg{}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				flush()
				send(sessionClosedMsg{err: session.Err()})
				return
			}
			batch.events = append(batch.events, ev)
		case <-ticker.C:
			flush()
		}
	}
}

// drainQueue forwards every value received on q until the queue closes or
// ctx is cancelled
func drainQueue[T unimotion.Response](ctx context.Context, q *unimotion.Queue[T], forward func(monitorEvent) bool) {
	for {
		v, err := q.RecvContext(ctx)
		if err != nil {
			if !errors.Is(err, unimotion.ErrDisconnected) && !errors.Is(err, context.Canceled) {
				forward(monitorEvent{resp: unimotion.ErrorResponse{Err: err}, timestamp: time.Now()})
			}
			return
		}
		if !forward(monitorEvent{resp: v, timestamp: time.Now()}) {
			return
		}
	}
}
