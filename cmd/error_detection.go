// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/unistat/pkg/unimotion"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var errorDetectionCmd = &cobra.Command{
	Use:   "error_detection",
	Short: "Detect and analyze malformed lines and errors",
	Long: `Track line errors, malformed data, and anomalous values with statistics.

This command validates each line and detects:
  - Malformed replies (unparseable _ch, _dev, _auto_off, ... arguments)
  - Telemetry of unknown length, invalid base64 and undecoded forms
  - Anomalous values (sensor ids >= 24, all-zero quaternions, unknown
    datamodes, magnetic threshold min > max)
  - Statistics and trends (line rate, datagram rate, error rate)

By default, only errors are displayed. Use --show-all to display valid lines too.

Errors before the first valid line are counted as synchronization noise, since
the connection usually starts in the middle of a line.`,
	RunE: runErrorDetection,
}

func init() {
	rootCmd.AddCommand(errorDetectionCmd)
	errorDetectionCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all lines (not just errors)")
	errorDetectionCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	errorDetectionCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

// lineMsg carries one decoded line and its anomalies
type lineMsg struct {
	resp             unimotion.Response
	validationErrors []unimotion.ValidationError
	timestamp        time.Time
}

// syncMsg is sent once, when the first valid line arrives
type syncMsg struct {
	invalidLines int
}

// streamDoneMsg is sent when the connection stops delivering lines
type streamDoneMsg struct {
	err error
}

// syncFilter drops error lines until the first line that decodes
type syncFilter struct {
	synchronized bool
	skipped      int
}

// accept reports whether resp should be processed, and whether it is the
// line that synchronized the stream
func (f *syncFilter) accept(resp unimotion.Response) (ok, synced bool) {
	if f.synchronized {
		return true, false
	}
	if resp.Kind() == unimotion.KindError {
		f.skipped++
		return false, false
	}
	f.synchronized = true
	return true, true
}

func runErrorDetection(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	if useTUI {
		return runTUIMode(conn, connInfo)
	}
	return runTextMode(conn, connInfo)
}

// printErrorLine prints a line that failed to decode in highlighted format
func printErrorLine(msg lineMsg) {
	timestamp := msg.timestamp.Format("15:04:05.000")
	e := msg.resp.(unimotion.ErrorResponse)
	fmt.Printf("[%s] \033[1;31mDECODE ERROR:\033[0m %v\n", timestamp, e.Err)
	if len(e.Line) > 0 {
		fmt.Printf("  Line: %q (%d bytes)\n", strings.TrimRight(string(e.Line), "\r\n"), len(e.Line))
	}
	fmt.Printf("  >>> LINE REJECTED <<<\n\n")
}

// printAcknowledge prints an acknowledge reply
func printAcknowledge(msg lineMsg) {
	timestamp := msg.timestamp.Format("15:04:05.000")
	ack := msg.resp.(unimotion.AcknowledgeResponse)
	fmt.Printf("[%s] \033[1;32mACKNOWLEDGE:\033[0m %s\n\n", timestamp, ack.Ack)
}

// printValidationErrors prints validation errors for a line
func printValidationErrors(msg lineMsg) {
	timestamp := msg.timestamp.Format("15:04:05.000")
	kind := unimotion.FormatKind(msg.resp.Kind())

	fmt.Printf("[%s] \033[1;33mVALIDATION ERROR:\033[0m %s\n", timestamp, kind)

	for i, err := range msg.validationErrors {
		switch err.Type {
		case unimotion.ANOMALY_SENSOR_ID_RANGE:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, err.Message)
			if id, ok := err.Details["id"].(uint8); ok {
				fmt.Printf("    id=%d (valid: 0 to %d)\n", id, unimotion.MaxUniSensorCount-1)
			}

		case unimotion.ANOMALY_ZERO_QUATERNION:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, err.Message)

		case unimotion.ANOMALY_MAG_THRESHOLD:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, err.Message)
			if lo, ok := err.Details["min"].(uint8); ok {
				if hi, ok := err.Details["max"].(uint8); ok {
					fmt.Printf("    Threshold: min=%d, max=%d\n", lo, hi)
				}
			}

		case unimotion.ANOMALY_UNKNOWN_DATAMODE:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, err.Message)
			if mode, ok := err.Details["datamode"].(uint8); ok {
				fmt.Printf("    datamode=%d (valid: 0 to 4)\n", mode)
			}

		default:
			fmt.Printf("  Issue %d: %s\n", i+1, err.Message)
		}
	}

	// Print the decoded line for context
	fmt.Print(unimotion.FormatResponse(msg.resp, msg.timestamp))
	fmt.Printf("  >>> LINE FLAGGED <<<\n\n")
}

// readLines streams conn to send until the connection stops. The first
// accepted line is preceded by a syncMsg.
func readLines(conn unimotion.Transport, send func(tea.Msg)) {
	var filter syncFilter
	err := streamResponses(conn, func(resp unimotion.Response) error {
		ok, synced := filter.accept(resp)
		if !ok {
			return nil
		}
		if synced {
			send(syncMsg{invalidLines: filter.skipped})
		}
		send(lineMsg{
			resp:             resp,
			validationErrors: unimotion.ValidateResponse(resp),
			timestamp:        time.Now(),
		})
		return nil
	})
	send(streamDoneMsg{err: err})
}

// runTUIMode runs error detection in TUI mode
func runTUIMode(conn unimotion.Transport, connInfo string) error {
	m := initialModel(connInfo, statsInterval, showAll)
	p := tea.NewProgram(m)

	go readLines(conn, p.Send)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}

// runTextMode runs error detection in text mode
func runTextMode(conn unimotion.Transport, connInfo string) error {
	fmt.Printf("Unistat - Error Detection Mode\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All lines\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	stats := unimotion.NewStatistics()

	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	msgs := make(chan tea.Msg, 64)
	go readLines(conn, func(msg tea.Msg) { msgs <- msg })

	for {
		select {
		case msg := <-msgs:
			switch msg := msg.(type) {
			case syncMsg:
				if msg.invalidLines > 0 {
					fmt.Printf("[SYNC] Synchronized after skipping %d invalid lines\n\n", msg.invalidLines)
				} else {
					fmt.Printf("[SYNC] Synchronized\n\n")
				}

			case lineMsg:
				stats.Update(msg.resp, msg.validationErrors)

				switch {
				case msg.resp.Kind() == unimotion.KindError:
					printErrorLine(msg)
				case len(msg.validationErrors) > 0:
					printValidationErrors(msg)
				case msg.resp.Kind() == unimotion.KindAcknowledge:
					// Always print acknowledges (for debugging)
					printAcknowledge(msg)
				case showAll:
					fmt.Print(unimotion.FormatResponse(msg.resp, msg.timestamp))
				}

			case streamDoneMsg:
				fmt.Println()
				fmt.Print(stats.String())
				if msg.err != nil {
					log.WithError(msg.err).Error("connection lost")
					return msg.err
				}
				return nil
			}

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}
