// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Thermoquad/unistat/pkg/unimotion"
	"github.com/spf13/cobra"
)

var (
	lineTestTimeout int
)

var lineTestCmd = &cobra.Command{
	Use:   "line_test",
	Short: "Test connection by waiting for a valid UniStation line",
	Long: `Wait for a valid UniStation line on the connection until timeout.

This command connects to a serial port or WebSocket and waits for any line
that decodes to a station reply or a telemetry datagram. Lines that fail to
decode are counted and skipped.

Exit codes:
  0 - Valid line received before timeout
  1 - Timeout reached without receiving a valid line
  2 - Connection error

Useful for testing connectivity to the station or a WebSocket bridge.`,
	RunE: runLineTest,
}

func init() {
	rootCmd.AddCommand(lineTestCmd)
	lineTestCmd.Flags().IntVar(&lineTestTimeout, "timeout", 10, "Timeout in seconds to wait for a line")
}

// lineTestResult is the outcome of waitForValidLine
type lineTestResult struct {
	resp    unimotion.Response
	skipped int
}

// waitForValidLine reads conn until a line other than an ErrorResponse
// decodes. It returns io.EOF if the connection closes first.
func waitForValidLine(conn io.Reader) (lineTestResult, error) {
	var result lineTestResult
	err := streamResponses(conn, func(resp unimotion.Response) error {
		if resp.Kind() == unimotion.KindError {
			result.skipped++
			return nil
		}
		result.resp = resp
		return errStopStream
	})
	if err != nil {
		return result, err
	}
	if result.resp == nil {
		return result, io.EOF
	}
	return result, nil
}

func runLineTest(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Unistat - Line Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", lineTestTimeout)
	fmt.Printf("Waiting for valid UniStation line...\n\n")

	resultChan := make(chan lineTestResult, 1)
	errChan := make(chan error, 1)

	go func() {
		result, err := waitForValidLine(conn)
		if err != nil {
			errChan <- err
			return
		}
		resultChan <- result
	}()

	select {
	case result := <-resultChan:
		if result.skipped > 0 {
			fmt.Printf("(skipped %d undecodable lines)\n", result.skipped)
		}
		fmt.Printf("SUCCESS: Received valid line\n")
		fmt.Print(unimotion.FormatResponse(result.resp, time.Now()))
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case <-time.After(time.Duration(lineTestTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid line received within %d seconds\n", lineTestTimeout)
		os.Exit(1)
	}

	return nil
}
