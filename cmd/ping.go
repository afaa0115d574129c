// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/unistat/pkg/unimotion"
	"github.com/spf13/cobra"
)

var (
	pingTimeout int
	pingCount   int
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test the station by sending alive commands",
	Long: `Send "alive" commands to the station and wait for the matching _ok reply.

The handshake is not run, so this works on a station that is already
streaming telemetry. Telemetry and other replies are ignored.

This is useful for verifying:
  - The serial port or WebSocket bridge is established
  - HTTP Basic authentication works (WebSocket)
  - Commands reach the station and replies come back

Exit codes:
  0 - All pings successful
  1 - One or more pings failed/timed out
  2 - Connection error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingTimeout, "timeout", 2, "Timeout in seconds for each ping")
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
}

// pingOnce sends one alive command and returns the round trip time
func pingOnce(session *unimotion.Session, timeout time.Duration) (time.Duration, error) {
	session.Router().Acknowledge.Drain()

	startTime := time.Now()
	if err := session.SendCommand(unimotion.Alive()); err != nil {
		return 0, err
	}

	deadline := startTime.Add(timeout)
	for {
		resp, err := session.AwaitAcknowledgeTimeout(time.Until(deadline))
		if err != nil {
			return 0, err
		}
		if resp.Ack == unimotion.AckAlive {
			return time.Since(startTime), nil
		}
		// Late acknowledges from other commands are skipped
	}
}

func runPing(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	session := unimotion.NewSession(conn, sessionConfig())
	defer session.Close()

	fmt.Printf("Unistat - Ping Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds per ping\n", pingTimeout)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	successCount := 0
	failCount := 0

	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)

		rtt, err := pingOnce(session, time.Duration(pingTimeout)*time.Second)
		switch {
		case err == nil:
			fmt.Printf("OK from station, rtt=%v\n", rtt.Round(time.Millisecond))
			successCount++
		case errors.Is(err, unimotion.ErrTimeout):
			fmt.Printf("TIMEOUT (no response in %ds)\n", pingTimeout)
			failCount++
		case errors.Is(err, unimotion.ErrDisconnected):
			fmt.Printf("DISCONNECTED: %v\n", session.Err())
			failCount += pingCount - i + 1
			i = pingCount
		default:
			fmt.Printf("FAILED: %v\n", err)
			failCount++
		}

		// Small delay between pings
		if i < pingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d responses received, %.0f%% loss\n",
		pingCount, successCount, float64(failCount)/float64(pingCount)*100)

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}
