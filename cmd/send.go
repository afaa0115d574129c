// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/unistat/pkg/unimotion"
	"github.com/spf13/cobra"
)

var (
	sendWaitAck     bool
	sendTimeout     time.Duration
	sendNoHandshake bool
)

var sendCmd = &cobra.Command{
	Use:   "send <command> [args...]",
	Short: "Send a command to the station",
	Long: `Initialize the station and send one command.

Commands:
  ` + strings.Join(unimotion.CommandNames(), "\n  ") + `

With --wait-ack, commands the station acknowledges (restart-ap, alive,
start-wifi, quit-config) wait for the matching _ok reply. sensor-info always
waits for the _si reply and prints it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().BoolVar(&sendWaitAck, "wait-ack", false, "Wait for the acknowledge reply")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 2*time.Second, "Timeout for the reply")
	sendCmd.Flags().BoolVar(&sendNoHandshake, "no-handshake", false, "Send without initializing the station first")
}

func runSend(cmd *cobra.Command, args []string) error {
	command, err := unimotion.ParseCommand(args[0], args[1:])
	if err != nil {
		return err
	}

	var session *unimotion.Session
	if sendNoHandshake {
		conn, _, err := OpenConnection()
		if err != nil {
			return err
		}
		session = unimotion.NewSession(conn, sessionConfig())
	} else {
		session, _, err = OpenSession()
		if err != nil {
			return err
		}
	}
	defer session.Close()

	return sendAndAwait(session, command, sendWaitAck, sendTimeout)
}

// sendAndAwait sends command and waits for the reply it implies
func sendAndAwait(session *unimotion.Session, command unimotion.Command, waitAck bool, timeout time.Duration) error {
	if command.Type == unimotion.CmdRequestSensorInfo {
		resp, err := session.RequestSensorInfo(command.ID, timeout)
		if err != nil {
			return err
		}
		fmt.Print(unimotion.FormatResponse(resp, time.Now()))
		return nil
	}

	session.Flush()
	if err := session.SendCommand(command); err != nil {
		return err
	}
	fmt.Printf("Sent: %s\n", command)

	expected, ok := command.ExpectedAck()
	if !waitAck || !ok {
		return nil
	}

	resp, err := session.AwaitAcknowledgeTimeout(timeout)
	if err != nil {
		return err
	}
	if resp.Ack != expected {
		return &unimotion.UnexpectedAckError{Expected: expected, Actual: resp.Ack}
	}
	fmt.Printf("Acknowledged: %s\n", resp.Ack)
	return nil
}
