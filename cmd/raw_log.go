// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/unistat/pkg/unimotion"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rawLogCBOR bool

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display raw line log in human-readable format",
	Long: `Continuously decode and display UniStation lines as they arrive.

Each line is shown with a timestamp, its reply kind and the decoded payload.
The station is not initialized first, so this only shows what it is already
sending (for example telemetry after another tool ran the handshake).

With --cbor, telemetry datagrams are written to stdout as a CBOR sequence of
{0: unix milliseconds, 1: datagram} records instead, for capture and later
analysis. Other lines are logged at debug level.

Supports both serial and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().BoolVar(&rawLogCBOR, "cbor", false, "Write telemetry as a CBOR sequence to stdout")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	if rawLogCBOR {
		log.WithField("connection", connInfo).Info("capturing telemetry as CBOR")
		return streamResponses(conn, cborRecorder(unimotion.NewRecordWriter(os.Stdout)))
	}

	fmt.Printf("Unistat - Raw Line Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	return streamResponses(conn, func(resp unimotion.Response) error {
		fmt.Print(unimotion.FormatResponse(resp, time.Now()))
		return nil
	})
}

// cborRecorder returns a stream handler writing each datagram to w
func cborRecorder(w *unimotion.RecordWriter) func(unimotion.Response) error {
	return func(resp unimotion.Response) error {
		data, ok := resp.(unimotion.DataResponse)
		if !ok {
			log.WithField("kind", resp.Kind().String()).Debug("skipping non-telemetry line")
			return nil
		}
		if err := w.Write(time.Now(), data.Datagram); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
		return nil
	}
}
