// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/unistat/pkg/unimotion"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var sensorsInfo bool

var sensorsCmd = &cobra.Command{
	Use:   "sensors",
	Short: "Initialize the station and list its paired sensors",
	Long: `Run the station handshake and print the station settings and every
paired sensor slot.

With --info, each paired sensor is also asked for its configuration
(address, radio channel, TX power, datamode, magnetic thresholds).`,
	RunE: runSensors,
}

func init() {
	rootCmd.AddCommand(sensorsCmd)
	sensorsCmd.Flags().BoolVar(&sensorsInfo, "info", false, "Request sensor info from each paired sensor")
}

func runSensors(cmd *cobra.Command, args []string) error {
	session, connInfo, err := OpenSession()
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("Unistat - Sensors\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Station: %s\n\n", unimotion.FormatStation(session.Station()))

	sensors := session.Sensors()
	paired := 0
	for _, dev := range sensors {
		if !dev.Present() {
			continue
		}
		paired++

		if sensorsInfo {
			if _, err := session.RequestSensorInfo(dev.ID, opts.HandshakeTimeout); err != nil {
				log.WithError(err).WithField("sensor", dev.ID).Warn("no sensor info")
			}
			dev = session.Device(dev.ID)
		}

		fmt.Println(unimotion.FormatDevice(dev))
		if dev.Info != nil {
			fmt.Print(unimotion.FormatSensorInfo(*dev.Info))
		}
	}

	fmt.Printf("\n%d of %d slots paired\n", paired, len(sensors))
	return nil
}
