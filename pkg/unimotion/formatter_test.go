// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unimotion

import (
	"strings"
	"testing"
	"time"
)

func TestFormatResponse(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 6000000, time.UTC)

	tests := []struct {
		line string
		want []string
	}{
		{vectorSensorInfoLine, []string{"[03:04:05.006] SENSOR_INFO", "Sensor: 7", "08:3A:F2:6D:1D:98", "IMU flip: true", "Mag threshold: 0..124"}},
		{"_dev 2 E8 68 E7 53 55 DE", []string{"DEVICE", "Slot  2: E8:68:E7:53:55:DE"}},
		{"_dev 23 0 0 0 0 0 0", []string{"Slot 23: (empty)"}},
		{"_ch 1", []string{"CHANNEL", "Channel: 1"}},
		{"_auto_off 1 300000", []string{"AUTO_OFF", "enabled after 5m0s"}},
		{"_ok QUIT_CONFIG", []string{"ACKNOWLEDGE", "Ack: QuitConfig"}},
		{"_datamode 3", []string{"DATAMODE", "Datamode: 3"}},
		{vectorDataLine, []string{"DATA", "Sensor: 7  Battery: 167", "Q1: w=-19171", "Q2:"}},
		{"_ch nope\r\n", []string{"ERROR", "Error: malformed _ch line", `Line:  "_ch nope"`}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			out := FormatResponse(Parse([]byte(tt.line)), ts)
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestFormatDevice(t *testing.T) {
	if got := FormatDevice(EmptyDevice()); got != "(empty)" {
		t.Errorf("FormatDevice(empty) = %q", got)
	}

	info := SensorInfo{Version: 102, Channel: 1, TxPower: 10, Datamode: 3}
	dev := UniSensorDevice{ID: 7, Addr: HardwareAddr{8, 0x3A, 0xF2, 0x6D, 0x1D, 0x98}, Info: &info}
	got := FormatDevice(dev)
	if !strings.Contains(got, "Sensor  7  08:3A:F2:6D:1D:98") || !strings.Contains(got, "v102 ch=1 tx=10 mode=3") {
		t.Errorf("FormatDevice = %q", got)
	}
}

func TestFormatStation(t *testing.T) {
	st := StationState{Channel: 1, Datamode: 3, AutoOff: AutoOffResponse{Enabled: 1, DurationMs: 300000}}
	if got := FormatStation(st); got != "channel=1 datamode=3 auto-off=5m0s" {
		t.Errorf("FormatStation = %q", got)
	}
	st.AutoOff.Enabled = 0
	if got := FormatStation(st); got != "channel=1 datamode=3 auto-off=off" {
		t.Errorf("FormatStation = %q", got)
	}
}
