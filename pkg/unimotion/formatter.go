// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unimotion

import (
	"fmt"
	"strings"
	"time"
)

// FormatResponse formats a response into a human-readable string
func FormatResponse(resp Response, timestamp time.Time) string {
	result := fmt.Sprintf("[%s] %s\n", timestamp.Format("15:04:05.000"), FormatKind(resp.Kind()))

	switch v := resp.(type) {
	case SensorInfoResponse:
		result += fmt.Sprintf("  Sensor: %d\n", v.ID)
		result += FormatSensorInfo(v.Info)
	case DeviceResponse:
		if v.Addr.IsNil() {
			result += fmt.Sprintf("  Slot %2d: (empty)\n", v.ID)
		} else {
			result += fmt.Sprintf("  Slot %2d: %s\n", v.ID, v.Addr)
		}
	case ChannelResponse:
		result += fmt.Sprintf("  Channel: %d\n", v.Channel)
	case AutoOffResponse:
		state := "disabled"
		if v.Enabled != 0 {
			state = "enabled"
		}
		result += fmt.Sprintf("  Auto-off: %s after %s\n", state, v.Duration())
	case AcknowledgeResponse:
		result += fmt.Sprintf("  Ack: %s\n", v.Ack)
	case DatamodeResponse:
		result += fmt.Sprintf("  Datamode: %d\n", v.Mode)
	case DataResponse:
		result += FormatDatagram(v.Datagram)
	case ErrorResponse:
		result += fmt.Sprintf("  Error: %v\n", v.Err)
		if len(v.Line) > 0 {
			result += fmt.Sprintf("  Line:  %q\n", strings.TrimRight(string(v.Line), "\r\n"))
		}
	}

	return result
}

// FormatKind returns the upper-case label for a response kind
func FormatKind(k Kind) string {
	return strings.ToUpper(strings.ReplaceAll(k.String(), " ", "_"))
}

// FormatSensorInfo formats a sensor configuration snapshot
func FormatSensorInfo(si SensorInfo) string {
	result := fmt.Sprintf("  Address:  %s\n", si.Addr)
	result += fmt.Sprintf("  Version:  %d (reserved %d)\n", si.Version, si.Reserved)
	result += fmt.Sprintf("  Channel:  %d  TX power: %d  Datamode: %d\n", si.Channel, si.TxPower, si.Datamode)
	result += fmt.Sprintf("  Six-axis: %t  IMU flip: %t\n", si.SixAxis, si.IMUFlip)
	if si.HasMagThresholds() {
		result += fmt.Sprintf("  Mag threshold: %d..%d\n", si.MinMagThreshold, si.MaxMagThreshold)
	} else {
		result += "  Mag threshold: (not reported)\n"
	}
	return result
}

// FormatDatagram formats a telemetry datagram, one line per quaternion
func FormatDatagram(d Datagram) string {
	result := fmt.Sprintf("  Sensor: %d  Battery: %d  AHRS: %d  Mag power: %d\n",
		d.ID, d.BatteryVoltage, d.AHRSEnable, d.MagneticPower)
	for i, q := range d.Quaternions {
		result += fmt.Sprintf("  Q%d: %s\n", i+1, FormatQuaternion(q))
	}
	return result
}

// FormatQuaternion formats the raw components followed by the derived
// orientation in degrees
func FormatQuaternion(q Quaternion) string {
	roll, pitch, yaw := q.Euler()
	return fmt.Sprintf("w=%6d x=%6d y=%6d z=%6d  roll=%7.1f° pitch=%7.1f° yaw=%7.1f°",
		q.W, q.X, q.Y, q.Z, roll, pitch, yaw)
}

// FormatDevice formats one slot of the sensor table
func FormatDevice(d UniSensorDevice) string {
	if !d.Present() {
		return "(empty)"
	}
	result := fmt.Sprintf("Sensor %2d  %s", d.ID, d.Addr)
	if d.Info != nil {
		result += fmt.Sprintf("  v%d ch=%d tx=%d mode=%d", d.Info.Version, d.Info.Channel, d.Info.TxPower, d.Info.Datamode)
	}
	return result
}

// FormatStation formats the settings reported during the handshake
func FormatStation(st StationState) string {
	state := "off"
	if st.AutoOff.Enabled != 0 {
		state = st.AutoOff.Duration().String()
	}
	return fmt.Sprintf("channel=%d datamode=%d auto-off=%s", st.Channel, st.Datamode, state)
}
