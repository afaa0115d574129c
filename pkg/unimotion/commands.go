// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unimotion

import (
	"fmt"
	"sort"
	"strconv"
)

// CommandType identifies a host to station command
type CommandType int

// Command types
const (
	CmdRestartAP CommandType = iota
	CmdAlive
	CmdListSensor
	CmdStartWifi
	CmdQuitConfig
	CmdRequestSensorInfo
	CmdAliveNoResponse
	CmdEnableAHRS
	CmdDisableAHRS
	CmdSet60FPS
	CmdSet60FPSLowPower
	CmdSet70FPS
	CmdSet144FPS
	CmdPowerOffSensor
	CmdRestartSensor
	CmdStartMagneticCalibration
	CmdStopMagneticCalibration
	CmdSetMagneticThreshold
	CmdSensorConfig
	CmdConfig
	CmdInitializeCalibration
	CmdRestart
	CmdSavePairing
)

// Command is a stateless command value. ID is used by the per-sensor
// commands; Min and Max only by CmdSetMagneticThreshold. CmdConfig carries
// an ID that the station ignores.
type Command struct {
	Type CommandType
	ID   uint8
	Min  uint8
	Max  uint8
}

// RestartAP creates a command restarting the station's access point
func RestartAP() Command { return Command{Type: CmdRestartAP} }

// Alive creates a keepalive command, acknowledged with a bare _ok
func Alive() Command { return Command{Type: CmdAlive} }

// ListSensor creates a command requesting the pairing table
func ListSensor() Command { return Command{Type: CmdListSensor} }

// StartWifi creates a command enabling the station's WiFi
func StartWifi() Command { return Command{Type: CmdStartWifi} }

// QuitConfig creates a command leaving configuration mode
func QuitConfig() Command { return Command{Type: CmdQuitConfig} }

// SavePairing creates a command persisting the pairing table
func SavePairing() Command { return Command{Type: CmdSavePairing} }

// AliveNoResponse creates a keepalive command the station does not answer
func AliveNoResponse() Command { return Command{Type: CmdAliveNoResponse} }

// RequestSensorInfo creates a command requesting a sensor's configuration
func RequestSensorInfo(id uint8) Command {
	return Command{Type: CmdRequestSensorInfo, ID: id}
}

// EnableAHRS creates a command turning on a sensor's AHRS fusion
func EnableAHRS(id uint8) Command { return Command{Type: CmdEnableAHRS, ID: id} }

// DisableAHRS creates a command turning off a sensor's AHRS fusion
func DisableAHRS(id uint8) Command { return Command{Type: CmdDisableAHRS, ID: id} }

// Set60FPS creates a command switching a sensor to 60 fps
func Set60FPS(id uint8) Command { return Command{Type: CmdSet60FPS, ID: id} }

// Set60FPSLowPower creates a command switching a sensor to 60 fps, low power
func Set60FPSLowPower(id uint8) Command {
	return Command{Type: CmdSet60FPSLowPower, ID: id}
}

// Set70FPS creates a command switching a sensor to 70 fps
func Set70FPS(id uint8) Command { return Command{Type: CmdSet70FPS, ID: id} }

// Set144FPS creates a command switching a sensor to 144 fps
func Set144FPS(id uint8) Command { return Command{Type: CmdSet144FPS, ID: id} }

// PowerOffSensor creates a command powering a sensor off
func PowerOffSensor(id uint8) Command { return Command{Type: CmdPowerOffSensor, ID: id} }

// RestartSensor creates a command restarting a sensor
func RestartSensor(id uint8) Command { return Command{Type: CmdRestartSensor, ID: id} }

// StartMagneticCalibration creates a command starting magnetometer calibration
func StartMagneticCalibration(id uint8) Command {
	return Command{Type: CmdStartMagneticCalibration, ID: id}
}

// StopMagneticCalibration creates a command stopping magnetometer calibration
func StopMagneticCalibration(id uint8) Command {
	return Command{Type: CmdStopMagneticCalibration, ID: id}
}

// SetMagneticThreshold creates a command setting a sensor's magnetic
// threshold range
func SetMagneticThreshold(id, lo, hi uint8) Command {
	return Command{Type: CmdSetMagneticThreshold, ID: id, Min: lo, Max: hi}
}

// SensorConfig creates a command requesting a sensor's configuration mode
func SensorConfig(id uint8) Command { return Command{Type: CmdSensorConfig, ID: id} }

// StationConfig creates a command putting the station into configuration
// mode. The station ignores id.
func StationConfig(id uint8) Command { return Command{Type: CmdConfig, ID: id} }

// InitializeCalibration creates a command resetting a sensor's calibration
func InitializeCalibration(id uint8) Command {
	return Command{Type: CmdInitializeCalibration, ID: id}
}

// Restart creates a command restarting the station-side slot for id
func Restart(id uint8) Command { return Command{Type: CmdRestart, ID: id} }

// String returns the command's wire text, without the trailing newline
func (c Command) String() string {
	switch c.Type {
	case CmdRestartAP:
		return "_aprestart"
	case CmdAlive:
		return "_alive"
	case CmdListSensor:
		return "_sensorlist"
	case CmdStartWifi:
		return "_wifistart"
	case CmdQuitConfig:
		return "_quitconfig"
	case CmdRequestSensorInfo:
		return fmt.Sprintf("__sensinfo id:%d:b", c.ID)
	case CmdAliveNoResponse:
		return "_alive_nores"
	case CmdEnableAHRS:
		return fmt.Sprintf("_setahrsmode id:%d:b 0", c.ID)
	case CmdDisableAHRS:
		return fmt.Sprintf("_setahrsmode id:%d:b 1", c.ID)
	case CmdSet60FPS:
		return fmt.Sprintf("_setmode id:%d:b 3 2 0 4", c.ID)
	case CmdSet60FPSLowPower:
		return fmt.Sprintf("_setmode id:%d:b 4 2 11 4", c.ID)
	case CmdSet70FPS:
		return fmt.Sprintf("_setmode id:%d:b 0 9 19 0", c.ID)
	case CmdSet144FPS:
		return fmt.Sprintf("_setmode id:%d:b 2 4 30 4", c.ID)
	case CmdPowerOffSensor:
		return fmt.Sprintf("_sensoff id:%d:b", c.ID)
	case CmdRestartSensor:
		return fmt.Sprintf("_restart id:%d:b", c.ID)
	case CmdStartMagneticCalibration:
		return fmt.Sprintf("_start_mag_calib id:%d:b", c.ID)
	case CmdStopMagneticCalibration:
		return fmt.Sprintf("_stop_mag_calib id:%d:b", c.ID)
	case CmdSetMagneticThreshold:
		return fmt.Sprintf("_set_mag_th id:%d:b %d %d", c.ID, c.Min, c.Max)
	case CmdSensorConfig:
		return fmt.Sprintf("_sensconf id:%d:b", c.ID)
	case CmdConfig:
		return "_config"
	case CmdInitializeCalibration:
		return fmt.Sprintf("_initcalibration id:%d", c.ID)
	case CmdRestart:
		return fmt.Sprintf("_restart id:%d", c.ID)
	case CmdSavePairing:
		return "_savepairing"
	default:
		return fmt.Sprintf("command(%d)", int(c.Type))
	}
}

// Bytes returns the wire text terminated by a newline
func (c Command) Bytes() []byte {
	return []byte(c.String() + "\n")
}

// commandSpec describes a CLI command name: how many numeric arguments it
// takes and how to build the command from them.
type commandSpec struct {
	args  []string
	build func(v []uint8) Command
}

var commandNames = map[string]commandSpec{
	"restart-ap":       {nil, func([]uint8) Command { return RestartAP() }},
	"alive":            {nil, func([]uint8) Command { return Alive() }},
	"list-sensors":     {nil, func([]uint8) Command { return ListSensor() }},
	"start-wifi":       {nil, func([]uint8) Command { return StartWifi() }},
	"quit-config":      {nil, func([]uint8) Command { return QuitConfig() }},
	"alive-noresponse": {nil, func([]uint8) Command { return AliveNoResponse() }},
	"save-pairing":     {nil, func([]uint8) Command { return SavePairing() }},

	"sensor-info":     {[]string{"id"}, func(v []uint8) Command { return RequestSensorInfo(v[0]) }},
	"enable-ahrs":     {[]string{"id"}, func(v []uint8) Command { return EnableAHRS(v[0]) }},
	"disable-ahrs":    {[]string{"id"}, func(v []uint8) Command { return DisableAHRS(v[0]) }},
	"set-60fps":       {[]string{"id"}, func(v []uint8) Command { return Set60FPS(v[0]) }},
	"set-60fps-lp":    {[]string{"id"}, func(v []uint8) Command { return Set60FPSLowPower(v[0]) }},
	"set-70fps":       {[]string{"id"}, func(v []uint8) Command { return Set70FPS(v[0]) }},
	"set-144fps":      {[]string{"id"}, func(v []uint8) Command { return Set144FPS(v[0]) }},
	"power-off":       {[]string{"id"}, func(v []uint8) Command { return PowerOffSensor(v[0]) }},
	"restart-sensor":  {[]string{"id"}, func(v []uint8) Command { return RestartSensor(v[0]) }},
	"start-mag-calib": {[]string{"id"}, func(v []uint8) Command { return StartMagneticCalibration(v[0]) }},
	"stop-mag-calib":  {[]string{"id"}, func(v []uint8) Command { return StopMagneticCalibration(v[0]) }},
	"sensor-config":   {[]string{"id"}, func(v []uint8) Command { return SensorConfig(v[0]) }},
	"config":          {[]string{"id"}, func(v []uint8) Command { return StationConfig(v[0]) }},
	"init-calib":      {[]string{"id"}, func(v []uint8) Command { return InitializeCalibration(v[0]) }},
	"restart":         {[]string{"id"}, func(v []uint8) Command { return Restart(v[0]) }},

	"set-mag-threshold": {[]string{"id", "min", "max"}, func(v []uint8) Command {
		return SetMagneticThreshold(v[0], v[1], v[2])
	}},
}

// ParseCommand builds a command from its CLI name and decimal arguments,
// e.g. ParseCommand("set-mag-threshold", []string{"3", "10", "200"}).
func ParseCommand(name string, args []string) (Command, error) {
	spec, ok := commandNames[name]
	if !ok {
		return Command{}, fmt.Errorf("unknown command: %s", name)
	}
	if len(args) != len(spec.args) {
		return Command{}, fmt.Errorf("%s: expected %d argument(s) %v, got %d", name, len(spec.args), spec.args, len(args))
	}

	values := make([]uint8, len(args))
	for i, a := range args {
		v, err := strconv.ParseUint(a, 10, 8)
		if err != nil {
			return Command{}, fmt.Errorf("%s: invalid %s %q: %w", name, spec.args[i], a, err)
		}
		values[i] = uint8(v)
	}
	return spec.build(values), nil
}

// CommandNames lists the names accepted by ParseCommand with their
// argument names, sorted by name.
func CommandNames() []string {
	names := make([]string, 0, len(commandNames))
	for name, spec := range commandNames {
		usage := name
		for _, a := range spec.args {
			usage += " <" + a + ">"
		}
		names = append(names, usage)
	}
	sort.Strings(names)
	return names
}

// ExpectedAck returns the acknowledge the station sends in reply to c, if
// any.
func (c Command) ExpectedAck() (AcknowledgeType, bool) {
	switch c.Type {
	case CmdRestartAP:
		return AckRestartAP, true
	case CmdAlive:
		return AckAlive, true
	case CmdStartWifi:
		return AckStartWifi, true
	case CmdQuitConfig:
		return AckQuitConfig, true
	default:
		return 0, false
	}
}
