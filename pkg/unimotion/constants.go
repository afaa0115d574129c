// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package unimotion implements the serial protocol spoken by the Unimotion
// base station (UniStation).
//
// The station talks in newline-terminated lines. Replies to configuration
// commands echo a textual prefix (_si, _dev, _ch, ...); telemetry is sent as
// bare base64 and is told apart only by its length. This package decodes
// those lines into typed responses, routes them to per-kind queues and
// drives the station through its initialization handshake.
package unimotion

import "time"

// Reply prefixes echoed by the station
const (
	PrefixSensorInfo  = "_si"
	PrefixDevice      = "_dev"
	PrefixChannel     = "_ch"
	PrefixAutoOff     = "_auto_off"
	PrefixAcknowledge = "_ok"
	PrefixDatamode    = "_datamode"
)

// Acknowledge payloads following the _ok prefix
const (
	ackTextAlive      = ""
	ackTextRestartAP  = "ESP_RESTART"
	ackTextStartWifi  = "WIFI_ON"
	ackTextQuitConfig = "QUIT_CONFIG"
)

// Sensor table limits
const (
	MaxUniSensorCount = 24
	SensorIDUnset     = 255 // id of an empty table slot
	MaxQuaternions    = 4
)

// MagThresholdUnset is reported for both magnetic thresholds when the
// station sends the short (19 byte) sensor info form.
const MagThresholdUnset = 255

// Binary payload sizes
const (
	QuaternionSize      = 8
	HardwareAddrSize    = 6
	SensorInfoShortSize = 19
	SensorInfoLongSize  = 23
)

// Telemetry line lengths (base64 characters) and their decoded sizes.
//
//	b64 | bytes | layout
//	14  | 10    | id battery Q
//	16  | 12    | id battery Q ahrs mag
//	24  | 18    | id battery Q Q
//	27  | 20    | id battery Q Q ahrs mag
//	46  | 34    | id battery Q Q Q Q
//	48  | 36    | id battery Q Q Q Q ahrs mag
const (
	DatagramSize1Q      = 10
	DatagramSize1QFlags = 12
	DatagramSize2Q      = 18
	DatagramSize2QFlags = 20
	DatagramSize4Q      = 34
	DatagramSize4QFlags = 36
)

// telemetryFrame describes how a bare base64 line of a given length is padded
// and how many bytes it decodes to.
type telemetryFrame struct {
	padding string
	size    int
}

var telemetryFrames = map[int]telemetryFrame{
	14: {padding: "==", size: DatagramSize1Q},
	16: {padding: "", size: DatagramSize1QFlags},
	24: {padding: "", size: DatagramSize2Q},
	27: {padding: "=", size: DatagramSize2QFlags},
	46: {padding: "==", size: DatagramSize4Q},
	48: {padding: "", size: DatagramSize4QFlags},
}

// MaxLineSize bounds a single line held by the Decoder
const MaxLineSize = 512

// Transport and handshake defaults
const (
	DefaultBaudRate         = 230400
	DefaultReadTimeout      = 1000 * time.Millisecond
	DefaultHandshakeTimeout = 500 * time.Millisecond
)
