// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unimotion

import (
	"fmt"
	"time"
)

// Kind identifies a response variant and the queue it is routed to
type Kind int

// Response kinds
const (
	KindSensorInfo Kind = iota
	KindDevice
	KindChannel
	KindAutoOff
	KindAcknowledge
	KindDatamode
	KindData
	KindError
)

// Kinds lists every response kind in routing order
var Kinds = []Kind{
	KindSensorInfo,
	KindDevice,
	KindChannel,
	KindAutoOff,
	KindAcknowledge,
	KindDatamode,
	KindData,
	KindError,
}

func (k Kind) String() string {
	switch k {
	case KindSensorInfo:
		return "sensor info"
	case KindDevice:
		return "device"
	case KindChannel:
		return "channel"
	case KindAutoOff:
		return "auto off"
	case KindAcknowledge:
		return "acknowledge"
	case KindDatamode:
		return "datamode"
	case KindData:
		return "data"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// AcknowledgeType is the closed set of _ok replies
type AcknowledgeType int

// Acknowledge types
const (
	AckAlive AcknowledgeType = iota
	AckRestartAP
	AckStartWifi
	AckQuitConfig
)

func (a AcknowledgeType) String() string {
	switch a {
	case AckAlive:
		return "Alive"
	case AckRestartAP:
		return "RestartAP"
	case AckStartWifi:
		return "StartWifi"
	case AckQuitConfig:
		return "QuitConfig"
	default:
		return fmt.Sprintf("AcknowledgeType(%d)", int(a))
	}
}

// parseAcknowledgeType maps the text after _ok to its type
func parseAcknowledgeType(s string) (AcknowledgeType, bool) {
	switch s {
	case ackTextAlive:
		return AckAlive, true
	case ackTextRestartAP:
		return AckRestartAP, true
	case ackTextStartWifi:
		return AckStartWifi, true
	case ackTextQuitConfig:
		return AckQuitConfig, true
	default:
		return 0, false
	}
}

// Response is one decoded line. Exactly one variant is produced per line;
// the set of variants is closed.
type Response interface {
	Kind() Kind
	response()
}

// SensorInfoResponse is a _si reply
type SensorInfoResponse struct {
	ID   uint8
	Info SensorInfo
}

// DeviceResponse is a _dev reply, one per table slot
type DeviceResponse struct {
	ID   uint8
	Addr HardwareAddr
}

// ChannelResponse is a _ch reply
type ChannelResponse struct {
	Channel uint8
}

// AutoOffResponse is an _auto_off reply
type AutoOffResponse struct {
	Enabled    uint8
	DurationMs uint64
}

// Duration returns the auto-off delay
func (r AutoOffResponse) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}

// AcknowledgeResponse is an _ok reply
type AcknowledgeResponse struct {
	Ack AcknowledgeType
}

// DatamodeResponse is a _datamode reply
type DatamodeResponse struct {
	Mode uint8
}

// DataResponse is a decoded telemetry line
type DataResponse struct {
	Datagram Datagram
}

// ErrorResponse is produced for any line that could not be classified or
// decoded. Line holds the raw bytes as received.
type ErrorResponse struct {
	Line []byte
	Err  error
}

func (SensorInfoResponse) Kind() Kind  { return KindSensorInfo }
func (DeviceResponse) Kind() Kind      { return KindDevice }
func (ChannelResponse) Kind() Kind     { return KindChannel }
func (AutoOffResponse) Kind() Kind     { return KindAutoOff }
func (AcknowledgeResponse) Kind() Kind { return KindAcknowledge }
func (DatamodeResponse) Kind() Kind    { return KindDatamode }
func (DataResponse) Kind() Kind        { return KindData }
func (ErrorResponse) Kind() Kind       { return KindError }

func (SensorInfoResponse) response()  {}
func (DeviceResponse) response()      {}
func (ChannelResponse) response()     {}
func (AutoOffResponse) response()     {}
func (AcknowledgeResponse) response() {}
func (DatamodeResponse) response()    {}
func (DataResponse) response()        {}
func (ErrorResponse) response()       {}
