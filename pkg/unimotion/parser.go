// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unimotion

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// b64 rejects non-canonical padding and non-zero trailing bits, matching the
// encoder used by the station firmware.
var b64 = base64.StdEncoding.Strict()

// Parse classifies and decodes one line received from the station. It is
// total: malformed input produces an ErrorResponse carrying the raw line,
// never a panic or a partially filled response.
func Parse(raw []byte) Response {
	resp, err := parse(string(bytes.TrimSpace(raw)))
	if err != nil {
		return ErrorResponse{Line: append([]byte(nil), raw...), Err: err}
	}
	return resp
}

func parse(line string) (Response, error) {
	token, _, _ := strings.Cut(line, " ")

	switch token {
	case PrefixSensorInfo:
		return parseSensorInfo(argsAfter(line, PrefixSensorInfo))
	case PrefixDevice:
		return parseDevice(argsAfter(line, PrefixDevice))
	case PrefixChannel:
		return parseChannel(argsAfter(line, PrefixChannel))
	case PrefixAutoOff:
		return parseAutoOff(argsAfter(line, PrefixAutoOff))
	case PrefixAcknowledge:
		return parseAcknowledge(argsAfter(line, PrefixAcknowledge))
	case PrefixDatamode:
		return parseDatamode(argsAfter(line, PrefixDatamode))
	}

	return parseTelemetry(line)
}

// argsAfter strips the prefix and any whitespace that follows it
func argsAfter(line, prefix string) string {
	return strings.TrimSpace(line[len(prefix):])
}

// parseTelemetry decodes an unprefixed base64 line. The character count is
// the only framing the station provides.
func parseTelemetry(line string) (Response, error) {
	frame, ok := telemetryFrames[len(line)]
	if !ok {
		return nil, &InvalidLengthError{What: "telemetry line", Length: len(line)}
	}

	payload, err := b64.DecodeString(line + frame.padding)
	if err != nil {
		return nil, fmt.Errorf("telemetry base64: %w", err)
	}
	if len(payload) != frame.size {
		return nil, &InvalidLengthError{What: "telemetry payload", Length: len(payload)}
	}

	datagram, err := DecodeDatagram(payload)
	if err != nil {
		return nil, err
	}
	return DataResponse{Datagram: datagram}, nil
}

// _si <id> <base64 of 19 or 23 bytes>
func parseSensorInfo(args string) (Response, error) {
	fields := strings.Split(args, " ")
	if len(fields) != 2 {
		return nil, &ParseError{Prefix: PrefixSensorInfo, Args: args, Reason: "expected id and payload"}
	}

	id, err := parseByte(fields[0])
	if err != nil {
		return nil, &ParseError{Prefix: PrefixSensorInfo, Args: args, Reason: "invalid id"}
	}

	payload, err := b64.DecodeString(fields[1])
	if err != nil {
		return nil, &ParseError{Prefix: PrefixSensorInfo, Args: args, Reason: "invalid base64 payload"}
	}

	info, err := DecodeSensorInfo(payload)
	if err != nil {
		return nil, err
	}
	return SensorInfoResponse{ID: id, Info: info}, nil
}

// _dev <id> <hex> <hex> <hex> <hex> <hex> <hex>
//
// The station prints unpaired slots as "0 0 0 0 0 0", so single digit bytes
// are zero padded before decoding.
func parseDevice(args string) (Response, error) {
	fields := strings.Split(args, " ")
	if len(fields) != 1+HardwareAddrSize {
		return nil, &ParseError{Prefix: PrefixDevice, Args: args, Reason: "expected id and 6 address bytes"}
	}

	id, err := parseByte(fields[0])
	if err != nil {
		return nil, &ParseError{Prefix: PrefixDevice, Args: args, Reason: "invalid id"}
	}

	var digits strings.Builder
	for _, f := range fields[1:] {
		if len(f) < 2 {
			digits.WriteByte('0')
		}
		digits.WriteString(f)
	}

	var addr HardwareAddr
	if digits.Len() != 2*HardwareAddrSize {
		return nil, &ParseError{Prefix: PrefixDevice, Args: args, Reason: "invalid address"}
	}
	if _, err := hex.Decode(addr[:], []byte(digits.String())); err != nil {
		return nil, &ParseError{Prefix: PrefixDevice, Args: args, Reason: "invalid address"}
	}

	return DeviceResponse{ID: id, Addr: addr}, nil
}

// _ch <n>
func parseChannel(args string) (Response, error) {
	ch, err := parseByte(args)
	if err != nil {
		return nil, &ParseError{Prefix: PrefixChannel, Args: args, Reason: "invalid channel"}
	}
	return ChannelResponse{Channel: ch}, nil
}

// _auto_off <enabled> <duration ms>
func parseAutoOff(args string) (Response, error) {
	fields := strings.Split(args, " ")
	if len(fields) != 2 {
		return nil, &ParseError{Prefix: PrefixAutoOff, Args: args, Reason: "expected enable flag and duration"}
	}

	enabled, err := parseByte(fields[0])
	if err != nil {
		return nil, &ParseError{Prefix: PrefixAutoOff, Args: args, Reason: "invalid enable flag"}
	}
	duration, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return nil, &ParseError{Prefix: PrefixAutoOff, Args: args, Reason: "invalid duration"}
	}

	return AutoOffResponse{Enabled: enabled, DurationMs: duration}, nil
}

// _ok [ESP_RESTART|WIFI_ON|QUIT_CONFIG]
func parseAcknowledge(args string) (Response, error) {
	ack, ok := parseAcknowledgeType(args)
	if !ok {
		return nil, &ParseError{Prefix: PrefixAcknowledge, Args: args, Reason: "unknown acknowledge"}
	}
	return AcknowledgeResponse{Ack: ack}, nil
}

// _datamode <n>
func parseDatamode(args string) (Response, error) {
	mode, err := parseByte(args)
	if err != nil {
		return nil, &ParseError{Prefix: PrefixDatamode, Args: args, Reason: "invalid datamode"}
	}
	return DatamodeResponse{Mode: mode}, nil
}

func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}
