// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unimotion

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HardwareAddr is a 6 byte MAC address. The all-zero address is "nil" and
// marks an unpaired slot.
type HardwareAddr [HardwareAddrSize]byte

// IsNil reports whether the address is all zeros
func (a HardwareAddr) IsNil() bool {
	return a == HardwareAddr{}
}

// String formats the address as upper-case colon separated hex
func (a HardwareAddr) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}

// ParseHardwareAddr parses 12 hex digits, with or without ':' or '-'
// separators.
func ParseHardwareAddr(s string) (HardwareAddr, error) {
	var addr HardwareAddr
	digits := strings.NewReplacer(":", "", "-", "").Replace(s)
	if len(digits) != 2*HardwareAddrSize {
		return addr, fmt.Errorf("invalid hardware address %q", s)
	}
	if _, err := hex.Decode(addr[:], []byte(digits)); err != nil {
		return HardwareAddr{}, fmt.Errorf("invalid hardware address %q: %w", s, err)
	}
	return addr, nil
}

// SensorInfo is the configuration snapshot returned for one sensor by _si
type SensorInfo struct {
	Version  uint8        // [0]
	Reserved uint8        // [1], meaning unknown
	Addr     HardwareAddr // [2..8], address of the station the sensor is paired to
	Channel  uint8        // [8]
	TxPower  uint8        // [9]
	Datamode uint8        // [11]
	SixAxis  bool         // [17] bit 0
	IMUFlip  bool         // [18] bit 0

	// Only present in the 23 byte form, MagThresholdUnset otherwise
	MinMagThreshold uint8 // [21]
	MaxMagThreshold uint8 // [22]

	long bool
}

// HasMagThresholds reports whether the thresholds came from the wire
func (si SensorInfo) HasMagThresholds() bool {
	return si.long
}

// DecodeSensorInfo decodes the 19 or 23 byte sensor info payload
func DecodeSensorInfo(b []byte) (SensorInfo, error) {
	if len(b) != SensorInfoShortSize && len(b) != SensorInfoLongSize {
		return SensorInfo{}, &InvalidLengthError{What: "sensor info", Length: len(b)}
	}

	si := SensorInfo{
		Version:         b[0],
		Reserved:        b[1],
		Channel:         b[8],
		TxPower:         b[9],
		Datamode:        b[11],
		SixAxis:         b[17]&0x01 != 0,
		IMUFlip:         b[18]&0x01 != 0,
		MinMagThreshold: MagThresholdUnset,
		MaxMagThreshold: MagThresholdUnset,
	}
	copy(si.Addr[:], b[2:8])

	if len(b) == SensorInfoLongSize {
		si.MinMagThreshold = b[21]
		si.MaxMagThreshold = b[22]
		si.long = true
	}

	return si, nil
}
