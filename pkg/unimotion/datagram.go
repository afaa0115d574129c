// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unimotion

import "fmt"

// Datagram is one telemetry frame from a sensor.
//
// Quaternions holds the populated slots in order; slot i is present iff
// i < len(Quaternions). At most MaxQuaternions slots exist.
type Datagram struct {
	ID             uint8        `cbor:"0,keyasint"`
	BatteryVoltage uint8        `cbor:"1,keyasint"`
	Quaternions    []Quaternion `cbor:"2,keyasint"`
	AHRSEnable     uint8        `cbor:"3,keyasint"`
	MagneticPower  uint8        `cbor:"4,keyasint"`
}

// Quaternion returns slot i and whether it was transmitted
func (d Datagram) Quaternion(i int) (Quaternion, bool) {
	if i < 0 || i >= len(d.Quaternions) {
		return Quaternion{}, false
	}
	return d.Quaternions[i], true
}

// DecodeDatagram decodes a telemetry payload. Only the 20 byte form (two
// quaternions plus AHRS and magnetic bytes) is decoded; the other known
// sizes return an error wrapping ErrNotImplemented.
func DecodeDatagram(b []byte) (Datagram, error) {
	switch len(b) {
	case DatagramSize2QFlags:
		return decodeDatagram2QFlags(b), nil
	case DatagramSize1Q, DatagramSize1QFlags, DatagramSize2Q, DatagramSize4Q, DatagramSize4QFlags:
		return Datagram{}, fmt.Errorf("%d byte datagram: %w", len(b), ErrNotImplemented)
	default:
		return Datagram{}, &InvalidLengthError{What: "datagram", Length: len(b)}
	}
}

func decodeDatagram2QFlags(b []byte) Datagram {
	var q1, q2 [QuaternionSize]byte
	copy(q1[:], b[2:10])
	copy(q2[:], b[10:18])

	return Datagram{
		ID:             b[0],
		BatteryVoltage: b[1],
		Quaternions:    []Quaternion{DecodeQuaternion(q1), DecodeQuaternion(q2)},
		AHRSEnable:     b[18],
		MagneticPower:  b[19],
	}
}
