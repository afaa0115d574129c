// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unimotion

import (
	"encoding/binary"
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Quaternion is a raw orientation sample as sent by a sensor.
//
// The wire order is W Y Z X, each a little-endian 16-bit value. The sensor
// reports Z with the opposite sign, so it is negated on decode.
type Quaternion struct {
	X int16 `cbor:"0,keyasint"`
	Y int16 `cbor:"1,keyasint"`
	Z int16 `cbor:"2,keyasint"`
	W int16 `cbor:"3,keyasint"`
}

// DecodeQuaternion decodes 8 raw bytes. It cannot fail. A raw Z of -32768
// wraps to itself when negated.
func DecodeQuaternion(b [QuaternionSize]byte) Quaternion {
	w := int16(binary.LittleEndian.Uint16(b[0:2]))
	y := int16(binary.LittleEndian.Uint16(b[2:4]))
	z := int16(binary.LittleEndian.Uint16(b[4:6]))
	x := int16(binary.LittleEndian.Uint16(b[6:8]))

	return Quaternion{X: x, Y: y, Z: -z, W: w}
}

// Number returns the sample as a gonum quaternion (W real, X Y Z imaginary)
func (q Quaternion) Number() quat.Number {
	return quat.Number{
		Real: float64(q.W),
		Imag: float64(q.X),
		Jmag: float64(q.Y),
		Kmag: float64(q.Z),
	}
}

// Normalized returns the unit quaternion pointing the same way. A zero
// sample has no orientation and is returned as the zero quaternion.
func (q Quaternion) Normalized() quat.Number {
	n := q.Number()
	abs := quat.Abs(n)
	if abs == 0 {
		return quat.Number{}
	}
	return quat.Scale(1/abs, n)
}

// IsZero reports whether every component is zero
func (q Quaternion) IsZero() bool {
	return q == Quaternion{}
}

// Euler returns roll, pitch and yaw in degrees derived from the normalized
// sample.
func (q Quaternion) Euler() (roll, pitch, yaw float64) {
	n := q.Normalized()
	w, x, y, z := n.Real, n.Imag, n.Jmag, n.Kmag

	roll = math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	sinp := 2 * (w*y - z*x)
	switch {
	case sinp >= 1:
		pitch = math.Pi / 2
	case sinp <= -1:
		pitch = -math.Pi / 2
	default:
		pitch = math.Asin(sinp)
	}

	yaw = math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	const deg = 180 / math.Pi
	return roll * deg, pitch * deg, yaw * deg
}
