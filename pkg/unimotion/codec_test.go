// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unimotion

import (
	"encoding/base64"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ============================================================
// Test Vectors
// ============================================================

// Captured from a UniStation with one paired sensor
const (
	vectorSensorInfoLine = "_si 7 Zk4IOvJtHZgBCloDAgAEAAAAASgIAHw="
	vectorDataLine       = "B6cdte627NJ+Gxy1rbZs058bgP8"
)

func mustDecodeBase64(t *testing.T, s string) []byte {
	t.Helper()
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		t.Fatalf("bad test vector %q: %v", s, err)
	}
	return b
}

// ============================================================
// Quaternion Tests
// ============================================================

func TestDecodeQuaternion_WireOrder(t *testing.T) {
	// W=1, Y=2, Z=3, X=4 little-endian
	b := [QuaternionSize]byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04, 0x00}

	got := DecodeQuaternion(b)
	want := Quaternion{X: 4, Y: 2, Z: -3, W: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeQuaternion mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeQuaternion_ZNegationWraps(t *testing.T) {
	tests := []struct {
		name string
		rawZ uint16
		want int16
	}{
		{"zero", 0x0000, 0},
		{"one", 0x0001, -1},
		{"minus one", 0xFFFF, 1},
		{"max", 0x7FFF, -32767},
		{"min wraps", 0x8000, math.MinInt16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b [QuaternionSize]byte
			b[4] = byte(tt.rawZ)
			b[5] = byte(tt.rawZ >> 8)

			got := DecodeQuaternion(b)
			if got.Z != tt.want {
				t.Errorf("Z = %d, want %d", got.Z, tt.want)
			}
		})
	}
}

func TestQuaternion_Normalized(t *testing.T) {
	q := Quaternion{W: 3, X: 4}
	n := q.Normalized()

	if math.Abs(n.Real-0.6) > 1e-9 || math.Abs(n.Imag-0.8) > 1e-9 {
		t.Errorf("Normalized() = %+v, want real=0.6 imag=0.8", n)
	}
	if n.Jmag != 0 || n.Kmag != 0 {
		t.Errorf("Normalized() = %+v, want zero j and k", n)
	}
}

func TestQuaternion_ZeroHasNoOrientation(t *testing.T) {
	var q Quaternion
	if !q.IsZero() {
		t.Error("zero quaternion should report IsZero")
	}
	n := q.Normalized()
	if n.Real != 0 || n.Imag != 0 || n.Jmag != 0 || n.Kmag != 0 {
		t.Errorf("Normalized() of zero = %+v, want zero", n)
	}
	roll, pitch, yaw := q.Euler()
	if math.IsNaN(roll) || math.IsNaN(pitch) || math.IsNaN(yaw) {
		t.Errorf("Euler() of zero produced NaN: %v %v %v", roll, pitch, yaw)
	}
}

func TestQuaternion_EulerIdentity(t *testing.T) {
	q := Quaternion{W: 16384}
	roll, pitch, yaw := q.Euler()
	if roll != 0 || pitch != 0 || yaw != 0 {
		t.Errorf("Euler() of identity = %v %v %v, want 0 0 0", roll, pitch, yaw)
	}
}

func TestQuaternion_EulerYaw90(t *testing.T) {
	// Rotation of 90 degrees about Z
	q := Quaternion{W: 11585, Z: 11585}
	_, _, yaw := q.Euler()
	if math.Abs(yaw-90) > 0.01 {
		t.Errorf("yaw = %v, want 90", yaw)
	}
}

// ============================================================
// Hardware Address Tests
// ============================================================

func TestHardwareAddr_String(t *testing.T) {
	addr := HardwareAddr{0xE8, 0x68, 0xE7, 0x53, 0x55, 0xDE}
	if got := addr.String(); got != "E8:68:E7:53:55:DE" {
		t.Errorf("String() = %q", got)
	}
	if addr.IsNil() {
		t.Error("non-zero address reported nil")
	}
	if !(HardwareAddr{}).IsNil() {
		t.Error("zero address should be nil")
	}
}

func TestParseHardwareAddr(t *testing.T) {
	tests := []struct {
		input   string
		want    HardwareAddr
		wantErr bool
	}{
		{"E8:68:E7:53:55:DE", HardwareAddr{0xE8, 0x68, 0xE7, 0x53, 0x55, 0xDE}, false},
		{"e8-68-e7-53-55-de", HardwareAddr{0xE8, 0x68, 0xE7, 0x53, 0x55, 0xDE}, false},
		{"e868e75355de", HardwareAddr{0xE8, 0x68, 0xE7, 0x53, 0x55, 0xDE}, false},
		{"E8:68:E7:53:55", HardwareAddr{}, true},
		{"zz:68:E7:53:55:DE", HardwareAddr{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseHardwareAddr(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHardwareAddr(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseHardwareAddr(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

// ============================================================
// Sensor Info Tests
// ============================================================

func TestDecodeSensorInfo_LongForm(t *testing.T) {
	b := mustDecodeBase64(t, "Zk4IOvJtHZgBCloDAgAEAAAAASgIAHw=")
	if len(b) != SensorInfoLongSize {
		t.Fatalf("vector length = %d", len(b))
	}

	si, err := DecodeSensorInfo(b)
	if err != nil {
		t.Fatalf("DecodeSensorInfo failed: %v", err)
	}

	if si.Version != 102 || si.Reserved != 78 {
		t.Errorf("version/reserved = %d/%d, want 102/78", si.Version, si.Reserved)
	}
	if si.Addr.String() != "08:3A:F2:6D:1D:98" {
		t.Errorf("Addr = %s", si.Addr)
	}
	if si.Channel != 1 || si.TxPower != 10 || si.Datamode != 3 {
		t.Errorf("channel/tx/datamode = %d/%d/%d, want 1/10/3", si.Channel, si.TxPower, si.Datamode)
	}
	if si.SixAxis {
		t.Error("SixAxis should be false")
	}
	if !si.IMUFlip {
		t.Error("IMUFlip should be true")
	}
	if !si.HasMagThresholds() {
		t.Error("23 byte form should carry thresholds")
	}
	if si.MinMagThreshold != 0 || si.MaxMagThreshold != 124 {
		t.Errorf("thresholds = %d..%d, want 0..124", si.MinMagThreshold, si.MaxMagThreshold)
	}
}

func TestDecodeSensorInfo_ShortForm(t *testing.T) {
	long := mustDecodeBase64(t, "Zk4IOvJtHZgBCloDAgAEAAAAASgIAHw=")

	si, err := DecodeSensorInfo(long[:SensorInfoShortSize])
	if err != nil {
		t.Fatalf("DecodeSensorInfo failed: %v", err)
	}
	if si.HasMagThresholds() {
		t.Error("19 byte form should not carry thresholds")
	}
	if si.MinMagThreshold != MagThresholdUnset || si.MaxMagThreshold != MagThresholdUnset {
		t.Errorf("thresholds = %d..%d, want unset", si.MinMagThreshold, si.MaxMagThreshold)
	}
	if si.Addr.String() != "08:3A:F2:6D:1D:98" || !si.IMUFlip {
		t.Errorf("common fields differ from long form: %+v", si)
	}
}

func TestDecodeSensorInfo_FlagsUseBitZero(t *testing.T) {
	b := make([]byte, SensorInfoShortSize)
	b[17] = 0xFE
	b[18] = 0x03

	si, err := DecodeSensorInfo(b)
	if err != nil {
		t.Fatalf("DecodeSensorInfo failed: %v", err)
	}
	if si.SixAxis {
		t.Error("0xFE has bit 0 clear; SixAxis should be false")
	}
	if !si.IMUFlip {
		t.Error("0x03 has bit 0 set; IMUFlip should be true")
	}
}

func TestDecodeSensorInfo_InvalidLength(t *testing.T) {
	for _, n := range []int{0, 18, 20, 22, 24} {
		_, err := DecodeSensorInfo(make([]byte, n))
		var lengthErr *InvalidLengthError
		if !errors.As(err, &lengthErr) {
			t.Errorf("length %d: err = %v, want *InvalidLengthError", n, err)
			continue
		}
		if lengthErr.Length != n {
			t.Errorf("length %d: reported %d", n, lengthErr.Length)
		}
	}
}

// ============================================================
// Datagram Tests
// ============================================================

func TestDecodeDatagram_Vector(t *testing.T) {
	b := mustDecodeBase64(t, vectorDataLine+"=")

	got, err := DecodeDatagram(b)
	if err != nil {
		t.Fatalf("DecodeDatagram failed: %v", err)
	}

	want := Datagram{
		ID:             7,
		BatteryVoltage: 167,
		Quaternions: []Quaternion{
			{X: 7038, Y: -18706, Z: 11540, W: -19171},
			{X: 7071, Y: -18771, Z: 11412, W: -19172},
		},
		AHRSEnable:    128,
		MagneticPower: 255,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeDatagram mismatch (-want +got):\n%s", diff)
	}

	if _, ok := got.Quaternion(1); !ok {
		t.Error("slot 1 should be populated")
	}
	if _, ok := got.Quaternion(2); ok {
		t.Error("slot 2 should be empty")
	}
}

func TestDecodeDatagram_UndecodedForms(t *testing.T) {
	for _, n := range []int{DatagramSize1Q, DatagramSize1QFlags, DatagramSize2Q, DatagramSize4Q, DatagramSize4QFlags} {
		_, err := DecodeDatagram(make([]byte, n))
		if !errors.Is(err, ErrNotImplemented) {
			t.Errorf("length %d: err = %v, want ErrNotImplemented", n, err)
		}
	}
}

func TestDecodeDatagram_InvalidLength(t *testing.T) {
	for _, n := range []int{0, 1, 19, 21, 40} {
		_, err := DecodeDatagram(make([]byte, n))
		var lengthErr *InvalidLengthError
		if !errors.As(err, &lengthErr) {
			t.Errorf("length %d: err = %v, want *InvalidLengthError", n, err)
		}
	}
}
