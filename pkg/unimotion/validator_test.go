// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unimotion

import (
	"errors"
	"testing"
)

func TestValidateResponse_Plausible(t *testing.T) {
	responses := []Response{
		Parse([]byte(vectorSensorInfoLine)),
		Parse([]byte(vectorDataLine)),
		Parse([]byte("_dev 2 E8 68 E7 53 55 DE")),
		Parse([]byte("_auto_off 1 300000")),
		Parse([]byte("_datamode 3")),
		Parse([]byte("_ch 1")),
		Parse([]byte("_ok")),
	}

	for _, resp := range responses {
		if errs := ValidateResponse(resp); len(errs) != 0 {
			t.Errorf("%T: unexpected anomalies: %v", resp, errs)
		}
	}
}

func TestValidateResponse_Anomalies(t *testing.T) {
	longInfo, err := DecodeSensorInfo([]byte{
		1, 0, 1, 2, 3, 4, 5, 6, 1, 10, 0, 3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 200, 100,
	})
	if err != nil {
		t.Fatalf("DecodeSensorInfo failed: %v", err)
	}

	tests := []struct {
		name string
		resp Response
		want AnomalyType
	}{
		{"device id out of range", DeviceResponse{ID: 24, Addr: HardwareAddr{1}}, ANOMALY_SENSOR_ID_RANGE},
		{"data id out of range", DataResponse{Datagram: Datagram{ID: 200, Quaternions: []Quaternion{{W: 1}}}}, ANOMALY_SENSOR_ID_RANGE},
		{"zero quaternion", DataResponse{Datagram: Datagram{ID: 1, Quaternions: []Quaternion{{W: 1}, {}}}}, ANOMALY_ZERO_QUATERNION},
		{"auto off flag", AutoOffResponse{Enabled: 2, DurationMs: 1}, ANOMALY_AUTO_OFF_FLAG},
		{"datamode", DatamodeResponse{Mode: 9}, ANOMALY_UNKNOWN_DATAMODE},
		{"threshold order", SensorInfoResponse{ID: 1, Info: longInfo}, ANOMALY_MAG_THRESHOLD},
		{"nil address", SensorInfoResponse{ID: 1, Info: SensorInfo{}}, ANOMALY_NIL_ADDRESS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateResponse(tt.resp)
			if len(errs) != 1 {
				t.Fatalf("got %d anomalies %v, want 1", len(errs), errs)
			}
			if errs[0].Type != tt.want {
				t.Errorf("Type = %d, want %d", errs[0].Type, tt.want)
			}
			if errs[0].Error() == "" {
				t.Error("empty message")
			}
		})
	}
}

func TestValidateResponse_ErrorResponseSkipped(t *testing.T) {
	errs := ValidateResponse(ErrorResponse{Err: errors.New("bad")})
	if len(errs) != 0 {
		t.Errorf("ErrorResponse should not be validated, got %v", errs)
	}
}
