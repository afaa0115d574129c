// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unimotion

import "fmt"

// AnomalyType represents different types of response anomalies
type AnomalyType int

const (
	ANOMALY_SENSOR_ID_RANGE AnomalyType = iota
	ANOMALY_ZERO_QUATERNION
	ANOMALY_MAG_THRESHOLD
	ANOMALY_AUTO_OFF_FLAG
	ANOMALY_UNKNOWN_DATAMODE
	ANOMALY_NIL_ADDRESS
)

// ValidationError represents a decoded response whose values are out of
// the range the station normally reports
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateResponse checks a decoded response for anomalous values.
// Returns a slice of validation errors (empty if the response is plausible).
// ErrorResponse values are not validated; they already failed decoding.
func ValidateResponse(resp Response) []ValidationError {
	switch v := resp.(type) {
	case SensorInfoResponse:
		return validateSensorInfo(v)
	case DeviceResponse:
		return validateSensorID(v.ID)
	case AutoOffResponse:
		return validateAutoOff(v)
	case DatamodeResponse:
		return validateDatamode(v.Mode)
	case DataResponse:
		return validateDatagram(v.Datagram)
	}
	return nil
}

func validateSensorID(id uint8) []ValidationError {
	if int(id) < MaxUniSensorCount {
		return nil
	}
	return []ValidationError{{
		Type:    ANOMALY_SENSOR_ID_RANGE,
		Message: fmt.Sprintf("Sensor id %d out of range (max %d)", id, MaxUniSensorCount-1),
		Details: map[string]interface{}{"id": id, "max": MaxUniSensorCount - 1},
	}}
}

func validateSensorInfo(r SensorInfoResponse) []ValidationError {
	errors := validateSensorID(r.ID)

	if r.Info.Addr.IsNil() {
		errors = append(errors, ValidationError{
			Type:    ANOMALY_NIL_ADDRESS,
			Message: fmt.Sprintf("Sensor %d reports a nil hardware address", r.ID),
			Details: map[string]interface{}{"id": r.ID},
		})
	}

	if r.Info.HasMagThresholds() && r.Info.MinMagThreshold > r.Info.MaxMagThreshold {
		errors = append(errors, ValidationError{
			Type: ANOMALY_MAG_THRESHOLD,
			Message: fmt.Sprintf("Sensor %d: magnetic threshold min > max (%d > %d)",
				r.ID, r.Info.MinMagThreshold, r.Info.MaxMagThreshold),
			Details: map[string]interface{}{"id": r.ID, "min": r.Info.MinMagThreshold, "max": r.Info.MaxMagThreshold},
		})
	}

	errors = append(errors, validateDatamode(r.Info.Datamode)...)
	return errors
}

func validateAutoOff(r AutoOffResponse) []ValidationError {
	if r.Enabled <= 1 {
		return nil
	}
	return []ValidationError{{
		Type:    ANOMALY_AUTO_OFF_FLAG,
		Message: fmt.Sprintf("Auto-off enable flag %d is not 0 or 1", r.Enabled),
		Details: map[string]interface{}{"enabled": r.Enabled},
	}}
}

// The station documents data modes 0 through 4
func validateDatamode(mode uint8) []ValidationError {
	if mode <= 4 {
		return nil
	}
	return []ValidationError{{
		Type:    ANOMALY_UNKNOWN_DATAMODE,
		Message: fmt.Sprintf("Unknown datamode %d (max 4)", mode),
		Details: map[string]interface{}{"datamode": mode, "max": 4},
	}}
}

func validateDatagram(d Datagram) []ValidationError {
	errors := validateSensorID(d.ID)

	for i, q := range d.Quaternions {
		if q.IsZero() {
			errors = append(errors, ValidationError{
				Type:    ANOMALY_ZERO_QUATERNION,
				Message: fmt.Sprintf("Sensor %d: quaternion %d is all zero", d.ID, i),
				Details: map[string]interface{}{"id": d.ID, "quaternion": i},
			})
		}
	}

	return errors
}
