// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unimotion

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

// Statistics tracks line statistics and error rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalLines      uint64
	ValidLines      uint64
	ParseErrors     uint64
	LengthErrors    uint64
	Base64Errors    uint64
	NotImplemented  uint64
	DecodeErrors    uint64
	AnomalousValues uint64
	ByKind          map[Kind]uint64
	BySensor        map[uint8]uint64

	// Rates (calculated)
	LineRate  float64 // lines/sec
	DataRate  float64 // datagrams/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
		ByKind:         make(map[Kind]uint64),
		BySensor:       make(map[uint8]uint64),
	}
}

// Update updates statistics based on a response and its anomalies
func (s *Statistics) Update(resp Response, validationErrors []ValidationError) {
	s.TotalLines++
	s.ByKind[resp.Kind()]++
	s.LastUpdateTime = time.Now()

	if e, ok := resp.(ErrorResponse); ok {
		s.countError(e.Err)
		return
	}

	if d, ok := resp.(DataResponse); ok {
		s.BySensor[d.Datagram.ID]++
	}

	if len(validationErrors) > 0 {
		s.AnomalousValues++
		return
	}
	s.ValidLines++
}

func (s *Statistics) countError(err error) {
	var parseErr *ParseError
	var lengthErr *InvalidLengthError
	var corrupt base64.CorruptInputError

	switch {
	case errors.Is(err, ErrNotImplemented):
		s.NotImplemented++
	case errors.As(err, &parseErr):
		s.ParseErrors++
	case errors.As(err, &lengthErr):
		s.LengthErrors++
	case errors.As(err, &corrupt):
		s.Base64Errors++
	default:
		// Overflowed lines and anything else the decoder rejects
		s.DecodeErrors++
	}
}

// Errors returns the number of lines that failed decoding
func (s *Statistics) Errors() uint64 {
	return s.ParseErrors + s.LengthErrors + s.Base64Errors + s.NotImplemented + s.DecodeErrors
}

// CalculateRates calculates line, datagram and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.LineRate = float64(s.TotalLines) / elapsed
		s.DataRate = float64(s.ByKind[KindData]) / elapsed
		s.ErrorRate = float64(s.Errors()+s.AnomalousValues) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	percent := func(n uint64) float64 {
		if s.TotalLines == 0 {
			return 0
		}
		return float64(n) * 100.0 / float64(s.TotalLines)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Lines:     %8d\n", s.TotalLines)
	result += fmt.Sprintf("Valid Lines:     %8d (%.1f%%)\n", s.ValidLines, percent(s.ValidLines))

	if s.ParseErrors > 0 {
		result += fmt.Sprintf("Parse Errors:    %8d (%.1f%%)\n", s.ParseErrors, percent(s.ParseErrors))
	}
	if s.LengthErrors > 0 {
		result += fmt.Sprintf("Length Errors:   %8d (%.1f%%)\n", s.LengthErrors, percent(s.LengthErrors))
	}
	if s.Base64Errors > 0 {
		result += fmt.Sprintf("Base64 Errors:   %8d (%.1f%%)\n", s.Base64Errors, percent(s.Base64Errors))
	}
	if s.NotImplemented > 0 {
		result += fmt.Sprintf("Undecoded Forms: %8d (%.1f%%)\n", s.NotImplemented, percent(s.NotImplemented))
	}
	if s.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Errors:   %8d (%.1f%%)\n", s.DecodeErrors, percent(s.DecodeErrors))
	}
	if s.AnomalousValues > 0 {
		result += fmt.Sprintf("Anomalous Values:%8d (%.1f%%)\n", s.AnomalousValues, percent(s.AnomalousValues))
	}

	for _, k := range Kinds {
		if n := s.ByKind[k]; n > 0 && k != KindError {
			result += fmt.Sprintf("  %-14s %8d\n", k.String()+":", n)
		}
	}

	result += fmt.Sprintf("Line Rate:       %8.1f lines/sec\n", s.LineRate)
	result += fmt.Sprintf("Data Rate:       %8.1f datagrams/sec\n", s.DataRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
