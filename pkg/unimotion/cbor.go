// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unimotion

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Record is a received datagram with its arrival time, the unit of the
// CBOR capture format: a CBOR sequence of {0: unix ms, 1: datagram} maps.
type Record struct {
	TimeMs   int64    `cbor:"0,keyasint"`
	Datagram Datagram `cbor:"1,keyasint"`
}

// Time returns the arrival time
func (r Record) Time() time.Time {
	return time.UnixMilli(r.TimeMs)
}

// Deterministic encoding so identical captures produce identical bytes
var cborEncMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// MarshalDatagram encodes a datagram as a CBOR map keyed by small integers
func MarshalDatagram(d Datagram) ([]byte, error) {
	data, err := cborEncMode.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode datagram: %w", err)
	}
	return data, nil
}

// UnmarshalDatagram decodes a datagram written by MarshalDatagram
func UnmarshalDatagram(data []byte) (Datagram, error) {
	if len(data) == 0 {
		return Datagram{}, fmt.Errorf("empty CBOR payload")
	}
	var d Datagram
	if err := cbor.Unmarshal(data, &d); err != nil {
		return Datagram{}, fmt.Errorf("failed to decode CBOR: %w", err)
	}
	if len(d.Quaternions) > MaxQuaternions {
		return Datagram{}, fmt.Errorf("datagram has %d quaternions (max %d)", len(d.Quaternions), MaxQuaternions)
	}
	return d, nil
}

// RecordWriter appends records to a CBOR sequence
type RecordWriter struct {
	enc *cbor.Encoder
}

// NewRecordWriter creates a writer that encodes records to w
func NewRecordWriter(w io.Writer) *RecordWriter {
	return &RecordWriter{enc: cborEncMode.NewEncoder(w)}
}

// Write encodes one datagram stamped with t
func (w *RecordWriter) Write(t time.Time, d Datagram) error {
	if err := w.enc.Encode(Record{TimeMs: t.UnixMilli(), Datagram: d}); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// RecordReader reads records from a CBOR sequence
type RecordReader struct {
	dec *cbor.Decoder
}

// NewRecordReader creates a reader over a sequence written by RecordWriter
func NewRecordReader(r io.Reader) *RecordReader {
	return &RecordReader{dec: cbor.NewDecoder(r)}
}

// Read returns the next record, or io.EOF at the end of the sequence
func (r *RecordReader) Read() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("failed to read record: %w", err)
	}
	return rec, nil
}
