// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unimotion

import "fmt"

// Decoder states (internal)
const (
	stateLine = iota
	stateDiscard
)

// Decoder splits the station's byte stream into lines
type Decoder struct {
	state  int
	buffer []byte
}

// NewDecoder creates a new line decoder
func NewDecoder() *Decoder {
	return &Decoder{
		state:  stateLine,
		buffer: make([]byte, 0, MaxLineSize),
	}
}

// Reset drops any partial line
func (d *Decoder) Reset() {
	d.state = stateLine
	d.buffer = d.buffer[:0]
}

// Buffered returns the bytes of the line being accumulated
func (d *Decoder) Buffered() []byte {
	return d.buffer
}

// DecodeByte processes a single byte.
// Returns the completed line (without the newline) when b terminates one,
// or nil while the line is incomplete. The returned slice is owned by the
// caller.
// Returns an error once per line that grows past MaxLineSize; the rest of
// that line is skipped up to the next newline.
func (d *Decoder) DecodeByte(b byte) ([]byte, error) {
	switch d.state {
	case stateLine:
		if b == '\n' {
			line := make([]byte, len(d.buffer))
			copy(line, d.buffer)
			d.buffer = d.buffer[:0]
			return line, nil
		}
		if len(d.buffer) >= MaxLineSize {
			d.state = stateDiscard
			d.buffer = d.buffer[:0]
			return nil, fmt.Errorf("line overflow: exceeds %d bytes", MaxLineSize)
		}
		d.buffer = append(d.buffer, b)
		return nil, nil

	case stateDiscard:
		if b == '\n' {
			d.Reset()
		}
		return nil, nil

	default:
		d.Reset()
		return nil, fmt.Errorf("invalid state: %d", d.state)
	}
}
