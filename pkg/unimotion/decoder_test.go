// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unimotion

import (
	"bytes"
	"strings"
	"testing"
)

func decodeAll(t *testing.T, d *Decoder, data []byte) (lines []string, errs int) {
	t.Helper()
	for _, b := range data {
		line, err := d.DecodeByte(b)
		if err != nil {
			errs++
			continue
		}
		if line != nil {
			lines = append(lines, string(line))
		}
	}
	return lines, errs
}

func TestDecoder_SplitsLines(t *testing.T) {
	d := NewDecoder()
	lines, errs := decodeAll(t, d, []byte("_ch 1\r\n_datamode 3\r\n_auto_off 1 300000\n"))

	if errs != 0 {
		t.Fatalf("unexpected errors: %d", errs)
	}
	want := []string{"_ch 1\r", "_datamode 3\r", "_auto_off 1 300000"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", lines, want)
	}
}

func TestDecoder_PartialLine(t *testing.T) {
	d := NewDecoder()
	lines, _ := decodeAll(t, d, []byte("_ok WIFI"))
	if len(lines) != 0 {
		t.Fatalf("partial line returned early: %q", lines)
	}
	if string(d.Buffered()) != "_ok WIFI" {
		t.Errorf("Buffered() = %q", d.Buffered())
	}

	lines, _ = decodeAll(t, d, []byte("_ON\n"))
	if len(lines) != 1 || lines[0] != "_ok WIFI_ON" {
		t.Errorf("lines = %q", lines)
	}
}

func TestDecoder_EmptyLine(t *testing.T) {
	d := NewDecoder()
	line, err := d.DecodeByte('\n')
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line == nil || len(line) != 0 {
		t.Errorf("empty line should be returned as a non-nil empty slice, got %v", line)
	}
}

func TestDecoder_ReturnedLineIsOwned(t *testing.T) {
	d := NewDecoder()
	first, _ := decodeAll(t, d, []byte("AAAA\n"))
	second, _ := decodeAll(t, d, []byte("BBBB\n"))

	if first[0] != "AAAA" || second[0] != "BBBB" {
		t.Errorf("lines = %q %q", first, second)
	}
}

func TestDecoder_MaxLengthLineAccepted(t *testing.T) {
	d := NewDecoder()
	data := append(bytes.Repeat([]byte{'A'}, MaxLineSize), '\n')

	lines, errs := decodeAll(t, d, data)
	if errs != 0 || len(lines) != 1 || len(lines[0]) != MaxLineSize {
		t.Errorf("errs=%d lines=%d", errs, len(lines))
	}
}

func TestDecoder_Overflow(t *testing.T) {
	d := NewDecoder()

	// One oversized line followed by a good one
	data := append(bytes.Repeat([]byte{'A'}, 3*MaxLineSize), '\n')
	data = append(data, []byte("_ch 1\n")...)

	lines, errs := decodeAll(t, d, data)
	if errs != 1 {
		t.Errorf("overflow reported %d times, want once", errs)
	}
	if len(lines) != 1 || lines[0] != "_ch 1" {
		t.Errorf("lines = %q, want [_ch 1]", lines)
	}
	if cap(d.buffer) > MaxLineSize {
		t.Errorf("buffer grew to %d", cap(d.buffer))
	}
}

func TestDecoder_Reset(t *testing.T) {
	d := NewDecoder()
	decodeAll(t, d, []byte("partial"))
	d.Reset()

	lines, _ := decodeAll(t, d, []byte("_ch 2\n"))
	if len(lines) != 1 || lines[0] != "_ch 2" {
		t.Errorf("lines = %q", lines)
	}
}
