// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unimotion

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// randomLine builds a line of printable ASCII with occasional spaces
func randomLine(rng *rand.Rand, n int) []byte {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/=_ "
	line := make([]byte, n)
	for i := range line {
		line[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return line
}

// ============================================================
// Decoder Fuzz Tests
// ============================================================

func TestFuzz_DecoderRandomStream(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		d := NewDecoder()

		var want [][]byte
		var stream []byte
		lines := 1 + rng.Intn(8)
		for j := 0; j < lines; j++ {
			line := randomLine(rng, rng.Intn(MaxLineSize))
			want = append(want, line)
			stream = append(stream, line...)
			stream = append(stream, '\n')
		}

		var got [][]byte
		for _, b := range stream {
			line, err := d.DecodeByte(b)
			if err != nil {
				t.Fatalf("round %d: unexpected error: %v", i, err)
			}
			if line != nil {
				got = append(got, line)
			}
		}

		if len(got) != len(want) {
			t.Fatalf("round %d: got %d lines, want %d", i, len(got), len(want))
		}
		for j := range want {
			if string(got[j]) != string(want[j]) {
				t.Fatalf("round %d line %d: got %q, want %q", i, j, got[j], want[j])
			}
		}
	}
}

func TestFuzz_DecoderRandomBytes(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()
	d := NewDecoder()

	for i := 0; i < rounds; i++ {
		n := rng.Intn(2 * MaxLineSize)
		for j := 0; j < n; j++ {
			line, _ := d.DecodeByte(byte(rng.Intn(256)))
			if len(line) > MaxLineSize {
				t.Fatalf("round %d: line of %d bytes exceeds MaxLineSize", i, len(line))
			}
			if len(d.Buffered()) > MaxLineSize {
				t.Fatalf("round %d: buffer grew to %d bytes", i, len(d.Buffered()))
			}
		}
	}
}
