// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Unistat - UniStation Serial Protocol Analyzer
//
// A CLI tool for initializing a Unimotion base station and decoding its
// sensor telemetry in human-readable format.

package main

import (
	"os"

	"github.com/Thermoquad/unistat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
