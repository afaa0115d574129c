// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// configFile is the --config flag; every other persistent flag is read
// through viper into opts.
var configFile string

var rootCmd = &cobra.Command{
	Use:   "unistat",
	Short: "UniStation Serial Protocol Analyzer",
	Long: `Unistat - A CLI tool for talking to a Unimotion base station (UniStation).

Provides commands for raw line logging, error detection, sensor listing and
command sending, plus a live telemetry monitor for the paired sensors.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 230400]
  WebSocket: --url ws://host/path [--username user]

Settings can also come from a YAML config file (--config, $UNISTAT_CONFIG,
~/.config/unistat/config.yaml, /etc/unistat/config.yaml or ./config.yaml)
and from UNISTAT_* environment variables. Flags take precedence.

For WebSocket authentication, the password is read from the UNISTAT_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:      "1.0.0",
	SilenceUsage: true,
}

func init() {
	// Assigned here rather than in the literal to avoid an initialization
	// cycle (loadConfig reads rootCmd's flags).
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (YAML)")
	addPersistentFlags(rootCmd.PersistentFlags())
}

// addPersistentFlags defines the flags bound to config keys in flagKeys
func addPersistentFlags(fs *pflag.FlagSet) {
	def := defaultOptions()

	// Serial connection flags
	fs.StringP("port", "p", def.Port, "Serial port device")
	fs.IntP("baud", "b", def.Baud, "Baud rate (serial only)")

	// WebSocket connection flags
	fs.StringP("url", "u", def.URL, "WebSocket URL (ws:// or wss://)")
	fs.String("username", def.Username, "Username for HTTP Basic auth")
	fs.Bool("no-ssl-verify", def.NoSSLVerify, "Skip TLS certificate verification (wss:// only)")

	// Session flags
	fs.Duration("read-timeout", def.ReadTimeout, "Serial read timeout")
	fs.Duration("handshake-timeout", def.HandshakeTimeout, "Timeout for each handshake reply")
	fs.String("log-level", def.LogLevel, "Log level (trace, debug, info, warn, error)")
	fs.BoolP("debug", "d", def.Debug, "Enable debug logging")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
