// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Thermoquad/unistat/pkg/unimotion"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func newTestFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addPersistentFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestReadOptions_Defaults(t *testing.T) {
	path := writeTempConfig(t, "")

	o, used, err := readOptions(newTestFlags(t), path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, defaultOptions(), o)
	assert.Equal(t, unimotion.DefaultBaudRate, o.Baud)
	assert.Equal(t, 500*time.Millisecond, o.HandshakeTimeout)
}

func TestReadOptions_Precedence(t *testing.T) {
	path := writeTempConfig(t, `
port: /dev/ttyUSB1
baud: 921600
read_timeout: 250ms
username: alice
`)
	t.Setenv("UNISTAT_BAUD", "115200")
	t.Setenv("UNISTAT_NO_SSL_VERIFY", "true")

	o, _, err := readOptions(newTestFlags(t, "--port", "/dev/ttyACM0"), path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", o.Port, "flag beats file")
	assert.Equal(t, 115200, o.Baud, "env beats file")
	assert.True(t, o.NoSSLVerify, "env beats default")
	assert.Equal(t, 250*time.Millisecond, o.ReadTimeout, "file beats default")
	assert.Equal(t, "alice", o.Username)
}

func TestReadOptions_ConfigFromEnv(t *testing.T) {
	path := writeTempConfig(t, "url: ws://bridge.local/uart\n")
	t.Setenv(configEnvVar, path)

	o, used, err := readOptions(nil, "")
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, "ws://bridge.local/uart", o.URL)
}

func TestReadOptions_MissingExplicitFile(t *testing.T) {
	_, _, err := readOptions(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOptions_LogLevel(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    log.Level
		wantErr bool
	}{
		{"default", defaultOptions(), log.InfoLevel, false},
		{"trace", Options{LogLevel: "trace"}, log.TraceLevel, false},
		{"debug flag wins", Options{LogLevel: "error", Debug: true}, log.DebugLevel, false},
		{"invalid", Options{LogLevel: "loud"}, log.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.logLevel()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteConfig_RoundTrip(t *testing.T) {
	want := defaultOptions()
	want.Port = "/dev/ttyUSB0"
	want.ReadTimeout = 750 * time.Millisecond

	buf, err := yaml.Marshal(want)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, writeConfig(path, buf, false))
	assert.Error(t, writeConfig(path, buf, false), "existing file needs overwrite")
	require.NoError(t, writeConfig(path, buf, true))

	got, _, err := readOptions(nil, path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
