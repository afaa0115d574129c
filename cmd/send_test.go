// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"
	"time"

	"github.com/Thermoquad/unistat/pkg/unimotion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAndAwait(t *testing.T) {
	tests := []struct {
		name    string
		command unimotion.Command
		waitAck bool
		replies map[string][]string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "acknowledged",
			command: unimotion.StartWifi(),
			waitAck: true,
			replies: map[string][]string{"_wifistart": {"_ok WIFI_ON"}},
			check: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name:    "wrong acknowledge",
			command: unimotion.StartWifi(),
			waitAck: true,
			replies: map[string][]string{"_wifistart": {"_ok QUIT_CONFIG"}},
			check: func(t *testing.T, err error) {
				var ackErr *unimotion.UnexpectedAckError
				require.ErrorAs(t, err, &ackErr)
				assert.Equal(t, unimotion.AckStartWifi, ackErr.Expected)
				assert.Equal(t, unimotion.AckQuitConfig, ackErr.Actual)
			},
		},
		{
			name:    "no acknowledge",
			command: unimotion.QuitConfig(),
			waitAck: true,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, unimotion.ErrTimeout)
			},
		},
		{
			name:    "ack not requested",
			command: unimotion.QuitConfig(),
			check: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name:    "command without acknowledge",
			command: unimotion.EnableAHRS(3),
			waitAck: true,
			check: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, _ := newTestSession(t, tt.replies)
			tt.check(t, sendAndAwait(session, tt.command, tt.waitAck, 200*time.Millisecond))
		})
	}
}

func TestSendAndAwait_SensorInfo(t *testing.T) {
	session, _ := newTestSession(t, map[string][]string{
		"__sensinfo id:7:b": {vectorSensorInfoLine},
	})

	addr, err := unimotion.ParseHardwareAddr("E8:68:E7:53:55:DE")
	require.NoError(t, err)
	require.True(t, session.ApplyDevice(unimotion.DeviceResponse{ID: 7, Addr: addr}))

	require.NoError(t, sendAndAwait(session, unimotion.RequestSensorInfo(7), false, 200*time.Millisecond))

	dev := session.Device(7)
	require.NotNil(t, dev.Info)
	assert.Equal(t, addr, dev.Addr, "the paired address is kept")
	assert.Equal(t, "08:3A:F2:6D:1D:98", dev.Info.Addr.String())
	assert.True(t, dev.Info.IMUFlip)
}

func TestPingOnce(t *testing.T) {
	t.Run("reply", func(t *testing.T) {
		session, _ := newTestSession(t, map[string][]string{"_alive": {"_ok"}})
		rtt, err := pingOnce(session, 200*time.Millisecond)
		require.NoError(t, err)
		assert.Greater(t, rtt, time.Duration(0))
	})

	t.Run("other acknowledges skipped", func(t *testing.T) {
		session, _ := newTestSession(t, map[string][]string{"_alive": {"_ok WIFI_ON", "_ok"}})
		_, err := pingOnce(session, 200*time.Millisecond)
		assert.NoError(t, err)
	})

	t.Run("timeout", func(t *testing.T) {
		session, _ := newTestSession(t, nil)
		_, err := pingOnce(session, 50*time.Millisecond)
		assert.ErrorIs(t, err, unimotion.ErrTimeout)
	})

	t.Run("disconnected", func(t *testing.T) {
		session, station := newTestSession(t, nil)
		station.hangUp()
		<-session.Done()
		_, err := pingOnce(session, 50*time.Millisecond)
		assert.Error(t, err)
	})
}
