// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"io"
	"net"
	"testing"
	"time"

	"github.com/Thermoquad/unistat/pkg/unimotion"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

const (
	vectorDataLine       = "B6cdte627NJ+Gxy1rbZs058bgP8"
	vectorSensorInfoLine = "_si 7 Zk4IOvJtHZgBCloDAgAEAAAAASgIAHw="
)

// testStation answers each received command line with its canned replies
type testStation struct {
	conn    net.Conn
	replies map[string][]string
}

// push sends unsolicited lines, such as telemetry
func (st *testStation) push(lines ...string) error {
	for _, l := range lines {
		if _, err := io.WriteString(st.conn, l+"\r\n"); err != nil {
			return err
		}
	}
	return nil
}

func (st *testStation) serve() {
	scanner := bufio.NewScanner(st.conn)
	for scanner.Scan() {
		if err := st.push(st.replies[scanner.Text()]...); err != nil {
			return
		}
	}
}

func (st *testStation) hangUp() {
	_ = st.conn.Close()
}

// newTestSession starts a session, without the handshake, wired to a
// station that answers with replies
func newTestSession(t *testing.T, replies map[string][]string) (*unimotion.Session, *testStation) {
	t.Helper()

	host, remote := net.Pipe()
	st := &testStation{conn: remote, replies: replies}
	go st.serve()

	logger, _ := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	session := unimotion.NewSession(host, unimotion.Config{
		HandshakeTimeout: 200 * time.Millisecond,
		Logger:           logger,
	})
	t.Cleanup(func() {
		session.Close()
		st.hangUp()
	})
	return session, st
}
