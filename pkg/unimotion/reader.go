// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unimotion

import (
	"errors"

	"github.com/sirupsen/logrus"
)

const readChunkSize = 1024

// deadlineError is implemented by transport errors that only mean no data
// arrived in time, such as net.Error and os.ErrDeadlineExceeded
type deadlineError interface {
	Timeout() bool
}

func isTimeout(err error) bool {
	var t deadlineError
	return errors.As(err, &t) && t.Timeout()
}

// readLoop feeds the transport through the line decoder and routes every
// line until the transport fails or the session is closed.
func (s *Session) readLoop() {
	defer close(s.done)
	defer s.router.Close()

	decoder := NewDecoder()
	buf := make([]byte, readChunkSize)

	for {
		n, err := s.transport.Read(buf)

		for _, b := range buf[:n] {
			line, derr := decoder.DecodeByte(b)
			if derr != nil {
				s.log.WithError(derr).Debug("dropping oversized line")
				if !s.route(ErrorResponse{Err: derr}) {
					return
				}
				continue
			}
			if line == nil {
				continue
			}
			if !s.route(Parse(line)) {
				return
			}
		}

		if err == nil || isTimeout(err) {
			continue
		}

		select {
		case <-s.closing:
			s.log.Debug("reader stopped")
		default:
			s.setErr(err)
			s.log.WithError(err).Error("reader stopped")
		}
		return
	}
}

// route delivers resp and reports whether the reader should keep going
func (s *Session) route(resp Response) bool {
	switch v := resp.(type) {
	case ErrorResponse:
		s.log.WithFields(logrus.Fields{
			"line":  string(v.Line),
			"error": v.Err,
		}).Trace("received unparseable line")
	default:
		s.log.WithField("kind", resp.Kind().String()).Tracef("received %+v", resp)
	}

	if err := s.router.Route(resp); err != nil {
		s.log.WithError(err).Debug("receivers gone, stopping reader")
		return false
	}
	return true
}
