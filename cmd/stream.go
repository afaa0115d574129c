// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"io"

	"github.com/Thermoquad/unistat/pkg/unimotion"
)

// errStopStream is returned by a stream handler to end the stream without
// reporting an error
var errStopStream = errors.New("stop stream")

// streamResponses reads conn without running the handshake, decoding each
// complete line and passing it to handle in arrival order. It returns nil
// when the connection is closed or handle returns errStopStream, and the
// read error otherwise. Read timeouts are retried.
func streamResponses(conn io.Reader, handle func(unimotion.Response) error) error {
	decoder := unimotion.NewDecoder()
	buf := make([]byte, 1024)

	for {
		n, readErr := conn.Read(buf)

		for i := 0; i < n; i++ {
			line, err := decoder.DecodeByte(buf[i])
			var resp unimotion.Response
			switch {
			case err != nil:
				resp = unimotion.ErrorResponse{Err: err}
			case line != nil:
				resp = unimotion.Parse(line)
			default:
				continue
			}

			if err := handle(resp); err != nil {
				if errors.Is(err, errStopStream) {
					return nil
				}
				return err
			}
		}

		if readErr == nil || isReadTimeout(readErr) {
			continue
		}
		if errors.Is(readErr, io.EOF) || errors.Is(readErr, ErrConnectionClosed) {
			return nil
		}
		return readErr
	}
}

func isReadTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
