// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package unimotion

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is matched by every *TimeoutError
	ErrTimeout = errors.New("timed out")

	// ErrDisconnected is returned once a queue has been closed and drained,
	// which happens when the reader stops or the session is closed.
	ErrDisconnected = errors.New("session disconnected")

	// ErrNotImplemented marks telemetry frame shapes that are recognized but
	// not decoded yet.
	ErrNotImplemented = errors.New("not implemented")

	// ErrWriteFailed is returned when the transport accepts fewer bytes than
	// the command holds.
	ErrWriteFailed = errors.New("failed to write to transport")
)

// TimeoutError reports that no value of Kind arrived in time
type TimeoutError struct {
	Kind Kind
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for %s", e.Kind)
}

// Is lets errors.Is(err, ErrTimeout) match
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// UnexpectedAckError reports an acknowledge of the wrong type
type UnexpectedAckError struct {
	Expected AcknowledgeType
	Actual   AcknowledgeType
}

func (e *UnexpectedAckError) Error() string {
	return fmt.Sprintf("unexpected acknowledge: expected %s, got %s", e.Expected, e.Actual)
}

// HandshakeError identifies the handshake step that failed
type HandshakeError struct {
	Step HandshakeStep
	Err  error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake failed at %s: %v", e.Step, e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// ParseError reports a prefixed line whose arguments could not be parsed
type ParseError struct {
	Prefix string
	Args   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed %s line %q: %s", e.Prefix, e.Args, e.Reason)
}

// InvalidLengthError reports a payload or line of an unsupported length
type InvalidLengthError struct {
	What   string
	Length int
}

func (e *InvalidLengthError) Error() string {
	return fmt.Sprintf("unrecognized %s length: %d", e.What, e.Length)
}
