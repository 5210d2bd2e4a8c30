// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"errors"
	"fmt"
)

// ErrConnectTimeout is returned by ConnectBlocking when the peer's
// socket never became connectable within the configured window.
var ErrConnectTimeout = errors.New("ipc: connect timed out")

// ErrMessageTooLarge is returned by Send when the encoded instruction
// exceeds MaxMessageSize. Enforcing the ceiling at send time keeps
// oversize payloads failing fast and predictably instead of being
// truncated by the kernel on the receive side.
var ErrMessageTooLarge = errors.New("ipc: encoded message exceeds datagram ceiling")

// ErrNotConnected is returned by Send before ConnectBlocking has
// associated the outbound socket with the peer's path.
var ErrNotConnected = errors.New("ipc: outbound socket not connected")

// DecodeError reports a received datagram that does not parse as a
// valid Instruction. This includes datagrams whose true size exceeded
// the receive buffer and were truncated by the kernel.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("ipc: decoding received datagram: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }
