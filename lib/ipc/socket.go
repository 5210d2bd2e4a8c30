// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/gistit/gistit/lib/clock"
)

// MaxMessageSize is the per-datagram ceiling, send and receive alike.
// One encoded Instruction must fit in one datagram; there is no
// fragmentation. Sized a little above 50KB of snippet data to leave
// room for the envelope.
const MaxMessageSize = 60_000

// DefaultConnectTimeout bounds ConnectBlocking's startup barrier.
const DefaultConnectTimeout = 3 * time.Second

// endpoint wraps one Unix datagram socket. A bridge owns two: the
// inbound one (bound to this role's named path, receives) and the
// outbound one (connected to the peer's path, sends).
type endpoint struct {
	conn *net.UnixConn
}

// bindEndpoint creates a datagram socket bound at path. A stale socket
// file left by a dead previous owner is removed first; a path occupied
// by something that is not a socket, or by a socket something still
// answers on, is a bind error rather than a removal target.
func bindEndpoint(path string) (*endpoint, error) {
	if err := removeStaleSocket(path); err != nil {
		return nil, err
	}

	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		return nil, fmt.Errorf("ipc: binding socket at %s: %w", path, err)
	}
	if err := sizeSocketBuffers(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &endpoint{conn: conn}, nil
}

// removeStaleSocket clears the way for a fresh bind at path.
func removeStaleSocket(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("ipc: inspecting %s before bind: %w", path, err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("ipc: %s exists and is not a socket", path)
	}
	if probeEndpoint(path) {
		return fmt.Errorf("ipc: socket %s has a live owner", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("ipc: removing stale socket %s: %w", path, err)
	}
	return nil
}

// dialEndpoint creates an unbound datagram socket associated with the
// peer address at path. Send on the returned endpoint delivers to that
// path; the kernel refuses the dial while nothing is bound there.
func dialEndpoint(path string) (*endpoint, error) {
	conn, err := net.DialUnix("unixgram", nil, &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		return nil, err
	}
	if err := sizeSocketBuffers(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &endpoint{conn: conn}, nil
}

// dialEndpointBlocking retries dialEndpoint until it succeeds or the
// timeout elapses on clk. Attempts are back-to-back with no delay —
// this is a one-time startup synchronization barrier, not a
// steady-state operation.
func dialEndpointBlocking(path string, timeout time.Duration, clk clock.Clock) (*endpoint, error) {
	started := clk.Now()
	for {
		ep, err := dialEndpoint(path)
		if err == nil {
			return ep, nil
		}
		if clk.Now().Sub(started) > timeout {
			return nil, fmt.Errorf("%w: %s not connectable after %v: %v", ErrConnectTimeout, path, timeout, err)
		}
	}
}

// probeEndpoint reports whether the socket at path is currently
// connectable. One dial attempt, no handshake: it confirms a bound
// occupant, not a responsive one.
func probeEndpoint(path string) bool {
	conn, err := net.DialUnix("unixgram", nil, &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// sizeSocketBuffers raises the kernel send and receive buffers to hold
// at least one maximum-size datagram, so a ceiling-sized message never
// fails against a small default buffer.
func sizeSocketBuffers(conn *net.UnixConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("ipc: accessing raw socket: %w", err)
	}
	var sockoptError error
	controlError := raw.Control(func(fd uintptr) {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, 2*MaxMessageSize); err != nil {
			sockoptError = err
			return
		}
		sockoptError = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, 2*MaxMessageSize)
	})
	if controlError != nil {
		return fmt.Errorf("ipc: sizing socket buffers: %w", controlError)
	}
	if sockoptError != nil {
		return fmt.Errorf("ipc: sizing socket buffers: %w", sockoptError)
	}
	return nil
}

// sendRaw transmits exactly one datagram.
func (e *endpoint) sendRaw(data []byte) error {
	if _, err := e.conn.Write(data); err != nil {
		return fmt.Errorf("ipc: sending datagram: %w", err)
	}
	return nil
}

// recvRaw blocks until one datagram arrives and returns its bytes. A
// datagram larger than MaxMessageSize is truncated by the kernel; the
// caller surfaces that as a decode failure.
func (e *endpoint) recvRaw() ([]byte, error) {
	buffer := make([]byte, MaxMessageSize)
	n, err := e.conn.Read(buffer)
	if err != nil {
		return nil, fmt.Errorf("ipc: receiving datagram: %w", err)
	}
	return buffer[:n], nil
}

func (e *endpoint) close() error {
	return e.conn.Close()
}
