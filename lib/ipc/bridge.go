// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gistit/gistit/lib/clock"
)

// The two well-known socket names under the base directory. Socket A
// is bound by the Server role, socket B by the Client role.
const (
	SocketNameServer = "gistit-0"
	SocketNameClient = "gistit-1"
)

// Channel is the role-independent surface of a bridge: the complete
// public API the CLI dispatch layer and the daemon's request handler
// use. It is sealed; ServerBridge and ClientBridge are its only
// implementations.
type Channel interface {
	// ConnectBlocking associates the outbound socket with the peer's
	// path, busy-retrying until the peer binds or the timeout elapses.
	// Both processes must run it successfully, once, before Send is
	// meaningful.
	ConnectBlocking() error

	// Alive reports whether the peer's socket path is currently
	// connectable. No end-to-end handshake is performed.
	Alive() bool

	// Send encodes instruction and writes it as one datagram on the
	// outbound socket.
	Send(instruction Instruction) error

	// Recv blocks until one datagram arrives on the inbound socket and
	// decodes it.
	Recv() (Instruction, error)

	// Close releases both sockets and removes this role's socket file.
	Close() error

	sealed()
}

// ServerBridge is the daemon's end of the channel: it binds socket A
// and targets socket B.
type ServerBridge struct {
	bridge
}

// ClientBridge is the CLI's end of the channel: it binds socket B and
// targets socket A.
type ClientBridge struct {
	bridge
}

// Server binds socket A under baseDirectory and returns the
// server-role bridge. The outbound socket stays unconnected until
// ConnectBlocking.
func Server(baseDirectory string) (*ServerBridge, error) {
	sb := &ServerBridge{}
	if err := initBridge(&sb.bridge, baseDirectory, SocketNameServer, SocketNameClient); err != nil {
		return nil, err
	}
	return sb, nil
}

// Client binds socket B under baseDirectory and returns the
// client-role bridge. The outbound socket stays unconnected until
// ConnectBlocking.
func Client(baseDirectory string) (*ClientBridge, error) {
	cb := &ClientBridge{}
	if err := initBridge(&cb.bridge, baseDirectory, SocketNameClient, SocketNameServer); err != nil {
		return nil, err
	}
	return cb, nil
}

var (
	_ Channel = (*ServerBridge)(nil)
	_ Channel = (*ClientBridge)(nil)
)

// bridge is the role-independent core. The constructor fixes which
// named path is bound and which is targeted; nothing can change them
// afterwards.
type bridge struct {
	// Logger receives structured log output. If nil, slog.Default()
	// is used. Per-message events log at Debug; lifecycle at Info.
	Logger *slog.Logger

	// Clock is the time source for the connect loop. If nil, the real
	// clock is used.
	Clock clock.Clock

	// ConnectTimeout bounds ConnectBlocking. If zero,
	// DefaultConnectTimeout applies.
	ConnectTimeout time.Duration

	baseDirectory string
	bindPath      string
	peerPath      string

	inbound *endpoint

	// sendMutex guards outbound: Send may replace it after a peer
	// rebind, and Close releases it.
	sendMutex sync.Mutex
	outbound  *endpoint
}

func initBridge(b *bridge, baseDirectory, bindName, peerName string) error {
	bindPath := filepath.Join(baseDirectory, bindName)
	inbound, err := bindEndpoint(bindPath)
	if err != nil {
		return err
	}
	b.baseDirectory = baseDirectory
	b.bindPath = bindPath
	b.peerPath = filepath.Join(baseDirectory, peerName)
	b.inbound = inbound
	return nil
}

func (b *bridge) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func (b *bridge) clock() clock.Clock {
	if b.Clock != nil {
		return b.Clock
	}
	return clock.Real()
}

func (b *bridge) connectTimeout() time.Duration {
	if b.ConnectTimeout > 0 {
		return b.ConnectTimeout
	}
	return DefaultConnectTimeout
}

// ConnectBlocking implements Channel.
func (b *bridge) ConnectBlocking() error {
	outbound, err := dialEndpointBlocking(b.peerPath, b.connectTimeout(), b.clock())
	if err != nil {
		return err
	}
	b.sendMutex.Lock()
	b.outbound = outbound
	b.sendMutex.Unlock()
	b.logger().Info("ipc channel connected",
		"bound", b.bindPath,
		"peer", b.peerPath,
	)
	return nil
}

// Alive implements Channel.
func (b *bridge) Alive() bool {
	return probeEndpoint(b.peerPath)
}

// Send implements Channel.
func (b *bridge) Send(instruction Instruction) error {
	encoded, err := encodeInstruction(instruction)
	if err != nil {
		return err
	}
	if len(encoded) > MaxMessageSize {
		return ErrMessageTooLarge
	}

	b.sendMutex.Lock()
	defer b.sendMutex.Unlock()
	if b.outbound == nil {
		return ErrNotConnected
	}
	if err := b.outbound.sendRaw(encoded); err != nil {
		// A connected unixgram socket stays pinned to the peer socket
		// that existed at dial time. When the peer closes and a new
		// occupant rebinds the same path, writes start failing with
		// ECONNREFUSED; re-dial the path and retry once so one bridge
		// can outlive a sequence of peers.
		if !errors.Is(err, syscall.ECONNREFUSED) {
			return err
		}
		fresh, dialErr := dialEndpoint(b.peerPath)
		if dialErr != nil {
			return err
		}
		b.outbound.close()
		b.outbound = fresh
		if err := b.outbound.sendRaw(encoded); err != nil {
			return err
		}
		b.logger().Debug("outbound endpoint re-dialed", "peer", b.peerPath)
	}
	b.logger().Debug("ipc message sent", "bytes", len(encoded))
	return nil
}

// Recv implements Channel.
func (b *bridge) Recv() (Instruction, error) {
	data, err := b.inbound.recvRaw()
	if err != nil {
		return nil, err
	}
	instruction, err := decodeInstruction(data)
	if err != nil {
		return nil, err
	}
	b.logger().Debug("ipc message received", "bytes", len(data))
	return instruction, nil
}

// Close implements Channel.
func (b *bridge) Close() error {
	var firstError error
	if b.inbound != nil {
		if err := b.inbound.close(); err != nil {
			firstError = err
		}
	}
	b.sendMutex.Lock()
	if b.outbound != nil {
		if err := b.outbound.close(); err != nil && firstError == nil {
			firstError = err
		}
		b.outbound = nil
	}
	b.sendMutex.Unlock()
	if err := os.Remove(b.bindPath); err != nil && !os.IsNotExist(err) && firstError == nil {
		firstError = err
	}
	return firstError
}

func (b *bridge) sealed() {}
