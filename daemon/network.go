// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"context"
	"errors"

	"github.com/gistit/gistit/lib/content"
	"github.com/gistit/gistit/lib/ipc"
)

// ErrNotFound is returned by Network.Find when no provider for the
// hash could be located.
var ErrNotFound = errors.New("daemon: no provider found for hash")

// Network is the daemon's view of the peer-to-peer layer. The real
// implementation lives outside this module; the daemon only needs
// these three operations to answer IPC requests.
type Network interface {
	// Announce publishes this daemon as a provider for hash and
	// returns the identifier under which peers can reach the payload.
	Announce(ctx context.Context, hash string) (string, error)

	// Find locates a provider for hash and retrieves its payload.
	// Returns ErrNotFound when no provider answers.
	Find(ctx context.Context, hash string) (content.Payload, error)

	// Snapshot reports the network state as of the moment of the call.
	// The daemon fills in the Hosting count from its own store.
	Snapshot(ctx context.Context) (ipc.StatusResult, error)
}

// StaticNetwork is a loopback Network with fixed identity and no
// peers. It announces everything successfully and finds nothing,
// which makes the daemon fully operational for local-only hosting.
type StaticNetwork struct {
	// PeerID is the identity reported in snapshots and returned by
	// Announce.
	PeerID string

	// Listeners are the advertised listen addresses, if any.
	Listeners []string
}

func (n *StaticNetwork) Announce(ctx context.Context, hash string) (string, error) {
	return n.PeerID, nil
}

func (n *StaticNetwork) Find(ctx context.Context, hash string) (content.Payload, error) {
	return content.Payload{}, ErrNotFound
}

func (n *StaticNetwork) Snapshot(ctx context.Context) (ipc.StatusResult, error) {
	return ipc.StatusResult{
		PeerID:    n.PeerID,
		Listeners: n.Listeners,
	}, nil
}
