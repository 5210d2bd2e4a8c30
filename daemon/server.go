// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gistit/gistit/lib/content"
	"github.com/gistit/gistit/lib/ipc"
)

// Server runs the daemon's end of the IPC channel: it receives
// instructions, serves them from the store and the network, and sends
// replies back over the same bridge.
type Server struct {
	// Bridge is the server-role end of the channel. The role type
	// guarantees at compile time that the daemon can never bind the
	// CLI's socket.
	Bridge *ipc.ServerBridge

	// Store holds the hosted payloads.
	Store *Store

	// Network is the peer-to-peer collaborator.
	Network Network

	// Logger receives structured log output. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Run connects the bridge and serves instructions until a Shutdown
// arrives, the context is cancelled, or the channel fails. Cancelling
// the context closes the bridge to unblock the pending Recv; the
// bridge is unusable afterwards.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Bridge.ConnectBlocking(); err != nil {
		return err
	}

	// Recv has no cancellation primitive; closing the bridge is how a
	// cancelled context unblocks it.
	stop := context.AfterFunc(ctx, func() {
		s.Bridge.Close()
	})
	defer stop()
	defer s.Bridge.Close()

	s.logger().Info("daemon serving instructions")

	for {
		instruction, err := s.Bridge.Recv()
		if err != nil {
			var decodeError *ipc.DecodeError
			if errors.As(err, &decodeError) {
				// One bad datagram does not poison the channel.
				s.logger().Error("dropping undecodable datagram", "error", err)
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		switch request := instruction.(type) {
		case ipc.Provide:
			s.reply(s.handleProvide(ctx, request))
		case ipc.Fetch:
			s.reply(s.handleFetch(ctx, request))
		case ipc.Status:
			s.reply(s.handleStatus(ctx))
		case ipc.Shutdown:
			s.logger().Info("shutdown instruction received")
			return nil
		case ipc.Response:
			// Replies only ever flow daemon→CLI. Receiving one here
			// means a confused peer; drop it rather than crash.
			s.logger().Warn("ignoring response instruction on server channel")
		}
	}
}

func (s *Server) reply(response ipc.ServerResponse) {
	if err := s.Bridge.Send(ipc.Response{Body: response}); err != nil {
		s.logger().Error("sending reply failed", "error", err)
	}
}

// handleProvide stores the payload and announces it to the network. A
// nil identifier in the reply signals failure to the CLI.
func (s *Server) handleProvide(ctx context.Context, request ipc.Provide) ipc.ServerResponse {
	// A secret-protected payload digests data plus secret, which the
	// daemon cannot recompute, so only the hash shape and agreement
	// are checked here.
	if err := requestHashUsable(request); err != nil {
		s.logger().Error("rejecting provide request", "error", err)
		return ipc.ProvideResult{}
	}

	if err := s.Store.Put(request.Payload); err != nil {
		s.logger().Error("storing payload failed", "hash", request.Hash, "error", err)
		return ipc.ProvideResult{}
	}

	identifier, err := s.Network.Announce(ctx, request.Hash)
	if err != nil {
		s.logger().Error("announcing payload failed", "hash", request.Hash, "error", err)
		return ipc.ProvideResult{}
	}

	s.logger().Info("hosting payload", "hash", request.Hash, "identifier", identifier)
	return ipc.ProvideResult{Identifier: &identifier}
}

// handleFetch serves from the local store first, then asks the
// network. The protocol has no error reply for fetch, so a miss
// answers with a zero payload.
func (s *Server) handleFetch(ctx context.Context, request ipc.Fetch) ipc.ServerResponse {
	payload, found, err := s.Store.Get(request.Hash)
	if err != nil {
		s.logger().Error("reading store failed", "hash", request.Hash, "error", err)
		return ipc.FetchResult{}
	}
	if found {
		return ipc.FetchResult{Payload: payload}
	}

	payload, err = s.Network.Find(ctx, request.Hash)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger().Error("network fetch failed", "hash", request.Hash, "error", err)
		}
		return ipc.FetchResult{}
	}
	return ipc.FetchResult{Payload: payload}
}

func (s *Server) handleStatus(ctx context.Context) ipc.ServerResponse {
	snapshot, err := s.Network.Snapshot(ctx)
	if err != nil {
		s.logger().Error("network snapshot failed", "error", err)
		snapshot = ipc.StatusResult{}
	}
	snapshot.Hosting = s.Store.Len()
	return snapshot
}

// requestHashUsable checks that a provide request's hashes are
// well-formed and agree with each other.
func requestHashUsable(request ipc.Provide) error {
	if err := content.CheckHash(request.Hash); err != nil {
		return err
	}
	if request.Hash != request.Payload.Hash {
		return errors.New("daemon: provide request and payload hashes disagree")
	}
	return nil
}
