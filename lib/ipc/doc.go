// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

// Package ipc is the dual-socket datagram bridge between the gistit
// CLI and the gistit daemon.
//
// Two named Unix datagram sockets under a shared base directory form a
// full-duplex channel between exactly two processes. The daemon owns
// the Server role and binds socket "gistit-0"; the CLI owns the Client
// role and binds "gistit-1". Each role receives on the socket it binds
// and sends on the one its peer binds, so the two directions never
// contend. The roles are distinct Go types ([ServerBridge],
// [ClientBridge]) behind the sealed [Channel] interface, which makes
// wiring a process to the wrong socket a compile error rather than a
// runtime surprise.
//
// Every message in either direction is one [Instruction], encoded as
// one deterministic-CBOR datagram. Requests and replies share the
// envelope: a reply is just the [Response] variant wrapping a
// [ServerResponse]. There is no correlation id — a caller wanting
// request/response semantics sends one instruction and trusts the next
// received datagram to be its reply. That discipline holds for
// strictly serialized conversations only; concurrent callers sharing
// one bridge can observe each other's replies.
//
// ConnectBlocking is a one-time startup barrier: it busy-retries until
// the peer's socket becomes connectable or the timeout (3s by default)
// elapses. Send and Recv are each a single datagram syscall, so
// concurrent use needs no locks and per-sender ordering is preserved.
// Recv has no cancellation primitive; a caller that must not block
// forever races it against its own timer.
package ipc
