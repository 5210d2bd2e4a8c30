// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

// Package daemon answers IPC instructions on the server end of the
// bridge: it hosts payloads in a compressed in-memory store, delegates
// peer-network operations to a [Network] implementation, and replies
// over the same channel the request arrived on.
//
// The peer-to-peer networking itself lives outside this repository;
// [Network] is the seam. [StaticNetwork] is the in-process stand-in
// that lets the daemon binary run without the p2p stack.
package daemon
