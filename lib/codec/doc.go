// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Gistit's standard CBOR encoding configuration.
//
// Everything that crosses the CLI↔daemon IPC channel, and every payload
// the daemon stores at rest, is CBOR. This package holds the shared
// encoding and decoding modes so that every package encodes identically
// without duplicating configuration. The encoder uses Core Deterministic
// Encoding (RFC 8949 §4.2), so the same logical message always produces
// the same bytes — a useful property when the transport has a hard
// per-datagram size ceiling.
package codec
