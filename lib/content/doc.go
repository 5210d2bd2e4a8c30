// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

// Package content defines the content-addressed snippet payload that
// the CLI produces and the daemon hosts. The IPC layer treats payloads
// as opaque values; this package owns their shape and their BLAKE3
// content identifiers.
package content
