// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source so that code with
// deadlines — notably the IPC connect loop — can be tested without
// real waiting.
package clock
