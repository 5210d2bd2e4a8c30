// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build metadata for the gistit binaries.
package version

import "runtime/debug"

// Version is the release version, overridden at link time via
// -ldflags "-X github.com/gistit/gistit/lib/version.Version=...".
var Version = "devel"

// Info returns the version string plus the VCS revision when the
// binary was built from a checkout with module build info.
func Info() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Version
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= 12 {
			return Version + " (" + setting.Value[:12] + ")"
		}
	}
	return Version
}
