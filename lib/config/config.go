// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides settings loading for the gistit binaries.
//
// Settings come from a single YAML file specified by the GISTIT_CONFIG
// environment variable or a --config flag. There is no search-path
// discovery; absent a file, XDG-derived defaults apply. The most
// important value is the runtime path: the directory both processes
// agree on as the home of the two IPC socket files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable that points at the
// settings file.
const EnvConfigPath = "GISTIT_CONFIG"

// Settings is the merged configuration for both the CLI and the daemon.
type Settings struct {
	// RuntimePath is the directory holding the two named IPC socket
	// files. Both processes must use the same value or they will never
	// find each other.
	RuntimePath string `yaml:"runtime_path"`

	// DataPath is where the daemon keeps persistent state.
	DataPath string `yaml:"data_path"`

	// Author is the default author name stamped on sent payloads.
	Author string `yaml:"author"`
}

// Default returns the XDG-derived settings used when no file overrides
// them. The runtime path falls back to the data path on systems
// without XDG_RUNTIME_DIR.
func Default() Settings {
	dataPath := filepath.Join(xdg.DataHome, "gistit")
	runtimePath := dataPath
	if xdg.RuntimeDir != "" {
		runtimePath = filepath.Join(xdg.RuntimeDir, "gistit")
	}
	return Settings{
		RuntimePath: runtimePath,
		DataPath:    dataPath,
		Author:      "anonymous",
	}
}

// Load reads settings from the file at path, falling back to
// GISTIT_CONFIG when path is empty, and to Default when neither names
// a file. File values override defaults field by field; empty fields
// in the file keep their default.
func Load(path string) (Settings, error) {
	settings := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return settings, fmt.Errorf("settings file %s does not exist", path)
		}
		return settings, fmt.Errorf("reading settings file %s: %w", path, err)
	}

	var fileSettings Settings
	if err := yaml.Unmarshal(data, &fileSettings); err != nil {
		return settings, fmt.Errorf("parsing settings file %s: %w", path, err)
	}

	if fileSettings.RuntimePath != "" {
		settings.RuntimePath = fileSettings.RuntimePath
	}
	if fileSettings.DataPath != "" {
		settings.DataPath = fileSettings.DataPath
	}
	if fileSettings.Author != "" {
		settings.Author = fileSettings.Author
	}
	return settings, nil
}

// EnsureRuntimePath creates the runtime directory if it does not
// exist. Socket files require their parent directory to be present
// before bind.
func EnsureRuntimePath(settings Settings) error {
	if err := os.MkdirAll(settings.RuntimePath, 0o700); err != nil {
		return fmt.Errorf("creating runtime directory %s: %w", settings.RuntimePath, err)
	}
	return nil
}
