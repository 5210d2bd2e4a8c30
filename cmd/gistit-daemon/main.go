// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

// gistit-daemon hosts snippet payloads and answers the CLI over the
// dual-socket IPC bridge. It owns the Server role: it binds socket
// "gistit-0" under the runtime directory and serves until it receives
// a Shutdown instruction or a termination signal.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/gistit/gistit/daemon"
	"github.com/gistit/gistit/lib/config"
	"github.com/gistit/gistit/lib/ipc"
	"github.com/gistit/gistit/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("gistit-daemon", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to the settings file (default: $GISTIT_CONFIG)")
	runtimePath := flags.String("runtime-path", "", "socket directory (overrides settings)")
	peerID := flags.String("peer-id", "", "peer identity to advertise (default: derived from hostname)")
	connectTimeout := flags.Duration("connect-timeout", ipc.DefaultConnectTimeout, "how long to wait for the CLI to bind its socket")
	verbose := flags.BoolP("verbose", "v", false, "enable debug logging")
	showVersion := flags.Bool("version", false, "print version and exit")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}
	if *showVersion {
		fmt.Printf("gistit-daemon %s\n", version.Info())
		return nil
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	settings, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *runtimePath != "" {
		settings.RuntimePath = *runtimePath
	}
	if err := config.EnsureRuntimePath(settings); err != nil {
		return err
	}

	identity := *peerID
	if identity == "" {
		hostname, hostErr := os.Hostname()
		if hostErr != nil {
			hostname = "localhost"
		}
		identity = "local/" + hostname
	}

	bridge, err := ipc.Server(settings.RuntimePath)
	if err != nil {
		return err
	}
	bridge.Logger = logger
	bridge.ConnectTimeout = *connectTimeout

	store, err := daemon.NewStore()
	if err != nil {
		return err
	}

	server := &daemon.Server{
		Bridge:  bridge,
		Store:   store,
		Network: &daemon.StaticNetwork{PeerID: identity},
		Logger:  logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("gistit-daemon starting",
		"version", version.Info(),
		"runtime_path", settings.RuntimePath,
		"peer_id", identity,
	)

	started := time.Now()
	err = server.Run(ctx)
	logger.Info("gistit-daemon stopped", "uptime", time.Since(started).Round(time.Second))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
