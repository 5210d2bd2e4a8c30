// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

// gistit is the command-line client for the gistit daemon.
//
// Usage:
//
//	gistit host <file> [flags]     ask the daemon to host a snippet
//	gistit fetch <hash> [flags]    retrieve a hosted snippet
//	gistit status                  show the daemon's network state
//	gistit shutdown                stop the daemon
//
// Each invocation opens the client end of the IPC bridge, performs one
// strictly serialized request/reply exchange, and exits.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/gistit/gistit/lib/config"
	"github.com/gistit/gistit/lib/content"
	"github.com/gistit/gistit/lib/ipc"
	"github.com/gistit/gistit/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return errors.New("no command given")
	}

	switch args[0] {
	case "host":
		return hostCommand(args[1:])
	case "fetch":
		return fetchCommand(args[1:])
	case "status":
		return statusCommand(args[1:])
	case "shutdown":
		return shutdownCommand(args[1:])
	case "--version", "version":
		fmt.Printf("gistit %s\n", version.Info())
		return nil
	case "--help", "-h", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage() {
	fmt.Print(`gistit - share code snippets through a local hosting daemon

USAGE
    gistit host <file> [flags]
    gistit fetch <hash> [flags]
    gistit status
    gistit shutdown

Run 'gistit <command> --help' for command flags.
`)
}

// commonFlags registers the flags every subcommand shares.
func commonFlags(flags *pflag.FlagSet) *string {
	return flags.String("config", "", "path to the settings file (default: $GISTIT_CONFIG)")
}

// openChannel loads settings and brings up the client end of the
// bridge, connected and ready for one conversation.
func openChannel(configPath string) (*ipc.ClientBridge, config.Settings, error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, settings, err
	}
	if err := config.EnsureRuntimePath(settings); err != nil {
		return nil, settings, err
	}

	bridge, err := ipc.Client(settings.RuntimePath)
	if err != nil {
		return nil, settings, err
	}
	if err := bridge.ConnectBlocking(); err != nil {
		bridge.Close()
		if errors.Is(err, ipc.ErrConnectTimeout) {
			return nil, settings, errors.New("the gistit daemon is not running (start gistit-daemon first)")
		}
		return nil, settings, err
	}
	return bridge, settings, nil
}

// exchange performs one request/reply round trip.
func exchange(bridge *ipc.ClientBridge, request ipc.Instruction) (ipc.ServerResponse, error) {
	if err := bridge.Send(request); err != nil {
		return nil, err
	}
	received, err := bridge.Recv()
	if err != nil {
		return nil, err
	}
	response, ok := received.(ipc.Response)
	if !ok {
		return nil, fmt.Errorf("daemon sent %T where a response was expected", received)
	}
	return response.Body, nil
}

func hostCommand(args []string) error {
	flags := pflag.NewFlagSet("gistit host", pflag.ContinueOnError)
	configPath := commonFlags(flags)
	description := flags.StringP("description", "d", "", "description attached to the snippet")
	author := flags.StringP("author", "a", "", "author name (default: from settings)")
	secret := flags.StringP("secret", "s", "", "secret protecting the snippet")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("host takes exactly one file argument")
	}

	path := flags.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	bridge, settings, err := openChannel(*configPath)
	if err != nil {
		return err
	}
	defer bridge.Close()

	authorName := *author
	if authorName == "" {
		authorName = settings.Author
	}

	var secretBytes []byte
	if *secret != "" {
		secretBytes = []byte(*secret)
	}
	name := filepath.Base(path)
	payload := content.New(name, languageFromName(name), authorName, *description,
		data, secretBytes, time.Now())

	body, err := exchange(bridge, ipc.Provide{Hash: payload.Hash, Payload: payload})
	if err != nil {
		return err
	}
	result, ok := body.(ipc.ProvideResult)
	if !ok {
		return fmt.Errorf("daemon answered %T to a provide request", body)
	}
	if result.Identifier == nil {
		return errors.New("daemon could not host the snippet")
	}

	fmt.Printf("hosting %s\n", name)
	fmt.Printf("  hash:     %s\n", payload.Hash)
	fmt.Printf("  provider: %s\n", *result.Identifier)
	return nil
}

func fetchCommand(args []string) error {
	flags := pflag.NewFlagSet("gistit fetch", pflag.ContinueOnError)
	configPath := commonFlags(flags)
	toStdout := flags.Bool("stdout", false, "write the snippet to stdout instead of a file")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("fetch takes exactly one hash argument")
	}

	hash := flags.Arg(0)
	if err := content.CheckHash(hash); err != nil {
		return err
	}

	bridge, _, err := openChannel(*configPath)
	if err != nil {
		return err
	}
	defer bridge.Close()

	body, err := exchange(bridge, ipc.Fetch{Hash: hash})
	if err != nil {
		return err
	}
	result, ok := body.(ipc.FetchResult)
	if !ok {
		return fmt.Errorf("daemon answered %T to a fetch request", body)
	}
	if result.Payload.Hash == "" {
		return fmt.Errorf("no provider found for %s", hash)
	}

	if *toStdout {
		_, err := os.Stdout.Write(result.Payload.Inner.Data)
		return err
	}

	name := outputName(result.Payload.Inner.Name, hash)
	if err := os.WriteFile(name, result.Payload.Inner.Data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	fmt.Printf("fetched %s (%d bytes) from %s\n", name, len(result.Payload.Inner.Data), result.Payload.Author)
	return nil
}

func statusCommand(args []string) error {
	flags := pflag.NewFlagSet("gistit status", pflag.ContinueOnError)
	configPath := commonFlags(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}

	bridge, _, err := openChannel(*configPath)
	if err != nil {
		return err
	}
	defer bridge.Close()

	body, err := exchange(bridge, ipc.Status{})
	if err != nil {
		return err
	}
	result, ok := body.(ipc.StatusResult)
	if !ok {
		return fmt.Errorf("daemon answered %T to a status request", body)
	}

	fmt.Printf("peer id:             %s\n", result.PeerID)
	fmt.Printf("connected peers:     %d\n", result.Peers)
	fmt.Printf("pending connections: %d\n", result.PendingConnections)
	fmt.Printf("hosted snippets:     %d\n", result.Hosting)
	if len(result.Listeners) > 0 {
		fmt.Println("listeners:")
		for _, listener := range result.Listeners {
			fmt.Printf("  %s\n", listener)
		}
	}
	return nil
}

func shutdownCommand(args []string) error {
	flags := pflag.NewFlagSet("gistit shutdown", pflag.ContinueOnError)
	configPath := commonFlags(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}

	bridge, _, err := openChannel(*configPath)
	if err != nil {
		return err
	}
	defer bridge.Close()

	// One-way: the daemon exits without replying.
	if err := bridge.Send(ipc.Shutdown{}); err != nil {
		return err
	}
	fmt.Println("shutdown sent")
	return nil
}

// outputName picks the file name a fetched snippet is written under.
// The name travels inside the payload and is peer-controlled, so it is
// reduced to its base component; anything path-like (or empty) falls
// back to a name derived from the hash.
func outputName(payloadName, hash string) string {
	name := filepath.Base(payloadName)
	if name == "." || name == ".." || name == string(filepath.Separator) || name == "" {
		name = strings.TrimPrefix(hash, content.HashPrefix)[:12] + ".txt"
	}
	return name
}

// languageFromName guesses a language label from the file extension.
// Best effort; an empty label is fine.
func languageFromName(name string) string {
	extension := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch extension {
	case "rs":
		return "rust"
	case "py":
		return "python"
	case "ts":
		return "typescript"
	case "js":
		return "javascript"
	case "md":
		return "markdown"
	case "yml", "yaml":
		return "yaml"
	default:
		return extension
	}
}
