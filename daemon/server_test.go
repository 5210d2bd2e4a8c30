// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"context"
	"net"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/gistit/gistit/lib/content"
	"github.com/gistit/gistit/lib/ipc"
	"github.com/gistit/gistit/lib/testutil"
)

const testPeerID = "12D3KooWDaemonTest"

// startServer wires a daemon onto a fresh socket pair and returns the
// connected client bridge plus the channel Run's result lands on.
func startServer(t *testing.T, ctx context.Context) (*ipc.ClientBridge, chan error, string) {
	t.Helper()
	base := testutil.SocketDir(t)

	serverBridge, err := ipc.Server(base)
	if err != nil {
		t.Fatalf("ipc.Server: %v", err)
	}
	client, err := ipc.Client(base)
	if err != nil {
		t.Fatalf("ipc.Client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	server := &Server{
		Bridge:  serverBridge,
		Store:   store,
		Network: &StaticNetwork{PeerID: testPeerID, Listeners: []string{"/ip4/127.0.0.1/tcp/4001"}},
	}

	ctx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() { done <- server.Run(ctx) }()

	if err := client.ConnectBlocking(); err != nil {
		t.Fatalf("client ConnectBlocking: %v", err)
	}
	return client, done, base
}

// requestReply performs one strictly serialized request/reply exchange.
func requestReply(t *testing.T, client *ipc.ClientBridge, request ipc.Instruction) ipc.ServerResponse {
	t.Helper()
	if err := client.Send(request); err != nil {
		t.Fatalf("send %T: %v", request, err)
	}
	received, err := client.Recv()
	if err != nil {
		t.Fatalf("recv reply to %T: %v", request, err)
	}
	response, ok := received.(ipc.Response)
	if !ok {
		t.Fatalf("received %T, want ipc.Response", received)
	}
	return response.Body
}

func TestProvideFetchStatusShutdown(t *testing.T) {
	client, done, _ := startServer(t, context.Background())

	payload := content.New("snippet.go", "go", "ada", "demo",
		[]byte("package demo\n"), nil, time.Now())

	// Provide: hosting succeeds and carries the provider identifier.
	provideReply := requestReply(t, client, ipc.Provide{Hash: payload.Hash, Payload: payload})
	provideResult, ok := provideReply.(ipc.ProvideResult)
	if !ok {
		t.Fatalf("provide reply is %T", provideReply)
	}
	if provideResult.Identifier == nil || *provideResult.Identifier != testPeerID {
		t.Fatalf("provide identifier = %v, want %q", provideResult.Identifier, testPeerID)
	}

	// Fetch: the hosted payload comes back structurally equal.
	fetchReply := requestReply(t, client, ipc.Fetch{Hash: payload.Hash})
	fetchResult, ok := fetchReply.(ipc.FetchResult)
	if !ok {
		t.Fatalf("fetch reply is %T", fetchReply)
	}
	if !reflect.DeepEqual(fetchResult.Payload, payload) {
		t.Fatalf("fetched payload differs:\nsent: %#v\ngot:  %#v", payload, fetchResult.Payload)
	}

	// Status: network snapshot plus the hosting count.
	statusReply := requestReply(t, client, ipc.Status{})
	statusResult, ok := statusReply.(ipc.StatusResult)
	if !ok {
		t.Fatalf("status reply is %T", statusReply)
	}
	if statusResult.PeerID != testPeerID {
		t.Fatalf("status peer id = %q", statusResult.PeerID)
	}
	if statusResult.Hosting != 1 {
		t.Fatalf("status hosting = %d, want 1", statusResult.Hosting)
	}

	// Shutdown: one-way, no reply; Run returns cleanly.
	if err := client.Send(ipc.Shutdown{}); err != nil {
		t.Fatalf("send shutdown: %v", err)
	}
	if err := testutil.RequireReceive(t, done, 5*time.Second, "daemon exit"); err != nil {
		t.Fatalf("Run returned %v after shutdown", err)
	}
}

func TestFetchMissAnswersZeroPayload(t *testing.T) {
	client, _, _ := startServer(t, context.Background())

	reply := requestReply(t, client, ipc.Fetch{Hash: content.Digest([]byte("absent"), nil)})
	fetchResult, ok := reply.(ipc.FetchResult)
	if !ok {
		t.Fatalf("fetch reply is %T", reply)
	}
	if fetchResult.Payload.Hash != "" {
		t.Fatalf("miss returned payload %q", fetchResult.Payload.Hash)
	}
}

func TestProvideRejectsDisagreeingHashes(t *testing.T) {
	client, _, _ := startServer(t, context.Background())

	payload := content.New("a.txt", "", "ada", "", []byte("alpha"), nil, time.Now())
	other := content.Digest([]byte("beta"), nil)

	reply := requestReply(t, client, ipc.Provide{Hash: other, Payload: payload})
	provideResult, ok := reply.(ipc.ProvideResult)
	if !ok {
		t.Fatalf("provide reply is %T", reply)
	}
	if provideResult.Identifier != nil {
		t.Fatal("daemon hosted a payload whose hashes disagree")
	}
}

func TestContextCancellationStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, done, _ := startServer(t, ctx)

	cancel()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "daemon exit on cancel"); err != context.Canceled {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
}

func TestUndecodableDatagramDoesNotStopDaemon(t *testing.T) {
	client, done, base := startServer(t, context.Background())

	// Raw garbage straight onto the daemon's socket, then a valid
	// request: the daemon must drop the former and answer the latter.
	address := &net.UnixAddr{Name: filepath.Join(base, ipc.SocketNameServer), Net: "unixgram"}
	raw, err := net.DialUnix("unixgram", nil, address)
	if err != nil {
		t.Fatalf("raw dial: %v", err)
	}
	defer raw.Close()
	if _, err := raw.Write([]byte{0xff, 0xfe, 0xfd}); err != nil {
		t.Fatalf("raw write: %v", err)
	}

	reply := requestReply(t, client, ipc.Status{})
	if _, ok := reply.(ipc.StatusResult); !ok {
		t.Fatalf("status reply after garbage is %T", reply)
	}

	select {
	case err := <-done:
		t.Fatalf("daemon exited early: %v", err)
	default:
	}
}

func TestSequentialClientInvocations(t *testing.T) {
	first, done, base := startServer(t, context.Background())

	reply := requestReply(t, first, ipc.Status{})
	if _, ok := reply.(ipc.StatusResult); !ok {
		t.Fatalf("first invocation reply is %T", reply)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close first client: %v", err)
	}

	// Each CLI invocation binds a fresh client socket at the same path;
	// the daemon's replies must follow it there.
	second, err := ipc.Client(base)
	if err != nil {
		t.Fatalf("ipc.Client (second): %v", err)
	}
	defer second.Close()
	if err := second.ConnectBlocking(); err != nil {
		t.Fatalf("second ConnectBlocking: %v", err)
	}

	reply = requestReply(t, second, ipc.Status{})
	statusResult, ok := reply.(ipc.StatusResult)
	if !ok {
		t.Fatalf("second invocation reply is %T", reply)
	}
	if statusResult.PeerID != testPeerID {
		t.Fatalf("status peer id = %q, want %q", statusResult.PeerID, testPeerID)
	}

	if err := second.Send(ipc.Shutdown{}); err != nil {
		t.Fatalf("send shutdown: %v", err)
	}
	if err := testutil.RequireReceive(t, done, 5*time.Second, "daemon exit"); err != nil {
		t.Fatalf("Run returned %v after shutdown", err)
	}
}
