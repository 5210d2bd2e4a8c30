// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"github.com/gistit/gistit/lib/content"
)

func TestStorePutGetRoundTrip(t *testing.T) {
	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	payload := content.New("main.go", "go", "ada", "entry point",
		[]byte("package main\n\nfunc main() {}\n"), nil, time.Now())
	if err := store.Put(payload); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, found, err := store.Get(payload.Hash)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Fatal("stored payload not found")
	}
	if !reflect.DeepEqual(got, payload) {
		t.Fatalf("payload mutated through the store:\nput: %#v\ngot: %#v", payload, got)
	}
}

func TestStoreGetMiss(t *testing.T) {
	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	_, found, err := store.Get(content.Digest([]byte("never stored"), nil))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatal("Get reported a payload that was never stored")
	}
}

func TestStoreRejectsMalformedHash(t *testing.T) {
	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	payload := content.Payload{Hash: "not-a-hash", Inner: content.Inner{Data: []byte("x")}}
	if err := store.Put(payload); err == nil {
		t.Fatal("Put accepted a malformed hash")
	}
	if store.Len() != 0 {
		t.Fatalf("Len() = %d after rejected Put", store.Len())
	}
}

func TestStoreLenAndReplace(t *testing.T) {
	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	first := content.New("a.txt", "", "ada", "", []byte("alpha"), nil, time.Now())
	second := content.New("b.txt", "", "ada", "", []byte("beta"), nil, time.Now())
	for _, payload := range []content.Payload{first, second, first} {
		if err := store.Put(payload); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	// Re-putting the same hash replaces, not appends.
	if store.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", store.Len())
	}
}

func TestStoreCompressesAtRest(t *testing.T) {
	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	// Highly compressible data.
	data := bytes.Repeat([]byte("the same line of text\n"), 2_000)
	payload := content.New("log.txt", "", "ada", "", data, nil, time.Now())
	if err := store.Put(payload); err != nil {
		t.Fatalf("Put: %v", err)
	}

	compressed := store.entries[payload.Hash]
	if len(compressed) >= len(data)/4 {
		t.Fatalf("at-rest size %d for %d bytes of repetitive input", len(compressed), len(data))
	}

	got, found, err := store.Get(payload.Hash)
	if err != nil || !found {
		t.Fatalf("Get after compression: found=%v err=%v", found, err)
	}
	if !bytes.Equal(got.Inner.Data, data) {
		t.Fatal("decompressed data differs from input")
	}
}
