// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

package content

import (
	"strings"
	"testing"
	"time"
)

func TestDigestShape(t *testing.T) {
	hash := Digest([]byte("fn main() {}"), nil)
	if !strings.HasPrefix(hash, HashPrefix) {
		t.Fatalf("digest %q missing prefix %q", hash, HashPrefix)
	}
	if err := CheckHash(hash); err != nil {
		t.Fatalf("CheckHash rejected freshly computed digest: %v", err)
	}
}

func TestDigestSecretChangesIdentifier(t *testing.T) {
	data := []byte("same file")
	plain := Digest(data, nil)
	protected := Digest(data, []byte("hunter2"))
	if plain == protected {
		t.Fatal("secret did not change the digest")
	}
}

func TestCheckHashRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"no prefix", strings.Repeat("ab", 32) + "c"},
		{"short", "#abcdef"},
		{"not hex", "#" + strings.Repeat("zz", 32)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := CheckHash(tc.hash); err == nil {
				t.Fatalf("CheckHash accepted %q", tc.hash)
			}
		})
	}
}

func TestNewAndVerify(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	payload := New("main.go", "go", "ada", "entry point", []byte("package main"), nil, now)

	if payload.Inner.Size != uint64(len("package main")) {
		t.Fatalf("Size = %d, want %d", payload.Inner.Size, len("package main"))
	}
	if payload.Timestamp != "1772366400000" {
		t.Fatalf("Timestamp = %q", payload.Timestamp)
	}
	if err := payload.Verify(nil); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	payload.Inner.Data = []byte("tampered")
	if err := payload.Verify(nil); err == nil {
		t.Fatal("Verify accepted tampered data")
	}
}
