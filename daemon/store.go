// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/gistit/gistit/lib/codec"
	"github.com/gistit/gistit/lib/content"
)

// Store holds hosted payloads in memory, zstd-compressed at rest.
// Snippet payloads are text-heavy, so compression typically shrinks
// the resident set severalfold. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string][]byte

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewStore creates an empty store.
func NewStore() (*Store, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("daemon: creating zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("daemon: creating zstd decoder: %w", err)
	}
	return &Store{
		entries: make(map[string][]byte),
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Put stores payload under its carried hash, replacing any previous
// payload with the same hash.
func (s *Store) Put(payload content.Payload) error {
	if err := content.CheckHash(payload.Hash); err != nil {
		return fmt.Errorf("daemon: refusing to store payload: %w", err)
	}

	encoded, err := codec.Marshal(payload)
	if err != nil {
		return fmt.Errorf("daemon: encoding payload %s: %w", payload.Hash, err)
	}
	compressed := s.encoder.EncodeAll(encoded, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[payload.Hash] = compressed
	return nil
}

// Get returns the payload stored under hash. The second return value
// reports whether the hash was present.
func (s *Store) Get(hash string) (content.Payload, bool, error) {
	s.mu.RLock()
	compressed, ok := s.entries[hash]
	s.mu.RUnlock()
	if !ok {
		return content.Payload{}, false, nil
	}

	encoded, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return content.Payload{}, false, fmt.Errorf("daemon: decompressing payload %s: %w", hash, err)
	}
	var payload content.Payload
	if err := codec.Unmarshal(encoded, &payload); err != nil {
		return content.Payload{}, false, fmt.Errorf("daemon: decoding payload %s: %w", hash, err)
	}
	return payload, true, nil
}

// Len returns the number of hosted payloads.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
