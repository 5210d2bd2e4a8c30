// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

package content

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/zeebo/blake3"
)

// HashPrefix marks a gistit identifier. Every payload hash is the
// prefix followed by the hex-encoded BLAKE3 digest of the snippet data
// (and the secret, when one protects the snippet).
const HashPrefix = "#"

// hexDigestLength is the hex length of a 32-byte BLAKE3 digest.
const hexDigestLength = 64

// Payload is a content-addressed snippet as exchanged with the daemon
// and hosted on the peer network. The hash identifies the payload;
// everything else is metadata the author attached at send time.
type Payload struct {
	// Hash is the content identifier: HashPrefix + hex BLAKE3 digest.
	Hash string `json:"hash"`

	// Author is the sender's display name.
	Author string `json:"author,omitempty"`

	// Description is an optional free-form note about the snippet.
	Description string `json:"description,omitempty"`

	// Timestamp is the send time in Unix milliseconds, as a decimal
	// string.
	Timestamp string `json:"timestamp,omitempty"`

	// Inner carries the file itself.
	Inner Inner `json:"inner"`
}

// Inner is the file carried by a payload.
type Inner struct {
	// Name is the original file name, extension included.
	Name string `json:"name"`

	// Lang is the detected source language, lowercase.
	Lang string `json:"lang,omitempty"`

	// Size is the file size in bytes before encoding.
	Size uint64 `json:"size"`

	// Data is the raw file content.
	Data []byte `json:"data"`
}

// Digest computes the payload hash for the given snippet data and
// optional secret. The secret participates in the digest so that the
// same file protected by different secrets yields different
// identifiers.
func Digest(data, secret []byte) string {
	hasher := blake3.New()
	hasher.Write(data)
	if len(secret) > 0 {
		hasher.Write(secret)
	}
	return HashPrefix + hex.EncodeToString(hasher.Sum(nil))
}

// CheckHash validates the shape of a payload hash: prefix, length, and
// hex digits. It does not verify the digest against any data.
func CheckHash(hash string) error {
	if len(hash) != len(HashPrefix)+hexDigestLength {
		return fmt.Errorf("hash %q has length %d, want %d", hash, len(hash), len(HashPrefix)+hexDigestLength)
	}
	if hash[:len(HashPrefix)] != HashPrefix {
		return fmt.Errorf("hash %q does not start with %q", hash, HashPrefix)
	}
	if _, err := hex.DecodeString(hash[len(HashPrefix):]); err != nil {
		return fmt.Errorf("hash %q is not hex encoded: %w", hash, err)
	}
	return nil
}

// Verify recomputes the payload's digest from its data and the given
// secret and reports whether it matches the carried hash.
func (p *Payload) Verify(secret []byte) error {
	if err := CheckHash(p.Hash); err != nil {
		return err
	}
	if computed := Digest(p.Inner.Data, secret); computed != p.Hash {
		return fmt.Errorf("payload digest mismatch: carried %s, computed %s", p.Hash, computed)
	}
	return nil
}

// New assembles a payload for the given file, stamping the given time
// and computing the content hash.
func New(name, lang, author, description string, data, secret []byte, now time.Time) Payload {
	return Payload{
		Hash:        Digest(data, secret),
		Author:      author,
		Description: description,
		Timestamp:   strconv.FormatInt(now.UnixMilli(), 10),
		Inner: Inner{
			Name: name,
			Lang: lang,
			Size: uint64(len(data)),
			Data: data,
		},
	}
}
