// Copyright 2026 The Gistit Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"fmt"

	"github.com/gistit/gistit/lib/codec"
	"github.com/gistit/gistit/lib/content"
)

// Instruction is the only type that ever travels on the wire, in
// either direction. Requests and replies are different variants of the
// same envelope: Provide, Fetch, Status, and Shutdown flow from the
// CLI to the daemon; Response wraps the daemon's answer on the way
// back.
//
// The interface is sealed — the five variant types in this package are
// the complete set.
type Instruction interface {
	isInstruction()
}

// Provide asks the daemon to start hosting a payload on the peer
// network.
type Provide struct {
	Hash    string          `cbor:"hash"`
	Payload content.Payload `cbor:"payload"`
}

// Fetch asks the daemon to find providers for a hash and retrieve the
// payload.
type Fetch struct {
	Hash string `cbor:"hash"`
}

// Status asks the daemon for a snapshot of its network state.
type Status struct{}

// Shutdown tells the daemon to exit. One-way: no reply is sent.
type Shutdown struct{}

// Response carries a daemon reply back over the same channel.
type Response struct {
	Body ServerResponse
}

func (Provide) isInstruction()  {}
func (Fetch) isInstruction()    {}
func (Status) isInstruction()   {}
func (Shutdown) isInstruction() {}
func (Response) isInstruction() {}

// ServerResponse is a daemon reply, always carried inside a Response
// instruction. Sealed like Instruction.
type ServerResponse interface {
	isServerResponse()
}

// ProvideResult answers a Provide request. A nil Identifier means
// hosting failed.
type ProvideResult struct {
	Identifier *string `cbor:"identifier,omitempty"`
}

// FetchResult answers a Fetch request with the retrieved payload. A
// zero-valued payload (empty hash) means the hash could not be
// resolved; the protocol has no dedicated error variant.
type FetchResult struct {
	Payload content.Payload `cbor:"payload"`
}

// StatusResult answers a Status request with the daemon's network
// state as of the moment it was produced.
type StatusResult struct {
	// PeerID is the daemon's own peer identity.
	PeerID string `cbor:"peer_id"`

	// Peers is the number of currently connected peers.
	Peers int `cbor:"peer_count"`

	// PendingConnections counts dials in progress.
	PendingConnections uint32 `cbor:"pending_connections"`

	// Listeners are the daemon's listening multiaddresses.
	Listeners []string `cbor:"listeners"`

	// Hosting is the number of payloads the daemon currently hosts.
	Hosting int `cbor:"hosting"`
}

func (ProvideResult) isServerResponse() {}
func (FetchResult) isServerResponse()   {}
func (StatusResult) isServerResponse()  {}

// opcode discriminates the variants of the two unions on the wire.
type opcode uint8

const (
	opProvide opcode = iota
	opFetch
	opStatus
	opShutdown
	opResponse
)

const (
	respProvide opcode = iota
	respFetch
	respStatus
)

// instructionEnvelope is the wire shape of an Instruction: the op
// discriminator plus at most one body field.
type instructionEnvelope struct {
	Op       opcode            `cbor:"op"`
	Provide  *Provide          `cbor:"provide,omitempty"`
	Fetch    *Fetch            `cbor:"fetch,omitempty"`
	Response *responseEnvelope `cbor:"response,omitempty"`
}

type responseEnvelope struct {
	Op      opcode         `cbor:"op"`
	Provide *ProvideResult `cbor:"provide,omitempty"`
	Fetch   *FetchResult   `cbor:"fetch,omitempty"`
	Status  *StatusResult  `cbor:"status,omitempty"`
}

func encodeInstruction(instruction Instruction) ([]byte, error) {
	var envelope instructionEnvelope

	switch v := instruction.(type) {
	case Provide:
		envelope = instructionEnvelope{Op: opProvide, Provide: &v}
	case Fetch:
		envelope = instructionEnvelope{Op: opFetch, Fetch: &v}
	case Status:
		envelope = instructionEnvelope{Op: opStatus}
	case Shutdown:
		envelope = instructionEnvelope{Op: opShutdown}
	case Response:
		inner, err := encodeResponse(v.Body)
		if err != nil {
			return nil, err
		}
		envelope = instructionEnvelope{Op: opResponse, Response: inner}
	default:
		return nil, fmt.Errorf("ipc: unencodable instruction type %T", instruction)
	}

	return codec.Marshal(envelope)
}

func encodeResponse(response ServerResponse) (*responseEnvelope, error) {
	switch v := response.(type) {
	case ProvideResult:
		return &responseEnvelope{Op: respProvide, Provide: &v}, nil
	case FetchResult:
		return &responseEnvelope{Op: respFetch, Fetch: &v}, nil
	case StatusResult:
		return &responseEnvelope{Op: respStatus, Status: &v}, nil
	default:
		return nil, fmt.Errorf("ipc: unencodable server response type %T", response)
	}
}

func decodeInstruction(data []byte) (Instruction, error) {
	var envelope instructionEnvelope
	if err := codec.Unmarshal(data, &envelope); err != nil {
		return nil, &DecodeError{Cause: err}
	}

	switch envelope.Op {
	case opProvide:
		if envelope.Provide == nil {
			return nil, &DecodeError{Cause: fmt.Errorf("provide instruction without body")}
		}
		return *envelope.Provide, nil
	case opFetch:
		if envelope.Fetch == nil {
			return nil, &DecodeError{Cause: fmt.Errorf("fetch instruction without body")}
		}
		return *envelope.Fetch, nil
	case opStatus:
		return Status{}, nil
	case opShutdown:
		return Shutdown{}, nil
	case opResponse:
		if envelope.Response == nil {
			return nil, &DecodeError{Cause: fmt.Errorf("response instruction without body")}
		}
		body, err := decodeResponse(envelope.Response)
		if err != nil {
			return nil, err
		}
		return Response{Body: body}, nil
	default:
		return nil, &DecodeError{Cause: fmt.Errorf("unknown opcode %d", envelope.Op)}
	}
}

func decodeResponse(envelope *responseEnvelope) (ServerResponse, error) {
	switch envelope.Op {
	case respProvide:
		if envelope.Provide == nil {
			return nil, &DecodeError{Cause: fmt.Errorf("provide response without body")}
		}
		return *envelope.Provide, nil
	case respFetch:
		if envelope.Fetch == nil {
			return nil, &DecodeError{Cause: fmt.Errorf("fetch response without body")}
		}
		return *envelope.Fetch, nil
	case respStatus:
		if envelope.Status == nil {
			return nil, &DecodeError{Cause: fmt.Errorf("status response without body")}
		}
		return *envelope.Status, nil
	default:
		return nil, &DecodeError{Cause: fmt.Errorf("unknown response opcode %d", envelope.Op)}
	}
}
