// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package greetd

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// payloadLengthSize is the fixed size of the frame header: the payload
// byte length as a 4-byte unsigned integer.
const payloadLengthSize = 4

// maxPayloadLength bounds the accepted response size. greetd responses
// are a few hundred bytes at most; anything larger means the stream is
// desynchronized (for example after a partial write) and must fail
// rather than allocate unbounded memory.
const maxPayloadLength = 1 << 20

// WriteRequest writes one framed request to w. The frame format is
// fixed by greetd: [4 bytes payload length, native byte order] [JSON
// payload]. The header and payload are written in a single call so a
// concurrent reader on the same socket never observes a torn frame.
func WriteRequest(w io.Writer, request Request) error {
	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	frame := make([]byte, payloadLengthSize+len(payload))
	binary.NativeEndian.PutUint32(frame[:payloadLengthSize], uint32(len(payload)))
	copy(frame[payloadLengthSize:], payload)

	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write request frame: %w", err)
	}
	return nil
}

// WriteResponse writes one framed response to w. This is the daemon
// side of the codec; the greeter itself never calls it, but stub
// daemons in tests do.
func WriteResponse(w io.Writer, response Response) error {
	payload, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	frame := make([]byte, payloadLengthSize+len(payload))
	binary.NativeEndian.PutUint32(frame[:payloadLengthSize], uint32(len(payload)))
	copy(frame[payloadLengthSize:], payload)

	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write response frame: %w", err)
	}
	return nil
}

// ReadRequest reads one framed request from r. Daemon side of the
// codec, for stub daemons in tests.
func ReadRequest(r io.Reader) (Request, error) {
	var header [payloadLengthSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Request{}, fmt.Errorf("read request header: %w", err)
	}

	payloadLength := binary.NativeEndian.Uint32(header[:])
	if payloadLength > maxPayloadLength {
		return Request{}, fmt.Errorf("request length %d exceeds maximum %d", payloadLength, maxPayloadLength)
	}

	payload := make([]byte, payloadLength)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Request{}, fmt.Errorf("read request payload: %w", err)
	}

	var request Request
	if err := json.Unmarshal(payload, &request); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	return request, nil
}

// ReadResponse reads one framed response from r and validates its
// shape. Returns an error if the stream is malformed or the payload
// exceeds maxPayloadLength.
func ReadResponse(r io.Reader) (Response, error) {
	var header [payloadLengthSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Response{}, fmt.Errorf("read response header: %w", err)
	}

	payloadLength := binary.NativeEndian.Uint32(header[:])
	if payloadLength > maxPayloadLength {
		return Response{}, fmt.Errorf("response length %d exceeds maximum %d", payloadLength, maxPayloadLength)
	}

	payload := make([]byte, payloadLength)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Response{}, fmt.Errorf("read response payload: %w", err)
	}

	var response Response
	if err := json.Unmarshal(payload, &response); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	if err := response.Validate(); err != nil {
		return Response{}, err
	}
	return response, nil
}
