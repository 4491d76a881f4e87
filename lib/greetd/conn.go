// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package greetd

import (
	"fmt"
	"io"
	"net"
	"os"
	"sync"
)

// SocketEnv is the environment variable through which greetd publishes
// the path of its IPC socket to the greeter it spawns.
const SocketEnv = "GREETD_SOCK"

// Conn is the greeter's connection to the greetd socket. Its lock
// serializes round-trips so the IPC consumer can use the socket
// independently of any state locking; when both locks are held, the
// state lock is always taken first.
type Conn struct {
	mu     sync.Mutex
	stream io.ReadWriteCloser

	// dial re-establishes the stream on Reconnect. nil for test
	// connections wrapping an in-memory pipe.
	dial func() (io.ReadWriteCloser, error)
}

// Connect dials the unix socket whose path is published in the
// GREETD_SOCK environment variable.
func Connect() (*Conn, error) {
	path := os.Getenv(SocketEnv)
	if path == "" {
		return nil, fmt.Errorf("%s must be defined", SocketEnv)
	}
	return ConnectPath(path)
}

// ConnectPath dials the unix socket at the given path.
func ConnectPath(path string) (*Conn, error) {
	dial := func() (io.ReadWriteCloser, error) {
		stream, err := net.Dial("unix", path)
		if err != nil {
			return nil, fmt.Errorf("connect to greetd socket %s: %w", path, err)
		}
		return stream, nil
	}

	stream, err := dial()
	if err != nil {
		return nil, err
	}
	return &Conn{stream: stream, dial: dial}, nil
}

// NewConn wraps an already-connected bidirectional stream. Used by
// tests to substitute an in-memory pipe for the daemon socket;
// Reconnect is a no-op on such connections.
func NewConn(stream io.ReadWriteCloser) *Conn {
	return &Conn{stream: stream}
}

// RoundTrip writes one request and blocks for its response. The
// connection lock is held for the whole exchange, so concurrent
// callers cannot interleave frames.
func (conn *Conn) RoundTrip(request Request) (Response, error) {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	if err := WriteRequest(conn.stream, request); err != nil {
		return Response{}, err
	}
	return ReadResponse(conn.stream)
}

// Send writes one request without waiting for a response. Used for the
// best-effort cancel_session on reset and shutdown paths, where the
// answer is irrelevant. A reset that follows must Reconnect, since the
// daemon's reply to the cancel is left unread in the old stream.
func (conn *Conn) Send(request Request) error {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	return WriteRequest(conn.stream, request)
}

// Reconnect replaces the stream with a freshly dialed connection,
// discarding any unread daemon output on the old one. No-op for test
// connections created with NewConn.
func (conn *Conn) Reconnect() error {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	if conn.dial == nil {
		return nil
	}

	stream, err := conn.dial()
	if err != nil {
		return err
	}
	conn.stream.Close()
	conn.stream = stream
	return nil
}

// Close closes the underlying stream.
func (conn *Conn) Close() error {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	return conn.stream.Close()
}
