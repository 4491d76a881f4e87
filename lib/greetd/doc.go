// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package greetd implements the client side of the greetd IPC protocol.
//
// greetd listens on a Unix domain socket (path published through the
// GREETD_SOCK environment variable) and speaks a simple request/response
// protocol: each payload is a JSON object prefixed by its byte length as
// a 4-byte unsigned integer in the platform's native byte order. The
// greeter writes exactly one request and reads exactly one response per
// exchange; the daemon never sends unsolicited messages.
//
// The package is organized around the protocol data flow:
//
//   - types.go: request and response value types and their JSON shape
//   - codec.go: length-prefixed framing over an io stream
//   - conn.go: the socket wrapper serializing round-trips
package greetd
