// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ui renders the greeter as a bubbletea program.
//
// The model is a thin shell around the shared greeter state: Update
// applies keyboard events under the write lock and View renders a
// snapshot under the read lock. Background tasks (the protocol
// consumer, power commands) never touch the terminal; they mutate the
// shared state and wake the program so it re-renders.
package ui
