// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package info gathers everything the greeter learns from the host:
// selectable sessions from desktop descriptor files, selectable users
// from the passwd database, the expanded /etc/issue banner, and the
// cached "remember me" state under /var/cache/tuigreet.
//
// Discovery runs once at startup; the results are immutable for the
// greeter's lifetime. Cache writes happen only after a session start
// has been acknowledged by greetd.
package info
