// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package secret provides a wipeable text buffer for sensitive input
// such as passwords and challenge answers.
//
// Buffer allocates its backing memory outside the Go heap via
// mmap(MAP_ANONYMOUS), locks it into physical RAM via mlock
// (preventing swap), and marks it excluded from core dumps via
// madvise(MADV_DONTDUMP). Editing operations never leave stale copies
// behind: the region is zeroed past the used length on every delete,
// and fully zeroed before any reallocation, on Wipe, and on Close.
//
// Because the memory is outside the Go heap, the garbage collector
// never copies or relocates it, so wiping actually destroys the only
// copy of the secret the buffer ever held. The one unavoidable leak is
// String(), which must produce an immutable heap string for API
// boundaries that require one.
package secret
