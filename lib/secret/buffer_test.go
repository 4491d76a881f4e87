// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package secret

import (
	"strings"
	"testing"
)

func newTestBuffer(t *testing.T) *Buffer {
	t.Helper()
	buffer, err := NewBuffer()
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	t.Cleanup(func() { buffer.Close() })
	return buffer
}

func TestBufferInsertAndDelete(t *testing.T) {
	buffer := newTestBuffer(t)

	for index, r := range "hunter" {
		if err := buffer.InsertRune(r, index); err != nil {
			t.Fatalf("InsertRune: %v", err)
		}
	}
	if got := buffer.String(); got != "hunter" {
		t.Fatalf("contents: got %q, want %q", got, "hunter")
	}

	// Insert in the middle and at clamped positions.
	if err := buffer.InsertRune('X', 3); err != nil {
		t.Fatalf("InsertRune: %v", err)
	}
	if err := buffer.InsertRune('a', -5); err != nil {
		t.Fatalf("InsertRune: %v", err)
	}
	if err := buffer.InsertRune('z', 99); err != nil {
		t.Fatalf("InsertRune: %v", err)
	}
	if got := buffer.String(); got != "ahunXterz" {
		t.Fatalf("contents: got %q, want %q", got, "ahunXterz")
	}

	buffer.DeleteRune(0)
	buffer.DeleteRune(3)
	buffer.DeleteRune(buffer.RuneCount() - 1)
	if got := buffer.String(); got != "hunter" {
		t.Fatalf("contents: got %q, want %q", got, "hunter")
	}

	// Out-of-range deletes are ignored.
	buffer.DeleteRune(-1)
	buffer.DeleteRune(6)
	if got := buffer.String(); got != "hunter" {
		t.Fatalf("contents after no-op deletes: got %q", got)
	}
}

func TestBufferMultibyteRunes(t *testing.T) {
	buffer := newTestBuffer(t)

	if err := buffer.Set("pâsswörd"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := buffer.RuneCount(); got != 8 {
		t.Fatalf("RuneCount: got %d, want 8", got)
	}

	buffer.DeleteRune(1)
	if got := buffer.String(); got != "psswörd" {
		t.Fatalf("contents: got %q, want %q", got, "psswörd")
	}

	if err := buffer.InsertRune('é', 1); err != nil {
		t.Fatalf("InsertRune: %v", err)
	}
	if got := buffer.String(); got != "pésswörd" {
		t.Fatalf("contents: got %q, want %q", got, "pésswörd")
	}
}

func TestBufferGrowth(t *testing.T) {
	buffer := newTestBuffer(t)

	long := strings.Repeat("a", initialCapacity*2+17)
	if err := buffer.Set(long); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := buffer.Len(); got != len(long) {
		t.Fatalf("Len: got %d, want %d", got, len(long))
	}

	// Growing through InsertRune as well.
	if err := buffer.InsertRune('b', 0); err != nil {
		t.Fatalf("InsertRune: %v", err)
	}
	if got := buffer.String(); got != "b"+long {
		t.Fatal("contents corrupted after growth")
	}
}

func TestBufferWipe(t *testing.T) {
	buffer := newTestBuffer(t)

	if err := buffer.Set("secret"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	buffer.Wipe()

	if got := buffer.Len(); got != 0 {
		t.Fatalf("Len after Wipe: got %d, want 0", got)
	}
	if got := buffer.String(); got != "" {
		t.Fatalf("String after Wipe: got %q, want empty", got)
	}

	// The backing region must be zeroed, not just truncated.
	for index, value := range buffer.data {
		if value != 0 {
			t.Fatalf("backing byte %d not zeroed: %#x", index, value)
		}
	}

	// The buffer stays usable after Wipe.
	if err := buffer.Set("again"); err != nil {
		t.Fatalf("Set after Wipe: %v", err)
	}
	if got := buffer.String(); got != "again" {
		t.Fatalf("contents after reuse: got %q", got)
	}
}

func TestBufferCloseIsIdempotent(t *testing.T) {
	buffer, err := NewBuffer()
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	if err := buffer.Set("secret"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := buffer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestBufferPanicsAfterClose(t *testing.T) {
	buffer, err := NewBuffer()
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	buffer.Close()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on read after Close")
		}
	}()
	_ = buffer.String()
}
