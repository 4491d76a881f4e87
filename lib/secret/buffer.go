// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package secret

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"golang.org/x/sys/unix"
)

// initialCapacity is the size of the initial mmap region. Large enough
// that interactive input never reallocates in practice.
const initialCapacity = 4096

// Buffer is an editable text buffer for secret input. The backing
// memory is locked against swapping, excluded from core dumps, and
// zeroed on every shrinking edit, on Wipe, and on Close.
//
// A Buffer must not be copied after creation. After Close, any access
// to the buffer's contents panics.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	length int
	closed bool
}

// NewBuffer allocates an empty secret buffer. The caller must call
// Close when the buffer is no longer needed; Wipe alone keeps the
// region allocated for reuse.
func NewBuffer() (*Buffer, error) {
	data, err := mapRegion(initialCapacity)
	if err != nil {
		return nil, err
	}
	return &Buffer{data: data}, nil
}

// mapRegion allocates an anonymous mmap region of the given size,
// locked into RAM and excluded from core dumps.
func mapRegion(size int) ([]byte, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mmap failed: %w", err)
	}

	if err := unix.Mlock(data); err != nil {
		unix.Munmap(data)
		return nil, fmt.Errorf("secret: mlock failed: %w", err)
	}

	if err := unix.Madvise(data, unix.MADV_DONTDUMP); err != nil {
		unix.Munlock(data)
		unix.Munmap(data)
		return nil, fmt.Errorf("secret: madvise(MADV_DONTDUMP) failed: %w", err)
	}

	return data, nil
}

// releaseRegion zeros, unlocks and unmaps a region. Errors are
// returned for reporting but the region is gone either way.
func releaseRegion(data []byte) error {
	for index := range data {
		data[index] = 0
	}

	var firstError error
	if err := unix.Munlock(data); err != nil && firstError == nil {
		firstError = fmt.Errorf("secret: munlock failed: %w", err)
	}
	if err := unix.Munmap(data); err != nil && firstError == nil {
		firstError = fmt.Errorf("secret: munmap failed: %w", err)
	}
	return firstError
}

// grow replaces the backing region with one of at least the wanted
// size, copying the current contents and destroying the old region.
func (b *Buffer) grow(want int) error {
	size := cap(b.data) * 2
	for size < want {
		size *= 2
	}

	data, err := mapRegion(size)
	if err != nil {
		return err
	}

	copy(data, b.data[:b.length])
	if err := releaseRegion(b.data); err != nil {
		// The new region is already live; the old one leaked its
		// mapping but was zeroed first.
		b.data = data
		return err
	}
	b.data = data
	return nil
}

// RuneCount returns the number of runes in the buffer.
func (b *Buffer) RuneCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secret: read from closed buffer")
	}
	return utf8.RuneCount(b.data[:b.length])
}

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secret: read from closed buffer")
	}
	return b.length
}

// String returns the buffer contents as a string. The returned string
// is a heap-allocated copy outside the buffer's control; use it only
// at API boundaries that require a string, immediately before sending.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secret: read from closed buffer")
	}
	return string(b.data[:b.length])
}

// byteOffset converts a rune index into a byte offset. Assumes the
// lock is held and the index is within [0, rune count].
func (b *Buffer) byteOffset(runeIndex int) int {
	offset := 0
	for ; runeIndex > 0; runeIndex-- {
		_, size := utf8.DecodeRune(b.data[offset:b.length])
		offset += size
	}
	return offset
}

// InsertRune inserts a rune at the given rune index. Indexes outside
// [0, rune count] are clamped.
func (b *Buffer) InsertRune(r rune, runeIndex int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secret: write to closed buffer")
	}

	runeIndex = clamp(runeIndex, 0, utf8.RuneCount(b.data[:b.length]))

	var encoded [utf8.UTFMax]byte
	size := utf8.EncodeRune(encoded[:], r)

	if b.length+size > cap(b.data) {
		if err := b.grow(b.length + size); err != nil {
			return err
		}
	}

	offset := b.byteOffset(runeIndex)
	copy(b.data[offset+size:b.length+size], b.data[offset:b.length])
	copy(b.data[offset:], encoded[:size])
	b.length += size
	return nil
}

// DeleteRune removes the rune at the given rune index. Out-of-range
// indexes are ignored. The vacated tail bytes are zeroed.
func (b *Buffer) DeleteRune(runeIndex int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secret: write to closed buffer")
	}

	if runeIndex < 0 || runeIndex >= utf8.RuneCount(b.data[:b.length]) {
		return
	}

	offset := b.byteOffset(runeIndex)
	_, size := utf8.DecodeRune(b.data[offset:b.length])
	copy(b.data[offset:], b.data[offset+size:b.length])
	for index := b.length - size; index < b.length; index++ {
		b.data[index] = 0
	}
	b.length -= size
}

// Set replaces the buffer contents with the given string. The previous
// contents are zeroed first.
func (b *Buffer) Set(value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secret: write to closed buffer")
	}

	for index := 0; index < b.length; index++ {
		b.data[index] = 0
	}
	b.length = 0

	if len(value) > cap(b.data) {
		if err := b.grow(len(value)); err != nil {
			return err
		}
	}

	copy(b.data, value)
	b.length = len(value)
	return nil
}

// Wipe zeros the buffer contents and resets it to empty. The backing
// region stays allocated for reuse.
func (b *Buffer) Wipe() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for index := 0; index < b.length; index++ {
		b.data[index] = 0
	}
	b.length = 0
}

// Close zeros the buffer contents and releases the backing memory.
// After Close, any access to the buffer panics. Close is idempotent.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	err := releaseRegion(b.data)
	b.data = nil
	b.length = 0
	return err
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
