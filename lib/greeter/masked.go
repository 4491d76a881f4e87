// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package greeter

// MaskedString is a login identifier with an optional human-readable
// display form. The true value is what goes over the protocol; the
// mask, when present, is what the UI shows (the account's full name
// from the user menu or the remembered-user cache).
type MaskedString struct {
	// Value is the real login identifier.
	Value string

	// Mask is the display form, empty when the value itself is shown.
	Mask string
}

// NewMaskedString builds a masked string from a value and an optional
// mask.
func NewMaskedString(value, mask string) MaskedString {
	return MaskedString{Value: value, Mask: mask}
}

// Get returns the display form: the mask when present, the value
// otherwise.
func (masked MaskedString) Get() string {
	if masked.Mask != "" {
		return masked.Mask
	}
	return masked.Value
}

// IsEmpty reports whether no value is set.
func (masked MaskedString) IsEmpty() bool {
	return masked.Value == ""
}

// Wipe clears both forms. Go strings are immutable, so the backing
// bytes are reclaimed by the garbage collector rather than zeroed;
// the secret-bearing answer buffer uses lib/secret instead.
func (masked *MaskedString) Wipe() {
	masked.Value = ""
	masked.Mask = ""
}
