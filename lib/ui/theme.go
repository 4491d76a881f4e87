// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme defines the color palette for the greeter. All colors use
// lipgloss ANSI 256-color codes for broad terminal compatibility; a
// login console cannot assume a capable terminal emulator.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// The container border and its title.
	BorderColor lipgloss.Color
	TitleText   lipgloss.Color

	// Prompt labels ("Username:", the daemon's questions).
	PromptText lipgloss.Color

	// Selected menu row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Transient transaction messages.
	ErrorText lipgloss.Color
	InfoText  lipgloss.Color

	// The greeting banner and the clock line.
	GreetText lipgloss.Color
	ClockText lipgloss.Color

	// Key hints in the footer.
	HelpText lipgloss.Color
}

// DarkTheme is the built-in scheme for dark terminals, the common case
// for virtual consoles.
var DarkTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	BorderColor: lipgloss.Color("240"),
	TitleText:   lipgloss.Color("255"),

	PromptText: lipgloss.Color("252"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	ErrorText: lipgloss.Color("196"),
	InfoText:  lipgloss.Color("114"),

	GreetText: lipgloss.Color("255"),
	ClockText: lipgloss.Color("245"),

	HelpText: lipgloss.Color("241"),
}

// LightTheme adjusts the palette for light backgrounds.
var LightTheme = Theme{
	NormalText: lipgloss.Color("235"),
	FaintText:  lipgloss.Color("243"),

	BorderColor: lipgloss.Color("250"),
	TitleText:   lipgloss.Color("232"),

	PromptText: lipgloss.Color("235"),

	SelectedBackground: lipgloss.Color("254"),
	SelectedForeground: lipgloss.Color("232"),

	ErrorText: lipgloss.Color("124"),
	InfoText:  lipgloss.Color("28"),

	GreetText: lipgloss.Color("232"),
	ClockText: lipgloss.Color("243"),

	HelpText: lipgloss.Color("247"),
}

// DetectTheme picks the palette matching the terminal background.
func DetectTheme() Theme {
	if termenv.HasDarkBackground() {
		return DarkTheme
	}
	return LightTheme
}
