// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/apognu/tuigreet/lib/greeter"
	"github.com/apognu/tuigreet/lib/power"
)

// viewState is an immutable snapshot of everything the renderer needs,
// taken under the read lock so rendering itself runs unlocked.
type viewState struct {
	mode greeter.Mode

	greeting string
	message  string
	failure  bool

	prompt     string
	input      string
	echo       string
	cursor     int
	hideCursor bool

	usernameDisplay string
	sessionLabel    string

	userLabels    []string
	selectedUser  int
	sessionLabels []string
	selectedIndex int
	selectedPower int

	working bool
}

func (model Model) snapshot() viewState {
	g := model.greeter
	g.RLock()
	defer g.RUnlock()

	state := viewState{
		mode:            g.Mode,
		greeting:        g.Greeting,
		message:         g.Message,
		failure:         g.Message == greeter.MessageAuthFailed || g.Message == greeter.MessageError,
		prompt:          g.Prompt,
		input:           g.Buffer(),
		cursor:          g.BufferRuneCount() + g.CursorOffset,
		usernameDisplay: g.Username.Get(),
		sessionLabel:    g.SessionSource.Label(g.Sessions),
		selectedUser:    g.SelectedUser,
		selectedIndex:   g.SelectedSession,
		selectedPower:   g.SelectedPower,
		working:         g.Working,
	}

	if g.Mode == greeter.ModePassword {
		state.echo = g.SecretDisplay.Render(g.BufferRuneCount())
		state.hideCursor = g.AskingForSecret && !g.SecretDisplay.Visible
		if g.AskingForSecret {
			state.input = state.echo
			state.cursor = len([]rune(state.echo))
		}
	}

	for _, user := range g.Users {
		label := user.Username
		if user.Name != "" {
			label = user.Name + " (" + user.Username + ")"
		}
		state.userLabels = append(state.userLabels, label)
	}
	for _, entry := range g.Sessions {
		state.sessionLabels = append(state.sessionLabels, entry.Name)
	}

	return state
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return ""
	}

	state := model.snapshot()
	theme := model.theme

	var body string
	switch state.mode {
	case greeter.ModeUsername:
		body = model.renderEntry(state, "Username:", state.input, state.cursor, false)
	case greeter.ModePassword:
		body = model.renderEntry(state, state.prompt, state.input, state.cursor, state.hideCursor)
	case greeter.ModeCommand:
		body = model.renderEntry(state, "Session command:", state.input, state.cursor, false)
	case greeter.ModeAction:
		body = lipgloss.NewStyle().Foreground(theme.InfoText).
			Width(model.boxWidth).Render(strings.TrimRight(state.message, "\n"))
	case greeter.ModeUsers:
		body = model.renderMenu("Change user", state.userLabels, state.selectedUser)
	case greeter.ModeSessions:
		body = model.renderMenu("Choose session", state.sessionLabels, state.selectedIndex)
	case greeter.ModePower:
		options := []string{power.Shutdown.String(), power.Reboot.String()}
		body = model.renderMenu("Power", options, state.selectedPower)
	case greeter.ModeProcessing:
		body = model.spin.View() + " " +
			lipgloss.NewStyle().Foreground(theme.FaintText).Render("Please wait...")
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.BorderColor).
		Padding(model.containerPadding, 2).
		Width(model.boxWidth + 4).
		Render(body)

	sections := make([]string, 0, 5)
	if model.clock != "" {
		sections = append(sections,
			lipgloss.NewStyle().Foreground(theme.ClockText).Render(model.clock), "")
	}
	if state.greeting != "" {
		sections = append(sections,
			lipgloss.NewStyle().Foreground(theme.GreetText).
				Width(model.boxWidth+4).Align(model.greetAlign).Render(state.greeting), "")
	}
	sections = append(sections, box)
	if model.capsLock {
		sections = append(sections,
			lipgloss.NewStyle().Foreground(theme.ErrorText).Bold(true).Render("CAPS LOCK"))
	}
	if banner := model.renderStatus(state); banner != "" {
		sections = append(sections, banner)
	}
	sections = append(sections, model.renderHelp())

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(model.width, model.height, lipgloss.Center, lipgloss.Center, content)
}

// renderEntry renders a prompt line with the typed value and a block
// cursor. The cursor is omitted for hidden secret entry, where it
// would reveal the answer length.
func (model Model) renderEntry(state viewState, label, value string, cursor int, hideCursor bool) string {
	theme := model.theme

	gap := strings.Repeat("\n", model.promptPadding+1)

	var out strings.Builder
	if state.mode == greeter.ModePassword && state.usernameDisplay != "" {
		out.WriteString(lipgloss.NewStyle().Foreground(theme.FaintText).Render(state.usernameDisplay))
		out.WriteString(gap)
	}

	out.WriteString(lipgloss.NewStyle().Foreground(theme.PromptText).Render(label))
	out.WriteString(" ")
	if !hideCursor {
		out.WriteString(renderCursorLine(theme, value, cursor))
	}

	if state.message != "" && state.mode != greeter.ModeCommand {
		color := theme.InfoText
		if state.failure {
			color = theme.ErrorText
		}
		out.WriteString(gap)
		out.WriteString(lipgloss.NewStyle().Foreground(color).
			Width(model.boxWidth).Render(strings.TrimRight(state.message, "\n")))
	}

	return out.String()
}

// renderCursorLine draws value with a reverse-video block at the cursor
// position.
func renderCursorLine(theme Theme, value string, cursor int) string {
	runes := []rune(value)
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(runes) {
		cursor = len(runes)
	}

	text := lipgloss.NewStyle().Foreground(theme.NormalText)
	block := lipgloss.NewStyle().Reverse(true)

	var out strings.Builder
	out.WriteString(text.Render(string(runes[:cursor])))
	if cursor < len(runes) {
		out.WriteString(block.Render(string(runes[cursor])))
		out.WriteString(text.Render(string(runes[cursor+1:])))
	} else {
		out.WriteString(block.Render(" "))
	}
	return out.String()
}

// renderMenu renders a popup list with a highlighted selection.
func (model Model) renderMenu(title string, entries []string, selected int) string {
	theme := model.theme

	var out strings.Builder
	out.WriteString(lipgloss.NewStyle().Foreground(theme.TitleText).Bold(true).Render(title))
	out.WriteString("\n\n")

	normal := lipgloss.NewStyle().Foreground(theme.NormalText).Width(model.boxWidth)
	active := lipgloss.NewStyle().
		Foreground(theme.SelectedForeground).
		Background(theme.SelectedBackground).
		Width(model.boxWidth)

	for index, entry := range entries {
		style := normal
		if index == selected {
			style = active
		}
		out.WriteString(style.Render(" " + ansi.Truncate(entry, model.boxWidth-2, "…")))
		if index < len(entries)-1 {
			out.WriteString("\n")
		}
	}
	if len(entries) == 0 {
		out.WriteString(lipgloss.NewStyle().Foreground(theme.FaintText).Render(" (none)"))
	}
	return out.String()
}

// renderStatus shows the active session selection under the dialog.
func (model Model) renderStatus(state viewState) string {
	if state.sessionLabel == "" {
		return ""
	}
	return lipgloss.NewStyle().Foreground(model.theme.FaintText).
		Render("session: " + state.sessionLabel)
}

// renderHelp draws the key hint footer from the active bindings.
func (model Model) renderHelp() string {
	hints := []string{
		model.keys.Command.Help().Key + " " + model.keys.Command.Help().Desc,
		model.keys.Sessions.Help().Key + " " + model.keys.Sessions.Help().Desc,
		model.keys.Power.Help().Key + " " + model.keys.Power.Help().Desc,
		model.keys.Dismiss.Help().Key + " " + model.keys.Dismiss.Help().Desc,
	}
	return lipgloss.NewStyle().Foreground(model.theme.HelpText).
		Render(strings.Join(hints, "   "))
}
