// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package greeter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/apognu/tuigreet/lib/greetd"
	"github.com/apognu/tuigreet/lib/power"
	"github.com/apognu/tuigreet/lib/session"
)

// KeyMap defines all key bindings of the greeter.
type KeyMap struct {
	// Popups.
	Command  key.Binding // Free-form session command editor.
	Sessions key.Binding // Session picker.
	Power    key.Binding // Shutdown/reboot picker.

	// Menu navigation.
	Up   key.Binding
	Down key.Binding

	// Line editing.
	Left      key.Binding
	Right     key.Binding
	Home      key.Binding
	End       key.Binding
	KillLine  key.Binding // Wipe the whole buffer.
	Backspace key.Binding
	Delete    key.Binding

	Submit  key.Binding
	Dismiss key.Binding // Close popup, or cancel the transaction.
	Quit    key.Binding
}

// DefaultKeyMap is the built-in key binding set. Function keys open the
// popups, Emacs-style control keys edit the line.
var DefaultKeyMap = KeyMap{
	Command: key.NewBinding(
		key.WithKeys("f2"),
		key.WithHelp("F2", "command"),
	),
	Sessions: key.NewBinding(
		key.WithKeys("f3"),
		key.WithHelp("F3", "sessions"),
	),
	Power: key.NewBinding(
		key.WithKeys("f12"),
		key.WithHelp("F12", "power"),
	),
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left"),
		key.WithHelp("←", "left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right"),
		key.WithHelp("→", "right"),
	),
	Home: key.NewBinding(
		key.WithKeys("ctrl+a", "home"),
		key.WithHelp("C-a", "start of line"),
	),
	End: key.NewBinding(
		key.WithKeys("ctrl+e", "end"),
		key.WithHelp("C-e", "end of line"),
	),
	KillLine: key.NewBinding(
		key.WithKeys("ctrl+u"),
		key.WithHelp("C-u", "clear line"),
	),
	Backspace: key.NewBinding(
		key.WithKeys("backspace"),
		key.WithHelp("BS", "delete left"),
	),
	Delete: key.NewBinding(
		key.WithKeys("delete"),
		key.WithHelp("Del", "delete right"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter", "tab"),
		key.WithHelp("Enter", "submit"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "cancel"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("C-c", "quit"),
	),
}

// HandleKey applies one key press to the state, under the write lock
// held by the caller. When the press commits a power action, the built
// command is returned for the caller to run out-of-band; all other
// presses return nil.
func HandleKey(g *Greeter, keys KeyMap, msg tea.KeyMsg) *power.Command {
	if g.exit != nil {
		return nil
	}

	// Quit is the only binding routed past the Working gate, so the
	// user can abandon the greeter mid-request. The cancel write still
	// waits its turn on the connection behind a hung round-trip.
	if key.Matches(msg, keys.Quit) {
		g.Ipc.Cancel()
		g.Exit(StatusCancel)
		return nil
	}

	// While a request is in flight the state may change under the
	// user's feet; input is dropped until the response is dispatched.
	if g.Working || g.Mode == ModeProcessing {
		return nil
	}

	if key.Matches(msg, keys.Dismiss) {
		dismiss(g)
		return nil
	}

	switch {
	case key.Matches(msg, keys.Command):
		openCommand(g)
		return nil
	case key.Matches(msg, keys.Sessions):
		openSessions(g)
		return nil
	case key.Matches(msg, keys.Power):
		openPower(g)
		return nil
	}

	switch g.Mode {
	case ModeUsername, ModePassword, ModeCommand:
		return handleEditing(g, keys, msg)
	case ModeAction:
		if key.Matches(msg, keys.Submit) {
			g.Mode = g.PreviousMode
		}
	case ModeUsers:
		handleMenu(g, keys, msg, len(g.Users), &g.SelectedUser, commitUser)
	case ModeSessions:
		handleMenu(g, keys, msg, len(g.Sessions), &g.SelectedSession, commitSession)
	case ModePower:
		return handlePower(g, keys, msg)
	}
	return nil
}

// dismiss closes the current popup, or cancels the transaction when no
// popup is open.
func dismiss(g *Greeter) {
	switch g.Mode {
	case ModeUsers, ModeCommand:
		g.Mode = g.PreviousMode
		g.restoreBuffer()
	case ModeSessions, ModePower:
		g.Mode = g.PreviousMode
	case ModeAction:
		g.Mode = g.PreviousMode
	default:
		g.Ipc.Cancel()
		g.SoftReset()
	}
}

// openCommand opens the command editor, seeded with the current
// session selection so it can be tweaked rather than retyped.
func openCommand(g *Greeter) {
	if g.Mode == ModeCommand {
		return
	}
	if !g.Mode.isModal() {
		g.PreviousMode = g.Mode
	}
	g.saveBuffer()
	g.SetBuffer(g.SessionSource.Command(g.Sessions))
	g.Mode = ModeCommand
}

func openSessions(g *Greeter) {
	if g.Mode == ModeSessions || len(g.Sessions) == 0 {
		return
	}
	if g.Mode == ModeCommand {
		// Switching popups abandons the editor; the root entry field
		// gets its own text back.
		g.restoreBuffer()
	}
	if !g.Mode.isModal() {
		g.PreviousMode = g.Mode
	}
	if resolved := g.SessionSource.Session(g.Sessions); resolved != nil {
		for index := range g.Sessions {
			if g.Sessions[index].Path == resolved.Path {
				g.SelectedSession = index
				break
			}
		}
	}
	g.Mode = ModeSessions
}

func openPower(g *Greeter) {
	if g.Mode == ModePower {
		return
	}
	if g.Mode == ModeCommand {
		g.restoreBuffer()
	}
	if !g.Mode.isModal() {
		g.PreviousMode = g.Mode
	}
	g.SelectedPower = 0
	g.Mode = ModePower
}

// handleEditing applies line-editing keys to the scratch buffer, and
// Submit commits the buffer according to the current mode.
func handleEditing(g *Greeter, keys KeyMap, msg tea.KeyMsg) *power.Command {
	switch {
	case key.Matches(msg, keys.Submit):
		submit(g)

	case key.Matches(msg, keys.Left):
		g.CursorOffset--
		g.clampCursor()
	case key.Matches(msg, keys.Right):
		g.CursorOffset++
		g.clampCursor()
	case key.Matches(msg, keys.Home):
		g.CursorOffset = -g.buffer.RuneCount()
	case key.Matches(msg, keys.End):
		g.CursorOffset = 0

	case key.Matches(msg, keys.KillLine):
		g.buffer.Wipe()
		g.CursorOffset = 0
		editedBuffer(g)
	case key.Matches(msg, keys.Backspace):
		index := g.buffer.RuneCount() + g.CursorOffset
		if index > 0 {
			g.buffer.DeleteRune(index - 1)
			editedBuffer(g)
		}
	case key.Matches(msg, keys.Delete):
		if g.CursorOffset < 0 {
			g.buffer.DeleteRune(g.buffer.RuneCount() + g.CursorOffset)
			g.CursorOffset++
			editedBuffer(g)
		}

	case msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace:
		runes := msg.Runes
		if msg.Type == tea.KeySpace {
			runes = []rune{' '}
		}
		for _, r := range runes {
			if err := g.buffer.InsertRune(r, g.buffer.RuneCount()+g.CursorOffset); err != nil {
				g.logger.Error("scratch buffer insert failed", "error", err)
				break
			}
		}
		editedBuffer(g)
	case key.Matches(msg, keys.Up), key.Matches(msg, keys.Down):
		// No history to scroll through in the entry fields.
	}
	return nil
}

// editedBuffer records side effects of a buffer edit: a username mask
// picked from the menu no longer reflects the typed value.
func editedBuffer(g *Greeter) {
	if g.Mode == ModeUsername {
		g.Username.Mask = ""
	}
}

// submit commits the scratch buffer for the current entry mode.
func submit(g *Greeter) {
	switch g.Mode {
	case ModeUsername:
		value := g.Buffer()
		switch {
		case value == "" && g.UserMenu && len(g.Users) > 0:
			if !g.Mode.isModal() {
				g.PreviousMode = g.Mode
			}
			g.saveBuffer()
			g.SelectedUser = 0
			g.Mode = ModeUsers

		case strings.HasPrefix(value, "!") && len(value) > 1:
			// A bang prefix sets the session command in place instead
			// of starting a transaction.
			g.SessionSource = session.CommandSource(strings.TrimPrefix(value, "!"))
			g.SetBuffer("")

		case value != "":
			g.Username.Value = value
			g.Message = ""
			g.Ipc.Send(g, greetd.CreateSession(value))
		}

	case ModePassword:
		answer := g.Buffer()
		g.SetBuffer("")
		g.Message = ""
		g.Ipc.Send(g, greetd.PostAuthMessageResponse(&answer))

	case ModeCommand:
		if value := g.Buffer(); value == "" {
			g.SessionSource = session.NoSource
		} else {
			g.SessionSource = session.CommandSource(value)
		}
		g.Mode = g.PreviousMode
		g.restoreBuffer()
	}
}

// handleMenu moves a bounded popup cursor and commits the selection.
func handleMenu(g *Greeter, keys KeyMap, msg tea.KeyMsg, length int, cursor *int, commit func(*Greeter)) {
	switch {
	case key.Matches(msg, keys.Up):
		if *cursor > 0 {
			*cursor--
		}
	case key.Matches(msg, keys.Down):
		if *cursor < length-1 {
			*cursor++
		}
	case key.Matches(msg, keys.Submit):
		if length > 0 && *cursor >= 0 && *cursor < length {
			commit(g)
		}
	}
}

func commitUser(g *Greeter) {
	user := g.Users[g.SelectedUser]
	g.Username = NewMaskedString(user.Username, user.Name)
	g.Mode = g.PreviousMode
	g.SetBuffer(user.Username)
	g.saved.Wipe()
}

func commitSession(g *Greeter) {
	g.SessionSource = session.IndexSource(g.SelectedSession)
	g.Mode = g.PreviousMode
}

// handlePower commits a power selection: the built command is handed to
// the caller to run out-of-band while the UI sits in the processing
// state.
func handlePower(g *Greeter, keys KeyMap, msg tea.KeyMsg) *power.Command {
	options := []power.Option{power.Shutdown, power.Reboot}

	switch {
	case key.Matches(msg, keys.Up):
		if g.SelectedPower > 0 {
			g.SelectedPower--
		}
	case key.Matches(msg, keys.Down):
		if g.SelectedPower < len(options)-1 {
			g.SelectedPower++
		}
	case key.Matches(msg, keys.Submit):
		command := g.Power.Build(options[g.SelectedPower])
		g.Mode = ModeProcessing
		return &command
	}
	return nil
}

// PowerDone returns the greeter to an interactive state after a power
// command finished. A failure is surfaced with the captured stderr,
// which unlike daemon descriptions contains nothing the user typed.
func PowerDone(g *Greeter, result power.Result) {
	g.Lock()
	defer g.Unlock()

	g.Mode = g.PreviousMode
	if result.Err != nil {
		g.logger.Error("power command failed",
			"action", result.Option.String(),
			"error", result.Err,
			"stderr", result.Stderr)
		message := fmt.Sprintf(messagePowerFailedFormat, result.Option, result.Err)
		if stderr := strings.TrimSpace(result.Stderr); stderr != "" {
			message += ": " + stderr
		}
		g.Message = message
	}
}
