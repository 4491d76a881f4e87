// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package greeter

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/apognu/tuigreet/lib/info"
	"github.com/apognu/tuigreet/lib/power"
	"github.com/apognu/tuigreet/lib/session"
)

func TestCursorStaysWithinBuffer(t *testing.T) {
	t.Parallel()

	g, _ := newTestGreeter(t)
	typeText(g, "abc")

	for range 5 {
		press(g, tea.KeyLeft)
	}
	if g.CursorOffset != -3 {
		t.Errorf("CursorOffset = %d after over-shooting left, want -3", g.CursorOffset)
	}

	for range 5 {
		press(g, tea.KeyRight)
	}
	if g.CursorOffset != 0 {
		t.Errorf("CursorOffset = %d after over-shooting right, want 0", g.CursorOffset)
	}
}

func TestMidBufferEditing(t *testing.T) {
	t.Parallel()

	g, _ := newTestGreeter(t)
	typeText(g, "hunter")

	// Insert in the middle.
	press(g, tea.KeyLeft)
	press(g, tea.KeyLeft)
	typeText(g, "XY")
	if got := g.Buffer(); got != "huntXYer" {
		t.Fatalf("Buffer = %q, want %q", got, "huntXYer")
	}

	// Backspace removes to the left of the cursor.
	press(g, tea.KeyBackspace)
	press(g, tea.KeyBackspace)
	if got := g.Buffer(); got != "hunter" {
		t.Fatalf("Buffer = %q, want %q", got, "hunter")
	}

	// Delete removes under the cursor and leaves it on the next rune.
	press(g, tea.KeyDelete)
	if got := g.Buffer(); got != "huntr" {
		t.Fatalf("Buffer = %q, want %q", got, "huntr")
	}
	if g.CursorOffset != -1 {
		t.Errorf("CursorOffset = %d after delete, want -1", g.CursorOffset)
	}

	press(g, tea.KeyCtrlA)
	if g.CursorOffset != -g.BufferRuneCount() {
		t.Errorf("CursorOffset = %d after ctrl+a, want %d", g.CursorOffset, -g.BufferRuneCount())
	}
	press(g, tea.KeyCtrlE)
	if g.CursorOffset != 0 {
		t.Errorf("CursorOffset = %d after ctrl+e, want 0", g.CursorOffset)
	}

	press(g, tea.KeyCtrlU)
	if got := g.Buffer(); got != "" {
		t.Errorf("Buffer = %q after ctrl+u, want empty", got)
	}
}

func TestBangCommandSetsSessionSource(t *testing.T) {
	t.Parallel()

	g, _ := newTestGreeter(t)
	typeText(g, "!sway --debug")
	press(g, tea.KeyEnter)

	if got := g.SessionSource.Command(nil); got != "sway --debug" {
		t.Errorf("session command = %q, want %q", got, "sway --debug")
	}
	if g.Working {
		t.Error("bang command started a transaction")
	}
	if got := g.Buffer(); got != "" {
		t.Errorf("Buffer = %q after bang command, want empty", got)
	}
	if g.Mode != ModeUsername {
		t.Errorf("Mode = %v, want to stay on the username prompt", g.Mode)
	}
}

func TestEmptyUsernameOpensUserMenu(t *testing.T) {
	t.Parallel()

	g, _ := newTestGreeter(t)
	g.Lock()
	g.UserMenu = true
	g.Users = []info.User{
		{Username: "alice", Name: "Alice"},
		{Username: "bob", Name: "Bob"},
	}
	g.Unlock()

	press(g, tea.KeyEnter)
	if g.Mode != ModeUsers {
		t.Fatalf("Mode = %v, want %v", g.Mode, ModeUsers)
	}

	press(g, tea.KeyDown)
	press(g, tea.KeyDown) // bounded at the last entry
	if g.SelectedUser != 1 {
		t.Errorf("SelectedUser = %d, want 1", g.SelectedUser)
	}

	press(g, tea.KeyEnter)
	if g.Mode != ModeUsername {
		t.Errorf("Mode = %v after commit, want %v", g.Mode, ModeUsername)
	}
	if g.Username.Value != "bob" || g.Username.Mask != "Bob" {
		t.Errorf("Username = %+v, want bob masked as Bob", g.Username)
	}
	if got := g.Buffer(); got != "bob" {
		t.Errorf("Buffer = %q, want the picked username", got)
	}
}

func TestEditingClearsUsernameMask(t *testing.T) {
	t.Parallel()

	g, _ := newTestGreeter(t)
	g.Lock()
	g.Username = NewMaskedString("alice", "Alice")
	g.SetBuffer("alice")
	g.Unlock()

	typeText(g, "x")
	if g.Username.Mask != "" {
		t.Errorf("Mask = %q after editing, want cleared", g.Username.Mask)
	}
}

func TestPopupReturnsToRootMode(t *testing.T) {
	t.Parallel()

	g, _ := newTestGreeter(t)
	g.Lock()
	g.Mode = ModePassword
	g.Sessions = testSessions
	g.Unlock()

	press(g, tea.KeyF3)
	if g.Mode != ModeSessions || g.PreviousMode != ModePassword {
		t.Fatalf("Mode/PreviousMode = %v/%v, want sessions over password", g.Mode, g.PreviousMode)
	}

	// A popup opened from a popup keeps the original root.
	press(g, tea.KeyF12)
	if g.Mode != ModePower || g.PreviousMode != ModePassword {
		t.Fatalf("Mode/PreviousMode = %v/%v, want power over password", g.Mode, g.PreviousMode)
	}

	press(g, tea.KeyEsc)
	if g.Mode != ModePassword {
		t.Errorf("Mode = %v after dismiss, want the root mode", g.Mode)
	}
}

func TestCommandEditorSavesAndRestoresBuffer(t *testing.T) {
	t.Parallel()

	g, _ := newTestGreeter(t)
	g.Lock()
	g.Sessions = testSessions
	g.SessionSource = session.IndexSource(0)
	g.SetBuffer("alice")
	g.Unlock()

	press(g, tea.KeyF2)
	if g.Mode != ModeCommand {
		t.Fatalf("Mode = %v, want %v", g.Mode, ModeCommand)
	}
	if got := g.Buffer(); got != "sway" {
		t.Fatalf("Buffer = %q in the editor, want the current command", got)
	}

	typeText(g, " --debug")
	press(g, tea.KeyEnter)

	if got := g.SessionSource.Command(g.Sessions); got != "sway --debug" {
		t.Errorf("session command = %q, want the edited value", got)
	}
	if got := g.Buffer(); got != "alice" {
		t.Errorf("Buffer = %q after commit, want restored", got)
	}
	if g.Mode != ModeUsername {
		t.Errorf("Mode = %v, want back to the root", g.Mode)
	}
}

func TestCommandEditorDismissKeepsSelection(t *testing.T) {
	t.Parallel()

	g, _ := newTestGreeter(t)
	g.Lock()
	g.Sessions = testSessions
	g.SessionSource = session.IndexSource(1)
	g.SetBuffer("alice")
	g.Unlock()

	press(g, tea.KeyF2)
	typeText(g, " --replace")
	press(g, tea.KeyEsc)

	if got := g.SessionSource.Command(g.Sessions); got != "i3" {
		t.Errorf("session command = %q, want the original selection", got)
	}
	if got := g.Buffer(); got != "alice" {
		t.Errorf("Buffer = %q after dismiss, want restored", got)
	}
}

func TestSessionPickerOverCommandEditorRestoresBuffer(t *testing.T) {
	t.Parallel()

	g, _ := newTestGreeter(t)
	g.Lock()
	g.Sessions = testSessions
	g.SessionSource = session.IndexSource(0)
	g.SetBuffer("alice")
	g.Unlock()

	// The picker opened over the editor abandons the editor's text.
	press(g, tea.KeyF2)
	if got := g.Buffer(); got != "sway" {
		t.Fatalf("Buffer = %q in the editor, want the current command", got)
	}
	press(g, tea.KeyF3)
	press(g, tea.KeyDown)
	press(g, tea.KeyEnter)

	if got := g.SessionSource.Command(g.Sessions); got != "i3" {
		t.Errorf("session command = %q, want the picked entry", got)
	}
	if g.Mode != ModeUsername {
		t.Errorf("Mode = %v after commit, want back to the root", g.Mode)
	}
	if got := g.Buffer(); got != "alice" {
		t.Errorf("Buffer = %q back in the username field, want %q", got, "alice")
	}
}

func TestInputIgnoredWhileWorking(t *testing.T) {
	t.Parallel()

	g, _ := newTestGreeter(t)
	typeText(g, "ali")

	g.Lock()
	g.Working = true
	g.Unlock()

	typeText(g, "ce")
	press(g, tea.KeyEnter)
	if got := g.Buffer(); got != "ali" {
		t.Errorf("Buffer = %q, want input dropped while a request is in flight", got)
	}
}

func TestQuitAlwaysHonored(t *testing.T) {
	t.Parallel()

	g, server := newTestGreeter(t)
	drainRequests(t, server)

	g.Lock()
	g.Working = true
	g.Unlock()

	press(g, tea.KeyCtrlC)
	if status := g.ExitStatus(); status == nil || *status != StatusCancel {
		t.Errorf("ExitStatus = %v, want %v", status, StatusCancel)
	}
}

func TestPowerCommitBuildsCommand(t *testing.T) {
	t.Parallel()

	g, _ := newTestGreeter(t)
	g.Lock()
	g.Power = power.Config{UseSetsid: true}
	g.Unlock()

	press(g, tea.KeyF12)
	press(g, tea.KeyDown) // reboot

	g.Lock()
	command := HandleKey(g, DefaultKeyMap, tea.KeyMsg{Type: tea.KeyEnter})
	g.Unlock()

	if command == nil {
		t.Fatal("HandleKey returned no power command on commit")
	}
	if command.Option != power.Reboot {
		t.Errorf("Option = %v, want %v", command.Option, power.Reboot)
	}
	if g.Mode != ModeProcessing {
		t.Errorf("Mode = %v, want %v", g.Mode, ModeProcessing)
	}
}

func TestPowerDoneRestoresModeAndReportsFailure(t *testing.T) {
	t.Parallel()

	g, _ := newTestGreeter(t)
	g.Lock()
	g.PreviousMode = ModeUsername
	g.Mode = ModeProcessing
	g.Unlock()

	PowerDone(g, power.Result{Option: power.Reboot, Err: errExit, Stderr: "permission denied\n"})

	if g.Mode != ModeUsername {
		t.Errorf("Mode = %v, want back to the root", g.Mode)
	}
	want := "Failed to reboot: exit status 1: permission denied"
	if g.Message != want {
		t.Errorf("Message = %q, want %q", g.Message, want)
	}
}
