// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package greeter

import (
	"net"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/apognu/tuigreet/lib/greetd"
	"github.com/apognu/tuigreet/lib/session"
)

// newTestGreeter builds a greeter over an in-memory pipe. The returned
// server side is what a scripted daemon reads from and writes to.
func newTestGreeter(t *testing.T) (*Greeter, net.Conn) {
	t.Helper()

	client, server := net.Pipe()
	g, err := New(greetd.NewConn(client), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		g.Close()
		server.Close()
	})
	return g, server
}

func pressKey(g *Greeter, msg tea.KeyMsg) {
	g.Lock()
	defer g.Unlock()
	HandleKey(g, DefaultKeyMap, msg)
}

func press(g *Greeter, keyType tea.KeyType) {
	pressKey(g, tea.KeyMsg{Type: keyType})
}

func typeText(g *Greeter, text string) {
	for _, r := range text {
		pressKey(g, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

var testSessions = []session.Session{
	{
		Slug:         "sway",
		Name:         "Sway",
		Command:      "sway",
		Kind:         session.KindWayland,
		Path:         "/usr/share/wayland-sessions/sway.desktop",
		DesktopNames: "sway;wlroots",
	},
	{
		Slug:    "i3",
		Name:    "i3",
		Command: "i3",
		Kind:    session.KindX11,
		Path:    "/usr/share/xsessions/i3.desktop",
	},
}

func TestSoftResetKeepsUsername(t *testing.T) {
	t.Parallel()

	g, _ := newTestGreeter(t)

	g.Lock()
	g.Username = NewMaskedString("alice", "Alice")
	g.Mode = ModePassword
	g.Working = true
	g.Prompt = "Password: "
	g.Message = "stale"
	g.SetBuffer("hunter2")
	g.SoftReset()
	g.Unlock()

	if g.Mode != ModeUsername {
		t.Errorf("Mode = %v, want %v", g.Mode, ModeUsername)
	}
	if g.Working {
		t.Error("Working still set after reset")
	}
	if g.Username.Value != "alice" {
		t.Errorf("Username.Value = %q, want preserved", g.Username.Value)
	}
	if got := g.Buffer(); got != "" {
		t.Errorf("Buffer = %q, want empty after reset", got)
	}
	if g.Prompt != "" || g.Message != "" {
		t.Errorf("Prompt/Message not wiped: %q / %q", g.Prompt, g.Message)
	}
}

func TestHardResetWipesUsername(t *testing.T) {
	t.Parallel()

	g, _ := newTestGreeter(t)

	g.Lock()
	g.Username = NewMaskedString("alice", "Alice")
	g.SetBuffer("hunter2")
	g.HardReset()
	g.Unlock()

	if !g.Username.IsEmpty() {
		t.Errorf("Username = %+v, want wiped", g.Username)
	}
	if got := g.Buffer(); got != "" {
		t.Errorf("Buffer = %q, want empty", got)
	}
}

func TestExitFirstStatusWins(t *testing.T) {
	t.Parallel()

	g, _ := newTestGreeter(t)

	g.Lock()
	g.Exit(StatusCancel)
	g.Exit(StatusSuccess)
	g.Unlock()

	if status := g.ExitStatus(); status == nil || *status != StatusCancel {
		t.Errorf("ExitStatus = %v, want %v", status, StatusCancel)
	}
}

func TestSecretDisplayRender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		display SecretDisplay
		count   int
		want    string
	}{
		{"hidden", NewSecretDisplay(false, "*"), 4, ""},
		{"single", NewSecretDisplay(true, "*"), 4, "****"},
		{"pool cycles", NewSecretDisplay(true, "-x"), 5, "-x-x-"},
		{"empty pool falls back", NewSecretDisplay(true, ""), 2, "**"},
		{"zero count", NewSecretDisplay(true, "*"), 0, ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.display.Render(test.count); got != test.want {
				t.Errorf("Render(%d) = %q, want %q", test.count, got, test.want)
			}
		})
	}
}

type fakeCache struct {
	users               map[string]string
	sessionCommand      string
	sessionPath         string
	userSessionCommands map[string]string
	userSessionPaths    map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		users:               map[string]string{},
		userSessionCommands: map[string]string{},
		userSessionPaths:    map[string]string{},
	}
}

func (cache *fakeCache) WriteUser(username, name string) error {
	cache.users[username] = name
	return nil
}

func (cache *fakeCache) WriteSessionCommand(command string) error {
	cache.sessionCommand = command
	return nil
}

func (cache *fakeCache) WriteSessionPath(path string) error {
	cache.sessionPath = path
	return nil
}

func (cache *fakeCache) WriteUserSessionCommand(username, command string) error {
	cache.userSessionCommands[username] = command
	return nil
}

func (cache *fakeCache) WriteUserSessionPath(username, path string) error {
	cache.userSessionPaths[username] = path
	return nil
}

func TestPersistRemembered(t *testing.T) {
	t.Parallel()

	t.Run("username", func(t *testing.T) {
		g, _ := newTestGreeter(t)
		cache := newFakeCache()
		g.SetCache(cache)

		g.Lock()
		g.Remember = true
		g.Username = NewMaskedString("alice", "Alice")
		g.persistRemembered()
		g.Unlock()

		if cache.users["alice"] != "Alice" {
			t.Errorf("users = %v, want alice remembered with mask", cache.users)
		}
		if cache.sessionPath != "" || cache.sessionCommand != "" {
			t.Error("session remembered without the session flags")
		}
	})

	t.Run("session path from menu selection", func(t *testing.T) {
		g, _ := newTestGreeter(t)
		cache := newFakeCache()
		g.SetCache(cache)

		g.Lock()
		g.RememberSession = true
		g.Sessions = testSessions
		g.SessionSource = session.IndexSource(0)
		g.persistRemembered()
		g.Unlock()

		if cache.sessionPath != testSessions[0].Path {
			t.Errorf("sessionPath = %q, want %q", cache.sessionPath, testSessions[0].Path)
		}
	})

	t.Run("free-form command", func(t *testing.T) {
		g, _ := newTestGreeter(t)
		cache := newFakeCache()
		g.SetCache(cache)

		g.Lock()
		g.RememberSession = true
		g.SessionSource = session.CommandSource("sway --debug")
		g.persistRemembered()
		g.Unlock()

		if cache.sessionCommand != "sway --debug" {
			t.Errorf("sessionCommand = %q", cache.sessionCommand)
		}
		if cache.sessionPath != "" {
			t.Errorf("sessionPath = %q, want empty for a free-form command", cache.sessionPath)
		}
	})

	t.Run("per-user takes precedence", func(t *testing.T) {
		g, _ := newTestGreeter(t)
		cache := newFakeCache()
		g.SetCache(cache)

		g.Lock()
		g.RememberSession = true
		g.RememberUserSession = true
		g.Username = NewMaskedString("alice", "")
		g.Sessions = testSessions
		g.SessionSource = session.IndexSource(1)
		g.persistRemembered()
		g.Unlock()

		if cache.userSessionPaths["alice"] != testSessions[1].Path {
			t.Errorf("userSessionPaths = %v", cache.userSessionPaths)
		}
		if cache.sessionPath != "" {
			t.Error("global session written alongside the per-user one")
		}
	})
}
