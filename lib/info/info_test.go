// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package info

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/apognu/tuigreet/lib/session"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestSessions(t *testing.T) {
	t.Parallel()
	xdir := t.TempDir()
	wdir := t.TempDir()

	writeFile(t, xdir, "i3.desktop", "[Desktop Entry]\nName=i3\nExec=i3\n")
	writeFile(t, xdir, "hidden.desktop", "[Desktop Entry]\nName=Hidden\nExec=hidden\nHidden=true\n")
	writeFile(t, xdir, "broken.desktop", "Name=broken")
	writeFile(t, xdir, "notes.txt", "not a descriptor")
	swayPath := writeFile(t, wdir, "sway.desktop",
		"[Desktop Entry]\nName=Sway\nExec=env PATH=/usr/local/bin:/usr/bin sway\nDesktopNames=sway;wlroots;\n")

	sessions := Sessions([]SessionDir{
		{Path: xdir, Kind: session.KindX11},
		{Path: wdir, Kind: session.KindWayland},
		{Path: filepath.Join(xdir, "missing"), Kind: session.KindX11},
	})

	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2: %+v", len(sessions), sessions)
	}

	i3 := sessions[0]
	if i3.Name != "i3" || i3.Command != "i3" || i3.Kind != session.KindX11 || i3.Slug != "i3" {
		t.Errorf("unexpected X11 session: %+v", i3)
	}

	sway := sessions[1]
	if sway.Name != "Sway" || sway.Kind != session.KindWayland || sway.Path != swayPath {
		t.Errorf("unexpected Wayland session: %+v", sway)
	}
	// Semicolons and colons are data in descriptor values, not comment
	// or delimiter syntax.
	if sway.DesktopNames != "sway;wlroots;" {
		t.Errorf("DesktopNames: got %q", sway.DesktopNames)
	}
	if sway.Command != "env PATH=/usr/local/bin:/usr/bin sway" {
		t.Errorf("Command: got %q", sway.Command)
	}
}

func TestParseSessionDirs(t *testing.T) {
	t.Parallel()
	dirs := ParseSessionDirs("/usr/share/xsessions:/usr/local/share/wayland-sessions:")
	if len(dirs) != 2 {
		t.Fatalf("got %d dirs, want 2", len(dirs))
	}
	if dirs[0].Kind != session.KindX11 {
		t.Errorf("first dir kind: got %v, want X11", dirs[0].Kind)
	}
	if dirs[1].Kind != session.KindWayland {
		t.Errorf("second dir kind: got %v, want Wayland", dirs[1].Kind)
	}
}

func TestUsers(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	passwd := writeFile(t, dir, "passwd",
		"root:x:0:0:root:/root:/bin/bash\n"+
			"zoe:x:1001:1001:Zoe Doe,room 1,,:/home/zoe:/bin/bash\n"+
			"alice:x:1000:1000:Alice:/home/alice:/bin/bash\n"+
			"nobody:x:65534:65534:nobody:/:/usr/sbin/nologin\n"+
			"garbage line\n")

	got := users(passwd, 1000, 60000)
	if len(got) != 2 {
		t.Fatalf("got %d users, want 2: %+v", len(got), got)
	}
	if got[0].Username != "alice" || got[0].Name != "Alice" {
		t.Errorf("first user: %+v", got[0])
	}
	if got[1].Username != "zoe" || got[1].Name != "Zoe Doe" {
		t.Errorf("second user: %+v", got[1])
	}
}

func TestMinMaxUIDs(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	defs := writeFile(t, dir, "login.defs", "UID_MIN 500\nUID_MAX\t50000\nGID_MIN 1000\n")

	minUID, maxUID := minMaxUIDs(defs, nil, nil)
	if minUID != 500 || maxUID != 50000 {
		t.Errorf("got %d..%d, want 500..50000", minUID, maxUID)
	}

	// Flags override the file.
	flagMin, flagMax := 2000, 3000
	minUID, maxUID = minMaxUIDs(defs, &flagMin, &flagMax)
	if minUID != 2000 || maxUID != 3000 {
		t.Errorf("got %d..%d, want 2000..3000", minUID, maxUID)
	}

	// Missing file falls back to the defaults.
	minUID, maxUID = minMaxUIDs(filepath.Join(dir, "missing"), nil, nil)
	if minUID != DefaultMinUID || maxUID != DefaultMaxUID {
		t.Errorf("got %d..%d, want defaults", minUID, maxUID)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	t.Parallel()
	cache := NewCache(t.TempDir())

	if _, _, err := cache.LastUser(); err == nil {
		t.Error("LastUser on an empty cache should fail")
	}

	if err := cache.WriteUser("alice", "Alice Example"); err != nil {
		t.Fatalf("WriteUser: %v", err)
	}
	username, name, err := cache.LastUser()
	if err != nil {
		t.Fatalf("LastUser: %v", err)
	}
	if username != "alice" || name != "Alice Example" {
		t.Errorf("got %q/%q", username, name)
	}

	if err := cache.WriteSessionPath("/usr/share/xsessions/i3.desktop"); err != nil {
		t.Fatalf("WriteSessionPath: %v", err)
	}
	if path, _ := cache.LastSessionPath(); path != "/usr/share/xsessions/i3.desktop" {
		t.Errorf("LastSessionPath: got %q", path)
	}

	if err := cache.WriteUserSessionCommand("alice", "sway"); err != nil {
		t.Fatalf("WriteUserSessionCommand: %v", err)
	}
	if command, _ := cache.LastUserSessionCommand("alice"); command != "sway" {
		t.Errorf("LastUserSessionCommand: got %q", command)
	}
	if _, err := cache.LastUserSessionCommand("bob"); err == nil {
		t.Error("LastUserSessionCommand for unknown user should fail")
	}

	cache.DeleteUser()
	if _, _, err := cache.LastUser(); err == nil {
		t.Error("LastUser after DeleteUser should fail")
	}
}

func TestCachePerUserSanitization(t *testing.T) {
	t.Parallel()
	cache := NewCache(t.TempDir())

	if err := cache.WriteUserSessionCommand("../../etc/passwd", "evil"); err != nil {
		t.Fatalf("WriteUserSessionCommand: %v", err)
	}
	entries, err := os.ReadDir(cache.dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d cache entries, want 1", len(entries))
	}
	if name := entries[0].Name(); filepath.Dir(filepath.Join(cache.dir, name)) != cache.dir {
		t.Errorf("cache file escaped the cache dir: %q", name)
	}
}

func TestCapsLock(t *testing.T) {
	t.Parallel()

	// Stand-ins for kbdinfo's exit codes: engaged, not engaged, and the
	// tool missing entirely.
	if !capsLock("true") {
		t.Error("a zero exit should read as engaged")
	}
	if capsLock("false") {
		t.Error("a non-zero exit should read as off")
	}
	if capsLock("kbdinfo-definitely-not-installed") {
		t.Error("a missing tool should read as off")
	}
}

func TestExpandIssue(t *testing.T) {
	t.Setenv("XDG_VTNR", "3")

	got := expandIssue(`Welcome to \S on \l (\\)`)
	if got != `Welcome to Linux on tty3 (\)` {
		t.Errorf("expandIssue: got %q", got)
	}

	// Unknown escapes pass through; a trailing backslash is kept.
	if got := expandIssue(`\q\`); got != `q\` {
		t.Errorf("expandIssue: got %q", got)
	}
}
