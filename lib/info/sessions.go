// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package info

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/apognu/tuigreet/lib/session"
)

// SessionDir is a directory of desktop descriptor files, with the
// session kind its location implies.
type SessionDir struct {
	Path string
	Kind session.Kind
}

// DefaultSessionDirs are the standard locations for X11 and Wayland
// session descriptors.
var DefaultSessionDirs = []SessionDir{
	{Path: "/usr/share/xsessions", Kind: session.KindX11},
	{Path: "/usr/share/wayland-sessions", Kind: session.KindWayland},
}

// ParseSessionDirs turns a colon-separated list of directories (the
// --sessions flag) into SessionDirs. Directories containing "wayland"
// in their path are treated as Wayland, the rest as X11, matching how
// distributions lay out the standard locations.
func ParseSessionDirs(list string) []SessionDir {
	var dirs []SessionDir
	for _, path := range strings.Split(list, ":") {
		if path == "" {
			continue
		}
		kind := session.KindX11
		if strings.Contains(path, "wayland") {
			kind = session.KindWayland
		}
		dirs = append(dirs, SessionDir{Path: path, Kind: kind})
	}
	return dirs
}

// Sessions loads every usable desktop descriptor from the given
// directories, sorted by name within each directory. Missing
// directories and unparsable descriptors are skipped: a broken
// descriptor must not take the whole login screen down.
func Sessions(dirs []SessionDir) []session.Session {
	var sessions []session.Session

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir.Path)
		if err != nil {
			continue
		}

		var found []session.Session
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".desktop") {
				continue
			}
			loaded, err := loadDescriptor(filepath.Join(dir.Path, entry.Name()), dir.Kind)
			if err != nil || loaded == nil {
				continue
			}
			found = append(found, *loaded)
		}

		sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
		sessions = append(sessions, found...)
	}

	return sessions
}

// descriptorOptions tunes the ini parser for the .desktop dialect:
// values routinely contain `;` (DesktopNames lists) and `:`, which the
// defaults would eat as inline comments or extra delimiters.
var descriptorOptions = ini.LoadOptions{
	IgnoreInlineComment: true,
	KeyValueDelimiters:  "=",
}

// loadDescriptor parses one .desktop file. Returns (nil, nil) for
// descriptors that parse but are marked hidden.
func loadDescriptor(path string, kind session.Kind) (*session.Session, error) {
	file, err := ini.LoadSources(descriptorOptions, path)
	if err != nil {
		return nil, err
	}

	entry := file.Section("Desktop Entry")
	if entry.Key("Hidden").MustBool(false) || entry.Key("NoDisplay").MustBool(false) {
		return nil, nil
	}

	name := entry.Key("Name").String()
	exec := entry.Key("Exec").String()
	if name == "" || exec == "" {
		return nil, nil
	}

	return &session.Session{
		Slug:         strings.TrimSuffix(filepath.Base(path), ".desktop"),
		Name:         name,
		Command:      exec,
		Kind:         kind,
		Path:         path,
		DesktopNames: entry.Key("DesktopNames").String(),
	}, nil
}
