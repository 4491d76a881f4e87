// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session models the selectable sessions a greeter can launch
// and resolves the user's selection into the command line and
// environment handed to greetd.
package session

import "strings"

// Kind is the windowing-system category of a session, taken from the
// directory its descriptor was discovered in.
type Kind int

const (
	// KindNone is a free-form command with no descriptor backing it.
	KindNone Kind = iota
	// KindX11 is a session from an xsessions directory.
	KindX11
	// KindWayland is a session from a wayland-sessions directory.
	KindWayland
	// KindTty is a plain console session.
	KindTty
)

// SessionType returns the XDG_SESSION_TYPE value for the kind, or the
// empty string for KindNone.
func (kind Kind) SessionType() string {
	switch kind {
	case KindX11:
		return "x11"
	case KindWayland:
		return "wayland"
	case KindTty:
		return "tty"
	}
	return ""
}

// Session is one selectable session, loaded from a desktop descriptor
// file at startup and immutable afterwards. Two sessions are the same
// session when their descriptor paths match; names may collide between
// session directories.
type Session struct {
	// Slug is the descriptor file stem (e.g. "sway" for sway.desktop).
	// Empty for sessions not backed by a file.
	Slug string

	// Name is the human-readable session name from the descriptor.
	Name string

	// Command is the descriptor's Exec line.
	Command string

	// Kind categorizes the windowing system the session runs under.
	Kind Kind

	// Path is the descriptor file the session was loaded from. This is
	// the session's identity, and what gets persisted when remembering
	// the last selected session.
	Path string

	// DesktopNames is the descriptor's DesktopNames property,
	// semicolon-separated, used to build XDG_CURRENT_DESKTOP.
	DesktopNames string
}

// Source describes how the active launch command is determined. It is
// a tagged union: exactly one of the three shapes is active, and
// committing a new choice replaces the whole value.
type Source struct {
	kind    sourceKind
	command string
	index   int
}

type sourceKind int

const (
	sourceNone sourceKind = iota
	sourceCommand
	sourceIndex
)

// NoSource is the Source with nothing selected.
var NoSource = Source{}

// CommandSource selects an explicit free-form command.
func CommandSource(command string) Source {
	return Source{kind: sourceCommand, command: command}
}

// IndexSource selects the session at the given position in the
// discovered session list.
func IndexSource(index int) Source {
	return Source{kind: sourceIndex, index: index}
}

// Command resolves the source to the command string to execute, given
// the discovered session list. Returns the empty string when nothing
// is selected or the index no longer resolves.
func (source Source) Command(sessions []Session) string {
	switch source.kind {
	case sourceCommand:
		return source.command
	case sourceIndex:
		if source.index >= 0 && source.index < len(sessions) {
			return sessions[source.index].Command
		}
	}
	return ""
}

// Label resolves the source to the human-readable string shown in the
// UI: the session name for a list selection, the command itself for a
// free-form command.
func (source Source) Label(sessions []Session) string {
	switch source.kind {
	case sourceCommand:
		return source.command
	case sourceIndex:
		if source.index >= 0 && source.index < len(sessions) {
			return sessions[source.index].Name
		}
	}
	return ""
}

// Session resolves the source to the selected Session, or nil for a
// free-form command or an empty selection.
func (source Source) Session(sessions []Session) *Session {
	if source.kind == sourceIndex && source.index >= 0 && source.index < len(sessions) {
		return &sessions[source.index]
	}
	return nil
}

// NormalizeDesktopNames converts a descriptor's semicolon-separated
// DesktopNames property into the colon-separated XDG_CURRENT_DESKTOP
// form, dropping a trailing separator.
func NormalizeDesktopNames(names string) string {
	return strings.TrimSuffix(strings.ReplaceAll(names, ";", ":"), ":")
}

// Env builds the session environment entries for a resolved session.
// A nil session (free-form command) contributes no entries.
func Env(resolved *Session) []string {
	if resolved == nil {
		return nil
	}

	var env []string
	if resolved.Slug != "" {
		env = append(env, "XDG_SESSION_DESKTOP="+resolved.Slug, "DESKTOP_SESSION="+resolved.Slug)
	}
	if sessionType := resolved.Kind.SessionType(); sessionType != "" {
		env = append(env, "XDG_SESSION_TYPE="+sessionType)
	}
	if resolved.DesktopNames != "" {
		env = append(env, "XDG_CURRENT_DESKTOP="+NormalizeDesktopNames(resolved.DesktopNames))
	}
	return env
}

// Wrappers configures the command prefixes applied when launching.
type Wrappers struct {
	// X11 is prepended to X11 session commands. The default re-execs
	// through env(1) because X servers require an absolute path as the
	// wrapped command's argv[0].
	X11 string

	// General is prepended to every non-X11 command when set,
	// including free-form commands with no session descriptor.
	General string
}

// DefaultX11Wrapper is the X11 command prefix used when no override is
// configured.
const DefaultX11Wrapper = "startx /usr/bin/env"

// DefaultWrappers are the wrapper settings used when the configuration
// provides none.
var DefaultWrappers = Wrappers{X11: DefaultX11Wrapper}

// Wrap prefixes the command with the wrapper appropriate for the
// resolved session. Wrapping is plain string concatenation: no shell
// quoting is performed, so wrappers containing spaces are passed
// through as written. Known limitation inherited from the descriptor
// format, where Exec lines are word-split by the shell anyway.
func (wrappers Wrappers) Wrap(resolved *Session, command string) string {
	if command == "" {
		return ""
	}

	if resolved != nil && resolved.Kind == KindX11 {
		wrapper := wrappers.X11
		if wrapper == "" {
			wrapper = DefaultX11Wrapper
		}
		return wrapper + " " + command
	}

	if wrappers.General != "" {
		return wrappers.General + " " + command
	}
	return command
}

// Resolve turns a source plus the discovered session list into the
// final wrapped command line and its environment. The returned command
// is empty when the source resolves to nothing.
func Resolve(source Source, sessions []Session, wrappers Wrappers) (command string, env []string) {
	resolved := source.Session(sessions)
	return wrappers.Wrap(resolved, source.Command(sessions)), Env(resolved)
}
