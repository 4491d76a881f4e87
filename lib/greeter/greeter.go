// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package greeter holds the shared application state, the keyboard
// transition rules, and the protocol client driving a greetd
// authentication transaction.
//
// The Greeter aggregate is owned by the UI loop and shared with the
// background IPC and power tasks through its embedded read-write lock.
// Every mutation happens under a short-lived write lock; rendering
// takes a read lock and never mutates. When a task needs both the
// state lock and the connection lock, the state lock is taken first.
package greeter

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/apognu/tuigreet/lib/greetd"
	"github.com/apognu/tuigreet/lib/info"
	"github.com/apognu/tuigreet/lib/power"
	"github.com/apognu/tuigreet/lib/secret"
	"github.com/apognu/tuigreet/lib/session"
)

// Mode is the interaction state the greeter is in. It decides which
// view is rendered and how keyboard input is interpreted.
type Mode int

const (
	// ModeUsername is the initial state, accepting the login
	// identifier.
	ModeUsername Mode = iota
	// ModePassword answers the pending auth prompt. Entered only when
	// the daemon asks a question.
	ModePassword
	// ModeAction displays an informational daemon message until the
	// conversation moves on.
	ModeAction
	// ModeUsers is the user selection popup.
	ModeUsers
	// ModeCommand is the free-form session command editor popup.
	ModeCommand
	// ModeSessions is the session selection popup.
	ModeSessions
	// ModePower is the shutdown/reboot popup.
	ModePower
	// ModeProcessing is the inert state while a session start or power
	// command is in flight.
	ModeProcessing
)

// String returns the mode name for logging.
func (mode Mode) String() string {
	switch mode {
	case ModeUsername:
		return "username"
	case ModePassword:
		return "password"
	case ModeAction:
		return "action"
	case ModeUsers:
		return "users"
	case ModeCommand:
		return "command"
	case ModeSessions:
		return "sessions"
	case ModePower:
		return "power"
	case ModeProcessing:
		return "processing"
	}
	return fmt.Sprintf("mode(%d)", int(mode))
}

// isModal reports whether the mode is a popup layered over a root
// mode. PreviousMode is only overwritten when entering a modal mode
// from a non-modal one, so nested popups return to their root rather
// than to each other.
func (mode Mode) isModal() bool {
	switch mode {
	case ModeUsers, ModeCommand, ModeSessions, ModePower:
		return true
	}
	return false
}

// AuthStatus is the terminal outcome of the greeter, propagated to the
// process boundary.
type AuthStatus int

const (
	// StatusSuccess means greetd acknowledged the session start.
	StatusSuccess AuthStatus = iota
	// StatusFailure means the greeter stopped on an unrecoverable
	// error.
	StatusFailure
	// StatusCancel means the user gave up.
	StatusCancel
)

// String returns the status name.
func (status AuthStatus) String() string {
	switch status {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusCancel:
		return "cancel"
	}
	return fmt.Sprintf("status(%d)", int(status))
}

// SecretDisplay controls how secret answers are echoed.
type SecretDisplay struct {
	// Visible enables redacted echo; when false, nothing is echoed.
	Visible bool

	// Pool is the set of redaction characters. Typed characters are
	// rendered by cycling through the pool by position.
	Pool []rune
}

// NewSecretDisplay configures redacted echo with the given character
// pool; an empty pool falls back to asterisks.
func NewSecretDisplay(visible bool, pool string) SecretDisplay {
	runes := []rune(pool)
	if len(runes) == 0 {
		runes = []rune{'*'}
	}
	return SecretDisplay{Visible: visible, Pool: runes}
}

// Render produces the redacted representation of count typed runes.
func (display SecretDisplay) Render(count int) string {
	if !display.Visible || count <= 0 {
		return ""
	}
	var out strings.Builder
	for index := 0; index < count; index++ {
		out.WriteRune(display.Pool[index%len(display.Pool)])
	}
	return out.String()
}

// Cache persists remembered choices. Implemented by info.Cache; an
// interface so tests can observe writes without a filesystem.
type Cache interface {
	WriteUser(username, name string) error
	WriteSessionCommand(command string) error
	WriteSessionPath(path string) error
	WriteUserSessionCommand(username, command string) error
	WriteUserSessionPath(username, path string) error
}

// User-visible messages. The daemon's own error descriptions are never
// shown: they can embed whatever the user typed, secrets included.
const (
	MessageAuthFailed        = "Authentication failed"
	MessageError             = "An error occurred"
	MessageNoSession         = "No session configured"
	messagePowerFailedFormat = "Failed to %s: %s"
)

// Greeter is the single mutable aggregate shared by the UI loop and
// the background tasks. All exported fields are guarded by the
// embedded lock.
type Greeter struct {
	sync.RWMutex

	// Mode and PreviousMode implement the mode graph. PreviousMode is
	// the non-modal root a popup returns to.
	Mode         Mode
	PreviousMode Mode

	// CursorOffset is the cursor position relative to the end of the
	// active buffer, in runes. Always within [-len, 0].
	CursorOffset int

	// buffer is the generic text-entry scratch space reused across
	// modes; saved holds the scratch of the root mode while a popup
	// that edits the buffer is open.
	buffer *secret.Buffer
	saved  *secret.Buffer

	// Username is the login identifier, with an optional display
	// mask. Committed from the buffer when leaving ModeUsername.
	Username MaskedString

	// Prompt is the daemon's current question; AskingForSecret tells
	// whether the answer is echoed. SecretDisplay configures the
	// redacted echo.
	Prompt          string
	AskingForSecret bool
	SecretDisplay   SecretDisplay

	// Greeting is the static banner (custom text or expanded
	// /etc/issue); Message is the transient transaction message.
	Greeting string
	Message  string

	// Sessions is the immutable discovered session list;
	// SessionSource is the active launch selection; SelectedSession
	// is the popup cursor.
	Sessions        []session.Session
	SessionSource   session.Source
	SelectedSession int

	// Users is the user menu content; SelectedUser is its cursor.
	// UserMenu gates the Enter-on-empty-username popup.
	Users        []info.User
	SelectedUser int
	UserMenu     bool

	// Wrappers configures command wrapping at session resolution.
	Wrappers session.Wrappers

	// Env is extra KEY=VALUE pairs appended to every started session's
	// environment.
	Env []string

	// Power configures the power commands; SelectedPower is the popup
	// cursor.
	Power         power.Config
	SelectedPower int

	// Remember flags gate cache writes after a completed session
	// start.
	Remember            bool
	RememberSession     bool
	RememberUserSession bool

	// Working is true from the moment a request is enqueued until its
	// response has been dispatched. Done is true once start_session
	// has been sent.
	Working bool
	Done    bool

	// exit, once set, is terminal: the orchestrator stops processing
	// events and unwinds.
	exit *AuthStatus

	// Ipc is the protocol client feeding the daemon conversation.
	Ipc *Ipc

	// cache persists remembered choices; nil disables persistence.
	cache Cache

	logger *slog.Logger
}

// New creates a greeter speaking through the given connection. The
// caller populates the configuration fields before starting the UI.
func New(conn *greetd.Conn, logger *slog.Logger) (*Greeter, error) {
	buffer, err := secret.NewBuffer()
	if err != nil {
		return nil, err
	}
	saved, err := secret.NewBuffer()
	if err != nil {
		buffer.Close()
		return nil, err
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Greeter{
		buffer:        buffer,
		saved:         saved,
		SecretDisplay: NewSecretDisplay(false, ""),
		Ipc:           NewIpc(conn, logger),
		logger:        logger,
	}, nil
}

// SetCache wires the remembered-state store.
func (g *Greeter) SetCache(cache Cache) {
	g.cache = cache
}

// Buffer returns the scratch buffer contents. Callers hold at least a
// read lock.
func (g *Greeter) Buffer() string {
	return g.buffer.String()
}

// BufferRuneCount returns the scratch buffer length in runes.
func (g *Greeter) BufferRuneCount() int {
	return g.buffer.RuneCount()
}

// SetBuffer replaces the scratch buffer contents and moves the cursor
// to the end. Callers hold the write lock.
func (g *Greeter) SetBuffer(value string) {
	if err := g.buffer.Set(value); err != nil {
		g.logger.Error("scratch buffer update failed", "error", err)
	}
	g.CursorOffset = 0
}

// clampCursor enforces the cursor invariant against the current
// buffer length.
func (g *Greeter) clampCursor() {
	length := g.buffer.RuneCount()
	if g.CursorOffset < -length {
		g.CursorOffset = -length
	}
	if g.CursorOffset > 0 {
		g.CursorOffset = 0
	}
}

// saveBuffer stashes the scratch buffer before a popup takes it over.
func (g *Greeter) saveBuffer() {
	if err := g.saved.Set(g.buffer.String()); err != nil {
		g.logger.Error("scratch buffer save failed", "error", err)
	}
}

// restoreBuffer brings back the stashed scratch buffer when a popup is
// dismissed.
func (g *Greeter) restoreBuffer() {
	g.SetBuffer(g.saved.String())
	g.saved.Wipe()
}

// scrub wipes every secret-bearing field. Callers setting a failure
// notice do so after scrubbing, so the notice survives the reset that
// produced it.
func (g *Greeter) scrub(wipeMessage, wipeUsername bool) {
	g.buffer.Wipe()
	g.saved.Wipe()
	g.Prompt = ""
	g.CursorOffset = 0
	if wipeUsername {
		g.Username.Wipe()
	}
	if wipeMessage {
		g.Message = ""
	}
}

// SoftReset returns to the initial mode while keeping the username, so
// a failed authentication can be retried without retyping the login.
// The scratch buffer comes back empty; the retained login lives in
// Username only. The connection is re-dialed: reset follows a
// fire-and-forget cancel whose response is still in the old stream.
func (g *Greeter) SoftReset() {
	g.reset(false)
	g.SetBuffer("")
}

// HardReset additionally forgets the username. Used for explicit
// cancellation and unrecoverable daemon errors.
func (g *Greeter) HardReset() {
	g.reset(true)
	g.SetBuffer("")
}

func (g *Greeter) reset(wipeUsername bool) {
	g.Mode = ModeUsername
	g.PreviousMode = ModeUsername
	g.Working = false
	g.Done = false
	g.AskingForSecret = false

	g.scrub(true, wipeUsername)

	if err := g.Ipc.conn.Reconnect(); err != nil {
		g.logger.Error("reconnect to greetd failed", "error", err)
	}
}

// Exit records the terminal status. The first status wins; later calls
// are ignored.
func (g *Greeter) Exit(status AuthStatus) {
	if g.exit == nil {
		g.exit = &status
	}
}

// ExitStatus returns the terminal status, or nil while the greeter is
// still running.
func (g *Greeter) ExitStatus() *AuthStatus {
	return g.exit
}

// Close wipes all secret-bearing state and releases the secret
// buffers. Called on every process exit path.
func (g *Greeter) Close() {
	g.Lock()
	defer g.Unlock()

	g.scrub(true, true)
	g.buffer.Close()
	g.saved.Close()
}

// persistRemembered writes the remembered username and session choice
// after greetd acknowledged the session start. Per-user session
// variants take precedence over the global ones. Failures are logged:
// a read-only cache must not fail the login.
func (g *Greeter) persistRemembered() {
	if g.cache == nil {
		return
	}

	if g.Remember {
		if err := g.cache.WriteUser(g.Username.Value, g.Username.Mask); err != nil {
			g.logger.Warn("remembering username failed", "error", err)
		}
	}

	if !g.RememberSession && !g.RememberUserSession {
		return
	}

	var err error
	if resolved := g.SessionSource.Session(g.Sessions); resolved != nil {
		if g.RememberUserSession {
			err = g.cache.WriteUserSessionPath(g.Username.Value, resolved.Path)
		} else {
			err = g.cache.WriteSessionPath(resolved.Path)
		}
	} else if command := g.SessionSource.Command(g.Sessions); command != "" {
		if g.RememberUserSession {
			err = g.cache.WriteUserSessionCommand(g.Username.Value, command)
		} else {
			err = g.cache.WriteSessionCommand(command)
		}
	}
	if err != nil {
		g.logger.Warn("remembering session failed", "error", err)
	}
}
