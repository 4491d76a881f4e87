// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// tuigreet is a console greeter for the greetd login daemon. It draws
// a dialog on the virtual terminal greetd assigns to it, runs the
// authentication conversation over the daemon's socket, and asks the
// daemon to launch the selected session once authentication succeeds.
//
// greetd runs the greeter itself; invoking it by hand outside a greetd
// session only works for --help and --version.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/apognu/tuigreet/lib/config"
	"github.com/apognu/tuigreet/lib/greetd"
	"github.com/apognu/tuigreet/lib/greeter"
	"github.com/apognu/tuigreet/lib/info"
	"github.com/apognu/tuigreet/lib/power"
	"github.com/apognu/tuigreet/lib/session"
	"github.com/apognu/tuigreet/lib/ui"
)

// version is stamped by the build with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// exitError carries a bare exit code to the process boundary, for
// outcomes that are not worth an error line on the terminal greetd is
// about to reuse.
type exitError int

func (code exitError) Error() string { return fmt.Sprintf("exit status %d", int(code)) }
func (code exitError) ExitCode() int { return int(code) }

func run() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("tuigreet %s\n", version)
		return nil
	}

	cfg, flagSet, err := config.Load(os.Args[1:])
	if err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if wantVersion, _ := flagSet.GetBool("version"); wantVersion {
		fmt.Printf("tuigreet %s\n", version)
		return nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("tuigreet must run on a terminal; greetd starts it on one")
	}

	logger := slog.New(slog.DiscardHandler)
	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("cannot open log file %s: %w", cfg.LogFile, err)
		}
		defer file.Close()
		logger = slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	conn, err := greetd.Connect()
	if err != nil {
		return fmt.Errorf("connecting to greetd: %w", err)
	}
	defer conn.Close()

	g, err := greeter.New(conn, logger)
	if err != nil {
		return err
	}
	defer g.Close()

	cache := info.NewCache(cfg.CacheDir)
	seedState(g, cfg, cache)

	model := ui.NewModel(g)
	switch cfg.Theme {
	case config.ThemeDark:
		model.SetTheme(ui.DarkTheme)
	case config.ThemeLight:
		model.SetTheme(ui.LightTheme)
	}
	if cfg.Time {
		model.SetTimeFormat(cfg.TimeFormat)
	}
	model.SetLayout(cfg.Width, cfg.ContainerPadding, cfg.PromptPadding, cfg.GreetAlign)

	program := tea.NewProgram(model, tea.WithAltScreen())

	consumerContext, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	go g.Ipc.Run(consumerContext, g, func() { program.Send(ui.WakeMsg{}) })

	if _, err := program.Run(); err != nil {
		return err
	}

	g.RLock()
	status := g.ExitStatus()
	g.RUnlock()

	if status == nil || *status != greeter.StatusSuccess {
		return exitError(1)
	}
	return nil
}

// seedState populates the shared greeter state from the configuration
// and the remembered choices before the UI starts.
func seedState(g *greeter.Greeter, cfg *config.Config, cache *info.Cache) {
	g.Lock()
	defer g.Unlock()

	g.SetCache(cache)

	switch {
	case cfg.Greeting != "":
		g.Greeting = cfg.Greeting
	case cfg.Issue:
		g.Greeting = info.Issue()
	default:
		g.Greeting = "Welcome to " + info.Hostname()
	}

	g.Sessions = info.Sessions(cfg.SessionDirList())
	g.Wrappers = cfg.Wrappers()
	g.Env = cfg.Env
	g.SecretDisplay = greeter.NewSecretDisplay(cfg.Asterisks, cfg.AsterisksChars)

	g.Power = power.Config{
		Commands: map[power.Option]string{
			power.Shutdown: cfg.PowerShutdown,
			power.Reboot:   cfg.PowerReboot,
		},
		UseSetsid: !cfg.PowerNoSetsid,
	}

	if cfg.UserMenu {
		g.UserMenu = true
		minUID, maxUID := info.MinMaxUIDs(uidFlag(cfg.MinUID), uidFlag(cfg.MaxUID))
		g.Users = info.Users(minUID, maxUID)
	}

	g.Remember = cfg.Remember
	g.RememberSession = cfg.RememberSession
	g.RememberUserSession = cfg.RememberUserSession

	var username string
	if cfg.Remember {
		if remembered, name, err := cache.LastUser(); err == nil && remembered != "" {
			username = remembered
			g.Username = greeter.NewMaskedString(remembered, name)
			g.SetBuffer(remembered)
		}
	} else {
		// Remembering was turned off; drop any previously persisted
		// username.
		cache.DeleteUser()
	}

	g.SessionSource = seedSessionSource(g.Sessions, cfg, cache, username)
}

// seedSessionSource picks the initial session selection: the
// remembered session when enabled and still present, then the --cmd
// default.
func seedSessionSource(sessions []session.Session, cfg *config.Config, cache *info.Cache, username string) session.Source {
	var path, command string
	switch {
	case cfg.RememberUserSession && username != "":
		path, _ = cache.LastUserSessionPath(username)
		command, _ = cache.LastUserSessionCommand(username)
	case cfg.RememberSession:
		path, _ = cache.LastSessionPath()
		command, _ = cache.LastSessionCommand()
	}

	if path != "" {
		for index := range sessions {
			if sessions[index].Path == path {
				return session.IndexSource(index)
			}
		}
	}
	if command != "" {
		return session.CommandSource(command)
	}
	if cfg.Command != "" {
		return session.CommandSource(cfg.Command)
	}
	return session.NoSource
}

// uidFlag maps the flag's zero value to "not set".
func uidFlag(value int) *int {
	if value == 0 {
		return nil
	}
	return &value
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `tuigreet - console greeter for greetd.

greetd launches the greeter on a virtual terminal; configure it as the
command in your greetd config:

  [default_session]
  command = "tuigreet --remember --time"

The session command can be preselected with --cmd, chosen from the
discovered session menus (F3), or typed free-form (F2, or a "!command"
username). F12 opens the shutdown/reboot menu.

Usage:
  tuigreet [flags]

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
