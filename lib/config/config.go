// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the greeter configuration from command-line
// flags and an optional YAML file. Flags always win over file values,
// so a display manager can ship a base file and override single
// options per seat.
package config

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/apognu/tuigreet/lib/info"
	"github.com/apognu/tuigreet/lib/session"
)

// Theme selection values for the Theme field.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Config is the complete greeter configuration.
type Config struct {
	// ConfigFile is the optional YAML file the remaining fields are
	// loaded from before flags are applied. Never read from the file
	// itself.
	ConfigFile string `yaml:"-"`

	// Command is the default session command when the user picks
	// nothing else.
	Command string `yaml:"command"`

	// Env is extra KEY=VALUE pairs handed to every started session.
	Env []string `yaml:"env"`

	// SessionDirs and XSessionDirs are colon-separated lists of
	// directories scanned for wayland and X11 session descriptors.
	SessionDirs  string `yaml:"sessions"`
	XSessionDirs string `yaml:"xsessions"`

	// SessionWrapper prefixes every session command; XSessionWrapper
	// prefixes X11 sessions specifically and defaults to launching
	// through startx.
	SessionWrapper  string `yaml:"session_wrapper"`
	XSessionWrapper string `yaml:"xsession_wrapper"`

	// Issue displays the expanded /etc/issue as the greeting; Greeting
	// displays a custom banner. The two are mutually exclusive.
	Issue    bool   `yaml:"issue"`
	Greeting string `yaml:"greeting"`

	// Time enables the clock line; TimeFormat overrides its strftime
	// pattern.
	Time       bool   `yaml:"time"`
	TimeFormat string `yaml:"time_format"`

	// Remember persists the last accepted username. RememberSession
	// persists the last session globally; RememberUserSession persists
	// it per username and requires Remember.
	Remember            bool `yaml:"remember"`
	RememberSession     bool `yaml:"remember_session"`
	RememberUserSession bool `yaml:"remember_user_session"`

	// UserMenu enables the user selection popup, listing accounts with
	// UIDs within [MinUID, MaxUID].
	UserMenu bool `yaml:"user_menu"`
	MinUID   int  `yaml:"user_menu_min_uid"`
	MaxUID   int  `yaml:"user_menu_max_uid"`

	// Asterisks echoes secret answers with the characters from
	// AsterisksChars instead of hiding them entirely.
	Asterisks      bool   `yaml:"asterisks"`
	AsterisksChars string `yaml:"asterisks_char"`

	// PowerShutdown and PowerReboot override the power commands;
	// PowerNoSetsid disables the setsid prefix on them.
	PowerShutdown string `yaml:"power_shutdown"`
	PowerReboot   string `yaml:"power_reboot"`
	PowerNoSetsid bool   `yaml:"power_no_setsid"`

	// Width is the inner width of the dialog box; the paddings tweak
	// vertical spacing inside it. GreetAlign positions the greeting
	// banner: left, center or right.
	Width            int    `yaml:"width"`
	ContainerPadding int    `yaml:"container_padding"`
	PromptPadding    int    `yaml:"prompt_padding"`
	GreetAlign       string `yaml:"greet_align"`

	// Theme picks the palette: auto, dark or light.
	Theme string `yaml:"theme"`

	// CacheDir is where remembered choices are stored.
	CacheDir string `yaml:"cache_dir"`

	// LogFile receives JSON log records; empty disables logging, since
	// stderr belongs to the terminal the greeter draws on.
	LogFile string `yaml:"log_file"`
}

// Default returns the built-in configuration, matching a bare
// invocation with no flags and no file.
func Default() *Config {
	return &Config{
		SessionDirs:      "/usr/share/wayland-sessions",
		XSessionDirs:     "/usr/share/xsessions",
		XSessionWrapper:  session.DefaultX11Wrapper,
		TimeFormat:       "%b %d %H:%M",
		MinUID:           0,
		MaxUID:           0,
		AsterisksChars:   "*",
		Width:            80,
		ContainerPadding: 1,
		PromptPadding:    1,
		GreetAlign:       "center",
		Theme:            ThemeAuto,
		CacheDir:         info.DefaultCacheDir,
	}
}

// newFlagSet binds every flag into the given config, so a parse
// overwrites exactly the fields the command line names.
func newFlagSet(cfg *Config) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("tuigreet", pflag.ContinueOnError)

	flagSet.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "load options from a YAML file (flags take precedence)")

	flagSet.StringVarP(&cfg.Command, "cmd", "c", cfg.Command, "default session command")
	flagSet.StringArrayVar(&cfg.Env, "env", cfg.Env, "environment variable for the session (KEY=VALUE, repeatable)")
	flagSet.StringVarP(&cfg.SessionDirs, "sessions", "s", cfg.SessionDirs, "colon-separated wayland session directories")
	flagSet.StringVarP(&cfg.XSessionDirs, "xsessions", "x", cfg.XSessionDirs, "colon-separated X11 session directories")
	flagSet.StringVar(&cfg.SessionWrapper, "session-wrapper", cfg.SessionWrapper, "wrapper command prefixed to every session")
	flagSet.StringVar(&cfg.XSessionWrapper, "xsession-wrapper", cfg.XSessionWrapper, "wrapper command prefixed to X11 sessions")

	flagSet.BoolVarP(&cfg.Issue, "issue", "i", cfg.Issue, "show the expanded /etc/issue as the greeting")
	flagSet.StringVarP(&cfg.Greeting, "greeting", "g", cfg.Greeting, "custom greeting banner")
	flagSet.BoolVarP(&cfg.Time, "time", "t", cfg.Time, "show the clock line")
	flagSet.StringVar(&cfg.TimeFormat, "time-format", cfg.TimeFormat, "strftime pattern for the clock line")

	flagSet.BoolVarP(&cfg.Remember, "remember", "r", cfg.Remember, "remember the last accepted username")
	flagSet.BoolVar(&cfg.RememberSession, "remember-session", cfg.RememberSession, "remember the last selected session")
	flagSet.BoolVar(&cfg.RememberUserSession, "remember-user-session", cfg.RememberUserSession, "remember the last session per username (requires --remember)")

	flagSet.BoolVar(&cfg.UserMenu, "user-menu", cfg.UserMenu, "allow selecting the user from a menu")
	flagSet.IntVar(&cfg.MinUID, "user-menu-min-uid", cfg.MinUID, "lowest UID listed in the user menu (0 uses login.defs)")
	flagSet.IntVar(&cfg.MaxUID, "user-menu-max-uid", cfg.MaxUID, "highest UID listed in the user menu (0 uses login.defs)")

	flagSet.BoolVar(&cfg.Asterisks, "asterisks", cfg.Asterisks, "echo secret answers as redaction characters")
	flagSet.StringVar(&cfg.AsterisksChars, "asterisks-char", cfg.AsterisksChars, "characters cycled through for redacted echo")

	flagSet.StringVar(&cfg.PowerShutdown, "power-shutdown", cfg.PowerShutdown, "command run to shut down the machine")
	flagSet.StringVar(&cfg.PowerReboot, "power-reboot", cfg.PowerReboot, "command run to reboot the machine")
	flagSet.BoolVar(&cfg.PowerNoSetsid, "power-no-setsid", cfg.PowerNoSetsid, "run power commands without setsid")

	flagSet.IntVar(&cfg.Width, "width", cfg.Width, "width of the dialog box")
	flagSet.IntVar(&cfg.ContainerPadding, "container-padding", cfg.ContainerPadding, "padding inside the dialog box")
	flagSet.IntVar(&cfg.PromptPadding, "prompt-padding", cfg.PromptPadding, "blank lines around the prompt")
	flagSet.StringVar(&cfg.GreetAlign, "greet-align", cfg.GreetAlign, "greeting alignment: left, center or right")

	flagSet.StringVar(&cfg.Theme, "theme", cfg.Theme, "color palette: auto, dark or light")
	flagSet.StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "directory for remembered choices")
	flagSet.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write JSON log records to this file")

	flagSet.BoolP("help", "h", false, "show help")
	flagSet.Bool("version", false, "show version")

	return flagSet
}

// Load builds the configuration from the given command-line arguments.
// When --config names a file, the file is loaded first and the flags
// are re-applied on top of it. The returned flag set serves help
// output.
func Load(arguments []string) (*Config, *pflag.FlagSet, error) {
	cfg := Default()
	flagSet := newFlagSet(cfg)
	if err := flagSet.Parse(arguments); err != nil {
		return nil, flagSet, err
	}

	if cfg.ConfigFile != "" {
		fromFile := Default()
		if err := fromFile.loadFile(cfg.ConfigFile); err != nil {
			return nil, flagSet, fmt.Errorf("config file %s: %w", cfg.ConfigFile, err)
		}

		// Second parse: the flags named on the command line overwrite
		// the file's values.
		cfg = fromFile
		flagSet = newFlagSet(cfg)
		if err := flagSet.Parse(arguments); err != nil {
			return nil, flagSet, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, flagSet, err
	}
	return cfg, flagSet, nil
}

func (cfg *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration for contradictions.
func (cfg *Config) Validate() error {
	var errs []error

	if cfg.Issue && cfg.Greeting != "" {
		errs = append(errs, fmt.Errorf("--issue and --greeting are mutually exclusive"))
	}
	if cfg.RememberSession && cfg.RememberUserSession {
		errs = append(errs, fmt.Errorf("--remember-session and --remember-user-session are mutually exclusive"))
	}
	if cfg.RememberUserSession && !cfg.Remember {
		errs = append(errs, fmt.Errorf("--remember-user-session requires --remember"))
	}
	if cfg.AsterisksChars == "" || !utf8.ValidString(cfg.AsterisksChars) {
		errs = append(errs, fmt.Errorf("--asterisks-char must be one or more valid characters"))
	}
	if cfg.MinUID != 0 && cfg.MaxUID != 0 && cfg.MinUID >= cfg.MaxUID {
		errs = append(errs, fmt.Errorf("--user-menu-min-uid must be lower than --user-menu-max-uid"))
	}
	if cfg.Width <= 0 {
		errs = append(errs, fmt.Errorf("--width must be positive"))
	}
	if cfg.ContainerPadding < 0 || cfg.PromptPadding < 0 {
		errs = append(errs, fmt.Errorf("paddings must not be negative"))
	}
	switch cfg.GreetAlign {
	case "left", "center", "right":
	default:
		errs = append(errs, fmt.Errorf("invalid greet-align %q: must be left, center or right", cfg.GreetAlign))
	}
	switch cfg.Theme {
	case ThemeAuto, ThemeDark, ThemeLight:
	default:
		errs = append(errs, fmt.Errorf("invalid theme %q: must be auto, dark or light", cfg.Theme))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SessionDirList combines the wayland and X11 directory lists into the
// discovery input, wayland directories first so they sort ahead in the
// session menu.
func (cfg *Config) SessionDirList() []info.SessionDir {
	dirs := info.ParseSessionDirs(cfg.SessionDirs)
	return append(dirs, info.ParseSessionDirs(cfg.XSessionDirs)...)
}

// Wrappers returns the command wrapping configuration.
func (cfg *Config) Wrappers() session.Wrappers {
	return session.Wrappers{
		General: cfg.SessionWrapper,
		X11:     cfg.XSessionWrapper,
	}
}
