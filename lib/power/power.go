// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package power builds and executes shutdown and reboot commands.
//
// The keyboard path only builds the command; the orchestrator runs it
// in a one-shot background task and feeds the result back into the
// event stream, so a slow or hung power command never blocks input
// handling.
package power

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Option selects a power action.
type Option int

const (
	// Shutdown powers the machine off.
	Shutdown Option = iota
	// Reboot restarts the machine.
	Reboot
)

// String returns the option name for display and logging.
func (option Option) String() string {
	switch option {
	case Shutdown:
		return "shutdown"
	case Reboot:
		return "reboot"
	}
	return fmt.Sprintf("power(%d)", int(option))
}

// Command is a fully-built power command ready to execute.
type Command struct {
	// Option is the action this command performs.
	Option Option

	// Program and Args form the command line.
	Program string
	Args    []string
}

// Config holds the configured power command overrides.
type Config struct {
	// Commands maps an option to its configured command line. When an
	// option has no entry, the platform shutdown command is used.
	Commands map[Option]string

	// UseSetsid prefixes configured commands with setsid so they
	// survive the greeter's terminal going away. Has no effect on the
	// platform fallback.
	UseSetsid bool
}

// Build resolves the command to run for an option. Configured commands
// are word-split on spaces (no shell quoting, same contract as session
// command wrapping); without a configured command the platform
// `shutdown` is invoked with -h or -r and "now".
func (config Config) Build(option Option) Command {
	configured, ok := config.Commands[option]
	if !ok || strings.TrimSpace(configured) == "" {
		flag := "-h"
		if option == Reboot {
			flag = "-r"
		}
		return Command{Option: option, Program: "shutdown", Args: []string{flag, "now"}}
	}

	words := strings.Split(configured, " ")
	if config.UseSetsid {
		return Command{Option: option, Program: "setsid", Args: words}
	}
	return Command{Option: option, Program: words[0], Args: words[1:]}
}

// Result reports the completion of a power command back to the
// orchestrator.
type Result struct {
	Option Option

	// Err is non-nil when the command could not run or exited
	// non-zero.
	Err error

	// Stderr is the captured standard error output, populated on
	// failure to give the user something actionable.
	Stderr string
}

// Run executes the command and captures stderr. It blocks until the
// command exits; callers run it in a background task.
func (command Command) Run(ctx context.Context) Result {
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, command.Program, command.Args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{Option: command.Option}
	if err != nil {
		result.Err = fmt.Errorf("%s: %w", command.Program, err)
		result.Stderr = strings.TrimSpace(stderr.String())
	}
	return result
}
