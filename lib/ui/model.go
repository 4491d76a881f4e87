// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ncruces/go-strftime"

	"github.com/apognu/tuigreet/lib/greeter"
	"github.com/apognu/tuigreet/lib/info"
	"github.com/apognu/tuigreet/lib/power"
)

// WakeMsg asks the program to re-render after a background task
// mutated the shared state, and to quit when that mutation was
// terminal.
type WakeMsg struct{}

// clockTickMsg drives the clock line; a new tick is scheduled after
// each one while the clock is enabled.
type clockTickMsg struct{}

// capsTickMsg re-reads the caps lock LED. A terminal never sees the
// modifier key itself, so the state is polled.
type capsTickMsg struct{}

// powerResultMsg delivers the outcome of a power command run
// out-of-band.
type powerResultMsg struct {
	result power.Result
}

// Model is the top-level bubbletea model. The greeter state itself is
// shared with the background tasks; the model only owns presentation
// concerns.
type Model struct {
	greeter *greeter.Greeter
	theme   Theme
	keys    greeter.KeyMap
	spin    spinner.Model

	// Terminal dimensions (set by WindowSizeMsg).
	width  int
	height int
	ready  bool

	// Dialog layout. boxWidth is the inner width of the dialog box,
	// kept fixed so the box does not jitter as prompts and answers
	// change length.
	boxWidth         int
	containerPadding int
	promptPadding    int
	greetAlign       lipgloss.Position

	// Clock line. timeFormat is a strftime pattern; empty disables the
	// clock.
	timeFormat string
	clock      string

	capsLock bool
}

// NewModel creates the model around the shared greeter state.
func NewModel(g *greeter.Greeter) Model {
	model := Model{
		greeter:          g,
		theme:            DetectTheme(),
		keys:             greeter.DefaultKeyMap,
		spin:             spinner.New(spinner.WithSpinner(spinner.Dot)),
		boxWidth:         80,
		containerPadding: 1,
		promptPadding:    1,
		greetAlign:       lipgloss.Center,
	}
	model.spin.Style = lipgloss.NewStyle().Foreground(model.theme.TitleText)
	return model
}

// SetTheme overrides the detected palette.
func (model *Model) SetTheme(theme Theme) {
	model.theme = theme
	model.spin.Style = lipgloss.NewStyle().Foreground(theme.TitleText)
}

// SetLayout adjusts the dialog dimensions. align is one of left,
// center or right and positions the greeting banner.
func (model *Model) SetLayout(width, containerPadding, promptPadding int, align string) {
	model.boxWidth = width
	model.containerPadding = containerPadding
	model.promptPadding = promptPadding

	switch align {
	case "left":
		model.greetAlign = lipgloss.Left
	case "right":
		model.greetAlign = lipgloss.Right
	default:
		model.greetAlign = lipgloss.Center
	}
}

// SetTimeFormat enables the clock line with a strftime pattern.
func (model *Model) SetTimeFormat(format string) {
	model.timeFormat = format
	model.clock = strftime.Format(format, time.Now())
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	commands := []tea.Cmd{model.spin.Tick, scheduleCapsTick()}
	if model.timeFormat != "" {
		commands = append(commands, scheduleClockTick())
	}
	return tea.Batch(commands...)
}

func scheduleClockTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return clockTickMsg{}
	})
}

func scheduleCapsTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return capsTickMsg{}
	})
}

// runPower executes a power command off the UI loop and reports the
// outcome back through the message stream.
func runPower(command power.Command) tea.Cmd {
	return func() tea.Msg {
		return powerResultMsg{result: command.Run(context.Background())}
	}
}

// Update implements tea.Model. Keyboard events are applied to the
// shared state under the write lock; everything else is presentation
// bookkeeping.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true

	case tea.KeyMsg:
		model.greeter.Lock()
		command := greeter.HandleKey(model.greeter, model.keys, message)
		exited := model.greeter.ExitStatus() != nil
		model.greeter.Unlock()

		if exited {
			return model, tea.Quit
		}
		if command != nil {
			return model, runPower(*command)
		}

	case powerResultMsg:
		greeter.PowerDone(model.greeter, message.result)

	case WakeMsg:
		model.greeter.RLock()
		exited := model.greeter.ExitStatus() != nil
		model.greeter.RUnlock()

		if exited {
			return model, tea.Quit
		}

	case clockTickMsg:
		model.clock = strftime.Format(model.timeFormat, time.Now())
		return model, scheduleClockTick()

	case capsTickMsg:
		model.capsLock = info.CapsLock()
		return model, scheduleCapsTick()

	case spinner.TickMsg:
		var command tea.Cmd
		model.spin, command = model.spin.Update(message)
		return model, command
	}

	return model, nil
}
