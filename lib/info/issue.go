// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package info

import (
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

const issuePath = "/etc/issue"

// Hostname returns the node name from uname(2), the same value
// agetty prints in its banner.
func Hostname() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return ""
	}
	return unix.ByteSliceToString(uts.Nodename[:])
}

// Issue reads /etc/issue and expands the agetty escape sequences the
// greeter can honor. Returns the empty string when the file is absent.
func Issue() string {
	data, err := os.ReadFile(issuePath)
	if err != nil {
		return ""
	}
	return expandIssue(string(data))
}

// expandIssue substitutes the getty(8) backslash escapes. The terminal
// line escape (\l) uses XDG_VTNR, which greetd exports to the greeter.
func expandIssue(issue string) string {
	var uts unix.Utsname
	_ = unix.Uname(&uts)

	vtnr := os.Getenv("XDG_VTNR")
	if vtnr == "" {
		vtnr = "0"
	}

	var out strings.Builder
	runes := []rune(issue)
	for index := 0; index < len(runes); index++ {
		if runes[index] != '\\' {
			out.WriteRune(runes[index])
			continue
		}

		index++
		if index >= len(runes) {
			out.WriteRune('\\')
			break
		}

		switch runes[index] {
		case 'S':
			out.WriteString("Linux")
		case 'l':
			out.WriteString("tty" + vtnr)
		case 's':
			out.WriteString(unix.ByteSliceToString(uts.Sysname[:]))
		case 'r':
			out.WriteString(unix.ByteSliceToString(uts.Release[:]))
		case 'v':
			out.WriteString(unix.ByteSliceToString(uts.Version[:]))
		case 'n':
			out.WriteString(unix.ByteSliceToString(uts.Nodename[:]))
		case 'm':
			out.WriteString(unix.ByteSliceToString(uts.Machine[:]))
		case '\\':
			out.WriteRune('\\')
		default:
			out.WriteRune(runes[index])
		}
	}
	return out.String()
}
