// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package info

import (
	"bufio"
	"os"
	"sort"
	"strconv"
	"strings"
)

// User is one selectable account for the user menu.
type User struct {
	// Username is the login identifier.
	Username string

	// Name is the human-readable name from the GECOS field, empty
	// when the account has none.
	Name string
}

// Default UID bounds for the user menu, used when /etc/login.defs
// provides none. These are the conventional bounds for regular
// accounts on Linux.
const (
	DefaultMinUID = 1000
	DefaultMaxUID = 60000
)

const (
	passwdPath    = "/etc/passwd"
	loginDefsPath = "/etc/login.defs"
)

// MinMaxUIDs resolves the UID bounds for the user menu. Explicit
// values (from flags) win; otherwise UID_MIN and UID_MAX from
// /etc/login.defs; otherwise the conventional defaults.
func MinMaxUIDs(minFlag, maxFlag *int) (int, int) {
	return minMaxUIDs(loginDefsPath, minFlag, maxFlag)
}

func minMaxUIDs(defsPath string, minFlag, maxFlag *int) (int, int) {
	minUID, maxUID := DefaultMinUID, DefaultMaxUID

	if file, err := os.Open(defsPath); err == nil {
		defer file.Close()

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			fields := strings.Fields(scanner.Text())
			if len(fields) != 2 {
				continue
			}
			value, err := strconv.Atoi(fields[1])
			if err != nil {
				continue
			}
			switch fields[0] {
			case "UID_MIN":
				minUID = value
			case "UID_MAX":
				maxUID = value
			}
		}
	}

	if minFlag != nil {
		minUID = *minFlag
	}
	if maxFlag != nil {
		maxUID = *maxFlag
	}
	return minUID, maxUID
}

// Users lists the accounts within the UID bounds, sorted by username.
func Users(minUID, maxUID int) []User {
	return users(passwdPath, minUID, maxUID)
}

func users(path string, minUID, maxUID int) []User {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var found []User
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		// username:password:uid:gid:gecos:home:shell
		fields := strings.Split(scanner.Text(), ":")
		if len(fields) < 5 {
			continue
		}

		uid, err := strconv.Atoi(fields[2])
		if err != nil || uid < minUID || uid > maxUID {
			continue
		}

		// The GECOS field is comma-separated; the full name comes
		// first.
		name, _, _ := strings.Cut(fields[4], ",")

		found = append(found, User{Username: fields[0], Name: name})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Username < found[j].Username })
	return found
}
