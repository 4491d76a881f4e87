// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package info

import "os/exec"

// CapsLock reports whether caps lock is engaged on the console
// keyboard, by way of kbdinfo(1). Any failure, including the tool not
// being installed, reads as off: the login screen must keep working
// without it.
func CapsLock() bool {
	return capsLock("kbdinfo")
}

func capsLock(tool string) bool {
	return exec.Command(tool, "gkbled", "capslock").Run() == nil
}
