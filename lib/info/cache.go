// Copyright 2026 The Tuigreet Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package info

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultCacheDir is where the remembered username and session choices
// live. The directory is expected to exist and be writable by the
// greeter user; distribution packages create it.
const DefaultCacheDir = "/var/cache/tuigreet"

// Cache file names. Per-user variants append "-<username>".
const (
	lastUserFile        = "lastuser"
	lastUserNameFile    = "lastuser-name"
	lastSessionFile     = "lastsession"
	lastSessionPathFile = "lastsession-path"
)

// Cache reads and writes the remembered-state files. The zero value is
// not usable; use NewCache.
type Cache struct {
	dir string
}

// NewCache returns a cache rooted at dir, or at DefaultCacheDir when
// dir is empty.
func NewCache(dir string) *Cache {
	if dir == "" {
		dir = DefaultCacheDir
	}
	return &Cache{dir: dir}
}

func (cache *Cache) read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(cache.dir, name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (cache *Cache) write(name, value string) error {
	if err := os.WriteFile(filepath.Join(cache.dir, name), []byte(value), 0o644); err != nil {
		return fmt.Errorf("write cache file %s: %w", name, err)
	}
	return nil
}

// perUser derives the per-user variant of a cache file name. The
// username is path-sanitized: it came over IPC input and must not
// escape the cache directory.
func perUser(name, username string) string {
	sanitized := strings.Map(func(r rune) rune {
		if r == '/' || r == 0 {
			return '_'
		}
		return r
	}, username)
	return name + "-" + sanitized
}

// LastUser returns the remembered username and display name.
func (cache *Cache) LastUser() (username, name string, err error) {
	username, err = cache.read(lastUserFile)
	if err != nil {
		return "", "", err
	}
	// The display name is optional; a missing file is not an error.
	name, _ = cache.read(lastUserNameFile)
	return username, name, nil
}

// WriteUser remembers the username and display name.
func (cache *Cache) WriteUser(username, name string) error {
	if err := cache.write(lastUserFile, username); err != nil {
		return err
	}
	if name == "" {
		os.Remove(filepath.Join(cache.dir, lastUserNameFile))
		return nil
	}
	return cache.write(lastUserNameFile, name)
}

// DeleteUser forgets the remembered username.
func (cache *Cache) DeleteUser() {
	os.Remove(filepath.Join(cache.dir, lastUserFile))
	os.Remove(filepath.Join(cache.dir, lastUserNameFile))
}

// LastSessionCommand returns the remembered free-form session command.
func (cache *Cache) LastSessionCommand() (string, error) {
	return cache.read(lastSessionFile)
}

// WriteSessionCommand remembers a free-form session command.
func (cache *Cache) WriteSessionCommand(command string) error {
	return cache.write(lastSessionFile, command)
}

// LastSessionPath returns the remembered session descriptor path.
func (cache *Cache) LastSessionPath() (string, error) {
	return cache.read(lastSessionPathFile)
}

// WriteSessionPath remembers a session descriptor path.
func (cache *Cache) WriteSessionPath(path string) error {
	return cache.write(lastSessionPathFile, path)
}

// LastUserSessionCommand returns the remembered free-form command for
// one user.
func (cache *Cache) LastUserSessionCommand(username string) (string, error) {
	return cache.read(perUser(lastSessionFile, username))
}

// WriteUserSessionCommand remembers a free-form command for one user.
func (cache *Cache) WriteUserSessionCommand(username, command string) error {
	return cache.write(perUser(lastSessionFile, username), command)
}

// LastUserSessionPath returns the remembered descriptor path for one
// user.
func (cache *Cache) LastUserSessionPath(username string) (string, error) {
	return cache.read(perUser(lastSessionPathFile, username))
}

// WriteUserSessionPath remembers a descriptor path for one user.
func (cache *Cache) WriteUserSessionPath(username, path string) error {
	return cache.write(perUser(lastSessionPathFile, username), path)
}
