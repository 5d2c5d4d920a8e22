//go:build darwin

package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const defaultsDomain = "com.emotrack.app"

func defaultDataDir() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, "Library", "Application Support", "emotrack")
	}
	return "emotrack-data"
}

// defaultsBackend stores config in UserDefaults through the defaults(1) tool.
type defaultsBackend struct {
	domain string
	// run executes defaults with args and returns its trimmed combined output.
	run func(args ...string) (string, error)
}

func newPlatformBackend() ConfigBackend {
	return &defaultsBackend{domain: defaultsDomain, run: runDefaults}
}

func runDefaults(args ...string) (string, error) {
	out, err := exec.Command("defaults", args...).CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// errMissing is how defaults reports an absent key or domain.
func errMissing(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == 1
}

func (b *defaultsBackend) GetString(key string) (string, bool, error) {
	out, err := b.run("read", b.domain, key)
	if err != nil {
		if errMissing(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading default %q: %w, output: %s", key, err, out)
	}
	return out, true, nil
}

func (b *defaultsBackend) GetInt(key string) (int, bool, error) {
	s, ok, err := b.GetString(key)
	if !ok || err != nil {
		return 0, ok, err
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, true, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return i, true, nil
}

func (b *defaultsBackend) write(key, kind, val string) error {
	if out, err := b.run("write", b.domain, key, kind, val); err != nil {
		return fmt.Errorf("writing default %q: %w, output: %s", key, err, out)
	}
	return nil
}

func (b *defaultsBackend) SetString(key, val string) error {
	return b.write(key, "-string", val)
}

func (b *defaultsBackend) SetInt(key string, val int) error {
	return b.write(key, "-int", strconv.Itoa(val))
}

func (b *defaultsBackend) Delete(key string) error {
	out, err := b.run("delete", b.domain, key)
	if err != nil && !errMissing(err) {
		return fmt.Errorf("deleting default %q: %w, output: %s", key, err, out)
	}
	return nil
}
