//go:build !darwin

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileBackend_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emotrack", "config.json")

	b, err := openFileBackend(path)
	if err != nil {
		t.Fatalf("openFileBackend on a missing file: %v", err)
	}
	if err := b.SetInt("server.port", 4200); err != nil {
		t.Fatalf("SetInt: %v", err)
	}
	if err := b.SetString("calendar.time_zone", "Europe/Madrid"); err != nil {
		t.Fatalf("SetString: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	reopened, err := openFileBackend(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if port, ok, err := reopened.GetInt("server.port"); err != nil || !ok || port != 4200 {
		t.Errorf("GetInt = %d, %v, %v; want 4200", port, ok, err)
	}
	if tz, ok, _ := reopened.GetString("calendar.time_zone"); !ok || tz != "Europe/Madrid" {
		t.Errorf("GetString = %q, %v", tz, ok)
	}
	if _, ok, _ := reopened.GetString("log.level"); ok {
		t.Error("unset key reported as present")
	}

	if err := reopened.Delete("server.port"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "server.port") {
		t.Errorf("deleted key still in file: %s", data)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only config.json in the dir, found %d entries", len(entries))
	}
}

func TestFileBackend_HandEditedValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"server.port": "4300", "log.level": 7, "reminder.poll_interval": 1.5}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	b, err := openFileBackend(path)
	if err != nil {
		t.Fatalf("openFileBackend: %v", err)
	}
	if port, _, err := b.GetInt("server.port"); err != nil || port != 4300 {
		t.Errorf("string port = %d, %v; want 4300", port, err)
	}
	if lvl, _, _ := b.GetString("log.level"); lvl != "7" {
		t.Errorf("numeric string = %q, want 7", lvl)
	}
	if _, _, err := b.GetInt("reminder.poll_interval"); err == nil {
		t.Error("expected error for fractional integer")
	}
}

func TestFileBackend_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	b, err := openFileBackend(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if b == nil {
		t.Fatal("backend should still be usable")
	}
	if err := b.SetInt("server.port", 4500); err != nil {
		t.Fatalf("SetInt after corrupt read: %v", err)
	}
}
