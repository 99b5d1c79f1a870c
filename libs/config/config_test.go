package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPort(t *testing.T) {
	t.Setenv("TEST_PORT", "8080")
	got, err := Port("TEST_PORT", "1")
	if err != nil || got != "8080" {
		t.Fatalf("Port = %q, %v", got, err)
	}

	t.Setenv("TEST_PORT", "70000")
	if _, err := Port("TEST_PORT", "1"); err == nil {
		t.Fatal("expected error for out of range port")
	}
}

func TestRequiredString(t *testing.T) {
	t.Setenv("TEST_REQUIRED", "  ")
	if _, err := RequiredString("TEST_REQUIRED"); err == nil {
		t.Fatal("expected error for blank value")
	}
	t.Setenv("TEST_REQUIRED", "x")
	if v, err := RequiredString("TEST_REQUIRED"); err != nil || v != "x" {
		t.Fatalf("RequiredString = %q, %v", v, err)
	}
}

func TestTypedHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BOOL", "false")
	t.Setenv("TEST_DUR", "90s")
	t.Setenv("TEST_LIST", " a, ,b ,")

	if n, err := Int("TEST_INT", 1); err != nil || n != 42 {
		t.Fatalf("Int = %d, %v", n, err)
	}
	if Bool("TEST_BOOL", true) {
		t.Fatal("expected false")
	}
	if !Bool("TEST_BOOL_MISSING", true) {
		t.Fatal("expected fallback")
	}
	if d, err := Duration("TEST_DUR", time.Second); err != nil || d != 90*time.Second {
		t.Fatalf("Duration = %s, %v", d, err)
	}
	list := List("TEST_LIST", nil)
	if len(list) != 2 || list[0] != "a" || list[1] != "b" {
		t.Fatalf("List = %v", list)
	}

	t.Setenv("TEST_INT", "nope")
	if _, err := Int("TEST_INT", 1); err == nil {
		t.Fatal("expected error for non-integer")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("TURNOS_DOTENV_A=from-file\nTURNOS_DOTENV_B=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("TURNOS_DOTENV_B", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("TURNOS_DOTENV_A") })

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("TURNOS_DOTENV_A"); got != "from-file" {
		t.Fatalf("A = %q", got)
	}
	if got := os.Getenv("TURNOS_DOTENV_B"); got != "from-env" {
		t.Fatalf("B = %q, existing env must win", got)
	}
}
