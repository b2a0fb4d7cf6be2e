package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "sweep", "migrate"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("missing %s command: %v", name, err)
		}
	}
}

func TestSweepCommand(t *testing.T) {
	path := writeConfig(t, `name: shoplist
environment: test
logging:
  level: error
database:
  enabled: true
  driver: sqlite
  dsn: ":memory:"
  auto_migrate: true
  log_level: silent
`)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"sweep", "--config", path})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	for _, want := range []string{"access_token\t0", "authorization_code\t0"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q lacks %q", got, want)
		}
	}
}

func TestSweepRejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, `name: shoplist
environment: test
token_store: redis
`)
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"sweep", "--config", path})
	if err := root.Execute(); err == nil {
		t.Error("expected a redis token store without redis to fail")
	}
}

func TestMigrateUp(t *testing.T) {
	path := writeConfig(t, `name: shoplist
environment: test
logging:
  level: error
database:
  enabled: true
  driver: sqlite
  dsn: ":memory:"
  log_level: silent
`)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"migrate", "up", "--config", path})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); !strings.Contains(got, "version 1 dirty=false") {
		t.Errorf("output = %q", got)
	}
}

func TestMigrateRequiresDatabase(t *testing.T) {
	path := writeConfig(t, "name: shoplist\nenvironment: test\n")
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"migrate", "version", "--config", path})
	if err := root.Execute(); err == nil {
		t.Error("expected migrate without a database to fail")
	}
}
