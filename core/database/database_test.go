package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigURLEscapesCredentials(t *testing.T) {
	cfg := Config{User: "bot", Password: "p@ss/word", Host: "db", Port: "5432", Name: "weather"}
	got := cfg.URL()
	want := "postgres://bot:p%40ss%2Fword@db:5432/weather?sslmode=disable"
	if got != want {
		t.Fatalf("URL() = %q, want %q", got, want)
	}
}

func TestConfigDSNQuotesSpaces(t *testing.T) {
	cfg := Config{User: "bot", Password: "two words", Host: "db", Port: "5432", Name: "weather", SSLMode: "require"}
	got := cfg.DSN()
	if !strings.Contains(got, `password='two words'`) || !strings.HasSuffix(got, "sslmode=require") {
		t.Fatalf("DSN() = %q", got)
	}
}

func TestAppliedBetween(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000001_users.up.sql", "000001_users.down.sql", "000002_index.up.sql", "000003_more.up.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	files := listMigrationFiles(dir)
	if len(files) != 3 {
		t.Fatalf("files = %v", files)
	}
	got := appliedBetween(files, 1, 3)
	if strings.Join(got, ",") != "000002_index.up.sql,000003_more.up.sql" {
		t.Fatalf("applied = %v", got)
	}
	if len(appliedBetween(files, 3, 3)) != 0 {
		t.Fatal("no change must apply nothing")
	}
}

func TestResolveMigrationsDir(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "m")
	if got, _ := resolveMigrationsDir(abs); got != abs {
		t.Fatalf("absolute path changed: %q", got)
	}
	got, err := resolveMigrationsDir("")
	if err != nil || filepath.Base(got) != "migrations" || !filepath.IsAbs(got) {
		t.Fatalf("default dir = %q, %v", got, err)
	}
}
