package store

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

const migrationsDir = "../../db/migrations"

func migrationFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var names []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names
}

func TestMigrationFilesAreOrderedAndNonEmpty(t *testing.T) {
	names := migrationFiles(t)
	if len(names) == 0 {
		t.Fatal("no migration files found")
	}
	for i, name := range names {
		prefix := strings.SplitN(name, "_", 2)[0]
		if len(prefix) != 4 {
			t.Fatalf("migration %q lacks a 4-digit prefix", name)
		}
		if i > 0 && names[i-1] >= name {
			t.Fatalf("migrations out of order: %q before %q", names[i-1], name)
		}
		content, err := os.ReadFile(filepath.Join(migrationsDir, name))
		if err != nil {
			t.Fatalf("read %q: %v", name, err)
		}
		if len(strings.TrimSpace(string(content))) == 0 {
			t.Fatalf("migration %q is empty", name)
		}
	}
}

func TestMigrationsCreateCoreTables(t *testing.T) {
	var all strings.Builder
	for _, name := range migrationFiles(t) {
		content, err := os.ReadFile(filepath.Join(migrationsDir, name))
		if err != nil {
			t.Fatalf("read %q: %v", name, err)
		}
		all.Write(content)
	}
	sql := all.String()

	for _, table := range []string{
		"users", "restaurants", "locations",
		"websites", "pages", "sections", "subsections", "elements",
		"navbars", "navbar_items",
	} {
		if !strings.Contains(sql, "CREATE TABLE "+table) {
			t.Fatalf("no CREATE TABLE for %q", table)
		}
	}
}
