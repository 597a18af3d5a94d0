package db

import "testing"

func TestMigrateIdempotent(t *testing.T) {
	database := NewTestDB(t)

	// NewTestDB applies the schema; Migrate must be safe to run on top of
	// it, and safe to run twice.
	if err := Migrate(database); err != nil {
		t.Fatalf("first Migrate: %v", err)
	}
	if err := Migrate(database); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestSchemaTables(t *testing.T) {
	database := NewTestDB(t)

	tables := []string{
		"users", "keys", "key_holders", "key_logs",
		"radios", "radio_assignments", "replacement_parts",
		"assets", "components", "inspections",
		"settings", "revoked_tokens",
	}
	for _, table := range tables {
		var name string
		err := database.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		if err != nil {
			t.Errorf("expected table %q to exist: %v", table, err)
		}
	}
}
