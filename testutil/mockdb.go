package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// CreateInMemoryDB creates an in-memory SQLite database for testing
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS vortexKV (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		t.Fatalf("Failed to create vortexKV table: %v", err)
	}

	return db
}

// InsertKV inserts a raw key/value pair into the vortexKV table
func InsertKV(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO vortexKV (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		t.Fatalf("Failed to insert key %s: %v", key, err)
	}
}

// CountKeys returns the number of rows in the vortexKV table
func CountKeys(t *testing.T, db *sql.DB) int {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM vortexKV").Scan(&count); err != nil {
		t.Fatalf("Failed to count keys: %v", err)
	}
	return count
}
