package jobstore_test

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func reopenRaw(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	return db
}
