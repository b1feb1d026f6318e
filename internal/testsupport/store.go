package testsupport

import (
	"testing"

	"cuecast/internal/config"
	"cuecast/internal/jobstore"
)

// MustOpenStore opens the job history for cfg and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobstore.Store {
	t.Helper()

	store, err := jobstore.Open(cfg.HistoryPath())
	if err != nil {
		t.Fatalf("jobstore.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
