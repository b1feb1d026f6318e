package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"cuecast/internal/fileutil"
)

func TestExportCopiesIntoNewDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "out.mp4")
	dst := filepath.Join(dir, "exports", "nested", "episode.mp4")
	content := []byte("not really a video")
	if err := os.WriteFile(src, content, 0o600); err != nil {
		t.Fatal(err)
	}

	n, err := fileutil.Export(src, dst)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != int64(len(content)) {
		t.Fatalf("expected %d bytes, got %d", len(content), n)
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != string(content) {
		t.Fatalf("content mismatch: %q (%v)", got, err)
	}
	entries, err := os.ReadDir(filepath.Dir(dst))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected no leftover temp files, found %d entries", len(entries))
	}
}

func TestExportOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("old contents"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := fileutil.Export(src, dst); err != nil {
		t.Fatalf("export: %v", err)
	}
	if got, _ := os.ReadFile(dst); string(got) != "new" {
		t.Fatalf("expected overwrite, got %q", got)
	}
}

func TestExportRejectsBadSources(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"missing":   filepath.Join(dir, "missing.mp4"),
		"directory": dir,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := fileutil.Export(src, filepath.Join(dir, "dst-"+name)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
