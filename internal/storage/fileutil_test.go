package storage

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestRemoveDirContents(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a"), []byte("a"), 0644)
	os.MkdirAll(filepath.Join(dir, "sub", "deep"), 0755)

	removed, err := RemoveDirContents(dir)
	if err != nil {
		t.Fatalf("RemoveDirContents: %v", err)
	}
	if len(removed) != 2 {
		t.Errorf("removed %d entries, want 2", len(removed))
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("dir has %d entries after removal, want 0", len(entries))
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("dir itself should remain: %v", err)
	}
}

func TestRemoveDirContents_NotExists(t *testing.T) {
	removed, err := RemoveDirContents(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != nil {
		t.Errorf("removed = %v, want nil", removed)
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "b.yaml"), nil, 0644)
	os.WriteFile(filepath.Join(dir, "a.yaml"), nil, 0644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644)
	os.MkdirAll(filepath.Join(dir, "dir.yaml"), 0755)

	files, err := ListFiles(dir, ".yaml")
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(files)
	if len(files) != 2 || files[0] != "a.yaml" || files[1] != "b.yaml" {
		t.Errorf("files = %v, want [a.yaml b.yaml]", files)
	}

	all, err := ListFiles(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("all files = %v, want 3 entries", all)
	}
}

func TestListFiles_NotExists(t *testing.T) {
	files, err := ListFiles(filepath.Join(t.TempDir(), "nope"), ".yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if files != nil {
		t.Errorf("files = %v, want nil", files)
	}
}
