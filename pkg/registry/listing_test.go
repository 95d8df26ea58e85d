package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/plugindex/plugindex/pkg/errors"
)

func writeListing(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listing.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadListing(t *testing.T) {
	path := writeListing(t, `[
		{"name": "Vector35/example", "tag": "v1.0"},
		{"name": "someone/tool", "auto_update": true, "subdir": "plugin"},
		{"name": "viewer/only", "view_only": true},
		{"name": "old/thing", "tag": "v0.1", "remove": true}
	]`)

	entries, err := LoadListing(path)
	if err != nil {
		t.Fatalf("LoadListing error: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}
	if entries[0].Tag != "v1.0" {
		t.Errorf("entry 0 tag = %q", entries[0].Tag)
	}
	if !entries[1].AutoUpdate || entries[1].Subdir != "plugin" {
		t.Errorf("entry 1 overrides not decoded: %+v", entries[1])
	}
	if !entries[2].ViewOnly {
		t.Error("entry 2 view_only not decoded")
	}
	if !entries[3].Remove {
		t.Error("entry 3 remove not decoded")
	}
}

func TestLoadListingErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{not json`},
		{"object instead of array", `{"name": "a/b"}`},
		{"bad repository reference", `[{"name": "no-slash", "tag": "v1"}]`},
		{"path traversal subdir", `[{"name": "a/b", "tag": "v1", "subdir": "../etc"}]`},
		{"no resolution strategy", `[{"name": "a/b"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeListing(t, tt.content)
			_, err := LoadListing(path)
			if !errors.Is(err, errors.ErrCodeInvalidListing) {
				t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidListing)
			}
		})
	}
}

func TestLoadListingMissingFile(t *testing.T) {
	_, err := LoadListing(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, errors.ErrCodeInvalidListing) {
		t.Fatalf("error = %v, want %s", err, errors.ErrCodeInvalidListing)
	}
}

func TestSaveListingBacksUp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "listing.json")

	entries := []CuratedEntry{{Name: "a/b", Tag: "v1"}}
	if err := SaveListing(path, entries); err != nil {
		t.Fatalf("SaveListing error: %v", err)
	}

	// Second save must back up the first.
	entries = append(entries, CuratedEntry{Name: "c/d", AutoUpdate: true})
	if err := SaveListing(path, entries); err != nil {
		t.Fatalf("SaveListing error: %v", err)
	}

	reloaded, err := LoadListing(path)
	if err != nil {
		t.Fatalf("LoadListing error: %v", err)
	}
	if len(reloaded) != 2 {
		t.Errorf("reloaded %d entries, want 2", len(reloaded))
	}

	backups, _ := filepath.Glob(path + ".bak.*")
	if len(backups) == 0 {
		t.Error("no backup written for the replaced listing")
	}
}
