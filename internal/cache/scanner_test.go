package cache_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bvdump/internal/cache"
	"bvdump/internal/services"
)

func writeTitle(t *testing.T, root, id string, variantDirs ...string) string {
	t.Helper()
	titleDir := filepath.Join(root, id)
	if err := os.MkdirAll(titleDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(titleDir, cache.MetadataFileName), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, dir := range variantDirs {
		if err := os.MkdirAll(filepath.Join(titleDir, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return titleDir
}

func TestScanDiscoversLayout(t *testing.T) {
	root := t.TempDir()
	titleDir := writeTitle(t, root, "12345", "video_80", "audio_30280")
	// Loose files next to the metadata are classified but not treated as variants.
	if err := os.WriteFile(filepath.Join(titleDir, "cover.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	layout, err := cache.Scan(root, "12345")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if layout.Entry.TitleID != "12345" {
		t.Fatalf("title id = %q", layout.Entry.TitleID)
	}
	if layout.MetadataPath != filepath.Join(titleDir, cache.MetadataFileName) {
		t.Fatalf("metadata path = %q", layout.MetadataPath)
	}
	if len(layout.VariantDirs) != 2 {
		t.Fatalf("variant dirs = %v", layout.VariantDirs)
	}
	if _, ok := layout.VariantDir("video_80"); !ok {
		t.Fatal("expected video_80 variant dir")
	}
}

func TestScanMissingTitleIsNotFound(t *testing.T) {
	root := t.TempDir()
	_, err := cache.Scan(root, "99999")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScanRejectsPathTraversal(t *testing.T) {
	// The parent of the cache root and the root itself both look like valid
	// title directories here, so a traversal that slipped through the id
	// guard would come back as a successful layout.
	base := t.TempDir()
	root := filepath.Join(base, "cache")
	writeTitle(t, base, "cache", "variant")
	if err := os.WriteFile(filepath.Join(base, cache.MetadataFileName), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, titleID := range []string{"../outside", "..", ".", "sub/dir", ""} {
		_, err := cache.Scan(root, titleID)
		if !errors.Is(err, services.ErrNotFound) {
			t.Fatalf("Scan(%q): expected ErrNotFound, got %v", titleID, err)
		}
	}
}

func TestScanWithoutMetadataIsMalformed(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "123", "video_80"), 0o755); err != nil {
		t.Fatal(err)
	}
	_, err := cache.Scan(root, "123")
	if !errors.Is(err, services.ErrMalformedLayout) {
		t.Fatalf("expected ErrMalformedLayout, got %v", err)
	}
}

func TestScanWithoutVariantDirsIsMalformed(t *testing.T) {
	root := t.TempDir()
	writeTitle(t, root, "123")
	_, err := cache.Scan(root, "123")
	if !errors.Is(err, services.ErrMalformedLayout) {
		t.Fatalf("expected ErrMalformedLayout, got %v", err)
	}
}

func TestListTitlesSkipsIncompleteEntries(t *testing.T) {
	root := t.TempDir()
	writeTitle(t, root, "222", "v")
	writeTitle(t, root, "111", "v")
	// Directory without metadata and a stray file are both skipped.
	if err := os.MkdirAll(filepath.Join(root, "partial"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	titles, err := cache.ListTitles(root)
	if err != nil {
		t.Fatalf("ListTitles: %v", err)
	}
	if len(titles) != 2 || titles[0] != "111" || titles[1] != "222" {
		t.Fatalf("titles = %v", titles)
	}
}
