package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"bvdump/internal/services"
)

// MetadataFileName is the per-title index file the client writes.
const MetadataFileName = ".videoInfo"

// Entry identifies one cached title.
type Entry struct {
	TitleID string
	Root    string
}

// Layout is the structural view of a title's cache subtree: the metadata
// file plus every subdirectory that can hold a variant's fragments. No file
// contents are read here.
type Layout struct {
	Entry        Entry
	MetadataPath string
	VariantDirs  map[string]string
}

// VariantDir resolves a fragment directory referenced from metadata.
func (l Layout) VariantDir(name string) (string, bool) {
	path, ok := l.VariantDirs[name]
	return path, ok
}

// Scan discovers the on-disk layout of one cached title.
func Scan(cacheRoot, titleID string) (Layout, error) {
	titleID = strings.TrimSpace(titleID)
	// "." and ".." survive filepath.Base unchanged, so they must be rejected
	// explicitly or they would resolve to the cache root or its parent.
	if titleID == "" || titleID == "." || titleID == ".." || titleID != filepath.Base(titleID) {
		return Layout{}, services.Wrap(services.ErrNotFound, "scanner", "resolve title",
			fmt.Sprintf("invalid title id %q", titleID), nil)
	}

	root := filepath.Join(cacheRoot, titleID)
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Layout{}, services.Wrap(services.ErrNotFound, "scanner", "stat title dir", root, err)
		}
		return Layout{}, services.Wrap(services.ErrMalformedLayout, "scanner", "stat title dir", root, err)
	}
	if !info.IsDir() {
		return Layout{}, services.Wrap(services.ErrMalformedLayout, "scanner", "stat title dir",
			fmt.Sprintf("%s is not a directory", root), nil)
	}

	metadataPath := filepath.Join(root, MetadataFileName)
	metaInfo, err := os.Stat(metadataPath)
	if err != nil {
		return Layout{}, services.Wrap(services.ErrMalformedLayout, "scanner", "locate metadata",
			metadataPath, err)
	}
	if metaInfo.IsDir() {
		return Layout{}, services.Wrap(services.ErrMalformedLayout, "scanner", "locate metadata",
			fmt.Sprintf("%s is a directory", metadataPath), nil)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return Layout{}, services.Wrap(services.ErrMalformedLayout, "scanner", "list title dir", root, err)
	}

	variants := make(map[string]string)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		variants[entry.Name()] = filepath.Join(root, entry.Name())
	}
	if len(variants) == 0 {
		return Layout{}, services.Wrap(services.ErrMalformedLayout, "scanner", "classify title dir",
			fmt.Sprintf("%s has no variant directories", root), nil)
	}

	return Layout{
		Entry:        Entry{TitleID: titleID, Root: root},
		MetadataPath: metadataPath,
		VariantDirs:  variants,
	}, nil
}

// ListTitles returns the identifiers of every cached title under root,
// sorted for stable output. Non-directories and entries without a metadata
// file are skipped.
func ListTitles(cacheRoot string) ([]string, error) {
	entries, err := os.ReadDir(cacheRoot)
	if err != nil {
		return nil, fmt.Errorf("list cache root %s: %w", cacheRoot, err)
	}
	titles := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		metadataPath := filepath.Join(cacheRoot, entry.Name(), MetadataFileName)
		if info, err := os.Stat(metadataPath); err != nil || info.IsDir() {
			continue
		}
		titles = append(titles, entry.Name())
	}
	sort.Strings(titles)
	return titles, nil
}
