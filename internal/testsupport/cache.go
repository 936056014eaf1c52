package testsupport

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"bvdump/internal/cache"
)

// MediaFixture describes one stream variant to materialize in a fixture.
type MediaFixture struct {
	Type    string
	Quality int
	Codec   string
	Dir     string
	DRM     bool
	// Fragments holds the payload bytes of each fragment in index order.
	// The cache prefix is prepended automatically.
	Fragments [][]byte
	// DeclareParts adds per-fragment size and md5 declarations to the
	// metadata file.
	DeclareParts bool
	// SkipDeclarations leaves fragments/size/parts out of the metadata.
	SkipDeclarations bool
}

// TitleFixture describes one cached title to materialize.
type TitleFixture struct {
	TitleID        string
	Title          string
	Uploader       string
	CoverName      string
	GroupCoverName string
	Medias         []MediaFixture
}

// cachePrefix mirrors the bytes the client prepends to every cached fragment.
var cachePrefix = []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

// WriteTitle materializes a cached title under cacheRoot and returns the
// title directory.
func WriteTitle(t testing.TB, cacheRoot string, fixture TitleFixture) string {
	t.Helper()

	if fixture.TitleID == "" {
		t.Fatal("fixture requires a title id")
	}
	titleDir := filepath.Join(cacheRoot, fixture.TitleID)
	if err := os.MkdirAll(titleDir, 0o755); err != nil {
		t.Fatalf("mkdir title dir: %v", err)
	}

	doc := map[string]any{
		"itemId": 1,
		"title":  fixture.Title,
		"uname":  fixture.Uploader,
	}
	if fixture.CoverName != "" {
		coverPath := filepath.Join(titleDir, fixture.CoverName)
		if err := os.WriteFile(coverPath, []byte("cover"), 0o644); err != nil {
			t.Fatalf("write cover: %v", err)
		}
		doc["coverPath"] = fixture.CoverName
	}
	if fixture.GroupCoverName != "" {
		groupPath := filepath.Join(titleDir, fixture.GroupCoverName)
		if err := os.WriteFile(groupPath, []byte("group-cover"), 0o644); err != nil {
			t.Fatalf("write group cover: %v", err)
		}
		doc["groupCoverPath"] = fixture.GroupCoverName
	}

	var medias []map[string]any
	var totalSize int64
	for _, media := range fixture.Medias {
		mediaDir := filepath.Join(titleDir, media.Dir)
		if err := os.MkdirAll(mediaDir, 0o755); err != nil {
			t.Fatalf("mkdir media dir: %v", err)
		}

		entry := map[string]any{
			"type":    media.Type,
			"quality": media.Quality,
			"codec":   media.Codec,
			"dir":     media.Dir,
			"drm":     media.DRM,
		}

		var mediaSize int64
		var parts []map[string]any
		for index, payload := range media.Fragments {
			WriteFragment(t, mediaDir, index, payload)
			mediaSize += int64(len(payload))
			if media.DeclareParts {
				sum := md5.Sum(payload)
				parts = append(parts, map[string]any{
					"index": index,
					"size":  len(payload),
					"md5":   hex.EncodeToString(sum[:]),
				})
			}
		}
		totalSize += mediaSize

		if !media.SkipDeclarations {
			entry["fragments"] = len(media.Fragments)
			entry["size"] = mediaSize
			if media.DeclareParts {
				entry["parts"] = parts
			}
		}
		medias = append(medias, entry)
	}
	doc["totalSize"] = totalSize
	doc["medias"] = medias

	payload, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal metadata: %v", err)
	}
	if err := os.WriteFile(filepath.Join(titleDir, cache.MetadataFileName), payload, 0o644); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
	return titleDir
}

// WriteFragment writes a single prefixed fragment file named by its index.
func WriteFragment(t testing.TB, dir string, index int, payload []byte) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir fragment dir: %v", err)
	}
	path := filepath.Join(dir, strconv.Itoa(index)+".m4s")
	data := append(append([]byte{}, cachePrefix...), payload...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fragment %s: %v", path, err)
	}
	return path
}

// DefaultTitle returns a two-variant fixture (one video, one audio) that
// exercises the common selection path.
func DefaultTitle(titleID string) TitleFixture {
	return TitleFixture{
		TitleID:  titleID,
		Title:    "Example Title",
		Uploader: "uploader",
		Medias: []MediaFixture{
			{
				Type:         "video",
				Quality:      80,
				Codec:        "avc1.64001F",
				Dir:          "80",
				Fragments:    [][]byte{[]byte("video-frag-0"), []byte("video-frag-1")},
				DeclareParts: true,
			},
			{
				Type:         "audio",
				Quality:      30280,
				Codec:        "mp4a.40.2",
				Dir:          "30280",
				Fragments:    [][]byte{[]byte("audio-frag-0")},
				DeclareParts: true,
			},
		},
	}
}
