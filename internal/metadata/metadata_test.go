package metadata_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bvdump/internal/metadata"
	"bvdump/internal/services"
)

func writeIndex(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".videoInfo")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validIndex = `{
	"itemId": 12345,
	"title": "Some Cached Title",
	"uname": "uploader",
	"groupTitle": "Some Cached Title",
	"pubdate": 1700000000,
	"totalSize": 2048,
	"coverPath": "/covers/12345.jpg",
	"groupCoverPath": " /covers/group.jpg ",
	"futureField": {"ignored": true},
	"medias": [
		{"type": "video", "quality": 80, "codec": "avc1.640032", "dir": "video_80", "fragments": 3},
		{"type": "video", "quality": 64, "codec": "hev1.1.6", "dir": "video_64"},
		{"type": "audio", "quality": 30280, "codec": "mp4a.40.2", "dir": "audio_30280",
		 "parts": [{"index": 0, "size": 7, "md5": "AABB00"}]}
	]
}`

func TestReadParsesVariantsAndTitle(t *testing.T) {
	doc, err := metadata.Read(writeIndex(t, validIndex), metadata.Options{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if doc.Title.ItemID != 12345 || doc.Title.Uploader != "uploader" {
		t.Fatalf("title info = %+v", doc.Title)
	}
	if doc.Title.PublishedAt.IsZero() {
		t.Fatal("expected publish date")
	}
	if doc.Title.CoverPath != "/covers/12345.jpg" || doc.Title.GroupCoverPath != "/covers/group.jpg" {
		t.Fatalf("cover paths = %q, %q", doc.Title.CoverPath, doc.Title.GroupCoverPath)
	}
	if len(doc.Video) != 2 || len(doc.Audio) != 1 {
		t.Fatalf("variants: %d video, %d audio", len(doc.Video), len(doc.Audio))
	}
	if doc.Video[0].Quality != 80 || doc.Video[0].Dir != "video_80" || doc.Video[0].FragmentCount != 3 {
		t.Fatalf("video[0] = %+v", doc.Video[0])
	}
	if doc.Video[1].Ordinal != 1 {
		t.Fatalf("expected declaration order preserved, got ordinal %d", doc.Video[1].Ordinal)
	}
	audio := doc.Audio[0]
	if len(audio.Parts) != 1 || audio.Parts[0].MD5 != "aabb00" {
		t.Fatalf("audio parts = %+v", audio.Parts)
	}
}

func TestReadMissingRequiredFieldIsMalformed(t *testing.T) {
	cases := map[string]string{
		"missing quality": `{"medias": [{"type": "video", "dir": "v"}, {"type": "audio", "quality": 1, "dir": "a"}]}`,
		"missing dir":     `{"medias": [{"type": "video", "quality": 80}, {"type": "audio", "quality": 1, "dir": "a"}]}`,
		"bad kind":        `{"medias": [{"type": "subtitle", "quality": 80, "dir": "s"}]}`,
		"not json":        `[not json`,
		"empty medias":    `{"medias": []}`,
	}
	for name, body := range cases {
		if _, err := metadata.Read(writeIndex(t, body), metadata.Options{}); !errors.Is(err, services.ErrMalformedMetadata) {
			t.Fatalf("%s: expected ErrMalformedMetadata, got %v", name, err)
		}
	}
}

func TestReadFiltersDRMVariants(t *testing.T) {
	body := `{"medias": [
		{"type": "video", "quality": 112, "codec": "hev1", "dir": "video_112", "drm": true},
		{"type": "video", "quality": 80, "codec": "avc1", "dir": "video_80"},
		{"type": "audio", "quality": 1, "codec": "mp4a", "dir": "audio"}
	]}`
	doc, err := metadata.Read(writeIndex(t, body), metadata.Options{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(doc.Video) != 1 || doc.Video[0].Quality != 80 {
		t.Fatalf("expected DRM variant filtered, got %+v", doc.Video)
	}
	if len(doc.Skipped) != 1 || doc.Skipped[0].Reason != "drm" {
		t.Fatalf("skipped = %+v", doc.Skipped)
	}
}

func TestReadDRMOnlyKindIsNoPlayableStream(t *testing.T) {
	body := `{"medias": [
		{"type": "video", "quality": 112, "codec": "hev1", "dir": "video_112", "drm": true},
		{"type": "audio", "quality": 1, "codec": "mp4a", "dir": "audio"}
	]}`
	_, err := metadata.Read(writeIndex(t, body), metadata.Options{})
	if !errors.Is(err, services.ErrNoPlayableStream) {
		t.Fatalf("expected ErrNoPlayableStream, got %v", err)
	}
}

func TestReadFailOnUnsupportedAborts(t *testing.T) {
	body := `{"medias": [
		{"type": "video", "quality": 112, "codec": "hev1", "dir": "video_112", "drm": true},
		{"type": "video", "quality": 80, "codec": "avc1", "dir": "video_80"},
		{"type": "audio", "quality": 1, "codec": "mp4a", "dir": "audio"}
	]}`
	_, err := metadata.Read(writeIndex(t, body), metadata.Options{FailOnUnsupported: true})
	if !errors.Is(err, services.ErrUnsupportedVariant) {
		t.Fatalf("expected ErrUnsupportedVariant, got %v", err)
	}
}

func TestBaseCodec(t *testing.T) {
	cases := map[string]string{
		"avc1.640032": "avc1",
		"AVC1":        "avc1",
		"mp4a.40.2":   "mp4a",
		" fLaC ":      "flac",
		"":            "",
	}
	for in, want := range cases {
		if got := metadata.BaseCodec(in); got != want {
			t.Fatalf("BaseCodec(%q) = %q, want %q", in, got, want)
		}
	}
}
