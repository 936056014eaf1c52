package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"bvdump/internal/services"
)

// Kind distinguishes the two elementary stream kinds a title can cache.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// FragmentInfo is the optional per-fragment integrity declaration.
type FragmentInfo struct {
	Index int
	Size  int64
	MD5   string
}

// StreamVariant is one selectable quality/codec option for a title.
type StreamVariant struct {
	Kind          Kind
	Quality       int
	Codec         string
	Dir           string
	DRM           bool
	FragmentCount int
	TotalSize     int64
	Parts         []FragmentInfo
	// Ordinal is the declaration position in the metadata file; the
	// selector uses it as the final tie-breaker.
	Ordinal int
}

// TitleInfo carries the descriptive fields of the per-title index.
type TitleInfo struct {
	ItemID      int64
	Title       string
	Uploader    string
	GroupTitle  string
	PublishedAt time.Time
	TotalSize   int64
	CoverPath   string
	// GroupCoverPath is the season/collection artwork; it often points at
	// the same file as CoverPath.
	GroupCoverPath string
}

// SkippedVariant records a variant filtered out as unsupported.
type SkippedVariant struct {
	Variant StreamVariant
	Reason  string
}

// Document is the parsed per-title index: descriptive fields plus the
// playable variants grouped by kind, in declaration order.
type Document struct {
	Title   TitleInfo
	Video   []StreamVariant
	Audio   []StreamVariant
	Skipped []SkippedVariant
}

// Options controls how unsupported variants are handled.
type Options struct {
	// FailOnUnsupported aborts the whole title when any variant is
	// DRM-marked instead of filtering it out.
	FailOnUnsupported bool
}

// The client's index schema. Unknown fields are ignored on purpose; only
// the fields below are contractual.
type rawDocument struct {
	ItemID     int64      `json:"itemId"`
	Title      string     `json:"title"`
	Uname      string     `json:"uname"`
	GroupTitle string     `json:"groupTitle"`
	Pubdate    int64      `json:"pubdate"`
	TotalSize  int64      `json:"totalSize"`
	CoverPath  string     `json:"coverPath"`
	GroupCover string     `json:"groupCoverPath"`
	Medias     []rawMedia `json:"medias"`
}

type rawMedia struct {
	Type      string    `json:"type"`
	Quality   *int      `json:"quality"`
	Codec     string    `json:"codec"`
	Dir       string    `json:"dir"`
	DRM       bool      `json:"drm"`
	Fragments *int      `json:"fragments"`
	Size      int64     `json:"size"`
	Parts     []rawPart `json:"parts"`
}

type rawPart struct {
	Index *int   `json:"index"`
	Size  int64  `json:"size"`
	MD5   string `json:"md5"`
}

// Read parses the metadata file discovered by the scanner.
func Read(path string, opts Options) (Document, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return Document{}, services.Wrap(services.ErrMalformedMetadata, "metadata", "read index", path, err)
	}

	var raw rawDocument
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Document{}, services.Wrap(services.ErrMalformedMetadata, "metadata", "parse index", path, err)
	}
	if len(raw.Medias) == 0 {
		return Document{}, services.Wrap(services.ErrMalformedMetadata, "metadata", "parse index",
			fmt.Sprintf("%s declares no stream variants", path), nil)
	}

	doc := Document{Title: titleInfo(raw)}
	for i, media := range raw.Medias {
		variant, err := parseVariant(media, i, path)
		if err != nil {
			return Document{}, err
		}
		if variant.DRM {
			if opts.FailOnUnsupported {
				return Document{}, services.Wrap(services.ErrUnsupportedVariant, "metadata", "filter variants",
					fmt.Sprintf("%s variant %d is DRM-marked", variant.Kind, i), nil)
			}
			doc.Skipped = append(doc.Skipped, SkippedVariant{Variant: variant, Reason: "drm"})
			continue
		}
		switch variant.Kind {
		case KindVideo:
			doc.Video = append(doc.Video, variant)
		case KindAudio:
			doc.Audio = append(doc.Audio, variant)
		}
	}

	if len(doc.Video) == 0 || len(doc.Audio) == 0 {
		return Document{}, services.Wrap(services.ErrNoPlayableStream, "metadata", "filter variants",
			fmt.Sprintf("%d video and %d audio variants remain (%d filtered)",
				len(doc.Video), len(doc.Audio), len(doc.Skipped)), nil)
	}
	return doc, nil
}

func titleInfo(raw rawDocument) TitleInfo {
	info := TitleInfo{
		ItemID:         raw.ItemID,
		Title:          strings.TrimSpace(raw.Title),
		Uploader:       strings.TrimSpace(raw.Uname),
		GroupTitle:     strings.TrimSpace(raw.GroupTitle),
		TotalSize:      raw.TotalSize,
		CoverPath:      strings.TrimSpace(raw.CoverPath),
		GroupCoverPath: strings.TrimSpace(raw.GroupCover),
	}
	if raw.Pubdate > 0 {
		info.PublishedAt = time.Unix(raw.Pubdate, 0).UTC()
	}
	return info
}

func parseVariant(media rawMedia, ordinal int, path string) (StreamVariant, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(media.Type)))
	if kind != KindVideo && kind != KindAudio {
		return StreamVariant{}, services.Wrap(services.ErrMalformedMetadata, "metadata", "parse variant",
			fmt.Sprintf("%s: entry %d has kind %q", path, ordinal, media.Type), nil)
	}
	if media.Quality == nil {
		return StreamVariant{}, services.Wrap(services.ErrMalformedMetadata, "metadata", "parse variant",
			fmt.Sprintf("%s: entry %d is missing quality", path, ordinal), nil)
	}
	dir := strings.TrimSpace(media.Dir)
	if dir == "" {
		return StreamVariant{}, services.Wrap(services.ErrMalformedMetadata, "metadata", "parse variant",
			fmt.Sprintf("%s: entry %d is missing fragment directory", path, ordinal), nil)
	}

	variant := StreamVariant{
		Kind:      kind,
		Quality:   *media.Quality,
		Codec:     strings.TrimSpace(media.Codec),
		Dir:       dir,
		DRM:       media.DRM,
		TotalSize: media.Size,
		Ordinal:   ordinal,
	}
	if media.Fragments != nil {
		if *media.Fragments <= 0 {
			return StreamVariant{}, services.Wrap(services.ErrMalformedMetadata, "metadata", "parse variant",
				fmt.Sprintf("%s: entry %d declares %d fragments", path, ordinal, *media.Fragments), nil)
		}
		variant.FragmentCount = *media.Fragments
	}
	for j, part := range media.Parts {
		if part.Index == nil || *part.Index < 0 {
			return StreamVariant{}, services.Wrap(services.ErrMalformedMetadata, "metadata", "parse variant",
				fmt.Sprintf("%s: entry %d part %d has no valid index", path, ordinal, j), nil)
		}
		variant.Parts = append(variant.Parts, FragmentInfo{
			Index: *part.Index,
			Size:  part.Size,
			MD5:   strings.ToLower(strings.TrimSpace(part.MD5)),
		})
	}
	return variant, nil
}

// BaseCodec reduces a codec tag to its comparable family name: the profile
// suffix after the first dot is dropped and the result is lowercased, so
// "avc1.640032" and "AVC1" compare equal.
func BaseCodec(codec string) string {
	codec = strings.TrimSpace(codec)
	if i := strings.IndexByte(codec, '.'); i >= 0 {
		codec = codec[:i]
	}
	return strings.ToLower(codec)
}
