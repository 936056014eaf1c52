package selector

import (
	"fmt"
	"strings"

	"bvdump/internal/metadata"
	"bvdump/internal/services"
)

// Policy fixes the ranking rules so selection stays deterministic and
// reproducible across runs.
type Policy struct {
	VideoCodecPriority []string
	AudioCodecPriority []string
	// ForbiddenPairs lists "videoCodec+audioCodec" base-codec combinations
	// the configuration explicitly rules out.
	ForbiddenPairs []string
}

// Pair is the chosen video/audio variant combination for one conversion.
type Pair struct {
	Video metadata.StreamVariant
	Audio metadata.StreamVariant
}

// Select picks one variant per kind: highest quality first, then the codec
// priority list, then declaration order. It is a pure function of its
// inputs.
func Select(doc metadata.Document, policy Policy) (Pair, error) {
	video, err := pick(metadata.KindVideo, doc.Video, policy.VideoCodecPriority)
	if err != nil {
		return Pair{}, err
	}
	audio, err := pick(metadata.KindAudio, doc.Audio, policy.AudioCodecPriority)
	if err != nil {
		return Pair{}, err
	}

	pair := Pair{Video: video, Audio: audio}
	if reason, forbidden := forbiddenPair(pair, policy.ForbiddenPairs); forbidden {
		return Pair{}, services.Wrap(services.ErrIncompatiblePair, "selector", "check pair policy", reason, nil)
	}
	return pair, nil
}

func pick(kind metadata.Kind, variants []metadata.StreamVariant, priority []string) (metadata.StreamVariant, error) {
	if len(variants) == 0 {
		return metadata.StreamVariant{}, services.Wrap(services.ErrNoPlayableStream, "selector", "pick variant",
			fmt.Sprintf("no %s variants", kind), nil)
	}
	best := variants[0]
	for _, candidate := range variants[1:] {
		if better(candidate, best, priority) {
			best = candidate
		}
	}
	return best, nil
}

func better(a, b metadata.StreamVariant, priority []string) bool {
	if a.Quality != b.Quality {
		return a.Quality > b.Quality
	}
	ra, rb := codecRank(a.Codec, priority), codecRank(b.Codec, priority)
	if ra != rb {
		return ra < rb
	}
	return a.Ordinal < b.Ordinal
}

// codecRank maps a codec to its position in the priority list; codecs not
// listed rank after every listed one, equally.
func codecRank(codec string, priority []string) int {
	base := metadata.BaseCodec(codec)
	for i, candidate := range priority {
		if metadata.BaseCodec(candidate) == base {
			return i
		}
	}
	return len(priority)
}

func forbiddenPair(pair Pair, forbidden []string) (string, bool) {
	video := metadata.BaseCodec(pair.Video.Codec)
	audio := metadata.BaseCodec(pair.Audio.Codec)
	for _, entry := range forbidden {
		parts := strings.SplitN(entry, "+", 2)
		if len(parts) != 2 {
			continue
		}
		if metadata.BaseCodec(parts[0]) == video && metadata.BaseCodec(parts[1]) == audio {
			return fmt.Sprintf("codec pair %s+%s is forbidden by policy", video, audio), true
		}
	}
	return "", false
}
