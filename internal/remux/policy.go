package remux

import (
	"fmt"

	"bvdump/internal/metadata"
	"bvdump/internal/services"
)

// containerPolicy enumerates, per supported output container, the codec
// families whose samples can be spliced in without re-encoding.
var containerPolicy = map[string]struct {
	video map[string]struct{}
	audio map[string]struct{}
}{
	"mp4": {
		video: set("avc1", "h264", "hev1", "hvc1", "hevc", "av01", "vp09"),
		audio: set("mp4a", "aac", "ec-3", "ac-3", "opus", "flac", "mp3"),
	},
}

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

// CheckCompatibility verifies the selected codec pair has a mapping into the
// output container.
func CheckCompatibility(container, videoCodec, audioCodec string) error {
	policy, ok := containerPolicy[container]
	if !ok {
		return services.Wrap(services.ErrMuxIncompatible, "remuxer", "check container policy",
			fmt.Sprintf("no policy for container %q", container), nil)
	}
	if _, ok := policy.video[metadata.BaseCodec(videoCodec)]; !ok {
		return services.Wrap(services.ErrMuxIncompatible, "remuxer", "check container policy",
			fmt.Sprintf("video codec %q has no %s mapping", videoCodec, container), nil)
	}
	if _, ok := policy.audio[metadata.BaseCodec(audioCodec)]; !ok {
		return services.Wrap(services.ErrMuxIncompatible, "remuxer", "check container policy",
			fmt.Sprintf("audio codec %q has no %s mapping", audioCodec, container), nil)
	}
	return nil
}
