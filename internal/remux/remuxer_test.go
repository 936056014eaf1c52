package remux_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bvdump/internal/logging"
	"bvdump/internal/remux"
	"bvdump/internal/services"
)

func writeStreams(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	video := filepath.Join(dir, "video.m4s")
	audio := filepath.Join(dir, "audio.m4s")
	if err := os.WriteFile(video, []byte("video-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(audio, []byte("audio-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return video, audio
}

// fakeRunner simulates ffmpeg by writing a file at the last argument.
func fakeRunner(t *testing.T, payload string) func(ctx context.Context, name string, args ...string) error {
	t.Helper()
	return func(_ context.Context, _ string, args ...string) error {
		out := args[len(args)-1]
		return os.WriteFile(out, []byte(payload), 0o644)
	}
}

func okProbe(context.Context, string, string) (remux.ProbeReport, error) {
	return remux.ProbeReport{VideoStreams: 1, AudioStreams: 1, DurationSeconds: 42.5, FormatName: "mov,mp4"}, nil
}

func TestRemuxWritesAtomically(t *testing.T) {
	video, audio := writeStreams(t)
	destDir := t.TempDir()
	dest := filepath.Join(destDir, "12345.mp4")

	r := remux.New(logging.NewNop(), remux.Options{Container: "mp4", Verify: true})
	r.WithCommandRunner(fakeRunner(t, "muxed"))
	r.WithProbe(okProbe)

	result, err := r.Remux(context.Background(), remux.Request{
		VideoPath:  video,
		AudioPath:  audio,
		VideoCodec: "avc1.640032",
		AudioCodec: "mp4a.40.2",
		DestPath:   dest,
	})
	if err != nil {
		t.Fatalf("Remux: %v", err)
	}
	if result.OutputPath != dest {
		t.Fatalf("output path = %q", result.OutputPath)
	}
	body, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "muxed" {
		t.Fatalf("output body = %q", body)
	}

	entries, err := os.ReadDir(destDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Fatalf("temporary file left behind: %s", entry.Name())
		}
	}
}

func TestRemuxFailedCommandLeavesNoDestination(t *testing.T) {
	video, audio := writeStreams(t)
	destDir := t.TempDir()
	dest := filepath.Join(destDir, "12345.mp4")

	r := remux.New(logging.NewNop(), remux.Options{Container: "mp4"})
	r.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		// Simulate ffmpeg dying after creating a partial temp file.
		_ = os.WriteFile(args[len(args)-1], []byte("partial"), 0o644)
		return errors.New("muxer exploded")
	})

	_, err := r.Remux(context.Background(), remux.Request{
		VideoPath: video, AudioPath: audio,
		VideoCodec: "avc1", AudioCodec: "mp4a",
		DestPath: dest,
	})
	if !errors.Is(err, services.ErrMuxIncompatible) {
		t.Fatalf("expected ErrMuxIncompatible, got %v", err)
	}
	if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("destination must not exist after failure")
	}
	entries, err := os.ReadDir(destDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected clean destination dir, found %v", entries)
	}
}

func TestRemuxVerifyRejectsBadOutput(t *testing.T) {
	video, audio := writeStreams(t)
	dest := filepath.Join(t.TempDir(), "out.mp4")

	r := remux.New(logging.NewNop(), remux.Options{Container: "mp4", Verify: true})
	r.WithCommandRunner(fakeRunner(t, "muxed"))
	r.WithProbe(func(context.Context, string, string) (remux.ProbeReport, error) {
		return remux.ProbeReport{VideoStreams: 1, AudioStreams: 0, DurationSeconds: 10}, nil
	})

	_, err := r.Remux(context.Background(), remux.Request{
		VideoPath: video, AudioPath: audio,
		VideoCodec: "avc1", AudioCodec: "mp4a",
		DestPath: dest,
	})
	if !errors.Is(err, services.ErrMuxIncompatible) {
		t.Fatalf("expected ErrMuxIncompatible, got %v", err)
	}
	if _, statErr := os.Stat(dest); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("destination must not exist after verification failure")
	}
}

func TestRemuxIncompatibleCodecRejectedUpFront(t *testing.T) {
	video, audio := writeStreams(t)
	dest := filepath.Join(t.TempDir(), "out.mp4")

	ran := false
	r := remux.New(logging.NewNop(), remux.Options{Container: "mp4"})
	r.WithCommandRunner(func(context.Context, string, ...string) error {
		ran = true
		return nil
	})

	_, err := r.Remux(context.Background(), remux.Request{
		VideoPath: video, AudioPath: audio,
		VideoCodec: "theora", AudioCodec: "mp4a",
		DestPath: dest,
	})
	if !errors.Is(err, services.ErrMuxIncompatible) {
		t.Fatalf("expected ErrMuxIncompatible, got %v", err)
	}
	if ran {
		t.Fatal("ffmpeg must not run for a rejected codec pair")
	}
}

func TestCheckCompatibility(t *testing.T) {
	if err := remux.CheckCompatibility("mp4", "hev1.1.6.L120", "ec-3"); err != nil {
		t.Fatalf("hev1+ec-3 should map into mp4: %v", err)
	}
	if err := remux.CheckCompatibility("mp4", "avc1", "realaudio"); !errors.Is(err, services.ErrMuxIncompatible) {
		t.Fatalf("expected ErrMuxIncompatible, got %v", err)
	}
	if err := remux.CheckCompatibility("mkv", "avc1", "mp4a"); !errors.Is(err, services.ErrMuxIncompatible) {
		t.Fatalf("expected ErrMuxIncompatible for unknown container, got %v", err)
	}
}
