package deps_test

import (
	"testing"

	"bvdump/internal/deps"
)

func TestCheckBinariesReportsMissing(t *testing.T) {
	statuses := deps.CheckBinaries([]deps.Requirement{
		{Name: "Nope", Command: "definitely-not-a-real-binary-xyz"},
		{Name: "Empty", Command: "  "},
	})
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0].Available {
		t.Fatal("expected missing binary to be unavailable")
	}
	if statuses[1].Detail != "command not configured" {
		t.Fatalf("unexpected detail: %q", statuses[1].Detail)
	}
}

func TestRequiredMarksProbeOptional(t *testing.T) {
	reqs := deps.Required("ffmpeg", "ffprobe")
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(reqs))
	}
	if reqs[0].Optional {
		t.Fatal("ffmpeg must be required")
	}
	if !reqs[1].Optional {
		t.Fatal("ffprobe should be optional")
	}
}
