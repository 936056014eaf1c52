package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"bvdump/internal/services"
)

func TestWrapTagsMarkerAndDetail(t *testing.T) {
	cause := errors.New("boom")
	err := services.Wrap(services.ErrFragmentGap, "assembler", "verify sequence", "index 2 missing", cause)
	if !errors.Is(err, services.ErrFragmentGap) {
		t.Fatalf("expected ErrFragmentGap, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"assembler", "verify sequence", "index 2 missing"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q missing %q", msg, want)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrNotFound, "scanner", "stat title dir", "", nil)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if strings.Contains(err.Error(), "%!") {
		t.Fatalf("malformed message: %q", err.Error())
	}
}

func TestFatalFiltersUnsupportedVariant(t *testing.T) {
	unsupported := services.Wrap(services.ErrUnsupportedVariant, "metadata", "filter", "drm flagged", nil)
	if services.Fatal(unsupported) {
		t.Fatal("unsupported variant should not be fatal")
	}
	fatal := fmt.Errorf("outer: %w", services.ErrNoPlayableStream)
	if !services.Fatal(fatal) {
		t.Fatal("no playable stream must be fatal")
	}
	if services.Fatal(nil) {
		t.Fatal("nil error is not fatal")
	}
}
