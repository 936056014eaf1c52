package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for the failure kinds the conversion pipeline can report.
// Callers classify failures with errors.Is against these values; the wrapped
// chain carries the human-readable detail.
var (
	ErrNotFound           = errors.New("title not found")
	ErrMalformedLayout    = errors.New("malformed cache layout")
	ErrMalformedMetadata  = errors.New("malformed metadata")
	ErrUnsupportedVariant = errors.New("unsupported variant")
	ErrNoPlayableStream   = errors.New("no playable stream")
	ErrIncompatiblePair   = errors.New("incompatible stream pair")
	ErrFragmentGap        = errors.New("fragment gap")
	ErrFragmentDuplicate  = errors.New("fragment duplicate")
	ErrFragmentCorrupt    = errors.New("fragment corrupt")
	ErrMuxIncompatible    = errors.New("mux incompatible")
	ErrDestinationBusy    = errors.New("destination busy")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = errors.New("conversion failure")
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether the error should abort the whole conversion run.
// Unsupported variants are filtered by the metadata reader instead; they only
// become fatal when escalated to ErrNoPlayableStream.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrUnsupportedVariant)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "conversion failure"
	}
	return strings.Join(parts, ": ")
}
