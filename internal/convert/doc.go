// Package convert orchestrates the full pipeline for a cached title: scan,
// metadata parsing, stream selection, fragment assembly, remux, and the
// bookkeeping around it (locking, journaling, source removal).
package convert
