// Package logging assembles the structured slog loggers used across the
// conversion pipeline.
//
// It owns the console and JSON handlers, the attr helpers, and context-aware
// plumbing so pipeline code automatically tags log lines with title and
// correlation identifiers. Prefer these constructors over hand-rolled slog
// setup so every component emits data with the same shape.
package logging
