// Package services carries the cross-cutting failure taxonomy and context
// plumbing shared by the conversion pipeline components.
//
// Every pipeline failure is tagged with one of the exported sentinel errors
// so callers can classify outcomes with errors.Is without parsing messages.
// Wrap is the single construction point; it threads component, operation,
// and detail into a %w chain that keeps both the marker and the root cause
// inspectable.
package services
