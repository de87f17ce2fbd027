// Package refattach walks the scene/shot tree and materializes strong
// character and location references onto each shot. Attachment is best-effort:
// a reference that fails to resolve is recorded as a warning and skipped, and
// the registries are never mutated.
package refattach
