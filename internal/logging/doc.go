// Package logging assembles the structured slog loggers used across the
// MiniStory pipeline.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes standardized attribute keys so stage code tags log lines with
// session IDs, stage names, and scene/shot identifiers the same way
// everywhere. The package also provides a no-op logger for tests and wiring
// code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components
// emit data with the same shape as the rest of the system.
package logging
