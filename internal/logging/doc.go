// Package logging builds the slog loggers used across the pipeline. It
// provides a console handler for interactive runs, a JSON handler for
// machine-readable logs, attribute helpers, and context-derived field
// extraction so stage and item identifiers follow every log line.
package logging
