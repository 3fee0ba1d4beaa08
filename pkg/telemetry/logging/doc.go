// Package logging builds the structured loggers used throughout breakwater.
//
// Loggers are plain *slog.Logger instances. The package translates the
// logging section of the configuration file into a handler (JSON or text,
// minimum level, optional source locations) and can install the result as
// the process-wide default so that code logging through slog.Default
// participates in the same stream.
package logging
