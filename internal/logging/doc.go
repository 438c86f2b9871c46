// Package logging builds the application's slog loggers and provides the
// attribute helpers used across subsystems. Console output folds the
// component attribute into the message prefix; JSON output is line-delimited
// with lowercase level names.
package logging
