// Package logging provides the structured logger used across Sync Hub.
//
// It is a thin wrapper over log/slog that applies the configured format,
// level, and destination, and stamps every record with the service name
// and version. Components derive scoped loggers via With("component", ...).
package logging
