// Package telemetry groups the observability surface of the resolver.
//
// The logging subpackage builds structured slog loggers from resolved
// configuration, with credential redaction applied before values reach the
// log stream. Resolution metrics live next to the resolver itself in
// pkg/resolver.
package telemetry
