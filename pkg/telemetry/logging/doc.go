// Package logging builds the structured slog logger the resolver and its
// collaborators share, configured from resolved "logging.*" fields.
//
// Levels follow the severity names the configuration schema accepts
// (DEBUG, INFO, WARNING, ERROR, CRITICAL) and are mapped onto slog levels.
// A Redactor masks credential material (proxy URLs with embedded
// user:password, Authorization headers, API keys) before values reach the
// log stream, so secret configuration never leaks through diagnostics.
package logging
