// Package schema defines the canonical set of recognized configuration
// fields and turns merged raw mappings into validated, immutable snapshots.
//
// A Schema is a fixed, ordered collection of Field descriptors created at
// process start. Each Field has a dot-path name, a semantic kind, a default,
// a one-line description (used for template export), and an optional
// validator for checks beyond the kind (ranges, enums, path syntax).
//
// Resolve checks a fully merged mapping against the schema: every value is
// coerced to its field kind, every validator runs, and all violations are
// collected in a single pass. On success it returns a Resolved snapshot with
// one typed value per field. A Resolved never changes after construction;
// each resolution produces a new one, identified by a UUID and a SHA-256
// fingerprint of its canonical value set.
package schema
