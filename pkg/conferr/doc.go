// Package conferr defines the violation model shared by every stage of the
// configuration pipeline.
//
// A Violation describes one concrete problem found while reading, merging,
// or validating configuration: what went wrong (Code), where the value lives
// (Field), which layer supplied it (Source), and what was expected versus
// what was seen. A List accumulates every violation found in a single pass
// so operators can fix all problems in one edit cycle instead of replaying
// resolution once per error.
//
// Unknown-key violations are warning-grade: they only fail resolution when
// strict mode is enabled. Everything else is fatal.
package conferr
