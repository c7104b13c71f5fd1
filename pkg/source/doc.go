// Package source reads external configuration representations into flat
// dot-path mappings.
//
// Three readers cover every layer the resolver merges:
//
//   - File reads a YAML or JSON document from disk, detecting the format by
//     extension or content sniffing. A missing file is not an error; it
//     yields an empty mapping. Reads are bounded by the caller's context so
//     a stuck filesystem cannot hang resolution.
//   - Env scans the process environment for SCRAPER_-prefixed variables and
//     reconstructs dot-paths from the double-underscore separator. Values
//     stay strings; the schema coerces them later.
//   - Dict flattens an already-nested in-memory mapping, used for profiles
//     and programmatic overrides.
//
// Readers are total: they either produce a complete mapping or report
// violations, never a partially read result.
package source
