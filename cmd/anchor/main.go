// Anchor resolves layered scraper configuration into validated snapshots.
//
// It merges built-in defaults, a YAML or JSON configuration file, named
// profiles, SCRAPER_-prefixed environment variables, and runtime overrides
// into a single effective configuration, validating every field against the
// schema and reporting all violations at once.
//
// Usage:
//
//	# Validate the effective configuration
//	anchor validate --config scraper.yaml
//
//	# Print the effective configuration with provenance-aware merging
//	anchor show --config scraper.yaml --format json
//
//	# Generate an annotated configuration template
//	anchor template > scraper.yaml
//
//	# Watch the configuration file and report reloads
//	anchor watch --config scraper.yaml
//
//	# Show version information
//	anchor version
package main

func main() {
	Execute()
}
