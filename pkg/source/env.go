package source

import (
	"os"
	"strings"

	"scraperhq/anchor/pkg/confmap"
)

// EnvSeparator is the sequence replaced by the dot-path separator when
// reconstructing nested keys from environment variable names.
const EnvSeparator = "__"

// Env reads overrides from the process environment. Variable names are
// matched case-insensitively against the prefix; the remainder is
// lower-cased and double underscores become dots:
//
//	SCRAPER_RATE_LIMIT__REQUESTS_PER_SECOND=2
//
// yields "rate_limit.requests_per_second": "2". Values stay strings and are
// coerced by the schema during validation.
type Env struct {
	prefix  string
	environ func() []string
}

// NewEnv creates an environment reader for the given prefix. The process
// environment is scanned; tests can substitute a fixed environment with
// NewEnvFrom.
func NewEnv(prefix string) *Env {
	return NewEnvFrom(prefix, os.Environ)
}

// NewEnvFrom creates an environment reader over an explicit environment
// function returning "KEY=value" pairs.
func NewEnvFrom(prefix string, environ func() []string) *Env {
	return &Env{prefix: prefix, environ: environ}
}

// Read scans the environment and returns the flat override mapping. The
// scan is total: malformed names are skipped, never fatal.
func (e *Env) Read() confmap.Map {
	out := make(confmap.Map)
	upperPrefix := strings.ToUpper(e.prefix)

	for _, kv := range e.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if !strings.HasPrefix(strings.ToUpper(name), upperPrefix) {
			continue
		}
		key := keyFromEnvName(name[len(upperPrefix):])
		if key == "" {
			continue
		}
		out[key] = value
	}
	return out
}

// keyFromEnvName converts the prefix-stripped variable name to a dot-path.
// Names producing empty path segments are rejected.
func keyFromEnvName(name string) string {
	key := strings.ReplaceAll(strings.ToLower(name), EnvSeparator, confmap.Separator)
	if key == "" {
		return ""
	}
	if _, err := confmap.SplitPath(key); err != nil {
		return ""
	}
	return key
}
