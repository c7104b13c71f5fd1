package schema

import (
	"fmt"
	"strings"
)

// Schema is a fixed, ordered collection of fields. It is defined once at
// process start and never mutated afterwards.
type Schema struct {
	fields []Field
	byName map[string]int
}

// New builds a schema from the given fields. Field order is preserved; it
// drives template export and fingerprinting. Duplicate names and names that
// nest under another field (except string-map entries, which own their
// sub-paths) are rejected.
func New(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	copy(s.fields, fields)

	for i, f := range s.fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field %d has an empty name", i)
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		s.byName[f.Name] = i
	}

	// A field name must not be a branch of another field's path: that would
	// make the path a leaf and a parent at the same time.
	for _, f := range s.fields {
		for _, other := range s.fields {
			if strings.HasPrefix(other.Name, f.Name+".") {
				return nil, fmt.Errorf("field %q nests under field %q", other.Name, f.Name)
			}
		}
	}

	return s, nil
}

// MustNew is New but panics on error. Intended for package-level schemas
// built from literals.
func MustNew(fields ...Field) *Schema {
	s, err := New(fields...)
	if err != nil {
		panic(fmt.Sprintf("schema: %v", err))
	}
	return s
}

// Fields returns the fields in definition order. The slice is a copy.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Lookup returns the field with the given name.
func (s *Schema) Lookup(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Owner returns the field a merged key belongs to: either the field named
// exactly by the key, or the string-map field of which the key addresses an
// entry (e.g. "custom_headers.accept" belongs to "custom_headers").
func (s *Schema) Owner(key string) (Field, bool) {
	if f, ok := s.Lookup(key); ok {
		return f, true
	}
	for i := strings.LastIndexByte(key, '.'); i > 0; i = strings.LastIndexByte(key[:i], '.') {
		if f, ok := s.Lookup(key[:i]); ok && f.Kind == KindStringMap {
			return f, true
		}
	}
	return Field{}, false
}

// Default values for the scraper configuration schema.
const (
	DefaultRequestTimeout     = 30
	DefaultMaxRetries         = 3
	DefaultRetryDelay         = 1.0
	DefaultUserAgent          = "WebScraper/1.0"
	DefaultRequestsPerSecond  = 1.0
	DefaultConcurrentRequests = 1
	DefaultOutputFormat       = "json"
	DefaultOutputDirectory    = "./data"
	DefaultFilenameTemplate   = "{domain}_{timestamp}"
	DefaultHTMLParser         = "lxml"
	DefaultEncoding           = "utf-8"
	DefaultLogLevel           = "INFO"
	DefaultCacheDirectory     = "./cache"
)

// EnvPrefix is the prefix scanned for environment variable overrides.
const EnvPrefix = "SCRAPER_"

var defaultSchema = MustNew(
	// HTTP settings
	Field{Name: "http.request_timeout", Kind: KindInt, Default: DefaultRequestTimeout,
		Description: "Per-request timeout in seconds", Validate: Positive()},
	Field{Name: "http.max_retries", Kind: KindInt, Default: DefaultMaxRetries,
		Description: "Retry attempts for failed requests", Validate: Min(0)},
	Field{Name: "http.retry_delay", Kind: KindFloat, Default: DefaultRetryDelay,
		Description: "Delay between retries in seconds", Validate: MinFloat(0)},
	Field{Name: "http.user_agent", Kind: KindString, Default: DefaultUserAgent,
		Description: "User-Agent header sent with every request", Validate: NotEmpty()},
	Field{Name: "http.enable_compression", Kind: KindBool, Default: true,
		Description: "Accept gzip/deflate encoded responses"},

	// Rate limiting
	Field{Name: "rate_limit.requests_per_second", Kind: KindFloat, Default: DefaultRequestsPerSecond,
		Description: "Sustained request rate per target host", Validate: PositiveFloat()},
	Field{Name: "rate_limit.concurrent_requests", Kind: KindInt, Default: DefaultConcurrentRequests,
		Description: "Maximum simultaneous in-flight requests", Validate: Positive()},
	Field{Name: "rate_limit.respect_robots_txt", Kind: KindBool, Default: true,
		Description: "Honor robots.txt exclusion rules"},

	// Output settings
	Field{Name: "output.format", Kind: KindString, Default: DefaultOutputFormat,
		Description: "Serialization for scraped records", Validate: Enum("json", "csv", "xml", "database")},
	Field{Name: "output.directory", Kind: KindString, Default: DefaultOutputDirectory,
		Description: "Directory scraped records are written to", Validate: Path()},
	Field{Name: "output.filename_template", Kind: KindString, Default: DefaultFilenameTemplate,
		Description: "Template for output file names", Validate: NotEmpty()},

	// Parsing settings
	Field{Name: "parsing.html_parser", Kind: KindString, Default: DefaultHTMLParser,
		Description: "HTML parser backend", Validate: Enum("lxml", "html.parser", "html5lib")},
	Field{Name: "parsing.encoding", Kind: KindString, Default: DefaultEncoding,
		Description: "Character encoding assumed for responses", Validate: NotEmpty()},

	// Session settings
	Field{Name: "session.enable_cookies", Kind: KindBool, Default: true,
		Description: "Keep cookies between requests"},
	Field{Name: "session.persistence", Kind: KindBool, Default: true,
		Description: "Persist session state across runs"},

	// Logging settings
	Field{Name: "logging.level", Kind: KindString, Default: DefaultLogLevel,
		Description: "Minimum severity emitted to the log",
		Validate:    EnumFold("DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL")},
	Field{Name: "logging.file", Kind: KindString, Default: "",
		Description: "Log file path; empty logs to stderr", Validate: OptionalPath()},
	Field{Name: "logging.request_logging", Kind: KindBool, Default: false,
		Description: "Log every outgoing request"},

	// Cache settings
	Field{Name: "cache.enabled", Kind: KindBool, Default: true,
		Description: "Cache fetched pages on disk"},
	Field{Name: "cache.directory", Kind: KindString, Default: DefaultCacheDirectory,
		Description: "Directory for the page cache", Validate: Path()},
	Field{Name: "cache.excluded_domains", Kind: KindStringSet, Default: []string{},
		Description: "Domains never served from cache"},

	// Custom settings
	Field{Name: "custom_headers", Kind: KindStringMap, Default: map[string]string{},
		Description: "Extra HTTP headers sent with every request"},
	Field{Name: "proxy_settings", Kind: KindStringMap, Default: map[string]string{}, Secret: true,
		Description: "Proxy URLs by scheme; may embed credentials"},
)

// Default returns the scraper configuration schema.
func Default() *Schema {
	return defaultSchema
}
