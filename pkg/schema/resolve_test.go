package schema

import (
	"math"
	"reflect"
	"testing"

	"scraperhq/anchor/pkg/conferr"
	"scraperhq/anchor/pkg/confmap"
)

func TestResolveDefaultsOnly(t *testing.T) {
	s := Default()

	res, errs := s.Resolve(confmap.Map{}, confmap.Provenance{}, false)
	if res == nil {
		t.Fatalf("resolution with no sources should succeed: %v", errs)
	}
	if errs.Len() != 0 {
		t.Errorf("unexpected violations: %v", errs)
	}

	if n, _ := res.Int("http.request_timeout"); n != DefaultRequestTimeout {
		t.Errorf("http.request_timeout = %d, want %d", n, DefaultRequestTimeout)
	}
	if f, _ := res.Float("rate_limit.requests_per_second"); f != DefaultRequestsPerSecond {
		t.Errorf("rate_limit.requests_per_second = %g, want %g", f, DefaultRequestsPerSecond)
	}
	if v, _ := res.String("output.format"); v != DefaultOutputFormat {
		t.Errorf("output.format = %q, want %q", v, DefaultOutputFormat)
	}
	if b, _ := res.Bool("session.enable_cookies"); !b {
		t.Error("session.enable_cookies default should be true")
	}
	if set, _ := res.StringSet("cache.excluded_domains"); len(set) != 0 {
		t.Errorf("cache.excluded_domains default should be empty: %v", set)
	}
	if m, _ := res.StringMap("custom_headers"); len(m) != 0 {
		t.Errorf("custom_headers default should be empty: %v", m)
	}
}

func TestResolveCoercion(t *testing.T) {
	s := Default()

	tests := []struct {
		name string
		key  string
		raw  any
		want any
	}{
		{name: "int from string", key: "http.request_timeout", raw: "45", want: 45},
		{name: "int from float", key: "http.max_retries", raw: float64(4), want: 4},
		{name: "float from string", key: "http.retry_delay", raw: "2.5", want: 2.5},
		{name: "float from int", key: "rate_limit.requests_per_second", raw: 3, want: 3.0},
		{name: "bool from string", key: "cache.enabled", raw: "false", want: false},
		{name: "bool native", key: "session.persistence", raw: false, want: false},
		{name: "string", key: "http.user_agent", raw: "Custom/2.0", want: "Custom/2.0"},
		{
			name: "set from comma string",
			key:  "cache.excluded_domains",
			raw:  "example.org, example.com ,example.org",
			want: []string{"example.com", "example.org"},
		},
		{
			name: "set from slice",
			key:  "cache.excluded_domains",
			raw:  []any{"b.test", "a.test"},
			want: []string{"a.test", "b.test"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, errs := s.Resolve(confmap.Map{tt.key: tt.raw}, confmap.Provenance{tt.key: "env"}, false)
			if res == nil {
				t.Fatalf("resolution failed: %v", errs)
			}
			got, ok := res.Value(tt.key)
			if !ok {
				t.Fatalf("value %q missing", tt.key)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Value(%q) = %#v, want %#v", tt.key, got, tt.want)
			}
		})
	}
}

func TestResolveViolations(t *testing.T) {
	s := Default()

	tests := []struct {
		name     string
		merged   confmap.Map
		wantCode conferr.Code
		wantKey  string
	}{
		{
			name:     "type mismatch",
			merged:   confmap.Map{"http.request_timeout": "soon"},
			wantCode: conferr.CodeTypeMismatch,
			wantKey:  "http.request_timeout",
		},
		{
			name:     "fractional value for int field",
			merged:   confmap.Map{"http.max_retries": 2.5},
			wantCode: conferr.CodeTypeMismatch,
			wantKey:  "http.max_retries",
		},
		{
			name:     "unsigned value beyond int range",
			merged:   confmap.Map{"http.max_retries": uint64(math.MaxUint64)},
			wantCode: conferr.CodeTypeMismatch,
			wantKey:  "http.max_retries",
		},
		{
			name:     "out of range",
			merged:   confmap.Map{"http.request_timeout": -1},
			wantCode: conferr.CodeOutOfRange,
			wantKey:  "http.request_timeout",
		},
		{
			name:     "zero rate",
			merged:   confmap.Map{"rate_limit.requests_per_second": 0},
			wantCode: conferr.CodeOutOfRange,
			wantKey:  "rate_limit.requests_per_second",
		},
		{
			name:     "invalid enum",
			merged:   confmap.Map{"output.format": "parquet"},
			wantCode: conferr.CodeInvalidEnum,
			wantKey:  "output.format",
		},
		{
			name:     "invalid path",
			merged:   confmap.Map{"cache.directory": "bad\x00path"},
			wantCode: conferr.CodeInvalidPath,
			wantKey:  "cache.directory",
		},
		{
			name:     "invalid map shape",
			merged:   confmap.Map{"custom_headers": "not-a-map"},
			wantCode: conferr.CodeInvalidShape,
			wantKey:  "custom_headers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, errs := s.Resolve(tt.merged, confmap.Provenance{tt.wantKey: "file"}, false)
			if res != nil {
				t.Fatal("resolution should fail")
			}
			found := errs.ByCode(tt.wantCode)
			if len(found) != 1 {
				t.Fatalf("expected one %s violation, got %v", tt.wantCode, errs)
			}
			if found[0].Field != tt.wantKey {
				t.Errorf("violation field = %q, want %q", found[0].Field, tt.wantKey)
			}
			if found[0].Source != "file" {
				t.Errorf("violation source = %q, want file", found[0].Source)
			}
		})
	}
}

func TestResolveCollectsAllViolations(t *testing.T) {
	s := Default()

	merged := confmap.Map{
		"http.request_timeout": -5,
		"output.format":        "parquet",
		"http.max_retries":     "several",
	}
	res, errs := s.Resolve(merged, confmap.Provenance{}, false)
	if res != nil {
		t.Fatal("resolution should fail")
	}
	if errs.Len() != 3 {
		t.Errorf("expected all 3 violations reported together, got %d: %v", errs.Len(), errs)
	}
}

func TestResolveCaseInsensitiveLogLevel(t *testing.T) {
	s := Default()

	for _, level := range []string{"debug", "Info", "WARNING"} {
		res, errs := s.Resolve(confmap.Map{"logging.level": level}, confmap.Provenance{}, false)
		if res == nil {
			t.Errorf("logging.level=%q should be accepted: %v", level, errs)
		}
	}
}

func TestResolveUnknownKey(t *testing.T) {
	s := Default()
	merged := confmap.Map{"experimental.turbo": true}
	prov := confmap.Provenance{"experimental.turbo": "file"}

	// Lenient: resolves with a warning.
	res, errs := s.Resolve(merged, prov, false)
	if res == nil {
		t.Fatalf("unknown key should only warn in lenient mode: %v", errs)
	}
	warnings := errs.Warnings()
	if len(warnings) != 1 || warnings[0].Code != conferr.CodeUnknownKey {
		t.Fatalf("expected one unknown_key warning, got %v", errs)
	}
	if warnings[0].Field != "experimental.turbo" {
		t.Errorf("warning field = %q", warnings[0].Field)
	}

	// Strict: fatal.
	res, errs = s.Resolve(merged, prov, true)
	if res != nil {
		t.Error("unknown key should be fatal in strict mode")
	}
	if len(errs.ByCode(conferr.CodeUnknownKey)) != 1 {
		t.Errorf("expected unknown_key violation, got %v", errs)
	}
}

func TestResolveStringMapEntries(t *testing.T) {
	s := Default()

	// Entry keys layer over the direct leaf map.
	merged := confmap.Map{
		"custom_headers":           map[string]any{"accept": "text/html", "referer": "https://example.com"},
		"custom_headers.accept":    "application/json",
		"custom_headers.x-request": "abc",
	}
	res, errs := s.Resolve(merged, confmap.Provenance{}, false)
	if res == nil {
		t.Fatalf("resolution failed: %v", errs)
	}

	headers, _ := res.StringMap("custom_headers")
	want := map[string]string{
		"accept":    "application/json",
		"referer":   "https://example.com",
		"x-request": "abc",
	}
	if !reflect.DeepEqual(headers, want) {
		t.Errorf("custom_headers = %v, want %v", headers, want)
	}

	// Entries are addressable as sub-paths.
	if v, ok := res.Value("custom_headers.accept"); !ok || v != "application/json" {
		t.Errorf("Value(custom_headers.accept) = %v, %v", v, ok)
	}
}

func TestResolveDefaultsIsolatedFromMutation(t *testing.T) {
	s := Default()

	res, _ := s.Resolve(confmap.Map{}, confmap.Provenance{}, false)
	m, _ := res.StringMap("custom_headers")
	m["injected"] = "oops"

	res2, _ := s.Resolve(confmap.Map{}, confmap.Provenance{}, false)
	if m2, _ := res2.StringMap("custom_headers"); len(m2) != 0 {
		t.Errorf("mutating an accessor result leaked into defaults: %v", m2)
	}
}
