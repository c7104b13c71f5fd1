package confmap

import (
	"reflect"
	"testing"

	"scraperhq/anchor/pkg/conferr"
)

func TestFlatten(t *testing.T) {
	tests := []struct {
		name   string
		nested map[string]any
		want   Map
	}{
		{
			name:   "empty document",
			nested: map[string]any{},
			want:   Map{},
		},
		{
			name: "flat keys pass through",
			nested: map[string]any{
				"custom_headers": map[string]any{"accept": "text/html"},
			},
			want: Map{"custom_headers.accept": "text/html"},
		},
		{
			name: "nested sections",
			nested: map[string]any{
				"http": map[string]any{
					"request_timeout": 30,
					"max_retries":     3,
				},
				"output": map[string]any{"format": "json"},
			},
			want: Map{
				"http.request_timeout": 30,
				"http.max_retries":     3,
				"output.format":        "json",
			},
		},
		{
			name: "slices are leaves",
			nested: map[string]any{
				"cache": map[string]any{
					"excluded_domains": []any{"example.com", "example.org"},
				},
			},
			want: Map{"cache.excluded_domains": []any{"example.com", "example.org"}},
		},
		{
			name: "empty mapping is a leaf",
			nested: map[string]any{
				"proxy_settings": map[string]any{},
			},
			want: Map{"proxy_settings": map[string]any{}},
		},
		{
			name: "dotted keys contribute segments",
			nested: map[string]any{
				"rate_limit.requests_per_second": 2.5,
			},
			want: Map{"rate_limit.requests_per_second": 2.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := Flatten(tt.nested)
			if errs.Len() != 0 {
				t.Fatalf("unexpected violations: %v", errs)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Flatten() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlattenNonStringKey(t *testing.T) {
	nested := map[string]any{
		"http": map[any]any{
			"request_timeout": 30,
			42:                "bogus",
		},
	}
	got, errs := Flatten(nested)

	if len(errs.ByCode(conferr.CodeInvalidShape)) != 1 {
		t.Fatalf("expected one invalid_shape violation, got %v", errs)
	}
	// The valid sibling still flattens.
	if got["http.request_timeout"] != 30 {
		t.Errorf("valid entries should survive: %v", got)
	}
}

func TestFlattenDuplicateKey(t *testing.T) {
	// The same leaf spelled as a dotted key and as a nested mapping.
	nested := map[string]any{
		"rate_limit.requests_per_second": 1.0,
		"rate_limit":                     map[string]any{"requests_per_second": 2.0},
	}

	_, errs := Flatten(nested)
	conflicts := errs.ByCode(conferr.CodePathConflict)
	if len(conflicts) != 1 {
		t.Fatalf("expected one path_conflict violation, got %v", errs)
	}
	if conflicts[0].Field != "rate_limit.requests_per_second" {
		t.Errorf("violation field = %q", conflicts[0].Field)
	}
	if !errs.Fatal(false) {
		t.Error("duplicate key must fail resolution")
	}
}

func TestExpandRoundTrip(t *testing.T) {
	flat := Map{
		"http.request_timeout":           30,
		"http.user_agent":                "WebScraper/1.0",
		"rate_limit.requests_per_second": 1.5,
		"custom_headers":                 map[string]string{"accept": "text/html"},
	}

	nested, errs := Expand(flat)
	if errs.Len() != 0 {
		t.Fatalf("unexpected violations: %v", errs)
	}

	back, errs := Flatten(nested)
	if errs.Len() != 0 {
		t.Fatalf("unexpected violations on re-flatten: %v", errs)
	}

	// map[string]string is a non-map leaf for Flatten, so the round trip
	// preserves every key.
	if !reflect.DeepEqual(back, flat) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", back, flat)
	}
}

func TestExpandConflicts(t *testing.T) {
	tests := []struct {
		name string
		flat Map
	}{
		{
			name: "leaf then branch",
			flat: Map{"http": "oops", "http.request_timeout": 30},
		},
		{
			name: "branch then leaf",
			flat: Map{"http.request_timeout": 30, "http": "oops"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := Expand(tt.flat)
			if len(errs.ByCode(conferr.CodePathConflict)) == 0 {
				t.Errorf("expected path_conflict violation, got %v", errs)
			}
		})
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path    string
		want    []string
		wantErr bool
	}{
		{path: "http.request_timeout", want: []string{"http", "request_timeout"}},
		{path: "single", want: []string{"single"}},
		{path: "", wantErr: true},
		{path: ".leading", wantErr: true},
		{path: "trailing.", wantErr: true},
		{path: "double..dot", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := SplitPath(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("SplitPath(%q) expected error", tt.path)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitPath(%q) unexpected error: %v", tt.path, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestMapHelpers(t *testing.T) {
	m := Map{"b.x": 1, "a": 2, "b.y": 3}

	if got := m.Keys(); !reflect.DeepEqual(got, []string{"a", "b.x", "b.y"}) {
		t.Errorf("Keys() = %v, not sorted", got)
	}

	clone := m.Clone()
	clone["a"] = 99
	if m["a"] != 2 {
		t.Error("Clone() should not share storage")
	}

	sub := m.WithPrefix("b")
	if !reflect.DeepEqual(sub, Map{"b.x": 1, "b.y": 3}) {
		t.Errorf("WithPrefix(b) = %v", sub)
	}
	if got := m.WithPrefix("b.x"); !reflect.DeepEqual(got, Map{"b.x": 1}) {
		t.Errorf("WithPrefix(b.x) = %v", got)
	}
}
