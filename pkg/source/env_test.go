package source

import (
	"reflect"
	"testing"

	"scraperhq/anchor/pkg/confmap"
)

func fixedEnviron(pairs ...string) func() []string {
	return func() []string { return pairs }
}

func TestEnvRead(t *testing.T) {
	tests := []struct {
		name    string
		environ []string
		want    confmap.Map
	}{
		{
			name: "prefix match with nesting",
			environ: []string{
				"SCRAPER_RATE_LIMIT__REQUESTS_PER_SECOND=2",
				"SCRAPER_OUTPUT__FORMAT=csv",
				"HOME=/home/user",
				"SCRAPERX_IGNORED=1",
			},
			want: confmap.Map{
				"rate_limit.requests_per_second": "2",
				"output.format":                  "csv",
			},
		},
		{
			name:    "case-insensitive prefix",
			environ: []string{"scraper_logging__level=debug"},
			want:    confmap.Map{"logging.level": "debug"},
		},
		{
			name:    "map entry addressing",
			environ: []string{"SCRAPER_CUSTOM_HEADERS__ACCEPT=application/json"},
			want:    confmap.Map{"custom_headers.accept": "application/json"},
		},
		{
			name:    "top-level key without separator",
			environ: []string{"SCRAPER_CUSTOM_HEADERS=x"},
			want:    confmap.Map{"custom_headers": "x"},
		},
		{
			name:    "empty value kept",
			environ: []string{"SCRAPER_LOGGING__FILE="},
			want:    confmap.Map{"logging.file": ""},
		},
		{
			name: "malformed names skipped",
			environ: []string{
				"SCRAPER_=1",
				"SCRAPER___DOUBLE=1",
				"SCRAPER_TRAILING__=1",
				"not-an-assignment",
			},
			want: confmap.Map{},
		},
		{
			name:    "no matches",
			environ: []string{"PATH=/bin", "TERM=xterm"},
			want:    confmap.Map{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := NewEnvFrom("SCRAPER_", fixedEnviron(tt.environ...))
			got := env.Read()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Read() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnvValuesStayStrings(t *testing.T) {
	env := NewEnvFrom("SCRAPER_", fixedEnviron("SCRAPER_HTTP__REQUEST_TIMEOUT=45"))
	got := env.Read()

	if _, ok := got["http.request_timeout"].(string); !ok {
		t.Errorf("environment values must stay strings for schema coercion: %T", got["http.request_timeout"])
	}
}
