package source

import (
	"reflect"
	"testing"

	"scraperhq/anchor/pkg/conferr"
	"scraperhq/anchor/pkg/confmap"
)

func TestDict(t *testing.T) {
	flat, errs := Dict(map[string]any{
		"http": map[string]any{"max_retries": 5},
		"rate_limit.requests_per_second": 1.5,
	})
	if errs.Len() != 0 {
		t.Fatalf("unexpected violations: %v", errs)
	}

	want := confmap.Map{
		"http.max_retries":               5,
		"rate_limit.requests_per_second": 1.5,
	}
	if !reflect.DeepEqual(flat, want) {
		t.Errorf("Dict() = %v, want %v", flat, want)
	}
}

func TestDictNil(t *testing.T) {
	flat, errs := Dict(nil)
	if errs.Len() != 0 || len(flat) != 0 {
		t.Errorf("Dict(nil) = %v, %v", flat, errs)
	}
}

func TestDictBadShape(t *testing.T) {
	_, errs := Dict(map[string]any{
		"http": map[any]any{42: "x"},
	})
	if len(errs.ByCode(conferr.CodeInvalidShape)) == 0 {
		t.Errorf("expected invalid_shape violation, got %v", errs)
	}
}
