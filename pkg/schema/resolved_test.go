package schema

import (
	"testing"

	"scraperhq/anchor/pkg/confmap"
)

func mustResolve(t *testing.T, merged confmap.Map) *Resolved {
	t.Helper()
	res, errs := Default().Resolve(merged, confmap.Provenance{}, false)
	if res == nil {
		t.Fatalf("resolution failed: %v", errs)
	}
	return res
}

func TestFingerprintStability(t *testing.T) {
	merged := confmap.Map{
		"http.request_timeout":   45,
		"custom_headers.accept":  "text/html",
		"cache.excluded_domains": []any{"b.test", "a.test"},
	}

	a := mustResolve(t, merged)
	b := mustResolve(t, merged)

	if a.ID() == b.ID() {
		t.Error("distinct snapshots should have distinct IDs")
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical sources should produce identical fingerprints")
	}
	if !a.Equal(b) {
		t.Error("Equal should hold for identical value sets")
	}

	c := mustResolve(t, confmap.Map{"http.request_timeout": 46})
	if a.Equal(c) {
		t.Error("different values should produce different fingerprints")
	}
	if a.Equal(nil) {
		t.Error("Equal(nil) should be false")
	}
}

func TestResolvedAccessorTypes(t *testing.T) {
	res := mustResolve(t, confmap.Map{})

	if _, ok := res.Int("output.format"); ok {
		t.Error("Int on a string field should report no value")
	}
	if _, ok := res.String("http.request_timeout"); ok {
		t.Error("String on an int field should report no value")
	}
	if _, ok := res.Value("no.such.key"); ok {
		t.Error("Value on an unknown path should report no value")
	}
}

func TestResolvedExportOmitsSecrets(t *testing.T) {
	res := mustResolve(t, confmap.Map{
		"proxy_settings": map[string]any{"http": "http://user:pw@proxy:3128"},
		"custom_headers": map[string]any{"accept": "text/html"},
	})

	safe := res.Export(false)
	if _, ok := safe["proxy_settings"]; ok {
		t.Error("secret field exported without includeSecrets")
	}
	if _, ok := safe["custom_headers"]; !ok {
		t.Error("non-secret field missing from export")
	}

	full := res.Export(true)
	proxies, ok := full["proxy_settings"].(map[string]string)
	if !ok || proxies["http"] != "http://user:pw@proxy:3128" {
		t.Errorf("includeSecrets export missing proxy settings: %v", full["proxy_settings"])
	}

	// Exported composites are copies.
	proxies["http"] = "tampered"
	if m, _ := res.StringMap("proxy_settings"); m["http"] == "tampered" {
		t.Error("export shares storage with the snapshot")
	}
}

func TestResolvedCreatedAt(t *testing.T) {
	res := mustResolve(t, confmap.Map{})
	if res.CreatedAt().IsZero() {
		t.Error("CreatedAt should be stamped")
	}
	if res.Schema() != Default() {
		t.Error("Schema should return the resolving schema")
	}
}
