package schema

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"scraperhq/anchor/pkg/conferr"
	"scraperhq/anchor/pkg/confmap"
)

// sourceDefaults names the implicit lowest-precedence layer.
const sourceDefaults = "defaults"

// Resolve checks a merged mapping against the schema and builds a Resolved
// snapshot. Every field is coerced to its kind and validated; fields absent
// from the mapping fall back to their defaults. All violations found in the
// pass are collected. Keys that belong to no field are reported as
// unknown_key, which is fatal only in strict mode.
//
// On a fatal violation list the snapshot is nil. On success the returned
// list may still carry unknown-key warnings.
func (s *Schema) Resolve(merged confmap.Map, prov confmap.Provenance, strict bool) (*Resolved, *conferr.List) {
	errs := &conferr.List{}
	values := make(map[string]any, len(s.fields))
	claimed := make(map[string]bool, len(merged))

	for _, f := range s.fields {
		value, ok := s.gather(f, merged, prov, claimed, errs)
		if !ok {
			continue
		}
		if f.Validate != nil {
			if v := f.Validate(value); v != nil {
				v.Field = f.Name
				if v.Source == "" {
					v.Source = sourceOf(prov, f.Name)
				}
				errs.Add(v)
				continue
			}
		}
		values[f.Name] = value
	}

	for _, key := range merged.Keys() {
		if !claimed[key] {
			errs.Add(&conferr.Violation{
				Code:    conferr.CodeUnknownKey,
				Field:   key,
				Source:  prov[key],
				Message: "key is not defined in the schema",
			})
		}
	}

	if errs.Fatal(strict) {
		return nil, errs
	}
	return newResolved(s, values), errs
}

// gather extracts and coerces the value for one field, marking the merged
// keys it consumes. It returns false when a violation was recorded.
func (s *Schema) gather(f Field, merged confmap.Map, prov confmap.Provenance, claimed map[string]bool, errs *conferr.List) (any, bool) {
	if f.Kind == KindStringMap {
		return s.gatherStringMap(f, merged, prov, claimed, errs)
	}

	raw, ok := merged[f.Name]
	if !ok {
		return canonicalDefault(f), true
	}
	claimed[f.Name] = true

	value, v := coerce(f.Kind, raw)
	if v != nil {
		v.Field = f.Name
		v.Source = sourceOf(prov, f.Name)
		errs.Add(v)
		return nil, false
	}
	return value, true
}

// gatherStringMap assembles a string-map field from a direct leaf value
// and/or individually addressed entries (field.key = value). Entry keys win
// over the leaf so that a single overridden header never discards siblings.
func (s *Schema) gatherStringMap(f Field, merged confmap.Map, prov confmap.Provenance, claimed map[string]bool, errs *conferr.List) (any, bool) {
	result := make(map[string]string)
	found := false
	failed := false

	if raw, ok := merged[f.Name]; ok {
		claimed[f.Name] = true
		found = true
		if leaf, v := coerceStringMap(raw); v != nil {
			v.Field = f.Name
			v.Source = sourceOf(prov, f.Name)
			errs.Add(v)
			failed = true
		} else {
			for k, s := range leaf {
				result[k] = s
			}
		}
	}

	prefix := f.Name + confmap.Separator
	for _, key := range merged.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		claimed[key] = true
		found = true
		entry := key[len(prefix):]
		str, v := coerceScalarString(merged[key])
		if v != nil {
			v.Field = key
			v.Source = sourceOf(prov, key)
			v.Expected = "string value"
			errs.Add(v)
			failed = true
			continue
		}
		result[entry] = str
	}

	if failed {
		return nil, false
	}
	if !found {
		return canonicalDefault(f), true
	}
	return result, true
}

func sourceOf(prov confmap.Provenance, key string) string {
	if src, ok := prov[key]; ok {
		return src
	}
	return sourceDefaults
}

// canonicalDefault copies a field default into its canonical representation
// so snapshots never alias schema-owned maps or slices.
func canonicalDefault(f Field) any {
	switch f.Kind {
	case KindStringSet:
		in, _ := f.Default.([]string)
		out := make([]string, len(in))
		copy(out, in)
		sort.Strings(out)
		return out
	case KindStringMap:
		in, _ := f.Default.(map[string]string)
		out := make(map[string]string, len(in))
		for k, v := range in {
			out[k] = v
		}
		return out
	default:
		return f.Default
	}
}

// coerce converts a raw merged value into the canonical Go type for a kind.
// Strings are always accepted and parsed, because environment variables
// arrive untyped.
func coerce(kind Kind, raw any) (any, *conferr.Violation) {
	switch kind {
	case KindInt:
		switch n := raw.(type) {
		case int:
			return n, nil
		case int64:
			if n >= math.MinInt && n <= math.MaxInt {
				return int(n), nil
			}
		case uint64:
			if n <= math.MaxInt {
				return int(n), nil
			}
		case float64:
			if n == float64(int(n)) {
				return int(n), nil
			}
		case string:
			if parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
				return int(parsed), nil
			}
		}
	case KindFloat:
		switch n := raw.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case string:
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
				return parsed, nil
			}
		}
	case KindBool:
		switch b := raw.(type) {
		case bool:
			return b, nil
		case string:
			if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
				return parsed, nil
			}
		}
	case KindString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	case KindStringSet:
		return coerceStringSet(raw)
	case KindStringMap:
		m, v := coerceStringMap(raw)
		if v != nil {
			return nil, v
		}
		return m, nil
	}
	return nil, &conferr.Violation{
		Code:     conferr.CodeTypeMismatch,
		Expected: kind.String(),
		Actual:   renderRaw(raw),
	}
}

// coerceStringSet accepts a slice of strings or a comma-separated string
// (the environment form) and returns a sorted, de-duplicated slice.
func coerceStringSet(raw any) (any, *conferr.Violation) {
	var items []string
	switch list := raw.(type) {
	case []string:
		items = list
	case []any:
		for _, e := range list {
			s, ok := e.(string)
			if !ok {
				return nil, &conferr.Violation{
					Code:     conferr.CodeTypeMismatch,
					Expected: "string set",
					Actual:   renderRaw(raw),
				}
			}
			items = append(items, s)
		}
	case string:
		for _, part := range strings.Split(list, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				items = append(items, trimmed)
			}
		}
	default:
		return nil, &conferr.Violation{
			Code:     conferr.CodeTypeMismatch,
			Expected: "string set",
			Actual:   renderRaw(raw),
		}
	}

	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

// coerceStringMap accepts a mapping whose values are all strings.
func coerceStringMap(raw any) (map[string]string, *conferr.Violation) {
	out := make(map[string]string)
	switch m := raw.(type) {
	case map[string]string:
		for k, v := range m {
			out[k] = v
		}
	case map[string]any:
		for k, v := range m {
			s, sv := coerceScalarString(v)
			if sv != nil {
				return nil, &conferr.Violation{
					Code:     conferr.CodeInvalidShape,
					Expected: "string-to-string mapping",
					Actual:   fmt.Sprintf("%s value for entry %q", renderRaw(v), k),
				}
			}
			out[k] = s
		}
	default:
		return nil, &conferr.Violation{
			Code:     conferr.CodeInvalidShape,
			Expected: "string-to-string mapping",
			Actual:   renderRaw(raw),
		}
	}
	return out, nil
}

// coerceScalarString accepts only string values.
func coerceScalarString(raw any) (string, *conferr.Violation) {
	if s, ok := raw.(string); ok {
		return s, nil
	}
	return "", &conferr.Violation{
		Code:   conferr.CodeTypeMismatch,
		Actual: renderRaw(raw),
	}
}

func renderRaw(raw any) string {
	switch raw.(type) {
	case string:
		return fmt.Sprintf("%q", raw)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v (%T)", raw, raw)
	}
}

// newResolved stamps a snapshot with identity and fingerprint.
func newResolved(s *Schema, values map[string]any) *Resolved {
	return &Resolved{
		id:          uuid.New().String(),
		createdAt:   time.Now().UTC(),
		schema:      s,
		values:      values,
		fingerprint: fingerprint(s, values),
	}
}
