package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"scraperhq/anchor/pkg/confmap"
)

// Resolved is an immutable, fully typed configuration snapshot: one value
// per schema field, produced by a successful resolution. Accessors return
// copies of composite values, so a Resolved can be shared freely between
// goroutines and collaborators without synchronization.
type Resolved struct {
	id          string
	createdAt   time.Time
	fingerprint string
	schema      *Schema
	values      map[string]any
}

// ID returns the unique identifier of this snapshot.
func (r *Resolved) ID() string { return r.id }

// CreatedAt returns the time the snapshot was resolved.
func (r *Resolved) CreatedAt() time.Time { return r.createdAt }

// Fingerprint returns a SHA-256 hex digest of the canonical value set. Two
// snapshots resolved from identical sources have identical fingerprints.
func (r *Resolved) Fingerprint() string { return r.fingerprint }

// Schema returns the schema the snapshot was resolved against.
func (r *Resolved) Schema() *Schema { return r.schema }

// Equal reports whether two snapshots carry the same values.
func (r *Resolved) Equal(other *Resolved) bool {
	return other != nil && r.fingerprint == other.fingerprint
}

// Value returns the typed value at the given dot-path. For string-map
// fields, entries are addressable as sub-paths ("custom_headers.accept").
func (r *Resolved) Value(path string) (any, bool) {
	if v, ok := r.values[path]; ok {
		return copyValue(v), true
	}
	if f, ok := r.schema.Owner(path); ok && f.Kind == KindStringMap && path != f.Name {
		m, _ := r.values[f.Name].(map[string]string)
		if s, ok := m[path[len(f.Name)+1:]]; ok {
			return s, true
		}
	}
	return nil, false
}

// Int returns the integer value at path.
func (r *Resolved) Int(path string) (int, bool) {
	n, ok := r.values[path].(int)
	return n, ok
}

// Float returns the float value at path.
func (r *Resolved) Float(path string) (float64, bool) {
	f, ok := r.values[path].(float64)
	return f, ok
}

// Bool returns the boolean value at path.
func (r *Resolved) Bool(path string) (bool, bool) {
	b, ok := r.values[path].(bool)
	return b, ok
}

// String returns the string value at path.
func (r *Resolved) String(path string) (string, bool) {
	s, ok := r.values[path].(string)
	return s, ok
}

// StringSet returns a copy of the string-set value at path.
func (r *Resolved) StringSet(path string) ([]string, bool) {
	set, ok := r.values[path].([]string)
	if !ok {
		return nil, false
	}
	out := make([]string, len(set))
	copy(out, set)
	return out, true
}

// StringMap returns a copy of the string-map value at path.
func (r *Resolved) StringMap(path string) (map[string]string, bool) {
	m, ok := r.values[path].(map[string]string)
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out, true
}

// Export returns the snapshot as a flat mapping. Secret fields are omitted
// unless includeSecrets is set.
func (r *Resolved) Export(includeSecrets bool) confmap.Map {
	out := make(confmap.Map, len(r.values))
	for _, f := range r.schema.fields {
		if f.Secret && !includeSecrets {
			continue
		}
		out[f.Name] = copyValue(r.values[f.Name])
	}
	return out
}

// copyValue deep-copies composite values so callers cannot mutate the
// snapshot through an accessor.
func copyValue(v any) any {
	switch tv := v.(type) {
	case []string:
		out := make([]string, len(tv))
		copy(out, tv)
		return out
	case map[string]string:
		out := make(map[string]string, len(tv))
		for k, s := range tv {
			out[k] = s
		}
		return out
	default:
		return v
	}
}

// fingerprint renders the value set in schema field order and hashes it.
// Composite values are rendered sorted so the digest is deterministic.
func fingerprint(s *Schema, values map[string]any) string {
	h := sha256.New()
	for _, f := range s.fields {
		fmt.Fprintf(h, "%s=%s\n", f.Name, canonicalString(values[f.Name]))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func canonicalString(v any) string {
	switch tv := v.(type) {
	case []string:
		return "[" + strings.Join(tv, ",") + "]"
	case map[string]string:
		keys := make([]string, 0, len(tv))
		for k := range tv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var sb strings.Builder
		sb.WriteString("{")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, "%s=%s", k, tv[k])
		}
		sb.WriteString("}")
		return sb.String()
	case float64:
		return fmt.Sprintf("%g", tv)
	default:
		return fmt.Sprintf("%v", tv)
	}
}
