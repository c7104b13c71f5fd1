package confmap

import (
	"fmt"
	"sort"
	"strings"

	"scraperhq/anchor/pkg/conferr"
)

// Separator joins path segments in a flattened key.
const Separator = "."

// Map is a flat mapping from dot-path keys to untyped values.
type Map map[string]any

// Clone returns a shallow copy of the map.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Keys returns the keys in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WithPrefix returns the entries whose key equals prefix or starts with
// prefix followed by the separator. Keys in the result keep their full path.
func (m Map) WithPrefix(prefix string) Map {
	out := make(Map)
	for k, v := range m {
		if k == prefix || strings.HasPrefix(k, prefix+Separator) {
			out[k] = v
		}
	}
	return out
}

// SplitPath splits a dot-path into its segments. Empty segments (leading,
// trailing, or doubled separators) make a path invalid.
func SplitPath(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("empty path")
	}
	segs := strings.Split(path, Separator)
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("invalid path %q: empty segment", path)
		}
	}
	return segs, nil
}

// Flatten converts a nested document into a flat Map. Map values are
// descended into; everything else, including slices, is a leaf. Keys that
// already contain the separator contribute multiple path segments.
func Flatten(nested map[string]any) (Map, *conferr.List) {
	out := make(Map)
	errs := &conferr.List{}
	flattenInto(out, "", nested, errs)
	return out, errs
}

func flattenInto(out Map, prefix string, value any, errs *conferr.List) {
	switch node := value.(type) {
	case map[string]any:
		if len(node) == 0 && prefix != "" {
			// An explicitly empty mapping is a leaf so that callers can
			// distinguish "set to empty" from "absent".
			setLeaf(out, prefix, map[string]any{}, errs)
			return
		}
		for k, v := range node {
			key := k
			if prefix != "" {
				key = prefix + Separator + k
			}
			flattenInto(out, key, v, errs)
		}
	case map[any]any:
		// yaml.v3 produces map[string]any for string keys, but guard
		// against non-string keyed mappings from programmatic input.
		converted := make(map[string]any, len(node))
		for k, v := range node {
			ks, ok := k.(string)
			if !ok {
				errs.Add(&conferr.Violation{
					Code:    conferr.CodeInvalidShape,
					Field:   prefix,
					Message: fmt.Sprintf("mapping key %v is not a string", k),
				})
				continue
			}
			converted[ks] = v
		}
		flattenInto(out, prefix, converted, errs)
	default:
		if prefix == "" {
			errs.Add(&conferr.Violation{
				Code:    conferr.CodeInvalidShape,
				Message: "top-level document is not a mapping",
				Actual:  fmt.Sprintf("%T", value),
			})
			return
		}
		setLeaf(out, prefix, value, errs)
	}
}

// setLeaf writes a flattened leaf. A document can spell the same dot-path
// two ways, as a dotted key and as an equivalent nested mapping; since map
// iteration order would decide the winner, the duplicate is reported as a
// path_conflict instead of silently overwritten.
func setLeaf(out Map, key string, value any, errs *conferr.List) {
	if _, exists := out[key]; exists {
		errs.Add(&conferr.Violation{
			Code:    conferr.CodePathConflict,
			Field:   key,
			Message: "key is defined more than once",
		})
		return
	}
	out[key] = value
}

// Expand converts a flat Map back into a nested document. Conflicting
// leaf/branch paths surface as path_conflict violations.
func Expand(flat Map) (map[string]any, *conferr.List) {
	out := make(map[string]any)
	errs := &conferr.List{}

	for _, key := range flat.Keys() {
		segs, err := SplitPath(key)
		if err != nil {
			errs.Add(&conferr.Violation{
				Code:    conferr.CodeInvalidShape,
				Field:   key,
				Message: err.Error(),
			})
			continue
		}

		node := out
		conflict := false
		for _, seg := range segs[:len(segs)-1] {
			child, ok := node[seg]
			if !ok {
				next := make(map[string]any)
				node[seg] = next
				node = next
				continue
			}
			next, ok := child.(map[string]any)
			if !ok {
				errs.Add(&conferr.Violation{
					Code:    conferr.CodePathConflict,
					Field:   key,
					Message: fmt.Sprintf("path segment %q is already a leaf value", seg),
				})
				conflict = true
				break
			}
			node = next
		}
		if conflict {
			continue
		}

		leaf := segs[len(segs)-1]
		if _, exists := node[leaf]; exists {
			errs.Add(&conferr.Violation{
				Code:    conferr.CodePathConflict,
				Field:   key,
				Message: "path is already a branch of further nesting",
			})
			continue
		}
		node[leaf] = flat[key]
	}

	return out, errs
}
