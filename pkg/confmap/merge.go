package confmap

import (
	"fmt"
	"strings"

	"scraperhq/anchor/pkg/conferr"
)

// Layer is one named source of flat configuration values. The name is kept
// for provenance so that validation failures can report which layer supplied
// an offending value.
type Layer struct {
	// Name identifies the layer: "file", "profile:<name>", "env", "override".
	Name string

	// Values is the layer's flat mapping.
	Values Map
}

// Provenance maps each merged key to the name of the layer that supplied
// its winning value.
type Provenance map[string]string

// MergeLayers overlays the given layers in order; later layers win at leaf
// granularity. A key used as a leaf in one layer and as a branch of deeper
// nesting in another is reported as a path_conflict violation against the
// later layer, and the later entry is discarded so the merge stays total.
func MergeLayers(layers ...Layer) (Map, Provenance, *conferr.List) {
	merged := make(Map)
	prov := make(Provenance)
	errs := &conferr.List{}

	for _, layer := range layers {
		for _, key := range layer.Values.Keys() {
			if v := conflictWith(merged, key); v != "" && v != key {
				errs.Add(&conferr.Violation{
					Code:    conferr.CodePathConflict,
					Field:   key,
					Source:  layer.Name,
					Message: fmt.Sprintf("conflicts with %q from %s", v, prov[v]),
				})
				continue
			}
			merged[key] = layer.Values[key]
			prov[key] = layer.Name
		}
	}

	return merged, prov, errs
}

// conflictWith returns an existing key that collides in kind with the
// candidate: either an existing leaf that is a proper path prefix of the
// candidate, or an existing key of which the candidate is a proper prefix.
// It returns "" (or the candidate itself for a plain override) when there is
// no conflict.
func conflictWith(merged Map, key string) string {
	if _, ok := merged[key]; ok {
		return key // same leaf, plain override
	}
	for existing := range merged {
		if strings.HasPrefix(key, existing+Separator) {
			return existing // existing leaf is a parent of the candidate
		}
		if strings.HasPrefix(existing, key+Separator) {
			return existing // candidate would shadow a deeper branch
		}
	}
	return ""
}
