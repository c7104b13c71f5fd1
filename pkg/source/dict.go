package source

import (
	"scraperhq/anchor/pkg/conferr"
	"scraperhq/anchor/pkg/confmap"
)

// Dict flattens an already-nested in-memory mapping into dot-paths, the
// same transformation the file reader applies to parsed documents. It backs
// profiles and programmatic overrides. Keys that already contain dots are
// treated as path segments, so callers may mix nested and flat spellings.
func Dict(nested map[string]any) (confmap.Map, *conferr.List) {
	if nested == nil {
		return confmap.Map{}, &conferr.List{}
	}
	return confmap.Flatten(nested)
}
