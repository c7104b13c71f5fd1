// Package confmap implements the flat dot-path representation of
// configuration data and the precedence-ordered merge over it.
//
// Nested documents (parsed YAML/JSON, programmatic dictionaries) are
// flattened so that every leaf is addressed by a single dot-path, e.g.
//
//	{rate_limit: {requests_per_second: 2}}
//
// becomes
//
//	"rate_limit.requests_per_second": 2
//
// Slices and non-map scalars are leaves; maps are descended into. Expand
// reverses the transformation for serialization.
//
// MergeLayers overlays flat maps in precedence order (later layers win) at
// leaf granularity: overriding one leaf never clobbers its siblings. A path
// that is used as a leaf in one layer and as a branch in another is a
// path_conflict violation, never a silent overwrite.
package confmap
