package resolver

import (
	"sort"
	"sync"

	"scraperhq/anchor/pkg/conferr"
	"scraperhq/anchor/pkg/confmap"
	"scraperhq/anchor/pkg/source"
)

// profileStore holds named configuration profiles. Profiles are defined as
// nested mappings and stored flattened; redefining a name replaces the
// previous definition wholesale.
type profileStore struct {
	mu       sync.RWMutex
	profiles map[string]confmap.Map
	active   string
}

func newProfileStore() *profileStore {
	return &profileStore{profiles: make(map[string]confmap.Map)}
}

// define stores a profile. Shape problems in the mapping (branch/leaf
// conflicts) are reported immediately so a broken profile can never be
// activated later.
func (p *profileStore) define(name string, values map[string]any) *conferr.List {
	flat, errs := source.Dict(values)
	if errs.Fatal(false) {
		return errs
	}

	p.mu.Lock()
	p.profiles[name] = flat
	p.mu.Unlock()
	return errs
}

// get returns a copy of a profile's flat values.
func (p *profileStore) get(name string) (confmap.Map, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	flat, ok := p.profiles[name]
	if !ok {
		return nil, false
	}
	return flat.Clone(), true
}

// names returns the defined profile names, sorted.
func (p *profileStore) names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.profiles))
	for name := range p.profiles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// activeName returns the currently active profile name, empty when none.
func (p *profileStore) activeName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active
}

// activeLayer returns the merge layer for the active profile, or false when
// no profile is active.
func (p *profileStore) activeLayer() (confmap.Layer, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.active == "" {
		return confmap.Layer{}, false
	}
	flat := p.profiles[p.active]
	return confmap.Layer{Name: "profile:" + p.active, Values: flat.Clone()}, true
}

// setActive switches the active profile. It does not validate existence;
// callers check with get first.
func (p *profileStore) setActive(name string) {
	p.mu.Lock()
	p.active = name
	p.mu.Unlock()
}
