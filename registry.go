package testsize

import (
	"sort"
	"strings"
	"sync"

	"github.com/phrazzld/testsize/internal/selector"
)

// Unit is a snapshot of the tags recorded for one test unit.
type Unit struct {
	// Name is the full test name as reported by testing.TB.Name.
	Name string `json:"name"`
	// Tags is the effective tag set, including inherited tags.
	Tags []string `json:"tags"`
	// Applications lists every marker application on the unit itself, in
	// call order. A tag applied twice appears twice.
	Applications []string `json:"applications,omitempty"`
}

// Registry records marker applications per test unit. It is safe for
// concurrent use by parallel tests.
type Registry struct {
	mu          sync.RWMutex
	units       map[string][]Tag
	packageTags Set

	selMu     sync.Mutex
	sel       *selector.Selector
	selErr    error
	selLoaded bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{units: make(map[string][]Tag)}
}

// DefaultRegistry is the registry used by the marker functions.
var DefaultRegistry = NewRegistry()

// Record appends one application per tag to the unit named name.
func (r *Registry) Record(name string, tags ...Tag) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units[name] = append(r.units[name], tags...)
}

// SetPackageTags attaches tags to every unit in the registry, including units
// recorded later.
func (r *Registry) SetPackageTags(tags ...Tag) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packageTags.Add(tags...)
}

// Lookup returns the effective tags of the unit named name: its own tags,
// those of every ancestor test, and the package tags.
func (r *Registry) Lookup(name string) Set {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(name)
}

func (r *Registry) lookupLocked(name string) Set {
	out := NewSet(r.packageTags.Sorted()...)
	for _, prefix := range ancestry(name) {
		out.Add(r.units[prefix]...)
	}
	return out
}

// Applications returns the tags applied directly to the unit, in call order.
func (r *Registry) Applications(name string) []Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	apps := r.units[name]
	out := make([]Tag, len(apps))
	copy(out, apps)
	return out
}

// Units returns a snapshot of every recorded unit sorted by name.
func (r *Registry) Units() []Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.units))
	for name := range r.units {
		names = append(names, name)
	}
	sort.Strings(names)

	units := make([]Unit, 0, len(names))
	for _, name := range names {
		apps := make([]string, len(r.units[name]))
		for i, t := range r.units[name] {
			apps[i] = string(t)
		}
		units = append(units, Unit{
			Name:         name,
			Tags:         r.lookupLocked(name).Strings(),
			Applications: apps,
		})
	}
	return units
}

// Reset forgets every recorded unit and the package tags.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units = make(map[string][]Tag)
	r.packageTags = Set{}
}

// ancestry returns name and each of its parent test names, outermost first:
// "A/b/c" yields "A", "A/b", "A/b/c".
func ancestry(name string) []string {
	parts := strings.Split(name, "/")
	out := make([]string, len(parts))
	for i := range parts {
		out[i] = strings.Join(parts[:i+1], "/")
	}
	return out
}
