package testsize

import (
	"testing"
)

// Small marks the calling test as a small test. Labels, if any, are attached
// in the same call.
//
//	func TestParse(t *testing.T) {
//	    testsize.Small(t)
//	    ...
//	}
func Small(tb testing.TB, labels ...string) {
	tb.Helper()
	markSize(tb, TagSmall, labels)
}

// Medium marks the calling test as a medium test.
func Medium(tb testing.TB, labels ...string) {
	tb.Helper()
	markSize(tb, TagMedium, labels)
}

// Large marks the calling test as a large test.
//
//	testsize.Large(t, "network")
func Large(tb testing.TB, labels ...string) {
	tb.Helper()
	markSize(tb, TagLarge, labels)
}

func markSize(tb testing.TB, size Tag, labels []string) {
	tb.Helper()
	tags, ok := parseLabels(tb, labels)
	if !ok {
		return
	}
	DefaultRegistry.Mark(tb, append([]Tag{size}, tags...)...)
}

// parseLabels converts label names to tags, failing tb on the first invalid
// one.
func parseLabels(tb testing.TB, names []string) ([]Tag, bool) {
	tb.Helper()
	tags := make([]Tag, 0, len(names))
	for _, name := range names {
		t, err := ParseTag(name)
		if err != nil {
			tb.Fatalf("testsize: %v", err)
			return nil, false
		}
		tags = append(tags, t)
	}
	return tags, true
}

// Label attaches free-form tags to the calling test. An invalid name fails
// the test. Call it before the size marker, or pass the labels to the size
// marker itself, so that selection sees them.
//
// Arguments should be string literals so that static discovery can read them.
func Label(tb testing.TB, names ...string) {
	tb.Helper()
	tags, ok := parseLabels(tb, names)
	if !ok {
		return
	}
	DefaultRegistry.Mark(tb, tags...)
}

// Mark attaches tags to the calling test using the default registry.
func Mark(tb testing.TB, tags ...Tag) {
	tb.Helper()
	DefaultRegistry.Mark(tb, tags...)
}

// Tags returns the effective tags of the calling test, including those
// inherited from parent tests and package tags.
func Tags(tb testing.TB) Set {
	return DefaultRegistry.Lookup(tb.Name())
}

// PackageTags attaches tags to every test in the test binary. Call it from
// TestMain before m.Run.
func PackageTags(tags ...Tag) {
	DefaultRegistry.SetPackageTags(tags...)
}

// Mark records tags against tb and skips tb when the active selection rejects
// it. Invalid tags fail tb.
//
// Until the unit has applied a size tag of its own, more tags may follow, so
// only the exclude list is checked. Once it has, the whole selection is
// matched against the effective tags.
func (r *Registry) Mark(tb testing.TB, tags ...Tag) {
	tb.Helper()

	for _, t := range tags {
		if !t.Valid() {
			tb.Fatalf("testsize: %v: %q", ErrInvalidTag, string(t))
			return
		}
	}

	name := tb.Name()
	r.Record(name, tags...)

	sel, err := r.selection()
	if err != nil {
		tb.Fatalf("testsize: %v", err)
		return
	}

	effective := r.Lookup(name)
	selected := !sel.Excluded(effective.Strings())
	if selected && r.sized(name) {
		selected = sel.Match(effective.Strings())
	}
	if !selected {
		tb.Skipf("testsize: %s %s not selected by %s", name, effective, sel)
	}
}

// sized reports whether the unit has applied a size tag itself.
func (r *Registry) sized(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.units[name] {
		if t.IsSize() {
			return true
		}
	}
	return false
}
