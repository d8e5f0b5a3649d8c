package testsize

import (
	"github.com/phrazzld/testsize/internal/config"
	"github.com/phrazzld/testsize/internal/selector"
)

// Selection restricts which marked tests run. Marked tests outside the
// selection skip themselves.
type Selection struct {
	Include []Tag
	Exclude []Tag
	// Expr is a build-constraint expression over tag names, such as
	// "large && !flaky".
	Expr string
	// DefaultSize is assumed for tests that carry no size tag.
	DefaultSize Tag
}

// SetSelection replaces the selection of r. Without a call to SetSelection
// the selection is read once from the TESTSIZE_INCLUDE, TESTSIZE_EXCLUDE,
// TESTSIZE_EXPR and TESTSIZE_DEFAULT_SIZE environment variables.
func (r *Registry) SetSelection(sel Selection) error {
	s, err := selector.New(selector.Options{
		Include:     tagStrings(sel.Include),
		Exclude:     tagStrings(sel.Exclude),
		Expr:        sel.Expr,
		DefaultSize: string(sel.DefaultSize),
		IsSize:      isSizeName,
	})
	if err != nil {
		return err
	}

	r.selMu.Lock()
	defer r.selMu.Unlock()
	r.sel, r.selErr, r.selLoaded = s, nil, true
	return nil
}

func (r *Registry) selection() (*selector.Selector, error) {
	r.selMu.Lock()
	defer r.selMu.Unlock()
	if !r.selLoaded {
		r.sel, r.selErr = selectionFromEnv()
		r.selLoaded = true
	}
	return r.sel, r.selErr
}

func selectionFromEnv() (*selector.Selector, error) {
	sel, err := config.LoadSelect()
	if err != nil {
		return nil, err
	}
	return selector.New(selector.Options{
		Include:     sel.Include,
		Exclude:     sel.Exclude,
		Expr:        sel.Expr,
		DefaultSize: sel.DefaultSize,
		IsSize:      isSizeName,
	})
}

func isSizeName(name string) bool {
	return Tag(name).IsSize()
}

func tagStrings(tags []Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}
