package discovery

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"

	"golang.org/x/mod/modfile"
)

// ErrNoModule is returned when no go.mod encloses a directory.
var ErrNoModule = errors.New("no go.mod found")

// moduleResolver maps directories to package import paths using the nearest
// enclosing go.mod. Lookups are cached per module root.
type moduleResolver struct {
	mu      sync.Mutex
	modules map[string]string // module root -> module path
	roots   map[string]string // directory -> module root
}

func newModuleResolver() *moduleResolver {
	return &moduleResolver{
		modules: make(map[string]string),
		roots:   make(map[string]string),
	}
}

// importPath returns the import path of the package in dir.
func (r *moduleResolver) importPath(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	root, modPath, err := r.module(dir)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return modPath, nil
	}
	return path.Join(modPath, filepath.ToSlash(rel)), nil
}

func (r *moduleResolver) module(dir string) (string, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if root, ok := r.roots[dir]; ok {
		return root, r.modules[root], nil
	}

	for cur := dir; ; {
		if modPath, ok := r.modules[cur]; ok {
			r.roots[dir] = cur
			return cur, modPath, nil
		}

		data, err := os.ReadFile(filepath.Join(cur, "go.mod"))
		switch {
		case err == nil:
			modPath := modfile.ModulePath(data)
			if modPath == "" {
				return "", "", fmt.Errorf("%s: missing module directive", filepath.Join(cur, "go.mod"))
			}
			r.modules[cur] = modPath
			r.roots[dir] = cur
			return cur, modPath, nil
		case !errors.Is(err, os.ErrNotExist):
			return "", "", fmt.Errorf("failed to read go.mod: %w", err)
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return "", "", fmt.Errorf("%w above %s", ErrNoModule, dir)
		}
		cur = parent
	}
}
