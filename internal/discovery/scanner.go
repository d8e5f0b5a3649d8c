package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/testsize"
)

// DefaultWorkers is the number of files analyzed concurrently when
// Scanner.Workers is not set.
const DefaultWorkers = 4

// ErrInvalidRoot is returned when the scan root is missing or not a directory.
var ErrInvalidRoot = errors.New("invalid scan root")

// skippedDirs are never descended into.
var skippedDirs = map[string]bool{
	"vendor":   true,
	"testdata": true,
}

// Scanner walks a directory tree and discovers tagged test units.
type Scanner struct {
	// ImportPath is the import path of the marker package.
	ImportPath string
	// SkipDirs are extra directory names to skip, matched against the base
	// name or the slash-separated path relative to the root.
	SkipDirs []string
	// Workers bounds the number of files analyzed concurrently.
	Workers int
	Logger  *slog.Logger
}

// AnalyzeFile reads and analyzes one test file.
func AnalyzeFile(filename, importPath string) (*FileResult, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return AnalyzeSource(filename, src, importPath)
}

// ScanDirectory discovers every tagged test unit under root. Files that fail
// to parse are recorded in Result.Errors and do not abort the scan.
func (s *Scanner) ScanDirectory(ctx context.Context, root string) (*Result, error) {
	log := s.logger()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
	}

	files, err := s.collect(ctx, absRoot)
	if err != nil {
		return nil, err
	}
	log.Debug("collected test files", "root", absRoot, "count", len(files))

	var (
		mu      sync.Mutex
		results = make([]*FileResult, 0, len(files))
		errs    []FileError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			rel := relSlash(absRoot, file)
			src, err := os.ReadFile(file)
			var fr *FileResult
			if err == nil {
				fr, err = AnalyzeSource(rel, src, s.ImportPath)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn("skipping test file", "file", rel, "error", err)
				errs = append(errs, FileError{File: rel, Err: err.Error()})
				return nil
			}
			results = append(results, fr)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan of %s cancelled: %w", root, err)
	}

	res := &Result{
		Root:   root,
		Files:  len(results),
		Errors: errs,
	}
	s.assemble(res, absRoot, results)

	sortUnits(res.Units)
	sortMarkers(res.PackageMarkers)
	sortFindings(res.Findings)
	sort.Slice(res.Errors, func(i, j int) bool { return res.Errors[i].File < res.Errors[j].File })

	log.Info("scan complete",
		"root", root,
		"files", res.Files,
		"units", len(res.Units),
		"findings", len(res.Findings),
		"errors", len(res.Errors),
	)
	return res, nil
}

// collect returns the absolute paths of the _test.go files under root.
func (s *Scanner) collect(ctx context.Context, root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && s.skipDir(relSlash(root, p), d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), "_test.go") && d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return files, nil
}

func (s *Scanner) skipDir(rel, name string) bool {
	if skippedDirs[name] || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return true
	}
	for _, skip := range s.SkipDirs {
		skip = strings.Trim(filepath.ToSlash(skip), "/")
		if skip == name || skip == rel {
			return true
		}
	}
	return false
}

// assemble groups file results by directory, resolves import paths and
// applies package tags.
func (s *Scanner) assemble(res *Result, absRoot string, results []*FileResult) {
	byDir := make(map[string][]*FileResult)
	for _, fr := range results {
		dir := pathDir(fr.File)
		byDir[dir] = append(byDir[dir], fr)
	}

	modules := newModuleResolver()
	for dir, frs := range byDir {
		pkg, err := modules.importPath(filepath.Join(absRoot, filepath.FromSlash(dir)))
		if err != nil {
			s.logger().Debug("package import path unknown", "dir", dir, "error", err)
			pkg = dir
		}

		var pkgTags testsize.Set
		for _, fr := range frs {
			for _, m := range fr.PackageMarkers {
				pkgTags.Add(testsize.Tag(m.Tag))
			}
			res.PackageMarkers = append(res.PackageMarkers, fr.PackageMarkers...)
		}

		for _, fr := range frs {
			res.Findings = append(res.Findings, fr.Findings...)
			for _, u := range fr.Units {
				u.Package = pkg
				u.Dir = dir
				if pkgTags.Len() > 0 {
					u.Tags = u.TagSet().Union(pkgTags).Strings()
				}
				res.Units = append(res.Units, u)
			}
		}
	}
}

func (s *Scanner) workers() int {
	if s.Workers <= 0 {
		return DefaultWorkers
	}
	return s.Workers
}

func (s *Scanner) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// relSlash returns p relative to root with forward slashes.
func relSlash(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func pathDir(file string) string {
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		return file[:i]
	}
	return "."
}
