// Package discovery finds tagged test units in Go source without building or
// running them.
//
// It reads three kinds of marker applications from _test.go files:
//
//   - marker calls such as testsize.Large(t, "network") or testsize.Label(t, "extra")
//     made inside a test function or one of its literal t.Run subtests,
//   - //testsize:tag directives in a test function's doc comment or in the
//     file header, where they apply to every test in the file,
//   - testsize.PackageTags calls, which apply to every test in the directory.
//
// Each application is reported once, with its position, and the effective
// tag set of a unit is the union of its own applications and those of its
// parents.
package discovery
