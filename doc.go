// Package testsize attaches size categories and free-form tags to Go tests so
// that external tooling can filter or schedule them.
//
// A test declares its size with a marker call as its first statement. Labels
// go in the same call, or in Label calls made before it:
//
//	func TestRoundTrip(t *testing.T) {
//	    testsize.Large(t, "network")
//	    ...
//	}
//
// The vocabulary is fixed: small, medium and large. Tags are a set, so a test
// may carry a size and any number of free-form tags. Subtests inherit the tags
// of their parent, and PackageTags applies tags to every test in a binary.
//
// Marker calls take no arguments other than the test and string literals.
// The testsize command reads them, together with //testsize:tag directives,
// straight from source without running the tests.
//
// At run time each marker records its tags in DefaultRegistry and applies
// the selection from TESTSIZE_INCLUDE, TESTSIZE_EXCLUDE, TESTSIZE_EXPR and
// TESTSIZE_DEFAULT_SIZE. A unit carrying an excluded tag is skipped at once.
// Inclusion, the expression and the default size are decided at the unit's
// size marker, so tags applied after it can only exclude the unit. Units
// without a size marker of their own are only skipped by exclusion. Main
// writes the observed tags to TESTSIZE_MANIFEST.
package testsize
