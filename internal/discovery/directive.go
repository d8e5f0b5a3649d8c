package discovery

import (
	"strings"
	"unicode"
)

// DirectivePrefix starts every testsize directive comment.
const DirectivePrefix = "//testsize:"

// directive is a parsed //testsize: comment.
type directive struct {
	verb string
	args []string
}

// parseDirective parses a raw comment. ok is false for comments that are not
// testsize directives. Arguments may be separated by
// whitespace or commas.
func parseDirective(text string) (d directive, ok bool) {
	if !strings.HasPrefix(text, DirectivePrefix) {
		return directive{}, false
	}
	rest := strings.TrimPrefix(text, DirectivePrefix)

	fields := strings.FieldsFunc(rest, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
	if len(fields) == 0 {
		return d, true
	}
	d.verb = fields[0]
	d.args = fields[1:]
	return d, true
}
