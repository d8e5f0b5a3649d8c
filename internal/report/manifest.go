package report

import (
	"io"
	"text/tabwriter"

	"github.com/phrazzld/testsize"
)

// WriteManifests renders runtime manifests gathered from test binaries.
func WriteManifests(w io.Writer, format Format, manifests []testsize.Manifest) error {
	if manifests == nil {
		manifests = []testsize.Manifest{}
	}
	switch format {
	case FormatText:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		ew := &errWriter{w: tw}
		ew.printf("BINARY\tTEST\tTAGS\n")
		for _, m := range manifests {
			for _, u := range m.Units {
				ew.printf("%s\t%s\t%s\n", m.Binary, u.Name, joinTags(u.Tags))
			}
		}
		if ew.err != nil {
			return ew.err
		}
		return tw.Flush()
	case FormatJSON:
		return writeJSON(w, manifests)
	case FormatYAML:
		return writeYAML(w, manifests)
	default:
		return unsupported(format, "manifests")
	}
}
