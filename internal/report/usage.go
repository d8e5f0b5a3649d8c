package report

import (
	"sort"

	"github.com/phrazzld/testsize/internal/discovery"
)

// TagUsage counts the units carrying a tag.
type TagUsage struct {
	Tag   string   `json:"tag" yaml:"tag"`
	Count int      `json:"count" yaml:"count"`
	Files []string `json:"files" yaml:"files"`
}

// Usage returns per-tag unit counts and the files they appear in, most used
// first and then by name.
func Usage(units []discovery.Unit) []TagUsage {
	byTag := make(map[string]*TagUsage)
	files := make(map[string]map[string]bool)

	for _, u := range units {
		for _, tag := range u.Tags {
			tu, ok := byTag[tag]
			if !ok {
				tu = &TagUsage{Tag: tag}
				byTag[tag] = tu
				files[tag] = make(map[string]bool)
			}
			tu.Count++
			if !files[tag][u.File] {
				files[tag][u.File] = true
				tu.Files = append(tu.Files, u.File)
			}
		}
	}

	usage := make([]TagUsage, 0, len(byTag))
	for _, tu := range byTag {
		sort.Strings(tu.Files)
		usage = append(usage, *tu)
	}
	sort.Slice(usage, func(i, j int) bool {
		if usage[i].Count != usage[j].Count {
			return usage[i].Count > usage[j].Count
		}
		return usage[i].Tag < usage[j].Tag
	})
	return usage
}
