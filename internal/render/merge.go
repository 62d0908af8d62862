package render

import "regexp"

// manualSectionPattern matches one manual section, from its opening marker to
// the nearest end marker.
var manualSectionPattern = regexp.MustCompile(`(?s)MANUAL SECTION: ([a-f0-9-]+).*?MANUAL SECTION END`)

// Merge splices the manual sections of previous into rendered. Every section
// of rendered whose id also appears in previous is replaced by the previous
// section verbatim; all other text comes from rendered. When an id occurs more
// than once in previous, the first occurrence is used.
func Merge(rendered, previous string) string {
	if previous == "" {
		return rendered
	}

	old := make(map[string]string)
	for _, m := range manualSectionPattern.FindAllStringSubmatch(previous, -1) {
		if _, ok := old[m[1]]; !ok {
			old[m[1]] = m[0]
		}
	}
	if len(old) == 0 {
		return rendered
	}

	return replaceAllSubmatchFunc(manualSectionPattern, rendered, func(groups []string) string {
		if section, ok := old[groups[1]]; ok {
			return section
		}
		return groups[0]
	})
}

// Sections lists the ids of the manual sections in text in order.
func Sections(text string) []string {
	var ids []string
	for _, m := range manualSectionPattern.FindAllStringSubmatch(text, -1) {
		ids = append(ids, m[1])
	}
	return ids
}
