package rules

import "strings"

// Parse splits raw rules-file content into candidate rules in file
// order. Blank lines, comment lines and markdown headings never become
// candidates; rule IDs are assigned densely over what remains, so the
// IDs are the parse order. Empty input yields an empty slice.
func Parse(raw string) []Rule {
	var out []Rule
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || isComment(line) {
			continue
		}
		out = append(out, Rule{ID: len(out), RawText: line, Status: StatusPending})
	}
	return out
}

func isComment(line string) bool {
	// '#' covers both comments and markdown headings.
	return strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//")
}
