package eslint

import (
	"fmt"
	"strings"

	"rules2lint/internal/util/jsonutil"
)

// Emit renders the document as an eslint.config.mjs flat config. The
// output is a pure function of its arguments: no timestamps, no run
// identifiers, so re-running over the same rules produces identical
// bytes.
func Emit(doc Document, sourceRules int, skipped []string) (string, error) {
	var b strings.Builder

	entryCount := 0
	for _, e := range doc.Entries {
		entryCount += len(e.Options)
	}
	fmt.Fprintf(&b, "// Generated by rules2lint: %d rule %s from %d source %s.\n",
		entryCount, plural(entryCount, "entry", "entries"),
		sourceRules, plural(sourceRules, "rule", "rules"))
	b.WriteString("// Do not edit by hand; edit the rules file and regenerate.\n")
	b.WriteString("export default [\n")
	b.WriteString("  {\n")
	b.WriteString("    rules: {\n")

	for i, e := range doc.Entries {
		fmt.Fprintf(&b, "      %q: [\n", e.Rule)
		fmt.Fprintf(&b, "        %q", string(doc.Overall))
		for _, opt := range e.Options {
			raw, err := jsonutil.MarshalNoEscapeIndent(opt, "        ", "  ")
			if err != nil {
				return "", fmt.Errorf("eslint: encode option for %s: %w", e.Rule, err)
			}
			b.WriteString(",\n        ")
			b.Write(raw)
		}
		b.WriteString("\n      ]")
		if i < len(doc.Entries)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}

	b.WriteString("    }\n")
	b.WriteString("  }\n")
	b.WriteString("];\n")

	if len(skipped) > 0 {
		b.WriteString("\n// Rules that could not be translated into checks:\n")
		for _, s := range skipped {
			fmt.Fprintf(&b, "// - %s\n", s)
		}
	}
	return b.String(), nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
