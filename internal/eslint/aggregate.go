package eslint

import (
	"errors"
	"fmt"
	"sort"

	"rules2lint/internal/rules"
)

// ErrAggregation marks an internal consistency failure while merging
// fragments. Unlike per-rule errors it is fatal: a corrupted merge
// cannot be partially trusted, so no document is written.
var ErrAggregation = errors.New("eslint: aggregation failed")

// Document is the merged configuration. Overall is empty when there
// are no enforced rules at all.
type Document struct {
	Overall rules.Severity
	Entries []Entry
}

// Entry is one rule-template entry; Options keeps originating-rule
// order.
type Entry struct {
	Rule    string
	Options []any
}

// Option payloads per template family. Field order is the emission
// order.
type SyntaxOption struct {
	Selector string `json:"selector"`
	Message  string `json:"message"`
}

type GlobalOption struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

type PropertyOption struct {
	Object   string `json:"object,omitempty"`
	Property string `json:"property"`
	Message  string `json:"message"`
}

type ImportPattern struct {
	Group   []string `json:"group"`
	Message string   `json:"message"`
}

type ImportOption struct {
	Patterns []ImportPattern `json:"patterns"`
}

// Aggregate merges fragments into one document. Fragments are
// re-sorted by originating-rule position first, so completion order of
// the concurrent extraction stage never shows in the output. Within a
// family, fragments targeting the same selector collapse into one
// option; when their severities conflict the stricter one counts
// toward the document severity.
func Aggregate(frags []Fragment) (Document, error) {
	sorted := make([]Fragment, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].RuleID != sorted[j].RuleID {
			return sorted[i].RuleID < sorted[j].RuleID
		}
		return sorted[i].Seq < sorted[j].Seq
	})

	seen := make(map[string]struct{}, len(sorted))
	type group struct {
		order int
		frags []Fragment
	}
	groups := make(map[string]*group)
	kept := make(map[string]rules.Severity) // family+target -> stricter severity so far
	var severity rules.Severity

	for _, f := range sorted {
		id := fmt.Sprintf("%d.%d", f.RuleID, f.Seq)
		if _, dup := seen[id]; dup {
			return Document{}, fmt.Errorf("%w: duplicate fragment id %s", ErrAggregation, id)
		}
		seen[id] = struct{}{}
		if !f.Severity.Valid() {
			return Document{}, fmt.Errorf("%w: fragment %s has invalid severity %q", ErrAggregation, id, f.Severity)
		}

		key := f.Template + "\x00" + f.key()
		if prev, ok := kept[key]; ok {
			// Same target twice: stricter severity wins, the first
			// occurrence keeps its document position.
			kept[key] = rules.Stricter(prev, f.Severity)
			severity = stricterOrSet(severity, kept[key])
			continue
		}
		kept[key] = f.Severity
		severity = stricterOrSet(severity, f.Severity)

		g, ok := groups[f.Template]
		if !ok {
			g = &group{order: len(groups)}
			groups[f.Template] = g
		}
		g.frags = append(g.frags, f)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return groups[names[i]].order < groups[names[j]].order
	})

	doc := Document{Overall: severity}
	for _, name := range names {
		doc.Entries = append(doc.Entries, Entry{
			Rule:    name,
			Options: renderOptions(name, groups[name].frags),
		})
	}
	return doc, nil
}

func stricterOrSet(cur, next rules.Severity) rules.Severity {
	if cur == "" {
		return next
	}
	return rules.Stricter(cur, next)
}

func renderOptions(template string, frags []Fragment) []any {
	switch template {
	case TemplateGlobals:
		out := make([]any, 0, len(frags))
		for _, f := range frags {
			out = append(out, GlobalOption{Name: f.Name, Message: f.Message})
		}
		return out
	case TemplateProperties:
		out := make([]any, 0, len(frags))
		for _, f := range frags {
			out = append(out, PropertyOption{Object: f.Object, Property: f.Property, Message: f.Message})
		}
		return out
	case TemplateImports:
		// All import patterns fold into the rule's single options object.
		opt := ImportOption{}
		for _, f := range frags {
			opt.Patterns = append(opt.Patterns, ImportPattern{
				Group:   []string{f.Pattern},
				Message: f.Message,
			})
		}
		return []any{opt}
	default:
		out := make([]any, 0, len(frags))
		for _, f := range frags {
			out = append(out, SyntaxOption{Selector: f.Selector, Message: f.Message})
		}
		return out
	}
}
