// Package eslint turns flag descriptors into ESLint flat-config
// fragments and merges them into one document. Everything here is a
// pure function of its inputs; no external calls, no clock, no
// randomness, so identical descriptors always yield identical output.
package eslint

import (
	"fmt"
	"strings"

	"rules2lint/internal/rules"
)

// Template families. Each flag type maps to exactly one.
const (
	TemplateSyntax     = "no-restricted-syntax"
	TemplateGlobals    = "no-restricted-globals"
	TemplateProperties = "no-restricted-properties"
	TemplateImports    = "no-restricted-imports"
)

// Fragment is one unit of generated configuration, traceable to its
// originating rule through RuleID/Seq.
type Fragment struct {
	RuleID   int
	Seq      int
	Template string
	Severity rules.Severity

	Selector string // syntax family
	Name     string // globals family
	Object   string // properties family, optional
	Property string // properties family
	Pattern  string // imports family

	Message          string
	ViolationExample string
	ExpectedError    string
	Explanation      string
}

// key identifies a fragment's target within its family, for dedup.
func (f Fragment) key() string {
	switch f.Template {
	case TemplateGlobals:
		return f.Name
	case TemplateProperties:
		return f.Object + "." + f.Property
	case TemplateImports:
		return f.Pattern
	default:
		return f.Selector
	}
}

// Build maps a descriptor onto its template family. ruleText is the
// refined rule the descriptor came from; it lands in the message so
// every reported violation names its source rule.
func Build(d rules.FlagDescriptor, ruleText string) Fragment {
	f := Fragment{
		RuleID:           d.RuleID,
		Seq:              d.Seq,
		Severity:         d.Severity,
		Message:          d.Message,
		ViolationExample: d.ViolationExample,
		ExpectedError:    d.ExpectedError,
		Explanation:      d.Explanation,
	}
	val := escapeSelector(d.Value)
	msgRule := escapeJS(ruleText)

	switch d.Type {
	case rules.FlagIdentifier:
		f.Template = TemplateGlobals
		f.Name = d.Value
		f.defaultMessage("Usage of identifier '%s' is restricted by rule: %s", d.Value, msgRule)
	case rules.FlagProperty:
		f.Template = TemplateProperties
		f.Object = d.Context
		f.Property = d.Value
		f.defaultMessage("Access to property '%s' is restricted by rule: %s", d.Value, msgRule)
	case rules.FlagImport:
		f.Template = TemplateImports
		f.Pattern = d.Value
		f.defaultMessage("Import from '%s' is restricted by rule: %s", d.Value, msgRule)
	case rules.FlagLiteral:
		f.Template = TemplateSyntax
		f.Selector = fmt.Sprintf("Literal[value='%s']", val)
		f.defaultMessage("Usage of literal '%s' is restricted by rule: %s", d.Value, msgRule)
	case rules.FlagOperator:
		f.Template = TemplateSyntax
		f.Selector = fmt.Sprintf(":matches(BinaryExpression, LogicalExpression)[operator='%s']", val)
		f.defaultMessage("Usage of operator '%s' is restricted by rule: %s", d.Value, msgRule)
	case rules.FlagKeyword:
		f.Template = TemplateSyntax
		f.Selector = keywordSelector(d.Value)
		f.defaultMessage("Usage of keyword '%s' is restricted by rule: %s", d.Value, msgRule)
	case rules.FlagSelector:
		f.Template = TemplateSyntax
		f.Selector = d.Value
		f.defaultMessage("Syntax matching '%s' is restricted by rule: %s", d.Value, msgRule)
	default: // FlagUnknown and anything future
		f.Template = TemplateSyntax
		f.Selector = fmt.Sprintf(":matches(Identifier[name='%s'], Literal[value='%s'])", val, val)
		f.defaultMessage("Usage of '%s' is restricted by rule: %s (context unknown)", d.Value, msgRule)
	}

	f.fillDocs(d)
	return f
}

func (f *Fragment) defaultMessage(format string, args ...any) {
	if f.Message == "" {
		f.Message = fmt.Sprintf(format, args...)
	}
}

// fillDocs synthesizes the documentation triple for fields the
// extraction did not provide.
func (f *Fragment) fillDocs(d rules.FlagDescriptor) {
	if f.ViolationExample == "" {
		f.ViolationExample = violationFor(d)
	}
	if f.ExpectedError == "" {
		f.ExpectedError = f.Message
	}
	if f.Explanation == "" {
		f.Explanation = fmt.Sprintf("Flags %s '%s' wherever it appears.", d.Type, d.Value)
	}
}

// Violation snippets for selectors the extractor commonly emits.
var knownViolations = map[string]string{
	"AssignmentPattern": "function foo(x = 0) {}",
	"DebuggerStatement": "debugger;",
	"TryStatement":      "try { risky(); } catch (e) {}",
	"WithStatement":     "with (obj) { a = b; }",
	"NewExpression[callee.name='RegExp']": "const re = new RegExp('a+');",
}

func violationFor(d rules.FlagDescriptor) string {
	switch d.Type {
	case rules.FlagOperator:
		return fmt.Sprintf("if (a %s b) {}", d.Value)
	case rules.FlagKeyword:
		if v, ok := knownViolations[keywordSelector(d.Value)]; ok {
			return v
		}
		return fmt.Sprintf("%s x = 1;", d.Value)
	case rules.FlagLiteral:
		return fmt.Sprintf("const x = %q;", d.Value)
	case rules.FlagIdentifier:
		return fmt.Sprintf("let %s = getValue();", d.Value)
	case rules.FlagProperty:
		obj := d.Context
		if obj == "" {
			obj = "obj"
		}
		return fmt.Sprintf("%s.%s();", obj, d.Value)
	case rules.FlagImport:
		return fmt.Sprintf("import thing from %q;", d.Value)
	case rules.FlagSelector:
		if v, ok := knownViolations[d.Value]; ok {
			return v
		}
		return fmt.Sprintf("// any code matching %s", d.Value)
	}
	return fmt.Sprintf("// any use of '%s'", d.Value)
}

func keywordSelector(kw string) string {
	if kw == "" {
		return "EmptyStatement"
	}
	return strings.ToUpper(kw[:1]) + kw[1:] + "Statement"
}

// escapeSelector escapes single quotes for use inside AST selectors.
func escapeSelector(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

// escapeJS escapes backslashes and quotes for use inside JS strings.
func escapeJS(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
