// Package rules holds the data model shared by every pipeline stage:
// parsed rules, their refinements, and the flag descriptors extracted
// from them. All types here are plain values; stages communicate by
// passing them, never through shared state.
package rules

import "fmt"

// Status is the lifecycle of a parsed rule. It is set once by the
// filter stage and never changes afterwards.
type Status string

const (
	StatusPending     Status = "pending"
	StatusFilteredOut Status = "filtered_out"
	StatusLintable    Status = "lintable"
)

// Rule is one candidate line from the rules file. ID is the position
// in parse order and is the sole ordering key for everything derived
// from the rule downstream.
type Rule struct {
	ID      int    `json:"id"`
	RawText string `json:"raw_text"`
	Status  Status `json:"status"`
	// Reason is set when Status is filtered_out (model verdict
	// reasoning, or "classification_failed" on a capability error).
	Reason string `json:"reason,omitempty"`
}

// RefinedRule is one atomic, directly-checkable restatement of a
// lintable rule. A rule yields zero or more of these; an already
// atomic rule is refined to itself. There is deliberately no way to
// refine a RefinedRule again.
type RefinedRule struct {
	RuleID int    `json:"rule_id"` // parent Rule.ID
	Seq    int    `json:"seq"`     // position among the parent's refinements
	Text   string `json:"text"`
}

func (r RefinedRule) Key() string { return fmt.Sprintf("%d.%d", r.RuleID, r.Seq) }

// Severity is the enforcement strength of a flag. Anything else coming
// off the wire is a schema violation.
type Severity string

const (
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

func (s Severity) Valid() bool { return s == SeverityWarn || s == SeverityError }

// Stricter returns the more severe of two values.
func Stricter(a, b Severity) Severity {
	if a == SeverityError || b == SeverityError {
		return SeverityError
	}
	return SeverityWarn
}

// FlagType is the syntactic category of an extracted flag. It selects
// the lint-rule template family the flag is rendered with.
type FlagType string

const (
	FlagIdentifier FlagType = "identifier"
	FlagLiteral    FlagType = "literal"
	FlagOperator   FlagType = "operator"
	FlagKeyword    FlagType = "keyword"
	FlagProperty   FlagType = "property"
	FlagImport     FlagType = "import"
	FlagSelector   FlagType = "selector" // value is a ready AST selector
	FlagUnknown    FlagType = "unknown"
)

func (t FlagType) Valid() bool {
	switch t {
	case FlagIdentifier, FlagLiteral, FlagOperator, FlagKeyword,
		FlagProperty, FlagImport, FlagSelector, FlagUnknown:
		return true
	}
	return false
}

// FlagDescriptor is the structured result of extracting one refined
// rule. At most one exists per RefinedRule; extraction failures leave
// none.
type FlagDescriptor struct {
	RuleID   int      `json:"rule_id"`
	Seq      int      `json:"seq"`
	Type     FlagType `json:"type"`
	Value    string   `json:"value"`
	Context  string   `json:"context,omitempty"`
	Severity Severity `json:"severity"`

	// Optional documentation returned alongside the descriptor. Empty
	// fields are synthesized deterministically by the config builder.
	Message          string `json:"message,omitempty"`
	ViolationExample string `json:"violation_example,omitempty"`
	ExpectedError    string `json:"expected_error,omitempty"`
	Explanation      string `json:"explanation,omitempty"`
}

// Validate enforces the descriptor schema after decoding.
func (f FlagDescriptor) Validate() error {
	if f.Value == "" {
		return fmt.Errorf("flag descriptor: empty value")
	}
	if !f.Type.Valid() {
		return fmt.Errorf("flag descriptor: invalid type %q", f.Type)
	}
	if !f.Severity.Valid() {
		return fmt.Errorf("flag descriptor: invalid severity %q", f.Severity)
	}
	return nil
}
