package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rules2lint/internal/llm"
	"rules2lint/internal/rules"
	"rules2lint/internal/util/jsonutil"
)

const refineSystem = `You simplify coding rules into atomic, directly-checkable
statements, each focused on one concrete term (keyword, literal, identifier,
operator, property or import path) that a linter should flag.`

const refinePrompt = `Analyze the input coding rule.

1. If it is simple and directly actionable (names one concrete term), return it
   unchanged with outcome "passed_through".
2. If it is complex or abstract, break it down into one or more simpler rules,
   each focused on a single term to flag, with outcome "translated". Examples:
   - "WE DONT USE FALLBACKS. EVER." -> ["Disallow the '||' operator",
     "Disallow the '??' operator", "Disallow identifiers named 'fallback'"]
   - "No mock data" -> ["Disallow imports from paths containing '/mocks/'",
     "Flag variables named 'mockData'"]
3. If it cannot reasonably be reduced to concrete terms, use outcome
   "untranslatable" with an empty list.

Return JSON: {"outcome": "passed_through"|"translated"|"untranslatable",
"refined_rules": ["..."]}.

Input rule:
---
%s
---`

var refineSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "outcome": {"type": "string", "enum": ["passed_through", "translated", "untranslatable"]},
    "refined_rules": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["outcome", "refined_rules"],
  "additionalProperties": false
}`)

type refinement struct {
	Outcome      string   `json:"outcome"`
	RefinedRules []string `json:"refined_rules"`
}

// Refiner restates one lintable rule as zero or more atomic rules.
// Refinement happens exactly once per rule: it consumes a Rule and
// produces RefinedRules, and nothing accepts a RefinedRule as input
// here, so nested refinement cannot be expressed.
type Refiner struct {
	LLM     llm.Client
	Timeout time.Duration
}

// Run returns the refinements in a stable order (parent ID, then list
// position). When the capability call fails, the rule degrades to a
// single refinement of itself and the error is reported so the run
// summary can count it; auth failures abort instead.
func (rf *Refiner) Run(ctx context.Context, r rules.Rule) ([]rules.RefinedRule, error) {
	ctx = llm.WithPhase(ctx, "refine")
	if rf.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rf.Timeout)
		defer cancel()
	}

	raw, err := rf.LLM.GenerateJSON(ctx, refineSystem, promptf(refinePrompt, r.RawText), refineSchema)
	if err != nil {
		if llm.IsAuth(err) {
			return nil, err
		}
		return selfRefinement(r), fmt.Errorf("refine: rule %d %q: %w", r.ID, r.RawText, err)
	}

	var res refinement
	if err := jsonutil.UnmarshalFlex(raw, &res); err != nil {
		return selfRefinement(r), fmt.Errorf("refine: rule %d malformed response: %w", r.ID, err)
	}

	switch res.Outcome {
	case "passed_through":
		if len(res.RefinedRules) == 0 {
			return selfRefinement(r), nil
		}
	case "translated":
		if len(res.RefinedRules) == 0 {
			return nil, nil // translated with nothing to show is untranslatable
		}
	case "untranslatable":
		return nil, nil
	default:
		return selfRefinement(r), fmt.Errorf("refine: rule %d invalid outcome %q", r.ID, res.Outcome)
	}

	out := make([]rules.RefinedRule, 0, len(res.RefinedRules))
	for i, text := range res.RefinedRules {
		out = append(out, rules.RefinedRule{RuleID: r.ID, Seq: i, Text: text})
	}
	return out, nil
}

func selfRefinement(r rules.Rule) []rules.RefinedRule {
	return []rules.RefinedRule{{RuleID: r.ID, Seq: 0, Text: r.RawText}}
}
