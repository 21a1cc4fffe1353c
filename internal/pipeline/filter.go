package pipeline

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"rules2lint/internal/llm"
	"rules2lint/internal/rules"
	"rules2lint/internal/util/jsonutil"
)

const filterSystem = `You classify lines from a coding-rules file. A line is "lintable"
when it expresses a preference, constraint, naming convention or prohibition that a
linter could enforce by flagging specific keywords, literals, operators or patterns.
Bias towards lintable unless the line clearly is not a rule.`

const filterPrompt = `Classify the following rule line.

Lintable examples:
- "Use === instead of =="            (direct operator rule)
- "Do NOT hardcode anything"         (prohibition mappable to terms)
- "No console.log statements allowed"
- "Latest OPENAI model is 'gpt-4o'"  (implies flagging other values)

Not lintable:
- Vague or subjective advice that cannot be reduced to flagging terms
  ("write good code", "tests should be easy to understand").
- Instructions directed at humans or AI assistants, not code
  ("always validate with the user", "be nice to your coworkers").

Return JSON: {"lintable": bool, "reason": "short free-text reasoning"}.

Rule line:
---
%s
---`

var filterSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "lintable": {"type": "boolean"},
    "reason": {"type": "string"}
  },
  "required": ["lintable", "reason"],
  "additionalProperties": false
}`)

// ReasonClassificationFailed marks rules dropped because the
// classification call itself failed, not because of their content.
const ReasonClassificationFailed = "classification_failed"

type filterVerdict struct {
	Lintable bool   `json:"lintable"`
	Reason   string `json:"reason"`
}

// Filter classifies one candidate rule as lintable or not. A failing
// capability call never aborts the run; the rule is dropped with
// ReasonClassificationFailed instead.
type Filter struct {
	LLM     llm.Client
	Timeout time.Duration
}

// Run returns the rule with its status set exactly once. Classification
// is per rule and order independent; the caller reattaches results by
// rule ID. The only error returned is a fatal auth failure.
func (f *Filter) Run(ctx context.Context, r rules.Rule) (rules.Rule, error) {
	ctx = llm.WithPhase(ctx, "filter")
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	raw, err := f.LLM.GenerateJSON(ctx, filterSystem, promptf(filterPrompt, r.RawText), filterSchema)
	if err != nil {
		if llm.IsAuth(err) {
			return r, err
		}
		log.Printf("filter: rule %d %q: %v", r.ID, r.RawText, err)
		r.Status = rules.StatusFilteredOut
		r.Reason = ReasonClassificationFailed
		return r, nil
	}

	var v filterVerdict
	if err := jsonutil.UnmarshalFlex(raw, &v); err != nil {
		log.Printf("filter: rule %d malformed verdict: %v", r.ID, err)
		r.Status = rules.StatusFilteredOut
		r.Reason = ReasonClassificationFailed
		return r, nil
	}
	if v.Lintable {
		r.Status = rules.StatusLintable
	} else {
		r.Status = rules.StatusFilteredOut
	}
	r.Reason = v.Reason
	return r, nil
}
