package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"rules2lint/internal/llm"
	"rules2lint/internal/rules"
	"rules2lint/internal/util/jsonutil"
)

const extractSystem = `You analyze one atomic coding rule and identify the specific
term that should be flagged in code, as a structured descriptor.`

const extractPrompt = `Identify the concrete term this rule wants flagged and return a
structured flag descriptor.

Field guide:
- type: syntactic category of the term.
    identifier - variable/function name (e.g. fallback, mockData)
    literal    - specific string or number value (e.g. "SECRET_KEY", 500)
    operator   - comparison/logical operator (e.g. ==, ||, ??)
    keyword    - language keyword (e.g. var, try, debugger)
    property   - property access (e.g. random in Math.random; put the object in context)
    import     - import from a path or module name
    selector   - a ready ESLint AST selector (e.g. AssignmentPattern)
    unknown    - when the category is unclear
- value: the exact term (e.g. '==' not '===' when the rule bans '==').
- context: extra scope such as the object of a property access. May be empty.
- severity: "error" for strong prohibitions (MUST NOT, NEVER, NO, DISALLOW),
  "warn" for softer phrasing (AVOID, SHOULD NOT, PREFER NOT). Default "warn".
- message, violation_example, expected_error, explanation: optional short
  documentation for the generated lint entry.

Examples:
- "Use === instead of ==" ->
  {"flags":[{"type":"operator","value":"==","severity":"error"}]}
- "Avoid using Math.random()" ->
  {"flags":[{"type":"property","value":"random","context":"Math","severity":"warn"}]}
- "No default parameters in functions" ->
  {"flags":[{"type":"selector","value":"AssignmentPattern","severity":"error",
    "message":"No default parameters allowed!",
    "violation_example":"function foo(x = 0) {}"}]}
- "Be careful when writing tests" -> {"flags":[]}

Return ONLY the JSON object {"flags":[...]}.

Input rule:
---
%s
---`

var extractSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "flags": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "type": {"type": "string", "enum": ["identifier", "literal", "operator", "keyword", "property", "import", "selector", "unknown"]},
          "value": {"type": "string"},
          "context": {"type": "string"},
          "severity": {"type": "string", "enum": ["warn", "error"]},
          "message": {"type": "string"},
          "violation_example": {"type": "string"},
          "expected_error": {"type": "string"},
          "explanation": {"type": "string"}
        },
        "required": ["type", "value", "severity"]
      }
    }
  },
  "required": ["flags"],
  "additionalProperties": false
}`)

type wireFlag struct {
	Type             string `json:"type"`
	Value            string `json:"value"`
	Context          string `json:"context,omitempty"`
	Severity         string `json:"severity"`
	Message          string `json:"message,omitempty"`
	ViolationExample string `json:"violation_example,omitempty"`
	ExpectedError    string `json:"expected_error,omitempty"`
	Explanation      string `json:"explanation,omitempty"`
}

type flagEnvelope struct {
	Flags []wireFlag `json:"flags"`
}

// ExtractionError records one refined rule that was dropped after the
// retry was also rejected.
type ExtractionError struct {
	Refined rules.RefinedRule
	Err     error
}

func (e ExtractionError) Error() string {
	return fmt.Sprintf("extract: rule %s %q: %v", e.Refined.Key(), e.Refined.Text, e.Err)
}

// Extractor requests flag descriptors for refined rules under a
// bounded worker pool. Workers share nothing but per-index slots of
// the results slice, so no locking is needed; ordering is restored by
// index regardless of completion order.
type Extractor struct {
	LLM     llm.Client
	Workers int
	Timeout time.Duration
}

// Run extracts descriptors for every refined rule. It never fails as a
// whole except on a fatal auth error: individual rejections come back
// as ExtractionErrors, and rules abandoned by cancellation are
// recorded the same way while already-completed results are kept.
func (ex *Extractor) Run(ctx context.Context, refined []rules.RefinedRule) ([]rules.FlagDescriptor, []ExtractionError, error) {
	workers := ex.Workers
	if workers <= 0 {
		workers = 1
	}

	descs := make([]*rules.FlagDescriptor, len(refined))
	errs := make([]error, len(refined))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, rr := range refined {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			d, err := ex.extractOne(ctx, rr)
			if err != nil {
				errs[i] = err
				return nil
			}
			descs[i] = d
			return nil
		})
	}
	_ = g.Wait()

	var out []rules.FlagDescriptor
	var failures []ExtractionError
	for i, rr := range refined {
		switch {
		case errs[i] == nil && descs[i] != nil:
			out = append(out, *descs[i])
		case errs[i] == nil:
			// extracted successfully but nothing to flag
		case llm.IsAuth(errs[i]):
			return nil, nil, errs[i]
		default:
			failures = append(failures, ExtractionError{Refined: rr, Err: errs[i]})
		}
	}
	return out, failures, nil
}

// extractOne performs the call with exactly one retry on a schema
// violation or transient failure. A nil descriptor with nil error
// means the model found nothing to flag.
func (ex *Extractor) extractOne(ctx context.Context, rr rules.RefinedRule) (*rules.FlagDescriptor, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		callCtx := ctx
		if attempt > 0 {
			// The rejected response may be a cached replay; force the
			// retry through to the backend.
			callCtx = llm.FreshResponse(ctx)
		}
		d, err := ex.request(callCtx, rr)
		if err == nil {
			return d, nil
		}
		if llm.IsAuth(err) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
		if attempt == 0 {
			log.Printf("extract: rule %s rejected, retrying once: %v", rr.Key(), err)
		}
	}
	return nil, lastErr
}

func (ex *Extractor) request(ctx context.Context, rr rules.RefinedRule) (*rules.FlagDescriptor, error) {
	ctx = llm.WithPhase(ctx, "extract")
	if ex.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ex.Timeout)
		defer cancel()
	}

	raw, err := ex.LLM.GenerateJSON(ctx, extractSystem, promptf(extractPrompt, rr.Text), extractSchema)
	if err != nil {
		return nil, err
	}

	var env flagEnvelope
	if err := jsonutil.UnmarshalStrict(raw, &env); err != nil {
		// Tolerate fenced or quoted payloads before calling it a
		// schema violation.
		if err2 := jsonutil.UnmarshalFlex(raw, &env); err2 != nil {
			return nil, fmt.Errorf("schema violation: %w", err)
		}
	}
	if len(env.Flags) == 0 {
		return nil, nil
	}

	// At most one descriptor per refined rule: first valid flag wins.
	var firstErr error
	for _, w := range env.Flags {
		d := rules.FlagDescriptor{
			RuleID:           rr.RuleID,
			Seq:              rr.Seq,
			Type:             rules.FlagType(w.Type),
			Value:            w.Value,
			Context:          w.Context,
			Severity:         rules.Severity(w.Severity),
			Message:          w.Message,
			ViolationExample: w.ViolationExample,
			ExpectedError:    w.ExpectedError,
			Explanation:      w.Explanation,
		}
		if err := d.Validate(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return &d, nil
	}
	return nil, fmt.Errorf("schema violation: %w", firstErr)
}
