// Package pipeline turns raw rule-file text into an aggregated ESLint
// configuration: parse, filter, refine, extract flags concurrently,
// build fragments, aggregate. Per-rule failures are isolated and
// recorded; only auth and aggregation failures abort a run.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"rules2lint/internal/config"
	"rules2lint/internal/eslint"
	"rules2lint/internal/llm"
	"rules2lint/internal/rules"
)

type Pipeline struct {
	filter    Filter
	refiner   Refiner
	extractor Extractor
	timeout   time.Duration // overall deadline; completed work is still aggregated
}

type Result struct {
	Document string
	Summary  Summary
	// Skipped lists raw texts of rules that produced no fragments,
	// for the document footer and the run report.
	Skipped []string
}

func New(client llm.Client, cfg config.Config) *Pipeline {
	return &Pipeline{
		filter:    Filter{LLM: client, Timeout: cfg.FilterTimeout},
		refiner:   Refiner{LLM: client, Timeout: cfg.RefineTimeout},
		extractor: Extractor{LLM: client, Workers: cfg.Workers, Timeout: cfg.ExtractTimeout},
		timeout:   cfg.PipelineTimeout,
	}
}

// Run executes the full pipeline over raw rule-file content. Empty
// input is not an error: it yields a valid document with zero entries.
func (p *Pipeline) Run(ctx context.Context, raw string) (Result, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	sum := newSummary()

	parsed := rules.Parse(raw)
	sum.Total = len(parsed)
	log.Printf("parsed %d candidate rules", len(parsed))

	// Filter. Sequential; each call is independent and failures only
	// drop the one rule.
	var lintable []rules.Rule
	var skipped []string
	for _, r := range parsed {
		classified, err := p.filter.Run(ctx, r)
		if err != nil {
			return Result{}, err
		}
		if classified.Status == rules.StatusLintable {
			lintable = append(lintable, classified)
		} else {
			sum.FilteredOut++
			skipped = append(skipped, classified.RawText)
			log.Printf("filtered out rule %d %q (%s)", classified.ID, classified.RawText, classified.Reason)
		}
	}

	// Refine. A failing call degrades the rule to itself and counts as
	// failed, but the rule stays in the run.
	var refined []rules.RefinedRule
	texts := make(map[string]string) // refined key -> text, for fragment messages
	for _, r := range lintable {
		rr, err := p.refiner.Run(ctx, r)
		if err != nil {
			if llm.IsAuth(err) {
				return Result{}, err
			}
			log.Printf("%v (degraded to the original rule)", err)
			sum.Failed++
		}
		if len(rr) == 0 && err == nil {
			skipped = append(skipped, r.RawText)
			log.Printf("rule %d %q is untranslatable", r.ID, r.RawText)
			continue
		}
		for _, one := range rr {
			texts[one.Key()] = one.Text
		}
		refined = append(refined, rr...)
	}
	sum.Refined = len(refined)
	log.Printf("refined into %d atomic rules", len(refined))

	// Extract concurrently; results come back keyed by refined rule,
	// so completion order is irrelevant.
	descs, failures, err := p.extractor.Run(ctx, refined)
	if err != nil {
		return Result{}, err
	}
	sum.Extracted = len(descs)
	sum.Failed += len(failures)
	for _, f := range failures {
		skipped = append(skipped, f.Refined.Text)
		log.Printf("%v", f)
	}

	// Rules where extraction succeeded but found nothing to flag still
	// belong in the skipped report.
	settled := make(map[string]struct{}, len(descs)+len(failures))
	for _, d := range descs {
		settled[fmt.Sprintf("%d.%d", d.RuleID, d.Seq)] = struct{}{}
	}
	for _, f := range failures {
		settled[f.Refined.Key()] = struct{}{}
	}
	for _, rr := range refined {
		if _, ok := settled[rr.Key()]; !ok {
			skipped = append(skipped, rr.Text)
			log.Printf("rule %s %q has nothing to flag", rr.Key(), rr.Text)
		}
	}

	// Build fragments; pure and deterministic.
	frags := make([]eslint.Fragment, 0, len(descs))
	for _, d := range descs {
		key := fmt.Sprintf("%d.%d", d.RuleID, d.Seq)
		frags = append(frags, eslint.Build(d, texts[key]))
	}

	doc, err := eslint.Aggregate(frags)
	if err != nil {
		return Result{}, err
	}
	out, err := eslint.Emit(doc, sum.Total, skipped)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", eslint.ErrAggregation, err)
	}

	log.Print(sum.String())
	return Result{Document: out, Summary: sum, Skipped: skipped}, nil
}

// promptf formats a prompt template with one rule text.
func promptf(tmpl, ruleText string) string {
	return fmt.Sprintf(tmpl, ruleText)
}
