package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"rules2lint/internal/rules"
)

func TestExtractor_CancellationKeepsCompletedResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stub := &stubClient{extract: func(text string) (json.RawMessage, error) {
		// First rule succeeds, then the run is cancelled.
		defer cancel()
		return identifierFlag(text, "warn"), nil
	}}

	refined := []rules.RefinedRule{
		{RuleID: 1, Seq: 0, Text: "No alpha"},
		{RuleID: 2, Seq: 0, Text: "No bravo"},
		{RuleID: 3, Seq: 0, Text: "No charlie"},
	}
	ex := &Extractor{LLM: stub, Workers: 1}

	descs, failures, err := ex.Run(ctx, refined)
	require.NoError(t, err)
	require.Len(t, descs, 1)
	require.Equal(t, "alpha", descs[0].Value)
	require.Len(t, failures, 2)
	for _, f := range failures {
		require.ErrorIs(t, f.Err, context.Canceled)
	}
}

func TestExtractor_FirstValidFlagWins(t *testing.T) {
	stub := &stubClient{extract: func(string) (json.RawMessage, error) {
		// Leading flag is invalid (empty value); the next one is fine.
		return json.RawMessage(`{"flags":[
			{"type":"identifier","value":"","severity":"error"},
			{"type":"keyword","value":"var","severity":"warn"}
		]}`), nil
	}}
	ex := &Extractor{LLM: stub, Workers: 1}

	descs, failures, err := ex.Run(context.Background(),
		[]rules.RefinedRule{{RuleID: 1, Seq: 0, Text: "Never use var"}})
	require.NoError(t, err)
	require.Empty(t, failures)
	require.Len(t, descs, 1)
	require.Equal(t, rules.FlagKeyword, descs[0].Type)
	require.Equal(t, "var", descs[0].Value)
	// No retry when a later flag already satisfies the schema.
	require.Equal(t, 1, stub.attemptsFor("Never use var"))
}

func TestExtractor_EmptyFlagListMeansNothingToFlag(t *testing.T) {
	stub := &stubClient{extract: func(string) (json.RawMessage, error) {
		return json.RawMessage(`{"flags":[]}`), nil
	}}
	ex := &Extractor{LLM: stub, Workers: 2}

	descs, failures, err := ex.Run(context.Background(),
		[]rules.RefinedRule{{RuleID: 1, Seq: 0, Text: "Something benign"}})
	require.NoError(t, err)
	require.Empty(t, descs)
	require.Empty(t, failures)
	// No retry when the model legitimately finds nothing.
	require.Equal(t, 1, stub.attemptsFor("Something benign"))
}
