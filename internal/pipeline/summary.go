package pipeline

import (
	"fmt"

	"github.com/google/uuid"
)

// Summary reports what happened to every parsed rule. The RunID tags
// logs only; it never enters the output document.
type Summary struct {
	RunID       string
	Total       int // candidate rules parsed
	FilteredOut int // classified non-lintable (or classification failed)
	Refined     int // refined rules that entered extraction
	Extracted   int // flag descriptors obtained
	Failed      int // refinement/extraction failures and abandoned rules
}

func newSummary() Summary {
	return Summary{RunID: uuid.NewString()}
}

func (s Summary) String() string {
	return fmt.Sprintf("run %s: %d rules, %d filtered out, %d refined, %d extracted, %d failed",
		s.RunID, s.Total, s.FilteredOut, s.Refined, s.Extracted, s.Failed)
}

// Partial reports whether the run succeeded only partially.
func (s Summary) Partial() bool { return s.Failed > 0 }
