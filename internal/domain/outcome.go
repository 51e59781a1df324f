package domain

import "encoding/json"

// OutcomeKind tags which variant of SearchOutcome is active
type OutcomeKind string

const (
	OutcomeMatches   OutcomeKind = "matches"
	OutcomeNoMatches OutcomeKind = "no_matches"
	OutcomeFailure   OutcomeKind = "failure"
)

// Messages shown to the end user. Failure details stay in the logs.
const (
	NoMatchesNotice = "No products found with similarity above 70%. Try uploading a different image!"
	FailureNotice   = "Something went wrong. Please try again."
)

// SearchOutcome is the classified result of one completed search.
// Only the field belonging to Kind is populated.
type SearchOutcome struct {
	Kind    OutcomeKind
	Matches []MatchResult
	Reason  error
}

// MatchesOutcome builds a Matches outcome, keeping the service's ranking order
func MatchesOutcome(matches []MatchResult) SearchOutcome {
	ordered := make([]MatchResult, len(matches))
	copy(ordered, matches)
	return SearchOutcome{Kind: OutcomeMatches, Matches: ordered}
}

// NoMatchesOutcome builds a NoMatches outcome
func NoMatchesOutcome() SearchOutcome {
	return SearchOutcome{Kind: OutcomeNoMatches}
}

// FailureOutcome builds a Failure outcome carrying the diagnostic reason
func FailureOutcome(reason error) SearchOutcome {
	return SearchOutcome{Kind: OutcomeFailure, Reason: reason}
}

// Notice returns the user-facing message for the outcome, empty for matches
func (o SearchOutcome) Notice() string {
	switch o.Kind {
	case OutcomeNoMatches:
		return NoMatchesNotice
	case OutcomeFailure:
		return FailureNotice
	default:
		return ""
	}
}

// MarshalJSON never includes the failure reason
func (o SearchOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    OutcomeKind   `json:"kind"`
		Matches []MatchResult `json:"matches,omitempty"`
		Notice  string        `json:"notice,omitempty"`
	}{
		Kind:    o.Kind,
		Matches: o.Matches,
		Notice:  o.Notice(),
	})
}

// Phase is the orchestrator's activity phase
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseSearching Phase = "searching"
)

// SearchState is the single state value exposed to presentation.
// Outcome is nil while searching and before the first completed search.
type SearchState struct {
	Phase   Phase          `json:"phase"`
	Outcome *SearchOutcome `json:"outcome,omitempty"`
}
