package domain

import (
	"context"
	"time"
)

// SearchClient defines the interface for the remote visual-similarity search service
type SearchClient interface {
	SearchImage(ctx context.Context, req *SearchRequest) ([]MatchResult, error)
	SearchURL(ctx context.Context, imageURL string) ([]MatchResult, error)
}

// PreviewStore creates and releases displayable previews for candidate images
type PreviewStore interface {
	Create(ctx context.Context, name, mediaType string, content []byte) (PreviewHandle, error)
	Release(ctx context.Context, handle PreviewHandle) error
}

// SelectionObserver is notified whenever the staged candidate image changes or is cleared.
// An empty candidateID means nothing is selected.
type SelectionObserver interface {
	SelectionChanged(candidateID string)
}

// OutcomeRecorder receives workflow events for metrics
type OutcomeRecorder interface {
	ObserveOutcome(kind OutcomeKind, elapsed time.Duration)
	ObserveDiscarded()
	PreviewCreated()
	PreviewReleased()
}

// NopRecorder discards all events
type NopRecorder struct{}

func (NopRecorder) ObserveOutcome(OutcomeKind, time.Duration) {}
func (NopRecorder) ObserveDiscarded()                          {}
func (NopRecorder) PreviewCreated()                            {}
func (NopRecorder) PreviewReleased()                           {}
