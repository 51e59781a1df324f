package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/visualmatch/client/internal/domain"
)

// pendingSearch tags one submitted search with the candidate it was built from
type pendingSearch struct {
	candidateID string
	cancel      context.CancelFunc
}

// SearchOrchestrator owns the search state machine:
// Idle -> Searching -> Idle with an outcome on display.
type SearchOrchestrator struct {
	client   domain.SearchClient
	recorder domain.OutcomeRecorder
	logger   *zap.Logger
	now      func() time.Time

	mu         sync.Mutex
	selectedID string
	state      domain.SearchState
	pending    *pendingSearch
	// inflight is closed when the request currently on the wire returns
	inflight chan struct{}
}

// NewSearchOrchestrator creates an orchestrator in the Idle phase
func NewSearchOrchestrator(client domain.SearchClient, recorder domain.OutcomeRecorder, logger *zap.Logger) *SearchOrchestrator {
	if recorder == nil {
		recorder = domain.NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SearchOrchestrator{
		client:   client,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
		state:    domain.SearchState{Phase: domain.PhaseIdle},
	}
}

// SelectionChanged resets the outcome and invalidates any in-flight search
func (s *SearchOrchestrator) SelectionChanged(candidateID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		s.logger.Debug("invalidating in-flight search",
			zap.String("candidate_id", s.pending.candidateID),
			zap.String("new_candidate_id", candidateID),
		)
		s.pending.cancel()
		s.pending = nil
	}

	s.selectedID = candidateID
	s.state = domain.SearchState{Phase: domain.PhaseIdle}
}

// Search runs one search for the candidate and publishes its outcome.
// NoMatches and Failure are returned as outcomes; errors only reject the call.
func (s *SearchOrchestrator) Search(ctx context.Context, candidate *domain.CandidateImage) (domain.SearchOutcome, error) {
	if candidate == nil {
		return domain.SearchOutcome{}, domain.ErrNoImageSelected
	}

	s.mu.Lock()
	if candidate.ID != s.selectedID {
		s.mu.Unlock()
		return domain.SearchOutcome{}, domain.ErrSuperseded
	}
	if s.pending != nil {
		s.mu.Unlock()
		return domain.SearchOutcome{}, domain.ErrSearchInProgress
	}

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := &pendingSearch{candidateID: candidate.ID, cancel: cancel}
	s.pending = p
	s.state = domain.SearchState{Phase: domain.PhaseSearching}
	req := domain.NewSearchRequest(candidate)
	s.mu.Unlock()

	s.logger.Info("search started", zap.String("candidate_id", candidate.ID))
	start := s.now()

	matches, err := s.send(reqCtx, func(ctx context.Context) ([]domain.MatchResult, error) {
		return s.client.SearchImage(ctx, req)
	})

	return s.complete(p, classify(matches, err), s.now().Sub(start))
}

// SearchURL runs a search by image URL. It does not touch the selection or the published state.
func (s *SearchOrchestrator) SearchURL(ctx context.Context, imageURL string) domain.SearchOutcome {
	start := s.now()

	matches, err := s.send(ctx, func(ctx context.Context) ([]domain.MatchResult, error) {
		return s.client.SearchURL(ctx, imageURL)
	})

	outcome := classify(matches, err)
	s.recorder.ObserveOutcome(outcome.Kind, s.now().Sub(start))
	s.logOutcome("", outcome)
	return outcome
}

// State returns a snapshot of the published state
func (s *SearchOrchestrator) State() domain.SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := domain.SearchState{Phase: s.state.Phase}
	if s.state.Outcome != nil {
		outcome := *s.state.Outcome
		if outcome.Matches != nil {
			outcome.Matches = append([]domain.MatchResult(nil), outcome.Matches...)
		}
		snapshot.Outcome = &outcome
	}
	return snapshot
}

// send waits until no other request is on the wire, then issues exactly one
func (s *SearchOrchestrator) send(
	ctx context.Context,
	call func(context.Context) ([]domain.MatchResult, error),
) ([]domain.MatchResult, error) {
	for {
		s.mu.Lock()
		if s.inflight == nil {
			s.inflight = make(chan struct{})
			s.mu.Unlock()
			break
		}
		busy := s.inflight
		s.mu.Unlock()

		select {
		case <-busy:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	defer func() {
		s.mu.Lock()
		close(s.inflight)
		s.inflight = nil
		s.mu.Unlock()
	}()

	return call(ctx)
}

// complete applies the outcome only if p is still the current request for the current selection
func (s *SearchOrchestrator) complete(p *pendingSearch, outcome domain.SearchOutcome, elapsed time.Duration) (domain.SearchOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != p || p.candidateID != s.selectedID {
		s.recorder.ObserveDiscarded()
		s.logger.Info("discarding stale search result",
			zap.String("candidate_id", p.candidateID),
			zap.String("outcome", string(outcome.Kind)),
		)
		return domain.SearchOutcome{}, domain.ErrSuperseded
	}

	s.pending = nil
	s.state = domain.SearchState{Phase: domain.PhaseIdle, Outcome: &outcome}
	s.recorder.ObserveOutcome(outcome.Kind, elapsed)
	s.logOutcome(p.candidateID, outcome)

	return outcome, nil
}

func (s *SearchOrchestrator) logOutcome(candidateID string, outcome domain.SearchOutcome) {
	fields := []zap.Field{zap.String("outcome", string(outcome.Kind))}
	if candidateID != "" {
		fields = append(fields, zap.String("candidate_id", candidateID))
	}

	switch outcome.Kind {
	case domain.OutcomeFailure:
		s.logger.Error("search failed", append(fields, zap.Error(outcome.Reason))...)
	case domain.OutcomeMatches:
		s.logger.Info("search completed", append(fields, zap.Int("matches", len(outcome.Matches)))...)
	default:
		s.logger.Info("search completed", fields...)
	}
}

// classify maps a client result to an outcome. Priority: matches, empty success, not-found, anything else.
func classify(matches []domain.MatchResult, err error) domain.SearchOutcome {
	switch {
	case err == nil && len(matches) > 0:
		return domain.MatchesOutcome(matches)
	case err == nil:
		return domain.NoMatchesOutcome()
	case errors.Is(err, domain.ErrNoMatches):
		return domain.NoMatchesOutcome()
	default:
		return domain.FailureOutcome(err)
	}
}
