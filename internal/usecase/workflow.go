package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/visualmatch/client/internal/domain"
)

// CandidateSummary is the presentation view of the staged image
type CandidateSummary struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	MediaType  string               `json:"mediaType"`
	Size       int                  `json:"size"`
	Preview    domain.PreviewHandle `json:"preview"`
	SelectedAt time.Time            `json:"selectedAt"`
}

// WorkflowView is everything presentation needs to render the search screen
type WorkflowView struct {
	Candidate *CandidateSummary  `json:"candidate,omitempty"`
	Dragging  bool               `json:"dragging"`
	Search    domain.SearchState `json:"search"`
}

// Workflow is one user's search session: an acquirer feeding an orchestrator
type Workflow struct {
	acquirer     *ImageAcquirer
	orchestrator *SearchOrchestrator
}

// NewWorkflow wires an acquirer and an orchestrator around the given collaborators
func NewWorkflow(
	client domain.SearchClient,
	previews domain.PreviewStore,
	recorder domain.OutcomeRecorder,
	logger *zap.Logger,
) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}

	orchestrator := NewSearchOrchestrator(client, recorder, logger.Named("orchestrator"))
	acquirer := NewImageAcquirer(previews, orchestrator, recorder, logger.Named("acquirer"))

	return &Workflow{
		acquirer:     acquirer,
		orchestrator: orchestrator,
	}
}

func (w *Workflow) SelectFromPicker(ctx context.Context, file domain.RawFile) error {
	return w.acquirer.SelectFromPicker(ctx, file)
}

func (w *Workflow) SelectFromDrop(ctx context.Context, file domain.RawFile) error {
	return w.acquirer.SelectFromDrop(ctx, file)
}

func (w *Workflow) DragEnter() { w.acquirer.DragEnter() }

func (w *Workflow) DragLeave() { w.acquirer.DragLeave() }

func (w *Workflow) Drop(ctx context.Context, file domain.RawFile) error {
	return w.acquirer.Drop(ctx, file)
}

func (w *Workflow) Clear(ctx context.Context) { w.acquirer.Clear(ctx) }

// Search runs a search for the staged image
func (w *Workflow) Search(ctx context.Context) (domain.SearchOutcome, error) {
	return w.orchestrator.Search(ctx, w.acquirer.Candidate())
}

// SearchURL runs a one-off search by image URL without touching the session state
func (w *Workflow) SearchURL(ctx context.Context, imageURL string) domain.SearchOutcome {
	return w.orchestrator.SearchURL(ctx, imageURL)
}

// View returns a consistent snapshot for presentation
func (w *Workflow) View() WorkflowView {
	view := WorkflowView{
		Dragging: w.acquirer.Dragging(),
		Search:   w.orchestrator.State(),
	}

	if c := w.acquirer.Candidate(); c != nil {
		view.Candidate = &CandidateSummary{
			ID:         c.ID,
			Name:       c.Name,
			MediaType:  c.MediaType,
			Size:       len(c.Content),
			Preview:    c.Preview,
			SelectedAt: c.SelectedAt,
		}
	}
	return view
}

// Close releases the staged preview
func (w *Workflow) Close(ctx context.Context) {
	w.acquirer.Close(ctx)
}
