package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/visualmatch/client/internal/domain"
)

// ImageAcquirer turns picker and drop input into the single active CandidateImage
type ImageAcquirer struct {
	previews domain.PreviewStore
	observer domain.SelectionObserver
	recorder domain.OutcomeRecorder
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	candidate *domain.CandidateImage
	dragging  bool
}

// NewImageAcquirer creates an acquirer. observer is told about every selection change.
func NewImageAcquirer(
	previews domain.PreviewStore,
	observer domain.SelectionObserver,
	recorder domain.OutcomeRecorder,
	logger *zap.Logger,
) *ImageAcquirer {
	if recorder == nil {
		recorder = domain.NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ImageAcquirer{
		previews: previews,
		observer: observer,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// SelectFromPicker accepts any file. An undeclared media type is sniffed from the content.
func (a *ImageAcquirer) SelectFromPicker(ctx context.Context, file domain.RawFile) error {
	mediaType := file.MediaType
	if mediaType == "" {
		mediaType = mimetype.Detect(file.Content).String()
	}
	return a.install(ctx, file, mediaType)
}

// SelectFromDrop accepts only files declaring an image/* media type; anything else is ignored
func (a *ImageAcquirer) SelectFromDrop(ctx context.Context, file domain.RawFile) error {
	if !file.IsImage() {
		a.logger.Debug("ignoring non-image drop",
			zap.String("name", file.Name),
			zap.String("media_type", file.MediaType),
		)
		return nil
	}
	return a.install(ctx, file, file.MediaType)
}

// Clear releases the active candidate and its preview. No-op when nothing is selected.
func (a *ImageAcquirer) Clear(ctx context.Context) {
	a.mu.Lock()
	previous := a.candidate
	if previous == nil {
		a.mu.Unlock()
		return
	}
	a.candidate = nil
	a.notify("")
	a.mu.Unlock()

	a.logger.Info("selection cleared", zap.String("candidate_id", previous.ID))
	a.release(ctx, previous)
}

// DragEnter turns the drop highlight on
func (a *ImageAcquirer) DragEnter() {
	a.mu.Lock()
	a.dragging = true
	a.mu.Unlock()
}

// DragLeave turns the drop highlight off
func (a *ImageAcquirer) DragLeave() {
	a.mu.Lock()
	a.dragging = false
	a.mu.Unlock()
}

// Drop ends the drag gesture and routes the file into SelectFromDrop
func (a *ImageAcquirer) Drop(ctx context.Context, file domain.RawFile) error {
	a.DragLeave()
	return a.SelectFromDrop(ctx, file)
}

// Dragging reports whether a drag is hovering over the drop area
func (a *ImageAcquirer) Dragging() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dragging
}

// Candidate returns the active candidate for read-only use, or nil
func (a *ImageAcquirer) Candidate() *domain.CandidateImage {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.candidate == nil {
		return nil
	}
	c := *a.candidate
	return &c
}

// Close releases the active preview without notifying the observer
func (a *ImageAcquirer) Close(ctx context.Context) {
	a.mu.Lock()
	previous := a.candidate
	a.candidate = nil
	a.mu.Unlock()

	if previous != nil {
		a.release(ctx, previous)
	}
}

// install creates the preview first so a failed preview leaves the previous selection intact
func (a *ImageAcquirer) install(ctx context.Context, file domain.RawFile, mediaType string) error {
	handle, err := a.previews.Create(ctx, file.Name, mediaType, file.Content)
	if err != nil {
		return fmt.Errorf("failed to create preview: %w", err)
	}
	a.recorder.PreviewCreated()

	content := make([]byte, len(file.Content))
	copy(content, file.Content)

	candidate := &domain.CandidateImage{
		ID:         uuid.New().String(),
		Name:       file.Name,
		MediaType:  mediaType,
		Content:    content,
		Preview:    handle,
		SelectedAt: a.now(),
	}

	a.mu.Lock()
	previous := a.candidate
	a.candidate = candidate
	a.notify(candidate.ID)
	a.mu.Unlock()

	a.logger.Info("image selected",
		zap.String("candidate_id", candidate.ID),
		zap.String("name", candidate.Name),
		zap.String("media_type", mediaType),
		zap.Int("bytes", len(content)),
	)

	if previous != nil {
		a.release(ctx, previous)
	}
	return nil
}

// notify must be called with a.mu held so observers see changes in order
func (a *ImageAcquirer) notify(candidateID string) {
	if a.observer != nil {
		a.observer.SelectionChanged(candidateID)
	}
}

// release hands the preview back to the store. Only ErrPreviewNotFound means the store never held it.
func (a *ImageAcquirer) release(ctx context.Context, c *domain.CandidateImage) {
	err := a.previews.Release(ctx, c.Preview)
	if err != nil {
		a.logger.Warn("failed to release preview",
			zap.String("candidate_id", c.ID),
			zap.String("preview", string(c.Preview)),
			zap.Error(err),
		)
	}
	if errors.Is(err, domain.ErrPreviewNotFound) {
		return
	}
	a.recorder.PreviewReleased()
}
