package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/visualmatch/client/internal/domain"
	"github.com/visualmatch/client/internal/usecase"
)

// maxUploadBytes caps the size of an uploaded image
const maxUploadBytes = 20 << 20

// Workflow is the search session driven by the presentation layer
type Workflow interface {
	SelectFromPicker(ctx context.Context, file domain.RawFile) error
	SelectFromDrop(ctx context.Context, file domain.RawFile) error
	DragEnter()
	DragLeave()
	Clear(ctx context.Context)
	Search(ctx context.Context) (domain.SearchOutcome, error)
	View() usecase.WorkflowView
}

// PreviewResolver maps preview handles to files on disk
type PreviewResolver interface {
	Path(handle domain.PreviewHandle) (string, string, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	workflow Workflow
	previews PreviewResolver
	metrics  http.Handler
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler. metrics may be nil.
func NewHandler(workflow Workflow, previews PreviewResolver, metrics http.Handler, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		workflow: workflow,
		previews: previews,
		metrics:  metrics,
		logger:   logger,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "visualmatch",
		"version": "1.0.0",
	})
}

// GetState returns the current workflow view
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.workflow.View())
}

// SelectFromPicker stages an uploaded file as the candidate image
func (h *Handler) SelectFromPicker(c *gin.Context) {
	file, ok := h.readUpload(c)
	if !ok {
		return
	}

	if err := h.workflow.SelectFromPicker(c.Request.Context(), file); err != nil {
		h.logger.Error("picker selection failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load image"})
		return
	}

	c.JSON(http.StatusOK, h.workflow.View())
}

// SelectFromDrop stages a dropped file; non-image drops are ignored
func (h *Handler) SelectFromDrop(c *gin.Context) {
	file, ok := h.readUpload(c)
	if !ok {
		return
	}

	h.workflow.DragLeave()
	if err := h.workflow.SelectFromDrop(c.Request.Context(), file); err != nil {
		h.logger.Error("drop selection failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load image"})
		return
	}

	c.JSON(http.StatusOK, h.workflow.View())
}

// ClearSelection removes the candidate image
func (h *Handler) ClearSelection(c *gin.Context) {
	h.workflow.Clear(c.Request.Context())
	c.JSON(http.StatusOK, h.workflow.View())
}

// DragEnter turns on the drop highlight
func (h *Handler) DragEnter(c *gin.Context) {
	h.workflow.DragEnter()
	c.JSON(http.StatusOK, h.workflow.View())
}

// DragLeave turns off the drop highlight
func (h *Handler) DragLeave(c *gin.Context) {
	h.workflow.DragLeave()
	c.JSON(http.StatusOK, h.workflow.View())
}

// Search runs a search for the staged image and returns the resulting view
func (h *Handler) Search(c *gin.Context) {
	_, err := h.workflow.Search(c.Request.Context())
	switch {
	case errors.Is(err, domain.ErrNoImageSelected):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please upload an image first!"})
		return
	case errors.Is(err, domain.ErrSearchInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "A search is already running"})
		return
	case errors.Is(err, domain.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": "The selected image changed during the search"})
		return
	case err != nil:
		h.logger.Error("search rejected", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": domain.FailureNotice})
		return
	}

	c.JSON(http.StatusOK, h.workflow.View())
}

// GetPreview serves a preview resource by handle
func (h *Handler) GetPreview(c *gin.Context) {
	path, mediaType, err := h.previews.Path(domain.PreviewHandle(c.Param("handle")))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "preview not found"})
		return
	}

	c.Header("Content-Type", mediaType)
	c.Header("Cache-Control", "no-store")
	c.File(path)
}

// Metrics exposes Prometheus metrics
func (h *Handler) Metrics(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusNotFound)
		return
	}
	h.metrics.ServeHTTP(c.Writer, c.Request)
}

// readUpload reads the "image" multipart field, answering 400 itself on failure
func (h *Handler) readUpload(c *gin.Context) (domain.RawFile, bool) {
	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return domain.RawFile{}, false
	}
	if header.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d MB", maxUploadBytes>>20)})
		return domain.RawFile{}, false
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read upload"})
		return domain.RawFile{}, false
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read upload"})
		return domain.RawFile{}, false
	}

	return domain.RawFile{
		Name:      header.Filename,
		MediaType: header.Header.Get("Content-Type"),
		Content:   content,
	}, true
}
