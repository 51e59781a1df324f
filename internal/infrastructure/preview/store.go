package preview

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/visualmatch/client/internal/domain"
)

// DefaultMaxDimension bounds the longest side of a generated thumbnail
const DefaultMaxDimension = 320

// entry is one live preview on disk
type entry struct {
	Path      string
	MediaType string
}

// Store is a thread-safe preview store that keeps thumbnails as files in a private directory
type Store struct {
	dir          string
	maxDimension int
	logger       *zap.Logger

	data  map[domain.PreviewHandle]entry
	mutex sync.RWMutex
}

// NewStore creates a preview store under baseDir (the OS temp dir when empty)
func NewStore(baseDir string, maxDimension int, logger *zap.Logger) (*Store, error) {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dir, err := os.MkdirTemp(baseDir, "visualmatch-previews-")
	if err != nil {
		return nil, fmt.Errorf("failed to create preview dir: %w", err)
	}

	return &Store{
		dir:          dir,
		maxDimension: maxDimension,
		logger:       logger,
		data:         make(map[domain.PreviewHandle]entry),
	}, nil
}

// Create writes a preview for the given content and returns its handle.
// Decodable images become a JPEG thumbnail; anything else is kept verbatim.
func (s *Store) Create(ctx context.Context, name, mediaType string, content []byte) (domain.PreviewHandle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	handle := domain.PreviewHandle(uuid.New().String())

	e, err := s.write(string(handle), content)
	if err != nil {
		return "", err
	}

	s.mutex.Lock()
	s.data[handle] = e
	s.mutex.Unlock()

	s.logger.Debug("preview created",
		zap.String("handle", string(handle)),
		zap.String("name", name),
		zap.String("declared_type", mediaType),
		zap.String("preview_type", e.MediaType),
	)

	return handle, nil
}

func (s *Store) write(id string, content []byte) (entry, error) {
	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err == nil {
		thumb := imaging.Fit(img, s.maxDimension, s.maxDimension, imaging.Lanczos)
		path := filepath.Join(s.dir, id+".jpg")
		if err := imaging.Save(thumb, path, imaging.JPEGQuality(85)); err != nil {
			return entry{}, fmt.Errorf("failed to save thumbnail: %w", err)
		}
		return entry{Path: path, MediaType: "image/jpeg"}, nil
	}

	// Not decodable: keep the raw bytes so the preview still resolves, like an object URL would.
	detected := mimetype.Detect(content)
	path := filepath.Join(s.dir, id+detected.Extension())
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return entry{}, fmt.Errorf("failed to write preview: %w", err)
	}
	return entry{Path: path, MediaType: detected.String()}, nil
}

// Release removes a preview. Releasing an unknown or already released handle returns ErrPreviewNotFound.
// Once the handle is known it is always forgotten; a file that cannot be removed is left for Close.
func (s *Store) Release(ctx context.Context, handle domain.PreviewHandle) error {
	s.mutex.Lock()
	e, exists := s.data[handle]
	if exists {
		delete(s.data, handle)
	}
	s.mutex.Unlock()

	if !exists {
		return domain.ErrPreviewNotFound
	}

	if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove preview file", zap.String("path", e.Path), zap.Error(err))
		return nil
	}

	s.logger.Debug("preview released", zap.String("handle", string(handle)))
	return nil
}

// Path resolves a live preview to its file and media type
func (s *Store) Path(handle domain.PreviewHandle) (string, string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, exists := s.data[handle]
	if !exists {
		return "", "", domain.ErrPreviewNotFound
	}
	return e.Path, e.MediaType, nil
}

// Live returns the number of previews not yet released
func (s *Store) Live() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

// Close releases every preview and removes the store directory
func (s *Store) Close() error {
	s.mutex.Lock()
	s.data = make(map[domain.PreviewHandle]entry)
	s.mutex.Unlock()

	return os.RemoveAll(s.dir)
}
