package domain

import (
	"strings"
	"time"
)

// PreviewHandle identifies a displayable preview resource. It is not the image binary.
type PreviewHandle string

// RawFile is a file handed over by a file picker or a drag-and-drop gesture
type RawFile struct {
	Name      string
	MediaType string // declared by the source, may be empty
	Content   []byte
}

// IsImage reports whether the declared media type is an image type
func (f RawFile) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(f.MediaType), "image/")
}

// CandidateImage is the single image currently staged for search
type CandidateImage struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	MediaType  string        `json:"mediaType"`
	Content    []byte        `json:"-"`
	Preview    PreviewHandle `json:"preview"`
	SelectedAt time.Time     `json:"selectedAt"`
}

// SearchRequest is the outbound payload for one search invocation
type SearchRequest struct {
	CandidateID string
	FileName    string
	MediaType   string
	Content     []byte
}

// NewSearchRequest frames the candidate's content for upload, tagged with the candidate identity
func NewSearchRequest(c *CandidateImage) *SearchRequest {
	name := c.Name
	if name == "" {
		name = "image"
	}
	return &SearchRequest{
		CandidateID: c.ID,
		FileName:    name,
		MediaType:   c.MediaType,
		Content:     c.Content,
	}
}
