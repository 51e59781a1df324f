package matcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/visualmatch/client/internal/domain"
)

// uploadField is the multipart field name the service reads the image from
const uploadField = "image"

type urlSearchRequest struct {
	URL string `json:"url"`
}

// wireMatch mirrors one element of the service's JSON array
type wireMatch struct {
	Product    *wireProduct `json:"product"`
	Similarity *float64     `json:"similarity"`
}

type wireProduct struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Image    string `json:"image"`
}

// decodeMatches parses a success body. Array order is the ranking and is kept as is.
// An empty body is an empty result; anything after the array is malformed.
func decodeMatches(r io.Reader) ([]domain.MatchResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []domain.MatchResult{}, nil
	}

	var wire []wireMatch
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	matches := make([]domain.MatchResult, 0, len(wire))
	for i, w := range wire {
		m, err := mapToMatchResult(w)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", domain.ErrMalformedResponse, i, err)
		}
		matches = append(matches, m)
	}

	return matches, nil
}

// mapToMatchResult converts a wire element to the domain MatchResult
func mapToMatchResult(w wireMatch) (domain.MatchResult, error) {
	if w.Product == nil {
		return domain.MatchResult{}, fmt.Errorf("missing product")
	}
	if w.Similarity == nil {
		return domain.MatchResult{}, fmt.Errorf("missing similarity")
	}
	if *w.Similarity < 0 || *w.Similarity > 1 {
		return domain.MatchResult{}, fmt.Errorf("similarity %g outside [0,1]", *w.Similarity)
	}

	return domain.MatchResult{
		Product: domain.Product{
			Name:     w.Product.Name,
			Category: w.Product.Category,
			Image:    w.Product.Image,
		},
		Similarity: *w.Similarity,
	}, nil
}
