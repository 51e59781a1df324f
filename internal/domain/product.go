package domain

import "math"

// Product represents a catalogue item known to the similarity search service
type Product struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Image    string `json:"image"` // URL
}

// MatchResult is one ranked match returned by the search service
type MatchResult struct {
	Product    Product `json:"product"`
	Similarity float64 `json:"similarity"` // 0-1
}

// Percent returns the similarity as a whole percentage for display
func (m MatchResult) Percent() int {
	return int(math.Round(m.Similarity * 100))
}
