package domain

import "errors"

var (
	// ErrNoImageSelected is returned when a search is requested before an image has been picked or dropped
	ErrNoImageSelected = errors.New("no image selected")

	// ErrSearchInProgress is returned when a search is requested while one is already running for the current image
	ErrSearchInProgress = errors.New("search already in progress")

	// ErrSuperseded is returned when a search result belongs to an image that is no longer selected
	ErrSuperseded = errors.New("search superseded by a newer selection")

	// ErrNoMatches is returned by the search service when no product clears the similarity threshold
	ErrNoMatches = errors.New("no products above similarity threshold")

	// ErrSearchAPIFailure is returned when the search service request fails
	ErrSearchAPIFailure = errors.New("search API request failed")

	// ErrMalformedResponse is returned when the search service answers with a body that cannot be decoded
	ErrMalformedResponse = errors.New("malformed search response")

	// ErrPreviewNotFound is returned when a preview handle is unknown or already released
	ErrPreviewNotFound = errors.New("preview not found")
)
