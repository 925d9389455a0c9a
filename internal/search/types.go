// Package search discovers candidate images for a search term.
// Backends implement Retriever; Aggregator fans out over query variants and
// merges the results into a single deduplicated candidate list.
package search

import (
	"context"
	"errors"
)

// ErrEmptyTerm is returned when the base search term is blank.
var ErrEmptyTerm = errors.New("search term is empty")

// CandidateImage is an image returned by a retriever, not yet confirmed to show the reference person.
type CandidateImage struct {
	Locator     string `json:"url"` // URL or local path, opaque identifier
	Title       string `json:"title"`
	SourceLabel string `json:"source"`
}

// Retriever turns a free-text query into candidate images.
type Retriever interface {
	Name() string
	Retrieve(ctx context.Context, query string, maxCount int) ([]CandidateImage, error)
}
