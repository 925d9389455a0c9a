// Package facematch decides which candidate images show the same person as a reference face.
// It compares face embeddings by Euclidean distance, ranks the matches and
// orchestrates the search -> match -> rank pipeline.
package facematch

import (
	"context"
	"errors"
	"math"
)

var (
	// ErrNoFace is the extractor's "not found" signal: zero usable faces in the image.
	ErrNoFace = errors.New("no face detected in image")

	// ErrInvalidImage is returned by extractors for bytes that do not decode as an image.
	ErrInvalidImage = errors.New("invalid image")

	// ErrDimensionMismatch is returned when two embeddings cannot be compared.
	ErrDimensionMismatch = errors.New("embedding dimensions differ")

	// ErrNoReference is returned when the pipeline is started without a reference embedding.
	ErrNoReference = errors.New("reference embedding is empty")
)

// FaceEmbedding is a fixed-length face descriptor produced by an Extractor.
// Treat it as immutable once produced.
type FaceEmbedding []float64

// Dim returns the dimensionality of the embedding.
func (e FaceEmbedding) Dim() int { return len(e) }

// Clone returns an independent copy.
func (e FaceEmbedding) Clone() FaceEmbedding {
	if e == nil {
		return nil
	}
	out := make(FaceEmbedding, len(e))
	copy(out, e)
	return out
}

// EuclideanDistance returns the L2 norm of a-b.
func EuclideanDistance(a, b FaceEmbedding) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, ErrDimensionMismatch
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Similarity maps a distance to a display score in [0, 1]: 1 - distance/2, clamped.
// Distances are not bounded for non-normalized embeddings, so the clamp matters.
func Similarity(distance float64) float64 {
	if math.IsNaN(distance) {
		return 0
	}
	return max(0, min(1, 1-distance/2))
}

// MatchResult is a candidate classified as the reference person.
type MatchResult struct {
	Locator         string  `json:"url"`
	Title           string  `json:"title"`
	SourceLabel     string  `json:"source"`
	SimilarityScore float64 `json:"similarity_score"`
	Distance        float64 `json:"distance"`
	ContentHash     string  `json:"image_hash,omitempty"`
}

// Extractor produces a face embedding from image bytes.
// It returns an error wrapping ErrNoFace when the image has no usable face.
type Extractor interface {
	ExtractEmbedding(ctx context.Context, imageData []byte) (FaceEmbedding, error)
}

// Fetcher resolves a candidate locator to image bytes.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}
