// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Face matching constants
const (
	// DefaultDistanceThreshold is the default maximum Euclidean distance for a face match.
	// Facenet512-class embeddings: <0.4 near-certain, 0.4-0.5 probable, 0.5-0.7 uncertain, >0.7 different.
	DefaultDistanceThreshold = 0.5

	// DefaultConcurrency is the default number of parallel candidate workers
	DefaultConcurrency = 5

	// MaxImageSize is the maximum dimension (width or height) sent to the embedding service
	MaxImageSize = 1920
)

// Search constants
const (
	// DefaultMaxImagesPerQuery is the number of images requested per query variant
	DefaultMaxImagesPerQuery = 10

	// DefaultSearchConcurrency bounds parallel retrieval calls per aggregation
	DefaultSearchConcurrency = 4
)

// Timeout constants
const (
	// DefaultFetchTimeout bounds a single candidate image download
	DefaultFetchTimeout = 10 * time.Second

	// DefaultEmbeddingTimeout bounds a single embedding extraction call
	DefaultEmbeddingTimeout = 30 * time.Second

	// DefaultSearchTimeout bounds a single retrieval query
	DefaultSearchTimeout = 30 * time.Second

	// DefaultPipelineTimeout is the request-level deadline for one upload
	DefaultPipelineTimeout = 2 * time.Minute
)

// File upload constants
const (
	// MaxUploadSize is the maximum reference photo size in bytes (16MB)
	MaxUploadSize = 16 << 20

	// MaxFetchSize is the maximum candidate image size in bytes (16MB)
	MaxFetchSize = 16 << 20
)

// AllowedUploadExtensions lists accepted reference photo extensions (lowercase, no dot).
var AllowedUploadExtensions = []string{"png", "jpg", "jpeg", "gif"}
