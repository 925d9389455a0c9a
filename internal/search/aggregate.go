package search

import (
	"context"
	"time"

	"github.com/kozaktomas/reclaim/internal/constants"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Aggregator issues one retrieval per query variant and merges the results.
type Aggregator struct {
	Retriever     Retriever
	MaxImages     int           // per variant
	Timeout       time.Duration // per variant, 0 disables
	MaxConcurrent int           // parallel variants, 0 uses the default
	Logger        logrus.FieldLogger
}

// NewAggregator creates an aggregator with default limits.
func NewAggregator(r Retriever) *Aggregator {
	return &Aggregator{
		Retriever:     r,
		MaxImages:     constants.DefaultMaxImagesPerQuery,
		Timeout:       constants.DefaultSearchTimeout,
		MaxConcurrent: constants.DefaultSearchConcurrency,
		Logger:        logrus.StandardLogger(),
	}
}

// Aggregate retrieves candidates for every variant and deduplicates them by locator.
// Order is variant order, then retriever order within a variant; the first
// occurrence of a locator wins. Failing or empty variants are logged and skipped.
// When nothing is found the result is empty and the error is nil.
func (a *Aggregator) Aggregate(ctx context.Context, baseTerm string, variants []string) ([]CandidateImage, error) {
	if NormalizeTerm(baseTerm) == "" {
		return nil, ErrEmptyTerm
	}

	log := a.logger().WithFields(logrus.Fields{
		"term":      baseTerm,
		"variants":  len(variants),
		"retriever": a.Retriever.Name(),
	})
	log.Info("Aggregating candidates")

	perVariant := make([][]CandidateImage, len(variants))

	// Per-variant failures never fail the group, so the derived context is only
	// cancelled when the caller's context is.
	eg, egCtx := errgroup.WithContext(ctx)
	limit := a.MaxConcurrent
	if limit <= 0 {
		limit = constants.DefaultSearchConcurrency
	}
	eg.SetLimit(limit)

	for i, query := range variants {
		eg.Go(func() error {
			perVariant[i] = a.retrieveOne(egCtx, log, query)
			return nil
		})
	}
	_ = eg.Wait()

	merged := mergeFirst(perVariant)
	log.WithField("unique", len(merged)).Info("Aggregation complete")
	return merged, nil
}

func (a *Aggregator) retrieveOne(ctx context.Context, log logrus.FieldLogger, query string) []CandidateImage {
	if ctx.Err() != nil {
		return nil
	}
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	maxImages := a.MaxImages
	if maxImages <= 0 {
		maxImages = constants.DefaultMaxImagesPerQuery
	}

	items, err := a.Retriever.Retrieve(ctx, query, maxImages)
	if err != nil {
		log.WithError(err).WithField("query", query).Warn("Query variant failed")
		return nil
	}
	if len(items) == 0 {
		log.WithField("query", query).Info("Query variant returned no images")
		return nil
	}
	log.WithFields(logrus.Fields{"query": query, "found": len(items)}).Info("Query variant done")
	return items
}

// mergeFirst flattens per-variant results, dropping blank locators and
// keeping only the first occurrence of each locator.
func mergeFirst(perVariant [][]CandidateImage) []CandidateImage {
	seen := make(map[string]bool)
	var out []CandidateImage
	for _, items := range perVariant {
		for _, it := range items {
			if it.Locator == "" || seen[it.Locator] {
				continue
			}
			seen[it.Locator] = true
			out = append(out, it)
		}
	}
	if out == nil {
		out = []CandidateImage{}
	}
	return out
}

func (a *Aggregator) logger() logrus.FieldLogger {
	if a.Logger == nil {
		return logrus.StandardLogger()
	}
	return a.Logger
}
