package facematch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/kozaktomas/reclaim/internal/constants"
	"github.com/kozaktomas/reclaim/internal/search"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// SkipReason explains why a candidate produced no result
type SkipReason string

const (
	SkipFetch     SkipReason = "fetch_failed"
	SkipNoFace    SkipReason = "no_face"
	SkipExtract   SkipReason = "extraction_failed"
	SkipDimension SkipReason = "dimension_mismatch"
	SkipCancelled SkipReason = "cancelled"
	SkipPanic     SkipReason = "panic"
)

// Stats summarizes one MatchAll run. It only feeds logs and CLI output.
type Stats struct {
	Candidates int                `json:"candidates"`
	Compared   int                `json:"compared"`
	Matched    int                `json:"matched"`
	Skipped    map[SkipReason]int `json:"skipped,omitempty"`
}

// ProgressFunc is called once per finished candidate.
type ProgressFunc func(done, total int)

// Engine classifies candidates against a reference embedding.
type Engine struct {
	Fetcher     Fetcher
	Extractor   Extractor
	Concurrency int // parallel candidate workers, 0 uses the default
	Logger      logrus.FieldLogger
	OnProgress  ProgressFunc
}

// NewEngine creates an engine with the default concurrency.
func NewEngine(f Fetcher, x Extractor) *Engine {
	return &Engine{
		Fetcher:     f,
		Extractor:   x,
		Concurrency: constants.DefaultConcurrency,
		Logger:      logrus.StandardLogger(),
	}
}

// outcome is the per-candidate result slot, indexed by discovery position
type outcome struct {
	match    *MatchResult
	compared bool
	skip     SkipReason
}

// MatchAll returns the candidates whose face is closer than threshold to reference,
// in candidate order. Candidates that cannot be fetched or embedded are skipped.
// When ctx is cancelled the matches computed so far are returned.
func (e *Engine) MatchAll(ctx context.Context, reference FaceEmbedding, candidates []search.CandidateImage, threshold float64) []MatchResult {
	matches, _ := e.MatchAllWithStats(ctx, reference, candidates, threshold)
	return matches
}

// MatchAllWithStats is MatchAll plus a summary of what happened to each candidate.
func (e *Engine) MatchAllWithStats(ctx context.Context, reference FaceEmbedding, candidates []search.CandidateImage, threshold float64) ([]MatchResult, Stats) {
	log := e.logger()
	if threshold <= 0 {
		log.WithFields(logrus.Fields{
			"threshold": threshold,
			"default":   constants.DefaultDistanceThreshold,
		}).Warn("Non-positive match threshold, using default")
		threshold = constants.DefaultDistanceThreshold
	}

	outcomes := make([]outcome, len(candidates))

	var (
		progressMu sync.Mutex
		done       int
	)
	reportProgress := func() {
		if e.OnProgress == nil {
			return
		}
		progressMu.Lock()
		done++
		current := done
		progressMu.Unlock()
		e.OnProgress(current, len(candidates))
	}

	// Workers never return errors, a failing candidate only fills its own slot.
	var eg errgroup.Group
	limit := e.Concurrency
	if limit <= 0 {
		limit = constants.DefaultConcurrency
	}
	eg.SetLimit(limit)

	for i := range candidates {
		if ctx.Err() != nil {
			outcomes[i].skip = SkipCancelled
			continue
		}
		eg.Go(func() error {
			defer reportProgress()
			outcomes[i] = e.matchOne(ctx, log, reference, candidates[i], threshold)
			return nil
		})
	}
	_ = eg.Wait()

	stats := Stats{Candidates: len(candidates), Skipped: make(map[SkipReason]int)}
	matches := make([]MatchResult, 0)
	for _, o := range outcomes {
		if o.compared {
			stats.Compared++
		}
		if o.skip != "" {
			stats.Skipped[o.skip]++
		}
		if o.match != nil {
			matches = append(matches, *o.match)
		}
	}
	stats.Matched = len(matches)
	return matches, stats
}

// matchOne runs fetch -> embed -> compare for a single candidate.
func (e *Engine) matchOne(ctx context.Context, log logrus.FieldLogger, reference FaceEmbedding, c search.CandidateImage, threshold float64) (out outcome) {
	clog := log.WithFields(logrus.Fields{"url": c.Locator, "title": c.Title})

	defer func() {
		if r := recover(); r != nil {
			clog.WithField("panic", r).Error("Candidate worker panicked")
			out = outcome{skip: SkipPanic}
		}
	}()

	if ctx.Err() != nil {
		return outcome{skip: SkipCancelled}
	}

	data, err := e.Fetcher.Fetch(ctx, c.Locator)
	if err != nil {
		clog.WithError(err).WithField("reason", SkipFetch).Debug("Skipping candidate")
		return outcome{skip: skipFor(ctx, SkipFetch)}
	}

	emb, err := e.Extractor.ExtractEmbedding(ctx, data)
	if err != nil {
		reason := SkipExtract
		if errors.Is(err, ErrNoFace) {
			reason = SkipNoFace
		}
		clog.WithError(err).WithField("reason", reason).Debug("Skipping candidate")
		return outcome{skip: skipFor(ctx, reason)}
	}

	distance, err := EuclideanDistance(reference, emb)
	if err != nil {
		clog.WithError(fmt.Errorf("%w: reference %d, candidate %d", err, reference.Dim(), emb.Dim())).
			WithField("reason", SkipDimension).Warn("Skipping candidate")
		return outcome{skip: SkipDimension}
	}

	if distance >= threshold {
		clog.WithFields(logrus.Fields{"distance": distance, "threshold": threshold}).Debug("Not a match")
		return outcome{compared: true}
	}

	result := &MatchResult{
		Locator:         c.Locator,
		Title:           c.Title,
		SourceLabel:     c.SourceLabel,
		SimilarityScore: Similarity(distance),
		Distance:        distance,
		ContentHash:     ContentHash(data),
	}
	clog.WithFields(logrus.Fields{
		"distance":   distance,
		"similarity": result.SimilarityScore,
	}).Info("Match found")
	return outcome{match: result, compared: true}
}

// skipFor reports cancellation instead of the stage failure when the request deadline caused it.
func skipFor(ctx context.Context, reason SkipReason) SkipReason {
	if ctx.Err() != nil {
		return SkipCancelled
	}
	return reason
}

// ContentHash returns the hex SHA-256 digest of the image bytes.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (e *Engine) logger() logrus.FieldLogger {
	if e.Logger == nil {
		return logrus.StandardLogger()
	}
	return e.Logger
}
