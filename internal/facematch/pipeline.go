package facematch

import (
	"context"
	"time"

	"github.com/kozaktomas/reclaim/internal/search"
	"github.com/sirupsen/logrus"
)

// CandidateSource discovers candidate images for a base term and its query variants.
type CandidateSource interface {
	Aggregate(ctx context.Context, baseTerm string, variants []string) ([]search.CandidateImage, error)
}

// Pipeline wires candidate discovery, matching and ranking for one request.
type Pipeline struct {
	Source        CandidateSource
	Engine        *Engine
	QuerySuffixes []string
	Threshold     float64
	Logger        logrus.FieldLogger
}

// PipelineResult is the ranked outcome of one Run.
type PipelineResult struct {
	Matches    []MatchResult `json:"matches"`
	Queries    []string      `json:"queries"`
	Candidates int           `json:"candidates"`
	Stats      Stats         `json:"stats"`
}

// Run searches for images of the search terms and returns the ones showing the reference face,
// ranked by similarity. Finding nothing is a valid result with no matches.
func (p *Pipeline) Run(ctx context.Context, reference FaceEmbedding, searchTerms string) (*PipelineResult, error) {
	if reference.Dim() == 0 {
		return nil, ErrNoReference
	}
	start := time.Now()
	log := p.logger()

	queries := search.QueryVariants(searchTerms, p.QuerySuffixes)
	if len(queries) == 0 {
		return nil, search.ErrEmptyTerm
	}

	candidates, err := p.Source.Aggregate(ctx, searchTerms, queries)
	if err != nil {
		return nil, err
	}

	result := &PipelineResult{
		Matches:    []MatchResult{},
		Queries:    queries,
		Candidates: len(candidates),
	}
	if len(candidates) == 0 {
		log.WithField("queries", len(queries)).Info("No candidates found")
		return result, nil
	}

	engine := *p.Engine
	if p.Logger != nil {
		engine.Logger = p.Logger
	}
	matches, stats := engine.MatchAllWithStats(ctx, reference, candidates, p.Threshold)
	result.Matches = Rank(matches)
	result.Stats = stats

	log.WithFields(logrus.Fields{
		"candidates": stats.Candidates,
		"compared":   stats.Compared,
		"matched":    stats.Matched,
		"skipped":    stats.Skipped,
		"partial":    ctx.Err() != nil,
		"elapsed":    time.Since(start).Round(time.Millisecond).String(),
	}).Info("Match pipeline complete")
	return result, nil
}

func (p *Pipeline) logger() logrus.FieldLogger {
	if p.Logger == nil {
		return logrus.StandardLogger()
	}
	return p.Logger
}
