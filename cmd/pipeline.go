package cmd

import (
	"fmt"

	"github.com/kozaktomas/reclaim/internal/config"
	"github.com/kozaktomas/reclaim/internal/facematch"
	"github.com/kozaktomas/reclaim/internal/fetch"
	"github.com/kozaktomas/reclaim/internal/fingerprint"
	"github.com/kozaktomas/reclaim/internal/search"
	"github.com/sirupsen/logrus"
)

// pipelineDeps are the components shared by serve and match.
type pipelineDeps struct {
	extractor *fingerprint.EmbeddingClient
	engine    *facematch.Engine
	pipeline  *facematch.Pipeline
}

// buildPipeline wires retrieval, fetching, embedding and matching from the configuration.
func buildPipeline(cfg *config.Config, logger logrus.FieldLogger) (*pipelineDeps, error) {
	aggregator, err := search.NewAggregatorFromConfig(cfg.Search)
	if err != nil {
		return nil, fmt.Errorf("configuring search: %w", err)
	}
	aggregator.Logger = logger

	fetcher := fetch.New(cfg.Fetch.Timeout, cfg.Fetch.MaxBytes)
	fetcher.LocalRoot = cfg.Fetch.LocalRoot

	extractor := fingerprint.NewEmbeddingClient(cfg.Embedding.URL, cfg.Embedding.Timeout, cfg.Embedding.RateLimit)

	engine := facematch.NewEngine(fetcher, extractor)
	engine.Concurrency = cfg.Match.Concurrency
	engine.Logger = logger

	logger.WithFields(logrus.Fields{
		"search_backend": aggregator.Retriever.Name(),
		"embedding_url":  cfg.Embedding.URL,
		"threshold":      cfg.Match.Threshold,
		"concurrency":    engine.Concurrency,
	}).Debug("Match pipeline configured")

	return &pipelineDeps{
		extractor: extractor,
		engine:    engine,
		pipeline: &facematch.Pipeline{
			Source:        aggregator,
			Engine:        engine,
			QuerySuffixes: cfg.Search.QuerySuffixes,
			Threshold:     cfg.Match.Threshold,
			Logger:        logger,
		},
	}, nil
}
