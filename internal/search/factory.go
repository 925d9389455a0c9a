package search

import (
	"fmt"

	"github.com/kozaktomas/reclaim/internal/config"
)

// NewRetriever builds the retriever selected by cfg.Backend.
func NewRetriever(cfg config.SearchConfig) (Retriever, error) {
	switch cfg.Backend {
	case "bing", "":
		return NewBingRetriever(cfg.BingEndpoint, cfg.BingAPIKey)
	case "local":
		return NewDirectoryRetriever(cfg.LocalDir), nil
	default:
		return nil, fmt.Errorf("unknown search backend %q", cfg.Backend)
	}
}

// NewAggregatorFromConfig wires a retriever and the configured limits.
func NewAggregatorFromConfig(cfg config.SearchConfig) (*Aggregator, error) {
	r, err := NewRetriever(cfg)
	if err != nil {
		return nil, err
	}
	a := NewAggregator(r)
	if cfg.MaxImages > 0 {
		a.MaxImages = cfg.MaxImages
	}
	if cfg.Timeout > 0 {
		a.Timeout = cfg.Timeout
	}
	return a, nil
}
