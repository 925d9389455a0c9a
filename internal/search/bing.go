package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const defaultBingEndpoint = "https://api.bing.microsoft.com/v7.0/images/search"

// ErrMissingAPIKey is returned when the Bing backend is configured without a key.
var ErrMissingAPIKey = errors.New("bing API key is required")

// BingRetriever queries the Bing Image Search v7 API.
type BingRetriever struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewBingRetriever creates a Bing retriever. An empty endpoint selects the public API.
func NewBingRetriever(endpoint, apiKey string) (*BingRetriever, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if endpoint == "" {
		endpoint = defaultBingEndpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid bing endpoint: %w", err)
	}
	return &BingRetriever{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		client:   &http.Client{},
	}, nil
}

// bingImage is a single entry of the Bing "value" array
type bingImage struct {
	Name         string `json:"name"`
	ContentURL   string `json:"contentUrl"`
	HostPageURL  string `json:"hostPageUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

type bingResponse struct {
	Value []bingImage `json:"value"`
}

func (b *BingRetriever) Name() string { return "bing" }

// Retrieve runs one image search. Entries without a content URL are dropped.
func (b *BingRetriever) Retrieve(ctx context.Context, query string, maxCount int) ([]CandidateImage, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(maxCount))
	params.Set("imageType", "Photo")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result bingResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}

	images := make([]CandidateImage, 0, len(result.Value))
	for _, v := range result.Value {
		if v.ContentURL == "" {
			continue
		}
		source := v.HostPageURL
		if source == "" {
			source = "bing"
		}
		images = append(images, CandidateImage{
			Locator:     v.ContentURL,
			Title:       v.Name,
			SourceLabel: source,
		})
		if maxCount > 0 && len(images) >= maxCount {
			break
		}
	}
	return images, nil
}
