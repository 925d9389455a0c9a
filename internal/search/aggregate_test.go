package search

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRetriever returns canned results per query
type fakeRetriever struct {
	mu      sync.Mutex
	results map[string][]CandidateImage
	errs    map[string]error
	delays  map[string]time.Duration
	calls   []string
}

func (f *fakeRetriever) Name() string { return "fake" }

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, maxCount int) ([]CandidateImage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	f.mu.Unlock()

	if d := f.delays[query]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.errs[query]; err != nil {
		return nil, err
	}
	return f.results[query], nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func img(locator string) CandidateImage {
	return CandidateImage{Locator: locator, Title: locator, SourceLabel: "fake"}
}

func newTestAggregator(r Retriever) *Aggregator {
	a := NewAggregator(r)
	a.Logger = quietLogger()
	return a
}

func TestAggregate_DedupFirstSeenWins(t *testing.T) {
	r := &fakeRetriever{results: map[string][]CandidateImage{
		"jane":           {img("a"), img("b"), img("a")},
		"jane instagram": {{Locator: "b", Title: "later", SourceLabel: "ig"}, img("c")},
		"jane person":    {img("d"), img("c")},
	}}
	a := newTestAggregator(r)

	got, err := a.Aggregate(context.Background(), "jane", []string{"jane", "jane instagram", "jane person"})
	require.NoError(t, err)

	var locators []string
	for _, c := range got {
		locators = append(locators, c.Locator)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, locators)
	assert.Equal(t, "b", got[1].Title, "first variant's copy of b must win")
	assert.Len(t, r.calls, 3)
}

func TestAggregate_FailingVariantDoesNotAbort(t *testing.T) {
	r := &fakeRetriever{
		results: map[string][]CandidateImage{"jane person": {img("x")}},
		errs:    map[string]error{"jane": errors.New("boom")},
	}
	a := newTestAggregator(r)

	got, err := a.Aggregate(context.Background(), "jane", []string{"jane", "jane person"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].Locator)
}

func TestAggregate_AllVariantsFailReturnsEmpty(t *testing.T) {
	r := &fakeRetriever{errs: map[string]error{
		"jane":          errors.New("boom"),
		"jane facebook": errors.New("boom"),
	}}
	a := newTestAggregator(r)

	got, err := a.Aggregate(context.Background(), "jane", []string{"jane", "jane facebook"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAggregate_EmptyTerm(t *testing.T) {
	a := newTestAggregator(&fakeRetriever{})

	_, err := a.Aggregate(context.Background(), "  ", []string{"x"})
	assert.ErrorIs(t, err, ErrEmptyTerm)
}

func TestAggregate_DropsBlankLocators(t *testing.T) {
	r := &fakeRetriever{results: map[string][]CandidateImage{"jane": {img(""), img("a")}}}
	a := newTestAggregator(r)

	got, err := a.Aggregate(context.Background(), "jane", []string{"jane"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Locator)
}

func TestAggregate_PerVariantTimeout(t *testing.T) {
	r := &fakeRetriever{
		results: map[string][]CandidateImage{"jane": {img("slow")}, "jane person": {img("fast")}},
		delays:  map[string]time.Duration{"jane": time.Second},
	}
	a := newTestAggregator(r)
	a.Timeout = 20 * time.Millisecond

	got, err := a.Aggregate(context.Background(), "jane", []string{"jane", "jane person"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fast", got[0].Locator)
}

func TestAggregate_OrderIndependentOfCompletion(t *testing.T) {
	r := &fakeRetriever{
		results: map[string][]CandidateImage{"v1": {img("first")}, "v2": {img("second")}},
		delays:  map[string]time.Duration{"v1": 30 * time.Millisecond},
	}
	a := newTestAggregator(r)

	got, err := a.Aggregate(context.Background(), "v", []string{"v1", "v2"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Locator)
	assert.Equal(t, "second", got[1].Locator)
}

func TestMergeFirst_CountsDistinct(t *testing.T) {
	in := [][]CandidateImage{
		{img("a"), img("b"), img("c")},
		{img("c"), img("a")},
		{img("d"), img("b")},
	}

	got := mergeFirst(in)
	assert.Len(t, got, 4)
}
