// File path: internal/intent/classifier_test.go
package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/luhcrodrigues/sqlpilot/internal/llm"
)

type scriptedProvider struct {
	answer string
	err    error
	calls  int
}

func (s *scriptedProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func (s *scriptedProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func (s *scriptedProvider) Name() string { return "scripted" }

func TestParseCategoryFallsBackToQuery(t *testing.T) {
	cases := map[string]Category{
		"GREETING":        CategoryGreeting,
		" saudacao ":      CategoryGreeting,
		"general":         CategoryGeneral,
		"QUERY_SQL":       CategoryQuery,
		"IRRELEVANT":      CategoryIrrelevant,
		"SOMETHING_WEIRD": CategoryQuery,
		"":                CategoryQuery,
	}
	for raw, want := range cases {
		if got := ParseCategory(raw); got != want {
			t.Fatalf("ParseCategory(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestClassifyMemoizesPerNormalizedQuestion(t *testing.T) {
	provider := &scriptedProvider{answer: "GREETING"}
	cache := NewCache()
	classifier := NewClassifier(provider, cache)
	ctx := context.Background()

	if got := classifier.Classify(ctx, "Hello there", nil); got != CategoryGreeting {
		t.Fatalf("unexpected category: %s", got)
	}
	if got := classifier.Classify(ctx, "  hello THERE ", nil); got != CategoryGreeting {
		t.Fatalf("unexpected category on cached variant: %s", got)
	}
	if provider.calls != 1 {
		t.Fatalf("expected a single provider call, got %d", provider.calls)
	}
}

func TestClassifyFailsOpenOnProviderError(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("backend down")}
	cache := NewCache()
	classifier := NewClassifier(provider, cache)

	if got := classifier.Classify(context.Background(), "count rows", nil); got != CategoryQuery {
		t.Fatalf("expected fail-open query category, got %s", got)
	}
	if cache.Len() != 0 {
		t.Fatalf("failed classification must not be memoized")
	}
}

func TestClassifyRepopulatesAfterPurge(t *testing.T) {
	provider := &scriptedProvider{answer: "QUERY_SQL"}
	cache := NewCache()
	classifier := NewClassifier(provider, cache)
	ctx := context.Background()

	classifier.Classify(ctx, "total sales", []string{"sales"})
	cache.Purge()
	classifier.Classify(ctx, "total sales", []string{"sales"})
	if provider.calls != 2 {
		t.Fatalf("purge must force reclassification, got %d calls", provider.calls)
	}
}
