// File path: internal/llm/providers/local.go
package providers

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

type Message struct {
	Role    string
	Content string
}

type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Embed(ctx context.Context, input []string) ([][]float32, error)
	Name() string
}

// LocalProvider is a deterministic offline stand-in used when no API key is
// configured and in tests.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (l *LocalProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	last := messages[len(messages)-1].Content
	return "[local-stub] " + strings.TrimSpace(last), nil
}

// Embed produces a stable pseudo-embedding per input so vector plumbing can
// be exercised without a model.
func (l *LocalProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	vectors := make([][]float32, len(input))
	for i, text := range input {
		hasher := fnv.New32a()
		_, _ = hasher.Write([]byte(text))
		seed := hasher.Sum32()
		vectors[i] = []float32{
			float32(seed%997) / 997,
			float32(seed%991) / 991,
			float32(seed%983) / 983,
		}
	}
	return vectors, nil
}

func (l *LocalProvider) Name() string {
	return "local"
}
