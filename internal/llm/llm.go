// File path: internal/llm/llm.go
package llm

import (
	"os"
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/luhcrodrigues/sqlpilot/internal/common"
	"github.com/luhcrodrigues/sqlpilot/internal/llm/providers"
)

type Message = providers.Message

type Provider = providers.Provider

const groqBaseURL = "https://api.groq.com/openai/v1"

// NewProvider selects the chat/embedding backend from the environment:
// OPENAI_API_KEY first, then GROQ_API_KEY via Groq's OpenAI-compatible
// endpoint, otherwise the deterministic local stub.
func NewProvider() Provider {
	logger := common.Logger()
	if apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); apiKey != "" {
		opts := []option.RequestOption{option.WithAPIKey(apiKey)}
		if endpoint := strings.TrimSpace(os.Getenv("OPENAI_ENDPOINT")); endpoint != "" {
			logger.Info("llm: using custom OpenAI endpoint", "endpoint", endpoint)
			opts = append(opts, option.WithBaseURL(endpoint))
		}
		client := openai.NewClient(opts...)
		chatModel := envOr("OPENAI_CHAT_MODEL", "gpt-4o")
		embedModel := envOr("OPENAI_EMBED_MODEL", "text-embedding-3-small")
		logger.Info("llm: OpenAI provider selected")
		return providers.NewOpenAIProvider(client, "openai", chatModel, embedModel)
	}
	if apiKey := strings.TrimSpace(os.Getenv("GROQ_API_KEY")); apiKey != "" {
		endpoint := envOr("GROQ_ENDPOINT", groqBaseURL)
		client := openai.NewClient(option.WithAPIKey(apiKey), option.WithBaseURL(endpoint))
		chatModel := envOr("GROQ_CHAT_MODEL", "llama-3.3-70b-versatile")
		embedModel := envOr("GROQ_EMBED_MODEL", "nomic-embed-text-v1.5")
		logger.Info("llm: Groq provider selected", "endpoint", endpoint)
		return providers.NewOpenAIProvider(client, "groq", chatModel, embedModel)
	}
	logger.Warn("llm: no API key set; falling back to local provider")
	return providers.NewLocalProvider()
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
