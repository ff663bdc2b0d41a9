// Package llm wraps hosted language-model APIs behind a single structured-output call.
//
// Every call asks the model for a JSON object matching a schema and decodes it into
// the caller's result value. Providers: Gemini (through Google's OpenAI-compatible
// endpoint), OpenAI and Anthropic.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"go.uber.org/zap"
)

// Provider names accepted by New.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const geminiOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// ErrUnavailable is returned by every call of a client that could not be configured.
var ErrUnavailable = errors.New("llm client unavailable")

// Client produces structured JSON completions.
type Client interface {
	Generate(ctx context.Context, req Request, result any) (*Response, error)
	Model() string
}

// Request is a single prompt with the JSON schema the answer must follow.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	SchemaName   string
	Schema       any
	MaxTokens    int
	Temperature  *float64 // nil = model default, explicit 0 = deterministic
}

// Response reports token usage for a completed call.
type Response struct {
	PromptTokens     int
	CompletionTokens int
}

// Config holds LLM client configuration.
type Config struct {
	Provider   string
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int
	MaxRetries int
	Timeout    time.Duration
}

// New creates a Client for cfg.Provider. Gemini is used when no provider is set.
func New(cfg Config, logger *zap.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		if cfg.BaseURL == "" {
			cfg.BaseURL = geminiOpenAIBaseURL
		}
		if cfg.Model == "" {
			cfg.Model = "gemini-2.5-flash-lite"
		}
		return newOpenAIClient(cfg, logger), nil
	case ProviderOpenAI:
		return newOpenAIClient(cfg, logger), nil
	case ProviderAnthropic:
		return newAnthropicClient(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

type unavailableClient struct {
	reason error
}

// NewUnavailable returns a Client that fails every call with ErrUnavailable.
// It lets the service run without credentials while triage falls back to defaults.
func NewUnavailable(reason error) Client {
	return &unavailableClient{reason: reason}
}

func (c *unavailableClient) Generate(context.Context, Request, any) (*Response, error) {
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, c.reason)
}

func (c *unavailableClient) Model() string {
	return "unavailable"
}

// GenerateSchema reflects a strict JSON schema for T.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// Temp returns a pointer to t for Request.Temperature.
func Temp(t float64) *float64 {
	return &t
}

// extractJSON strips markdown fences and surrounding prose from a model answer.
func extractJSON(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
