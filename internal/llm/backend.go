package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Kind identifies a chat backend.
type Kind string

const (
	Groq   Kind = "groq"
	OpenAI Kind = "openai"
	Ollama Kind = "ollama"
)

// ParseKind normalizes a backend name from CLI flags or config.
func ParseKind(name string) (Kind, error) {
	switch Kind(name) {
	case Groq, OpenAI, Ollama:
		return Kind(name), nil
	}
	return "", fmt.Errorf("unsupported backend: %s", name)
}

// ToolCall is a tool invocation emitted by a model. RawArguments is the
// model's JSON-encoded argument object and is not guaranteed well-formed.
type ToolCall struct {
	ID           string
	Name         string
	RawArguments string
}

// ChatBackend is the capability interface for one model provider.
// SupportsTools is a static property of the variant: backends that report
// false must never receive tool definitions.
type ChatBackend interface {
	Kind() Kind
	SupportsTools() bool
	SendChat(ctx context.Context, messages []openai.ChatCompletionMessage, model string, temperature float32, tools []openai.Tool) (string, []ToolCall, error)
	Complete(ctx context.Context, prompt, model string, temperature float32) (string, error)
}

// Set maps backend kinds to their implementations.
type Set map[Kind]ChatBackend

// DefaultSet wires the three supported providers. Hosted backends read
// their API keys from the environment at call time; the local Ollama
// backend needs no key and is text-only by policy.
func DefaultSet() Set {
	return Set{
		Groq:   newCompatBackend(Groq, "https://api.groq.com/openai/v1", "GROQ_API_KEY", "", 30*time.Second, true),
		OpenAI: newCompatBackend(OpenAI, "", "OPENAI_API_KEY", "", 30*time.Second, true),
		Ollama: newCompatBackend(Ollama, "http://localhost:11434/v1", "", "ollama", 360*time.Second, false),
	}
}

// compatBackend talks to any OpenAI-compatible chat completion endpoint.
type compatBackend struct {
	kind          Kind
	baseURL       string
	apiKeyEnv     string
	fixedKey      string
	timeout       time.Duration
	supportsTools bool
}

func newCompatBackend(kind Kind, baseURL, apiKeyEnv, fixedKey string, timeout time.Duration, supportsTools bool) *compatBackend {
	return &compatBackend{
		kind:          kind,
		baseURL:       baseURL,
		apiKeyEnv:     apiKeyEnv,
		fixedKey:      fixedKey,
		timeout:       timeout,
		supportsTools: supportsTools,
	}
}

func (b *compatBackend) Kind() Kind          { return b.kind }
func (b *compatBackend) SupportsTools() bool { return b.supportsTools }

func (b *compatBackend) client() (*openai.Client, error) {
	apiKey := b.fixedKey
	if b.apiKeyEnv != "" {
		apiKey = os.Getenv(b.apiKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("%s is not set", b.apiKeyEnv)
		}
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if b.baseURL != "" {
		clientConfig.BaseURL = b.baseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: b.timeout}

	return openai.NewClientWithConfig(clientConfig), nil
}

func (b *compatBackend) SendChat(ctx context.Context, messages []openai.ChatCompletionMessage, model string, temperature float32, tools []openai.Tool) (string, []ToolCall, error) {
	client, err := b.client()
	if err != nil {
		return "", nil, err
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
	}
	// Tool definitions are withheld from text-only backends no matter
	// what the caller asked for.
	if b.supportsTools && len(tools) > 0 {
		req.Tools = tools
	}

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", nil, fmt.Errorf("%s chat error: %w", b.kind, err)
	}

	if len(resp.Choices) == 0 {
		return "", nil, nil
	}

	message := resp.Choices[0].Message
	toolCalls := make([]ToolCall, 0, len(message.ToolCalls))
	for i, tc := range message.ToolCalls {
		id := tc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		toolCalls = append(toolCalls, ToolCall{
			ID:           id,
			Name:         tc.Function.Name,
			RawArguments: tc.Function.Arguments,
		})
	}

	return message.Content, toolCalls, nil
}

func (b *compatBackend) Complete(ctx context.Context, prompt, model string, temperature float32) (string, error) {
	content, _, err := b.SendChat(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, model, temperature, nil)
	return content, err
}
