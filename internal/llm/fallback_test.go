package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
)

type fakeBackend struct {
	kind   Kind
	answer string
	err    error
	calls  int
}

func (b *fakeBackend) Kind() Kind          { return b.kind }
func (b *fakeBackend) SupportsTools() bool { return false }

func (b *fakeBackend) SendChat(ctx context.Context, messages []openai.ChatCompletionMessage, model string, temperature float32, tools []openai.Tool) (string, []ToolCall, error) {
	b.calls++
	return b.answer, nil, b.err
}

func (b *fakeBackend) Complete(ctx context.Context, prompt, model string, temperature float32) (string, error) {
	b.calls++
	return b.answer, b.err
}

func TestCompleteWithFallbackPrefersRequested(t *testing.T) {
	groq := &fakeBackend{kind: Groq, answer: "from groq"}
	ollama := &fakeBackend{kind: Ollama, answer: "from ollama"}
	backends := Set{Groq: groq, Ollama: ollama}

	answer, used, ok := CompleteWithFallback(context.Background(), backends, "q", Groq, "m", 0.3)
	if !ok {
		t.Fatal("expected success")
	}
	if used != Groq || answer != "from groq" {
		t.Errorf("preferred backend not used: %s %q", used, answer)
	}
	if ollama.calls != 0 {
		t.Error("fallback backend should not have been called")
	}
}

func TestCompleteWithFallbackSkipsFailing(t *testing.T) {
	groq := &fakeBackend{kind: Groq, err: errors.New("rate limited")}
	ollama := &fakeBackend{kind: Ollama, answer: "local answer"}
	backends := Set{Groq: groq, Ollama: ollama}

	answer, used, ok := CompleteWithFallback(context.Background(), backends, "q", Groq, "m", 0.3)
	if !ok {
		t.Fatal("expected fallback to succeed")
	}
	if used != Ollama || answer != "local answer" {
		t.Errorf("expected ollama fallback, got %s %q", used, answer)
	}
}

func TestCompleteWithFallbackSkipsEmptyAnswers(t *testing.T) {
	groq := &fakeBackend{kind: Groq, answer: ""}
	openaiBackend := &fakeBackend{kind: OpenAI, answer: "real answer"}
	backends := Set{Groq: groq, OpenAI: openaiBackend}

	answer, used, ok := CompleteWithFallback(context.Background(), backends, "q", Groq, "m", 0.3)
	if !ok || used != OpenAI || answer != "real answer" {
		t.Errorf("empty answer must be skipped: ok=%v used=%s answer=%q", ok, used, answer)
	}
}

func TestCompleteWithFallbackAllFail(t *testing.T) {
	groq := &fakeBackend{kind: Groq, err: errors.New("down")}
	backends := Set{Groq: groq}

	answer, used, ok := CompleteWithFallback(context.Background(), backends, "q", Groq, "m", 0.3)
	if ok {
		t.Fatal("expected failure when every backend errors")
	}
	if used != "" {
		t.Errorf("no backend should be reported, got %s", used)
	}
	if answer == "" {
		t.Error("last error text must be returned for diagnostics")
	}
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"groq", "openai", "ollama"} {
		if _, err := ParseKind(name); err != nil {
			t.Errorf("ParseKind(%q) unexpected error: %v", name, err)
		}
	}
	if _, err := ParseKind("anthropic"); err == nil {
		t.Error("unsupported backend must error")
	}
}
