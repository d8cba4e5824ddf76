package llm

import (
	"context"
	"log/slog"
)

// fallbackOrder is the fixed order tried after the preferred backend.
var fallbackOrder = []Kind{Ollama, OpenAI, Groq}

// CompleteWithFallback tries the preferred backend first, then the
// remaining backends in the fixed fallback order. A backend that errors
// or returns an empty answer is skipped. ok is false only when every
// backend failed; the returned answer then carries the last error text
// and callers should surface it as a degraded result, not a crash.
func CompleteWithFallback(ctx context.Context, backends Set, prompt string, preferred Kind, model string, temperature float32) (answer string, used Kind, ok bool) {
	order := []Kind{preferred}
	for _, kind := range fallbackOrder {
		if kind != preferred {
			order = append(order, kind)
		}
	}

	lastErr := "No LLM backend available"
	for _, kind := range order {
		backend, exists := backends[kind]
		if !exists {
			continue
		}

		ans, err := backend.Complete(ctx, prompt, model, temperature)
		if err != nil {
			lastErr = err.Error()
			slog.Debug("backend failed, trying next", "backend", kind, "error", err)
			continue
		}
		if ans == "" {
			continue
		}

		return ans, kind, true
	}

	return lastErr, "", false
}
