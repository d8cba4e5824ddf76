// Package doctor runs environment diagnostics: configuration, API
// keys, the retrieval backend, and the local Ollama daemon.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/beagleboard/beaglemind/internal/config"
	"github.com/beagleboard/beaglemind/internal/retrieval"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Check is one diagnostic result.
type Check struct {
	Name   string
	Status Status
	Detail string
	Advice string
	// Optional checks never fail the aggregate.
	Optional bool
}

// Report is the full diagnostic run.
type Report struct {
	Checks []Check
}

// Healthy reports whether all required checks passed without errors.
func (r Report) Healthy() bool {
	for _, check := range r.Checks {
		if check.Status == StatusError && !check.Optional {
			return false
		}
	}
	return true
}

// Run executes every check. Network probes share a 10s budget each.
func Run(ctx context.Context, cfg *config.Config) Report {
	var report Report
	report.Checks = append(report.Checks, checkConfig(cfg))
	report.Checks = append(report.Checks, checkAPIKeys()...)
	report.Checks = append(report.Checks, checkRetrievalBackend(ctx, cfg))
	report.Checks = append(report.Checks, checkOllama(ctx))
	return report
}

func checkConfig(cfg *config.Config) Check {
	if cfg == nil || !cfg.IsValid() {
		return Check{
			Name:   "configuration",
			Status: StatusError,
			Detail: "config file missing or incomplete",
			Advice: "a default config is written to " + config.Path() + " on first run; delete it to regenerate",
		}
	}
	return Check{
		Name:   "configuration",
		Status: StatusOK,
		Detail: fmt.Sprintf("backend %s, model %s", cfg.DefaultBackend, cfg.DefaultModel),
	}
}

func checkAPIKeys() []Check {
	keys := []struct {
		env      string
		backend  string
		optional bool
	}{
		{"GROQ_API_KEY", "groq", false},
		{"OPENAI_API_KEY", "openai", false},
		{"OPENROUTER_API_KEY", "openrouter", true},
	}

	checks := make([]Check, 0, len(keys))
	for _, key := range keys {
		check := Check{Name: key.env, Optional: key.optional}
		if os.Getenv(key.env) == "" {
			check.Status = StatusWarning
			check.Detail = "not set"
			check.Advice = fmt.Sprintf("export %s to use the %s backend", key.env, key.backend)
			if key.optional {
				check.Detail = "not set (optional)"
				check.Advice = ""
			}
		} else {
			check.Status = StatusOK
			check.Detail = "set"
		}
		checks = append(checks, check)
	}
	return checks
}

func checkRetrievalBackend(ctx context.Context, cfg *config.Config) Check {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := retrieval.NewClient(cfg.BackendURL(), cfg.Collection())
	health := client.Health(probeCtx)

	if health.Err != nil {
		return Check{
			Name:   "document search",
			Status: StatusError,
			Detail: health.Err.Error(),
			Advice: "check your network, or set RAG_BACKEND_URL to a reachable backend",
		}
	}
	if !health.Online {
		return Check{
			Name:   "document search",
			Status: StatusError,
			Detail: fmt.Sprintf("backend returned HTTP %d", health.StatusCode),
			Advice: "the search backend may be down; answers will not be grounded in documentation",
		}
	}
	return Check{
		Name:   "document search",
		Status: StatusOK,
		Detail: fmt.Sprintf("online, %dms", health.Latency.Milliseconds()),
	}
}

// checkOllama probes the local daemon's tag list. Ollama is optional:
// its absence is a warning and never fails the aggregate.
func checkOllama(ctx context.Context) Check {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, "http://localhost:11434/api/tags", nil)
	if err != nil {
		return Check{Name: "ollama", Status: StatusWarning, Detail: err.Error(), Optional: true}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Check{
			Name:     "ollama",
			Status:   StatusWarning,
			Detail:   "not reachable at localhost:11434",
			Advice:   "install and start ollama to use local models",
			Optional: true,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Check{
			Name:     "ollama",
			Status:   StatusWarning,
			Detail:   fmt.Sprintf("daemon returned HTTP %d", resp.StatusCode),
			Optional: true,
		}
	}
	return Check{Name: "ollama", Status: StatusOK, Detail: "running", Optional: true}
}
