// Package qa orchestrates retrieval-augmented question answering: it
// retrieves grounding documents, assembles prompts, drives the selected
// LLM backend, and runs the tool-calling loop.
package qa

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/beagleboard/beaglemind/internal/llm"
	"github.com/beagleboard/beaglemind/internal/permission"
	"github.com/beagleboard/beaglemind/internal/retrieval"
	"github.com/beagleboard/beaglemind/internal/tools"
)

const (
	defaultMaxIterations  = 5
	retrieveContextLimit  = 5
	ollamaContextResults  = 3
	defaultContextResults = 5
)

// Executor runs a local tool by name. *tools.Dispatcher is the real
// implementation; tests substitute spies.
type Executor interface {
	Execute(ctx context.Context, name string, args map[string]any) tools.Result
}

// Searcher is the retrieval surface the engine needs.
type Searcher interface {
	Search(ctx context.Context, query string, nResults int, rerank bool, collectionOverride string) retrieval.SearchResult
}

// Options selects backend, model, and behavior for one question.
type Options struct {
	Backend       llm.Kind
	Model         string
	Temperature   float32
	Collection    string
	MaxIterations int
}

// ToolInvocation records one tool call made while answering.
// UserApproved is nil when the call never went through the gate.
type ToolInvocation struct {
	Name               string         `json:"name"`
	Args               map[string]any `json:"args"`
	Result             tools.Result   `json:"result"`
	RequiresPermission bool           `json:"requires_permission"`
	UserApproved       *bool          `json:"user_approved,omitempty"`
}

// SearchInfo summarizes the retrieval that grounded the answer.
type SearchInfo struct {
	DocumentsFound int    `json:"documents_found"`
	RetrievalOK    bool   `json:"retrieval_ok"`
	Note           string `json:"note,omitempty"`
}

// ChatResult is the outcome of one question. Success reflects whether
// an answer was produced, not whether every tool call succeeded.
type ChatResult struct {
	Success        bool
	Answer         string
	ToolResults    []ToolInvocation
	Sources        []map[string]any
	IterationsUsed int
	Error          string
	SearchInfo     SearchInfo
}

// Engine answers questions for one session.
type Engine struct {
	search   Searcher
	backends llm.Set
	session  *Session
	executor Executor
	approver permission.Approver
}

func NewEngine(search Searcher, backends llm.Set, session *Session, executor Executor, approver permission.Approver) *Engine {
	return &Engine{
		search:   search,
		backends: backends,
		session:  session,
		executor: executor,
		approver: approver,
	}
}

// Ask answers without tools: one retrieval pass, then completion with
// backend fallback. It never returns an error; total failure degrades
// to an apologetic answer with Success=false only on internal faults.
func (e *Engine) Ask(ctx context.Context, question string, opts Options) ChatResult {
	contextDocs, searchInfo := e.retrieve(ctx, question, defaultContextResults, opts.Collection)

	prompt := FallbackPrompt(question, e.session.HistoryText(), contextDocs)
	answer, used, ok := llm.CompleteWithFallback(ctx, e.backends, prompt, opts.Backend, opts.Model, opts.Temperature)
	if !ok {
		slog.Warn("all backends failed", "last_error", answer)
		return ChatResult{
			Success:    true,
			Answer:     "I couldn't generate an answer right now. Please try again.",
			SearchInfo: searchInfo,
		}
	}

	if used != opts.Backend {
		slog.Debug("answered via fallback backend", "preferred", opts.Backend, "used", used)
	}

	e.recordTurn(question, answer)
	return ChatResult{
		Success:    true,
		Answer:     answer,
		Sources:    prepareSources(contextDocs),
		SearchInfo: searchInfo,
	}
}

// AskWithTools answers with the iterative tool-calling loop. Backends
// that do not support tools fall through to plain chat on the same
// path. Iteration exhaustion is a success: the last assistant content
// is the answer.
func (e *Engine) AskWithTools(ctx context.Context, question string, opts Options) (result ChatResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("tool loop panicked", "panic", r)
			result = ChatResult{
				Success: false,
				Answer:  "I hit an internal error while working on that. Please try again.",
				Error:   fmt.Sprintf("internal error: %v", r),
			}
		}
	}()

	backend, exists := e.backends[opts.Backend]
	if !exists {
		return ChatResult{
			Success: false,
			Answer:  "That backend is not configured. Run 'beaglemind doctor' to check your setup.",
			Error:   fmt.Sprintf("backend %q not available", opts.Backend),
		}
	}

	maxResults := defaultContextResults
	if opts.Backend == llm.Ollama {
		maxResults = ollamaContextResults
	}
	contextDocs, searchInfo := e.retrieve(ctx, question, maxResults, opts.Collection)

	toolsEnabled := backend.SupportsTools()
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt(contextDocs, opts.Backend, toolsEnabled)},
	}
	messages = append(messages, e.session.HistoryMessages()...)
	if toolsEnabled && WantsFileCreation(question) {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: "The user wants a file produced. Use write_file to create it instead of only printing the content.",
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: question})

	var toolDefs []openai.Tool
	if toolsEnabled {
		toolDefs = tools.Definitions()
		toolDefs = append(toolDefs, tools.RetrieveContextDefinition())
	}

	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}

	var invocations []ToolInvocation
	lastContent := ""
	iterations := 0

	for iterations < maxIterations {
		iterations++

		content, toolCalls, err := backend.SendChat(ctx, messages, opts.Model, opts.Temperature, toolDefs)
		if err != nil {
			slog.Warn("backend request failed", "backend", opts.Backend, "error", err)
			return ChatResult{
				Success:        false,
				Answer:         "I couldn't reach the language model. Please check your connection and try again.",
				Error:          err.Error(),
				ToolResults:    invocations,
				Sources:        prepareSources(contextDocs),
				IterationsUsed: iterations,
				SearchInfo:     searchInfo,
			}
		}

		if content != "" {
			lastContent = content
		}

		if len(toolCalls) == 0 {
			e.recordTurn(question, lastContent)
			return ChatResult{
				Success:        true,
				Answer:         lastContent,
				ToolResults:    invocations,
				Sources:        prepareSources(contextDocs),
				IterationsUsed: iterations,
				SearchInfo:     searchInfo,
			}
		}

		messages = append(messages, assistantToolCallMessage(content, toolCalls))

		for _, call := range toolCalls {
			args := RecoverArguments(call.RawArguments, call.Name)

			var toolResult tools.Result
			var gated bool
			var approved *bool
			if call.Name == tools.ToolRetrieveContext {
				var added []retrieval.ContextDocument
				toolResult, added = e.retrieveContextTool(ctx, args, opts.Collection)
				contextDocs = mergeContextDocs(contextDocs, added)
			} else {
				toolResult, gated, approved = e.executeGated(ctx, call.Name, args)
			}

			invocations = append(invocations, ToolInvocation{
				Name:               call.Name,
				Args:               args,
				Result:             toolResult,
				RequiresPermission: gated,
				UserApproved:       approved,
			})
			messages = append(messages, toolResultMessage(call.ID, toolResult))
		}
	}

	// Iterations exhausted: report what we have instead of failing.
	answer := lastContent
	if answer == "" {
		answer = "I ran out of steps while working on that. Here is what the tools produced so far; ask again to continue."
	}
	e.recordTurn(question, answer)
	return ChatResult{
		Success:        true,
		Answer:         answer,
		ToolResults:    invocations,
		Sources:        prepareSources(contextDocs),
		IterationsUsed: iterations,
		SearchInfo:     searchInfo,
	}
}

// executeGated runs one tool call through the permission gate. The
// returned approval pointer is nil when no decision was asked for.
func (e *Engine) executeGated(ctx context.Context, name string, args map[string]any) (tools.Result, bool, *bool) {
	gated := permission.RequiresApproval(name)
	if gated && e.approver != nil {
		decision := e.approver.Approve(permission.FormatRequest(name, args))
		if !decision {
			slog.Info("tool call denied by user", "tool", name)
			return permission.DeniedResult(), gated, &decision
		}
		return e.executor.Execute(ctx, name, args), gated, &decision
	}
	return e.executor.Execute(ctx, name, args), gated, nil
}

func (e *Engine) retrieve(ctx context.Context, question string, maxResults int, collection string) ([]retrieval.ContextDocument, SearchInfo) {
	if e.search == nil || !ShouldRetrieve(question) {
		return nil, SearchInfo{Note: "retrieval skipped"}
	}

	result := e.search.Search(ctx, question, maxResults, true, collection)
	docs := result.ContextDocuments(maxResults)

	info := SearchInfo{
		DocumentsFound: len(docs),
		RetrievalOK:    result.RetrievalOK,
	}
	if !result.RetrievalOK {
		info.Note = "document search unavailable: " + result.Error
	} else if len(docs) == 0 {
		info.Note = "no matching documents found"
	}
	return docs, info
}

// retrieveContextTool services the virtual retrieve_context tool.
func (e *Engine) retrieveContextTool(ctx context.Context, args map[string]any, defaultCollection string) (tools.Result, []retrieval.ContextDocument) {
	query, _ := args["query"].(string)
	if query == "" {
		return tools.Result{"success": false, "error": "retrieve_context requires a 'query' argument"}, nil
	}

	nResults := retrieveContextLimit
	if n, ok := args["n_results"].(float64); ok && int(n) > 0 && int(n) < retrieveContextLimit {
		nResults = int(n)
	}
	rerank := true
	if r, ok := args["rerank"].(bool); ok {
		rerank = r
	}
	collection := defaultCollection
	if c, ok := args["collection_name"].(string); ok && c != "" {
		collection = c
	}

	result := e.search.Search(ctx, query, nResults, rerank, collection)
	docs := result.ContextDocuments(nResults)
	if !result.RetrievalOK {
		return tools.Result{"success": false, "error": result.Error}, nil
	}

	summaries := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, map[string]any{
			"file":    doc.FileInfo.Name,
			"content": doc.Text,
		})
	}
	return tools.Result{
		"success":   true,
		"documents": summaries,
		"count":     len(docs),
	}, docs
}

func (e *Engine) recordTurn(question, answer string) {
	if e.session == nil {
		return
	}
	e.session.RecordUser(question)
	if answer != "" {
		e.session.RecordAssistant(answer)
	}
}

func assistantToolCallMessage(content string, calls []llm.ToolCall) openai.ChatCompletionMessage {
	msg := openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: content,
	}
	for _, call := range calls {
		msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
			ID:   call.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      call.Name,
				Arguments: call.RawArguments,
			},
		})
	}
	return msg
}

func toolResultMessage(callID string, result tools.Result) openai.ChatCompletionMessage {
	payload, err := json.Marshal(result)
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"success":false,"error":%q}`, err.Error()))
	}
	return openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		ToolCallID: callID,
		Content:    string(payload),
	}
}

// mergeContextDocs appends new documents, deduplicating on text.
func mergeContextDocs(existing, added []retrieval.ContextDocument) []retrieval.ContextDocument {
	seen := make(map[string]bool, len(existing))
	for _, doc := range existing {
		seen[doc.Text] = true
	}
	for _, doc := range added {
		if !seen[doc.Text] {
			existing = append(existing, doc)
			seen[doc.Text] = true
		}
	}
	return existing
}

// prepareSources converts context documents into the source records
// surfaced alongside answers.
func prepareSources(contextDocs []retrieval.ContextDocument) []map[string]any {
	sources := make([]map[string]any, 0, len(contextDocs))
	for _, doc := range contextDocs {
		source := map[string]any{
			"content":   snippet(doc.Text, 200),
			"file_name": doc.FileInfo.Name,
			"file_path": doc.FileInfo.Path,
			"file_type": doc.FileInfo.Type,
			"language":  doc.FileInfo.Language,
		}
		if link := sourceLink(doc.Metadata); link != "" {
			source["source_link"] = link
		}
		sources = append(sources, source)
	}
	return sources
}

func snippet(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
