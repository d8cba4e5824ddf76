package qa

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/beagleboard/beaglemind/internal/llm"
	"github.com/beagleboard/beaglemind/internal/permission"
	"github.com/beagleboard/beaglemind/internal/retrieval"
	"github.com/beagleboard/beaglemind/internal/tools"
)

type stubResponse struct {
	content   string
	toolCalls []llm.ToolCall
	err       error
}

type stubBackend struct {
	kind          llm.Kind
	supportsTools bool
	responses     []stubResponse
	calls         int
	seenTools     [][]openai.Tool
}

func (b *stubBackend) Kind() llm.Kind      { return b.kind }
func (b *stubBackend) SupportsTools() bool { return b.supportsTools }

func (b *stubBackend) SendChat(ctx context.Context, messages []openai.ChatCompletionMessage, model string, temperature float32, toolDefs []openai.Tool) (string, []llm.ToolCall, error) {
	b.seenTools = append(b.seenTools, toolDefs)
	if b.calls >= len(b.responses) {
		return "", nil, errors.New("no more stub responses")
	}
	resp := b.responses[b.calls]
	b.calls++
	return resp.content, resp.toolCalls, resp.err
}

func (b *stubBackend) Complete(ctx context.Context, prompt, model string, temperature float32) (string, error) {
	content, _, err := b.SendChat(ctx, nil, model, temperature, nil)
	return content, err
}

type stubSearcher struct {
	result retrieval.SearchResult
	calls  int
}

func (s *stubSearcher) Search(ctx context.Context, query string, nResults int, rerank bool, collectionOverride string) retrieval.SearchResult {
	s.calls++
	return s.result
}

type spyExecutor struct {
	calls  []string
	result tools.Result
}

func (e *spyExecutor) Execute(ctx context.Context, name string, args map[string]any) tools.Result {
	e.calls = append(e.calls, name)
	if e.result != nil {
		return e.result
	}
	return tools.Result{"success": true}
}

func docsResult(texts ...string) retrieval.SearchResult {
	docs := make([]string, 0, len(texts))
	metas := make([]map[string]any, 0, len(texts))
	for _, text := range texts {
		docs = append(docs, text)
		metas = append(metas, map[string]any{"file_name": "doc.rst"})
	}
	return retrieval.SearchResult{
		Documents:   [][]string{docs},
		Metadatas:   [][]map[string]any{metas},
		RetrievalOK: true,
	}
}

func newTestEngine(backend *stubBackend, search Searcher, executor Executor, approver permission.Approver) *Engine {
	session := NewSession()
	session.StartConversation()
	return NewEngine(search, llm.Set{backend.kind: backend}, session, executor, approver)
}

func TestAskWithToolsStopsAtMaxIterations(t *testing.T) {
	// The backend asks for a tool on every turn; with MaxIterations=1
	// the loop must make exactly one model call and still succeed.
	backend := &stubBackend{
		kind:          llm.Groq,
		supportsTools: true,
		responses: []stubResponse{
			{content: "checking...", toolCalls: []llm.ToolCall{{ID: "call_0", Name: tools.ToolReadFile, RawArguments: `{"file_path":"/tmp/x"}`}}},
			{content: "should not be reached", toolCalls: []llm.ToolCall{{ID: "call_1", Name: tools.ToolReadFile, RawArguments: `{}`}}},
		},
	}
	executor := &spyExecutor{}
	engine := newTestEngine(backend, &stubSearcher{result: docsResult("doc")}, executor, permission.AutoApprover{Allow: true})

	result := engine.AskWithTools(context.Background(), "What is on this board?", Options{Backend: llm.Groq, MaxIterations: 1})

	if !result.Success {
		t.Fatalf("iteration exhaustion must be a success, got error %q", result.Error)
	}
	if result.IterationsUsed != 1 {
		t.Errorf("expected 1 iteration, got %d", result.IterationsUsed)
	}
	if backend.calls != 1 {
		t.Errorf("expected 1 model call, got %d", backend.calls)
	}
	if len(executor.calls) != 1 {
		t.Errorf("expected 1 tool execution, got %d", len(executor.calls))
	}
	if result.Answer == "" {
		t.Error("answer must carry the last assistant content")
	}
	if len(result.ToolResults) == 1 {
		invocation := result.ToolResults[0]
		if invocation.RequiresPermission {
			t.Error("read_file must not be recorded as permission-gated")
		}
		if invocation.UserApproved != nil {
			t.Errorf("ungated invocation must carry no approval decision, got %v", *invocation.UserApproved)
		}
	}
}

func TestAskWithToolsTextOnlyBackendGetsNoTools(t *testing.T) {
	backend := &stubBackend{
		kind:          llm.Ollama,
		supportsTools: false,
		responses:     []stubResponse{{content: "a plain answer"}},
	}
	executor := &spyExecutor{}
	engine := newTestEngine(backend, &stubSearcher{result: docsResult("doc")}, executor, permission.AutoApprover{Allow: true})

	result := engine.AskWithTools(context.Background(), "What is the AM62 SoC?", Options{Backend: llm.Ollama})

	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	for i, toolDefs := range backend.seenTools {
		if len(toolDefs) != 0 {
			t.Errorf("call %d: text-only backend received %d tool definitions", i, len(toolDefs))
		}
	}
}

func TestAskWithToolsDeniedPermission(t *testing.T) {
	backend := &stubBackend{
		kind:          llm.Groq,
		supportsTools: true,
		responses: []stubResponse{
			{toolCalls: []llm.ToolCall{{ID: "call_0", Name: tools.ToolWriteFile, RawArguments: `{"file_path":"/tmp/out.txt","content":"x"}`}}},
			{content: "understood, not writing the file"},
		},
	}
	executor := &spyExecutor{}
	engine := newTestEngine(backend, &stubSearcher{result: docsResult("doc")}, executor, permission.AutoApprover{Allow: false})

	result := engine.AskWithTools(context.Background(), "How should this file look?", Options{Backend: llm.Groq})

	if !result.Success {
		t.Fatalf("denial must not fail the conversation, got %q", result.Error)
	}
	if len(executor.calls) != 0 {
		t.Fatalf("executor must not run denied tools, ran %v", executor.calls)
	}
	if len(result.ToolResults) != 1 {
		t.Fatalf("expected 1 recorded invocation, got %d", len(result.ToolResults))
	}
	invocation := result.ToolResults[0]
	denied, _ := invocation.Result["user_denied"].(bool)
	if !denied {
		t.Error("denied invocation must carry user_denied")
	}
	if !invocation.RequiresPermission {
		t.Error("write_file invocation must be recorded as permission-gated")
	}
	if invocation.UserApproved == nil || *invocation.UserApproved {
		t.Errorf("denied invocation must record the refusal, got %v", invocation.UserApproved)
	}
}

func TestAskWithToolsApprovedPermissionRecorded(t *testing.T) {
	backend := &stubBackend{
		kind:          llm.Groq,
		supportsTools: true,
		responses: []stubResponse{
			{toolCalls: []llm.ToolCall{{ID: "call_0", Name: tools.ToolWriteFile, RawArguments: `{"file_path":"/tmp/out.txt","content":"x"}`}}},
			{content: "file written"},
		},
	}
	executor := &spyExecutor{}
	engine := newTestEngine(backend, &stubSearcher{result: docsResult("doc")}, executor, permission.AutoApprover{Allow: true})

	result := engine.AskWithTools(context.Background(), "How should this file look?", Options{Backend: llm.Groq})

	if len(executor.calls) != 1 {
		t.Fatalf("approved tool must run, ran %v", executor.calls)
	}
	if len(result.ToolResults) != 1 {
		t.Fatalf("expected 1 recorded invocation, got %d", len(result.ToolResults))
	}
	invocation := result.ToolResults[0]
	if !invocation.RequiresPermission {
		t.Error("write_file invocation must be recorded as permission-gated")
	}
	if invocation.UserApproved == nil || !*invocation.UserApproved {
		t.Errorf("approved invocation must record the approval, got %v", invocation.UserApproved)
	}
}

func TestAskWithToolsInterceptsRetrieveContext(t *testing.T) {
	backend := &stubBackend{
		kind:          llm.Groq,
		supportsTools: true,
		responses: []stubResponse{
			{toolCalls: []llm.ToolCall{{ID: "call_0", Name: tools.ToolRetrieveContext, RawArguments: `{"query":"pwm pins"}`}}},
			{content: "the P9 header has PWM pins"},
		},
	}
	executor := &spyExecutor{}
	search := &stubSearcher{result: docsResult("P9 header PWM documentation")}
	engine := newTestEngine(backend, search, executor, permission.AutoApprover{Allow: true})

	result := engine.AskWithTools(context.Background(), "Which pins support PWM?", Options{Backend: llm.Groq})

	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if len(executor.calls) != 0 {
		t.Errorf("retrieve_context must not reach the dispatcher, ran %v", executor.calls)
	}
	if len(result.Sources) == 0 {
		t.Error("documents fetched via retrieve_context must appear in sources")
	}
}

func TestAskWithToolsBackendError(t *testing.T) {
	backend := &stubBackend{
		kind:          llm.Groq,
		supportsTools: true,
		responses:     []stubResponse{{err: errors.New("connection refused")}},
	}
	engine := newTestEngine(backend, &stubSearcher{result: docsResult("doc")}, &spyExecutor{}, permission.AutoApprover{Allow: true})

	result := engine.AskWithTools(context.Background(), "Why is the LED off?", Options{Backend: llm.Groq})

	if result.Success {
		t.Fatal("backend error must not report success")
	}
	if result.Answer == "" {
		t.Error("even failures must carry a user-facing answer")
	}
}

func TestAskAllBackendsFail(t *testing.T) {
	backend := &stubBackend{
		kind:      llm.Groq,
		responses: []stubResponse{{err: errors.New("down")}},
	}
	search := &stubSearcher{result: retrieval.SearchResult{RetrievalOK: false, Error: "unreachable"}}
	engine := newTestEngine(backend, search, &spyExecutor{}, permission.AutoApprover{Allow: true})

	result := engine.Ask(context.Background(), "What is a cape?", Options{Backend: llm.Groq})

	if !result.Success {
		t.Fatal("total LLM failure must degrade gracefully, not error")
	}
	if result.Answer == "" {
		t.Error("degraded result must still carry an answer")
	}
	if len(result.Sources) != 0 {
		t.Errorf("no sources expected, got %v", result.Sources)
	}
}

func TestAskSkipsRetrievalForActionRequests(t *testing.T) {
	backend := &stubBackend{
		kind:      llm.Groq,
		responses: []stubResponse{{content: "done"}},
	}
	search := &stubSearcher{result: docsResult("doc")}
	engine := newTestEngine(backend, search, &spyExecutor{}, permission.AutoApprover{Allow: true})

	engine.Ask(context.Background(), "create a file named hello.txt", Options{Backend: llm.Groq})

	if search.calls != 0 {
		t.Errorf("action request must skip retrieval, searched %d times", search.calls)
	}
}
