// Package core runs the chat service behind the TUI: it owns the qa
// engine, reacts to UI events, and pushes transcript updates back.
package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/beagleboard/beaglemind/internal/config"
	"github.com/beagleboard/beaglemind/internal/eventbus"
	"github.com/beagleboard/beaglemind/internal/llm"
	"github.com/beagleboard/beaglemind/internal/models"
	"github.com/beagleboard/beaglemind/internal/permission"
	"github.com/beagleboard/beaglemind/internal/qa"
	"github.com/beagleboard/beaglemind/internal/retrieval"
	"github.com/beagleboard/beaglemind/internal/tools"
)

type ChatService struct {
	config   *config.Config
	state    *ChatState
	eventBus *eventbus.EventBus
	engine   *qa.Engine
	session  *qa.Session
	opts     qa.Options
	ctx      context.Context
	cancel   context.CancelFunc

	// lastSentCount tracks how much of the transcript the UI has seen.
	// Guarded by sendMutex: finishAsk pushes from the ask goroutine
	// while the event loop pushes from resets.
	lastSentCount int
	sendMutex     sync.Mutex

	asking           bool
	askMutex         sync.Mutex
	pendingApprovals map[string]chan bool
	approvalMutex    sync.RWMutex
}

func NewChatService(cfg *config.Config, eb *eventbus.EventBus) (*ChatService, error) {
	ctx, cancel := context.WithCancel(context.Background())

	session := qa.NewSession()
	session.StartConversation()

	service := &ChatService{
		config:           cfg,
		state:            NewChatState(),
		eventBus:         eb,
		session:          session,
		ctx:              ctx,
		cancel:           cancel,
		pendingApprovals: make(map[string]chan bool),
	}

	backend, err := llm.ParseKind(cfg.DefaultBackend)
	if err != nil {
		backend = llm.Groq
	}
	service.opts = qa.Options{
		Backend:     backend,
		Model:       cfg.DefaultModel,
		Temperature: float32(cfg.DefaultTemperature),
		Collection:  cfg.Collection(),
	}

	search := retrieval.NewClient(cfg.BackendURL(), cfg.Collection())
	service.engine = qa.NewEngine(search, llm.DefaultSet(), session, tools.NewDispatcher(), service)

	service.addWelcomeMessages(cfg)
	return service, nil
}

// Start runs the event loop in a goroutine.
func (cs *ChatService) Start() {
	cs.pushStateToUI()
	go cs.eventLoop()
}

func (cs *ChatService) Stop() {
	cs.cancel()
}

func (cs *ChatService) IsReady() bool {
	return cs.config.IsValid()
}

func (cs *ChatService) eventLoop() {
	for {
		select {
		case <-cs.ctx.Done():
			return
		case event, ok := <-cs.eventBus.UIToCore():
			if !ok {
				return
			}
			cs.handleUIEvent(event)
		}
	}
}

func (cs *ChatService) handleUIEvent(event eventbus.UIEvent) {
	switch e := event.(type) {
	case eventbus.AskEvent:
		cs.handleAsk(e.Question)
	case eventbus.ResetEvent:
		cs.handleReset()
	case eventbus.PermissionResponseEvent:
		cs.handlePermissionResponse(e)
	}
}

func (cs *ChatService) handleAsk(question string) {
	cs.askMutex.Lock()
	if cs.asking {
		cs.askMutex.Unlock()
		return
	}
	cs.asking = true
	cs.askMutex.Unlock()

	cs.state.StartProcessingWithQuestion(question)
	cs.pushStateToUI()

	// The answer runs in its own goroutine so the event loop stays free
	// to deliver permission responses.
	go func() {
		result := cs.engine.AskWithTools(cs.ctx, question, cs.opts)
		cs.finishAsk(result)
	}()
}

func (cs *ChatService) finishAsk(result qa.ChatResult) {
	var closing []models.Message

	for _, invocation := range result.ToolResults {
		argsJSON, _ := json.Marshal(invocation.Args)
		closing = append(closing, models.Message{
			Type:     models.ToolCall,
			ToolName: invocation.Name,
			ToolArgs: string(argsJSON),
			Content:  string(argsJSON),
		})
		resultJSON, err := json.MarshalIndent(invocation.Result, "", "  ")
		if err != nil {
			resultJSON = []byte(fmt.Sprintf("%v", invocation.Result))
		}
		closing = append(closing, models.Message{
			Type:     models.ToolResult,
			ToolName: invocation.Name,
			Content:  string(resultJSON),
		})
	}

	if result.Answer != "" {
		closing = append(closing, models.Message{Content: result.Answer, Type: models.Assistant})
	}

	for _, source := range result.Sources {
		name, _ := source["file_name"].(string)
		link, _ := source["source_link"].(string)
		text := name
		if link != "" {
			text += " (" + link + ")"
		}
		if text != "" {
			closing = append(closing, models.Message{Content: "Source: " + text, Type: models.Source})
		}
	}

	var err error
	if !result.Success && result.Error != "" {
		err = fmt.Errorf("%s", result.Error)
	}
	cs.state.FinishProcessing(closing, err)

	cs.askMutex.Lock()
	cs.asking = false
	cs.askMutex.Unlock()

	cs.pushStateToUI()
}

func (cs *ChatService) handleReset() {
	cs.session.Reset()
	// Clear and counter reset must be one step, or a concurrent push
	// could slice the emptied transcript with the stale count.
	cs.sendMutex.Lock()
	cs.state.Clear()
	cs.lastSentCount = 0
	cs.sendMutex.Unlock()
	cs.state.AddProgramMessage("Conversation cleared")
	cs.pushStateToUI()
}

// pushStateToUI sends only messages the UI has not seen yet.
func (cs *ChatService) pushStateToUI() {
	cs.sendMutex.Lock()
	allMessages := cs.state.GetMessages()
	newMessages := allMessages[cs.lastSentCount:]
	cs.lastSentCount = len(allMessages)
	cs.sendMutex.Unlock()

	if err := cs.eventBus.SendToUI(eventbus.StateUpdateEvent{
		Messages:     newMessages,
		IsProcessing: cs.state.IsProcessing(),
		Error:        cs.state.GetLastError(),
	}); err != nil {
		slog.Warn("failed to push state to UI", "error", err)
	}
}

func (cs *ChatService) addWelcomeMessages(cfg *config.Config) {
	cs.state.AddProgramMessage("-- BEAGLEMIND --")
	cs.state.AddProgramMessage(fmt.Sprintf("Backend: %s | Model: %s", cfg.DefaultBackend, cfg.DefaultModel))

	if cfg.IsValid() {
		cs.state.AddProgramMessage("Ask anything about BeagleBoard. Type your question and press Enter")
	} else {
		cs.state.AddProgramMessage("Configuration incomplete:")
		cs.state.AddProgramMessage("• Run: beaglemind doctor")
		cs.state.AddProgramMessage("• Or edit: " + config.Path())
	}

	cs.state.AddProgramMessage("Controls: Ctrl+C to exit, Ctrl+R to clear the conversation")
	cs.state.AddProgramMessage("")
}

// Approve implements permission.Approver by round-tripping the request
// through the UI and blocking until the user decides.
func (cs *ChatService) Approve(request permission.Request) bool {
	id := cs.generateApprovalID()

	responseChan := make(chan bool, 1)
	cs.approvalMutex.Lock()
	cs.pendingApprovals[id] = responseChan
	cs.approvalMutex.Unlock()

	defer func() {
		cs.approvalMutex.Lock()
		delete(cs.pendingApprovals, id)
		cs.approvalMutex.Unlock()
	}()

	if err := cs.eventBus.SendToUI(eventbus.PermissionRequestEvent{
		ID:      id,
		Summary: request.Summary,
		Details: request.Details,
	}); err != nil {
		return false
	}

	select {
	case approved := <-responseChan:
		return approved
	case <-cs.ctx.Done():
		return false
	}
}

func (cs *ChatService) handlePermissionResponse(response eventbus.PermissionResponseEvent) {
	cs.approvalMutex.RLock()
	responseChan, exists := cs.pendingApprovals[response.ID]
	cs.approvalMutex.RUnlock()

	if exists {
		select {
		case responseChan <- response.Approved:
		default:
		}
	}
}

func (cs *ChatService) generateApprovalID() string {
	bytes := make([]byte, 8)
	if _, err := io.ReadFull(rand.Reader, bytes); err != nil {
		// Never hand out an all-zero ID.
		return fmt.Sprintf("approval-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}
