// Package app wires the chat service, event bus, and Bubble Tea UI
// together.
package app

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/beagleboard/beaglemind/internal/config"
	"github.com/beagleboard/beaglemind/internal/core"
	"github.com/beagleboard/beaglemind/internal/dispatcher"
	"github.com/beagleboard/beaglemind/internal/eventbus"
	"github.com/beagleboard/beaglemind/internal/models"
)

// Application manages the complete application lifecycle.
type Application struct {
	config     *config.Config
	eventBus   *eventbus.EventBus
	dispatcher *dispatcher.EventDispatcher
	service    *core.ChatService
	model      *AppModel
}

type AppModel struct {
	appModel   models.AppModel
	dispatcher *dispatcher.EventDispatcher
}

func NewApplication() (*Application, error) {
	cfg := config.Load()

	eb := eventbus.NewEventBus()
	disp := dispatcher.NewEventDispatcher(eb)

	chatService, err := core.NewChatService(cfg, eb)
	if err != nil {
		slog.Error("failed to initialize chat service", "error", err)
		return nil, err
	}

	model := &AppModel{
		appModel:   createInitialAppModel(chatService),
		dispatcher: disp,
	}

	return &Application{
		config:     cfg,
		eventBus:   eb,
		dispatcher: disp,
		service:    chatService,
		model:      model,
	}, nil
}

func (app *Application) Start() error {
	app.service.Start()

	p := tea.NewProgram(app.model)
	_, err := p.Run()
	return err
}

func (app *Application) Stop() {
	app.service.Stop()
	app.dispatcher.Stop()
	app.eventBus.Close()
}

func createInitialAppModel(chatService *core.ChatService) models.AppModel {
	// The transcript starts empty; the chat service pushes all content,
	// welcome messages included.
	return models.AppModel{
		Messages:         make([]models.Message, 0),
		Status:           "Ready",
		Loading:          false,
		ChatServiceReady: chatService.IsReady(),
	}
}
