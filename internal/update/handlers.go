package update

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/beagleboard/beaglemind/internal/dispatcher"
	"github.com/beagleboard/beaglemind/internal/eventbus"
	"github.com/beagleboard/beaglemind/internal/models"
)

// HandleKeyMsgWithEventBus handles keyboard input. While a permission
// prompt is pending, the only accepted keys are y/n.
func HandleKeyMsgWithEventBus(appModel *models.AppModel, keyMsg tea.KeyMsg, eb *eventbus.EventBus, chatReady bool) tea.Cmd {
	if appModel.PendingPermission != nil {
		return handlePermissionKey(appModel, keyMsg, eb)
	}

	switch keyMsg.String() {
	case "ctrl+c":
		return tea.Quit
	case "ctrl+r":
		if err := eb.SendToCore(eventbus.ResetEvent{}); err != nil {
			appModel.Status = "Error: " + err.Error()
		}
		return nil
	case "enter":
		question := strings.TrimSpace(appModel.Input)
		if question == "" {
			return nil
		}
		if !chatReady {
			appModel.Input = ""
			appModel.Status = "Chat service not available"
			return nil
		}
		if err := eb.SendToCore(eventbus.AskEvent{Question: question}); err != nil {
			appModel.Status = "Error sending question: " + err.Error()
			return nil
		}
		appModel.Input = ""
		return nil
	case "backspace":
		if len(appModel.Input) > 0 {
			appModel.Input = appModel.Input[:len(appModel.Input)-1]
		}
	default:
		if len(keyMsg.String()) == 1 {
			appModel.Input += keyMsg.String()
		}
	}
	return nil
}

func handlePermissionKey(appModel *models.AppModel, keyMsg tea.KeyMsg, eb *eventbus.EventBus) tea.Cmd {
	switch strings.ToLower(keyMsg.String()) {
	case "y":
		respondPermission(appModel, eb, true)
	case "n", "esc":
		respondPermission(appModel, eb, false)
	case "ctrl+c":
		respondPermission(appModel, eb, false)
		return tea.Quit
	}
	return nil
}

func respondPermission(appModel *models.AppModel, eb *eventbus.EventBus, approved bool) {
	prompt := appModel.PendingPermission
	appModel.PendingPermission = nil
	if prompt == nil {
		return
	}
	if err := eb.SendToCore(eventbus.PermissionResponseEvent{ID: prompt.ID, Approved: approved}); err != nil {
		appModel.Status = "Error: " + err.Error()
		return
	}
	if approved {
		appModel.Status = "Approved"
	} else {
		appModel.Status = "Denied"
	}
}

// HandleCoreEvent processes events from the chat service.
func HandleCoreEvent(appModel *models.AppModel, coreEventMsg dispatcher.CoreEventMsg, eb *eventbus.EventBus) tea.Cmd {
	switch event := coreEventMsg.Event.(type) {
	case eventbus.StateUpdateEvent:
		appModel.Messages = append(appModel.Messages, event.Messages...)
		appModel.Loading = event.IsProcessing

		if event.Error != nil {
			appModel.Status = "Error: " + event.Error.Error()
		} else if event.IsProcessing {
			appModel.Status = "Thinking"
		} else {
			appModel.Status = "Ready"
		}
	case eventbus.PermissionRequestEvent:
		appModel.PendingPermission = &models.PermissionPrompt{
			ID:      event.ID,
			Summary: event.Summary,
			Details: event.Details,
		}
		appModel.Status = "Permission required: y to allow, n to deny"
	}

	return nil
}

type TickMsg time.Time

func TickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func HandleWindowSizeMsg(appModel *models.AppModel, sizeMsg tea.WindowSizeMsg) {
	appModel.Width = sizeMsg.Width
	appModel.Height = sizeMsg.Height
}

func HandleTickMsg(appModel *models.AppModel) tea.Cmd {
	if appModel.Loading {
		appModel.LoadingDots = (appModel.LoadingDots + 1) % 4
	}
	return TickCmd()
}
