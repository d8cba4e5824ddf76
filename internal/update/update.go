package update

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/beagleboard/beaglemind/internal/dispatcher"
	"github.com/beagleboard/beaglemind/internal/eventbus"
	"github.com/beagleboard/beaglemind/internal/models"
)

func HandleUpdateWithEventBus(appModel *models.AppModel, msg tea.Msg, eb *eventbus.EventBus, chatReady bool) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return HandleKeyMsgWithEventBus(appModel, msg, eb, chatReady)
	case tea.WindowSizeMsg:
		HandleWindowSizeMsg(appModel, msg)
		return nil
	case TickMsg:
		return HandleTickMsg(appModel)
	case dispatcher.CoreEventMsg:
		return HandleCoreEvent(appModel, msg, eb)
	}
	return nil
}
