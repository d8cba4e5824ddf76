package app

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/beagleboard/beaglemind/internal/dispatcher"
	"github.com/beagleboard/beaglemind/internal/update"
	"github.com/beagleboard/beaglemind/ui/components"
)

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(
		update.TickCmd(),
		m.dispatcher.ListenForCoreEvents(),
	)
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	eventBus := m.dispatcher.GetEventBus()

	// Core events need the listener re-armed after delivery.
	if coreEvent, ok := msg.(dispatcher.CoreEventMsg); ok {
		cmd := update.HandleCoreEvent(&m.appModel, coreEvent, eventBus)
		return m, tea.Batch(cmd, m.dispatcher.ListenForCoreEvents())
	}

	chatReady := m.appModel.ChatServiceReady
	cmd := update.HandleUpdateWithEventBus(&m.appModel, msg, eventBus, chatReady)

	return m, cmd
}

func (m *AppModel) View() string {
	var b strings.Builder

	b.WriteString(components.RenderMessages(m.appModel.Messages))
	if m.appModel.PendingPermission != nil {
		b.WriteString(components.RenderPermissionPrompt(m.appModel.PendingPermission, m.appModel.Width))
		b.WriteString("\n")
	}
	b.WriteString(components.RenderInput(m.appModel.Input, m.appModel.Loading, m.appModel.LoadingDots, m.appModel.Width))
	b.WriteString("\n")
	b.WriteString(components.RenderStatus(m.appModel.Status, m.appModel.Loading, m.appModel.LoadingDots, m.appModel.Width))

	return b.String()
}
