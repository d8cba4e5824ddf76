package components

import (
	"strings"

	"github.com/beagleboard/beaglemind/internal/models"
	"github.com/beagleboard/beaglemind/internal/utils"
	"github.com/beagleboard/beaglemind/ui/styles"
)

const toolResultPreviewLines = 8

func RenderMessages(messages []models.Message) string {
	var b strings.Builder

	userStyle := styles.UserStyle()
	assistantStyle := styles.AssistantStyle()
	programStyle := styles.ProgramStyle()
	toolCallStyle := styles.ToolCallStyle()
	toolResultStyle := styles.ToolResultStyle()
	sourceStyle := styles.SourceStyle()

	for _, msg := range messages {
		switch msg.Type {
		case models.User:
			b.WriteString(userStyle.Render("You: "+msg.Content) + "\n\n")
		case models.Assistant:
			b.WriteString(assistantStyle.Render(utils.RenderMarkdown(msg.Content)) + "\n\n")
		case models.Program:
			b.WriteString(programStyle.Render(msg.Content) + "\n\n")
		case models.ToolCall:
			b.WriteString(toolCallStyle.Render("→ "+msg.ToolName+" "+msg.ToolArgs) + "\n")
		case models.ToolResult:
			b.WriteString(toolResultStyle.Render("← "+msg.ToolName+"\n"+previewLines(msg.Content)) + "\n\n")
		case models.Source:
			b.WriteString(sourceStyle.Render(msg.Content) + "\n")
		}
	}

	return b.String()
}

func RenderPermissionPrompt(prompt *models.PermissionPrompt, width int) string {
	var b strings.Builder
	b.WriteString(prompt.Summary + "\n")
	for _, detail := range prompt.Details {
		b.WriteString(detail + "\n")
	}
	b.WriteString("[y] allow  [n] deny")
	return styles.PermissionStyle(width).Render(b.String())
}

// previewLines truncates long tool output so the transcript stays
// readable.
func previewLines(content string) string {
	lines := strings.Split(content, "\n")
	if len(lines) <= toolResultPreviewLines {
		return content
	}
	return strings.Join(lines[:toolResultPreviewLines], "\n") + "\n..."
}
