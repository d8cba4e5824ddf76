package models

type MessageType int

const (
	User MessageType = iota
	Assistant
	Program
	ToolCall
	ToolResult
	Source
)

type Message struct {
	Content string
	Type    MessageType
	// Set on ToolCall and ToolResult messages.
	ToolCallID string
	ToolName   string
	ToolArgs   string
}
