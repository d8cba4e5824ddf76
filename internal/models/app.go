package models

// PermissionPrompt is a pending approval request shown in the UI
// (kept here to avoid an import cycle with the event bus).
type PermissionPrompt struct {
	ID      string
	Summary string
	Details []string
}

// AppModel is the UI-local state. Conversation content arrives from
// the chat service through the event bus; nothing here is shared.
type AppModel struct {
	Messages          []Message
	Input             string
	Status            string
	Loading           bool
	LoadingDots       int
	Width             int
	Height            int
	ChatServiceReady  bool
	PendingPermission *PermissionPrompt
}
