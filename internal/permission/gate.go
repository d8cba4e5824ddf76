// Package permission gates destructive tool calls behind user approval.
// Only file-mutating tools require approval; command execution is
// covered by the dispatcher's deny-list instead.
package permission

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/beagleboard/beaglemind/internal/tools"
)

// Approver answers a single approval request. Implementations block
// until the user decides.
type Approver interface {
	Approve(request Request) bool
}

// Request is a formatted approval prompt for one tool call.
type Request struct {
	ToolName string
	Summary  string
	Details  []string
}

// RequiresApproval reports whether a tool call must be approved before
// execution. run_command is deliberately not listed: the deny-list in
// the dispatcher handles it.
func RequiresApproval(toolName string) bool {
	switch toolName {
	case tools.ToolWriteFile, tools.ToolEditFileLines:
		return true
	}
	return false
}

// DeniedResult is the tool result substituted when the user refuses.
func DeniedResult() tools.Result {
	return tools.Result{
		"success":     false,
		"error":       "Operation cancelled by user",
		"user_denied": true,
	}
}

const (
	previewLines    = 10
	previewMaxBytes = 500
)

// FormatRequest builds the approval prompt for a gated tool call.
func FormatRequest(toolName string, args map[string]any) Request {
	switch toolName {
	case tools.ToolWriteFile:
		return formatWriteRequest(args)
	case tools.ToolEditFileLines:
		return formatEditRequest(args)
	default:
		return Request{
			ToolName: toolName,
			Summary:  fmt.Sprintf("Run %s", toolName),
		}
	}
}

func formatWriteRequest(args map[string]any) Request {
	path, _ := args["file_path"].(string)
	content, _ := args["content"].(string)
	// Preview the repaired content: it is what write_file puts on disk.
	content = tools.RepairEscapedContent(content)

	lines := strings.Split(content, "\n")
	action := "Create"
	if _, err := os.Stat(path); err == nil {
		action = "Overwrite"
	}

	details := []string{
		fmt.Sprintf("%s file: %s", action, path),
		fmt.Sprintf("Size: %d bytes, %d lines", len(content), len(lines)),
	}
	if create, ok := args["create_directories"].(bool); ok && create {
		details = append(details, "Parent directories will be created if missing")
	}

	preview := lines
	if len(preview) > previewLines {
		preview = preview[:previewLines]
	}
	text := strings.Join(preview, "\n")
	if len(text) > previewMaxBytes {
		text = text[:previewMaxBytes] + "..."
	}
	if text != "" {
		details = append(details, "Preview:\n"+text)
		if len(lines) > previewLines {
			details = append(details, fmt.Sprintf("... and %d more lines", len(lines)-previewLines))
		}
	}

	return Request{
		ToolName: tools.ToolWriteFile,
		Summary:  fmt.Sprintf("%s %s (%d lines)", action, path, len(lines)),
		Details:  details,
	}
}

func formatEditRequest(args map[string]any) Request {
	path, _ := args["file_path"].(string)

	edits := map[string]string{}
	switch m := args["edits"].(type) {
	case map[string]string:
		edits = m
	case map[string]any:
		for k, v := range m {
			if s, ok := v.(string); ok {
				edits[k] = s
			}
		}
	}

	var current []string
	if data, err := os.ReadFile(path); err == nil {
		current = strings.Split(string(data), "\n")
	}

	keys := make([]int, 0, len(edits))
	for k := range edits {
		if n, err := strconv.Atoi(k); err == nil {
			keys = append(keys, n)
		}
	}
	sort.Ints(keys)

	details := []string{fmt.Sprintf("Edit file: %s (%d line edits)", path, len(edits))}
	for _, n := range keys {
		newContent := edits[strconv.Itoa(n)]
		currentLine := ""
		if n >= 1 && n <= len(current) {
			currentLine = strings.TrimSpace(current[n-1])
		}

		if newContent == "" {
			details = append(details, fmt.Sprintf("  line %d: DELETE %q", n, currentLine))
		} else {
			details = append(details, fmt.Sprintf("  line %d: REPLACE %q -> %q", n, currentLine, strings.TrimSpace(newContent)))
		}
	}

	return Request{
		ToolName: tools.ToolEditFileLines,
		Summary:  fmt.Sprintf("Edit %s (%d lines)", path, len(edits)),
		Details:  details,
	}
}

// TerminalApprover prompts on stdin with a y/n question. Used by the
// one-shot CLI path; the TUI has its own event-driven approver.
type TerminalApprover struct {
	In  *bufio.Reader
	Out *os.File
}

func NewTerminalApprover() *TerminalApprover {
	return &TerminalApprover{In: bufio.NewReader(os.Stdin), Out: os.Stderr}
}

func (a *TerminalApprover) Approve(request Request) bool {
	fmt.Fprintln(a.Out)
	fmt.Fprintln(a.Out, "Permission required: "+request.Summary)
	for _, detail := range request.Details {
		fmt.Fprintln(a.Out, detail)
	}
	fmt.Fprint(a.Out, "Allow? [y/N]: ")

	answer, err := a.In.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// AutoApprover approves or denies everything. Used for --yes runs and
// in tests.
type AutoApprover struct {
	Allow bool
}

func (a AutoApprover) Approve(Request) bool { return a.Allow }
