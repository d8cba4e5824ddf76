package qa

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/beagleboard/beaglemind/internal/tools"
)

// Argument recovery for malformed tool-call JSON. Models, especially
// smaller ones, emit tool arguments with unterminated strings, raw
// newlines, or missing quotes. Strict parsing is tried first; after
// that the recovery is tool-specific so the loop can still make
// progress instead of erroring the whole turn.

var (
	commandQuoted     = regexp.MustCompile(`"command"\s*:\s*"([^"]*)"`)
	commandUnclosed   = regexp.MustCompile(`"command"\s*:\s*"([^"]*?)(?:"|$)`)
	commandBare       = regexp.MustCompile(`"command"\s*:\s*([^,}]*)`)
	filePathQuoted    = regexp.MustCompile(`"file_path"\s*:\s*"([^"]*)"`)
	contentQuoted     = regexp.MustCompile(`(?s)"content"\s*:\s*"(.*?)"\s*[,}]`)
	unsafeCommandChar = regexp.MustCompile(`[^a-zA-Z0-9\s\-\./_><=;]`)
	whitespaceRun     = regexp.MustCompile(`\s+`)
)

// RecoverArguments parses raw tool-call arguments, falling back to
// tool-specific heuristics when the JSON is malformed. It always
// returns a usable mapping; for run_command the recovered command may
// be a diagnostic echo rather than the original intent.
func RecoverArguments(raw, toolName string) map[string]any {
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err == nil {
		return args
	}

	switch toolName {
	case tools.ToolRunCommand:
		return map[string]any{"command": recoverCommand(raw)}
	case tools.ToolWriteFile:
		return recoverWriteFile(raw)
	default:
		return recoverGeneric(raw)
	}
}

func recoverCommand(raw string) string {
	for _, pattern := range []*regexp.Regexp{commandQuoted, commandUnclosed, commandBare} {
		if m := pattern.FindStringSubmatch(raw); m != nil {
			command := strings.TrimSpace(whitespaceRun.ReplaceAllString(m[1], " "))
			command = strings.Trim(command, `"'`)
			if command != "" {
				return command
			}
		}
	}

	// Last structured attempt: any line mentioning "command", stripped
	// down to shell-safe characters.
	for _, line := range strings.Split(raw, "\n") {
		if strings.Contains(line, "command") {
			cleaned := unsafeCommandChar.ReplaceAllString(line, " ")
			cleaned = strings.TrimSpace(whitespaceRun.ReplaceAllString(cleaned, " "))
			cleaned = strings.TrimPrefix(cleaned, "command")
			cleaned = strings.TrimSpace(strings.TrimLeft(cleaned, " ;"))
			if cleaned != "" {
				if len(cleaned) > 50 {
					cleaned = cleaned[:50]
				}
				return fmt.Sprintf("echo 'Extracted: %s'", cleaned)
			}
		}
	}

	return "echo 'Could not parse command'"
}

func recoverWriteFile(raw string) map[string]any {
	filePath := "recovered_file.txt"
	if m := filePathQuoted.FindStringSubmatch(raw); m != nil && m[1] != "" {
		filePath = m[1]
	}

	content := "# Content could not be recovered"
	if m := contentQuoted.FindStringSubmatch(raw); m != nil && m[1] != "" {
		content = m[1]
	}

	return map[string]any{
		"file_path":          filePath,
		"content":            content,
		"create_directories": true,
	}
}

// recoverGeneric strips control characters that commonly break JSON
// strings and retries the parse.
func recoverGeneric(raw string) map[string]any {
	cleaned := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(raw)
	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")

	var args map[string]any
	if err := json.Unmarshal([]byte(cleaned), &args); err == nil {
		return args
	}
	return map[string]any{}
}
