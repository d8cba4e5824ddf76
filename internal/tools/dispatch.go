package tools

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Tool names. The set is closed: dispatch is a switch over these
// constants and anything else is an unknown-tool error.
const (
	ToolReadFile          = "read_file"
	ToolWriteFile         = "write_file"
	ToolEditFileLines     = "edit_file_lines"
	ToolListDirectory     = "list_directory"
	ToolSearchInFiles     = "search_in_files"
	ToolShowDirectoryTree = "show_directory_tree"
	ToolRunCommand        = "run_command"
	ToolAnalyzeCode       = "analyze_code"

	// ToolRetrieveContext is virtual: it is defined here so it appears
	// in the tool list, but the QA engine intercepts it and routes it
	// to the retrieval client instead of the dispatcher.
	ToolRetrieveContext = "retrieve_context"
)

// Result is a tool result mapping. Every result carries a "success"
// boolean; failures add "error". Results are serialized straight into
// tool messages, so they stay wire-shaped instead of per-tool structs.
type Result map[string]any

func (r Result) Success() bool {
	ok, _ := r["success"].(bool)
	return ok
}

func (r Result) ErrorText() string {
	text, _ := r["error"].(string)
	return text
}

func failure(format string, args ...any) Result {
	return Result{"success": false, "error": fmt.Sprintf(format, args...)}
}

// Dispatcher invokes the fixed local tool set by name. Tool errors and
// panics are converted to failure results; a tool can never crash the
// orchestration loop.
type Dispatcher struct {
	runner commandRunner
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{runner: runShellCommand}
}

func (d *Dispatcher) Execute(ctx context.Context, name string, args map[string]any) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = failure("Tool execution error: %v", r)
		}
	}()

	switch name {
	case ToolReadFile:
		return readFile(decodeReadFileArgs(args))
	case ToolWriteFile:
		return writeFile(decodeWriteFileArgs(args))
	case ToolEditFileLines:
		return editFileLines(decodeEditFileLinesArgs(args))
	case ToolListDirectory:
		return listDirectory(decodeListDirectoryArgs(args))
	case ToolSearchInFiles:
		return searchInFiles(decodeSearchInFilesArgs(args))
	case ToolShowDirectoryTree:
		return showDirectoryTree(decodeDirectoryTreeArgs(args))
	case ToolRunCommand:
		return d.runCommand(ctx, decodeRunCommandArgs(args))
	case ToolAnalyzeCode:
		return analyzeCode(decodeAnalyzeCodeArgs(args))
	default:
		return failure("Unknown tool: %s", name)
	}
}

// Definitions returns the OpenAI function definitions for the local
// tool set. The virtual retrieve_context tool is appended separately by
// the engine because it is only offered to tool-capable backends.
func Definitions() []openai.Tool {
	return []openai.Tool{
		functionTool(ToolReadFile, "Read the contents of a file", objectSchema(map[string]any{
			"file_path": map[string]any{"type": "string", "description": "Path to the file to read"},
		}, "file_path")),
		functionTool(ToolWriteFile, "Write content to a file (creates new file or overwrites existing)", objectSchema(map[string]any{
			"file_path":          map[string]any{"type": "string", "description": "Path where to write the file"},
			"content":            map[string]any{"type": "string", "description": "Content to write to the file"},
			"create_directories": map[string]any{"type": "boolean", "description": "Whether to create parent directories if they don't exist", "default": true},
		}, "file_path", "content")),
		functionTool(ToolEditFileLines, "Edit specific lines of a file by line number", objectSchema(map[string]any{
			"file_path": map[string]any{"type": "string", "description": "Path to the file to edit"},
			"edits": map[string]any{
				"type":                 "object",
				"description":          "Mapping of line numbers (as strings) to new content. Empty string deletes the line.",
				"additionalProperties": map[string]any{"type": "string"},
			},
		}, "file_path", "edits")),
		functionTool(ToolListDirectory, "List directory contents with optional filtering", objectSchema(map[string]any{
			"directory":       map[string]any{"type": "string", "description": "Directory to list"},
			"show_hidden":     map[string]any{"type": "boolean", "description": "Include hidden entries", "default": false},
			"file_extensions": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "File extensions to include (e.g. ['.py', '.cpp'])"},
			"recursive":       map[string]any{"type": "boolean", "description": "Recurse into subdirectories", "default": false},
		}, "directory")),
		functionTool(ToolSearchInFiles, "Search for text patterns in files within a directory", objectSchema(map[string]any{
			"directory":       map[string]any{"type": "string", "description": "Directory to search in"},
			"pattern":         map[string]any{"type": "string", "description": "Text pattern to search for"},
			"file_extensions": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "File extensions to include in search"},
			"is_regex":        map[string]any{"type": "boolean", "description": "Whether the pattern is a regex", "default": false},
		}, "directory", "pattern")),
		functionTool(ToolShowDirectoryTree, "Show directory structure as a tree", objectSchema(map[string]any{
			"directory":   map[string]any{"type": "string", "description": "Directory path to show tree structure for"},
			"max_depth":   map[string]any{"type": "integer", "description": "Maximum depth to show", "default": 3},
			"show_hidden": map[string]any{"type": "boolean", "description": "Whether to show hidden files", "default": false},
		}, "directory")),
		functionTool(ToolRunCommand, "Execute a shell command and return the output", objectSchema(map[string]any{
			"command":           map[string]any{"type": "string", "description": "Shell command to execute"},
			"working_directory": map[string]any{"type": "string", "description": "Working directory for the command"},
			"timeout":           map[string]any{"type": "integer", "description": "Timeout in seconds", "default": 30},
		}, "command")),
		functionTool(ToolAnalyzeCode, "Analyze code for syntax errors, style issues, and ROS best practices", objectSchema(map[string]any{
			"file_path":          map[string]any{"type": "string", "description": "Path to the code file to analyze"},
			"language":           map[string]any{"type": "string", "enum": []string{"go", "python", "cpp"}, "description": "Programming language of the file"},
			"check_ros_patterns": map[string]any{"type": "boolean", "description": "Whether to check for ROS-specific patterns", "default": true},
		}, "file_path")),
	}
}

// RetrieveContextDefinition is the virtual retrieval tool offered to
// tool-capable backends so the model can fetch references on demand.
func RetrieveContextDefinition() openai.Tool {
	return functionTool(ToolRetrieveContext, "Retrieve relevant BeagleBoard documents for a user query.", objectSchema(map[string]any{
		"query":           map[string]any{"type": "string", "description": "The user question to search for."},
		"n_results":       map[string]any{"type": "integer", "description": "How many results to return", "default": 5},
		"rerank":          map[string]any{"type": "boolean", "description": "Whether to rerank results", "default": true},
		"collection_name": map[string]any{"type": "string", "description": "Collection name to search (defaults to config)"},
	}, "query"))
}

func functionTool(name, description string, parameters map[string]any) openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}
