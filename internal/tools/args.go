package tools

import "encoding/json"

// Typed argument records, decoded from the wire-format mapping at the
// dispatch boundary. Decoding is deliberately lenient: models send
// numbers as floats, booleans as strings and maps with mixed value
// types, and a missing field falls back to the tool default.

type ReadFileArgs struct {
	FilePath string
}

type WriteFileArgs struct {
	FilePath          string
	Content           string
	CreateDirectories bool
}

type EditFileLinesArgs struct {
	FilePath string
	Edits    map[string]string
}

type ListDirectoryArgs struct {
	Directory      string
	ShowHidden     bool
	FileExtensions []string
	Recursive      bool
}

type SearchInFilesArgs struct {
	Directory      string
	Pattern        string
	FileExtensions []string
	IsRegex        bool
}

type DirectoryTreeArgs struct {
	Directory  string
	MaxDepth   int
	ShowHidden bool
}

type RunCommandArgs struct {
	Command          string
	WorkingDirectory string
	TimeoutSeconds   int
}

type AnalyzeCodeArgs struct {
	FilePath         string
	Language         string
	CheckROSPatterns bool
}

func decodeReadFileArgs(args map[string]any) ReadFileArgs {
	return ReadFileArgs{FilePath: stringArg(args, "file_path", "")}
}

func decodeWriteFileArgs(args map[string]any) WriteFileArgs {
	return WriteFileArgs{
		FilePath:          stringArg(args, "file_path", ""),
		Content:           stringArg(args, "content", ""),
		CreateDirectories: boolArg(args, "create_directories", true),
	}
}

func decodeEditFileLinesArgs(args map[string]any) EditFileLinesArgs {
	edits := args["edits"]
	if edits == nil {
		edits = args["lines"]
	}
	return EditFileLinesArgs{
		FilePath: stringArg(args, "file_path", ""),
		Edits:    stringMap(edits),
	}
}

func decodeListDirectoryArgs(args map[string]any) ListDirectoryArgs {
	return ListDirectoryArgs{
		Directory:      stringArg(args, "directory", ""),
		ShowHidden:     boolArg(args, "show_hidden", false),
		FileExtensions: stringSlice(args["file_extensions"]),
		Recursive:      boolArg(args, "recursive", false),
	}
}

func decodeSearchInFilesArgs(args map[string]any) SearchInFilesArgs {
	return SearchInFilesArgs{
		Directory:      stringArg(args, "directory", ""),
		Pattern:        stringArg(args, "pattern", ""),
		FileExtensions: stringSlice(args["file_extensions"]),
		IsRegex:        boolArg(args, "is_regex", false),
	}
}

func decodeDirectoryTreeArgs(args map[string]any) DirectoryTreeArgs {
	return DirectoryTreeArgs{
		Directory:  stringArg(args, "directory", ""),
		MaxDepth:   intArg(args, "max_depth", 3),
		ShowHidden: boolArg(args, "show_hidden", false),
	}
}

func decodeRunCommandArgs(args map[string]any) RunCommandArgs {
	return RunCommandArgs{
		Command:          stringArg(args, "command", ""),
		WorkingDirectory: stringArg(args, "working_directory", ""),
		TimeoutSeconds:   intArg(args, "timeout", 30),
	}
}

func decodeAnalyzeCodeArgs(args map[string]any) AnalyzeCodeArgs {
	return AnalyzeCodeArgs{
		FilePath:         stringArg(args, "file_path", ""),
		Language:         stringArg(args, "language", ""),
		CheckROSPatterns: boolArg(args, "check_ros_patterns", true),
	}
}

func stringArg(args map[string]any, key, fallback string) string {
	if value, ok := args[key].(string); ok {
		return value
	}
	return fallback
}

func boolArg(args map[string]any, key string, fallback bool) bool {
	switch value := args[key].(type) {
	case bool:
		return value
	case string:
		switch value {
		case "true", "yes", "y", "1":
			return true
		case "false", "no", "n", "0":
			return false
		}
	}
	return fallback
}

func intArg(args map[string]any, key string, fallback int) int {
	switch value := args[key].(type) {
	case float64:
		return int(value)
	case int:
		return value
	case json.Number:
		if n, err := value.Int64(); err == nil {
			return int(n)
		}
	}
	return fallback
}

func stringSlice(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

// stringMap accepts a decoded JSON object, a map of strings, or a JSON
// string holding either.
func stringMap(value any) map[string]string {
	switch m := value.(type) {
	case map[string]string:
		return m
	case map[string]any:
		result := make(map[string]string, len(m))
		for key, v := range m {
			if s, ok := v.(string); ok {
				result[key] = s
			}
		}
		return result
	case string:
		var decoded map[string]string
		if err := json.Unmarshal([]byte(m), &decoded); err == nil {
			return decoded
		}
	}
	return nil
}
