package tools

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

func readFile(args ReadFileArgs) Result {
	if args.FilePath == "" {
		return failure("read_file requires a 'file_path' argument")
	}

	path := expandPath(args.FilePath)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return failure("File not found: %s", args.FilePath)
		}
		return failure("Error reading file: %v", err)
	}
	if info.IsDir() {
		return failure("Path is not a file: %s", args.FilePath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return failure("Error reading file: %v", err)
	}

	content := string(data)
	return Result{
		"success": true,
		"content": content,
		"path":    path,
		"file_info": map[string]any{
			"size":      info.Size(),
			"modified":  info.ModTime().Unix(),
			"lines":     len(strings.Split(content, "\n")),
			"extension": filepath.Ext(path),
		},
	}
}

func writeFile(args WriteFileArgs) Result {
	if args.FilePath == "" {
		return failure("write_file requires a 'file_path' argument")
	}

	path := expandPath(args.FilePath)
	if args.CreateDirectories {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return failure("Error writing file: %v", err)
		}
	}

	cleaned := RepairEscapedContent(args.Content)
	if err := os.WriteFile(path, []byte(cleaned), 0644); err != nil {
		return failure("Error writing file: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return failure("Error writing file: %v", err)
	}

	return Result{
		"success":         true,
		"message":         "File written successfully: " + args.FilePath,
		"path":            path,
		"size":            info.Size(),
		"lines":           len(strings.Split(cleaned, "\n")),
		"content_cleaned": cleaned != args.Content,
	}
}

// RepairEscapedContent fixes literal escape sequences in content that
// arrived through a mangled JSON layer. Literal \n sequences are only
// converted when they outnumber real newlines, which indicates the
// whole body was double-escaped rather than intentionally containing
// backslash-n text. Exported so approval previews show exactly what
// write_file will put on disk.
func RepairEscapedContent(content string) string {
	cleaned := content

	escaped := strings.Count(content, `\n`)
	real := strings.Count(content, "\n")
	if escaped > 0 && (real == 0 || escaped > real) {
		cleaned = strings.ReplaceAll(cleaned, `\n`, "\n")
	}

	cleaned = strings.ReplaceAll(cleaned, `\t`, "\t")
	cleaned = strings.ReplaceAll(cleaned, `\"`, `"`)
	cleaned = strings.ReplaceAll(cleaned, `\'`, "'")

	return cleaned
}

func editFileLines(args EditFileLinesArgs) Result {
	if args.FilePath == "" || len(args.Edits) == 0 {
		return failure("edit_file_lines requires 'file_path' and a non-empty 'edits' mapping")
	}

	path := expandPath(args.FilePath)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return failure("File not found: %s", args.FilePath)
		}
		return failure("Failed to edit file lines: %v", err)
	}

	lines := splitKeepingNewlines(string(data))

	type edit struct {
		lineNumber int
		newContent string
	}
	edits := make([]edit, 0, len(args.Edits))
	for key, newContent := range args.Edits {
		lineNumber, err := strconv.Atoi(key)
		if err != nil {
			return failure("Invalid line number: %q", key)
		}
		edits = append(edits, edit{lineNumber: lineNumber, newContent: newContent})
	}

	// Apply in descending line order so earlier edits don't shift the
	// indices of later ones.
	sort.Slice(edits, func(i, j int) bool { return edits[i].lineNumber > edits[j].lineNumber })

	editedLines := make([]string, 0, len(args.Edits))
	for _, e := range edits {
		idx := e.lineNumber - 1
		if idx < 0 || idx >= len(lines) {
			continue
		}
		editedLines = append(editedLines, strconv.Itoa(e.lineNumber))

		switch {
		case e.newContent == "":
			lines = append(lines[:idx], lines[idx+1:]...)
		case strings.Contains(e.newContent, "\n"):
			replacement := strings.Split(e.newContent, "\n")
			for i, line := range replacement {
				if !strings.HasSuffix(line, "\n") {
					replacement[i] = line + "\n"
				}
			}
			lines = append(lines[:idx], append(replacement, lines[idx+1:]...)...)
		default:
			newLine := e.newContent
			if strings.HasSuffix(lines[idx], "\n") && !strings.HasSuffix(newLine, "\n") {
				newLine += "\n"
			}
			lines[idx] = newLine
		}
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "")), 0644); err != nil {
		return failure("Failed to edit file lines: %v", err)
	}

	return Result{
		"success":      true,
		"file_path":    path,
		"lines_edited": editedLines,
		"total_lines":  len(lines),
	}
}

// splitKeepingNewlines splits content into lines that retain their
// trailing newline, matching line numbering of the on-disk file.
func splitKeepingNewlines(content string) []string {
	if content == "" {
		return nil
	}
	parts := strings.SplitAfter(content, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
