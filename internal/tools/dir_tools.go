package tools

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	maxMatchesPerFile  = 10
	maxFilesWithResult = 50
)

func listDirectory(args ListDirectoryArgs) Result {
	if args.Directory == "" {
		return failure("list_directory requires a 'directory' argument")
	}

	dir := expandPath(args.Directory)
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return failure("Directory not found: %s", args.Directory)
		}
		return failure("Error listing directory: %v", err)
	}
	if !info.IsDir() {
		return failure("Path is not a directory: %s", args.Directory)
	}

	type entry struct {
		Name  string `json:"name"`
		Path  string `json:"path"`
		IsDir bool   `json:"is_dir"`
		Size  int64  `json:"size"`
	}

	var entries []entry
	collect := func(path string, d fs.DirEntry) {
		name := d.Name()
		if !args.ShowHidden && strings.HasPrefix(name, ".") {
			return
		}
		if !d.IsDir() && len(args.FileExtensions) > 0 {
			ext := filepath.Ext(name)
			matched := false
			for _, want := range args.FileExtensions {
				if strings.EqualFold(ext, want) {
					matched = true
					break
				}
			}
			if !matched {
				return
			}
		}

		var size int64
		if fi, err := d.Info(); err == nil && !d.IsDir() {
			size = fi.Size()
		}
		entries = append(entries, entry{Name: name, Path: path, IsDir: d.IsDir(), Size: size})
	}

	if args.Recursive {
		err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if path == dir {
				return nil
			}
			if !args.ShowHidden && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			collect(path, d)
			return nil
		})
		if err != nil {
			return failure("Error listing directory: %v", err)
		}
	} else {
		dirEntries, err := os.ReadDir(dir)
		if err != nil {
			return failure("Error listing directory: %v", err)
		}
		for _, d := range dirEntries {
			collect(filepath.Join(dir, d.Name()), d)
		}
	}

	// Directories first, then files, each alphabetically.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return entries[i].Name < entries[j].Name
	})

	items := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		kind := "file"
		if e.IsDir {
			kind = "directory"
		}
		items = append(items, map[string]any{
			"name": e.Name,
			"path": e.Path,
			"type": kind,
			"size": e.Size,
		})
	}

	return Result{
		"success":   true,
		"directory": dir,
		"entries":   items,
		"count":     len(items),
	}
}

func searchInFiles(args SearchInFilesArgs) Result {
	if args.Directory == "" || args.Pattern == "" {
		return failure("search_in_files requires 'directory' and 'pattern' arguments")
	}

	dir := expandPath(args.Directory)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return failure("Directory not found: %s", args.Directory)
	}

	var matcher *regexp.Regexp
	var err error
	if args.IsRegex {
		matcher, err = regexp.Compile("(?i)" + args.Pattern)
	} else {
		matcher, err = regexp.Compile("(?i)" + regexp.QuoteMeta(args.Pattern))
	}
	if err != nil {
		return failure("Invalid search pattern: %v", err)
	}

	type match struct {
		File    string           `json:"file"`
		Matches []map[string]any `json:"matches"`
	}
	var results []match
	totalMatches := 0

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			if err == nil && strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if len(results) >= maxFilesWithResult {
			return filepath.SkipAll
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if len(args.FileExtensions) > 0 {
			ext := filepath.Ext(d.Name())
			ok := false
			for _, want := range args.FileExtensions {
				if strings.EqualFold(ext, want) {
					ok = true
					break
				}
			}
			if !ok {
				return nil
			}
		}

		file, err := os.Open(path)
		if err != nil {
			return nil
		}
		defer file.Close()

		var fileMatches []map[string]any
		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		lineNumber := 0
		for scanner.Scan() {
			lineNumber++
			line := scanner.Text()
			if matcher.MatchString(line) {
				fileMatches = append(fileMatches, map[string]any{
					"line_number": lineNumber,
					"line":        strings.TrimSpace(line),
				})
				if len(fileMatches) >= maxMatchesPerFile {
					break
				}
			}
		}

		if len(fileMatches) > 0 {
			results = append(results, match{File: path, Matches: fileMatches})
			totalMatches += len(fileMatches)
		}
		return nil
	})
	if walkErr != nil {
		return failure("Error searching files: %v", walkErr)
	}

	files := make([]map[string]any, 0, len(results))
	for _, r := range results {
		files = append(files, map[string]any{"file": r.File, "matches": r.Matches})
	}

	return Result{
		"success":       true,
		"pattern":       args.Pattern,
		"directory":     dir,
		"results":       files,
		"files_matched": len(files),
		"total_matches": totalMatches,
	}
}

func showDirectoryTree(args DirectoryTreeArgs) Result {
	if args.Directory == "" {
		return failure("show_directory_tree requires a 'directory' argument")
	}

	dir := expandPath(args.Directory)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return failure("Directory not found: %s", args.Directory)
	}

	depth := args.MaxDepth
	if depth <= 0 {
		depth = 3
	}

	if treePath, err := exec.LookPath("tree"); err == nil {
		cmdArgs := []string{"-L", strconv.Itoa(depth)}
		if args.ShowHidden {
			cmdArgs = append(cmdArgs, "-a")
		}
		cmdArgs = append(cmdArgs, dir)
		if out, err := exec.Command(treePath, cmdArgs...).Output(); err == nil {
			return Result{
				"success":   true,
				"directory": dir,
				"tree":      string(out),
			}
		}
	}

	var b strings.Builder
	b.WriteString(dir + "\n")
	dirs, files := renderTree(&b, dir, "", depth, args.ShowHidden)
	b.WriteString(fmt.Sprintf("\n%d directories, %d files\n", dirs, files))

	return Result{
		"success":   true,
		"directory": dir,
		"tree":      b.String(),
	}
}

// renderTree is the fallback renderer used when the tree binary is not
// installed. Output matches tree's connector style closely enough for
// model consumption.
func renderTree(b *strings.Builder, dir, prefix string, depth int, showHidden bool) (dirCount, fileCount int) {
	if depth <= 0 {
		return 0, 0
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0
	}

	visible := entries[:0]
	for _, e := range entries {
		if !showHidden && strings.HasPrefix(e.Name(), ".") {
			continue
		}
		visible = append(visible, e)
	}

	for i, e := range visible {
		connector := "├── "
		childPrefix := prefix + "│   "
		if i == len(visible)-1 {
			connector = "└── "
			childPrefix = prefix + "    "
		}
		b.WriteString(prefix + connector + e.Name() + "\n")

		if e.IsDir() {
			dirCount++
			d, f := renderTree(b, filepath.Join(dir, e.Name()), childPrefix, depth-1, showHidden)
			dirCount += d
			fileCount += f
		} else {
			fileCount++
		}
	}
	return dirCount, fileCount
}
