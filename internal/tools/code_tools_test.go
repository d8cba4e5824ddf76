package tools

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAnalyzeGoSyntaxError(t *testing.T) {
	path := writeSource(t, "broken.go", "package main\n\nfunc main() {\n")

	result := analyzeCode(AnalyzeCodeArgs{FilePath: path})
	if !result.Success() {
		t.Fatalf("expected success, got error %q", result.ErrorText())
	}
	issues := result["issues"].([]string)
	if len(issues) == 0 {
		t.Fatal("expected syntax issues for unclosed function")
	}
}

func TestAnalyzeGoClean(t *testing.T) {
	path := writeSource(t, "ok.go", "package main\n\nfunc main() {}\n")

	result := analyzeCode(AnalyzeCodeArgs{FilePath: path})
	issues := result["issues"].([]string)
	if len(issues) != 0 {
		t.Errorf("expected no issues, got %v", issues)
	}
}

func TestAnalyzeCppUnbalancedBraces(t *testing.T) {
	path := writeSource(t, "node.cpp", "int main() {\n  if (true) {\n  return 0;\n}\n")

	result := analyzeCode(AnalyzeCodeArgs{FilePath: path})
	issues := result["issues"].([]string)
	found := false
	for _, issue := range issues {
		if strings.Contains(issue, "unbalanced braces") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected unbalanced braces issue, got %v", issues)
	}
}

func TestAnalyzeCppIgnoresBracesInStrings(t *testing.T) {
	path := writeSource(t, "strings.cpp", "int main() {\n  const char *s = \"{{{\";\n  return 0;\n}\n")

	result := analyzeCode(AnalyzeCodeArgs{FilePath: path})
	for _, issue := range result["issues"].([]string) {
		if strings.Contains(issue, "unbalanced") {
			t.Errorf("braces inside string literals must not count: %v", issue)
		}
	}
}

func TestAnalyzePythonROSSuggestions(t *testing.T) {
	path := writeSource(t, "node.py", "import rospy\nwhile True:\n    pass\n")

	result := analyzeCode(AnalyzeCodeArgs{FilePath: path, CheckROSPatterns: true})
	suggestions := result["suggestions"].([]string)
	var hasInit, hasShutdown bool
	for _, s := range suggestions {
		if strings.Contains(s, "init_node") {
			hasInit = true
		}
		if strings.Contains(s, "is_shutdown") {
			hasShutdown = true
		}
	}
	if !hasInit || !hasShutdown {
		t.Errorf("expected init_node and is_shutdown suggestions, got %v", suggestions)
	}
}

func TestAnalyzeUnknownExtensionNeedsLanguage(t *testing.T) {
	path := writeSource(t, "data.bin", "xx")

	result := analyzeCode(AnalyzeCodeArgs{FilePath: path})
	if result.Success() {
		t.Fatal("expected failure without a detectable language")
	}
}
