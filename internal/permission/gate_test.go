package permission

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beagleboard/beaglemind/internal/tools"
)

func TestRequiresApproval(t *testing.T) {
	cases := []struct {
		tool string
		want bool
	}{
		{tools.ToolWriteFile, true},
		{tools.ToolEditFileLines, true},
		// run_command relies on the dispatcher's deny-list instead.
		{tools.ToolRunCommand, false},
		{tools.ToolReadFile, false},
		{tools.ToolListDirectory, false},
		{tools.ToolAnalyzeCode, false},
	}
	for _, tc := range cases {
		if got := RequiresApproval(tc.tool); got != tc.want {
			t.Errorf("RequiresApproval(%s) = %v, want %v", tc.tool, got, tc.want)
		}
	}
}

func TestDeniedResult(t *testing.T) {
	result := DeniedResult()
	if result.Success() {
		t.Error("denied result must not be a success")
	}
	if denied, _ := result["user_denied"].(bool); !denied {
		t.Error("denied result must carry user_denied")
	}
	if result.ErrorText() != "Operation cancelled by user" {
		t.Errorf("unexpected error text %q", result.ErrorText())
	}
}

func TestFormatWriteRequestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.txt")
	request := FormatRequest(tools.ToolWriteFile, map[string]any{
		"file_path": path,
		"content":   "line1\nline2",
	})

	if !strings.Contains(request.Summary, "Create") {
		t.Errorf("new file must be a create, got %q", request.Summary)
	}
	joined := strings.Join(request.Details, "\n")
	if !strings.Contains(joined, "line1") {
		t.Error("details must preview the content")
	}
}

func TestFormatWriteRequestOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "existing.txt")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	request := FormatRequest(tools.ToolWriteFile, map[string]any{
		"file_path": path,
		"content":   "new",
	})
	if !strings.Contains(request.Summary, "Overwrite") {
		t.Errorf("existing file must be an overwrite, got %q", request.Summary)
	}
}

func TestFormatWriteRequestPreviewsRepairedContent(t *testing.T) {
	// Double-escaped content is repaired before writing; the preview
	// must show the repaired form, not the raw argument.
	request := FormatRequest(tools.ToolWriteFile, map[string]any{
		"file_path": filepath.Join(t.TempDir(), "run.sh"),
		"content":   `#!/bin/sh\necho one\necho two`,
	})

	if !strings.Contains(request.Summary, "(3 lines)") {
		t.Errorf("summary must count repaired lines, got %q", request.Summary)
	}
	joined := strings.Join(request.Details, "\n")
	if strings.Contains(joined, `\necho`) {
		t.Errorf("preview still shows escaped newlines: %q", joined)
	}
	if !strings.Contains(joined, "echo one\necho two") {
		t.Errorf("preview must show repaired lines: %q", joined)
	}
}

func TestFormatWriteRequestTruncatesPreview(t *testing.T) {
	longLine := strings.Repeat("x", 600)
	request := FormatRequest(tools.ToolWriteFile, map[string]any{
		"file_path": "big.txt",
		"content":   longLine,
	})

	for _, detail := range request.Details {
		if strings.HasPrefix(detail, "Preview:") && len(detail) > 600 {
			t.Errorf("preview not truncated, %d bytes", len(detail))
		}
	}
}

func TestFormatEditRequestShowsDeletesAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.txt")
	if err := os.WriteFile(path, []byte("first\nsecond\nthird\n"), 0644); err != nil {
		t.Fatal(err)
	}

	request := FormatRequest(tools.ToolEditFileLines, map[string]any{
		"file_path": path,
		"edits": map[string]any{
			"2": "",
			"3": "replaced",
		},
	})

	joined := strings.Join(request.Details, "\n")
	if !strings.Contains(joined, "DELETE") || !strings.Contains(joined, "second") {
		t.Errorf("delete preview missing current line: %q", joined)
	}
	if !strings.Contains(joined, "REPLACE") || !strings.Contains(joined, "replaced") {
		t.Errorf("replace preview missing: %q", joined)
	}
}

func TestAutoApprover(t *testing.T) {
	if !(AutoApprover{Allow: true}).Approve(Request{}) {
		t.Error("allow approver must approve")
	}
	if (AutoApprover{Allow: false}).Approve(Request{}) {
		t.Error("deny approver must deny")
	}
}
