package qa

import (
	"strings"
	"testing"

	"github.com/beagleboard/beaglemind/internal/tools"
)

func TestRecoverArgumentsWellFormed(t *testing.T) {
	args := RecoverArguments(`{"command": "ls -la", "timeout": 10}`, tools.ToolRunCommand)
	if args["command"] != "ls -la" {
		t.Errorf("well-formed JSON mangled: %v", args)
	}
	if args["timeout"].(float64) != 10 {
		t.Errorf("timeout lost: %v", args)
	}
}

func TestRecoverCommandMissingClosingQuote(t *testing.T) {
	args := RecoverArguments(`{"command": "cat /etc/os-release`, tools.ToolRunCommand)
	command, _ := args["command"].(string)
	if command == "" {
		t.Fatal("recovery must always produce a command")
	}
	if !strings.Contains(command, "cat /etc/os-release") {
		t.Errorf("expected original command recovered, got %q", command)
	}
}

func TestRecoverCommandRawNewlines(t *testing.T) {
	raw := "{\"command\": \"echo one\necho two\"}"
	args := RecoverArguments(raw, tools.ToolRunCommand)
	command, _ := args["command"].(string)
	if command == "" {
		t.Fatal("recovery must always produce a command")
	}
	if strings.Contains(command, "\n") {
		t.Errorf("recovered command still contains raw newline: %q", command)
	}
}

func TestRecoverCommandGarbage(t *testing.T) {
	args := RecoverArguments(`%%% not json at all %%%`, tools.ToolRunCommand)
	command, _ := args["command"].(string)
	if !strings.HasPrefix(command, "echo '") {
		t.Errorf("garbage input must degrade to a diagnostic echo, got %q", command)
	}
}

func TestRecoverWriteFileDefaults(t *testing.T) {
	args := RecoverArguments(`{"file_path": broken`, tools.ToolWriteFile)
	if args["file_path"] != "recovered_file.txt" {
		t.Errorf("expected default file path, got %v", args["file_path"])
	}
	if args["content"] != "# Content could not be recovered" {
		t.Errorf("expected placeholder content, got %v", args["content"])
	}
}

func TestRecoverWriteFilePartial(t *testing.T) {
	args := RecoverArguments(`{"file_path": "notes.md", "content": "hello", oops`, tools.ToolWriteFile)
	if args["file_path"] != "notes.md" {
		t.Errorf("expected recovered path, got %v", args["file_path"])
	}
	if args["content"] != "hello" {
		t.Errorf("expected recovered content, got %v", args["content"])
	}
}

func TestRecoverGenericStripsControlCharacters(t *testing.T) {
	args := RecoverArguments("{\"directory\":\n\t\"/tmp\"}", tools.ToolListDirectory)
	if args["directory"] != "/tmp" {
		t.Errorf("generic recovery failed: %v", args)
	}
}

func TestRecoverGenericUnrecoverable(t *testing.T) {
	args := RecoverArguments("][", tools.ToolListDirectory)
	if args == nil {
		t.Fatal("recovery must return a usable map, not nil")
	}
	if len(args) != 0 {
		t.Errorf("expected empty map, got %v", args)
	}
}
