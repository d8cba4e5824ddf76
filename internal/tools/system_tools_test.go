package tools

import (
	"context"
	"strings"
	"testing"
)

func TestRunCommandBlocksDangerousPatterns(t *testing.T) {
	invoked := false
	d := &Dispatcher{runner: func(ctx context.Context, command, workingDirectory string) commandOutput {
		invoked = true
		return commandOutput{}
	}}

	cases := []string{
		"rm -rf /",
		"sudo rm -rf /home",
		"dd if=/dev/zero of=/dev/sda",
		"mkfs.ext4 /dev/sda1",
		"shutdown now",
		"echo pwned > /dev/sda",
	}
	for _, command := range cases {
		result := d.runCommand(context.Background(), RunCommandArgs{Command: command})
		if result.Success() {
			t.Errorf("command %q should be blocked", command)
		}
		if !strings.Contains(result.ErrorText(), "blocked") {
			t.Errorf("command %q: unexpected error %q", command, result.ErrorText())
		}
	}
	if invoked {
		t.Fatal("runner must never be invoked for blocked commands")
	}
}

func TestRunCommandReturnsOutput(t *testing.T) {
	d := &Dispatcher{runner: func(ctx context.Context, command, workingDirectory string) commandOutput {
		return commandOutput{stdout: "hello\n", exitCode: 0}
	}}

	result := d.runCommand(context.Background(), RunCommandArgs{Command: "echo hello"})
	if !result.Success() {
		t.Fatalf("expected success, got error %q", result.ErrorText())
	}
	if stdout := result["stdout"].(string); stdout != "hello\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if code := result["exit_code"].(int); code != 0 {
		t.Errorf("unexpected exit code %d", code)
	}
}

func TestRunCommandNonZeroExit(t *testing.T) {
	d := &Dispatcher{runner: func(ctx context.Context, command, workingDirectory string) commandOutput {
		return commandOutput{stderr: "no such file", exitCode: 2}
	}}

	result := d.runCommand(context.Background(), RunCommandArgs{Command: "ls /nope"})
	if result.Success() {
		t.Fatal("non-zero exit must not be a success")
	}
	if stderr := result["stderr"].(string); stderr != "no such file" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestRunCommandEmpty(t *testing.T) {
	d := NewDispatcher()
	result := d.runCommand(context.Background(), RunCommandArgs{})
	if result.Success() {
		t.Fatal("empty command must fail")
	}
}

func TestMachineInfoFields(t *testing.T) {
	info := MachineInfo()
	for _, key := range []string{"hostname", "os", "arch", "cwd"} {
		if info[key] == "" {
			t.Errorf("machine info field %q is empty", key)
		}
	}
}
