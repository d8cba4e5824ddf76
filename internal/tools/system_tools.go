package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"regexp"
	"runtime"
	"time"
)

// dangerousPatterns blocks commands that can destroy the host. Matching
// is done before the runner is ever invoked.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\brm\s+-rf\s+/`),
	regexp.MustCompile(`(?i)\bdd\s+if=`),
	regexp.MustCompile(`(?i)\bformat\s+`),
	regexp.MustCompile(`(?i)\bmkfs\.`),
	regexp.MustCompile(`(?i)\bshutdown`),
	regexp.MustCompile(`(?i)\breboot`),
	regexp.MustCompile(`(?i)\bhalt`),
	regexp.MustCompile(`(?i)>\s*/dev/`),
	regexp.MustCompile(`(?i)\bsudo\s+rm`),
	regexp.MustCompile(`(?i)\bsudo\s+dd`),
}

type commandOutput struct {
	stdout   string
	stderr   string
	exitCode int
	err      error
}

// commandRunner executes a shell command. Swappable in tests so the
// deny-list can be verified without touching the host shell.
type commandRunner func(ctx context.Context, command, workingDirectory string) commandOutput

func runShellCommand(ctx context.Context, command, workingDirectory string) commandOutput {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if workingDirectory != "" {
		cmd.Dir = expandPath(workingDirectory)
	}

	stdout, err := cmd.Output()
	out := commandOutput{stdout: string(stdout), err: err}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.stderr = string(exitErr.Stderr)
		out.exitCode = exitErr.ExitCode()
	} else if err == nil {
		out.exitCode = 0
	} else {
		out.exitCode = -1
	}
	return out
}

func (d *Dispatcher) runCommand(ctx context.Context, args RunCommandArgs) Result {
	if args.Command == "" {
		return failure("run_command requires a 'command' argument")
	}

	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(args.Command) {
			return failure("Command blocked for safety: matches dangerous pattern %s", pattern.String())
		}
	}

	timeout := args.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	out := d.runner(runCtx, args.Command, args.WorkingDirectory)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return failure("Command timed out after %ds", timeout)
	}
	if out.err != nil && out.exitCode == -1 {
		return failure("Command failed to start: %v", out.err)
	}

	return Result{
		"success":   out.exitCode == 0,
		"command":   args.Command,
		"stdout":    out.stdout,
		"stderr":    out.stderr,
		"exit_code": out.exitCode,
	}
}

// MachineInfo describes the host environment for prompt assembly.
func MachineInfo() map[string]string {
	hostname, _ := os.Hostname()
	cwd, _ := os.Getwd()
	home, _ := os.UserHomeDir()

	username := ""
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	return map[string]string{
		"hostname": hostname,
		"os":       runtime.GOOS,
		"arch":     runtime.GOARCH,
		"user":     username,
		"home":     home,
		"cwd":      cwd,
	}
}

// FormatMachineInfo renders machine info as prompt text.
func FormatMachineInfo() string {
	info := MachineInfo()
	return fmt.Sprintf("Host: %s (%s/%s), user: %s, working directory: %s",
		info["hostname"], info["os"], info["arch"], info["user"], info["cwd"])
}
