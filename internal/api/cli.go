package api

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/charmbracelet/log"
	"github.com/thesavant42/icr-browser/internal/host"
)

// CLIHost runs image operations by executing the docker CLI
type CLIHost struct {
	binary    string
	prefix    []string // arguments placed before the command
	available bool
	logger    *log.Logger
}

// NewCLIHost creates a host that runs `binary [prefix...] <command> <args...>`
func NewCLIHost(binary string, logger *log.Logger, prefix ...string) *CLIHost {
	if logger == nil {
		logger = log.Default()
	}
	_, err := exec.LookPath(binary)
	return &CLIHost{
		binary:    binary,
		prefix:    prefix,
		available: err == nil,
		logger:    logger.WithPrefix("cli"),
	}
}

func (h *CLIHost) Available() bool { return h.available }

// ListLocalImages runs `docker image ls` and returns repository:tag refs
func (h *CLIHost) ListLocalImages(ctx context.Context) ([]string, error) {
	if !h.available {
		return nil, nil
	}
	cmd := h.command(ctx, "image", "ls", "--format", "{{.Repository}}:{{.Tag}}")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	var refs []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "<none>") {
			continue
		}
		refs = append(refs, line)
	}
	return refs, nil
}

// ExecStreamed runs "pull <ref>" or "rmi <ref>", merging stdout and stderr
// into one line stream
func (h *CLIHost) ExecStreamed(ctx context.Context, command string, args []string, hd host.StreamHandlers) error {
	if !h.available {
		return host.ErrUnavailable
	}
	if command != host.CommandPull && command != host.CommandRemove {
		return fmt.Errorf("%w: %s", host.ErrUnknownCommand, command)
	}

	cmd := h.command(ctx, append([]string{command}, args...)...)
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		return fmt.Errorf("failed to start %s: %w", command, err)
	}

	exited := make(chan int, 1)
	go func() {
		exited <- exitCode(cmd.Wait(), hd)
		pw.Close()
	}()

	go func() {
		scanner := bufio.NewScanner(pr)
		for scanner.Scan() {
			hd.Output(strings.TrimRight(scanner.Text(), "\r"))
		}
		if err := scanner.Err(); err != nil {
			hd.Error(err)
			io.Copy(io.Discard, pr)
		}
		hd.Close(<-exited)
	}()
	return nil
}

func (h *CLIHost) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, h.binary, append(append([]string{}, h.prefix...), args...)...)
	h.logger.Debug("Running", "cmd", shellescape.QuoteCommand(cmd.Args))
	return cmd
}

func exitCode(err error, hd host.StreamHandlers) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	hd.Error(err)
	return 1
}
