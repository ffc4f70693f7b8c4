package crossing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/Songmu/wrapcommander"
	"github.com/mattn/go-shellwords"
)

// CommandHook runs a configured command every time a light turns green. The
// light's id and the phase are exported to the command environment as
// CROSSING_LIGHT_ID and CROSSING_PHASE.
type CommandHook struct {
	commands []string
	timeout  time.Duration
	logger   *slog.Logger
}

func NewCommandHook(cfg *CommandConfig) (*CommandHook, error) {
	cmds, err := shellwords.Parse(cfg.Run)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hook command: %s %w", cfg.Run, err)
	}
	if len(cmds) == 0 {
		return nil, errors.New("no hook command")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultHookTimeout
	}
	return &CommandHook{
		commands: cmds,
		timeout:  timeout,
		logger:   logger.With("module", "hook"),
	}, nil
}

// Run executes the hook once. Failures are the caller's to log; the hook is
// best effort and a failing command must not stop the lights.
func (h *CommandHook) Run(ctx context.Context, id int, p Phase) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	logger := h.logger.With(
		"light", id,
		"commands", fmt.Sprintf("%v", h.commands),
	)
	logger.Debug("executing command")
	var cmd *exec.Cmd
	if len(h.commands) == 1 {
		cmd = exec.CommandContext(ctx, h.commands[0])
	} else {
		cmd = exec.CommandContext(ctx, h.commands[0], h.commands[1:]...)
	}
	cmd.Env = append(cmd.Env, os.Environ()...)
	cmd.Env = append(cmd.Env,
		fmt.Sprintf("CROSSING_LIGHT_ID=%d", id),
		fmt.Sprintf("CROSSING_PHASE=%s", p),
	)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = 3 * time.Second
	out, err := cmd.CombinedOutput()
	if err != nil {
		logger.Info("command failed",
			slog.Int("exit_code", wrapcommander.ResolveExitCode(err)),
			slog.String("output", string(out)),
			slog.String("error", err.Error()),
		)
		return err
	}
	logger.Debug("command succeeded",
		slog.Int("exit_code", wrapcommander.ResolveExitCode(err)),
		slog.String("output", string(out)),
	)
	return nil
}
