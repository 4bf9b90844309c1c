// Package hooks runs user-configured external commands at the pre_build,
// build and post_build stages of a pass.
package hooks

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/ltfschoen/trunk/internal/config"
	"github.com/ltfschoen/trunk/internal/pipelines"
)

// Hook is one validated stage-bound command.
type Hook struct {
	Stage   pipelines.PipelineStage
	Command string
	Args    []string
}

// FromConfig validates the raw hook declarations from the project file.
func FromConfig(cfgs []config.HookConfig) ([]Hook, error) {
	hooks := make([]Hook, 0, len(cfgs))
	for i, cfg := range cfgs {
		stage, err := pipelines.ParseStage(cfg.Stage)
		if err != nil {
			return nil, fmt.Errorf("hook %d: %w", i, err)
		}
		if cfg.Command == "" {
			return nil, fmt.Errorf("hook %d: command must not be empty", i)
		}
		hooks = append(hooks, Hook{Stage: stage, Command: cfg.Command, Args: cfg.Args})
	}
	return hooks, nil
}

// Run executes, in declaration order, every hook bound to the given stage.
// Hook stdout/stderr are captured and surfaced through the logger and any
// returned error.
func Run(ctx context.Context, logger *slog.Logger, hooks []Hook, stage pipelines.PipelineStage, workDir string) error {
	for _, hook := range hooks {
		if hook.Stage != stage {
			continue
		}
		logger.Info("running hook", "stage", stage, "command", hook.Command)

		cmd := exec.CommandContext(ctx, hook.Command, hook.Args...)
		cmd.Dir = workDir
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			return fmt.Errorf("hook %q at stage %s failed: %w: %s", hook.Command, stage, err, stderr.String())
		}
		if stdout.Len() > 0 {
			logger.Debug("hook output", "command", hook.Command, "stdout", stdout.String())
		}
	}
	return nil
}
