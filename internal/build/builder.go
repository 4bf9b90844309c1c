// Package build drives a full build pass: hooks, the HTML pipeline, and
// the staging-to-dist swap.
package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ltfschoen/trunk/internal/config"
	"github.com/ltfschoen/trunk/internal/hooks"
	"github.com/ltfschoen/trunk/internal/pipelines"
)

// Builder runs build passes for one resolved config. It is reused across
// passes in watch mode.
type Builder struct {
	rtc    *config.RtcBuild
	logger *slog.Logger
	hooks  []hooks.Hook
	ignore *pipelines.IgnoreChan
}

// New creates a Builder. ignore may be nil outside watch mode.
func New(rtc *config.RtcBuild, logger *slog.Logger, ignore *pipelines.IgnoreChan) (*Builder, error) {
	hks, err := hooks.FromConfig(rtc.Hooks)
	if err != nil {
		return nil, err
	}
	return &Builder{rtc: rtc, logger: logger, hooks: hks, ignore: ignore}, nil
}

// Run executes one pass. Assets build into the staging dir; only a fully
// successful pass replaces the dist contents, so a failed pass never
// clobbers the last good output. Staged files from a failed pass are left
// in place for inspection.
func (b *Builder) Run(ctx context.Context) error {
	if err := hooks.Run(ctx, b.logger, b.hooks, pipelines.StagePreBuild, b.rtc.TargetDir); err != nil {
		return err
	}

	if err := os.RemoveAll(b.rtc.Staging); err != nil {
		return fmt.Errorf("error clearing staging dir %q: %w", b.rtc.Staging, err)
	}
	if err := os.MkdirAll(b.rtc.Staging, 0o755); err != nil {
		return fmt.Errorf("error creating staging dir %q: %w", b.rtc.Staging, err)
	}

	if err := hooks.Run(ctx, b.logger, b.hooks, pipelines.StageBuild, b.rtc.TargetDir); err != nil {
		return err
	}

	pipeline := pipelines.NewHtmlPipeline(b.rtc, b.logger, b.ignore)
	if err := pipeline.Run(ctx); err != nil {
		return err
	}

	if err := b.swap(); err != nil {
		return err
	}

	if err := hooks.Run(ctx, b.logger, b.hooks, pipelines.StagePostBuild, b.rtc.TargetDir); err != nil {
		return err
	}

	b.logger.Info("build finished", "dist", b.rtc.Dist)
	return nil
}

// swap moves the staged entries into dist, replacing same-named entries and
// removing the staging dir afterwards.
func (b *Builder) swap() error {
	entries, err := os.ReadDir(b.rtc.Staging)
	if err != nil {
		return fmt.Errorf("error reading staging dir %q: %w", b.rtc.Staging, err)
	}
	if err := os.MkdirAll(b.rtc.Dist, 0o755); err != nil {
		return fmt.Errorf("error creating dist dir %q: %w", b.rtc.Dist, err)
	}
	for _, entry := range entries {
		src := filepath.Join(b.rtc.Staging, entry.Name())
		dst := filepath.Join(b.rtc.Dist, entry.Name())
		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("error replacing %q: %w", dst, err)
		}
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("error moving %q to %q: %w", src, dst, err)
		}
	}
	if err := os.Remove(b.rtc.Staging); err != nil {
		return fmt.Errorf("error removing staging dir %q: %w", b.rtc.Staging, err)
	}
	return nil
}
