package pipelines

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/PuerkitoBio/goquery"

	"github.com/ltfschoen/trunk/internal/config"
)

const kindCopyDir = "copy-dir"

type copyDirAttrs struct {
	Href string `mapstructure:"href"`
}

// CopyDir recursively copies a directory into the staging dir under its
// original name. Like copy-file, the placeholder is removed on finalize.
type CopyDir struct {
	id  int
	rtc *config.RtcBuild
	// path is the canonicalized source directory.
	path string
}

func newCopyDir(_ context.Context, rtc *config.RtcBuild, htmlDir string, _ *IgnoreChan, attrs Attrs, id int) (Asset, error) {
	var opts copyDirAttrs
	if err := decodeAttrs(attrs, &opts); err != nil {
		return nil, err
	}
	if opts.Href == "" {
		return nil, fmt.Errorf(`"href" attribute is required for rel=%q links`, kindCopyDir)
	}
	path := opts.Href
	if !filepath.IsAbs(path) {
		path = filepath.Join(htmlDir, path)
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, fmt.Errorf("error getting canonical path for %q: %w", path, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("target dir does not appear to exist on disk %q: %w", resolved, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("target %q is not a directory", resolved)
	}
	return &CopyDir{id: id, rtc: rtc, path: resolved}, nil
}

func (c *CopyDir) ID() int { return c.id }

func (c *CopyDir) Build(ctx context.Context) (Output, error) {
	dest := filepath.Join(c.rtc.Staging, filepath.Base(c.path))
	if err := copyTree(ctx, c.path, dest); err != nil {
		return nil, fmt.Errorf("error copying dir %q to %q: %w", c.path, dest, err)
	}
	return &CopyDirOutput{id: c.id}, nil
}

// copyTree copies src into dest, preserving the directory layout. The walk
// checks ctx between entries so a cancelled build stops between files, not
// mid-write.
func copyTree(ctx context.Context, src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		bytes, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, bytes, 0o644)
	})
}

// CopyDirOutput is the output of a copy-dir build.
type CopyDirOutput struct {
	id int
}

func (o *CopyDirOutput) ID() int { return o.id }

func (o *CopyDirOutput) Finalize(doc *goquery.Document) error {
	sel, err := selectPlaceholder(doc, linkIDSelector(o.id), o.id)
	if err != nil {
		return err
	}
	sel.Remove()
	return nil
}
