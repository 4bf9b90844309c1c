package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RtcBuild is the resolved runtime config for a build pass. All paths are
// absolute. It is shared read-only across concurrent asset workers.
type RtcBuild struct {
	// Target is the source HTML document.
	Target string
	// TargetDir is the directory containing Target; relative asset hrefs
	// resolve against it.
	TargetDir string
	// Dist is the final output directory.
	Dist string
	// Staging is the directory assets are written into during a pass. Its
	// contents replace Dist only after the pass succeeds.
	Staging string
	// PublicURL always carries a trailing slash.
	PublicURL   string
	Release     bool
	NoHash      bool
	StopOnError bool
	// Autoreload injects the reload websocket client into the finalized
	// document. Set only by serve mode.
	Autoreload bool
	Hooks      []HookConfig
}

// RtcWatch extends RtcBuild with watch-mode settings.
type RtcWatch struct {
	*RtcBuild
	// Ignore holds absolute paths excluded from change detection.
	Ignore []string
}

// RtcServe extends RtcWatch with dev-server settings.
type RtcServe struct {
	*RtcWatch
	Address      string
	Port         int
	NoAutoreload bool
}

// RuntimeBuild resolves the config into an RtcBuild. dir is the directory
// containing the project file; relative config paths resolve against it.
func (c *Config) RuntimeBuild(dir string) (*RtcBuild, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project dir %q: %w", dir, err)
	}

	target := c.Build.Target
	if target == "" {
		target = "index.html"
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(absDir, target)
	}
	if _, err := os.Stat(target); err != nil {
		return nil, fmt.Errorf("target HTML file %q is not accessible: %w", target, err)
	}

	dist := c.Build.Dist
	if dist == "" {
		dist = "dist"
	}
	if !filepath.IsAbs(dist) {
		dist = filepath.Join(absDir, dist)
	}

	publicURL := c.Build.PublicURL
	if publicURL == "" {
		publicURL = "/"
	}
	if !strings.HasSuffix(publicURL, "/") {
		publicURL += "/"
	}

	return &RtcBuild{
		Target:      target,
		TargetDir:   filepath.Dir(target),
		Dist:        dist,
		Staging:     filepath.Join(dist, ".stage"),
		PublicURL:   publicURL,
		Release:     c.Build.Release,
		NoHash:      c.Build.NoHash,
		StopOnError: c.Build.StopOnError,
		Hooks:       c.Hooks,
	}, nil
}

// RuntimeWatch resolves the config into an RtcWatch.
func (c *Config) RuntimeWatch(dir string) (*RtcWatch, error) {
	build, err := c.RuntimeBuild(dir)
	if err != nil {
		return nil, err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project dir %q: %w", dir, err)
	}
	ignore := make([]string, 0, len(c.Watch.Ignore))
	for _, p := range c.Watch.Ignore {
		if !filepath.IsAbs(p) {
			p = filepath.Join(absDir, p)
		}
		ignore = append(ignore, filepath.Clean(p))
	}
	return &RtcWatch{RtcBuild: build, Ignore: ignore}, nil
}

// RuntimeServe resolves the config into an RtcServe.
func (c *Config) RuntimeServe(dir string) (*RtcServe, error) {
	watch, err := c.RuntimeWatch(dir)
	if err != nil {
		return nil, err
	}
	addr := c.Serve.Address
	if addr == "" {
		addr = "127.0.0.1"
	}
	port := c.Serve.Port
	if port == 0 {
		port = 8080
	}
	watch.Autoreload = !c.Serve.NoAutoreload
	return &RtcServe{
		RtcWatch:     watch,
		Address:      addr,
		Port:         port,
		NoAutoreload: c.Serve.NoAutoreload,
	}, nil
}
