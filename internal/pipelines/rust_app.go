package pipelines

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cespare/xxhash/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/ltfschoen/trunk/internal/config"
)

const kindRustApp = "rust-app"

type rustAppAttrs struct {
	Href string `mapstructure:"href"`
	Bin  string `mapstructure:"data-bin"`
}

// cargoManifest is the slice of Cargo.toml this pipeline needs.
type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

// RustApp builds a cargo project to wasm, runs wasm-bindgen over the
// artifact, and stages the resulting JS loader and wasm binary under
// content-hashed names.
type RustApp struct {
	id       int
	rtc      *config.RtcBuild
	manifest *AssetFile
	// name is the crate (or data-bin) name, the base of every artifact.
	name string
}

func newRustApp(_ context.Context, rtc *config.RtcBuild, htmlDir string, ignore *IgnoreChan, attrs Attrs, id int) (Asset, error) {
	var opts rustAppAttrs
	if err := decodeAttrs(attrs, &opts); err != nil {
		return nil, err
	}

	// The href may point at a Cargo.toml or at the crate dir; default is
	// the HTML dir itself.
	href := opts.Href
	if href == "" {
		href = "Cargo.toml"
	} else if !strings.HasSuffix(href, "Cargo.toml") {
		href = filepath.Join(href, "Cargo.toml")
	}
	manifest, err := NewAssetFile(htmlDir, href)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(manifest.Path)
	if err != nil {
		return nil, fmt.Errorf("error reading cargo manifest %q: %w", manifest.Path, err)
	}
	var parsed cargoManifest
	if err := toml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("error parsing cargo manifest %q: %w", manifest.Path, err)
	}
	name := opts.Bin
	if name == "" {
		name = parsed.Package.Name
	}
	if name == "" {
		return nil, fmt.Errorf("cargo manifest %q has no package name", manifest.Path)
	}

	// The cargo target dir is generated output; tell the watcher before
	// any worker spawns so it never shows up as a source change.
	ignore.Send(filepath.Join(filepath.Dir(manifest.Path), "target"))

	return &RustApp{id: id, rtc: rtc, manifest: manifest, name: name}, nil
}

func (r *RustApp) ID() int { return r.id }

func (r *RustApp) Build(ctx context.Context) (Output, error) {
	crateDir := filepath.Dir(r.manifest.Path)

	args := []string{"build", "--target", "wasm32-unknown-unknown", "--manifest-path", r.manifest.Path}
	profile := "debug"
	if r.rtc.Release {
		args = append(args, "--release")
		profile = "release"
	}
	if _, err := runTool(ctx, "cargo", args...); err != nil {
		return nil, fmt.Errorf("error building cargo project %q: %w", r.manifest.Path, err)
	}

	// Cargo artifact names replace dashes with underscores.
	artifact := strings.ReplaceAll(r.name, "-", "_")
	wasmPath := filepath.Join(crateDir, "target", "wasm32-unknown-unknown", profile, artifact+".wasm")
	if _, err := os.Stat(wasmPath); err != nil {
		return nil, fmt.Errorf("cargo build produced no wasm artifact at %q: %w", wasmPath, err)
	}

	bindgenDir, err := os.MkdirTemp("", "trunk-bindgen-*")
	if err != nil {
		return nil, fmt.Errorf("error creating wasm-bindgen output dir: %w", err)
	}
	defer os.RemoveAll(bindgenDir)

	if _, err := runTool(ctx, "wasm-bindgen",
		"--target", "web", "--no-typescript",
		"--out-dir", bindgenDir, "--out-name", artifact,
		wasmPath,
	); err != nil {
		return nil, fmt.Errorf("error running wasm-bindgen on %q: %w", wasmPath, err)
	}

	wasmBytes, err := os.ReadFile(filepath.Join(bindgenDir, artifact+"_bg.wasm"))
	if err != nil {
		return nil, fmt.Errorf("error reading wasm-bindgen wasm output: %w", err)
	}
	jsBytes, err := os.ReadFile(filepath.Join(bindgenDir, artifact+".js"))
	if err != nil {
		return nil, fmt.Errorf("error reading wasm-bindgen js output: %w", err)
	}

	// One digest over the wasm bytes names both artifacts, so the JS
	// loader and the binary it references always travel together.
	base := r.name
	if !r.rtc.NoHash {
		base = fmt.Sprintf("%s-%x", r.name, xxhash.Sum64(wasmBytes))
	}
	jsName := base + ".js"
	wasmName := base + "_bg.wasm"
	jsBytes = []byte(strings.ReplaceAll(string(jsBytes), artifact+"_bg.wasm", wasmName))

	if err := os.WriteFile(filepath.Join(r.rtc.Staging, wasmName), wasmBytes, 0o644); err != nil {
		return nil, fmt.Errorf("error writing wasm artifact %q: %w", wasmName, err)
	}
	if err := os.WriteFile(filepath.Join(r.rtc.Staging, jsName), jsBytes, 0o644); err != nil {
		return nil, fmt.Errorf("error writing js loader %q: %w", jsName, err)
	}

	return &RustAppOutput{
		id:        r.id,
		publicURL: r.rtc.PublicURL,
		jsName:    jsName,
		wasmName:  wasmName,
	}, nil
}

// RustAppOutput is the output of a rust-app build.
type RustAppOutput struct {
	id        int
	publicURL string
	jsName    string
	wasmName  string
}

func (o *RustAppOutput) ID() int { return o.id }

func (o *RustAppOutput) Finalize(doc *goquery.Document) error {
	sel, err := selectPlaceholder(doc, linkIDSelector(o.id), o.id)
	if err != nil {
		return err
	}
	sel.ReplaceWithHtml(fmt.Sprintf(
		`<link rel="preload" href="%[1]s%[2]s" as="fetch" type="application/wasm" crossorigin=""/><script type="module">import init from '%[1]s%[3]s';init('%[1]s%[2]s');</script>`,
		o.publicURL, o.wasmName, o.jsName,
	))
	return nil
}
