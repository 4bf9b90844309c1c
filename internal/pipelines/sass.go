package pipelines

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/PuerkitoBio/goquery"

	"github.com/ltfschoen/trunk/internal/config"
)

const (
	kindSass = "sass"
	kindSCSS = "scss"

	sassBin = "sass"
)

type sassAttrs struct {
	Href string `mapstructure:"href"`
}

// Sass compiles a sass/scss file through the external sass compiler and
// writes the resulting CSS into the staging dir under a content-hashed name.
// How the compiler itself works is its own business; this pipeline only
// owns the invocation and the output naming.
type Sass struct {
	id    int
	rtc   *config.RtcBuild
	asset *AssetFile
}

func newSass(_ context.Context, rtc *config.RtcBuild, htmlDir string, _ *IgnoreChan, attrs Attrs, id int) (Asset, error) {
	var opts sassAttrs
	if err := decodeAttrs(attrs, &opts); err != nil {
		return nil, err
	}
	if opts.Href == "" {
		return nil, fmt.Errorf(`"href" attribute is required for rel=%q links`, kindSass)
	}
	asset, err := NewAssetFile(htmlDir, opts.Href)
	if err != nil {
		return nil, err
	}
	return &Sass{id: id, rtc: rtc, asset: asset}, nil
}

func (s *Sass) ID() int { return s.id }

func (s *Sass) Build(ctx context.Context) (Output, error) {
	args := []string{"--no-source-map"}
	if s.rtc.Release {
		args = append(args, "--style", "compressed")
	}
	args = append(args, s.asset.Path)

	css, err := runTool(ctx, sassBin, args...)
	if err != nil {
		return nil, fmt.Errorf("error compiling sass file %q: %w", s.asset.Path, err)
	}

	fileName := hashedName(s.asset.FileStem, css, "css", !s.rtc.NoHash)
	filePath := filepath.Join(s.rtc.Staging, fileName)
	if err := os.WriteFile(filePath, css, 0o644); err != nil {
		return nil, fmt.Errorf("error writing compiled css to %q: %w", filePath, err)
	}
	return &SassOutput{id: s.id, publicURL: s.rtc.PublicURL, fileName: fileName}, nil
}

// SassOutput is the output of a sass/scss build.
type SassOutput struct {
	id        int
	publicURL string
	fileName  string
}

func (o *SassOutput) ID() int { return o.id }

func (o *SassOutput) Finalize(doc *goquery.Document) error {
	sel, err := selectPlaceholder(doc, linkIDSelector(o.id), o.id)
	if err != nil {
		return err
	}
	sel.ReplaceWithHtml(fmt.Sprintf(`<link rel="stylesheet" href="%s%s"/>`, o.publicURL, o.fileName))
	return nil
}

// runTool invokes an external build tool and returns its stdout. Stderr is
// folded into the error so tool diagnostics reach the build report.
func runTool(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s %v: %w: %s", name, args, err, stderr.String())
	}
	return stdout.Bytes(), nil
}
