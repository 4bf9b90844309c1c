package pipelines

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PuerkitoBio/goquery"

	"github.com/ltfschoen/trunk/internal/config"
)

const (
	kindTailwind = "tailwind-css"

	tailwindBin = "tailwindcss"
)

type tailwindAttrs struct {
	Href string `mapstructure:"href"`
}

// Tailwind compiles a tailwind entry stylesheet through the external
// tailwindcss CLI, then stages the output like the sass pipeline.
type Tailwind struct {
	id    int
	rtc   *config.RtcBuild
	asset *AssetFile
}

func newTailwind(_ context.Context, rtc *config.RtcBuild, htmlDir string, _ *IgnoreChan, attrs Attrs, id int) (Asset, error) {
	var opts tailwindAttrs
	if err := decodeAttrs(attrs, &opts); err != nil {
		return nil, err
	}
	if opts.Href == "" {
		return nil, fmt.Errorf(`"href" attribute is required for rel=%q links`, kindTailwind)
	}
	asset, err := NewAssetFile(htmlDir, opts.Href)
	if err != nil {
		return nil, err
	}
	return &Tailwind{id: id, rtc: rtc, asset: asset}, nil
}

func (t *Tailwind) ID() int { return t.id }

func (t *Tailwind) Build(ctx context.Context) (Output, error) {
	args := []string{"--input", t.asset.Path}
	if t.rtc.Release {
		args = append(args, "--minify")
	}

	css, err := runTool(ctx, tailwindBin, args...)
	if err != nil {
		return nil, fmt.Errorf("error compiling tailwind file %q: %w", t.asset.Path, err)
	}

	fileName := hashedName(t.asset.FileStem, css, "css", !t.rtc.NoHash)
	filePath := filepath.Join(t.rtc.Staging, fileName)
	if err := os.WriteFile(filePath, css, 0o644); err != nil {
		return nil, fmt.Errorf("error writing compiled css to %q: %w", filePath, err)
	}
	return &TailwindOutput{id: t.id, publicURL: t.rtc.PublicURL, fileName: fileName}, nil
}

// TailwindOutput is the output of a tailwind-css build.
type TailwindOutput struct {
	id        int
	publicURL string
	fileName  string
}

func (o *TailwindOutput) ID() int { return o.id }

func (o *TailwindOutput) Finalize(doc *goquery.Document) error {
	sel, err := selectPlaceholder(doc, linkIDSelector(o.id), o.id)
	if err != nil {
		return err
	}
	sel.ReplaceWithHtml(fmt.Sprintf(`<link rel="stylesheet" href="%s%s"/>`, o.publicURL, o.fileName))
	return nil
}
