package pipelines

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/ltfschoen/trunk/internal/config"
)

const kindCSS = "css"

type cssAttrs struct {
	Href string `mapstructure:"href"`
}

// CSS copies a stylesheet into the staging dir and rewrites the placeholder
// into a real stylesheet link.
type CSS struct {
	id    int
	rtc   *config.RtcBuild
	asset *AssetFile
}

func newCSS(_ context.Context, rtc *config.RtcBuild, htmlDir string, _ *IgnoreChan, attrs Attrs, id int) (Asset, error) {
	var opts cssAttrs
	if err := decodeAttrs(attrs, &opts); err != nil {
		return nil, err
	}
	if opts.Href == "" {
		return nil, fmt.Errorf(`"href" attribute is required for rel=%q links`, kindCSS)
	}
	asset, err := NewAssetFile(htmlDir, opts.Href)
	if err != nil {
		return nil, err
	}
	return &CSS{id: id, rtc: rtc, asset: asset}, nil
}

func (c *CSS) ID() int { return c.id }

func (c *CSS) Build(_ context.Context) (Output, error) {
	fileName, err := c.asset.Copy(c.rtc.Staging, !c.rtc.NoHash)
	if err != nil {
		return nil, err
	}
	return &CSSOutput{id: c.id, publicURL: c.rtc.PublicURL, fileName: fileName}, nil
}

// CSSOutput is the output of a CSS build.
type CSSOutput struct {
	id        int
	publicURL string
	fileName  string
}

func (o *CSSOutput) ID() int { return o.id }

func (o *CSSOutput) Finalize(doc *goquery.Document) error {
	sel, err := selectPlaceholder(doc, linkIDSelector(o.id), o.id)
	if err != nil {
		return err
	}
	sel.ReplaceWithHtml(fmt.Sprintf(`<link rel="stylesheet" href="%s%s"/>`, o.publicURL, o.fileName))
	return nil
}
