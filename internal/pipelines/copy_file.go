package pipelines

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/ltfschoen/trunk/internal/config"
)

const kindCopyFile = "copy-file"

type copyFileAttrs struct {
	Href string `mapstructure:"href"`
}

// CopyFile copies a file into the staging dir under its original name. The
// document keeps no reference to it; the placeholder is simply removed.
type CopyFile struct {
	id    int
	rtc   *config.RtcBuild
	asset *AssetFile
}

func newCopyFile(_ context.Context, rtc *config.RtcBuild, htmlDir string, _ *IgnoreChan, attrs Attrs, id int) (Asset, error) {
	var opts copyFileAttrs
	if err := decodeAttrs(attrs, &opts); err != nil {
		return nil, err
	}
	if opts.Href == "" {
		return nil, fmt.Errorf(`"href" attribute is required for rel=%q links`, kindCopyFile)
	}
	asset, err := NewAssetFile(htmlDir, opts.Href)
	if err != nil {
		return nil, err
	}
	return &CopyFile{id: id, rtc: rtc, asset: asset}, nil
}

func (c *CopyFile) ID() int { return c.id }

func (c *CopyFile) Build(_ context.Context) (Output, error) {
	if _, err := c.asset.Copy(c.rtc.Staging, false); err != nil {
		return nil, err
	}
	return &CopyFileOutput{id: c.id}, nil
}

// CopyFileOutput is the output of a copy-file build.
type CopyFileOutput struct {
	id int
}

func (o *CopyFileOutput) ID() int { return o.id }

func (o *CopyFileOutput) Finalize(doc *goquery.Document) error {
	sel, err := selectPlaceholder(doc, linkIDSelector(o.id), o.id)
	if err != nil {
		return err
	}
	sel.Remove()
	return nil
}
