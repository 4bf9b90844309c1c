package pipelines

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/ltfschoen/trunk/internal/config"
)

const kindIcon = "icon"

type iconAttrs struct {
	Href string `mapstructure:"href"`
}

// Icon copies the favicon into the staging dir.
type Icon struct {
	id    int
	rtc   *config.RtcBuild
	asset *AssetFile
}

func newIcon(_ context.Context, rtc *config.RtcBuild, htmlDir string, _ *IgnoreChan, attrs Attrs, id int) (Asset, error) {
	var opts iconAttrs
	if err := decodeAttrs(attrs, &opts); err != nil {
		return nil, err
	}
	if opts.Href == "" {
		return nil, fmt.Errorf(`"href" attribute is required for rel=%q links`, kindIcon)
	}
	asset, err := NewAssetFile(htmlDir, opts.Href)
	if err != nil {
		return nil, err
	}
	return &Icon{id: id, rtc: rtc, asset: asset}, nil
}

func (i *Icon) ID() int { return i.id }

func (i *Icon) Build(_ context.Context) (Output, error) {
	fileName, err := i.asset.Copy(i.rtc.Staging, !i.rtc.NoHash)
	if err != nil {
		return nil, err
	}
	return &IconOutput{id: i.id, publicURL: i.rtc.PublicURL, fileName: fileName}, nil
}

// IconOutput is the output of an icon build.
type IconOutput struct {
	id        int
	publicURL string
	fileName  string
}

func (o *IconOutput) ID() int { return o.id }

func (o *IconOutput) Finalize(doc *goquery.Document) error {
	sel, err := selectPlaceholder(doc, linkIDSelector(o.id), o.id)
	if err != nil {
		return err
	}
	sel.ReplaceWithHtml(fmt.Sprintf(`<link rel="icon" href="%s%s"/>`, o.publicURL, o.fileName))
	return nil
}
