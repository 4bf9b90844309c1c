package pipelines

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ltfschoen/trunk/internal/config"
)

const attrSrc = "src"

type jsAttrs struct {
	Src string `mapstructure:"src"`
}

// JS copies a plain JavaScript file into the staging dir. Script
// declarations always dispatch here; there is no rel lookup for them.
type JS struct {
	id    int
	rtc   *config.RtcBuild
	asset *AssetFile
	attrs Attrs
}

func newJS(_ context.Context, rtc *config.RtcBuild, htmlDir string, _ *IgnoreChan, attrs Attrs, id int) (Asset, error) {
	var opts jsAttrs
	if err := decodeAttrs(attrs, &opts); err != nil {
		return nil, err
	}
	if opts.Src == "" {
		return nil, fmt.Errorf(`"src" attribute is required for <script data-trunk .../> elements`)
	}
	asset, err := NewAssetFile(htmlDir, opts.Src)
	if err != nil {
		return nil, err
	}
	// Every other declaration attr (type, defer, id, integrity, ...) rides
	// along onto the finalized element.
	extra := make(Attrs, len(attrs))
	for key, val := range attrs {
		switch key {
		case TrunkAttr, TrunkID, attrSrc:
			continue
		}
		extra[key] = val
	}
	return &JS{id: id, rtc: rtc, asset: asset, attrs: extra}, nil
}

func (j *JS) ID() int { return j.id }

func (j *JS) Build(_ context.Context) (Output, error) {
	fileName, err := j.asset.Copy(j.rtc.Staging, !j.rtc.NoHash)
	if err != nil {
		return nil, err
	}
	return &JSOutput{
		id:        j.id,
		publicURL: j.rtc.PublicURL,
		fileName:  fileName,
		attrs:     j.attrs,
	}, nil
}

// JSOutput is the output of a JS build.
type JSOutput struct {
	id        int
	publicURL string
	fileName  string
	attrs     Attrs
}

func (o *JSOutput) ID() int { return o.id }

func (o *JSOutput) Finalize(doc *goquery.Document) error {
	sel, err := selectPlaceholder(doc, scriptIDSelector(o.id), o.id)
	if err != nil {
		return err
	}
	sel.ReplaceWithHtml(fmt.Sprintf(`<script%s src="%s%s"></script>`,
		renderAttrs(o.attrs), o.publicURL, o.fileName))
	return nil
}

// renderAttrs serializes carried attrs in sorted key order so finalized
// documents are byte-stable across runs. Empty values render as bare
// boolean attributes.
func renderAttrs(attrs Attrs) string {
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		if val := attrs[key]; val == "" {
			fmt.Fprintf(&b, " %s", key)
		} else {
			fmt.Fprintf(&b, " %s=%q", key, val)
		}
	}
	return b.String()
}
