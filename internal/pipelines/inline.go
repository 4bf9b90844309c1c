package pipelines

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/ltfschoen/trunk/internal/config"
)

const kindInline = "inline"

type inlineAttrs struct {
	Href string `mapstructure:"href"`
	Type string `mapstructure:"type"`
}

// contentType is how an inlined file is embedded in the document.
type contentType string

const (
	contentCSS  contentType = "css"
	contentJS   contentType = "js"
	contentHTML contentType = "html"
)

// contentTypeFor resolves the embedding from an explicit type attr, falling
// back to the file extension.
func contentTypeFor(attr, ext string) (contentType, error) {
	s := attr
	if s == "" {
		s = ext
	}
	switch s {
	case "css", "scss", "sass":
		return contentCSS, nil
	case "js", "mjs":
		return contentJS, nil
	case "html", "svg":
		return contentHTML, nil
	default:
		return "", fmt.Errorf("unknown inline content type %q; expected css, js or html", s)
	}
}

// Inline embeds a file's content directly into the document instead of
// linking to a copied artifact.
type Inline struct {
	id      int
	asset   *AssetFile
	content contentType
}

func newInline(_ context.Context, _ *config.RtcBuild, htmlDir string, _ *IgnoreChan, attrs Attrs, id int) (Asset, error) {
	var opts inlineAttrs
	if err := decodeAttrs(attrs, &opts); err != nil {
		return nil, err
	}
	if opts.Href == "" {
		return nil, fmt.Errorf(`"href" attribute is required for rel=%q links`, kindInline)
	}
	asset, err := NewAssetFile(htmlDir, opts.Href)
	if err != nil {
		return nil, err
	}
	content, err := contentTypeFor(opts.Type, asset.Ext)
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", asset.Path, err)
	}
	return &Inline{id: id, asset: asset, content: content}, nil
}

func (i *Inline) ID() int { return i.id }

func (i *Inline) Build(_ context.Context) (Output, error) {
	text, err := i.asset.ReadText()
	if err != nil {
		return nil, err
	}
	return &InlineOutput{id: i.id, content: i.content, text: text}, nil
}

// InlineOutput is the output of an inline build.
type InlineOutput struct {
	id      int
	content contentType
	text    string
}

func (o *InlineOutput) ID() int { return o.id }

func (o *InlineOutput) Finalize(doc *goquery.Document) error {
	sel, err := selectPlaceholder(doc, linkIDSelector(o.id), o.id)
	if err != nil {
		return err
	}
	switch o.content {
	case contentCSS:
		sel.ReplaceWithHtml(fmt.Sprintf("<style>%s</style>", o.text))
	case contentJS:
		sel.ReplaceWithHtml(fmt.Sprintf("<script>%s</script>", o.text))
	case contentHTML:
		sel.ReplaceWithHtml(o.text)
	}
	return nil
}
