package pipelines

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inlineDoc(t *testing.T, id int) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><head><link data-trunk rel="inline" data-trunk-id="0"/></head><body></body></html>`))
	require.NoError(t, err)
	return doc
}

func TestInline(t *testing.T) {
	rtc := testRtc(t)
	writeFile(t, rtc.TargetDir, "theme.css", "body { color: red }")
	writeFile(t, rtc.TargetDir, "boot.js", "console.log(1)")
	writeFile(t, rtc.TargetDir, "frag.html", "<b>frag</b>")

	build := func(t *testing.T, attrs Attrs) Output {
		t.Helper()
		asset, err := NewAsset(context.Background(), rtc, rtc.TargetDir, nil, AssetReference{Kind: LinkRef, Attrs: attrs}, 0)
		require.NoError(t, err)
		out, err := asset.Build(context.Background())
		require.NoError(t, err)
		return out
	}

	t.Run("css file becomes a style element", func(t *testing.T) {
		doc := inlineDoc(t, 0)
		out := build(t, Attrs{"rel": "inline", "href": "theme.css"})
		require.NoError(t, out.Finalize(doc))
		html, _ := doc.Html()
		assert.Contains(t, html, "<style>body { color: red }</style>")
	})

	t.Run("js file becomes a script element", func(t *testing.T) {
		doc := inlineDoc(t, 0)
		out := build(t, Attrs{"rel": "inline", "href": "boot.js"})
		require.NoError(t, out.Finalize(doc))
		html, _ := doc.Html()
		assert.Contains(t, html, "<script>console.log(1)</script>")
	})

	t.Run("html file is inserted raw", func(t *testing.T) {
		doc := inlineDoc(t, 0)
		out := build(t, Attrs{"rel": "inline", "href": "frag.html"})
		require.NoError(t, out.Finalize(doc))
		html, _ := doc.Html()
		assert.Contains(t, html, "<b>frag</b>")
	})

	t.Run("explicit type overrides the extension", func(t *testing.T) {
		doc := inlineDoc(t, 0)
		out := build(t, Attrs{"rel": "inline", "href": "theme.css", "type": "html"})
		require.NoError(t, out.Finalize(doc))
		html, _ := doc.Html()
		assert.NotContains(t, html, "<style>")
	})

	t.Run("unknown content type fails at construction", func(t *testing.T) {
		writeFile(t, rtc.TargetDir, "data.bin", "x")
		_, err := NewAsset(context.Background(), rtc, rtc.TargetDir, nil,
			AssetReference{Kind: LinkRef, Attrs: Attrs{"rel": "inline", "href": "data.bin"}}, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown inline content type")
	})
}
