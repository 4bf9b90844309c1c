package pipelines

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ltfschoen/trunk/internal/config"
)

// testRtc builds a minimal runtime config rooted in a temp dir, with the
// staging dir already created.
func testRtc(t *testing.T) *config.RtcBuild {
	t.Helper()
	dir := t.TempDir()
	staging := filepath.Join(dir, "dist", ".stage")
	require.NoError(t, os.MkdirAll(staging, 0o755))
	return &config.RtcBuild{
		Target:    filepath.Join(dir, "index.html"),
		TargetDir: dir,
		Dist:      filepath.Join(dir, "dist"),
		Staging:   staging,
		PublicURL: "/",
	}
}

func TestNewAssetDispatch(t *testing.T) {
	rtc := testRtc(t)
	dir := rtc.TargetDir

	writeFile(t, dir, "style.css", "body {}")
	writeFile(t, dir, "app.scss", "body { margin: 0 }")
	writeFile(t, dir, "favicon.ico", "icon-bytes")
	writeFile(t, dir, "snippet.html", "<b>hi</b>")
	writeFile(t, dir, "data.csv", "a,b")
	writeFile(t, dir, "tw.css", "@tailwind base;")
	writeFile(t, dir, "Cargo.toml", "[package]\nname = \"demo-app\"\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "static"), 0o755))
	writeFile(t, dir, "main.js", "export {}")

	cases := []struct {
		rel   string
		attrs Attrs
		want  any
	}{
		{"css", Attrs{"rel": "css", "href": "style.css"}, &CSS{}},
		{"sass", Attrs{"rel": "sass", "href": "app.scss"}, &Sass{}},
		{"scss", Attrs{"rel": "scss", "href": "app.scss"}, &Sass{}},
		{"icon", Attrs{"rel": "icon", "href": "favicon.ico"}, &Icon{}},
		{"inline", Attrs{"rel": "inline", "href": "snippet.html"}, &Inline{}},
		{"copy-file", Attrs{"rel": "copy-file", "href": "data.csv"}, &CopyFile{}},
		{"copy-dir", Attrs{"rel": "copy-dir", "href": "static"}, &CopyDir{}},
		{"rust-app", Attrs{"rel": "rust-app"}, &RustApp{}},
		{"tailwind-css", Attrs{"rel": "tailwind-css", "href": "tw.css"}, &Tailwind{}},
	}
	for _, tc := range cases {
		t.Run(tc.rel, func(t *testing.T) {
			asset, err := NewAsset(context.Background(), rtc, dir, nil, AssetReference{Kind: LinkRef, Attrs: tc.attrs}, 7)
			require.NoError(t, err)
			assert.IsType(t, tc.want, asset)
			assert.Equal(t, 7, asset.ID())
		})
	}

	t.Run("script declarations always dispatch to JS", func(t *testing.T) {
		// Attributes that would select another kind on a link are ignored.
		ref := AssetReference{Kind: ScriptRef, Attrs: Attrs{"rel": "css", "src": "main.js"}}
		asset, err := NewAsset(context.Background(), rtc, dir, nil, ref, 0)
		require.NoError(t, err)
		assert.IsType(t, &JS{}, asset)
	})

	t.Run("unknown kind fails naming the value", func(t *testing.T) {
		ref := AssetReference{Kind: LinkRef, Attrs: Attrs{"rel": "unknown-kind"}}
		_, err := NewAsset(context.Background(), rtc, dir, nil, ref, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"unknown-kind"`)
		assert.Contains(t, err.Error(), "lowercase")
	})

	t.Run("uppercase kind is not recognized", func(t *testing.T) {
		ref := AssetReference{Kind: LinkRef, Attrs: Attrs{"rel": "CSS", "href": "style.css"}}
		_, err := NewAsset(context.Background(), rtc, dir, nil, ref, 0)
		require.Error(t, err)
	})

	t.Run("missing rel attribute fails", func(t *testing.T) {
		ref := AssetReference{Kind: LinkRef, Attrs: Attrs{"href": "style.css"}}
		_, err := NewAsset(context.Background(), rtc, dir, nil, ref, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"rel" attribute`)
	})

	t.Run("constructor failure aborts only its declaration", func(t *testing.T) {
		ref := AssetReference{Kind: LinkRef, Attrs: Attrs{"rel": "css", "href": "missing.css"}}
		_, err := NewAsset(context.Background(), rtc, dir, nil, ref, 0)
		require.Error(t, err)
		// Nothing was staged for the failed declaration.
		entries, readErr := os.ReadDir(rtc.Staging)
		require.NoError(t, readErr)
		assert.Empty(t, entries)
	})
}

func TestPipelineStage(t *testing.T) {
	t.Run("parses lowercase snake values", func(t *testing.T) {
		for _, s := range []string{"pre_build", "build", "post_build"} {
			stage, err := ParseStage(s)
			require.NoError(t, err)
			assert.Equal(t, s, stage.String())
		}
	})

	t.Run("rejects other values", func(t *testing.T) {
		_, err := ParseStage("PreBuild")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown pipeline stage")
	})
}

func TestIgnoreChan(t *testing.T) {
	t.Run("nil receiver is a no-op", func(t *testing.T) {
		var ch *IgnoreChan
		ch.Send("/some/path")
	})

	t.Run("full buffer drops instead of blocking", func(t *testing.T) {
		ch := NewIgnoreChan()
		for i := 0; i < 100; i++ {
			ch.Send("/p")
		}
		assert.Equal(t, cap(ch.C), len(ch.C))
	})
}
