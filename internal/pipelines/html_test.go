package pipelines

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ltfschoen/trunk/internal/config"
	"github.com/ltfschoen/trunk/internal/logging"
)

func runPass(t *testing.T, rtc *config.RtcBuild, body string) (string, error) {
	t.Helper()
	writeFile(t, rtc.TargetDir, "index.html",
		fmt.Sprintf("<html><head>%s</head><body></body></html>", body))
	pipeline := NewHtmlPipeline(rtc, logging.NewNop(), nil)
	err := pipeline.Run(context.Background())
	out, readErr := os.ReadFile(filepath.Join(rtc.Staging, "index.html"))
	if readErr != nil {
		return "", err
	}
	return string(out), err
}

func TestHtmlPipelineCSS(t *testing.T) {
	rtc := testRtc(t)
	writeFile(t, rtc.TargetDir, "style.css", "body {}")

	html, err := runPass(t, rtc, `<link data-trunk rel="css" href="style.css"/>`)
	require.NoError(t, err)

	// The placeholder became a real stylesheet link with a hashed href and
	// the correlation marker is gone.
	assert.Contains(t, html, `rel="stylesheet"`)
	assert.Contains(t, html, `href="/style-`)
	assert.NotContains(t, html, TrunkID)
	assert.NotContains(t, html, TrunkAttr+"=")

	entries, err := os.ReadDir(rtc.Staging)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Len(t, names, 2) // index.html + hashed stylesheet
	assert.Contains(t, names, "index.html")
}

func TestFinalizeOrderIndependence(t *testing.T) {
	rtc := testRtc(t)
	writeFile(t, rtc.TargetDir, "one.ico", "icon one")
	writeFile(t, rtc.TargetDir, "two.ico", "icon two")

	newOutputs := func(t *testing.T) []Output {
		t.Helper()
		outs := make([]Output, 2)
		for i, href := range []string{"one.ico", "two.ico"} {
			ref := AssetReference{Kind: LinkRef, Attrs: Attrs{"rel": "icon", "href": href}}
			asset, err := NewAsset(context.Background(), rtc, rtc.TargetDir, nil, ref, i)
			require.NoError(t, err)
			out, err := asset.Build(context.Background())
			require.NoError(t, err)
			outs[i] = out
		}
		return outs
	}

	const source = `<html><head>` +
		`<link data-trunk rel="icon" href="one.ico" data-trunk-id="0"/>` +
		`<link data-trunk rel="icon" href="two.ico" data-trunk-id="1"/>` +
		`</head><body></body></html>`

	render := func(t *testing.T, order []int) string {
		t.Helper()
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
		require.NoError(t, err)
		outs := newOutputs(t)
		for _, i := range order {
			require.NoError(t, outs[i].Finalize(doc))
		}
		html, err := doc.Html()
		require.NoError(t, err)
		return html
	}

	forward := render(t, []int{0, 1})
	reverse := render(t, []int{1, 0})
	assert.Equal(t, forward, reverse)
}

func TestJSFinalizePreservesScriptAttrs(t *testing.T) {
	rtc := testRtc(t)
	writeFile(t, rtc.TargetDir, "main.js", "console.log(1)")

	html, err := runPass(t, rtc,
		`<script data-trunk src="main.js" defer id="app" type="module"></script>`)
	require.NoError(t, err)

	// Declaration attrs beyond src ride along onto the finalized element,
	// boolean ones included.
	assert.Contains(t, html, "defer")
	assert.Contains(t, html, `id="app"`)
	assert.Contains(t, html, `type="module"`)
	assert.Contains(t, html, `src="/main-`)
	assert.NotContains(t, html, TrunkID)
	assert.NotContains(t, html, TrunkAttr+"=")
}

func TestAutoreloadClientInjection(t *testing.T) {
	rtc := testRtc(t)

	html, err := runPass(t, rtc, "")
	require.NoError(t, err)
	assert.NotContains(t, html, "/_trunk/ws")

	rtc.Autoreload = true
	html, err = runPass(t, rtc, "")
	require.NoError(t, err)
	assert.Contains(t, html, "/_trunk/ws")
	assert.Contains(t, html, "WebSocket")
}

func TestDispatchFailureIsolation(t *testing.T) {
	rtc := testRtc(t)
	writeFile(t, rtc.TargetDir, "data.csv", "a,b")

	_, err := runPass(t, rtc,
		`<link data-trunk rel="unknown-kind"/><link data-trunk rel="copy-file" href="data.csv"/>`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"unknown-kind"`)
	assert.Contains(t, err.Error(), "asset 0")

	// The sibling still built and staged its file.
	content, readErr := os.ReadFile(filepath.Join(rtc.Staging, "data.csv"))
	require.NoError(t, readErr)
	assert.Equal(t, "a,b", string(content))
}

// stubAsset exercises the orchestrator without touching the filesystem.
type stubAsset struct {
	id    int
	delay time.Duration
	err   error
}

func (a stubAsset) ID() int { return a.id }

func (a stubAsset) Build(ctx context.Context) (Output, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(a.delay):
	}
	if a.err != nil {
		return nil, a.err
	}
	return stubOutput{id: a.id}, nil
}

type stubOutput struct{ id int }

func (o stubOutput) ID() int                          { return o.id }
func (o stubOutput) Finalize(*goquery.Document) error { return nil }

func TestBuildAllCollectsEveryResult(t *testing.T) {
	rtc := testRtc(t)
	pipeline := NewHtmlPipeline(rtc, logging.NewNop(), nil)

	// Later ids finish first; collection must re-pair by id, not by
	// submission index.
	const n = 8
	assets := make([]Asset, n)
	for i := 0; i < n; i++ {
		assets[i] = stubAsset{id: i, delay: time.Duration(n-i) * 5 * time.Millisecond}
	}

	outputs, errs := pipeline.buildAll(context.Background(), assets)
	require.Empty(t, errs)
	require.Len(t, outputs, n)

	seen := make(map[int]bool, n)
	for _, out := range outputs {
		assert.False(t, seen[out.ID()], "id %d delivered twice", out.ID())
		seen[out.ID()] = true
	}
	assert.Len(t, seen, n)
}

func TestBuildAllFailurePropagation(t *testing.T) {
	rtc := testRtc(t)
	pipeline := NewHtmlPipeline(rtc, logging.NewNop(), nil)

	boom := errors.New("boom")
	assets := []Asset{
		stubAsset{id: 0, delay: time.Millisecond},
		stubAsset{id: 1, delay: time.Millisecond, err: boom},
		stubAsset{id: 2, delay: 10 * time.Millisecond},
	}

	outputs, errs := pipeline.buildAll(context.Background(), assets)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
	assert.Contains(t, errs[0].Error(), "asset 1")
	// Siblings are not corrupted by the failure.
	assert.Len(t, outputs, 2)
}
