package pipelines

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/ltfschoen/trunk/internal/config"
)

// HtmlPipeline drives one full build pass over the target HTML document:
// scan placeholders, stamp ids, dispatch assets, build them concurrently,
// then finalize each output against the shared document and write the
// result into the staging dir.
type HtmlPipeline struct {
	rtc    *config.RtcBuild
	logger *slog.Logger
	ignore *IgnoreChan
}

// NewHtmlPipeline creates a pipeline for the configured target document.
// ignore may be nil when no watcher is listening.
func NewHtmlPipeline(rtc *config.RtcBuild, logger *slog.Logger, ignore *IgnoreChan) *HtmlPipeline {
	return &HtmlPipeline{rtc: rtc, logger: logger, ignore: ignore}
}

// buildResult pairs a completed worker's output with its asset id. Results
// arrive in completion order; the id is the only correlation key back to
// the declaration.
type buildResult struct {
	id  int
	out Output
	err error
}

// Run executes one build pass. On failure the joined error carries every
// declaration's failure, each attributed to its asset id or path; outputs
// that succeeded before a failure keep their staged files on disk.
func (p *HtmlPipeline) Run(ctx context.Context) error {
	raw, err := os.ReadFile(p.rtc.Target)
	if err != nil {
		return fmt.Errorf("error reading target HTML %q: %w", p.rtc.Target, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("error parsing target HTML %q: %w", p.rtc.Target, err)
	}

	refs := p.scan(doc)
	p.logger.Info("building assets", "count", len(refs), "target", p.rtc.Target)

	assets, dispatchErrs := p.dispatch(ctx, refs)
	outputs, buildErrs := p.buildAll(ctx, assets)

	var finalizeErrs []error
	for _, out := range outputs {
		if err := out.Finalize(doc); err != nil {
			finalizeErrs = append(finalizeErrs, fmt.Errorf("asset %d: %w", out.ID(), err))
		}
	}

	errs := append(dispatchErrs, buildErrs...)
	errs = append(errs, finalizeErrs...)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return p.writeDocument(doc)
}

// scan collects placeholder declarations in document order, assigning ids
// 0..N-1 and stamping each id onto its element before any worker spawns, so
// finalizer lookups stay valid no matter what other finalizers have already
// mutated elsewhere in the document.
func (p *HtmlPipeline) scan(doc *goquery.Document) []AssetReference {
	var refs []AssetReference
	doc.Find("link[data-trunk], script[data-trunk]").Each(func(id int, sel *goquery.Selection) {
		attrs := make(Attrs, len(sel.Nodes[0].Attr))
		for _, attr := range sel.Nodes[0].Attr {
			attrs[attr.Key] = attr.Val
		}
		kind := LinkRef
		if goquery.NodeName(sel) == "script" {
			kind = ScriptRef
		}
		sel.SetAttr(TrunkID, strconv.Itoa(id))
		refs = append(refs, AssetReference{Kind: kind, Attrs: attrs})
	})
	return refs
}

// dispatch constructs one asset per declaration. A constructor failure
// aborts only its own declaration; siblings still dispatch and build.
func (p *HtmlPipeline) dispatch(ctx context.Context, refs []AssetReference) ([]Asset, []error) {
	assets := make([]Asset, 0, len(refs))
	var errs []error
	for id, ref := range refs {
		asset, err := NewAsset(ctx, p.rtc, p.rtc.TargetDir, p.ignore, ref, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("asset %d: %w", id, err))
			continue
		}
		assets = append(assets, asset)
	}
	return assets, errs
}

// buildAll fans out one goroutine per asset and collects results in
// completion order. It always returns exactly one result per asset. With
// StopOnError set, the shared context is cancelled after the first failure;
// running workers are never force-terminated, they observe the cancellation
// at their next suspension point.
func (p *HtmlPipeline) buildAll(ctx context.Context, assets []Asset) ([]Output, []error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan buildResult, len(assets))
	var wg sync.WaitGroup
	for _, asset := range assets {
		wg.Add(1)
		go func(asset Asset) {
			defer wg.Done()
			out, err := asset.Build(ctx)
			results <- buildResult{id: asset.ID(), out: out, err: err}
		}(asset)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	outputs := make([]Output, 0, len(assets))
	var errs []error
	for res := range results {
		if res.err != nil {
			p.logger.Error("asset build failed", "id", res.id, "error", res.err)
			errs = append(errs, fmt.Errorf("asset %d: %w", res.id, res.err))
			if p.rtc.StopOnError {
				cancel()
			}
			continue
		}
		p.logger.Debug("asset build succeeded", "id", res.id)
		outputs = append(outputs, res.out)
	}
	return outputs, errs
}

// reloadClient reconnects the browser to the dev server's reload socket;
// the path must match the endpoint the serve package registers.
const reloadClient = `<script>new WebSocket("ws://" + window.location.host + "/_trunk/ws").onmessage = () => window.location.reload();</script>`

// writeDocument serializes the finalized document into the staging dir.
func (p *HtmlPipeline) writeDocument(doc *goquery.Document) error {
	if p.rtc.Autoreload {
		doc.Find("body").AppendHtml(reloadClient)
	}
	html, err := doc.Html()
	if err != nil {
		return fmt.Errorf("error serializing finalized document: %w", err)
	}
	out := filepath.Join(p.rtc.Staging, "index.html")
	if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
		return fmt.Errorf("error writing finalized document to %q: %w", out, err)
	}
	return nil
}
