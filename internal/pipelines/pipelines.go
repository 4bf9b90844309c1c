// Package pipelines implements the asset build pipelines: one placeholder
// element in the source HTML dispatches to one typed asset, assets build
// concurrently, and each completed output patches the shared document back
// through an id-correlated finalizer.
package pipelines

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/mitchellh/mapstructure"

	"github.com/ltfschoen/trunk/internal/config"
)

const (
	attrRel = "rel"

	// TrunkAttr marks a placeholder element for processing.
	TrunkAttr = "data-trunk"
	// TrunkID carries the asset id stamped onto a placeholder before its
	// worker spawns. It is the only correlation key between a build result
	// and its document node; document position is never used.
	TrunkID = "data-trunk-id"
)

// Attrs is the attribute map of one placeholder element.
type Attrs map[string]string

// RefKind tags a declaration with its originating element kind.
type RefKind int

const (
	// LinkRef is a <link data-trunk rel="..."/> declaration.
	LinkRef RefKind = iota
	// ScriptRef is a <script data-trunk src="..."/> declaration.
	ScriptRef
)

// AssetReference is one scanned placeholder declaration.
type AssetReference struct {
	Kind  RefKind
	Attrs Attrs
}

// Asset is a parsed declaration ready to build. Each of the supported kinds
// is independent of every other: no kind may assume another's presence,
// ordering or output, which is what makes unordered concurrent execution and
// unordered finalization safe.
type Asset interface {
	// ID returns the asset id assigned at scan time.
	ID() int
	// Build performs the asset's build and produces its output. Build may
	// block on the filesystem or on external tools, and must honor ctx
	// cancellation at those suspension points.
	Build(ctx context.Context) (Output, error)
}

// Output carries exactly what a finalizer needs to patch the document.
type Output interface {
	// ID returns the asset id of the originating declaration.
	ID() int
	// Finalize mutates the document, locating its placeholder solely via
	// the id selector. Finalize must be position-independent: running the
	// complete set of finalizers in any permutation yields an identical
	// document. The caller serializes access to doc.
	Finalize(doc *goquery.Document) error
}

// constructor builds one asset kind from a declaration. Constructors may
// read auxiliary files and validate paths; a failure aborts only that
// declaration, before any worker is spawned for it.
type constructor func(ctx context.Context, rtc *config.RtcBuild, htmlDir string, ignore *IgnoreChan, attrs Attrs, id int) (Asset, error)

// assetKinds maps a rel value to its asset constructor. Adding a kind means
// one constructor, one Build, one Finalize and one entry here.
var assetKinds = map[string]constructor{
	kindCSS:      newCSS,
	kindSass:     newSass,
	kindSCSS:     newSass,
	kindIcon:     newIcon,
	kindInline:   newInline,
	kindCopyFile: newCopyFile,
	kindCopyDir:  newCopyDir,
	kindRustApp:  newRustApp,
	kindTailwind: newTailwind,
}

// NewAsset dispatches one declaration to its asset kind. Link declarations
// select the kind through their rel attribute; script declarations always
// construct the JS asset.
func NewAsset(ctx context.Context, rtc *config.RtcBuild, htmlDir string, ignore *IgnoreChan, ref AssetReference, id int) (Asset, error) {
	switch ref.Kind {
	case ScriptRef:
		return newJS(ctx, rtc, htmlDir, ignore, ref.Attrs, id)
	default:
		rel, ok := ref.Attrs[attrRel]
		if !ok {
			return nil, fmt.Errorf(`all <link data-trunk .../> elements must have a "rel" attribute indicating the asset type`)
		}
		ctor, ok := assetKinds[rel]
		if !ok {
			return nil, fmt.Errorf("unknown <link data-trunk .../> attr value rel=%q; please ensure the value is lowercase and is a supported asset type", rel)
		}
		return ctor(ctx, rtc, htmlDir, ignore, ref.Attrs, id)
	}
}

// decodeAttrs maps an attribute map onto a kind-specific config struct.
func decodeAttrs(attrs Attrs, out any) error {
	if err := mapstructure.Decode(map[string]string(attrs), out); err != nil {
		return fmt.Errorf("failed to decode asset attributes: %w", err)
	}
	return nil
}

// linkIDSelector is the selector finalizers use to find a link placeholder.
func linkIDSelector(id int) string {
	return fmt.Sprintf(`link[%s="%d"]`, TrunkID, id)
}

// scriptIDSelector is the selector finalizers use to find a script placeholder.
func scriptIDSelector(id int) string {
	return fmt.Sprintf(`script[%s="%d"]`, TrunkID, id)
}

// selectPlaceholder resolves an id selector against the document, failing
// when the placeholder is gone. A missing placeholder indicates a
// correlation bug, never a benign race: finalizers only touch their own id.
func selectPlaceholder(doc *goquery.Document, selector string, id int) (*goquery.Selection, error) {
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return nil, fmt.Errorf("no placeholder found for asset id %d", id)
	}
	return sel, nil
}
