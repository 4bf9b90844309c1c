package pipelines

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// AssetFile is an asset file to be processed by some build pipeline.
// Distinct assets resolving the same underlying path each hold their own
// AssetFile; there is no cross-asset cache.
type AssetFile struct {
	// Path is the canonicalized path to the target file.
	Path string
	// FileName is the name of the file itself.
	FileName string
	// FileStem is the file name without its extension.
	FileStem string
	// Ext is the extension without the leading dot.
	Ext string
}

// NewAssetFile resolves path against relDir (when not already absolute) and
// validates the result:
//   - the canonicalized path must point to an existing file,
//   - the file must have a name, a stem and an extension.
//
// Any error from this constructor indicates one of these invariants was not
// upheld.
func NewAssetFile(relDir, path string) (*AssetFile, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(relDir, path)
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, fmt.Errorf("error getting canonical path for %q: %w", path, err)
	}
	resolved, err = filepath.Abs(resolved)
	if err != nil {
		return nil, fmt.Errorf("error getting canonical path for %q: %w", path, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("target file does not appear to exist on disk %q: %w", resolved, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("target %q is a directory, not a file", resolved)
	}

	fileName := filepath.Base(resolved)
	if fileName == "." || fileName == string(filepath.Separator) {
		return nil, fmt.Errorf("asset has no file name %q", resolved)
	}
	ext := strings.TrimPrefix(filepath.Ext(fileName), ".")
	if ext == "" {
		return nil, fmt.Errorf("asset has no file extension %q", resolved)
	}
	stem := strings.TrimSuffix(fileName, "."+ext)
	if stem == "" {
		return nil, fmt.Errorf("asset has no file name stem %q", resolved)
	}

	return &AssetFile{
		Path:     resolved,
		FileName: fileName,
		FileStem: stem,
		Ext:      ext,
	}, nil
}

// Copy writes this asset into toDir. With hashing enabled the destination
// name is "{stem}-{hex64}.{ext}" where the digest covers the file bytes, so
// identical content always maps to the identical name; this is the
// content-addressing mechanism behind cache busting. An existing file with
// the same name is overwritten. The bare destination file name is returned;
// the caller composes the final path.
func (a *AssetFile) Copy(toDir string, withHash bool) (string, error) {
	bytes, err := os.ReadFile(a.Path)
	if err != nil {
		return "", fmt.Errorf("error reading file for copying %q: %w", a.Path, err)
	}

	fileName := a.FileName
	if withHash {
		fileName = fmt.Sprintf("%s-%x.%s", a.FileStem, xxhash.Sum64(bytes), a.Ext)
	}

	filePath := filepath.Join(toDir, fileName)
	if err := os.WriteFile(filePath, bytes, 0o644); err != nil {
		return "", fmt.Errorf("error copying file %q to %q: %w", a.Path, filePath, err)
	}
	return fileName, nil
}

// ReadText reads the content of this asset as UTF-8 text.
func (a *AssetFile) ReadText() (string, error) {
	bytes, err := os.ReadFile(a.Path)
	if err != nil {
		return "", fmt.Errorf("error reading file %q: %w", a.Path, err)
	}
	if !utf8.Valid(bytes) {
		return "", fmt.Errorf("file %q is not valid UTF-8", a.Path)
	}
	return string(bytes), nil
}

// hashedName names generated content the same way Copy does, for pipelines
// that produce their bytes in memory (sass, tailwind, wasm-bindgen output).
func hashedName(stem string, bytes []byte, ext string, withHash bool) string {
	if !withHash {
		return stem + "." + ext
	}
	return fmt.Sprintf("%s-%x.%s", stem, xxhash.Sum64(bytes), ext)
}
