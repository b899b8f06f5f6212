package bildtext

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/pkg/errors"
)

//go:embed logos/*.png
var logoFS embed.FS

// knownBrands are the makes that ship with a bundled wordmark.
var knownBrands = []string{"canon", "nikon", "sony", "fujifilm", "panasonic"}

// Logo is a resolved brand asset ready for compositing.
type Logo struct {
	Brand string
	Image image.Image
}

// AssetError reports a logo the caller explicitly asked for that could
// not be loaded. Unlike brand lookups, this fails the image.
type AssetError struct {
	Path string
	Err  error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("logo asset %s: %v", e.Path, e.Err)
}

func (e *AssetError) Unwrap() error { return e.Err }

var (
	logoMu    sync.RWMutex
	logoCache = map[string]*Logo{}
)

// ResolveLogo picks the logo for an image: an explicit path wins, then
// the bundled wordmark matching the camera make, then none at all.
func ResolveLogo(make, path string) (*Logo, error) {
	if path != "" {
		img, err := imgio.Open(path)
		if err != nil {
			return nil, &AssetError{Path: path, Err: err}
		}
		brand := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return &Logo{Brand: brand, Image: img}, nil
	}

	brand := canonicalBrand(make)
	if brand == "" {
		return nil, nil
	}
	return bundledLogo(brand)
}

// canonicalBrand reduces a raw Make tag to its brand key: the first
// word, lowercased. "NIKON CORPORATION" becomes "nikon".
func canonicalBrand(make string) string {
	return firstWord(strings.ToLower(make))
}

// bundledLogo loads an embedded wordmark once and serves it from a
// registry that is read-only after the first load.
func bundledLogo(brand string) (*Logo, error) {
	logoMu.RLock()
	l, ok := logoCache[brand]
	logoMu.RUnlock()
	if ok {
		return l, nil
	}

	if !slices.Contains(knownBrands, brand) {
		return nil, nil
	}

	b, err := logoFS.ReadFile("logos/" + brand + ".png")
	if err != nil {
		return nil, errors.Wrapf(err, "bundled logo %s", brand)
	}

	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrapf(err, "decode bundled logo %s", brand)
	}

	logoMu.Lock()
	defer logoMu.Unlock()
	if l, ok := logoCache[brand]; ok {
		return l, nil
	}
	l = &Logo{Brand: brand, Image: img}
	logoCache[brand] = l
	return l, nil
}
