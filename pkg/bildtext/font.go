package bildtext

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var (
	fontOnce    sync.Once
	regularFont *opentype.Font
	boldFont    *opentype.Font
	fontErr     error
)

func parseFonts() {
	regularFont, fontErr = opentype.Parse(goregular.TTF)
	if fontErr != nil {
		fontErr = errors.Wrap(fontErr, "parse regular font")
		return
	}
	boldFont, fontErr = opentype.Parse(gobold.TTF)
	if fontErr != nil {
		fontErr = errors.Wrap(fontErr, "parse bold font")
	}
}

// newFace builds a rendering face at the given pixel size. Faces carry
// internal raster buffers, so every caller gets its own.
func newFace(bold bool, size int) (font.Face, error) {
	fontOnce.Do(parseFonts)
	if fontErr != nil {
		return nil, fontErr
	}

	f := regularFont
	if bold {
		f = boldFont
	}

	// At 72 DPI, point size equals pixel size.
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrap(err, "new face")
	}
	return face, nil
}
