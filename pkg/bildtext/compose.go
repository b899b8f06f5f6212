package bildtext

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

var (
	canvasColor = color.RGBA{255, 255, 255, 255}
	titleColor  = color.RGBA{0, 0, 0, 255}
	detailColor = color.RGBA{80, 80, 80, 255}
)

// Render composites the photo, info bar, and logo onto a fresh canvas
// laid out by l. The source image is never modified, and identical
// inputs produce identical pixels.
func Render(src image.Image, logo *Logo, l *Layout) (*image.RGBA, error) {
	dst := image.NewRGBA(image.Rect(0, 0, l.CanvasW, l.CanvasH))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(canvasColor), image.Point{}, draw.Src)

	sb := src.Bounds()
	draw.Draw(dst, image.Rect(0, l.PhotoY, sb.Dx(), l.PhotoY+sb.Dy()), src, sb.Min, draw.Src)

	for _, line := range l.Lines {
		f, err := newFace(line.Bold, line.Size)
		if err != nil {
			return nil, err
		}

		ink := detailColor
		if line.Bold {
			ink = titleColor
		}

		d := font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(ink),
			Face: f,
			Dot:  fixed.P(line.X, line.Y),
		}
		d.DrawString(line.Text)
	}

	if logo != nil && logo.Image != nil && !l.LogoRect.Empty() {
		scaled := transform.Resize(logo.Image, l.LogoRect.Dx(), l.LogoRect.Dy(), transform.Lanczos)
		draw.Draw(dst, l.LogoRect, scaled, image.Point{}, draw.Over)
	}

	return dst, nil
}
