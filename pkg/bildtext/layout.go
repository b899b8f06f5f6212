package bildtext

import (
	"image"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"k8s.io/klog/v2"
)

const (
	// defaultBarDiv sets the automatic bar height at 1/16 of the image.
	defaultBarDiv = 16
	minBarHeight  = 48
	maxBarHeight  = 360

	// maxBarDiv caps any bar at a third of the image height.
	maxBarDiv = 3

	sideMargin  = 32
	logoGap     = 16
	minFontSize = 10

	titleScale  = 0.40
	detailScale = 0.30
	logoScale   = 0.65
)

// TextLine is one positioned run of text in the bar. X and Y locate
// the baseline origin.
type TextLine struct {
	Text string
	Size int
	Bold bool
	X    int
	Y    int
}

// Layout describes where everything lands on the output canvas.
type Layout struct {
	CanvasW int
	CanvasH int

	// PhotoY is the top of the photo; nonzero only when 16:9 padding
	// pushes it down.
	PhotoY int

	BarTop    int
	BarHeight int

	Lines    []TextLine
	LogoRect image.Rectangle
}

// PlanLayout computes the output geometry for an image of the given
// size: canvas dimensions, photo offset, text placement, and logo
// placement. Odd metadata never fails a plan, only an unusable image
// size or font state does.
func PlanLayout(w, h int, info ShotInfo, logo *Logo, opts *Options) (*Layout, error) {
	if w <= 0 || h <= 0 {
		return nil, errors.Errorf("unusable image size %dx%d", w, h)
	}

	bar := opts.BarHeight
	if bar < 0 {
		klog.Warningf("bar height %d is negative; using the proportional default", bar)
	}
	if bar <= 0 {
		bar = h / defaultBarDiv
		if bar < minBarHeight {
			bar = minBarHeight
		}
		if bar > maxBarHeight {
			bar = maxBarHeight
		}
	}
	if max := h / maxBarDiv; bar > max {
		klog.Warningf("bar height %d is more than a third of the image height; clamping to %d", bar, max)
		bar = max
	}
	if bar < 1 {
		bar = 1
	}

	l := &Layout{
		CanvasW:   w,
		CanvasH:   h + bar,
		BarHeight: bar,
	}

	if opts.Force16x9 {
		// Height-only extension: a photo already wider than 16:9
		// keeps its natural canvas.
		if target := ceilDiv(w*9, 16); target > l.CanvasH {
			l.CanvasH = target
		}
		l.PhotoY = (l.CanvasH - bar - h) / 2
	}
	l.BarTop = l.CanvasH - bar

	textRight := w - sideMargin
	if logo != nil && logo.Image != nil {
		lb := logo.Image.Bounds()
		if lb.Dx() > 0 && lb.Dy() > 0 {
			lh := int(float64(bar) * logoScale)
			lw := lh * lb.Dx() / lb.Dy()
			// An image narrower than its side margins gets no logo.
			if maxW := w - 2*sideMargin; lw > maxW {
				lw = maxW
				if lw > 0 {
					lh = lw * lb.Dy() / lb.Dx()
				}
			}
			if lw > 0 && lh > 0 {
				lx := w - sideMargin - lw
				ly := l.BarTop + (bar-lh)/2
				l.LogoRect = image.Rect(lx, ly, lx+lw, ly+lh)
				textRight = lx - logoGap
			}
		}
	}

	maxTextW := textRight - sideMargin

	// Each line keeps to its own half of the bar so a missing line
	// never shifts the other.
	if title := info.CameraLine(); title != "" && maxTextW > 0 {
		size := fontSize(titleScale, bar)
		f, err := newFace(true, size)
		if err != nil {
			return nil, err
		}
		if text := truncate(f, title, maxTextW); text != "" {
			l.Lines = append(l.Lines, TextLine{
				Text: text,
				Size: size,
				Bold: true,
				X:    sideMargin,
				Y:    baseline(f, l.BarTop, bar/2),
			})
		}
	}

	if detail := info.SettingsLine(); detail != "" && maxTextW > 0 {
		size := fontSize(detailScale, bar)
		f, err := newFace(false, size)
		if err != nil {
			return nil, err
		}
		if text := truncate(f, detail, maxTextW); text != "" {
			l.Lines = append(l.Lines, TextLine{
				Text: text,
				Size: size,
				X:    sideMargin,
				Y:    baseline(f, l.BarTop+bar/2, bar-bar/2),
			})
		}
	}

	return l, nil
}

func fontSize(scale float64, bar int) int {
	size := int(scale * float64(bar))
	if size < minFontSize {
		size = minFontSize
	}
	if max := bar / 2; size > max {
		size = max
	}
	if size < 1 {
		size = 1
	}
	return size
}

// baseline centers a line of the given face vertically within a band
// of the bar.
func baseline(f font.Face, top, height int) int {
	m := f.Metrics()
	return top + (height+m.Ascent.Ceil()-m.Descent.Ceil())/2
}

// truncate drops trailing runes until s fits within width pixels.
// Lines never wrap.
func truncate(f font.Face, s string, width int) string {
	if font.MeasureString(f, s).Ceil() <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		if font.MeasureString(f, string(runes)).Ceil() <= width {
			break
		}
	}
	return string(runes)
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}
