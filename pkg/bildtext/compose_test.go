package bildtext

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = color.RGBA{200, 30, 30, 255}
	blue = color.RGBA{30, 30, 200, 255}
)

func TestRenderDims(t *testing.T) {
	src := testImage(400, 300, red)
	l, err := PlanLayout(400, 300, ShotInfo{}, nil, &Options{})
	require.NoError(t, err)

	out, err := Render(src, nil, l)
	require.NoError(t, err)

	assert.Equal(t, l.CanvasW, out.Bounds().Dx())
	assert.Equal(t, l.CanvasH, out.Bounds().Dy())
	assert.Equal(t, red, out.RGBAAt(200, 150))
	assert.Equal(t, canvasColor, out.RGBAAt(200, 300+l.BarHeight/2))
}

func TestRenderDeterministic(t *testing.T) {
	src := testImage(320, 240, blue)
	logo, err := ResolveLogo("Nikon", "")
	require.NoError(t, err)

	l, err := PlanLayout(320, 240, fullInfo(), logo, &Options{BarHeight: 60})
	require.NoError(t, err)

	a, err := Render(src, logo, l)
	require.NoError(t, err)
	b, err := Render(src, logo, l)
	require.NoError(t, err)

	assert.Equal(t, a.Rect, b.Rect)
	assert.True(t, bytes.Equal(a.Pix, b.Pix))
}

func TestRenderSourceUntouched(t *testing.T) {
	src := testImage(200, 150, red)
	before := make([]byte, len(src.Pix))
	copy(before, src.Pix)

	l, err := PlanLayout(200, 150, fullInfo(), nil, &Options{})
	require.NoError(t, err)
	_, err = Render(src, nil, l)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(before, src.Pix))
}

func TestRenderBarCleanWithoutMetadata(t *testing.T) {
	src := testImage(400, 300, red)
	l, err := PlanLayout(400, 300, ShotInfo{}, nil, &Options{})
	require.NoError(t, err)

	out, err := Render(src, nil, l)
	require.NoError(t, err)

	for y := l.BarTop; y < l.CanvasH; y++ {
		for x := 0; x < l.CanvasW; x++ {
			require.Equal(t, canvasColor, out.RGBAAt(x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestRenderTextInBar(t *testing.T) {
	src := testImage(800, 600, red)
	l, err := PlanLayout(800, 600, fullInfo(), nil, &Options{BarHeight: 120})
	require.NoError(t, err)
	require.NotEmpty(t, l.Lines)

	out, err := Render(src, nil, l)
	require.NoError(t, err)

	bar := image.Rect(sideMargin, l.BarTop, 400, l.CanvasH)
	assert.Positive(t, countInk(out, bar))

	// Nothing bleeds above the bar.
	assert.Equal(t, red, out.RGBAAt(400, l.BarTop-10))
}

func TestRenderLogoInRect(t *testing.T) {
	logo, err := ResolveLogo("Canon", "")
	require.NoError(t, err)
	require.NotNil(t, logo)

	src := testImage(800, 600, blue)
	l, err := PlanLayout(800, 600, ShotInfo{Make: "Canon"}, logo, &Options{BarHeight: 120})
	require.NoError(t, err)
	require.False(t, l.LogoRect.Empty())

	out, err := Render(src, logo, l)
	require.NoError(t, err)

	assert.Positive(t, countInk(out, l.LogoRect))

	// The strip between the logo and the right margin stays blank.
	gap := image.Rect(l.LogoRect.Max.X+4, l.BarTop, l.CanvasW-4, l.CanvasH)
	assert.Zero(t, countInk(out, gap))
}

func TestRender16x9Padding(t *testing.T) {
	src := testImage(800, 200, blue)
	l, err := PlanLayout(800, 200, ShotInfo{}, nil, &Options{BarHeight: 50, Force16x9: true})
	require.NoError(t, err)

	require.Equal(t, 450, l.CanvasH)
	require.Equal(t, 100, l.PhotoY)

	out, err := Render(src, nil, l)
	require.NoError(t, err)

	assert.Equal(t, canvasColor, out.RGBAAt(400, 50))
	assert.Equal(t, blue, out.RGBAAt(400, 150))
	assert.Equal(t, canvasColor, out.RGBAAt(400, 350))
	assert.Equal(t, canvasColor, out.RGBAAt(400, 425))
}
