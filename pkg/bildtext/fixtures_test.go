package bildtext

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

type exifFixture struct {
	make     string
	model    string
	exposure [2]uint32
	fnumber  [2]uint32
	iso      uint16
	focal    [2]uint32
	taken    string
}

func canonR5() exifFixture {
	return exifFixture{
		make:     "Canon",
		model:    "Canon EOS R5",
		exposure: [2]uint32{1, 200},
		fnumber:  [2]uint32{8, 1},
		iso:      100,
		focal:    [2]uint32{50, 1},
		taken:    "2023:05:14 10:30:00",
	}
}

// buildExifTIFF assembles a minimal little-endian TIFF block with an
// IFD0 carrying Make, Model, and a pointer to an Exif sub-IFD holding
// the exposure tags.
func buildExifTIFF(fx exifFixture) []byte {
	const (
		typeASCII    = 2
		typeShort    = 3
		typeLong     = 4
		typeRational = 5
	)

	// Fixed skeleton: 8-byte header, IFD0 with 3 entries, Exif IFD
	// with 5 entries. Out-of-line values follow.
	const ifd0Off = 8
	const exifOff = ifd0Off + 2 + 3*12 + 4
	const dataOff = exifOff + 2 + 5*12 + 4

	data := []byte{}
	appendData := func(b []byte) uint32 {
		off := uint32(dataOff + len(data))
		data = append(data, b...)
		if len(data)%2 == 1 {
			data = append(data, 0)
		}
		return off
	}

	rational := func(v [2]uint32) []byte {
		b := make([]byte, 8)
		binary.LittleEndian.PutUint32(b[0:], v[0])
		binary.LittleEndian.PutUint32(b[4:], v[1])
		return b
	}

	entry := func(tag, typ uint16, count, value uint32) []byte {
		b := make([]byte, 12)
		binary.LittleEndian.PutUint16(b[0:], tag)
		binary.LittleEndian.PutUint16(b[2:], typ)
		binary.LittleEndian.PutUint32(b[4:], count)
		binary.LittleEndian.PutUint32(b[8:], value)
		return b
	}

	makeBytes := append([]byte(fx.make), 0)
	modelBytes := append([]byte(fx.model), 0)
	takenBytes := append([]byte(fx.taken), 0)

	ifd0 := []byte{3, 0}
	ifd0 = append(ifd0, entry(0x010F, typeASCII, uint32(len(makeBytes)), appendData(makeBytes))...)
	ifd0 = append(ifd0, entry(0x0110, typeASCII, uint32(len(modelBytes)), appendData(modelBytes))...)
	ifd0 = append(ifd0, entry(0x8769, typeLong, 1, exifOff)...)
	ifd0 = append(ifd0, 0, 0, 0, 0)

	sub := []byte{5, 0}
	sub = append(sub, entry(0x829A, typeRational, 1, appendData(rational(fx.exposure)))...)
	sub = append(sub, entry(0x829D, typeRational, 1, appendData(rational(fx.fnumber)))...)
	sub = append(sub, entry(0x8827, typeShort, 1, uint32(fx.iso))...)
	sub = append(sub, entry(0x9003, typeASCII, uint32(len(takenBytes)), appendData(takenBytes))...)
	sub = append(sub, entry(0x920A, typeRational, 1, appendData(rational(fx.focal)))...)
	sub = append(sub, 0, 0, 0, 0)

	out := []byte{'I', 'I', 0x2A, 0x00, ifd0Off, 0, 0, 0}
	out = append(out, ifd0...)
	out = append(out, sub...)
	out = append(out, data...)
	return out
}

// injectEXIF splices an APP1 EXIF segment into an encoded JPEG, right
// after the SOI marker.
func injectEXIF(t *testing.T, jpg, tif []byte) []byte {
	t.Helper()
	require.True(t, bytes.HasPrefix(jpg, []byte{0xFF, 0xD8}), "not a JPEG")

	payload := append([]byte("Exif\x00\x00"), tif...)
	seg := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))

	out := []byte{0xFF, 0xD8}
	out = append(out, seg...)
	out = append(out, payload...)
	out = append(out, jpg[2:]...)
	return out
}

// writeExifJPEG writes a decodable JPEG of the given size carrying the
// fixture's metadata.
func writeExifJPEG(t *testing.T, path string, w, h int, c color.RGBA, fx exifFixture) {
	t.Helper()
	jpg := encodeJPEG(t, testImage(w, h, c))
	writeFile(t, path, injectEXIF(t, jpg, buildExifTIFF(fx)))
}

// countInk counts pixels inside rect that are visibly darker than the
// canvas background.
func countInk(img image.Image, rect image.Rectangle) int {
	n := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r < 0x8000 && g < 0x8000 && b < 0x8000 {
				n++
			}
		}
	}
	return n
}
