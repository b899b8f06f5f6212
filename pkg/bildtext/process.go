package bildtext

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"k8s.io/klog/v2"

	_ "golang.org/x/image/webp"
)

const defaultQuality = 92

// Annotate renders the info bar onto an already decoded image using
// already extracted metadata. Everything else in the pipeline funnels
// through here.
func Annotate(src image.Image, raw RawTags, opts *Options) (*image.RGBA, error) {
	info := Normalize(raw)

	logo, err := ResolveLogo(info.Make, opts.LogoPath)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	l, err := PlanLayout(b.Dx(), b.Dy(), info, logo, opts)
	if err != nil {
		return nil, err
	}

	return Render(src, logo, l)
}

// ProcessFile annotates a single image and writes the result to
// outPath, creating parent directories as needed.
func ProcessFile(inPath, outPath string, opts *Options) error {
	r, err := NewTagReader(opts)
	if err != nil {
		return err
	}
	defer r.Close()

	return processFile(r, inPath, outPath, opts)
}

func processFile(r TagReader, inPath, outPath string, opts *Options) error {
	klog.V(1).Infof("annotating %s -> %s", inPath, outPath)

	img, err := imgio.Open(inPath)
	if err != nil {
		return fmt.Errorf("imgio.Open: %w", err)
	}

	raw, err := r.ReadTags(inPath)
	if err != nil {
		// Unreadable metadata degrades to an empty bar.
		klog.Warningf("unable to read tags for %s: %v", inPath, err)
		raw = RawTags{}
	}

	out, err := Annotate(img, raw, opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	return save(outPath, out, opts)
}

func save(path string, img image.Image, opts *Options) error {
	q := opts.Quality
	if q <= 0 {
		q = defaultQuality
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return imgio.Save(path, img, imgio.PNGEncoder())
	default:
		return imgio.Save(path, img, imgio.JPEGEncoder(q))
	}
}
