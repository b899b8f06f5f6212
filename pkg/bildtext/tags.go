package bildtext

import (
	"fmt"
	"os"

	exiftool "github.com/barasher/go-exiftool"
	"github.com/pkg/errors"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"
	"k8s.io/klog/v2"
)

func init() {
	exif.RegisterParsers(mknote.All...)
}

// RawTags maps metadata tag names to their values as decoded from the
// file. Values may retain the decoder's quoting; normalization strips it.
type RawTags map[string]string

// A TagReader extracts metadata tags from an image file.
type TagReader interface {
	ReadTags(path string) (RawTags, error)
	Close() error
}

// NewTagReader returns the configured metadata backend. The default
// decodes EXIF in-process; exiftool covers formats it cannot parse.
func NewTagReader(opts *Options) (TagReader, error) {
	if opts.UseExiftool {
		return newExiftoolReader()
	}
	return &exifReader{}, nil
}

type exifReader struct{}

func (r *exifReader) ReadTags(path string) (RawTags, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		// A photo without a metadata block still renders, it just
		// gets an empty bar.
		klog.V(1).Infof("no exif in %s: %v", path, err)
		return RawTags{}, nil
	}

	tags := RawTags{}
	if err := x.Walk(tagWalker(tags)); err != nil {
		return nil, errors.Wrap(err, "walk exif")
	}
	return tags, nil
}

func (r *exifReader) Close() error { return nil }

// tagWalker collects every decoded field into a RawTags map.
type tagWalker RawTags

func (w tagWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	w[string(name)] = tag.String()
	return nil
}

type exiftoolReader struct {
	et *exiftool.Exiftool
}

func newExiftoolReader() (*exiftoolReader, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, errors.Wrap(err, "start exiftool")
	}
	return &exiftoolReader{et: et}, nil
}

func (r *exiftoolReader) ReadTags(path string) (RawTags, error) {
	fis := r.et.ExtractMetadata(path)
	fi := fis[0]
	if fi.Err != nil {
		return nil, errors.Wrapf(fi.Err, "extract fail for %q", path)
	}

	tags := RawTags{}
	for k, v := range fi.Fields {
		klog.V(2).Infof("%q=%v", k, v)
		tags[k] = fmt.Sprintf("%v", v)
	}
	return tags, nil
}

func (r *exiftoolReader) Close() error {
	return r.et.Close()
}
