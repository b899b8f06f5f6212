// Package bildtext stamps photographs with an information bar derived
// from their shooting metadata: camera make and model, exposure
// settings, capture date, and an optional brand logo.
package bildtext

// Options holds configuration for an annotation run.
type Options struct {
	// BarHeight in pixels; <= 0 picks a height proportional to the image.
	BarHeight int
	Force16x9 bool
	LogoPath  string

	// Quality of JPEG output; <= 0 picks the default.
	Quality int

	// Workers caps batch concurrency; <= 0 picks the CPU count.
	Workers int

	// UseExiftool reads tags through an exiftool subprocess instead of
	// the built-in EXIF decoder.
	UseExiftool bool
	CopySkipped bool
}
