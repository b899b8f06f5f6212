package bildtext

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"k8s.io/klog/v2"
)

var exifDate = "2006:01:02 15:04:05"

// ShotInfo is the normalized shooting metadata for one photo. Zero
// values mark fields that were absent; rendering leaves their slot
// empty rather than inventing a placeholder.
type ShotInfo struct {
	Make  string
	Model string

	Aperture    float64
	Shutter     string
	ISO         int64
	FocalLength string
	Taken       time.Time
}

// fieldAliases lists the tag names to try, in order, for each logical
// field. Both EXIF names and exiftool's humanized names appear so that
// either metadata backend feeds the same lookup.
type fieldAliases struct {
	Shutter  []string
	Aperture []string
	ISO      []string
	Focal    []string
	Taken    []string
}

var standardAliases = fieldAliases{
	Shutter:  []string{"ExposureTime", "ShutterSpeed", "ShutterSpeedValue"},
	Aperture: []string{"FNumber", "Aperture", "ApertureValue"},
	ISO:      []string{"ISO", "ISOSpeedRatings", "PhotographicSensitivity"},
	Focal:    []string{"FocalLength"},
	Taken:    []string{"DateTimeOriginal", "CreateDate", "DateTime"},
}

// brandAliases overrides the standard order for makes whose firmware
// fills nonstandard or duplicate tags. Unset fields fall back to the
// standard list.
var brandAliases = map[string]fieldAliases{
	"canon":     {Shutter: []string{"ExposureTime", "ShutterSpeedValue"}},
	"nikon":     {ISO: []string{"ISOSpeedRatings", "ISO", "ISOSpeed"}},
	"sony":      {Aperture: []string{"FNumber", "Aperture", "ApertureValue", "MaxApertureValue"}},
	"fujifilm":  {Taken: []string{"DateTimeOriginal", "DateTimeDigitized", "DateTime"}},
	"panasonic": {ISO: []string{"ISO", "ISOSpeedRatings", "PhotographicSensitivity"}},
}

func aliasesFor(brand string) fieldAliases {
	al := standardAliases
	o, ok := brandAliases[brand]
	if !ok {
		return al
	}
	if len(o.Shutter) > 0 {
		al.Shutter = o.Shutter
	}
	if len(o.Aperture) > 0 {
		al.Aperture = o.Aperture
	}
	if len(o.ISO) > 0 {
		al.ISO = o.ISO
	}
	if len(o.Focal) > 0 {
		al.Focal = o.Focal
	}
	if len(o.Taken) > 0 {
		al.Taken = o.Taken
	}
	return al
}

// Normalize reduces a raw tag map to the fields the bar can render.
// Missing or malformed tags never fail; the matching field simply
// stays at its zero value.
func Normalize(raw RawTags) ShotInfo {
	info := ShotInfo{
		Make:  cleanTag(raw["Make"]),
		Model: cleanTag(raw["Model"]),
	}

	al := aliasesFor(canonicalBrand(info.Make))

	if name, v := firstTag(raw, al.Shutter); v != "" {
		info.Shutter = normalizeShutter(name, v)
	}

	if name, v := firstTag(raw, al.Aperture); v != "" {
		f, err := parseRational(v)
		switch {
		case err != nil:
			klog.V(1).Infof("unparseable aperture %q: %v", v, err)
		case name == "ApertureValue" || name == "MaxApertureValue":
			// APEX: Av = 2*log2(N)
			info.Aperture = math.Pow(2, f/2)
		default:
			info.Aperture = f
		}
	}

	if _, v := firstTag(raw, al.ISO); v != "" {
		v, _, _ = strings.Cut(v, ",")
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			klog.V(1).Infof("unparseable ISO %q: %v", v, err)
		} else {
			info.ISO = n
		}
	}

	if _, v := firstTag(raw, al.Focal); v != "" {
		info.FocalLength = normalizeFocal(v)
	}

	if _, v := firstTag(raw, al.Taken); v != "" {
		t, err := time.Parse(exifDate, clipDate(v))
		if err != nil {
			klog.V(1).Infof("unparseable date %q: %v", v, err)
		} else {
			info.Taken = t
		}
	}

	return info
}

// CameraLine is the first bar line: make followed by model, unless the
// model already leads with the make.
func (s ShotInfo) CameraLine() string {
	switch {
	case s.Model == "":
		return s.Make
	case s.Make == "":
		return s.Model
	case strings.HasPrefix(strings.ToLower(s.Model), firstWord(strings.ToLower(s.Make))):
		return s.Model
	}
	return s.Make + " " + s.Model
}

// SettingsLine is the second bar line: the non-empty exposure fields
// joined by single spaces.
func (s ShotInfo) SettingsLine() string {
	parts := []string{}
	if s.Aperture > 0 {
		parts = append(parts, fmt.Sprintf("f/%.1f", s.Aperture))
	}
	if s.Shutter != "" {
		parts = append(parts, s.Shutter)
	}
	if s.ISO > 0 {
		parts = append(parts, fmt.Sprintf("ISO%d", s.ISO))
	}
	if s.FocalLength != "" {
		parts = append(parts, s.FocalLength)
	}
	if !s.Taken.IsZero() {
		parts = append(parts, s.Taken.Format("2006-01-02 15:04"))
	}
	return strings.Join(parts, " ")
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func firstTag(raw RawTags, names []string) (string, string) {
	for _, n := range names {
		if v := cleanTag(raw[n]); v != "" {
			return n, v
		}
	}
	return "", ""
}

// cleanTag strips decoder quoting and whitespace, and drops the
// placeholder values some firmware writes for unset fields.
func cleanTag(v string) string {
	v = strings.TrimSpace(strings.Trim(strings.TrimSpace(v), `"`))
	switch strings.ToLower(v) {
	case "unknown", "n/a", "none":
		return ""
	}
	return v
}

// parseRational reads EXIF rational or decimal notation.
func parseRational(v string) (float64, error) {
	if num, den, ok := strings.Cut(v, "/"); ok {
		n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil {
			return 0, err
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err != nil {
			return 0, err
		}
		if d == 0 {
			return 0, fmt.Errorf("zero denominator in %q", v)
		}
		return n / d, nil
	}
	return strconv.ParseFloat(v, 64)
}

// normalizeShutter renders exposure time in photographic notation,
// converting APEX-encoded values where needed.
func normalizeShutter(name, v string) string {
	if name == "ShutterSpeedValue" {
		f, err := parseRational(v)
		if err != nil {
			klog.V(1).Infof("unparseable shutter %q: %v", v, err)
			return ""
		}
		// APEX: Tv = -log2(t)
		return rationalizeSeconds(math.Pow(2, -f))
	}

	if num, den, ok := splitRational(v); ok {
		if num == 1 {
			return fmt.Sprintf("1/%d", den)
		}
		return fmt.Sprintf("%d/%d", num, den)
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		klog.V(1).Infof("unparseable shutter %q: %v", v, err)
		return ""
	}
	return rationalizeSeconds(f)
}

func splitRational(v string) (int64, int64, bool) {
	num, den, ok := strings.Cut(v, "/")
	if !ok {
		return 0, 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	d, err := strconv.ParseInt(strings.TrimSpace(den), 10, 64)
	if err != nil || d == 0 {
		return 0, 0, false
	}
	return n, d, true
}

// rationalizeSeconds converts a decimal exposure to 1/n notation below
// one second and n/1 above. Cameras write exposures between a
// microsecond and a day; values outside that range are corrupt tags
// and degrade to absent.
func rationalizeSeconds(t float64) string {
	if math.IsNaN(t) || t < 1e-6 || t > 86400 {
		return ""
	}
	if t < 1 {
		return fmt.Sprintf("1/%d", int64(math.Round(1/t)))
	}
	return fmt.Sprintf("%d/1", int64(math.Round(t)))
}

// normalizeFocal formats focal length as millimeters, dropping a
// trailing .0 the way camera displays do.
func normalizeFocal(v string) string {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "mm"))
	f, err := parseRational(v)
	if err != nil {
		klog.V(1).Infof("unparseable focal length %q: %v", v, err)
		return ""
	}
	if f <= 0 {
		return ""
	}
	s := fmt.Sprintf("%.1f", f)
	s = strings.ReplaceAll(s, ".0", "")
	return s + "mm"
}

// clipDate trims subsecond and timezone suffixes off EXIF timestamps.
func clipDate(v string) string {
	if len(v) > len(exifDate) {
		return v[:len(exifDate)]
	}
	return v
}
