// Package decode turns wallpaper files into rasters, either at full
// resolution for compositing or pre-scaled for thumbnails.
package decode

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	// Register the formats imaging does not pull in on its own.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// SupportedExtensions lists the file extensions the decoder accepts, lower case and without the dot.
var SupportedExtensions = []string{"jpg", "jpeg", "png", "bmp", "svg", "webp"}

// DefaultSVGSize is the raster size used for SVGs that declare no view box.
const DefaultSVGSize = 1024

// MaxPixels bounds the size of a full-resolution decode (roughly a 16K x 16K image).
const MaxPixels = 16384 * 16384

// MaxThumbnailPixels bounds the source size accepted for a thumbnail. Raster
// thumbnails are decoded whole before fitting, so a scan skips anything
// larger than about 40 megapixels (160 MiB as RGBA).
const MaxThumbnailPixels = 40_000_000

var (
	// ErrUnsupportedFormat is returned for files whose extension is not recognized.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrTooLarge is returned when the header declares more pixels than the
	// limit for the requested decode.
	ErrTooLarge = errors.New("image exceeds pixel limit")
	// ErrEmptyImage is returned when the header declares a zero dimension.
	ErrEmptyImage = errors.New("image has no pixels")
)

// Decoder decodes image files. The zero value is not usable; call New.
type Decoder struct {
	filter      imaging.ResampleFilter
	thumbPixels int64
}

// New returns a Decoder that downscales thumbnails with the Lanczos filter.
func New() *Decoder {
	return NewWithFilter(imaging.Lanczos)
}

// NewWithFilter returns a Decoder that downscales thumbnails with filter.
func NewWithFilter(filter imaging.ResampleFilter) *Decoder {
	return &Decoder{filter: filter, thumbPixels: MaxThumbnailPixels}
}

// IsSupported reports whether path has one of SupportedExtensions, ignoring case.
func IsSupported(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func isSVG(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".svg")
}

// Decode reads path at its natural resolution. JPEG EXIF orientation is applied.
func (d *Decoder) Decode(path string) (image.Image, error) {
	if !IsSupported(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if isSVG(path) {
		return d.decodeSVG(path, image.Point{})
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	if _, err := readHeader(f, MaxPixels); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// DecodeThumbnail reads path scaled to fit within bound, preserving aspect
// ratio. Images already inside bound are returned at their natural size.
// SVGs are rasterized directly at the target size.
func (d *Decoder) DecodeThumbnail(path string, bound image.Point) (image.Image, error) {
	if bound.X <= 0 || bound.Y <= 0 {
		return nil, fmt.Errorf("invalid thumbnail bound %v", bound)
	}
	if !IsSupported(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if isSVG(path) {
		return d.decodeSVG(path, bound)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	if _, err := readHeader(f, d.thumbPixels); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	// Fit never upscales, and the full raster is dropped as soon as the
	// thumbnail exists.
	return imaging.Fit(img, bound.X, bound.Y, d.filter), nil
}

// readHeader validates the image header and rewinds r. Corrupt files and
// images over maxPixels are rejected here, before any pixel data is decoded.
func readHeader(r io.ReadSeeker, maxPixels int64) (image.Config, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return image.Config{}, fmt.Errorf("reading header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return image.Config{}, ErrEmptyImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return image.Config{}, ErrTooLarge
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return image.Config{}, fmt.Errorf("rewinding: %w", err)
	}
	return cfg, nil
}

// decodeSVG rasterizes an SVG. A zero bound renders at the view box size.
func (d *Decoder) decodeSVG(path string, bound image.Point) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	icon, err := oksvg.ReadIconStream(f, oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parsing svg %s: %w", path, err)
	}

	natural := image.Pt(int(math.Ceil(icon.ViewBox.W)), int(math.Ceil(icon.ViewBox.H)))
	if natural.X <= 0 || natural.Y <= 0 {
		natural = image.Pt(DefaultSVGSize, DefaultSVGSize)
	}
	size := natural
	if bound != (image.Point{}) {
		size = FitSize(natural, bound, false)
	}
	if int64(size.X)*int64(size.Y) > MaxPixels {
		return nil, fmt.Errorf("%s: %w", path, ErrTooLarge)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	icon.SetTarget(0, 0, float64(size.X), float64(size.Y))
	scanner := rasterx.NewScannerGV(size.X, size.Y, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(size.X, size.Y, scanner), 1.0)
	return rgba, nil
}

// FitSize returns the largest size with src's aspect ratio that fits inside
// bound. The constrained axis matches bound exactly. When upscale is false a
// src already inside bound is returned unchanged. Neither axis drops below 1.
func FitSize(src, bound image.Point, upscale bool) image.Point {
	if src.X <= 0 || src.Y <= 0 || bound.X <= 0 || bound.Y <= 0 {
		return image.Point{}
	}
	if !upscale && src.X <= bound.X && src.Y <= bound.Y {
		return src
	}
	// Compare bound.X/src.X against bound.Y/src.Y without floating point.
	if int64(bound.X)*int64(src.Y) <= int64(bound.Y)*int64(src.X) {
		h := int(math.Round(float64(src.Y) * float64(bound.X) / float64(src.X)))
		return image.Pt(bound.X, clamp(h, 1, bound.Y))
	}
	w := int(math.Round(float64(src.X) * float64(bound.Y) / float64(src.Y)))
	return image.Pt(clamp(w, 1, bound.X), bound.Y)
}

// FillSize returns the smallest size with src's aspect ratio that covers
// bound. The covering axis matches bound exactly and the other is at least
// as large as bound.
func FillSize(src, bound image.Point) image.Point {
	if src.X <= 0 || src.Y <= 0 || bound.X <= 0 || bound.Y <= 0 {
		return image.Point{}
	}
	if int64(bound.X)*int64(src.Y) >= int64(bound.Y)*int64(src.X) {
		h := int(math.Round(float64(src.Y) * float64(bound.X) / float64(src.X)))
		return image.Pt(bound.X, max(h, bound.Y))
	}
	w := int(math.Round(float64(src.X) * float64(bound.Y) / float64(src.Y)))
	return image.Pt(max(w, bound.X), bound.Y)
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
