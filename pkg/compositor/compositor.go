// Package compositor paints per-monitor wallpapers into one raster covering
// the whole virtual desktop.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/dixieflatline76/Canvaz/pkg/display"
	"github.com/dixieflatline76/Canvaz/util/log"
	"github.com/muesli/smartcrop"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of sources decoded at once.
const DefaultConcurrency = 2

// ErrEmptySource is reported for a decoded image with no pixels.
var ErrEmptySource = errors.New("source image is empty")

// Decoder reads a source at full resolution. *decode.Decoder satisfies it.
type Decoder interface {
	Decode(path string) (image.Image, error)
}

// Assignment maps a monitor index to the image shown on it. A missing or
// empty entry leaves that monitor showing the fallback color.
type Assignment map[int]string

// Source returns the image used in full-screen mode: monitor 0's path if
// set, otherwise the first non-empty path by monitor index.
func (a Assignment) Source() (int, string, bool) {
	if p := a[0]; p != "" {
		return 0, p, true
	}
	ids := make([]int, 0, len(a))
	for id, p := range a {
		if p != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, "", false
	}
	sort.Ints(ids)
	return ids[0], a[ids[0]], true
}

// Warning records a target that could not be painted and kept the fallback color.
type Warning struct {
	MonitorID int
	Path      string
	Err       error
}

func (w Warning) Error() string {
	return fmt.Sprintf("monitor %d: %s: %v", w.MonitorID, w.Path, w.Err)
}

func (w Warning) Unwrap() error {
	return w.Err
}

// Compositor builds desktop rasters. It holds no per-call state and is safe
// for concurrent use.
type Compositor struct {
	dec         Decoder
	filter      imaging.ResampleFilter
	smartCrop   bool
	concurrency int
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithFilter sets the resampling filter used for scaling.
func WithFilter(filter imaging.ResampleFilter) Option {
	return func(c *Compositor) { c.filter = filter }
}

// WithSmartCrop makes ZoomedFill pick its crop window by content instead of
// cropping around the center.
func WithSmartCrop(enabled bool) Option {
	return func(c *Compositor) { c.smartCrop = enabled }
}

// WithConcurrency bounds how many sources are decoded in parallel.
func WithConcurrency(n int) Option {
	return func(c *Compositor) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// New creates a Compositor reading sources through dec.
func New(dec Decoder, opts ...Option) *Compositor {
	c := &Compositor{
		dec:         dec,
		filter:      imaging.Lanczos,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// target is one rectangle of the raster and the source painted into it.
type target struct {
	id   int
	rect image.Rectangle // Raster coordinates
	path string

	img       image.Image
	placement Placement
	err       error
}

// Compose returns a raster the size of the layout's bounding box, with the
// box's top-left at (0,0). Every pixel starts as fallback. In full-screen
// mode the whole box is a single target; otherwise each monitor with an
// assigned path is painted in index order, so later monitors win where
// rectangles overlap. Targets that fail to decode keep the fallback color
// and are reported as warnings.
func (c *Compositor) Compose(ctx context.Context, layout display.Layout, a Assignment, policy ScalingPolicy, fallback color.RGBA, fullScreen bool) (*image.RGBA, []Warning) {
	bounds := layout.Bounds()
	raster := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	fallback.A = 0xff
	draw.Draw(raster, raster.Bounds(), image.NewUniform(fallback), image.Point{}, draw.Src)

	targets := c.targets(layout, a, fullScreen)
	if len(targets) == 0 {
		return raster, nil
	}

	c.prepare(ctx, targets, policy)

	var warnings []Warning
	for _, t := range targets {
		if t.err != nil {
			log.Printf("Compositor: monitor %d keeps fallback color: %v", t.id, t.err)
			warnings = append(warnings, Warning{MonitorID: t.id, Path: t.path, Err: t.err})
			continue
		}
		paint(raster, t.rect, t.img, t.placement)
	}
	return raster, warnings
}

func (c *Compositor) targets(layout display.Layout, a Assignment, fullScreen bool) []*target {
	origin := layout.Bounds().Min

	if fullScreen {
		id, path, ok := a.Source()
		if !ok || layout.Bounds().Empty() {
			return nil
		}
		return []*target{{id: id, rect: layout.Bounds().Sub(origin), path: path}}
	}

	var targets []*target
	for _, m := range layout.Monitors() {
		path := a[m.ID]
		if path == "" || m.Rect.Empty() {
			continue
		}
		targets = append(targets, &target{id: m.ID, rect: m.Rect.Sub(origin), path: path})
	}
	return targets
}

// prepare decodes and scales every target's source. Each goroutine writes
// only its own target.
func (c *Compositor) prepare(ctx context.Context, targets []*target, policy ScalingPolicy) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, t := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				t.err = err
				return nil
			}
			src, err := c.dec.Decode(t.path)
			if err != nil {
				t.err = err
				return nil
			}
			t.img, t.placement, t.err = c.render(src, policy, t.rect.Size())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("Compositor: decode error: %v", err)
	}
}

// render scales src for a dst-sized target according to policy.
func (c *Compositor) render(src image.Image, policy ScalingPolicy, dst image.Point) (image.Image, Placement, error) {
	size := src.Bounds().Size()
	p := Place(policy, size, dst)
	if p.Size == (image.Point{}) {
		return nil, Placement{}, ErrEmptySource
	}

	if policy == ZoomedFill && c.smartCrop {
		img, err := c.smartFill(src, dst)
		if err == nil {
			return img, Placement{Size: dst}, nil
		}
		log.Debugf("Compositor: smart crop failed, cropping centered: %v", err)
	}

	if p.Size != size {
		return imaging.Resize(src, p.Size.X, p.Size.Y, c.filter), p, nil
	}
	return src, p, nil
}

// smartFill crops src to dst's aspect ratio around its most interesting
// region and scales the crop to exactly dst.
func (c *Compositor) smartFill(src image.Image, dst image.Point) (image.Image, error) {
	analyzer := smartcrop.NewAnalyzer(&resizer{resampler: c.filter})
	crop, err := analyzer.FindBestCrop(src, dst.X, dst.Y)
	if err != nil {
		return nil, fmt.Errorf("finding best crop: %w", err)
	}
	if crop.Empty() {
		return nil, ErrEmptySource
	}
	return imaging.Resize(imaging.Crop(src, crop), dst.X, dst.Y, c.filter), nil
}

// resizer implements smartcrop.Resizer on top of imaging.
type resizer struct {
	resampler imaging.ResampleFilter
}

func (r *resizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), r.resampler)
}

// paint draws img into rect of dst according to p, never touching pixels
// outside rect.
func paint(dst *image.RGBA, rect image.Rectangle, img image.Image, p Placement) {
	if !p.Tile {
		drawClipped(dst, rect, img, rect.Min.Add(p.Offset))
		return
	}
	for y := rect.Min.Y; y < rect.Max.Y; y += p.Size.Y {
		for x := rect.Min.X; x < rect.Max.X; x += p.Size.X {
			drawClipped(dst, rect, img, image.Pt(x, y))
		}
	}
}

func drawClipped(dst *image.RGBA, clip image.Rectangle, img image.Image, at image.Point) {
	b := img.Bounds()
	r := image.Rectangle{Min: at, Max: at.Add(b.Size())}.Intersect(clip)
	if r.Empty() {
		return
	}
	draw.Draw(dst, r, img, b.Min.Add(r.Min.Sub(at)), draw.Over)
}
