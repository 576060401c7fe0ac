package backend

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/dixieflatline76/Canvaz/util/log"
)

// Root pixmap properties read by compositors and terminals for pseudo-transparency.
const (
	rootPixmapAtom     = "_XROOTPMAP_ID"
	esetrootPixmapAtom = "ESETROOT_PMAP_ID"
)

// putImageHeader is the fixed size of a PutImage request in bytes.
const putImageHeader = 24

// x11Backend paints the root window directly. The pixmap it leaves behind is
// kept alive after disconnect by RetainPermanent close-down mode.
type x11Backend struct {
	display string
}

func (x *x11Backend) Name() string {
	return "x11"
}

func (x *x11Backend) Install(ctx context.Context, req Request) (Effect, error) {
	if req.Raster == nil {
		return EffectNone, ErrNoRaster
	}
	if x.display == "" {
		return EffectNone, &PlatformUnavailableError{Err: errors.New("no display set")}
	}

	conn, err := xgb.NewConnDisplay(x.display)
	if err != nil {
		return EffectNone, &PlatformUnavailableError{Display: x.display, Err: err}
	}
	defer conn.Close()

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)
	if err := checkVisual(setup, screen); err != nil {
		return EffectNone, err
	}
	w, h := screen.WidthInPixels, screen.HeightInPixels
	root := screen.Root

	pix, err := xproto.NewPixmapId(conn)
	if err != nil {
		return EffectNone, fmt.Errorf("allocating pixmap id: %w", err)
	}
	if err := xproto.CreatePixmapChecked(conn, screen.RootDepth, pix, xproto.Drawable(root), w, h).Check(); err != nil {
		return EffectNone, fmt.Errorf("creating pixmap: %w", err)
	}

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		return EffectNone, fmt.Errorf("allocating gc id: %w", err)
	}
	pixel := allocPixel(conn, screen, req.Fallback)
	if err := xproto.CreateGCChecked(conn, gc, xproto.Drawable(pix), xproto.GcForeground, []uint32{pixel}).Check(); err != nil {
		return EffectNone, fmt.Errorf("creating gc: %w", err)
	}
	xproto.PolyFillRectangle(conn, xproto.Drawable(pix), gc, []xproto.Rectangle{{Width: w, Height: h}})

	screenRect := image.Rect(0, 0, int(w), int(h))
	msbFirst := setup.ImageByteOrder == xproto.ImageOrderMSBFirst
	maxBytes := int(setup.MaximumRequestLength)*4 - putImageHeader
	for _, chunk := range chunkRect(screenRect.Intersect(req.Raster.Rect.Add(req.Origin)), maxBytes) {
		if err := ctx.Err(); err != nil {
			return EffectNone, err
		}
		data := toZPixmap(req.Raster, chunk.Sub(req.Origin), msbFirst)
		err := xproto.PutImageChecked(conn, xproto.ImageFormatZPixmap, xproto.Drawable(pix), gc,
			uint16(chunk.Dx()), uint16(chunk.Dy()), int16(chunk.Min.X), int16(chunk.Min.Y),
			0, screen.RootDepth, data).Check()
		if err != nil {
			return EffectNone, fmt.Errorf("uploading image: %w", err)
		}
	}

	xproto.ChangeWindowAttributes(conn, root, xproto.CwBackPixmap, []uint32{uint32(pix)})
	xproto.ClearArea(conn, false, root, 0, 0, 0, 0)

	rootAtom, err := internAtom(conn, rootPixmapAtom)
	if err != nil {
		return EffectNone, err
	}
	esetAtom, err := internAtom(conn, esetrootPixmapAtom)
	if err != nil {
		return EffectNone, err
	}
	previous := rootPixmap(conn, root, rootAtom)
	previousEset := rootPixmap(conn, root, esetAtom)

	setRootPixmap(conn, root, rootAtom, pix)
	setRootPixmap(conn, root, esetAtom, pix)

	// Only a pixmap published under both names was left behind by a
	// setroot-style client, so only then is its owner safe to kill.
	if previous != 0 && previous == previousEset && previous != pix {
		log.Debugf("Backend: releasing previous root pixmap 0x%x", uint32(previous))
		xproto.KillClient(conn, uint32(previous))
	}

	xproto.SetCloseDownMode(conn, xproto.CloseDownRetainPermanent)
	xproto.FreeGC(conn, gc)
	if _, err := xproto.GetInputFocus(conn).Reply(); err != nil {
		return EffectNone, fmt.Errorf("flushing display: %w", err)
	}
	log.Debugf("Backend: root pixmap 0x%x installed (%dx%d)", uint32(pix), w, h)
	return EffectConfirmed, nil
}

// checkVisual accepts 24/32-bit TrueColor roots with 8-bit channels stored
// in 32-bit pixels.
func checkVisual(setup *xproto.SetupInfo, screen *xproto.ScreenInfo) error {
	if screen.RootDepth != 24 && screen.RootDepth != 32 {
		return fmt.Errorf("%w: %d", ErrUnsupportedDepth, screen.RootDepth)
	}
	bpp := 0
	for _, f := range setup.PixmapFormats {
		if f.Depth == screen.RootDepth {
			bpp = int(f.BitsPerPixel)
		}
	}
	if bpp != 32 {
		return fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedDepth, bpp)
	}
	for _, d := range screen.AllowedDepths {
		for _, v := range d.Visuals {
			if v.VisualId != screen.RootVisual {
				continue
			}
			if v.Class != xproto.VisualClassTrueColor || v.RedMask != 0xff0000 || v.GreenMask != 0xff00 || v.BlueMask != 0xff {
				return fmt.Errorf("%w: root visual class %d", ErrUnsupportedDepth, v.Class)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: root visual not found", ErrUnsupportedDepth)
}

// allocPixel allocates c in the default colormap. When allocation fails the
// screen's black or white pixel is used, whichever is nearer.
func allocPixel(conn *xgb.Conn, screen *xproto.ScreenInfo, c color.RGBA) uint32 {
	reply, err := xproto.AllocColor(conn, screen.DefaultColormap,
		uint16(c.R)*0x101, uint16(c.G)*0x101, uint16(c.B)*0x101).Reply()
	if err == nil {
		return reply.Pixel
	}
	log.Debugf("Backend: AllocColor failed: %v", err)
	if int(c.R)+int(c.G)+int(c.B) >= 3*0x80 {
		return screen.WhitePixel
	}
	return screen.BlackPixel
}

func internAtom(conn *xgb.Conn, name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("interning %s: %w", name, err)
	}
	return reply.Atom, nil
}

// rootPixmap returns the pixmap stored in prop on root, or 0.
func rootPixmap(conn *xgb.Conn, root xproto.Window, prop xproto.Atom) xproto.Pixmap {
	reply, err := xproto.GetProperty(conn, false, root, prop, xproto.AtomPixmap, 0, 1).Reply()
	if err != nil || reply.Format != 32 || len(reply.Value) < 4 {
		return 0
	}
	return xproto.Pixmap(xgb.Get32(reply.Value))
}

func setRootPixmap(conn *xgb.Conn, root xproto.Window, prop xproto.Atom, pix xproto.Pixmap) {
	buf := make([]byte, 4)
	xgb.Put32(buf, uint32(pix))
	xproto.ChangeProperty(conn, xproto.PropModeReplace, root, prop, xproto.AtomPixmap, 32, 1, buf)
}

// chunkRect splits r into bands whose 32bpp pixel data fits in maxBytes.
// Bands are full-width unless a single row is too large, in which case rows
// are split as well.
func chunkRect(r image.Rectangle, maxBytes int) []image.Rectangle {
	if r.Empty() || maxBytes < 4 {
		return nil
	}
	cols := min(r.Dx(), maxBytes/4)
	rows := max(1, maxBytes/(cols*4))

	var chunks []image.Rectangle
	for y := r.Min.Y; y < r.Max.Y; y += rows {
		for x := r.Min.X; x < r.Max.X; x += cols {
			chunks = append(chunks, image.Rect(x, y, min(x+cols, r.Max.X), min(y+rows, r.Max.Y)))
		}
	}
	return chunks
}

// toZPixmap packs the r region of src as 32-bit pixels 0x00RRGGBB in the
// server's byte order.
func toZPixmap(src *image.RGBA, r image.Rectangle, msbFirst bool) []byte {
	r = r.Intersect(src.Rect)
	out := make([]byte, 0, r.Dx()*r.Dy()*4)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := src.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			p := src.Pix[i : i+4 : i+4]
			if msbFirst {
				out = append(out, 0, p[0], p[1], p[2])
			} else {
				out = append(out, p[2], p[1], p[0], 0)
			}
			i += 4
		}
	}
	return out
}
