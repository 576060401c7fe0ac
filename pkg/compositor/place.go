package compositor

import (
	"image"

	"github.com/dixieflatline76/Canvaz/pkg/decode"
)

// Placement is where a source lands inside a target of a given size, in
// coordinates relative to the target's top-left.
type Placement struct {
	Size   image.Point // Rendered source size
	Offset image.Point // Top-left of the rendered source; negative when cropped
	Tile   bool        // Repeat Size from Offset across the target
}

// Rect returns the rendered source rectangle relative to the target.
func (p Placement) Rect() image.Rectangle {
	return image.Rectangle{Min: p.Offset, Max: p.Offset.Add(p.Size)}
}

// Place computes the placement of a src-sized image in a dst-sized target.
// A zero Placement is returned when either size is empty.
func Place(policy ScalingPolicy, src, dst image.Point) Placement {
	if src.X <= 0 || src.Y <= 0 || dst.X <= 0 || dst.Y <= 0 {
		return Placement{}
	}
	switch policy {
	case Scaled:
		return Placement{Size: dst}
	case Centered:
		return Placement{Size: src, Offset: centerIn(src, dst)}
	case Tiled:
		return Placement{Size: src, Tile: true}
	case ZoomedFill:
		size := decode.FillSize(src, dst)
		return Placement{Size: size, Offset: centerIn(size, dst)}
	default: // Automatic, Zoomed
		size := decode.FitSize(src, dst, true)
		return Placement{Size: size, Offset: centerIn(size, dst)}
	}
}

// centerIn returns the offset centering size in dst. Go integer division
// truncates toward zero, so an oversized source is shifted by half the excess.
func centerIn(size, dst image.Point) image.Point {
	return image.Pt((dst.X-size.X)/2, (dst.Y-size.Y)/2)
}
