// Package display describes the monitor layout of the virtual desktop.
package display

import (
	"fmt"
	"image"
	"strings"
)

// Monitor represents a connected display
type Monitor struct {
	ID   int             // Index in the layout (0, 1, 2)
	Name string          // Server-side name when known
	Rect image.Rectangle // Position and size in virtual-desktop pixels
}

// Layout is an immutable snapshot of the monitors, in index order.
type Layout struct {
	monitors []Monitor
}

// NewLayout builds a layout from rectangles, assigning IDs in order.
// Empty rectangles are kept so monitor indices stay stable.
func NewLayout(rects ...image.Rectangle) Layout {
	monitors := make([]Monitor, len(rects))
	for i, r := range rects {
		monitors[i] = Monitor{ID: i, Rect: r.Canon()}
	}
	return Layout{monitors: monitors}
}

// Monitors returns a copy of the monitors in index order.
func (l Layout) Monitors() []Monitor {
	return append([]Monitor(nil), l.monitors...)
}

// Len returns the number of monitors.
func (l Layout) Len() int {
	return len(l.monitors)
}

// Monitor returns the monitor at index i.
func (l Layout) Monitor(i int) (Monitor, bool) {
	if i < 0 || i >= len(l.monitors) {
		return Monitor{}, false
	}
	return l.monitors[i], true
}

// Bounds returns the virtual desktop bounding box: the smallest rectangle
// containing every non-empty monitor.
func (l Layout) Bounds() image.Rectangle {
	var b image.Rectangle
	for _, m := range l.monitors {
		b = b.Union(m.Rect)
	}
	return b
}

// String renders the layout as "0:1920x1080+0+0 1:1280x1024+1920+0".
func (l Layout) String() string {
	parts := make([]string, len(l.monitors))
	for i, m := range l.monitors {
		parts[i] = fmt.Sprintf("%d:%dx%d+%d+%d", m.ID, m.Rect.Dx(), m.Rect.Dy(), m.Rect.Min.X, m.Rect.Min.Y)
	}
	return strings.Join(parts, " ")
}

// Resolution represents a unique display resolution and the monitors that use it.
type Resolution struct {
	Width, Height int
	Monitors      []int // List of Monitor IDs using this resolution
}

// UniqueResolutions groups the layout's monitors by size, in first-seen order.
func (l Layout) UniqueResolutions() []Resolution {
	grouped := make(map[image.Point]int)
	var unique []Resolution

	for _, m := range l.monitors {
		size := m.Rect.Size()
		if size.X <= 0 || size.Y <= 0 {
			continue
		}
		idx, ok := grouped[size]
		if !ok {
			idx = len(unique)
			grouped[size] = idx
			unique = append(unique, Resolution{Width: size.X, Height: size.Y})
		}
		unique[idx].Monitors = append(unique[idx].Monitors, m.ID)
	}
	return unique
}
