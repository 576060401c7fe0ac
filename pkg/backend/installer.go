// Package backend installs a composed wallpaper on the running desktop.
package backend

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	"github.com/dixieflatline76/Canvaz/pkg/compositor"
	"github.com/dixieflatline76/Canvaz/util/log"
)

// Effect reports how far an install is known to have taken effect.
type Effect int

// Effects.
const (
	EffectNone      Effect = iota
	EffectRequested        // Handed to an external tool; outcome unknown
	EffectConfirmed        // The display server acknowledged the change
)

func (e Effect) String() string {
	switch e {
	case EffectRequested:
		return "requested"
	case EffectConfirmed:
		return "confirmed"
	default:
		return "none"
	}
}

var (
	// ErrPlatformUnavailable matches any *PlatformUnavailableError via errors.Is.
	ErrPlatformUnavailable = errors.New("display platform unavailable")
	// ErrUnsupportedDepth is returned for root windows that are not 24/32-bit TrueColor.
	ErrUnsupportedDepth = errors.New("unsupported root window depth")
	// ErrNoRaster is returned when the native backend is given nothing to draw.
	ErrNoRaster = errors.New("no raster to install")
)

// PlatformUnavailableError reports that the display server could not be reached.
type PlatformUnavailableError struct {
	Display string
	Err     error
}

func (e *PlatformUnavailableError) Error() string {
	return fmt.Sprintf("cannot open display %q: %v", e.Display, e.Err)
}

func (e *PlatformUnavailableError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrPlatformUnavailable) hold.
func (e *PlatformUnavailableError) Is(target error) bool {
	return target == ErrPlatformUnavailable
}

// scriptDesktops are desktops whose background is owned by a settings daemon
// rather than the root window.
var scriptDesktops = []string{"gnome", "unity", "cinnamon"}

// Capabilities describes the desktop session an Installer targets.
type Capabilities struct {
	DesktopID string // XDG_CURRENT_DESKTOP, or DESKTOP_SESSION when unset
	Display   string // X display name
}

// DetectCapabilities reads the session from the environment.
func DetectCapabilities() Capabilities {
	desktop := os.Getenv("XDG_CURRENT_DESKTOP")
	if desktop == "" {
		desktop = os.Getenv("DESKTOP_SESSION")
	}
	return Capabilities{DesktopID: desktop, Display: os.Getenv("DISPLAY")}
}

// UsesScript reports whether the desktop is driven through gsettings.
func (c Capabilities) UsesScript() bool {
	desktop := strings.ToLower(c.DesktopID)
	for _, d := range scriptDesktops {
		if strings.Contains(desktop, d) {
			return true
		}
	}
	return false
}

// Request is everything a backend may need. The native backend draws Raster
// with its top-left at Origin in root window coordinates; the script backend
// only looks at SourcePath, Policy and Fallback.
type Request struct {
	Raster     *image.RGBA
	Origin     image.Point
	SourcePath string
	Policy     compositor.ScalingPolicy
	Fallback   color.RGBA
}

// Backend installs a wallpaper one way.
type Backend interface {
	Name() string
	Install(ctx context.Context, req Request) (Effect, error)
}

// Installer picks a Backend from Capabilities and delegates to it.
type Installer struct {
	caps    Capabilities
	backend Backend
	runner  CommandRunner
}

// Option configures an Installer.
type Option func(*Installer)

// WithCommandRunner replaces the process launcher used by the script backend.
func WithCommandRunner(r CommandRunner) Option {
	return func(i *Installer) { i.runner = r }
}

// New selects the backend for caps.
func New(caps Capabilities, opts ...Option) *Installer {
	i := &Installer{caps: caps, runner: execRunner{}}
	for _, opt := range opts {
		opt(i)
	}
	if caps.UsesScript() {
		i.backend = &gsettingsBackend{run: i.runner}
	} else {
		i.backend = &x11Backend{display: caps.Display}
	}
	log.Debugf("Backend: desktop %q display %q -> %s", caps.DesktopID, caps.Display, i.backend.Name())
	return i
}

// Name returns the selected backend's name.
func (i *Installer) Name() string {
	return i.backend.Name()
}

// NeedsRaster reports whether Install draws a composed raster. The script
// backend only forwards a source path, so callers can skip composing.
func (i *Installer) NeedsRaster() bool {
	_, script := i.backend.(*gsettingsBackend)
	return !script
}

// Install hands req to the selected backend.
func (i *Installer) Install(ctx context.Context, req Request) (Effect, error) {
	effect, err := i.backend.Install(ctx, req)
	if err != nil {
		return effect, fmt.Errorf("%s backend: %w", i.backend.Name(), err)
	}
	return effect, nil
}
