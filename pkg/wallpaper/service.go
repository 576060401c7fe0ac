// Package wallpaper ties the settings, compositor and backend together into
// the apply and restore operations.
package wallpaper

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"slices"
	"sync"

	"github.com/dixieflatline76/Canvaz/config"
	"github.com/dixieflatline76/Canvaz/pkg/backend"
	"github.com/dixieflatline76/Canvaz/pkg/compositor"
	"github.com/dixieflatline76/Canvaz/pkg/display"
	"github.com/dixieflatline76/Canvaz/util/log"
)

// Composer builds the desktop raster. *compositor.Compositor satisfies it.
type Composer interface {
	Compose(ctx context.Context, layout display.Layout, a compositor.Assignment, policy compositor.ScalingPolicy, fallback color.RGBA, fullScreen bool) (*image.RGBA, []compositor.Warning)
}

// Installer puts a wallpaper on screen. *backend.Installer satisfies it.
type Installer interface {
	Install(ctx context.Context, req backend.Request) (backend.Effect, error)
	NeedsRaster() bool
}

// LayoutFunc returns the current monitor layout.
type LayoutFunc func() (display.Layout, error)

// Selection is one apply request from the user.
type Selection struct {
	Path    string // Image to show; empty selects color mode
	Monitor MonitorConfig
	Policy  compositor.ScalingPolicy
	Color   *color.RGBA // New fallback color; nil keeps the stored one
}

// ApplyResult is the outcome of Apply or Restore.
type ApplyResult struct {
	Effect   backend.Effect
	Warnings []compositor.Warning
}

// State is the persisted wallpaper state.
type State struct {
	Screen1 string
	Screen2 string
	Policy  compositor.ScalingPolicy
	Monitor MonitorConfig
	Color   color.RGBA
}

// Assignment maps the stored screen paths onto a layout of the given size:
// monitor 0 gets Screen1 and every other monitor gets Screen2.
func (st State) Assignment(monitors int) compositor.Assignment {
	a := compositor.Assignment{}
	if st.Screen1 != "" {
		a[0] = st.Screen1
	}
	if st.Screen2 != "" {
		// Monitors past the second share its image.
		for i := 1; i < max(monitors, 2); i++ {
			a[i] = st.Screen2
		}
	}
	return a
}

// Service applies and restores wallpapers. Calls are serialized.
type Service struct {
	settings  *config.Settings
	composer  Composer
	installer Installer
	layout    LayoutFunc
	mu        sync.Mutex
}

// NewService wires a Service.
func NewService(settings *config.Settings, composer Composer, installer Installer, layout LayoutFunc) *Service {
	return &Service{
		settings:  settings,
		composer:  composer,
		installer: installer,
		layout:    layout,
	}
}

// State returns the persisted state.
func (s *Service) State() State {
	s1, s2 := s.settings.GetScreenPaths()
	return State{
		Screen1: s1,
		Screen2: s2,
		Policy:  compositor.ParsePolicy(s.settings.GetScalingMode()),
		Monitor: ParseMonitorConfig(s.settings.GetMonitorConfig()),
		Color:   s.settings.GetColor(),
	}
}

// Apply records sel in the settings store and then installs the result.
// State is saved even when the install fails, so a later Restore retries it.
func (s *Service) Apply(ctx context.Context, sel Selection) (ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := sel.Path
	if path != "" {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	s1, s2 := s.settings.GetScreenPaths()
	s1, s2 = sel.Monitor.Assign(path, s1, s2)
	s.settings.SetScreenPaths(s1, s2)
	s.settings.SetScalingMode(sel.Policy.String())
	s.settings.SetMonitorConfig(sel.Monitor.String())
	if sel.Color != nil {
		s.settings.SetColor(*sel.Color)
	}
	log.Printf("Applying wallpaper: %q | %q mode %s, %s", s1, s2, sel.Policy, sel.Monitor)

	return s.install(ctx, s.State())
}

// Restore re-installs the persisted state, typically at login.
func (s *Service) Restore(ctx context.Context) (ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.State()
	log.Printf("Restoring wallpaper: %q | %q mode %s, %s", st.Screen1, st.Screen2, st.Policy, st.Monitor)
	return s.install(ctx, st)
}

func (s *Service) install(ctx context.Context, st State) (ApplyResult, error) {
	req := backend.Request{Policy: st.Policy, Fallback: st.Color}
	_, req.SourcePath, _ = st.Assignment(0).Source()

	var result ApplyResult
	if s.installer.NeedsRaster() {
		layout, err := s.layout()
		if err != nil {
			if errors.Is(err, display.ErrNoDisplay) {
				return result, &backend.PlatformUnavailableError{Err: err}
			}
			return result, fmt.Errorf("querying monitor layout: %w", err)
		}
		log.Debugf("Monitor layout: %s", layout)

		req.Raster, result.Warnings = s.composer.Compose(ctx, layout, st.Assignment(layout.Len()), st.Policy, st.Color, st.Monitor == FullScreen)
		req.Origin = layout.Bounds().Min
	}

	effect, err := s.installer.Install(ctx, req)
	result.Effect = effect
	if err != nil {
		return result, fmt.Errorf("installing wallpaper: %w", err)
	}
	return result, nil
}

// ScanRoots returns the directories a scan should walk: the configured
// search paths, or pictures when none are configured, always followed by
// the download cache. Duplicates are dropped.
func ScanRoots(configured []string, pictures, cache string) []string {
	roots := slices.Clone(configured)
	if len(roots) == 0 && pictures != "" {
		roots = append(roots, pictures)
	}
	if cache != "" {
		roots = append(roots, cache)
	}

	out := roots[:0]
	seen := make(map[string]bool, len(roots))
	for _, r := range roots {
		r = filepath.Clean(r)
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
