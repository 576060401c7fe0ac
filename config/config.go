package config

import (
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
)

// Preference keys. The names match what earlier releases wrote so existing
// installs keep their state.
const (
	SearchPathsPrefKey   = "searchPaths"
	ColorRedPrefKey      = "colorR"
	ColorGreenPrefKey    = "colorG"
	ColorBluePrefKey     = "colorB"
	Screen1PathPrefKey   = "screen1Path"
	Screen2PathPrefKey   = "screen2Path"
	ScalingModePrefKey   = "scalingMode"
	MonitorConfigPrefKey = "monitorConfig"
	SmartCropPrefKey     = "smartCrop"
)

// Defaults applied when a key has never been written.
const (
	DefaultScalingMode   = "Zoomed Fill"
	DefaultMonitorConfig = "Both Screens"
)

// Settings is the persisted application state. It is a thin typed layer over
// fyne.Preferences; the preferences implementation owns the on-disk format.
type Settings struct {
	fyne.Preferences
	mu sync.Mutex
}

// NewSettings wraps the given preferences store.
func NewSettings(p fyne.Preferences) *Settings {
	return &Settings{Preferences: p}
}

// GetSearchPaths returns the configured wallpaper directories in order.
func (s *Settings) GetSearchPaths() []string {
	return slices.Clone(s.StringListWithFallback(SearchPathsPrefKey, []string{}))
}

// SetSearchPaths replaces the configured wallpaper directories.
func (s *Settings) SetSearchPaths(paths []string) {
	s.SetStringList(SearchPathsPrefKey, paths)
}

// AddSearchPath appends dir unless it is already present. It reports whether
// the list changed.
func (s *Settings) AddSearchPath(dir string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir = filepath.Clean(dir)
	paths := s.GetSearchPaths()
	if slices.Contains(paths, dir) {
		return false
	}
	s.SetSearchPaths(append(paths, dir))
	return true
}

// RemoveSearchPath removes dir by exact match. It reports whether the list changed.
func (s *Settings) RemoveSearchPath(dir string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := s.GetSearchPaths()
	idx := slices.Index(paths, filepath.Clean(dir))
	if idx < 0 {
		return false
	}
	s.SetSearchPaths(slices.Delete(paths, idx, idx+1))
	return true
}

// GetColor returns the fallback background color. Black when unset.
func (s *Settings) GetColor() color.RGBA {
	return color.RGBA{
		R: clampByte(s.IntWithFallback(ColorRedPrefKey, 0)),
		G: clampByte(s.IntWithFallback(ColorGreenPrefKey, 0)),
		B: clampByte(s.IntWithFallback(ColorBluePrefKey, 0)),
		A: 0xff,
	}
}

// SetColor stores the fallback background color. Alpha is ignored.
func (s *Settings) SetColor(c color.RGBA) {
	s.SetInt(ColorRedPrefKey, int(c.R))
	s.SetInt(ColorGreenPrefKey, int(c.G))
	s.SetInt(ColorBluePrefKey, int(c.B))
}

// GetScreenPaths returns the image paths assigned to the first two monitors.
// An empty string means the monitor shows the fallback color.
func (s *Settings) GetScreenPaths() (string, string) {
	return s.StringWithFallback(Screen1PathPrefKey, ""), s.StringWithFallback(Screen2PathPrefKey, "")
}

// SetScreenPaths stores the image paths for the first two monitors.
func (s *Settings) SetScreenPaths(screen1, screen2 string) {
	s.SetString(Screen1PathPrefKey, screen1)
	s.SetString(Screen2PathPrefKey, screen2)
}

// GetScalingMode returns the last used scaling policy label.
func (s *Settings) GetScalingMode() string {
	return s.StringWithFallback(ScalingModePrefKey, DefaultScalingMode)
}

// SetScalingMode stores the scaling policy label.
func (s *Settings) SetScalingMode(mode string) {
	s.SetString(ScalingModePrefKey, mode)
}

// GetMonitorConfig returns the last used monitor configuration label.
func (s *Settings) GetMonitorConfig() string {
	return s.StringWithFallback(MonitorConfigPrefKey, DefaultMonitorConfig)
}

// SetMonitorConfig stores the monitor configuration label.
func (s *Settings) SetMonitorConfig(cfg string) {
	s.SetString(MonitorConfigPrefKey, cfg)
}

// GetSmartCrop reports whether Zoomed Fill should pick its crop window by content.
func (s *Settings) GetSmartCrop() bool {
	return s.BoolWithFallback(SmartCropPrefKey, false)
}

// SetSmartCrop toggles content-aware cropping for Zoomed Fill.
func (s *Settings) SetSmartCrop(enabled bool) {
	s.SetBool(SmartCropPrefKey, enabled)
}

// GetPath returns the path to the user's application directory.
func GetPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "."+strings.ToLower(AppName))
	}
	return filepath.Join(homeDir, "."+strings.ToLower(AppName))
}

// GetCacheDir returns the directory downloaded wallpapers are written to.
func GetCacheDir() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(GetPath(), "cache")
	}
	return filepath.Join(cacheDir, CacheSubDir)
}

// GetPicturesDir returns the user's pictures directory, honoring XDG_PICTURES_DIR.
func GetPicturesDir() string {
	if dir := os.Getenv("XDG_PICTURES_DIR"); dir != "" {
		return dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(homeDir, "Pictures")
}

func clampByte(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 0xff:
		return 0xff
	default:
		return uint8(v)
	}
}
