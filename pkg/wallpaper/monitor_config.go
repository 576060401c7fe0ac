package wallpaper

import (
	"fmt"
	"strings"
)

// MonitorConfig selects which monitors an apply touches.
type MonitorConfig int

// Monitor configurations.
const (
	Screen1     MonitorConfig = iota // Monitor 0 only
	Screen2                          // Monitor 1 only
	BothScreens                      // Monitors 0 and 1, each scaled on its own
	FullScreen                       // One image spanning the whole desktop
)

// String returns the UI label of a MonitorConfig.
func (m MonitorConfig) String() string {
	switch m {
	case Screen1:
		return "Screen 1"
	case Screen2:
		return "Screen 2"
	case BothScreens:
		return "Both Screens"
	case FullScreen:
		return "Full Screen"
	default:
		return "Unknown"
	}
}

// MonitorConfigs returns every configuration in UI order.
func MonitorConfigs() []MonitorConfig {
	return []MonitorConfig{Screen1, Screen2, BothScreens, FullScreen}
}

// GetMonitorConfigs returns every configuration as a fmt.Stringer.
func GetMonitorConfigs() []fmt.Stringer {
	configs := MonitorConfigs()
	stringers := make([]fmt.Stringer, len(configs))
	for i, m := range configs {
		stringers[i] = m
	}
	return stringers
}

// ParseMonitorConfig maps a UI label back to its configuration, ignoring case
// and spacing. Unknown labels behave as BothScreens.
func ParseMonitorConfig(label string) MonitorConfig {
	key := normalize(label)
	for _, m := range MonitorConfigs() {
		if normalize(m.String()) == key {
			return m
		}
	}
	return BothScreens
}

func normalize(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(s))
}

// Assign applies path to the slots m covers and returns the new pair. An
// empty path clears those slots instead.
func (m MonitorConfig) Assign(path, screen1, screen2 string) (string, string) {
	switch m {
	case Screen1:
		return path, screen2
	case Screen2:
		return screen1, path
	default:
		return path, path
	}
}
