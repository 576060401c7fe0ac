package config

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// MockPreferences implements fyne.Preferences for testing
type MockPreferences struct {
	data map[string]interface{}
}

func NewMockPreferences() *MockPreferences {
	return &MockPreferences{
		data: make(map[string]interface{}),
	}
}

func get[T any](m *MockPreferences, key string, fallback T) T {
	val, ok := m.data[key]
	if !ok {
		return fallback
	}
	return val.(T)
}

func (m *MockPreferences) Bool(key string) bool { return get(m, key, false) }
func (m *MockPreferences) BoolWithFallback(key string, fallback bool) bool {
	return get(m, key, fallback)
}
func (m *MockPreferences) SetBool(key string, value bool) { m.data[key] = value }

func (m *MockPreferences) BoolList(key string) []bool { return get[[]bool](m, key, nil) }
func (m *MockPreferences) BoolListWithFallback(key string, fallback []bool) []bool {
	return get(m, key, fallback)
}
func (m *MockPreferences) SetBoolList(key string, value []bool) { m.data[key] = value }

func (m *MockPreferences) Float(key string) float64 { return get(m, key, 0.0) }
func (m *MockPreferences) FloatWithFallback(key string, fallback float64) float64 {
	return get(m, key, fallback)
}
func (m *MockPreferences) SetFloat(key string, value float64) { m.data[key] = value }

func (m *MockPreferences) FloatList(key string) []float64 { return get[[]float64](m, key, nil) }
func (m *MockPreferences) FloatListWithFallback(key string, fallback []float64) []float64 {
	return get(m, key, fallback)
}
func (m *MockPreferences) SetFloatList(key string, value []float64) { m.data[key] = value }

func (m *MockPreferences) Int(key string) int { return get(m, key, 0) }
func (m *MockPreferences) IntWithFallback(key string, fallback int) int {
	return get(m, key, fallback)
}
func (m *MockPreferences) SetInt(key string, value int) { m.data[key] = value }

func (m *MockPreferences) IntList(key string) []int { return get[[]int](m, key, nil) }
func (m *MockPreferences) IntListWithFallback(key string, fallback []int) []int {
	return get(m, key, fallback)
}
func (m *MockPreferences) SetIntList(key string, value []int) { m.data[key] = value }

func (m *MockPreferences) String(key string) string { return get(m, key, "") }
func (m *MockPreferences) StringWithFallback(key string, fallback string) string {
	return get(m, key, fallback)
}
func (m *MockPreferences) SetString(key string, value string) { m.data[key] = value }

func (m *MockPreferences) StringList(key string) []string { return get[[]string](m, key, nil) }
func (m *MockPreferences) StringListWithFallback(key string, fallback []string) []string {
	return get(m, key, fallback)
}
func (m *MockPreferences) SetStringList(key string, value []string) { m.data[key] = value }

func (m *MockPreferences) RemoveValue(key string) { delete(m.data, key) }

func (m *MockPreferences) AddChangeListener(func()) {}

func (m *MockPreferences) ChangeListeners() []func() { return nil }

func TestSettingsDefaults(t *testing.T) {
	s := NewSettings(NewMockPreferences())

	assert.Empty(t, s.GetSearchPaths())
	assert.Equal(t, color.RGBA{A: 0xff}, s.GetColor())
	p1, p2 := s.GetScreenPaths()
	assert.Empty(t, p1)
	assert.Empty(t, p2)
	assert.Equal(t, "Zoomed Fill", s.GetScalingMode())
	assert.Equal(t, "Both Screens", s.GetMonitorConfig())
	assert.False(t, s.GetSmartCrop())
}

func TestSettingsRoundTrip(t *testing.T) {
	prefs := NewMockPreferences()
	s := NewSettings(prefs)

	s.SetColor(color.RGBA{R: 10, G: 20, B: 30, A: 0})
	s.SetScreenPaths("/a.jpg", "")
	s.SetScalingMode("Centered")
	s.SetMonitorConfig("Full Screen")
	s.SetSmartCrop(true)

	// The raw keys are what older installs wrote.
	assert.Equal(t, 10, prefs.Int("colorR"))
	assert.Equal(t, 20, prefs.Int("colorG"))
	assert.Equal(t, 30, prefs.Int("colorB"))
	assert.Equal(t, "/a.jpg", prefs.String("screen1Path"))

	reloaded := NewSettings(prefs)
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 0xff}, reloaded.GetColor())
	p1, p2 := reloaded.GetScreenPaths()
	assert.Equal(t, "/a.jpg", p1)
	assert.Empty(t, p2)
	assert.Equal(t, "Centered", reloaded.GetScalingMode())
	assert.Equal(t, "Full Screen", reloaded.GetMonitorConfig())
	assert.True(t, reloaded.GetSmartCrop())
}

func TestSettingsColorClamp(t *testing.T) {
	prefs := NewMockPreferences()
	prefs.SetInt(ColorRedPrefKey, 300)
	prefs.SetInt(ColorGreenPrefKey, -4)
	prefs.SetInt(ColorBluePrefKey, 128)

	assert.Equal(t, color.RGBA{R: 255, G: 0, B: 128, A: 255}, NewSettings(prefs).GetColor())
}

func TestSearchPaths(t *testing.T) {
	s := NewSettings(NewMockPreferences())
	dirA := filepath.Join("home", "me", "Pictures")
	dirB := filepath.Join("srv", "walls")

	assert.True(t, s.AddSearchPath(dirA))
	assert.True(t, s.AddSearchPath(dirB+string(filepath.Separator)))
	assert.False(t, s.AddSearchPath(dirA), "duplicates are rejected")
	assert.Equal(t, []string{dirA, dirB}, s.GetSearchPaths())

	assert.False(t, s.RemoveSearchPath(filepath.Join("nope")))
	assert.True(t, s.RemoveSearchPath(dirA))
	assert.Equal(t, []string{dirB}, s.GetSearchPaths())
}

func TestGetPicturesDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_PICTURES_DIR", "/data/pics")
	assert.Equal(t, "/data/pics", GetPicturesDir())
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#123456", color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff}, false},
		{"ff8000", color.RGBA{R: 0xff, G: 0x80, A: 0xff}, false},
		{"#fff", color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, false},
		{" #000000 ", color.RGBA{A: 0xff}, false},
		{"#12345", color.RGBA{}, true},
		{"#12345g", color.RGBA{}, true},
		{"", color.RGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	assert.Equal(t, "#0a0b0c", FormatColor(color.RGBA{R: 10, G: 11, B: 12}))
}
