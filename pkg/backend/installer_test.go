package backend

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/dixieflatline76/Canvaz/pkg/compositor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRunner is a mock implementation of CommandRunner.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Start(name string, args ...string) error {
	return m.Called(name, args).Error(0)
}

func TestDetectCapabilities(t *testing.T) {
	t.Setenv("XDG_CURRENT_DESKTOP", "ubuntu:GNOME")
	t.Setenv("DESKTOP_SESSION", "ignored")
	t.Setenv("DISPLAY", ":1")
	assert.Equal(t, Capabilities{DesktopID: "ubuntu:GNOME", Display: ":1"}, DetectCapabilities())

	t.Setenv("XDG_CURRENT_DESKTOP", "")
	assert.Equal(t, "ignored", DetectCapabilities().DesktopID)
}

func TestBackendSelection(t *testing.T) {
	tests := []struct {
		desktop string
		want    string
	}{
		{"GNOME", "gsettings"},
		{"ubuntu:GNOME", "gsettings"},
		{"Unity", "gsettings"},
		{"X-Cinnamon", "gsettings"},
		{"XFCE", "x11"},
		{"i3", "x11"},
		{"", "x11"},
	}
	for _, tt := range tests {
		t.Run(tt.desktop, func(t *testing.T) {
			inst := New(Capabilities{DesktopID: tt.desktop, Display: ":0"})
			assert.Equal(t, tt.want, inst.Name())
			assert.Equal(t, tt.want == "x11", inst.NeedsRaster())
		})
	}
}

func TestGsettingsImageMode(t *testing.T) {
	runner := new(MockRunner)
	schema := "org.gnome.desktop.background"
	runner.On("Start", "gsettings", []string{"set", schema, "picture-uri", "file:///home/u/Pictures/a%20b.jpg"}).Return(nil).Once()
	runner.On("Start", "gsettings", []string{"set", schema, "picture-uri-dark", "file:///home/u/Pictures/a%20b.jpg"}).Return(nil).Once()
	runner.On("Start", "gsettings", []string{"set", schema, "picture-options", "wallpaper"}).Return(nil).Once()

	inst := New(Capabilities{DesktopID: "GNOME"}, WithCommandRunner(runner))
	effect, err := inst.Install(context.Background(), Request{
		SourcePath: "/home/u/Pictures/a b.jpg",
		Policy:     compositor.Tiled,
	})
	require.NoError(t, err)
	assert.Equal(t, EffectRequested, effect)
	runner.AssertExpectations(t)
}

func TestGsettingsURIEscaping(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/home/u/walls/plain.png", "file:///home/u/walls/plain.png"},
		{"/home/u/my walls/a b.jpg", "file:///home/u/my%20walls/a%20b.jpg"},
		{"/home/u/walls/#1.png", "file:///home/u/walls/%231.png"},
		{"/home/u/walls/100%.png", "file:///home/u/walls/100%25.png"},
		{"/home/u/walls/what?.png", "file:///home/u/walls/what%3F.png"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			cmds := gsettingsCommands(Request{SourcePath: tt.path})
			require.Len(t, cmds, 3)
			assert.Equal(t, tt.want, cmds[0][3])
			assert.Equal(t, tt.want, cmds[1][3])
		})
	}
}

func TestGsettingsColorMode(t *testing.T) {
	runner := new(MockRunner)
	schema := "org.gnome.desktop.background"
	runner.On("Start", "gsettings", []string{"set", schema, "picture-uri", ""}).Return(nil).Once()
	runner.On("Start", "gsettings", []string{"set", schema, "picture-uri-dark", ""}).Return(nil).Once()
	runner.On("Start", "gsettings", []string{"set", schema, "primary-color", "#1a2b3c"}).Return(nil).Once()
	runner.On("Start", "gsettings", []string{"set", schema, "color-shading-type", "solid"}).Return(nil).Once()

	inst := New(Capabilities{DesktopID: "Unity"}, WithCommandRunner(runner))
	effect, err := inst.Install(context.Background(), Request{Fallback: color.RGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 0xff}})
	require.NoError(t, err)
	assert.Equal(t, EffectRequested, effect)
	runner.AssertExpectations(t)
}

func TestGsettingsStartFailureIsNotFatal(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Start", "gsettings", mock.Anything).Return(errors.New("executable file not found"))

	inst := New(Capabilities{DesktopID: "GNOME"}, WithCommandRunner(runner))
	effect, err := inst.Install(context.Background(), Request{SourcePath: "/a.png"})
	assert.NoError(t, err)
	assert.Equal(t, EffectRequested, effect)
	runner.AssertNumberOfCalls(t, "Start", 3)
}

func TestPictureOption(t *testing.T) {
	want := map[compositor.ScalingPolicy]string{
		compositor.Automatic:  "zoom",
		compositor.Scaled:     "scaled",
		compositor.Centered:   "centered",
		compositor.Tiled:      "wallpaper",
		compositor.Zoomed:     "zoom",
		compositor.ZoomedFill: "zoom",
	}
	for p, kw := range want {
		assert.Equal(t, kw, PictureOption(p), p.String())
	}
}

func TestX11Unavailable(t *testing.T) {
	raster := image.NewRGBA(image.Rect(0, 0, 4, 4))

	inst := New(Capabilities{DesktopID: "XFCE", Display: ":987"})
	effect, err := inst.Install(context.Background(), Request{Raster: raster})
	assert.Equal(t, EffectNone, effect)
	assert.True(t, errors.Is(err, ErrPlatformUnavailable), "got %v", err)

	var pue *PlatformUnavailableError
	require.True(t, errors.As(err, &pue))
	assert.Equal(t, ":987", pue.Display)

	_, err = New(Capabilities{}).Install(context.Background(), Request{Raster: raster})
	assert.True(t, errors.Is(err, ErrPlatformUnavailable))
}

func TestX11RequiresRaster(t *testing.T) {
	_, err := New(Capabilities{Display: ":987"}).Install(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoRaster)
}

func TestChunkRect(t *testing.T) {
	r := image.Rect(0, 0, 1920, 1080)
	maxBytes := 65535*4 - putImageHeader
	chunks := chunkRect(r, maxBytes)
	require.NotEmpty(t, chunks)

	area := 0
	for i, c := range chunks {
		assert.LessOrEqual(t, c.Dx()*c.Dy()*4, maxBytes, "chunk %d", i)
		assert.True(t, c.In(r), "chunk %d", i)
		area += c.Dx() * c.Dy()
	}
	assert.Equal(t, 1920*1080, area)
	assert.Equal(t, 1920, chunks[0].Dx())

	// Rows wider than a request are split across columns.
	narrow := chunkRect(image.Rect(10, 20, 110, 23), 40)
	assert.Len(t, narrow, 30)
	assert.Equal(t, image.Rect(10, 20, 20, 21), narrow[0])

	assert.Nil(t, chunkRect(image.Rectangle{}, maxBytes))
}

func TestToZPixmap(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.SetRGBA(1, 1, color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0xff})
	src.SetRGBA(2, 1, color.RGBA{R: 0x44, G: 0x55, B: 0x66, A: 0xff})

	lsb := toZPixmap(src, image.Rect(1, 1, 3, 2), false)
	assert.Equal(t, []byte{0x33, 0x22, 0x11, 0, 0x66, 0x55, 0x44, 0}, lsb)

	msb := toZPixmap(src, image.Rect(1, 1, 3, 2), true)
	assert.Equal(t, []byte{0, 0x11, 0x22, 0x33, 0, 0x44, 0x55, 0x66}, msb)

	assert.Len(t, toZPixmap(src, src.Rect, false), 3*2*4)
}

func TestEffectString(t *testing.T) {
	assert.Equal(t, "requested", EffectRequested.String())
	assert.Equal(t, "confirmed", EffectConfirmed.String())
	assert.Equal(t, "none", EffectNone.String())
}
