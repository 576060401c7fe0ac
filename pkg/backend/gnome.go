package backend

import (
	"context"
	"net/url"
	"os/exec"

	"github.com/dixieflatline76/Canvaz/config"
	"github.com/dixieflatline76/Canvaz/pkg/compositor"
	"github.com/dixieflatline76/Canvaz/util/log"
)

const gnomeBackgroundSchema = "org.gnome.desktop.background"

// CommandRunner starts a process without waiting for it to finish.
type CommandRunner interface {
	Start(name string, args ...string) error
}

// execRunner starts real processes and reaps them in the background.
type execRunner struct{}

func (execRunner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Debugf("Backend: %s %v exited: %v", name, args, err)
		}
	}()
	return nil
}

// gsettingsBackend writes the GNOME background keys. GNOME, Unity and
// Cinnamon render the background themselves, one image across all monitors.
type gsettingsBackend struct {
	run CommandRunner
}

func (g *gsettingsBackend) Name() string {
	return "gsettings"
}

// Install starts one gsettings process per key. Failures to start are logged
// and otherwise ignored; the daemon's outcome is never observed.
func (g *gsettingsBackend) Install(ctx context.Context, req Request) (Effect, error) {
	if err := ctx.Err(); err != nil {
		return EffectNone, err
	}
	for _, args := range gsettingsCommands(req) {
		if err := g.run.Start("gsettings", args...); err != nil {
			log.Printf("Backend: failed to start gsettings %v: %v", args, err)
		}
	}
	return EffectRequested, nil
}

// gsettingsCommands builds the argument lists for req. An empty SourcePath
// clears both picture URIs and installs the fallback as a solid color.
func gsettingsCommands(req Request) [][]string {
	set := func(key, value string) []string {
		return []string{"set", gnomeBackgroundSchema, key, value}
	}
	if req.SourcePath == "" {
		return [][]string{
			set("picture-uri", ""),
			set("picture-uri-dark", ""),
			set("primary-color", config.FormatColor(req.Fallback)),
			set("color-shading-type", "solid"),
		}
	}
	uri := (&url.URL{Scheme: "file", Path: req.SourcePath}).String()
	return [][]string{
		set("picture-uri", uri),
		set("picture-uri-dark", uri),
		set("picture-options", PictureOption(req.Policy)),
	}
}

// PictureOption maps a policy onto GNOME's picture-options keyword.
func PictureOption(p compositor.ScalingPolicy) string {
	switch p {
	case compositor.Centered:
		return "centered"
	case compositor.Scaled:
		return "scaled"
	case compositor.Tiled:
		return "wallpaper"
	default:
		return "zoom"
	}
}
