package main

import (
	"fyne.io/fyne/v2/app"
	"github.com/dixieflatline76/Canvaz/config"
	"github.com/dixieflatline76/Canvaz/pkg/backend"
	"github.com/dixieflatline76/Canvaz/pkg/compositor"
	"github.com/dixieflatline76/Canvaz/pkg/decode"
	"github.com/dixieflatline76/Canvaz/pkg/display"
	"github.com/dixieflatline76/Canvaz/pkg/wallpaper"
	"github.com/spf13/cobra"
)

var (
	displayFlag string
	desktopFlag string

	rootCmd = &cobra.Command{
		Use:   "canvaz",
		Short: "Canvaz - multi-monitor wallpaper composer",
		Long: `Canvaz finds wallpapers in your picture directories, composes one image per
monitor (or one spanning them all) and installs it as the desktop background,
either through gsettings on GNOME-family desktops or directly on the X11 root window.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	version := config.AppVersion
	if version == "" {
		version = "dev"
	}
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&displayFlag, "display", "", "X display to use (default $DISPLAY)")
	rootCmd.PersistentFlags().StringVar(&desktopFlag, "desktop", "", "desktop session to target (default $XDG_CURRENT_DESKTOP)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(dirsCmd)
	rootCmd.AddCommand(monitorsCmd)
}

// loadSettings opens the persisted preferences for this application.
func loadSettings() *config.Settings {
	a := app.NewWithID(config.AppID)
	return config.NewSettings(a.Preferences())
}

// capabilities returns the detected session with flag overrides applied.
func capabilities() backend.Capabilities {
	caps := backend.DetectCapabilities()
	if displayFlag != "" {
		caps.Display = displayFlag
	}
	if desktopFlag != "" {
		caps.DesktopID = desktopFlag
	}
	return caps
}

// newService wires the apply pipeline for the current session.
func newService(settings *config.Settings) *wallpaper.Service {
	caps := capabilities()
	comp := compositor.New(decode.New(), compositor.WithSmartCrop(settings.GetSmartCrop()))
	inst := backend.New(caps)
	layout := func() (display.Layout, error) {
		return display.Query(caps.Display)
	}
	return wallpaper.NewService(settings, comp, inst, layout)
}
