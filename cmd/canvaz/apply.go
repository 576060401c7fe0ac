package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/dixieflatline76/Canvaz/config"
	"github.com/dixieflatline76/Canvaz/pkg/backend"
	"github.com/dixieflatline76/Canvaz/pkg/compositor"
	"github.com/dixieflatline76/Canvaz/pkg/decode"
	"github.com/dixieflatline76/Canvaz/pkg/wallpaper"
	"github.com/spf13/cobra"
)

var (
	monitorFlag   string
	modeFlag      string
	colorFlag     string
	smartCropFlag bool
)

var applyCmd = &cobra.Command{
	Use:   "apply [image]",
	Short: "Set the wallpaper",
	Long: `Set the wallpaper on the monitors selected by --monitor. Without an image the
selected monitors show the fallback color. Monitor, mode and color default to
the values used last time and are remembered for the next apply or restore.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := loadSettings()

		sel := wallpaper.Selection{
			Monitor: wallpaper.ParseMonitorConfig(settings.GetMonitorConfig()),
			Policy:  compositor.ParsePolicy(settings.GetScalingMode()),
		}
		if len(args) == 1 {
			if !decode.IsSupported(args[0]) {
				return fmt.Errorf("%s: %w", args[0], decode.ErrUnsupportedFormat)
			}
			if _, err := os.Stat(args[0]); err != nil {
				return err
			}
			sel.Path = args[0]
		}
		if cmd.Flags().Changed("monitor") {
			sel.Monitor = wallpaper.ParseMonitorConfig(monitorFlag)
		}
		if cmd.Flags().Changed("mode") {
			policy, err := compositor.ParsePolicyStrict(modeFlag)
			if err != nil {
				return err
			}
			sel.Policy = policy
		}
		if cmd.Flags().Changed("color") {
			c, err := config.ParseColor(colorFlag)
			if err != nil {
				return err
			}
			sel.Color = &c
		}
		if cmd.Flags().Changed("smart-crop") {
			settings.SetSmartCrop(smartCropFlag)
		}

		lock, err := acquireLock()
		if err != nil {
			return err
		}
		defer lock.release()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		res, err := newService(settings).Apply(ctx, sel)
		printResult(res)
		return err
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Re-apply the last wallpaper",
	Long:  `Re-apply the remembered wallpaper, for example from a login script.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := loadSettings()

		lock, err := acquireLock()
		if err != nil {
			return err
		}
		defer lock.release()

		res, err := newService(settings).Restore(context.Background())
		printResult(res)
		return err
	},
}

func printResult(res wallpaper.ApplyResult) {
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", w)
	}
	if res.Effect != backend.EffectNone {
		fmt.Printf("Wallpaper %s.\n", res.Effect)
	}
}

func init() {
	applyCmd.Flags().StringVarP(&monitorFlag, "monitor", "m", config.DefaultMonitorConfig,
		`monitors to set: "Screen 1", "Screen 2", "Both Screens" or "Full Screen"`)
	applyCmd.Flags().StringVarP(&modeFlag, "mode", "s", config.DefaultScalingMode,
		`scaling mode: "Automatic", "Scaled", "Centered", "Tiled", "Zoomed" or "Zoomed Fill"`)
	applyCmd.Flags().StringVarP(&colorFlag, "color", "c", "#000000", "fallback color as #rrggbb")
	applyCmd.Flags().BoolVar(&smartCropFlag, "smart-crop", false, "pick the Zoomed Fill crop by content")
}
