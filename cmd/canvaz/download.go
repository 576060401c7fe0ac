package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/dixieflatline76/Canvaz/config"
	"github.com/dixieflatline76/Canvaz/pkg/compositor"
	"github.com/dixieflatline76/Canvaz/pkg/download"
	"github.com/dixieflatline76/Canvaz/pkg/wallpaper"
	"github.com/spf13/cobra"
)

var (
	countFlag       int
	applyDownloaded bool
	downloadURLFlag string
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download random wallpapers into the cache",
	Long: `Download random photos into the cache directory, which is always part of the
scan. Requests are spaced at least two seconds apart. With --apply the last
download is set on the remembered monitors.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		client := download.New(config.GetCacheDir(), download.WithURL(downloadURLFlag))
		var last string
		for i := 0; i < max(1, countFlag); i++ {
			res, err := client.Random(ctx)
			if err != nil {
				return err
			}
			fmt.Println(res.Path)
			last = res.Path
		}

		if !applyDownloaded {
			return nil
		}
		settings := loadSettings()
		lock, err := acquireLock()
		if err != nil {
			return err
		}
		defer lock.release()

		res, err := newService(settings).Apply(ctx, wallpaper.Selection{
			Path:    last,
			Monitor: wallpaper.ParseMonitorConfig(settings.GetMonitorConfig()),
			Policy:  compositor.ParsePolicy(settings.GetScalingMode()),
		})
		printResult(res)
		return err
	},
}

func init() {
	downloadCmd.Flags().IntVarP(&countFlag, "count", "n", 1, "number of images to download")
	downloadCmd.Flags().BoolVar(&applyDownloaded, "apply", false, "apply the last downloaded image")
	downloadCmd.Flags().StringVar(&downloadURLFlag, "url", download.DefaultURL, "image source URL")
}
