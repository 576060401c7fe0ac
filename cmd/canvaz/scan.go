package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/dixieflatline76/Canvaz/config"
	"github.com/dixieflatline76/Canvaz/pkg/decode"
	"github.com/dixieflatline76/Canvaz/pkg/scanner"
	"github.com/dixieflatline76/Canvaz/pkg/wallpaper"
	"github.com/spf13/cobra"
)

var (
	limitFlag  int
	thumbsFlag string
)

var scanCmd = &cobra.Command{
	Use:   "scan [dir...]",
	Short: "List wallpapers found in the search directories",
	Long: `Walk the given directories, or the configured search directories plus the
download cache, and print every image that decodes. Symbolic links are not
followed. Press Ctrl-C to stop early.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		roots := args
		if len(roots) == 0 {
			settings := loadSettings()
			roots = wallpaper.ScanRoots(settings.GetSearchPaths(), config.GetPicturesDir(), config.GetCacheDir())
		}
		if thumbsFlag != "" {
			if err := os.MkdirAll(thumbsFlag, 0755); err != nil {
				return fmt.Errorf("creating thumbnail directory: %w", err)
			}
		}

		sc := scanner.New(decode.New())
		sc.Start()
		defer sc.Stop()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		scan := sc.Scan(roots, scanner.DefaultThumbnailSize)
		go func() {
			select {
			case <-ctx.Done():
				scan.Cancel()
			case <-scan.Done():
			}
		}()

		n := 0
		for res := range scan.Results() {
			n++
			size := res.Thumbnail.Bounds().Size()
			fmt.Printf("%s\t%dx%d\n", res.Path, size.X, size.Y)
			if thumbsFlag != "" {
				if err := saveThumbnail(res); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
				}
			}
			if limitFlag > 0 && n >= limitFlag {
				scan.Cancel()
			}
		}
		<-scan.Done()

		if scan.Cancelled() {
			fmt.Fprintf(os.Stderr, "Scan stopped after %d images.\n", n)
		} else {
			fmt.Fprintf(os.Stderr, "Found %d images in %s.\n", n, strings.Join(scan.Roots(), ", "))
		}
		return nil
	},
}

// saveThumbnail writes res's thumbnail as a PNG named after the source file.
func saveThumbnail(res scanner.Result) error {
	name := strings.TrimSuffix(res.Name, filepath.Ext(res.Name)) + ".png"
	if err := imaging.Save(res.Thumbnail, filepath.Join(thumbsFlag, name)); err != nil {
		return fmt.Errorf("saving thumbnail for %s: %w", res.Path, err)
	}
	return nil
}

func init() {
	scanCmd.Flags().IntVarP(&limitFlag, "limit", "n", 0, "stop after this many images (0 for no limit)")
	scanCmd.Flags().StringVar(&thumbsFlag, "thumbs", "", "also write thumbnails as PNG into this directory")
}
