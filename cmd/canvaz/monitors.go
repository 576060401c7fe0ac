package main

import (
	"fmt"
	"strings"

	"github.com/dixieflatline76/Canvaz/pkg/display"
	"github.com/spf13/cobra"
)

var monitorsCmd = &cobra.Command{
	Use:   "monitors",
	Short: "Show the monitor layout and the selected backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		caps := capabilities()
		fmt.Printf("Desktop: %q, display: %q\n", caps.DesktopID, caps.Display)
		if caps.UsesScript() {
			fmt.Println("Backend: gsettings (one image across all monitors)")
		} else {
			fmt.Println("Backend: x11 root window")
		}

		layout, err := display.Query(caps.Display)
		if err != nil {
			return err
		}
		b := layout.Bounds()
		fmt.Printf("Desktop size: %dx%d+%d+%d\n", b.Dx(), b.Dy(), b.Min.X, b.Min.Y)
		for _, m := range layout.Monitors() {
			fmt.Printf("  Screen %d: %dx%d at %d,%d\n", m.ID+1, m.Rect.Dx(), m.Rect.Dy(), m.Rect.Min.X, m.Rect.Min.Y)
		}
		for _, r := range layout.UniqueResolutions() {
			ids := make([]string, len(r.Monitors))
			for i, id := range r.Monitors {
				ids[i] = fmt.Sprint(id + 1)
			}
			fmt.Printf("  %dx%d used by screen %s\n", r.Width, r.Height, strings.Join(ids, ", "))
		}
		return nil
	},
}
