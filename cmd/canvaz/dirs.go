package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dixieflatline76/Canvaz/config"
	"github.com/spf13/cobra"
)

var dirsCmd = &cobra.Command{
	Use:   "dirs",
	Short: "Manage the wallpaper search directories",
}

var dirsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the search directories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := loadSettings().GetSearchPaths()
		if len(paths) == 0 {
			fmt.Printf("No search directories configured; %s is scanned.\n", config.GetPicturesDir())
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		fmt.Printf("Downloads are kept in %s.\n", config.GetCacheDir())
		return nil
	},
}

var dirsAddCmd = &cobra.Command{
	Use:   "add <dir>...",
	Short: "Add search directories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := loadSettings()
		for _, dir := range args {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			info, err := os.Stat(abs)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", abs)
			}
			if settings.AddSearchPath(abs) {
				fmt.Printf("Added %s\n", abs)
			} else {
				fmt.Printf("%s is already a search directory\n", abs)
			}
		}
		return nil
	},
}

var dirsRemoveCmd = &cobra.Command{
	Use:   "remove <dir>...",
	Short: "Remove search directories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := loadSettings()
		for _, dir := range args {
			if settings.RemoveSearchPath(dir) {
				fmt.Printf("Removed %s\n", dir)
				continue
			}
			// Accept relative spellings of a stored absolute path.
			if abs, err := filepath.Abs(dir); err == nil && settings.RemoveSearchPath(abs) {
				fmt.Printf("Removed %s\n", abs)
				continue
			}
			return fmt.Errorf("%s is not a search directory", dir)
		}
		return nil
	},
}

func init() {
	dirsCmd.AddCommand(dirsListCmd)
	dirsCmd.AddCommand(dirsAddCmd)
	dirsCmd.AddCommand(dirsRemoveCmd)
}
