package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dcexport/pkg/config"
	"dcexport/pkg/export"
	"dcexport/pkg/ui"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats [channel-id]",
	Short: "Show export artifact statistics",
	Long: `Show row counts and sizes for exported CSV artifacts.

With a channel id, reports that channel's artifact. Without arguments,
reports every artifact in the export directory.`,
	Example: `  # Stats for one channel
  dcexport stats 1234567890

  # Stats for everything exported so far
  dcexport stats`,
	Args: cobra.MaximumNArgs(1),
	Run:  runStats,
}

var statsDir string

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVarP(&statsDir, "export-dir", "o", "", "directory holding CSV artifacts (default ./exports)")
}

func runStats(cmd *cobra.Command, args []string) {
	flags := make(map[string]interface{})
	if statsDir != "" {
		flags["export-dir"] = statsDir
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	var paths []string
	if len(args) == 1 {
		paths = []string{export.ArtifactPath(cfg.Export.Directory, strings.TrimSpace(args[0]))}
	} else {
		matches, err := filepath.Glob(filepath.Join(cfg.Export.Directory, "*.csv"))
		if err != nil {
			ui.PrintError("Failed to list export directory", err.Error())
			os.Exit(1)
		}
		paths = matches
	}

	if len(paths) == 0 {
		fmt.Println("No artifacts found.")
		return
	}

	totalRows := 0
	var totalBytes uint64
	for _, path := range paths {
		stats, err := export.Scan(path)
		if err != nil {
			ui.PrintError("Failed to scan artifact", err.Error())
			os.Exit(1)
		}
		if !stats.Exists {
			fmt.Printf("%s: no artifact\n", path)
			continue
		}

		fmt.Printf("%s: %s rows, %s\n",
			filepath.Base(path),
			humanize.Comma(int64(stats.RowCount)),
			humanize.Bytes(uint64(stats.SizeBytes)))
		totalRows += stats.RowCount
		totalBytes += uint64(stats.SizeBytes)
	}

	if len(paths) > 1 {
		fmt.Printf("total: %s rows, %s\n",
			humanize.Comma(int64(totalRows)),
			humanize.Bytes(totalBytes))
	}
}
