package commands

import (
	"github.com/spf13/cobra"

	"github.com/prescod/the-xml-document-stack/internal/dirstats"
	"github.com/prescod/the-xml-document-stack/internal/logger"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report file counts and sizes per subdirectory",
	Long: `For every immediate subdirectory of --dir, count files and total their
size, skipping files whose names end with an excluded extension.

Examples:
  xmlstack stats --dir xml
  xmlstack stats --dir xml/dita --tab
  xmlstack stats --dir xml --html report.html
  xmlstack stats --dir xml --exclude-ext json --exclude-ext error --format yaml`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	flags := statsCmd.Flags()
	flags.String("dir", "xml", "base directory")
	flags.StringSlice("exclude-ext", dirstats.DefaultExclude, "file name suffixes to skip")
	flags.Bool("tab", false, "print a tab-delimited table")
	flags.String("html", "", "write an HTML table to this file")
	flags.String("format", "", "machine-readable output: json, jsonl, yaml")
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx, cancel, _, err := setup()
	if err != nil {
		return err
	}
	defer cancel()

	dir, _ := cmd.Flags().GetString("dir")
	exclude, _ := cmd.Flags().GetStringSlice("exclude-ext")

	dirs, err := dirstats.Collect(ctx, dir, exclude)
	if err != nil {
		logger.Error("failed to collect stats", "dir", dir, "error", err)
		return err
	}

	flags := cmd.Flags()
	switch html, _ := flags.GetString("html"); {
	case html != "":
		if err := dirstats.WriteHTML(html, dirs); err != nil {
			return err
		}
		logger.Info("wrote report", "path", html)
		return nil
	case flags.Changed("format"):
		format, _ := flags.GetString("format")
		return writeReport(cmd.OutOrStdout(), format, dirs)
	}

	mode := dirstats.ModeTable
	if tab, _ := flags.GetBool("tab"); tab {
		mode = dirstats.ModeTab
	}
	return dirstats.Render(cmd.OutOrStdout(), dirs, mode)
}
