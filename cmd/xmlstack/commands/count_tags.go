package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prescod/the-xml-document-stack/internal/logger"
	"github.com/prescod/the-xml-document-stack/internal/tagcount"
)

var countTagsCmd = &cobra.Command{
	Use:   "count-tags <dir>",
	Short: "Count element usage across DITA files",
	Long: `Parse every file matching --pattern under dir and print how often each
element occurs, least used first.

Examples:
  xmlstack count-tags xml/dita
  xmlstack count-tags xml/docbook --pattern '**/*.xml' --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runCountTags,
}

func init() {
	rootCmd.AddCommand(countTagsCmd)

	flags := countTagsCmd.Flags()
	flags.String("pattern", tagcount.DefaultPattern, "doublestar pattern of files to parse")
	flags.String("format", "", "machine-readable output: json, jsonl, yaml")
}

func runCountTags(cmd *cobra.Command, args []string) error {
	ctx, cancel, cfg, err := setup()
	if err != nil {
		return err
	}
	defer cancel()

	pattern, _ := cmd.Flags().GetString("pattern")
	hist, res, err := tagcount.Count(ctx, args[0], pattern, poolOptions(cfg.Workers)...)
	if err != nil {
		logger.Error("count failed", "dir", args[0], "error", err)
		return err
	}
	logger.Info("counted elements", "files", res.Done, "failed", res.Failed, "tags", len(hist))

	tags := hist.Sorted()
	if format, _ := cmd.Flags().GetString("format"); format != "" {
		return writeReport(cmd.OutOrStdout(), format, tags)
	}
	for _, t := range tags {
		fmt.Fprintln(cmd.OutOrStdout(), t)
	}
	return nil
}
