package commands

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/prescod/the-xml-document-stack/internal/dedupe"
	"github.com/prescod/the-xml-document-stack/internal/logger"
)

var dupesCmd = &cobra.Command{
	Use:   "dupes [dir]",
	Short: "Find byte-identical files",
	Long: `Walk a directory (default xml) and report files with identical content.
Files are grouped by size first; only same-size files are hashed.

With --delete the first path of each group (in lexicographic order) is
kept and the other copies are removed.

Examples:
  xmlstack dupes xml
  xmlstack dupes xml --format json > dupes.json
  xmlstack dupes xml --delete --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDupes,
}

func init() {
	rootCmd.AddCommand(dupesCmd)

	flags := dupesCmd.Flags()
	flags.String("format", "", "machine-readable output: json, jsonl, yaml")
	flags.Bool("delete", false, "remove all but the first copy of each group")
	flags.Bool("dry-run", false, "with --delete, only list what would be removed")
}

func runDupes(cmd *cobra.Command, args []string) error {
	ctx, cancel, _, err := setup()
	if err != nil {
		return err
	}
	defer cancel()

	dir := "xml"
	if len(args) > 0 {
		dir = args[0]
	}

	groups, err := dedupe.Find(ctx, dir)
	if err != nil {
		logger.Error("failed to scan", "dir", dir, "error", err)
		return err
	}

	out := cmd.OutOrStdout()
	if format, _ := cmd.Flags().GetString("format"); format != "" {
		if err := writeReport(out, format, groups); err != nil {
			return err
		}
	} else {
		for _, g := range groups {
			fmt.Fprintf(out, "Duplicate files: [%s]\n", strings.Join(g.Paths, ", "))
		}
	}
	logger.Info("duplicate scan complete", "groups", len(groups), "redundant", humanize.IBytes(uint64(dedupe.Redundant(groups))))

	if del, _ := cmd.Flags().GetBool("delete"); !del {
		return nil
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	removed, err := dedupe.Prune(groups, dryRun)
	for _, path := range removed {
		if dryRun {
			logger.Info("would remove", "path", path)
		} else {
			logger.Debug("removed", "path", path)
		}
	}
	logger.Info("prune complete", "removed", len(removed), "dry_run", dryRun)
	return err
}
