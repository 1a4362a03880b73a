package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/prescod/the-xml-document-stack/internal/catalog"
	"github.com/prescod/the-xml-document-stack/internal/logger"
	"github.com/prescod/the-xml-document-stack/internal/partition"
	"github.com/prescod/the-xml-document-stack/internal/sniff"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Query the document catalog",
	Long: `Report on the SQLite catalog filled by find-xml and find-text when
--catalog is set.

Examples:
  xmlstack catalog summary --catalog catalog.db
  xmlstack catalog dupes --catalog catalog.db --format jsonl`,
}

var catalogSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Documents and bytes per family and root element",
	Args:  cobra.NoArgs,
	RunE:  runCatalogSummary,
}

var catalogDupesCmd = &cobra.Command{
	Use:   "dupes",
	Short: "Stored documents sharing a content hash",
	Args:  cobra.NoArgs,
	RunE:  runCatalogDupes,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogSummaryCmd)
	catalogCmd.AddCommand(catalogDupesCmd)

	catalogSummaryCmd.Flags().String("format", "", "json, jsonl or yaml instead of a table")
	catalogSummaryCmd.Flags().StringSlice("family", nil, "only these families, e.g. dita,tei")
	catalogDupesCmd.Flags().String("format", "", "json, jsonl or yaml instead of text")
}

func openCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return nil, errors.New("no catalog configured: pass --catalog")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return catalog.Open(path)
}

// knownFamilies lists the families the partitioning jobs store.
func knownFamilies() []string {
	names := lo.Map(sniff.Families, func(f sniff.Family, _ int) string { return string(f) })
	return append(names, string(partition.ReadmeFamily))
}

func parseFamilies(names []string) ([]string, error) {
	known := knownFamilies()
	families := make([]string, len(names))
	for i, n := range names {
		families[i] = strings.ToLower(strings.TrimSpace(n))
		if !lo.Contains(known, families[i]) {
			return nil, fmt.Errorf("unknown family %q (known: %s)", n, strings.Join(known, ", "))
		}
	}
	return families, nil
}

func runCatalogSummary(cmd *cobra.Command, _ []string) error {
	ctx, cancel, cfg, err := setup()
	if err != nil {
		return err
	}
	defer cancel()

	names, _ := cmd.Flags().GetStringSlice("family")
	families, err := parseFamilies(names)
	if err != nil {
		return err
	}

	cat, err := openCatalog(cfg.Catalog)
	if err != nil {
		logger.Error("failed to open catalog", "error", err)
		return err
	}
	defer func() { _ = cat.Close() }()

	rows, err := cat.Summary(ctx)
	if err != nil {
		return err
	}
	if len(families) > 0 {
		rows = lo.Filter(rows, func(r catalog.Summary, _ int) bool { return lo.Contains(families, r.Family) })
	}

	if format, _ := cmd.Flags().GetString("format"); format != "" {
		return writeReport(cmd.OutOrStdout(), format, rows)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	style.Format.Footer = text.FormatDefault
	t.SetStyle(style)
	t.AppendHeader(table.Row{"Family", "Root", "Documents", "Size"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Family, r.Root, humanize.Comma(r.Documents), humanize.IBytes(uint64(r.Bytes))}) //#nosec G115
	}
	docs, bytes := catalog.Totals(rows)
	t.AppendFooter(table.Row{"Total", "", humanize.Comma(docs), humanize.IBytes(uint64(bytes))}) //#nosec G115
	t.Render()
	return nil
}

func runCatalogDupes(cmd *cobra.Command, _ []string) error {
	ctx, cancel, cfg, err := setup()
	if err != nil {
		return err
	}
	defer cancel()

	cat, err := openCatalog(cfg.Catalog)
	if err != nil {
		logger.Error("failed to open catalog", "error", err)
		return err
	}
	defer func() { _ = cat.Close() }()

	dupes, err := cat.Duplicates(ctx)
	if err != nil {
		return err
	}

	if format, _ := cmd.Flags().GetString("format"); format != "" {
		return writeReport(cmd.OutOrStdout(), format, dupes)
	}
	for _, d := range dupes {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%d): %s\n", d.MD5, d.Count, strings.Join(d.Paths, ", "))
	}
	logger.Info("catalog duplicates", "hashes", len(dupes))
	return nil
}
