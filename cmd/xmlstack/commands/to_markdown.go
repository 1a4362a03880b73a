package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prescod/the-xml-document-stack/internal/logger"
	"github.com/prescod/the-xml-document-stack/internal/workpool"
	"github.com/prescod/the-xml-document-stack/pkg/cleaner"
	"github.com/prescod/the-xml-document-stack/pkg/cleaner/simplify"
)

var toMarkdownCmd = &cobra.Command{
	Use:   "to-markdown <file-or-dir>",
	Short: "Convert HTML to Markdown",
	Long: `Convert HTML files to Markdown. A single file is printed to stdout
unless --outdir is given; files found under a directory are written to
<name>.md beside the input or under --outdir.

Examples:
  xmlstack to-markdown page.html
  xmlstack to-markdown html/ --simplify --outdir md/
  xmlstack to-markdown page.html --strip-links --strip-images`,
	Args: cobra.ExactArgs(1),
	RunE: runToMarkdown,
}

func init() {
	rootCmd.AddCommand(toMarkdownCmd)

	flags := toMarkdownCmd.Flags()
	flags.StringP("outdir", "o", "", "directory for Markdown files")
	flags.Bool("simplify", false, "simplify the HTML first")
	flags.Bool("strip-links", false, "keep link text only")
	flags.Bool("strip-images", false, "drop images")
	flags.Bool("no-tables", false, "render tables as plain text")
	flags.Bool("raw-whitespace", false, "keep the converter's blank lines and trailing spaces")
}

func runToMarkdown(cmd *cobra.Command, args []string) error {
	ctx, cancel, cfg, err := setup()
	if err != nil {
		return err
	}
	defer cancel()

	flags := cmd.Flags()
	outdir, _ := flags.GetString("outdir")
	stripLinks, _ := flags.GetBool("strip-links")
	stripImages, _ := flags.GetBool("strip-images")
	noTables, _ := flags.GetBool("no-tables")
	raw, _ := flags.GetBool("raw-whitespace")

	var pre cleaner.Cleaner = cleaner.NewNoop()
	if simplified, _ := flags.GetBool("simplify"); simplified {
		pre = simplify.New(&cfg.Simplify)
	}
	cl := cleaner.NewChain(pre, cleaner.NewMarkdown(
		cleaner.WithStripLinks(stripLinks),
		cleaner.WithStripImages(stripImages),
		cleaner.WithTables(!noTables),
		cleaner.WithRawWhitespace(raw),
	))
	logger.Debug("cleaner", "name", cl.Name())

	info, err := os.Stat(args[0])
	if err != nil {
		return err
	}
	if !info.IsDir() && outdir == "" {
		data, err := os.ReadFile(args[0]) //#nosec G304
		if err != nil {
			return err
		}
		md, err := cl.Clean(string(data))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), md)
		return err
	}

	files, err := inputs(args[0], simplify.Discover)
	if err != nil {
		return err
	}
	opts := append(poolOptions(cfg.Workers),
		workpool.WithDescription("to-markdown"),
		workpool.WithLabel(func(i int) string { return files[i] }),
	)
	res, err := workpool.Run(ctx, files, func(_ context.Context, file string) error {
		data, err := os.ReadFile(file) //#nosec G304
		if err != nil {
			return err
		}
		md, err := cl.Clean(string(data))
		if err != nil {
			return err
		}
		out := strings.TrimSuffix(file, filepath.Ext(file)) + ".md"
		if outdir != "" {
			out = filepath.Join(outdir, filepath.Base(out))
		}
		return writeText(out, md+"\n")
	}, opts...)

	logger.Info("conversion complete", "files", res.Total, "ok", res.Done, "failed", res.Failed)
	if err != nil {
		return err
	}
	return failures("files", res)
}
