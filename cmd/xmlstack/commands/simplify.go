package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/prescod/the-xml-document-stack/internal/logger"
	"github.com/prescod/the-xml-document-stack/internal/workpool"
	"github.com/prescod/the-xml-document-stack/pkg/cleaner/simplify"
)

var simplifyCmd = &cobra.Command{
	Use:   "simplify <file-or-dir>",
	Short: "Strip HTML down to what its Markdown rendering needs",
	Long: `Simplify HTML files: delete navigation, metadata and figures, unwrap
layout containers and drop presentational attributes. The Markdown rendering
of the result is compared with that of the input (after deletions) and any
difference is reported as a failure.

Every *.html file under a directory is processed except *.simplified.html.
Output goes to <name>.simplified.html beside the input, or to --outdir.

Examples:
  xmlstack simplify page.html
  xmlstack simplify html/ --outdir simplified/ --stats
  xmlstack simplify page.html --show-diff`,
	Args: cobra.ExactArgs(1),
	RunE: runSimplify,
}

func init() {
	rootCmd.AddCommand(simplifyCmd)

	flags := simplifyCmd.Flags()
	flags.StringP("outdir", "o", "", "directory for simplified files")
	flags.Bool("stats", false, "print element and attribute statistics")
	flags.Bool("show-diff", false, "print the Markdown diff of files that fail verification")
	flags.Bool("no-verify", false, "skip the Markdown equivalence check")
}

func runSimplify(cmd *cobra.Command, args []string) error {
	ctx, cancel, cfg, err := setup()
	if err != nil {
		return err
	}
	defer cancel()

	flags := cmd.Flags()
	outdir, _ := flags.GetString("outdir")
	showDiff, _ := flags.GetBool("show-diff")
	if noVerify, _ := flags.GetBool("no-verify"); noVerify {
		cfg.Simplify.Verify = false
	}

	files, err := inputs(args[0], simplify.Discover)
	if err != nil {
		logger.Error("no input", "path", args[0], "error", err)
		return err
	}

	s := simplify.New(&cfg.Simplify)
	var mu sync.Mutex
	total := simplify.NewStats()

	opts := append(poolOptions(cfg.Workers),
		workpool.WithDescription("simplify"),
		workpool.WithLabel(func(i int) string { return files[i] }),
	)
	res, err := workpool.Run(ctx, files, func(_ context.Context, file string) error {
		data, err := os.ReadFile(file) //#nosec G304
		if err != nil {
			return err
		}

		result := s.CleanWithStats(string(data))
		mu.Lock()
		total.Merge(result.Stats)
		mu.Unlock()

		out := simplify.OutputPath(file, outdir)
		if err := writeText(out, result.Content); err != nil {
			return err
		}
		logger.Debug("simplified", "file", file, "output", out, "reduction", fmt.Sprintf("%.1f%%", result.Stats.ReductionPercent()))

		if errors.Is(result.Error, simplify.ErrChanged) && showDiff {
			fmt.Fprintf(cmd.ErrOrStderr(), "--- %s\n%s", file, result.Diff)
		}
		return result.Error
	}, opts...)

	if stats, _ := flags.GetBool("stats"); stats {
		fmt.Fprint(cmd.OutOrStdout(), total.String())
	}
	logger.Info("simplify complete", "files", res.Total, "ok", res.Done, "failed", res.Failed)
	if err != nil {
		return err
	}
	return failures("files", res)
}
