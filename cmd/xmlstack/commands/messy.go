package commands

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/prescod/the-xml-document-stack/internal/logger"
	"github.com/prescod/the-xml-document-stack/internal/workpool"
	"github.com/prescod/the-xml-document-stack/pkg/cleaner/messy"
)

var messyCmd = &cobra.Command{
	Use:   "messy <file-or-dir>",
	Short: "Render HTML as randomly styled Markdown",
	Long: `Convert HTML to Markdown with randomly drawn styling choices: bullet
markers, heading style, emphasis delimiters, blockquote prefixes, line
wrapping and link forms. Each file gets its own draw.

Without --seed, files are seeded 1, 2, 3, ... in path order, so a run is
reproducible. Output goes to <name>.messy beside the input; with --outdir
a copy of the source HTML is also written there, keeping its path relative
to the input directory.

Examples:
  xmlstack messy page.html --seed 42
  xmlstack messy html/ --outdir pairs/`,
	Args: cobra.ExactArgs(1),
	RunE: runMessy,
}

func init() {
	rootCmd.AddCommand(messyCmd)

	flags := messyCmd.Flags()
	flags.Int64("seed", 0, "seed every file with this value (default: per-file counter)")
	flags.StringP("outdir", "o", "", "directory for copies of the source HTML")
	flags.Bool("show-options", false, "log the drawn options of each file")
}

type messyJob struct {
	file string
	seed int64
}

func runMessy(cmd *cobra.Command, args []string) error {
	ctx, cancel, cfg, err := setup()
	if err != nil {
		return err
	}
	defer cancel()

	flags := cmd.Flags()
	outdir, _ := flags.GetString("outdir")
	showOptions, _ := flags.GetBool("show-options")
	fixed, _ := flags.GetInt64("seed")

	files, err := inputs(args[0], messy.Discover)
	if err != nil {
		logger.Error("no input", "path", args[0], "error", err)
		return err
	}

	// Seeds are assigned before the pool starts so they follow path order.
	jobs := make([]messyJob, len(files))
	for i, f := range files {
		seed := fixed
		if !flags.Changed("seed") {
			seed = messy.NextSeed()
		}
		jobs[i] = messyJob{file: f, seed: seed}
	}

	opts := append(poolOptions(cfg.Workers),
		workpool.WithDescription("messy"),
		workpool.WithLabel(func(i int) string { return files[i] }),
	)
	res, err := workpool.Run(ctx, jobs, func(_ context.Context, job messyJob) error {
		data, err := os.ReadFile(job.file) //#nosec G304
		if err != nil {
			return err
		}

		conv := messy.New(messy.Draw(job.seed))
		if showOptions {
			logger.Info("options", "file", job.file, "seed", job.seed, "options", conv.Options().String())
		}
		md, err := conv.Clean(string(data))
		if err != nil {
			return err
		}

		if outdir != "" {
			rel, err := relativeTo(args[0], job.file)
			if err != nil {
				return err
			}
			if err := writeText(filepath.Join(outdir, rel), string(data)); err != nil {
				return err
			}
		}
		return writeText(messy.OutputPath(job.file), md)
	}, opts...)

	logger.Info("messy complete", "files", res.Total, "ok", res.Done, "failed", res.Failed)
	if err != nil {
		return err
	}
	return failures("files", res)
}
