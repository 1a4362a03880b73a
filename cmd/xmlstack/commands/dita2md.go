package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prescod/the-xml-document-stack/internal/dita"
	"github.com/prescod/the-xml-document-stack/internal/logger"
)

var ditaCmd = &cobra.Command{
	Use:   "dita2md <input> <output>",
	Short: "Convert DITA topics with DITA-OT",
	Long: `Convert every .dita and .xml file under <input> with the DITA-OT
command line, once per output format, into <output>/<relative dir>/<name>/.

Image references are pointed at empty placeholder files so the toolkit does
not fail on missing assets. Files smaller than --min-size and files whose
output directory already holds a copy are skipped, so runs can be resumed.
When a format fails, its stderr is written to error_<name>.error. Failed
files only make the command exit non-zero with --strict.

Examples:
  xmlstack dita2md xml/dita out/dita
  xmlstack dita2md xml/dita out/dita --num-processes 16 --formats markdown`,
	Args: cobra.ExactArgs(2),
	RunE: runDita,
}

func init() {
	rootCmd.AddCommand(ditaCmd)

	flags := ditaCmd.Flags()
	flags.Int("num-processes", 0, "concurrent conversions (default 8)")
	flags.String("binary", "", "DITA-OT executable (default dita)")
	flags.String("min-size", "", "skip smaller files, e.g. 2KiB (default 2048)")
	flags.StringSlice("formats", nil, "transtypes to run (default markdown,html5)")
	flags.Bool("strict", false, "exit non-zero when any file fails to convert")

	_ = viper.BindPFlag("dita.workers", flags.Lookup("num-processes"))
	_ = viper.BindPFlag("dita.binary", flags.Lookup("binary"))
	_ = viper.BindPFlag("dita.min_size", flags.Lookup("min-size"))
	_ = viper.BindPFlag("dita.formats", flags.Lookup("formats"))
}

func runDita(cmd *cobra.Command, args []string) error {
	ctx, cancel, cfg, err := setup()
	if err != nil {
		return err
	}
	defer cancel()

	conv := dita.New(
		dita.WithBinary(cfg.Dita.Binary),
		dita.WithFormats(cfg.Dita.Formats...),
		dita.WithMinBytes(int64(cfg.Dita.MinBytes)), //#nosec G115
	)
	logger.Debug("dita conversion",
		"binary", cfg.Dita.Binary,
		"formats", cfg.Dita.Formats,
		"min_bytes", cfg.Dita.MinBytes,
		"workers", cfg.Dita.Workers,
	)

	sum, err := conv.Run(ctx, args[0], args[1], poolOptions(cfg.Dita.Workers)...)
	logger.Info("conversion complete",
		"files", sum.Total,
		"converted", sum.Converted,
		"skipped_small", sum.Small,
		"skipped_existing", sum.Existing,
		"failed", sum.Failed,
	)
	if err != nil {
		return err
	}
	if strict, _ := cmd.Flags().GetBool("strict"); !strict {
		return nil
	}
	return failures("files", sum.Result)
}
