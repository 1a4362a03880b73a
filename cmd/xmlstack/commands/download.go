package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prescod/the-xml-document-stack/internal/hub"
	"github.com/prescod/the-xml-document-stack/internal/logger"
	"github.com/prescod/the-xml-document-stack/internal/workpool"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download corpus parquet shards from the hub",
	Long: `Download parquet shards of one language from a Hugging Face dataset.

Shards are saved under <dir>/data/<lang>/. Files already present with the
size the hub reports are skipped, so an interrupted run can be repeated.

Examples:
  # First 10 XML shards of the-stack
  xmlstack download --to 10

  # A gated dataset needs a token
  HF_TOKEN=hf_... xmlstack download --from 100 --to 120`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	flags := downloadCmd.Flags()
	flags.Int("from", 0, "first shard index")
	flags.Int("to", 0, "shard index to stop before (default: all shards)")
	flags.Int("parallel", 1, "concurrent downloads")
	flags.String("dir", "", "local directory (default dataset_bin)")
	flags.String("lang", "", "language directory of the dataset (default xml)")
	flags.String("repo", "", "dataset repository (default bigcode/the-stack)")
	flags.String("revision", "", "dataset revision (default main)")
	flags.Int("total", 0, "number of shards in the dataset (default 297)")
	flags.String("endpoint", "", "hub base URL")

	_ = viper.BindPFlag("hub.dir", flags.Lookup("dir"))
	_ = viper.BindPFlag("hub.lang", flags.Lookup("lang"))
	_ = viper.BindPFlag("hub.repo", flags.Lookup("repo"))
	_ = viper.BindPFlag("hub.revision", flags.Lookup("revision"))
	_ = viper.BindPFlag("hub.total", flags.Lookup("total"))
	_ = viper.BindPFlag("hub.endpoint", flags.Lookup("endpoint"))
}

func runDownload(cmd *cobra.Command, _ []string) error {
	ctx, cancel, cfg, err := setup()
	if err != nil {
		return err
	}
	defer cancel()

	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")
	if to == 0 {
		to = cfg.Hub.Total
	}
	parallel, _ := cmd.Flags().GetInt("parallel")

	client := hub.New(
		hub.WithEndpoint(cfg.Hub.Endpoint),
		hub.WithRepo(cfg.Hub.Repo, cfg.Hub.Revision),
		hub.WithToken(cfg.Hub.Token),
		hub.WithTimeout(cfg.Hub.Timeout),
		hub.WithProgress(logger.Interactive(), os.Stderr),
	)

	logger.Info("downloading shards", "repo", cfg.Hub.Repo, "lang", cfg.Hub.Lang, "from", from, "to", to, "dir", cfg.Hub.Dir)
	res, err := client.Shards(ctx, cfg.Hub.Lang, from, to, cfg.Hub.Total, cfg.Hub.Dir, workpool.WithWorkers(parallel))
	if err != nil {
		logger.Error("download interrupted", "error", err)
		return err
	}
	logger.Info("download complete", "done", res.Done, "failed", res.Failed)
	return failures("shards", res)
}
