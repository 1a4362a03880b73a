package commands

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prescod/the-xml-document-stack/internal/catalog"
	"github.com/prescod/the-xml-document-stack/internal/config"
	"github.com/prescod/the-xml-document-stack/internal/logger"
	"github.com/prescod/the-xml-document-stack/internal/partition"
	"github.com/prescod/the-xml-document-stack/internal/sniff"
	"github.com/prescod/the-xml-document-stack/internal/workpool"
)

var findXMLCmd = &cobra.Command{
	Use:   "find-xml <shard>...",
	Short: "Partition markup documents out of corpus shards",
	Long: `Scan parquet (or JSON Lines) corpus shards for DITA, DocBook, JATS,
TEI and HTML documents and save each one under
<output>/<family>/<root>/<repo>/<path> with a .json metadata sidecar.

Only documents whose first bytes pass the gate are parsed. Roots listed in
the exclusions file (default exclude_files.txt) are dropped. Rows that
cannot be saved go to <output>/__BAD with the error in their metadata.

Examples:
  xmlstack find-xml dataset_bin/data/xml/*.parquet
  xmlstack find-xml shard.parquet --output xml --catalog catalog.db -j 8`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFindXML,
}

var findTextCmd = &cobra.Command{
	Use:   "find-text <shard>...",
	Short: "Extract README documents out of corpus shards",
	Long: `Save every README of at least --min-length characters under
<output>/<repo>/<path> with a .json metadata sidecar.

Examples:
  xmlstack find-text dataset_bin/data/markdown/*.parquet --output text`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFindText,
}

func init() {
	rootCmd.AddCommand(findXMLCmd)
	rootCmd.AddCommand(findTextCmd)

	flags := findXMLCmd.Flags()
	flags.StringP("output", "o", "", "output root (default xml)")
	flags.String("exclusions", "", "file of root elements to skip (default exclude_files.txt)")
	_ = viper.BindPFlag("partition.xml_root", flags.Lookup("output"))
	_ = viper.BindPFlag("exclusions", flags.Lookup("exclusions"))

	flags = findTextCmd.Flags()
	flags.StringP("output", "o", "", "output root (default text)")
	flags.Int("min-length", 0, "shortest README kept (default 200)")
	_ = viper.BindPFlag("partition.text_root", flags.Lookup("output"))
	_ = viper.BindPFlag("partition.readme_min_length", flags.Lookup("min-length"))
}

func runFindXML(_ *cobra.Command, args []string) error {
	ctx, cancel, cfg, err := setup()
	if err != nil {
		return err
	}
	defer cancel()

	exclusions, err := sniff.LoadExclusions(cfg.Exclusions)
	if err != nil {
		logger.Error("failed to load exclusions", "error", err)
		return err
	}
	logger.Debug("exclusions loaded", "entries", exclusions.Len())

	return withStore(ctx, cfg, cfg.Partition.XMLRoot, func(store *partition.Store) error {
		router := partition.NewXMLRouter(store, cfg.Gate, exclusions)
		return partitionShards(ctx, cfg, args, router)
	})
}

func runFindText(_ *cobra.Command, args []string) error {
	ctx, cancel, cfg, err := setup()
	if err != nil {
		return err
	}
	defer cancel()

	return withStore(ctx, cfg, cfg.Partition.TextRoot, func(store *partition.Store) error {
		router := partition.NewReadmeRouter(store, cfg.Partition.ReadmeMinLength)
		return partitionShards(ctx, cfg, args, router)
	})
}

// withStore opens the catalog when one is configured and hands fn a store
// rooted at root.
func withStore(ctx context.Context, cfg *config.Config, root string, fn func(*partition.Store) error) error {
	if cfg.Catalog == "" {
		return fn(partition.NewStore(partition.Layout{Root: root}))
	}

	cat, err := catalog.Open(cfg.Catalog)
	if err != nil {
		logger.Error("failed to open catalog", "path", cfg.Catalog, "error", err)
		return err
	}
	defer cat.Close()

	err = fn(partition.NewStore(partition.Layout{Root: root}, partition.WithRecorder(cat)))
	if n, cerr := cat.Count(ctx); cerr == nil {
		logger.Info("catalog updated", "path", cfg.Catalog, "documents", n)
	}
	return err
}

func partitionShards(ctx context.Context, cfg *config.Config, shards []string, router partition.Router) error {
	opts := append(poolOptions(cfg.Workers),
		workpool.WithDescription("shards"),
		workpool.WithLabel(func(i int) string { return shards[i] }),
		// Rows are logged individually; a bar per shard says little.
		workpool.WithProgress(false),
	)

	res, err := workpool.Run(ctx, shards, func(ctx context.Context, shard string) error {
		return partition.Shard(ctx, shard, router)
	}, opts...)

	c := router.Counts()
	logger.Info("partitioning complete",
		"shards", res.Total,
		"saved", c.Saved,
		"skipped", c.Skipped,
		"unclassified", c.Unclassified,
		"excluded", c.Excluded,
		"quarantined", c.Quarantined,
		"failed", c.Failed,
	)
	if err != nil {
		return err
	}
	return failures("shards", res)
}
