// Package commands implements the CLI commands for xmlstack.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prescod/the-xml-document-stack/internal/config"
	"github.com/prescod/the-xml-document-stack/internal/logger"
	"github.com/prescod/the-xml-document-stack/internal/output"
	"github.com/prescod/the-xml-document-stack/internal/workpool"
)

var rootCmd = &cobra.Command{
	Use:   "xmlstack",
	Short: "Mine and convert structured markup from source-code corpora",
	Long: `xmlstack mines corpus shards for DITA, DocBook, JATS, TEI and HTML
documents, partitions them by family and root element, and prepares them
as training material: deduplication, size reports, HTML simplification,
Markdown rendering and DITA conversion.

Examples:
  # Fetch the first ten XML shards
  xmlstack download --to 10

  # Partition markup documents out of the shards
  xmlstack find-xml dataset_bin/data/xml/*.parquet --catalog catalog.db

  # Report sizes per family
  xmlstack stats --dir xml

  # Convert DITA topics with DITA-OT
  xmlstack dita2md xml/dita out/dita --num-processes 8`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.xmlstack.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON")
	rootCmd.PersistentFlags().IntP("workers", "j", 4, "concurrent items for pooled commands")
	rootCmd.PersistentFlags().String("catalog", "", "SQLite catalog of partitioned documents")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("catalog", rootCmd.PersistentFlags().Lookup("catalog"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".xmlstack")
		viper.SetConfigType("yaml")
	}

	// Environment variables, e.g. XMLSTACK_DITA_BINARY for dita.binary
	viper.SetEnvPrefix("XMLSTACK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup initializes logging, loads the configuration and returns a context
// cancelled on SIGINT or SIGTERM.
func setup() (context.Context, context.CancelFunc, *config.Config, error) {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return nil, nil, nil, err
	}
	logger.Debug("config loaded", "file", viper.ConfigFileUsed())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx, cancel, cfg, nil
}

// poolOptions returns the worker pool settings shared by pooled commands.
// Progress bars only show when logging at info level.
func poolOptions(workers int) []workpool.Option {
	return []workpool.Option{
		workpool.WithWorkers(workers),
		workpool.WithProgress(logger.Interactive()),
	}
}

// writeReport writes items to w in a machine-readable format: one document
// for json and yaml, one line per item for jsonl.
func writeReport[T any](w io.Writer, format string, items []T) error {
	f, err := output.ParseFormat(format)
	if err != nil {
		return err
	}
	out, err := output.NewWriter(w, f)
	if err != nil {
		return err
	}

	if f == output.FormatJSONL {
		for _, item := range items {
			if err := out.Write(item); err != nil {
				return err
			}
		}
	} else if err := out.Write(items); err != nil {
		return err
	}
	return out.Close()
}

// failures turns a pool result into the command's error.
func failures(what string, res workpool.Result) error {
	if res.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d %s failed", res.Failed, res.Total, what)
}
