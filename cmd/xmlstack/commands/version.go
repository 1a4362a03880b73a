package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prescod/the-xml-document-stack/internal/output"
	"github.com/prescod/the-xml-document-stack/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		if format, _ := flags.GetString("format"); format != "" {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			w, err := output.NewWriter(cmd.OutOrStdout(), f)
			if err != nil {
				return err
			}
			if err := w.Write(version.Get()); err != nil {
				return err
			}
			return w.Close()
		}

		if short, _ := flags.GetBool("short"); short {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("short", false, "print the version only")
	versionCmd.Flags().String("format", "", "json or yaml build information")
}
