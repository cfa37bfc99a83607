package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var dumpConfigCmd = &cobra.Command{
	Use:   "dumpconfig [FILE]",
	Short: "Export the effective configuration as TOML",
	Long: `Export the configuration that results from defaults, --config and flags. The
output is written to FILE if given, otherwise to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := tomlSettings.Marshal(&cfg)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			if err := os.WriteFile(args[0], out, 0o644); err != nil {
				return errors.Wrap(err, "failed to write config")
			}
			return nil
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(dumpConfigCmd)
}
