package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/rulesync/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print the version information of rulesync in JSON format.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		json, err := version.Get().JSON()
		if err != nil {
			return errors.Wrap(err, "failed to format version info")
		}
		fmt.Fprintln(cmd.OutOrStdout(), json)
		return nil
	},
}
