package cmd

import (
	"fmt"

	"github.com/sarchlab/thrash/cache"
	"github.com/spf13/cobra"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in cache geometries.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range cache.PresetNames() {
				spec, err := cache.PresetByName(name)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", name, spec)
			}

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(newPresetsCmd())
}
