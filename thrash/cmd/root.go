// Package cmd provides the command-line interface for thrash.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "thrash",
	Short: "Thrash simulates set-associative caches.",
	Long: `Thrash replays address traces through a simulated ` +
		`set-associative cache and reports hits and misses. It can also ` +
		`generate cache channel declarations for instrumented programs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		return loadEnvFile(envFile)
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env",
		"File to read THRASH_* settings from. Missing files are ignored.")
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Exiting goes through atexit so that open recordings are
// flushed.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
