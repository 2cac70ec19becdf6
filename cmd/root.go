package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zumgugger/reformat-sub001/internal/startup"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "reformat",
	Short: "reformat - batch image conversion at the command line",
	Long: `reformat converts batches of images: format, size, orientation and crop
in one pass, with bounded concurrency and collision-free output naming.`,
	Version:       startup.VersionString(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default "+`"reformat.yaml"`+")")
}
