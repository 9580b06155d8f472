// Package cli implements the host-side command tree: simulate
// instruction streams, dump pulse timelines, script the simulator
// from Lua, and bridge instructions to a real controller board.
package cli

import (
	"log"

	"github.com/spf13/cobra"
)

var profilePath string

var rootCmd = &cobra.Command{
	Use:   "stepcore",
	Short: "Multi-axis step pulse scheduling core",
	Long: `stepcore converts per-axis motion plans into precisely timed step
pulses on up to four CLK/DIR output slots. The subcommands run the
core against a simulated clock or bridge instructions to a board.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "machine.yaml",
		"machine profile file")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(scriptCmd)
	rootCmd.AddCommand(bridgeCmd)
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
