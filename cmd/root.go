package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sketchmesh/sketchmesh/internal/ui"
	"github.com/sketchmesh/sketchmesh/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "sketchmesh",
	Short:   "Serverless shared whiteboard over WebRTC",
	Long:    `SketchMesh turns any shared address into a collaborative drawing room. Everyone who joins the same address lands on the same board: sessions find each other through a stateless rendezvous relay, connect directly over WebRTC data channels, and replicate strokes peer to peer with no board server and no stored state.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
