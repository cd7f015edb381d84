package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "waypoints",
	Short: "Segment motion-classified location samples into visits and paths",
	Long:  "Waypoints turns a stream of motion-classified location samples into a compact, chronologically linked history of stationary visits and in-transit paths. Single Go binary.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
}
