package main

import (
	"github.com/spf13/cobra"
)

// RootCommand builds the stagehand command tree: serve (the daemon),
// start/stop/status (the control-plane client), and the hidden worker
// subcommand the supervisor self-execs into.
func RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "stagehand",
		Short: "Live stage-assistant backend",
	}

	var configPath string
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to settings.yaml")

	root.AddCommand(
		serveCommand(&configPath),
		workerCommand(&configPath),
		startCommand(&configPath),
		stopCommand(&configPath),
		statusCommand(&configPath),
	)
	return root
}
