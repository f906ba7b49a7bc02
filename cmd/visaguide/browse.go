package main

import (
	"github.com/aretw0/visaguide/internal/cli"
	"github.com/aretw0/visaguide/internal/config"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Serve a read-only knowledge browser",
	Long:  `Starts an HTTP server that shows the decision trees, a node search and Mermaid flowcharts of every configured visa type.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd, func(cfg *config.Config) {
			if cmd.Flags().Changed("addr") {
				cfg.BrowseAddr, _ = cmd.Flags().GetString("addr")
			}
		})
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, stop := signalContext()
		defer stop()
		return cli.Browse(ctx, app, app.Config.BrowseAddr)
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
	browseCmd.Flags().String("addr", ":8090", "Address to listen on")
}
