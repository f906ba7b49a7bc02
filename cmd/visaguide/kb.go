package main

import (
	"errors"
	"os"
	"strings"

	"github.com/aretw0/visaguide/internal/cli"
	"github.com/aretw0/visaguide/internal/config"
	"github.com/spf13/cobra"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Inspect visa knowledge bases",
}

// kbRenderCmd prints the decision tree of a visa type.
var kbRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the decision tree of a visa type",
	Long: `Walks the decision tree of a visa type and prints it as an indented tree,
a Mermaid flowchart or JSON. Cycles, missing nodes and excessive depth are
reported inline instead of aborting the walk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadKnowledgeApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		visa, err := visaFlag(cmd, app)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")

		ctx, stop := signalContext()
		defer stop()
		return cli.RenderKnowledge(ctx, app, visa, format, os.Stdout)
	},
}

var kbSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Find nodes by id or text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadKnowledgeApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		visa, err := visaFlag(cmd, app)
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()
		return cli.SearchKnowledge(ctx, app, visa, strings.Join(args, " "), os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(kbCmd)
	kbCmd.AddCommand(kbRenderCmd, kbSearchCmd)

	kbCmd.PersistentFlags().String("visa", "", "Visa type (defaults to the configured default visa)")
	kbCmd.PersistentFlags().String("dir", "", "Read knowledge bases from YAML files in this directory")
	kbRenderCmd.Flags().StringP("format", "f", cli.FormatText, "Output format (text, mermaid, json)")
}

func loadKnowledgeApp(cmd *cobra.Command) (*cli.App, error) {
	return loadApp(cmd, func(cfg *config.Config) {
		if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
			cfg.KnowledgeDir = dir
		}
	})
}

func visaFlag(cmd *cobra.Command, app *cli.App) (string, error) {
	visa, _ := cmd.Flags().GetString("visa")
	if visa == "" {
		visa = app.Config.DefaultVisa
	}
	if visa == "" {
		return "", errors.New("no visa type: use --visa or set default_visa")
	}
	return visa, nil
}
