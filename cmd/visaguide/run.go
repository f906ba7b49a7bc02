package main

import (
	"os"

	"github.com/aretw0/visaguide/internal/cli"
	"github.com/aretw0/visaguide/internal/config"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an eligibility assessment",
	Long: `Starts an assessment. With --visa the decision tree of that visa type is
walked; without it (or with --flat) the general questionnaire is asked and
evaluated against every visa type.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd, func(cfg *config.Config) {
			if dir, _ := cmd.Flags().GetString("report-dir"); dir != "" {
				cfg.ReportDir = dir
			}
		})
		if err != nil {
			return err
		}
		defer app.Close()

		opts := cli.RunOptions{VisaType: app.Config.DefaultVisa}
		if cmd.Flags().Changed("visa") {
			opts.VisaType, _ = cmd.Flags().GetString("visa")
		}
		if flat, _ := cmd.Flags().GetBool("flat"); flat {
			opts.VisaType = ""
		}
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Plain, _ = cmd.Flags().GetBool("plain")
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")

		ctx, stop := signalContext()
		defer stop()
		return cli.Run(ctx, app, opts, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("visa", "", "Visa type whose decision tree is walked")
	runCmd.Flags().Bool("flat", false, "Ask the general questionnaire even if a default visa is configured")
	runCmd.Flags().Bool("json", false, "Run in JSON mode (JSON-Lines input/output)")
	runCmd.Flags().Bool("plain", false, "Use line based prompts even on a terminal")
	runCmd.Flags().BoolP("quiet", "q", false, "Skip the banner")
	runCmd.Flags().String("report-dir", "", "Directory PDF reports are written to")

	// 'run' is the default if no command is provided.
	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
