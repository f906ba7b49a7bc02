package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/visaguide"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of visaguide",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("visaguide version %s\n", strings.TrimSpace(visaguide.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
