package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "advisor",
	Short: "Multi-agent financial Q&A orchestrator",
	Long: `advisor routes natural-language financial questions through guardrails,
intent detection and specialized agents, and synthesizes a single answer
with citations and disclaimers.`,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file")
}
