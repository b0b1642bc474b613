package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for uxaudit.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uxaudit",
		Short: "Visual conversion audits of web pages",
		Long: `uxaudit screenshots a web page, has a vision model point out what hurts
conversion, annotates the screenshot with the findings and builds a report.

API keys are read from the environment:
  FIRECRAWL_API_KEY  screenshot capture (firecrawl backend)
  GOOGLE_API_KEY     analysis with Gemini`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .uxaudit in current or home directory)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
