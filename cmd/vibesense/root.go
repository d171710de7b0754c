package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for VibeSense.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vibesense",
		Short: "UI and accessibility scanner that writes prompts for AI fixes",
		Long: `VibeSense scans web pages for common UI problems: buttons without a label,
images without alt text, deeply nested markup and elements wider than the
viewport. Each problem comes with CSS selectors of the offending elements
and a ready-to-paste prompt for an AI coding assistant.

By default pages are fetched and parsed as static HTML.
Use --browser to render them in Chrome first.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHighlightCmd())
	cmd.AddCommand(NewPromptCmd())
	cmd.AddCommand(NewInspectCmd())
	cmd.AddCommand(NewHistoryCmd())
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
