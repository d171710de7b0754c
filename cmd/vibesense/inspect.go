package main

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nao1215/vibesense/internal/clipboard"
	"github.com/nao1215/vibesense/internal/tui"
)

// NewInspectCmd creates the inspect command.
func NewInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <url-or-file>",
		Short: "Scan interactively and toggle highlights on the live page",
		Long: `Inspect opens an interactive view of one page. Press s to scan, select an
issue with the arrow keys, press enter to show or hide its elements on the
page and c to copy the AI prompt to the clipboard.

Highlights are drawn in the browser, so inspect is most useful with
--browser --no-headless. Every scan reloads the page first.

Keys:
  s          scan the page (disabled while a scan runs)
  ↑/↓ j/k    select an issue
  enter, h   show or hide the issue on the page
  c          copy the prompt
  q          quit

Examples:
  vibesense inspect --browser --no-headless http://localhost:3000`,
		Args: cobra.ExactArgs(1),
		RunE: runInspectCmd,
	}

	addPageFlags(cmd)

	return cmd
}

// runInspectCmd executes the inspect command.
func runInspectCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildPageConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	ctx, cancel := signalContext(logger)
	defer cancel()

	target := cfg.Targets[0]
	sess, src, err := newSession(cfg, target, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	m := tui.New(ctx, sess,
		tui.WithTarget(target),
		tui.WithClipboardAvailable(clipboard.NewSystem().Available()),
	)

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("inspector failed: %w", err)
	}
	return nil
}
