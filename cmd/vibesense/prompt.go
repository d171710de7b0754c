package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/vibesense/internal/config"
	"github.com/nao1215/vibesense/internal/model"
	"github.com/nao1215/vibesense/internal/report"
	"github.com/nao1215/vibesense/internal/session"
)

// promptSeparator divides prompts when several are printed or copied.
const promptSeparator = "\n\n---\n\n"

// NewPromptCmd creates the prompt command.
func NewPromptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt <url-or-file>",
		Short: "Print the AI prompt for an issue",
		Long: `Prompt scans a page and prints the AI prompt for the selected issue types.
The prompt names the page, the detected styling approach and the problem, and
asks an AI coding assistant for a fix.

Examples:
  # Print the prompt for every issue found
  vibesense prompt http://localhost:3000

  # Copy the empty-buttons prompt to the clipboard
  vibesense prompt --type empty-buttons --copy http://localhost:3000`,
		Args: cobra.ExactArgs(1),
		RunE: runPromptCmd,
	}

	addPageFlags(cmd)

	cmd.Flags().StringSlice("type", nil,
		"Issue type (repeatable; default: every issue found)")
	cmd.Flags().Bool("copy", false,
		"Copy the prompt to the clipboard instead of printing it")

	return cmd
}

// runPromptCmd executes the prompt command.
func runPromptCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildPageConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	typeValues, err := cmd.Flags().GetStringSlice("type")
	if err != nil {
		return err
	}
	types, err := parseTypes(typeValues)
	if err != nil {
		return err
	}

	copyPrompt, err := cmd.Flags().GetBool("copy")
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose)
	ctx, cancel := signalContext(logger)
	defer cancel()

	sess, src, err := newSession(cfg, cfg.Targets[0], logger)
	if err != nil {
		return err
	}
	defer src.Close()

	return runPrompt(ctx, sess, cfg, types, copyPrompt, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// runPrompt scans through sess and prints or copies the prompts.
func runPrompt(ctx context.Context, sess *session.Session, cfg *config.Config, types []model.IssueType, copyPrompt bool, stdout, stderr io.Writer) error {
	target := cfg.Targets[0]

	result, err := sess.Scan(ctx)
	if err != nil {
		return errors.New(scanErrorMessage(target, err))
	}

	indexes := make([]int, 0, len(result.Issues))
	if len(types) == 0 {
		for i := range result.Issues {
			indexes = append(indexes, i)
		}
	}
	for _, t := range types {
		index := issueIndex(result, t)
		if index < 0 {
			fmt.Fprintf(stderr, "No %s found.\n", report.TypeLabel(t))
			continue
		}
		indexes = append(indexes, index)
	}
	if len(indexes) == 0 {
		return errors.New("no matching issues on this page")
	}

	// A single issue goes through the session so clipboard failures surface
	// the same way they do in inspect.
	if copyPrompt && len(indexes) == 1 {
		if _, err := sess.CopyPrompt(indexes[0]); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Copied prompt for %s to the clipboard.\n", report.TypeLabel(result.Issues[indexes[0]].Type))
		return nil
	}

	prompts := make([]string, 0, len(indexes))
	for _, index := range indexes {
		text, err := sess.Prompt(index)
		if err != nil {
			return err
		}
		prompts = append(prompts, text)
	}
	joined := strings.Join(prompts, promptSeparator)

	if copyPrompt {
		if err := newClipboard().WriteText(joined); err != nil {
			var cwe *model.ClipboardWriteError
			if errors.As(err, &cwe) {
				return err
			}
			return &model.ClipboardWriteError{Err: err}
		}
		fmt.Fprintf(stderr, "Copied %d prompts to the clipboard.\n", len(prompts))
		return nil
	}

	_, err = fmt.Fprintln(stdout, joined)
	return err
}
