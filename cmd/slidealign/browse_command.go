package main

import (
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"slidealign/internal/summarizer"
	"slidealign/internal/tui"
)

func newBrowseCommand(ctx *commandContext) *cobra.Command {
	flags := &alignFlags{}
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Align a lecture and browse the result slide by slide",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := flags.process(cmd, ctx)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			m := tui.New(filepath.Base(flags.slides), out.Result, summarizer.NewFrequencySummarizer(), cfg.Summarizer.MaxSentences)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	flags.register(cmd)
	return cmd
}
