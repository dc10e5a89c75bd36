package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"slidealign/internal/store"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored alignment runs",
	}
	cmd.AddCommand(newRunsListCommand(ctx))
	cmd.AddCommand(newRunsShowCommand(ctx))
	return cmd
}

func openRuns(cmd *cobra.Command, ctx *commandContext) (*store.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Store.Enabled {
		return nil, errors.New("run history is disabled (set store.enabled in the config)")
	}
	return store.Open(cmd.Context(), cfg.Store.Path)
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			st, err := openRuns(cmd, ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if format == "json" {
				return writeJSON(cmd.OutOrStdout(), runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs stored")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.ID,
					r.CreatedAt.Local().Format(time.DateTime),
					truncate(r.SlidesSource, 30),
					strconv.Itoa(r.SlideCount),
					strconv.Itoa(r.Matched),
					strconv.Itoa(r.Unmatched),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Created", "Slides", "Pages", "Matched", "Unmatched"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table or json")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the alignment stored for one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			st, err := openRuns(cmd, ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			run, err := st.Get(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("run %s not found", args[0])
			}
			if err != nil {
				return err
			}
			if format == "json" {
				return writeJSON(cmd.OutOrStdout(), run)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s\n", run.ID)
			fmt.Fprintf(out, "Created:    %s\n", run.CreatedAt.Local().Format(time.DateTime))
			fmt.Fprintf(out, "Slides:     %s\n", run.SlidesSource)
			fmt.Fprintf(out, "Transcript: %s\n", run.TranscriptSource)
			fmt.Fprintf(out, "Parameters: window size %d, threshold %.2f\n\n", run.WindowSize, run.Threshold)
			if run.Result == nil {
				return nil
			}
			rows := make([][]string, 0, len(run.Result.Slides))
			for _, s := range run.Result.Slides {
				first := ""
				if len(s.Transcripts) > 0 {
					first = s.Transcripts[0]
				}
				rows = append(rows, []string{strconv.Itoa(s.Page), strconv.Itoa(len(s.Transcripts)), truncate(first, 60)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Slide", "Sentences", "First sentence"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "Unmatched sentences: %d\n", len(run.Result.Unmatched))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table or json")
	return cmd
}
