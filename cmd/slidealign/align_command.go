package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"slidealign/internal/service"
)

type alignFlags struct {
	slides      string
	transcripts []string
	windowSize  int
	threshold   float64
	format      string
}

func (f *alignFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.slides, "slides", "s", "", "Slide deck (.pdf, .txt or .md)")
	cmd.Flags().StringArrayVarP(&f.transcripts, "transcript", "t", nil, "Transcript file (.txt or .srt); repeat to merge several in order")
	cmd.Flags().IntVarP(&f.windowSize, "window-size", "w", 0, "Sentences per window (default from config)")
	cmd.Flags().Float64Var(&f.threshold, "threshold", 0, "Minimum cosine similarity for a match (default from config)")
	_ = cmd.MarkFlagRequired("slides")
	_ = cmd.MarkFlagRequired("transcript")
}

// params overlays the flags the user actually set on the defaults.
func (f *alignFlags) params(cmd *cobra.Command, defaults service.Params) service.Params {
	p := defaults
	if cmd.Flags().Changed("window-size") {
		p.WindowSize = f.windowSize
	}
	if cmd.Flags().Changed("threshold") {
		p.Threshold = f.threshold
	}
	return p
}

// process loads the lecture named by the flags and aligns it.
func (f *alignFlags) process(cmd *cobra.Command, ctx *commandContext) (*service.Outcome, error) {
	rt, err := ctx.newRuntime(cmd.Context(), false)
	if err != nil {
		return nil, err
	}
	defer rt.Close()

	lec, err := rt.svc.LoadLecture(f.slides, f.transcripts...)
	if err != nil {
		return nil, err
	}
	return rt.svc.Process(cmd.Context(), lec, f.params(cmd, rt.svc.Defaults()))
}

func newAlignCommand(ctx *commandContext) *cobra.Command {
	flags := &alignFlags{}
	cmd := &cobra.Command{
		Use:   "align",
		Short: "Attribute transcript sentences to slides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(flags.format); err != nil {
				return err
			}
			out, err := flags.process(cmd, ctx)
			if err != nil {
				return err
			}
			if flags.format == "json" {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			printOutcome(cmd.OutOrStdout(), out)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&flags.format, "format", "f", "table", "Output format: table or json")
	return cmd
}

func printOutcome(w io.Writer, out *service.Outcome) {
	rows := make([][]string, 0, len(out.Result.Slides)+1)
	for _, s := range out.Result.Slides {
		first := ""
		if len(s.Transcripts) > 0 {
			first = s.Transcripts[0]
		}
		rows = append(rows, []string{
			strconv.Itoa(s.Page),
			truncate(s.Content, 40),
			strconv.Itoa(len(s.Transcripts)),
			truncate(first, 60),
		})
	}
	if len(out.Result.Unmatched) > 0 {
		rows = append(rows, []string{"-", "(unmatched)", strconv.Itoa(len(out.Result.Unmatched)), truncate(out.Result.Unmatched[0], 60)})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Slide", "Content", "Sentences", "First sentence"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintf(w, "%s\nRun %s (window size %d, threshold %.2f)\n",
		out.Message(), out.RunID, out.Params.WindowSize, out.Params.Threshold)
}
