package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"slidealign/internal/align"
	"slidealign/internal/embedding"
	"slidealign/internal/metrics"
	"slidealign/internal/slides"
	"slidealign/internal/store"
	"slidealign/internal/transcript"
)

// RunStore persists finished runs.
type RunStore interface {
	Save(ctx context.Context, run store.Run) error
}

// Recorder observes finished runs.
type Recorder interface {
	ObserveRun(status string, elapsed time.Duration, matched, total int)
}

// Params are the tunable alignment parameters of one run.
type Params struct {
	WindowSize int     `json:"window_size"`
	Threshold  float64 `json:"similarity_threshold"`
}

// Lecture is a slide deck plus its cleaned transcript.
type Lecture struct {
	Deck              align.Deck
	Sentences         []string
	SlidesSource      string
	TranscriptSources []string
}

// Outcome is the result of processing one lecture.
type Outcome struct {
	RunID     string        `json:"run_id"`
	CreatedAt time.Time     `json:"created_at"`
	Params    Params        `json:"parameters"`
	Result    *align.Result `json:"result"`
	// Stored is false when no store is configured or saving failed.
	Stored bool `json:"-"`
}

// Message is the human readable summary of the outcome.
func (o *Outcome) Message() string {
	return fmt.Sprintf("Lecture processed successfully. Matched %d transcript segments to %d of %d slides.",
		o.Result.MatchedSentences(), o.Result.MatchedSlides(), len(o.Result.Slides))
}

// Options carries the optional collaborators of AlignService.
type Options struct {
	Store   RunStore
	Metrics Recorder
	Logger  *slog.Logger
}

// AlignService turns lectures into slide-aligned transcripts.
type AlignService struct {
	embedder embedding.Embedder
	cleaner  *transcript.Cleaner
	defaults Params
	store    RunStore
	metrics  Recorder
	logger   *slog.Logger
}

// NewAlignService wires the service. The embedder is shared by all runs; a
// corpus fitted embedder is fitted afresh for every run.
func NewAlignService(emb embedding.Embedder, cleaner *transcript.Cleaner, defaults Params, opts Options) *AlignService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AlignService{
		embedder: emb,
		cleaner:  cleaner,
		defaults: defaults,
		store:    opts.Store,
		metrics:  opts.Metrics,
		logger:   logger,
	}
}

// Defaults returns the configured default parameters.
func (s *AlignService) Defaults() Params { return s.defaults }

// LoadLecture reads a deck and one or more transcript files from disk.
func (s *AlignService) LoadLecture(slidesPath string, transcriptPaths ...string) (Lecture, error) {
	if len(transcriptPaths) == 0 {
		return Lecture{}, fmt.Errorf("%w: no transcript files given", align.ErrEmptyInput)
	}
	deck, err := slides.LoadFile(slidesPath)
	if err != nil {
		return Lecture{}, err
	}
	sentences, err := s.cleaner.LoadFiles(transcriptPaths...)
	if err != nil {
		return Lecture{}, err
	}
	sources := make([]string, len(transcriptPaths))
	for i, p := range transcriptPaths {
		sources[i] = filepath.Base(p)
	}
	return Lecture{
		Deck:              deck,
		Sentences:         sentences,
		SlidesSource:      filepath.Base(slidesPath),
		TranscriptSources: sources,
	}, nil
}

// ParseLecture builds a lecture from uploaded file contents.
func (s *AlignService) ParseLecture(slidesName string, slidesData []byte, transcriptName string, transcriptData []byte) (Lecture, error) {
	deck, err := slides.Parse(slidesName, slidesData)
	if err != nil {
		return Lecture{}, err
	}
	sentences, err := s.cleaner.Read(strings.NewReader(string(transcriptData)), transcript.FormatOf(transcriptName))
	if err != nil {
		return Lecture{}, err
	}
	return Lecture{
		Deck:              deck,
		Sentences:         sentences,
		SlidesSource:      slidesName,
		TranscriptSources: []string{transcriptName},
	}, nil
}

// Process aligns one lecture. Saving the run is best effort: a store failure is
// logged and reported through Outcome.Stored.
func (s *AlignService) Process(ctx context.Context, lec Lecture, p Params) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := s.logger.With("slides", len(lec.Deck), "sentences", len(lec.Sentences),
		"window_size", p.WindowSize, "similarity_threshold", p.Threshold)
	start := time.Now()

	res, err := s.await(ctx, lec, p, logger)
	elapsed := time.Since(start)
	if err != nil {
		s.observe(metrics.StatusError, elapsed, 0, 0)
		logger.Error("alignment failed", "error", err, "duration", elapsed)
		return nil, err
	}
	s.observe(metrics.StatusOK, elapsed, res.MatchedSentences(), len(lec.Sentences))

	out := &Outcome{RunID: uuid.NewString(), CreatedAt: start, Params: p, Result: res}
	if res.MatchedSlides() == 0 {
		logger.Warn("no transcripts were matched to any slides; the similarity threshold may be too high or the content does not match")
	}
	logger.Info(fmt.Sprintf("matched %d transcript segments to %d of %d slides",
		res.MatchedSentences(), res.MatchedSlides(), len(res.Slides)),
		"run_id", out.RunID, "unmatched", len(res.Unmatched), "duration", elapsed)

	if s.store != nil {
		run := store.Run{
			ID:               out.RunID,
			CreatedAt:        out.CreatedAt,
			WindowSize:       p.WindowSize,
			Threshold:        p.Threshold,
			SlidesSource:     lec.SlidesSource,
			TranscriptSource: strings.Join(lec.TranscriptSources, ","),
			Result:           res,
		}
		if err := s.store.Save(ctx, run); err != nil {
			logger.Error("save run failed", "run_id", out.RunID, "error", err)
		} else {
			out.Stored = true
		}
	}
	return out, nil
}

type runResult struct {
	res *align.Result
	err error
}

// await runs the alignment in the background and gives up when ctx is done.
// An abandoned run finishes on its own and its result is dropped.
func (s *AlignService) await(ctx context.Context, lec Lecture, p Params, logger *slog.Logger) (*align.Result, error) {
	done := make(chan runResult, 1)
	go func() {
		res, err := s.run(ctx, lec, p, logger)
		done <- runResult{res: res, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err == nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return r.res, r.err
	}
}

func (s *AlignService) run(ctx context.Context, lec Lecture, p Params, logger *slog.Logger) (*align.Result, error) {
	if len(lec.Deck) == 0 {
		return nil, fmt.Errorf("%w: no pages could be extracted from the slides", align.ErrEmptyInput)
	}
	if len(lec.Sentences) == 0 {
		return nil, fmt.Errorf("%w: no transcripts could be processed from the file", align.ErrEmptyInput)
	}
	if p.WindowSize < 1 {
		return nil, fmt.Errorf("%w: window size must be at least 1, got %d", align.ErrInvalidConfig, p.WindowSize)
	}

	corpus := append(lec.Deck.Texts(), lec.Sentences...)
	emb, err := embedding.Prepare(s.embedder, corpus)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return align.Run(emb, lec.Deck, align.NewSentences(lec.Sentences), align.Options{
		WindowSize: p.WindowSize,
		Threshold:  p.Threshold,
		Logger:     logger,
	})
}

func (s *AlignService) observe(status string, elapsed time.Duration, matched, total int) {
	if s.metrics != nil {
		s.metrics.ObserveRun(status, elapsed, matched, total)
	}
}

// IsBadInput reports whether err was caused by the caller's input rather than
// by the service.
func IsBadInput(err error) bool {
	return errors.Is(err, align.ErrEmptyInput) ||
		errors.Is(err, align.ErrInvalidConfig) ||
		errors.Is(err, embedding.ErrEmptyCorpus) ||
		errors.Is(err, slides.ErrUnsupportedFormat) ||
		errors.Is(err, slides.ErrMalformed)
}
