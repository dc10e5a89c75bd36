package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"slidealign/internal/align"
)

// Run is one persisted alignment.
type Run struct {
	ID               string        `json:"id"`
	CreatedAt        time.Time     `json:"created_at"`
	WindowSize       int           `json:"window_size"`
	Threshold        float64       `json:"similarity_threshold"`
	SlidesSource     string        `json:"slides_source"`
	TranscriptSource string        `json:"transcript_source"`
	SlideCount       int           `json:"slide_count"`
	Matched          int           `json:"matched_sentences"`
	Unmatched        int           `json:"unmatched_sentences"`
	Result           *align.Result `json:"result,omitempty"`
}

const runColumns = `id, created_at, window_size, threshold, slides_source, transcript_source,
	slide_count, matched_sentences, unmatched_sentences`

// Save inserts run. The summary columns are derived from run.Result.
func (s *Store) Save(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}
	if run.Result == nil {
		return errors.New("run result is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	payload, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO runs (`+runColumns+`, result_json) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.CreatedAt.UTC().Format(time.RFC3339Nano),
			run.WindowSize,
			run.Threshold,
			run.SlidesSource,
			run.TranscriptSource,
			len(run.Result.Slides),
			run.Result.MatchedSentences(),
			len(run.Result.Unmatched),
			string(payload),
		)
		return err
	})
}

// Get loads a run including its full result.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+`, result_json FROM runs WHERE id = ?`, id)
	var (
		run     Run
		payload string
	)
	if err := scanRun(row, &run, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	run.Result = &align.Result{}
	if err := json.Unmarshal([]byte(payload), run.Result); err != nil {
		return nil, fmt.Errorf("decode result of run %s: %w", id, err)
	}
	return &run, nil
}

// List returns run summaries without results, newest first. A non-positive
// limit returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		if err := scanRun(rows, &run, nil); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner, run *Run, payload *string) error {
	var created string
	dest := []any{
		&run.ID, &created, &run.WindowSize, &run.Threshold, &run.SlidesSource, &run.TranscriptSource,
		&run.SlideCount, &run.Matched, &run.Unmatched,
	}
	if payload != nil {
		dest = append(dest, payload)
	}
	if err := sc.Scan(dest...); err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return fmt.Errorf("parse created_at %q: %w", created, err)
	}
	run.CreatedAt = t
	return nil
}
