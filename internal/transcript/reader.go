package transcript

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format is the layout of a transcript file.
type Format int

const (
	// Plain has one utterance per line.
	Plain Format = iota
	// SRT is a SubRip caption file.
	SRT
)

// FormatOf guesses the format from a file name.
func FormatOf(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".srt") {
		return SRT
	}
	return Plain
}

// ReadLines returns the text lines of r. For SRT input, sequence numbers,
// timing lines and blank lines are dropped.
func ReadLines(r io.Reader, format Format) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if format == SRT {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || isDigitOnly(trimmed) || strings.Contains(trimmed, "-->") {
				continue
			}
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return lines, nil
}

// Read parses and cleans one transcript.
func (c *Cleaner) Read(r io.Reader, format Format) ([]string, error) {
	lines, err := ReadLines(r, format)
	if err != nil {
		return nil, err
	}
	return c.Clean(lines), nil
}

// LoadFiles reads and cleans every file in order and merges the sentences.
func (c *Cleaner) LoadFiles(paths ...string) ([]string, error) {
	var out []string
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("open transcript: %w", err)
		}
		sentences, err := c.Read(f, FormatOf(p))
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		out = append(out, sentences...)
	}
	return out, nil
}

func isDigitOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
