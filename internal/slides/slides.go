// Package slides extracts per-page text from slide decks.
package slides

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"slidealign/internal/align"
)

var (
	// ErrUnsupportedFormat is returned for deck files that are neither PDF nor text.
	ErrUnsupportedFormat = errors.New("unsupported slide deck format")
	// ErrMalformed is returned for PDF files that cannot be parsed.
	ErrMalformed = errors.New("malformed pdf")
)

// Supported reports whether name has an extension this package can read.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".txt", ".md":
		return true
	}
	return false
}

// LoadFile reads the deck at path.
func LoadFile(path string) (align.Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read slides: %w", err)
	}
	return Parse(filepath.Base(path), data)
}

// Parse reads a deck from memory, choosing the format by file name.
func Parse(name string, data []byte) (align.Deck, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return ReadPDF(bytes.NewReader(data), int64(len(data)))
	case ".txt", ".md":
		return ReadText(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// ReadPDF returns one slide per page, numbered from 1. Pages the document
// cannot resolve are skipped and leave a gap in the numbering; pages without
// content become empty slides.
func ReadPDF(r io.ReaderAt, size int64) (deck align.Deck, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			deck, err = nil, fmt.Errorf("%w: %v", ErrMalformed, rec)
		}
	}()
	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	n := doc.NumPage()
	deck = make(align.Deck, 0, n)
	for i := 1; i <= n; i++ {
		p := doc.Page(i)
		if p.V.IsNull() {
			continue
		}
		text := ""
		if !p.V.Key("Contents").IsNull() {
			text, err = p.GetPlainText(nil)
			if err != nil {
				return nil, fmt.Errorf("%w: extract page %d: %v", ErrMalformed, i, err)
			}
		}
		deck = append(deck, align.Slide{Page: i, Text: strings.TrimSpace(text)})
	}
	return deck, nil
}

// ReadText splits a plain text deck into pages on form feeds or lines that
// consist of "---". Empty pages are kept.
func ReadText(r io.Reader) (align.Deck, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var deck align.Deck
	var cur strings.Builder
	flush := func() {
		deck = append(deck, align.Slide{Page: len(deck) + 1, Text: strings.TrimSpace(cur.String())})
		cur.Reset()
	}
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "---" {
			flush()
			continue
		}
		parts := strings.Split(line, "\f")
		for i, part := range parts {
			if i > 0 {
				flush()
			}
			cur.WriteString(part)
		}
		cur.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read slides: %w", err)
	}
	if strings.TrimSpace(cur.String()) != "" || len(deck) > 0 {
		flush()
	}
	return deck, nil
}
