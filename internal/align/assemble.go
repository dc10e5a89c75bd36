package align

// SlideTranscript is the transcript attributed to one slide.
type SlideTranscript struct {
	Page        int      `json:"slide_number"`
	Content     string   `json:"content"`
	Transcripts []string `json:"transcripts"`
}

// Result is the outcome of one alignment run. Slides follows deck order and
// always contains every deck page.
type Result struct {
	Slides    []SlideTranscript `json:"slides"`
	Unmatched []string          `json:"unmatched_transcripts"`
}

// Slide returns the transcript entry for page.
func (r *Result) Slide(page int) (SlideTranscript, bool) {
	for _, s := range r.Slides {
		if s.Page == page {
			return s, true
		}
	}
	return SlideTranscript{}, false
}

// MatchedSentences counts sentences attributed to any slide.
func (r *Result) MatchedSentences() int {
	n := 0
	for _, s := range r.Slides {
		n += len(s.Transcripts)
	}
	return n
}

// MatchedSlides counts slides with at least one transcript sentence.
func (r *Result) MatchedSlides() int {
	n := 0
	for _, s := range r.Slides {
		if len(s.Transcripts) > 0 {
			n++
		}
	}
	return n
}

// Assemble turns chunks into a per-slide result. Every deck slide is present even
// when no chunk targeted it; a chunk for a page missing from the deck gets an
// entry of its own after the deck slides. Unmatched lists each distinct sentence
// text that ended up on no slide, in transcript order.
func Assemble(chunks []Chunk, deck Deck, sentences []Sentence) *Result {
	res := &Result{
		Slides:    make([]SlideTranscript, 0, len(deck)),
		Unmatched: []string{},
	}
	pos := make(map[int]int, len(deck))
	for _, s := range deck {
		pos[s.Page] = len(res.Slides)
		res.Slides = append(res.Slides, SlideTranscript{Page: s.Page, Content: s.Text, Transcripts: []string{}})
	}

	matched := make(map[string]struct{})
	for _, c := range chunks {
		if !c.Matched() {
			continue
		}
		i, ok := pos[c.Page]
		if !ok {
			i = len(res.Slides)
			pos[c.Page] = i
			res.Slides = append(res.Slides, SlideTranscript{Page: c.Page, Transcripts: []string{}})
		}
		res.Slides[i].Transcripts = append(res.Slides[i].Transcripts, c.Sentences...)
		for _, text := range c.Sentences {
			matched[text] = struct{}{}
		}
	}

	for _, s := range sentences {
		if _, ok := matched[s.Text]; ok {
			continue
		}
		matched[s.Text] = struct{}{}
		res.Unmatched = append(res.Unmatched, s.Text)
	}
	return res
}
