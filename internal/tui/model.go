package tui

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"slidealign/internal/align"
)

// Summarizer picks the most representative sentences of a slide.
type Summarizer interface {
	Rank(sentences []string, maxSentences int) []string
}

type page struct {
	number    int // align.UnmatchedPage for the unmatched page
	content   string
	sentences []string
	summary   string
}

// Model is the Bubble Tea model for browsing an alignment result.
type Model struct {
	title     string
	pages     []page
	input     textinput.Model
	viewport  viewport.Model
	status    string
	cursor    int
	ready     bool
	lastQuery string
}

// New creates a browser over res. The last page lists unmatched sentences.
func New(title string, res *align.Result, sum Summarizer, summaryMax int) Model {
	pages := make([]page, 0, len(res.Slides)+1)
	for _, s := range res.Slides {
		p := page{number: s.Page, content: s.Content, sentences: s.Transcripts}
		if sum != nil && len(s.Transcripts) > 0 {
			p.summary = strings.Join(sum.Rank(s.Transcripts, summaryMax), " ")
		}
		pages = append(pages, p)
	}
	pages = append(pages, page{number: align.UnmatchedPage, sentences: res.Unmatched})

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Slide number or words to find, then Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	status := fmt.Sprintf("%d slides, %d matched sentences, %d unmatched. Up/down to browse.",
		len(res.Slides), res.MatchedSentences(), len(res.Unmatched))
	return Model{title: title, pages: pages, input: ti, viewport: vp, status: status}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around slide and query boxes
		_, rh := slideBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // header + summary
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentPage())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.jump(q)
				m.input.SetValue("")
				m.viewport.SetContent(m.renderCurrentPage())
				m.viewport.GotoTop()
				return m, nil
			}
		case "down", "pgdown":
			m.move(1)
			return m, nil
		case "up", "pgup":
			m.move(-1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) move(delta int) {
	m.cursor = (m.cursor + delta + len(m.pages)) % len(m.pages)
	m.lastQuery = ""
	m.status = ""
	m.viewport.SetContent(m.renderCurrentPage())
	m.viewport.GotoTop()
}

// jump goes to the slide numbered q, or to the next page whose transcript
// shares words with q.
func (m *Model) jump(q string) {
	if n, err := strconv.Atoi(q); err == nil {
		for i, p := range m.pages {
			if p.number == n && n != align.UnmatchedPage {
				m.cursor = i
				m.lastQuery = ""
				m.status = fmt.Sprintf("Slide %d", n)
				return
			}
		}
		m.status = fmt.Sprintf("No slide %d", n)
		return
	}

	qTokens := toTokenSet(q)
	for step := 1; step <= len(m.pages); step++ {
		i := (m.cursor + step) % len(m.pages)
		for _, s := range m.pages[i].sentences {
			if tokenOverlapScore(qTokens, s) > 0 {
				m.cursor = i
				m.lastQuery = q
				m.status = fmt.Sprintf("Found %q on %s", q, m.pages[i].label())
				return
			}
		}
	}
	m.status = fmt.Sprintf("No transcript mentions %q", q)
}

func (p page) label() string {
	if p.number == align.UnmatchedPage {
		return "unmatched sentences"
	}
	return fmt.Sprintf("slide %d", p.number)
}

// View renders the TUI layout and current page.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	p := m.pages[m.cursor]
	header := headerStyle.Render(fmt.Sprintf("%s  %s (%d/%d)", m.title, p.label(), m.cursor+1, len(m.pages)))
	summary := summaryStyle.Render(p.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	body := slideBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) renderCurrentPage() string {
	p := m.pages[m.cursor]
	var b strings.Builder
	if p.number != align.UnmatchedPage {
		content := strings.TrimSpace(p.content)
		if content == "" {
			content = "(no slide text)"
		}
		b.WriteString(contentStyle.Render(content))
		b.WriteString("\n\n")
	}
	if len(p.sentences) == 0 {
		b.WriteString("No transcript sentences.")
		return b.String()
	}
	b.WriteString(highlightBestSentence(p.sentences, m.lastQuery))
	return b.String()
}

var (
	slideBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle    = lipgloss.NewStyle().Bold(true)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	contentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

// highlightBestSentence renders one sentence per line and emphasizes the one
// sharing the most words with query.
func highlightBestSentence(sentences []string, query string) string {
	lines := make([]string, len(sentences))
	qTokens := toTokenSet(query)
	bestIdx, bestScore := -1, 0
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i, s := range sentences {
		line := "• " + strings.TrimSpace(s)
		if i == bestIdx {
			line = highlightStyle.Render(line)
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
