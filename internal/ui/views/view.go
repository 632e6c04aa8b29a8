package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"xselect/internal/config"
	"xselect/internal/domain"
	"xselect/internal/ui/state"
)

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width          int
	Title          string
	Snapshot       state.Snapshot
	Placeholder    string
	AllowClear     bool
	Required       bool
	Contents       config.Contents
	SearchInput    string // rendered search field
	Spinner        string // current spinner frame
	Cursor         int    // index into Snapshot.FilteredData
	ViewportHeight int
	NeedsMoreInput bool
	MinInputLength int
	StatusMessage  string
	Help           string
	RenderOption   func(domain.Option) string
	RenderSelected func([]domain.Option) string
}

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{styles: NewStyles()}
}

// Render produces the complete view
func (r *Renderer) Render(vs ViewState) string {
	content := &strings.Builder{}

	if vs.Title != "" {
		content.WriteString(r.styles.Title.Render(vs.Title))
		content.WriteString("\n")
	}

	content.WriteString(r.RenderTrigger(vs))
	content.WriteString("\n")

	if vs.Snapshot.Open {
		content.WriteString(r.RenderDropdown(vs))
		content.WriteString("\n")
	}

	if vs.StatusMessage != "" {
		content.WriteString(r.styles.StatusError.Render(vs.StatusMessage))
		content.WriteString("\n")
	}

	if vs.Help != "" {
		content.WriteString(r.styles.Help.Render(vs.Help))
	}

	return content.String()
}

// RenderTrigger renders the closed widget: the selection or the placeholder
func (r *Renderer) RenderTrigger(vs ViewState) string {
	snap := vs.Snapshot

	var label string
	switch {
	case !snap.HasSelection():
		label = r.styles.Placeholder.Render(vs.Placeholder)
	case vs.RenderSelected != nil:
		label = vs.RenderSelected(snap.Selected)
	case snap.Multiple:
		tags := make([]string, 0, len(snap.Selected))
		for _, o := range snap.Selected {
			tags = append(tags, r.styles.Tag.Render(o.Text))
		}
		label = strings.Join(tags, " ")
	default:
		label = snap.Selected[0].Text
	}

	arrow := "▾"
	style := r.styles.Trigger
	if snap.Open {
		arrow = "▴"
		style = r.styles.TriggerOpen
	}

	line := label
	if vs.AllowClear && !vs.Required && snap.HasSelection() {
		line += " " + r.styles.Clear.Render("×")
	}
	line += " " + arrow

	if w := triggerWidth(vs.Width); w > 0 {
		style = style.Width(w)
	}
	return style.Render(line)
}

// RenderDropdown renders the search field and the result list
func (r *Renderer) RenderDropdown(vs ViewState) string {
	var b strings.Builder
	b.WriteString(vs.SearchInput)
	b.WriteString("\n")
	b.WriteString(r.renderResults(vs))

	style := r.styles.Dropdown
	if w := triggerWidth(vs.Width); w > 0 {
		style = style.Width(w)
	}
	return style.Render(b.String())
}

func (r *Renderer) renderResults(vs ViewState) string {
	snap := vs.Snapshot

	switch {
	case snap.Error:
		return r.styles.StatusError.Render(vs.Contents.Error)
	case vs.NeedsMoreInput:
		return r.styles.Notice.Render(minLengthMessage(vs.Contents.MinInputLengthMessage, vs.MinInputLength))
	case snap.Loading:
		return r.styles.Loading.Render(strings.TrimSpace(vs.Spinner + " " + vs.Contents.Loading))
	case len(snap.FilteredData) == 0:
		return r.styles.Dim.Render(vs.Contents.EmptyMessage)
	}

	start, end := Window(len(snap.FilteredData), vs.Cursor, vs.ViewportHeight)
	lines := make([]string, 0, end-start+2)
	if start > 0 {
		lines = append(lines, r.styles.Scroll.Render(fmt.Sprintf("↑ %d more", start)))
	}
	for i := start; i < end; i++ {
		lines = append(lines, r.renderOption(vs, i))
	}
	if rest := len(snap.FilteredData) - end; rest > 0 {
		lines = append(lines, r.styles.Scroll.Render(fmt.Sprintf("↓ %d more", rest)))
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) renderOption(vs ViewState, i int) string {
	opt := vs.Snapshot.FilteredData[i]
	selected := vs.Snapshot.IsSelected(opt.ID)

	text := opt.Text
	if vs.RenderOption != nil {
		text = vs.RenderOption(opt)
	}

	marker := "  "
	if vs.Snapshot.Multiple {
		marker = "[ ] "
		if selected {
			marker = r.styles.Checked.Render("[x]") + " "
		}
	} else if selected {
		marker = r.styles.Checked.Render("✓") + " "
	}

	line := marker + text
	if i == vs.Cursor {
		return r.styles.SelectionBg.Render(r.styles.Highlight.Render("> ") + line)
	}
	return "  " + line
}

// Window returns the [start, end) range of a list of n items that keeps cursor visible
func Window(n, cursor, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start > n-height {
		start = n - height
	}
	return start, start + height
}

func minLengthMessage(format string, n int) string {
	if strings.Contains(format, "%d") {
		return fmt.Sprintf(format, n)
	}
	return format
}

func triggerWidth(termWidth int) int {
	if termWidth <= 0 {
		return 0
	}
	// borders and padding
	w := termWidth - 4
	if w > 60 {
		w = 60
	}
	return w
}

// PlainOptions renders the full dataset as text for the pager
func PlainOptions(opts []domain.Option, selected state.Snapshot) string {
	idStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	var b strings.Builder
	for _, o := range opts {
		mark := " "
		if selected.IsSelected(o.ID) {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %s  %s\n", mark, idStyle.Render(string(o.ID)), o.Text)
	}
	return b.String()
}
