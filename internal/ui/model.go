package ui

import (
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"xselect/internal/domain"
	"xselect/internal/eventbus"
	"xselect/internal/ui/controller"
	"xselect/internal/ui/views"
)

// dropdownHeight is the number of options visible at once
const dropdownHeight = 10

// Model is the terminal host for one select widget.
// It forwards keys to the controller and repaints from its snapshot.
type Model struct {
	ctrl     *controller.Controller
	renderer *views.Renderer
	logger   *slog.Logger
	title    string

	keys    keyMap
	help    help.Model
	input   textinput.Model
	spinner spinner.Model

	width       int
	height      int
	cursor      int
	status      string
	inPagerMode bool

	pager   *PagerOps
	program *tea.Program
}

// NewModel creates a new UI model around ctrl
func NewModel(ctrl *controller.Controller, title string) *Model {
	cfg := ctrl.Config()

	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = cfg.Contents.SearchPlaceholder

	return &Model{
		ctrl:     ctrl,
		renderer: views.NewRenderer(),
		logger:   cfg.Logger,
		title:    title,
		keys:     defaultKeyMap(),
		help:     help.New(),
		input:    input,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
	m.pager = NewPagerOps(p)
}

// Selected returns the current selection
func (m *Model) Selected() []domain.Option {
	return m.ctrl.Selected()
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EventMsg:
		return m, m.handleEvent(msg.Event)

	case spinner.TickMsg:
		if m.inPagerMode {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pauseRenderingMsg:
		m.inPagerMode = true
		return m, nil

	case resumeRenderingMsg:
		m.inPagerMode = false
		return m, m.spinner.Tick

	case optionsPagerMsg:
		if msg.err != nil {
			m.logger.Error("options pager failed", slog.String("error", msg.err.Error()))
			m.status = "Pager unavailable"
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle):
		m.ctrl.Toggle()
		return m, m.syncInput()

	case key.Matches(msg, m.keys.Close):
		m.ctrl.Close()
		return m, m.syncInput()

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.Select):
		snap := m.ctrl.Snapshot()
		if !snap.Open {
			m.ctrl.Open()
			return m, m.syncInput()
		}
		if m.cursor < len(snap.FilteredData) {
			m.ctrl.Select(snap.FilteredData[m.cursor])
		}
		return m, m.syncInput()

	case key.Matches(msg, m.keys.Clear):
		if err := m.ctrl.Clear(); errors.Is(err, domain.ErrRequired) {
			m.status = "A value is required"
		}
		return m, nil

	case key.Matches(msg, m.keys.Pager):
		return m, m.showOptionsPager()
	}

	// Everything else edits the search text; typing opens the dropdown
	var cmds []tea.Cmd
	if !m.ctrl.Snapshot().Open && msg.Type == tea.KeyRunes {
		m.ctrl.Open()
		cmds = append(cmds, m.syncInput())
	}
	if !m.input.Focused() {
		return m, tea.Batch(cmds...)
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	if after := m.input.Value(); after != before {
		m.cursor = 0
		m.ctrl.SetSearchText(after)
	}
	return m, tea.Batch(cmds...)
}

// handleEvent processes domain events from the bus
func (m *Model) handleEvent(e eventbus.DomainEvent) tea.Cmd {
	switch event := e.(type) {
	case eventbus.DropdownToggledEvent:
		return m.syncInput()
	case eventbus.StateChangedEvent:
		m.clampCursor()
	case eventbus.DataReplacedEvent:
		m.cursor = 0
	case eventbus.FetchFailedEvent:
		m.logger.Debug("fetch failure shown", slog.String("query", event.Query))
	}
	return nil
}

// syncInput focuses the search field while the dropdown is open
func (m *Model) syncInput() tea.Cmd {
	snap := m.ctrl.Snapshot()
	switch {
	case snap.Open && !m.input.Focused():
		m.cursor = 0
		return m.input.Focus()
	case !snap.Open && m.input.Focused():
		m.input.Blur()
		m.input.Reset()
	}
	m.clampCursor()
	return nil
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.ctrl.Snapshot().FilteredData)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// showOptionsPager returns a command that pages the full dataset with ov
func (m *Model) showOptionsPager() tea.Cmd {
	if m.pager == nil {
		return nil
	}
	content := views.PlainOptions(m.ctrl.Options(), m.ctrl.Snapshot())
	return func() tea.Msg {
		m.program.Send(pauseRenderingMsg{})
		err := m.pager.ShowOptionsInPager(content)
		m.program.Send(resumeRenderingMsg{})
		return optionsPagerMsg{err: err}
	}
}

// View renders the UI
func (m *Model) View() string {
	cfg := m.ctrl.Config()
	needsMore, minLen := m.ctrl.NeedsMoreInput()

	return m.renderer.Render(views.ViewState{
		Width:          m.width,
		Title:          m.title,
		Snapshot:       m.ctrl.Snapshot(),
		Placeholder:    cfg.Placeholder,
		AllowClear:     cfg.AllowClear,
		Required:       cfg.Required,
		Contents:       cfg.Contents,
		SearchInput:    m.input.View(),
		Spinner:        m.spinner.View(),
		Cursor:         m.cursor,
		ViewportHeight: dropdownHeight,
		NeedsMoreInput: needsMore,
		MinInputLength: minLen,
		StatusMessage:  m.status,
		Help:           m.help.View(m.keys),
		RenderOption:   cfg.RenderOption,
		RenderSelected: cfg.RenderSelected,
	})
}
