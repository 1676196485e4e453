package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"byproduct-catalog/internal/cli/ui"
	"byproduct-catalog/internal/model"
	"byproduct-catalog/internal/search"
)

const (
	defaultWindowWidth  = 100
	defaultWindowHeight = 30
	facetPanelWidth     = 36
	headerHeight        = 4
)

// Searcher is the part of search.Controller the TUI drives. Its methods are
// only called from commands, never from Update, because the controller sends
// state messages back into the program synchronously.
type Searcher interface {
	Snapshot() search.State
	ToggleFacetValue(key model.FacetKey, id string)
	ClearAll()
	Refresh()
}

// KeywordTyper receives every keyword edit; see search.KeywordDebouncer.
type KeywordTyper interface {
	Type(keyword string)
}

// StateMsg carries a new controller snapshot into the program.
type StateMsg struct{ State search.State }

type focus int

const (
	focusKeyword focus = iota
	focusFacets
)

// facetRow is one selectable line of the facet panel.
type facetRow struct {
	key   model.FacetKey
	value model.FacetValue
}

// SearchModel is the bubbletea model of the interactive search.
type SearchModel struct {
	searcher Searcher
	typer    KeywordTyper

	input  textinput.Model
	focus  focus
	state  search.State
	rows   []facetRow
	cursor int

	width  int
	height int
}

// NewSearchModel builds the model. The input starts with the keyword of the
// controller's current query.
func NewSearchModel(s Searcher, typer KeywordTyper) SearchModel {
	input := textinput.New()
	input.Placeholder = "search by-products"
	input.Prompt = "❯ "
	input.CharLimit = 200
	input.Width = defaultWindowWidth - facetPanelWidth - 4
	input.Focus()

	state := s.Snapshot()
	input.SetValue(state.Query.Keyword)

	return SearchModel{
		searcher: s,
		typer:    typer,
		input:    input,
		state:    state,
		width:    defaultWindowWidth,
		height:   defaultWindowHeight,
	}
}

// Init fetches the first page of results.
func (m SearchModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.call(m.searcher.Refresh))
}

// call runs fn off the event loop.
func (m SearchModel) call(fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return nil
	}
}

func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(10, m.width-facetPanelWidth-4)
		return m, nil

	case StateMsg:
		m.state = msg.State
		m.rows = flattenFacets(msg.State.FacetOptions)
		if m.cursor >= len(m.rows) {
			m.cursor = max(0, len(m.rows)-1)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m SearchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyTab:
		if m.focus == focusKeyword && len(m.rows) > 0 {
			m.focus = focusFacets
			m.input.Blur()
		} else {
			m.focus = focusKeyword
			m.input.Focus()
		}
		return m, nil
	case tea.KeyCtrlR:
		return m, m.call(m.searcher.Refresh)
	case tea.KeyCtrlX:
		return m, m.call(m.searcher.ClearAll)
	}

	if m.focus == focusFacets {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case " ", "space", "enter":
			if m.cursor < len(m.rows) {
				row := m.rows[m.cursor]
				return m, m.call(func() { m.searcher.ToggleFacetValue(row.key, row.value.ID) })
			}
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.typer.Type(after)
	}
	return m, cmd
}

func flattenFacets(options []model.FacetOption) []facetRow {
	var rows []facetRow
	for _, opt := range options {
		for _, v := range opt.Values {
			rows = append(rows, facetRow{key: opt.Key, value: v})
		}
	}
	return rows
}

func (m SearchModel) View() string {
	left := lipgloss.NewStyle().Width(max(20, m.width-facetPanelWidth-2)).Render(m.resultsView())
	right := lipgloss.NewStyle().Width(facetPanelWidth).Render(m.facetView())
	help := ui.Styles.Dim.Render("tab switch panel · space toggle · ctrl+x clear · ctrl+r refresh · esc quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		m.input.View(),
		m.statusLine(),
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		help,
	)
}

func (m SearchModel) statusLine() string {
	switch {
	case m.state.Err != nil:
		return ui.Styles.Error.Render(m.state.ErrorText())
	case m.state.Loading:
		return ui.Styles.Accent.Render("Loading…")
	default:
		return ui.Styles.Dim.Render(fmt.Sprintf("%d products", len(m.state.Products)))
	}
}

func (m SearchModel) resultsView() string {
	limit := max(1, (m.height-headerHeight)/2)
	var b strings.Builder
	for i, p := range m.state.Products {
		if i == limit {
			fmt.Fprintf(&b, "%s\n", ui.Styles.Dim.Render(fmt.Sprintf("… %d more", len(m.state.Products)-limit)))
			break
		}
		fmt.Fprintf(&b, "%s %s\n", ui.Styles.Bold.Render(p.Title), ui.Styles.Dim.Render(p.WeightLabel))
		fmt.Fprintf(&b, "  %s\n", ui.Styles.Dim.Render(p.ID))
	}
	return b.String()
}

func (m SearchModel) facetView() string {
	var b strings.Builder
	var current model.FacetKey
	for i, row := range m.rows {
		if row.key != current {
			current = row.key
			fmt.Fprintf(&b, "%s\n", ui.Styles.Title.Render(row.key.Label()))
		}
		mark := "[ ]"
		if m.state.Query.IsSelected(row.key, row.value.ID) {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s", mark, row.value.Name)
		switch {
		case m.focus == focusFacets && i == m.cursor:
			line = ui.Styles.Accent.Render("› " + line)
		case mark == "[x]":
			line = ui.Styles.Selected.Render("  " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// Run starts the interactive search. send must be wired to the controller's
// change listener before Run is called; it becomes live once the program
// exists.
func Run(s Searcher, typer KeywordTyper, bind func(send func(tea.Msg))) error {
	program := tea.NewProgram(NewSearchModel(s, typer), tea.WithAltScreen())
	bind(program.Send)
	_, err := program.Run()
	return err
}
