package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tiaanhavenga/DriveCatalogue/app"
	"github.com/tiaanhavenga/DriveCatalogue/models"
)

var (
	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
	inputStyle = lipgloss.NewStyle().
			Margin(1, 0, 0, 0)
	tableStyle = lipgloss.NewStyle().
			Margin(0, 0, 1, 0)
	rootsListStyle = lipgloss.NewStyle().
			Margin(0, 0, 1, 0)
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

const (
	searchMode = "search"
	configMode = "config"
)

type tuiModel struct {
	textInput    textinput.Model
	minSizeInput textinput.Model
	maxSizeInput textinput.Model
	table        table.Model
	rootsTable   table.Model

	engine   *app.Engine
	pageSize int

	results   []models.FileRecord
	fullPaths []string

	allRoots    []string
	rootPaths   map[string]string
	activeRoots map[string]bool
	minSize     int64
	maxSize     int64

	mode string
	err  error
}

func (m tuiModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	var enter = key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("⏎", "submit/open/toggle"),
	)
	var toggleFocus = key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "toggle focus"),
	)
	var configKey = key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("ctrl+p", "filters and roots"),
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, configKey):
			if m.mode == searchMode {
				m.mode = configMode
				m.textInput.Blur()
				m.table.Blur()
				m.minSizeInput.Focus()
			} else {
				m.mode = searchMode
				m.rootsTable.Blur()
				m.minSizeInput.Blur()
				m.maxSizeInput.Blur()
				m.textInput.Focus()
			}
			m.updateRootsTable()
			return m, nil

		case key.Matches(msg, enter):
			if m.mode == searchMode {
				if m.textInput.Focused() {
					m.runSearch()
					if m.err == nil {
						m.textInput.Blur()
						m.table.Focus()
					}
					return m, nil
				}
				if m.table.Focused() && len(m.results) > 0 {
					selected := m.table.Cursor()
					if selected < len(m.fullPaths) {
						if err := openFile(m.fullPaths[selected]); err != nil {
							m.err = err
						}
					}
					return m, nil
				}
			} else {
				switch {
				case m.minSizeInput.Focused():
					m.minSizeInput.Blur()
					m.maxSizeInput.Focus()
					return m, nil
				case m.maxSizeInput.Focused():
					if err := m.applySizeFilter(); err != nil {
						m.err = err
						return m, nil
					}
					m.err = nil
					m.maxSizeInput.Blur()
					m.rootsTable.Focus()
					return m, nil
				case m.rootsTable.Focused():
					selected := m.rootsTable.Cursor()
					if selected < len(m.allRoots) {
						alias := m.allRoots[selected]
						m.activeRoots[alias] = !m.activeRoots[alias]
						m.updateRootsTable()
					}
					return m, nil
				}
			}

		case key.Matches(msg, toggleFocus):
			if m.mode == searchMode {
				if m.textInput.Focused() {
					m.textInput.Blur()
					m.table.Focus()
				} else {
					m.table.Blur()
					m.textInput.Focus()
				}
			} else {
				switch {
				case m.minSizeInput.Focused():
					m.minSizeInput.Blur()
					m.maxSizeInput.Focus()
				case m.maxSizeInput.Focused():
					m.maxSizeInput.Blur()
					m.rootsTable.Focus()
				default:
					m.rootsTable.Blur()
					m.minSizeInput.Focus()
				}
			}
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
			if m.mode == configMode {
				m.mode = searchMode
				m.rootsTable.Blur()
				m.minSizeInput.Blur()
				m.maxSizeInput.Blur()
				m.textInput.Focus()
				return m, nil
			}
			return m, tea.Quit
		}

		if m.mode == searchMode {
			if m.textInput.Focused() {
				m.textInput, cmd = m.textInput.Update(msg)
				return m, cmd
			}
			if m.table.Focused() {
				m.table, cmd = m.table.Update(msg)
				return m, cmd
			}
			var tiCmd, tCmd tea.Cmd
			m.textInput, tiCmd = m.textInput.Update(msg)
			m.table, tCmd = m.table.Update(msg)
			return m, tea.Batch(tiCmd, tCmd)
		}
		if m.minSizeInput.Focused() {
			m.minSizeInput, cmd = m.minSizeInput.Update(msg)
			return m, cmd
		}
		if m.maxSizeInput.Focused() {
			m.maxSizeInput, cmd = m.maxSizeInput.Update(msg)
			return m, cmd
		}
		if m.rootsTable.Focused() {
			m.rootsTable, cmd = m.rootsTable.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(msg.Height - 11)
		m.rootsTable.SetWidth(msg.Width)
		m.rootsTable.SetHeight(msg.Height - 10)
		return m, nil
	}

	return m, nil
}

func (m tuiModel) View() string {
	var b strings.Builder

	instructions := "Enter to search or open, Tab to toggle focus, Ctrl+P for filters, Esc to quit."
	if m.mode == configMode {
		instructions = "Enter to apply size or toggle root, Tab to move, Ctrl+P or Esc to return."
	}

	if m.mode == searchMode {
		b.WriteString(inputStyle.Width(m.table.Width() - 4).Render(m.textInput.View()))
		b.WriteString("\n")

		var filters strings.Builder
		filters.WriteString("Roots: ")
		active := m.getActiveRoots()
		for i, alias := range active {
			badge := lipgloss.NewStyle().
				Background(lipgloss.Color(rootColor(alias))).
				Foreground(lipgloss.Color("229")).
				Padding(0, 1)
			filters.WriteString(badge.Render(alias))
			if i < len(active)-1 {
				filters.WriteString(" ")
			}
		}
		if m.minSize > 0 || m.maxSize > 0 {
			filters.WriteString("  size: ")
			if m.minSize > 0 {
				filters.WriteString(">" + humanize.IBytes(uint64(m.minSize)))
			}
			if m.maxSize > 0 {
				filters.WriteString(" <" + humanize.IBytes(uint64(m.maxSize)))
			}
		}
		b.WriteString(rootsListStyle.Width(m.table.Width() - 2).Render(filters.String()))
		b.WriteString("\n")

		if m.err != nil {
			b.WriteString(fmt.Sprintf("Error: %v\n", m.err))
		} else {
			b.WriteString(tableStyle.Render(m.table.View()))
		}
	} else {
		b.WriteString("Search Filters\n")
		minView := inputStyle.Render("Min size: " + m.minSizeInput.View())
		maxView := inputStyle.Render("Max size: " + m.maxSizeInput.View())
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, minView, "   ", maxView))
		b.WriteString("\n\nRoots\n")
		b.WriteString(rootsListStyle.Render(m.rootsTable.View()))
	}

	return baseStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left, b.String(), helpStyle.Render(instructions)),
	)
}

func (m *tuiModel) runSearch() {
	roots := m.getActiveRoots()
	if len(roots) == 0 {
		m.err = fmt.Errorf("no roots selected")
		return
	}

	q := models.Query{
		Name:    m.textInput.Value(),
		Roots:   roots,
		MinSize: m.minSize,
		MaxSize: m.maxSize,
		Limit:   m.pageSize,
	}
	results, err := m.engine.Search(q)
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.results = results
	m.updateTable()
}

func (m *tuiModel) applySizeFilter() error {
	m.minSize, m.maxSize = 0, 0
	if v := strings.TrimSpace(m.minSizeInput.Value()); v != "" {
		n, err := humanize.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("min size: %w", err)
		}
		m.minSize = int64(n)
	}
	if v := strings.TrimSpace(m.maxSizeInput.Value()); v != "" {
		n, err := humanize.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("max size: %w", err)
		}
		m.maxSize = int64(n)
	}
	return nil
}

func (m *tuiModel) updateTable() {
	rows := []table.Row{}
	m.fullPaths = make([]string, 0, len(m.results))
	for i := range m.results {
		rec := &m.results[i]
		size := "-"
		if !rec.IsDir {
			size = humanize.IBytes(uint64(rec.Size))
		}
		m.fullPaths = append(m.fullPaths, joinRecordPath(m.rootPaths[rec.Root], rec.Path))
		rows = append(rows, table.Row{rec.Path, size, rec.Root})
	}
	m.table.SetRows(rows)
}

func (m *tuiModel) updateRootsTable() {
	rows := []table.Row{}
	for _, alias := range m.allRoots {
		active := "No"
		if m.activeRoots[alias] {
			active = "Yes"
		}
		rows = append(rows, table.Row{alias, m.rootPaths[alias], active})
	}
	m.rootsTable.SetRows(rows)
}

func (m *tuiModel) getActiveRoots() []string {
	active := []string{}
	for _, alias := range m.allRoots {
		if m.activeRoots[alias] {
			active = append(active, alias)
		}
	}
	return active
}
