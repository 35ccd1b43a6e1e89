package main

import (
	"context"
	"os"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/tiaanhavenga/DriveCatalogue/app"
	"github.com/tiaanhavenga/DriveCatalogue/models"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the catalogue interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, cfg *models.AppConfig, engine *app.Engine) error {
			p := tea.NewProgram(newTUIModel(engine, cfg.Search.PageSize), tea.WithAltScreen())
			_, err := p.Run()
			return err
		})
	},
}

func newTUIModel(engine *app.Engine, pageSize int) tuiModel {
	fd := os.Stdout.Fd()
	width, _, err := term.GetSize(fd)
	if err != nil {
		width = 100 // fallback
	}

	sizeCol := 10
	rootCol := 16
	pathCol := width - sizeCol - rootCol - 6
	if pathCol < 10 {
		pathCol = 10
	}

	ti := textinput.New()
	ti.Placeholder = "Search the catalogue..."
	ti.Focus()
	ti.Width = 50

	minInput := textinput.New()
	minInput.Placeholder = "e.g. 200MB"
	minInput.Width = 16
	maxInput := textinput.New()
	maxInput.Placeholder = "e.g. 2GB"
	maxInput.Width = 16

	columns := []table.Column{
		{Title: "Path", Width: pathCol},
		{Title: "Size", Width: sizeCol},
		{Title: "Root", Width: rootCol},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows([]table.Row{}),
		table.WithHeight(10),
	)

	rootsColumns := []table.Column{
		{Title: "Root", Width: 20},
		{Title: "Path", Width: width - 20 - 10 - 6},
		{Title: "Searched", Width: 10},
	}
	rt := table.New(
		table.WithColumns(rootsColumns),
		table.WithRows([]table.Row{}),
		table.WithHeight(8),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(styles)
	rt.SetStyles(styles)

	roots := engine.Roots()
	allRoots := make([]string, 0, len(roots))
	rootPaths := make(map[string]string, len(roots))
	activeRoots := make(map[string]bool, len(roots))
	for _, root := range roots {
		allRoots = append(allRoots, root.Alias)
		rootPaths[root.Alias] = root.Path
		activeRoots[root.Alias] = true
	}

	m := tuiModel{
		textInput:    ti,
		minSizeInput: minInput,
		maxSizeInput: maxInput,
		table:        t,
		rootsTable:   rt,
		engine:       engine,
		pageSize:     pageSize,
		allRoots:     allRoots,
		rootPaths:    rootPaths,
		activeRoots:  activeRoots,
		mode:         searchMode,
	}
	m.updateRootsTable()
	return m
}
