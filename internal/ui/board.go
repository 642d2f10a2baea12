// Package ui implements the interactive task board.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/api"
	"taskdeck/internal/notify"
	"taskdeck/internal/store"
)

// KeyMap holds the board keybindings.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	MoveUp  key.Binding
	MoveDn  key.Binding
	Delete  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j", "down")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle done")),
		MoveUp:  key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move up")),
		MoveDn:  key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move down")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type styles struct {
	title    lipgloss.Style
	selected lipgloss.Style
	done     lipgloss.Style
	status   lipgloss.Style
	errLine  lipgloss.Style
	help     lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1),
		selected: lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("57")),
		done:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true),
		status:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		errLine:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		help:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")).MarginTop(1),
	}
}

type tasksLoadedMsg struct{}

type actionErrMsg struct{ err error }

// Board is the interactive task list over the task store.
type Board struct {
	ctx    context.Context
	tasks  *store.TaskStore
	center *notify.Center
	keys   KeyMap
	styles styles

	rows    []api.Task
	cursor  int
	loading bool
	lastErr error
	width   int
	height  int
}

// NewBoard creates the board over an already-wired task store.
func NewBoard(ctx context.Context, tasks *store.TaskStore, center *notify.Center) *Board {
	return &Board{
		ctx:     ctx,
		tasks:   tasks,
		center:  center,
		keys:    DefaultKeyMap(),
		styles:  newStyles(),
		loading: true,
	}
}

func (b *Board) Init() tea.Cmd {
	return b.fetch()
}

func (b *Board) fetch() tea.Cmd {
	return func() tea.Msg {
		if err := b.tasks.Fetch(b.ctx); err != nil {
			return actionErrMsg{err: err}
		}
		return tasksLoadedMsg{}
	}
}

func (b *Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height

	case tasksLoadedMsg:
		b.rows = b.tasks.Tasks()
		b.loading = false
		b.lastErr = nil
		if b.cursor >= len(b.rows) {
			b.cursor = max(0, len(b.rows)-1)
		}

	case actionErrMsg:
		// The store has already reconciled or left state untouched; the
		// board just reflects what it holds now.
		b.rows = b.tasks.Tasks()
		b.loading = false
		b.lastErr = msg.err
		if b.cursor >= len(b.rows) {
			b.cursor = max(0, len(b.rows)-1)
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, b.keys.Quit):
			return b, tea.Quit

		case key.Matches(msg, b.keys.Up):
			if b.cursor > 0 {
				b.cursor--
			}

		case key.Matches(msg, b.keys.Down):
			if b.cursor < len(b.rows)-1 {
				b.cursor++
			}

		case key.Matches(msg, b.keys.Refresh):
			b.loading = true
			return b, b.fetch()

		case key.Matches(msg, b.keys.Toggle):
			if task, ok := b.current(); ok {
				b.loading = true
				return b, b.toggle(task)
			}

		case key.Matches(msg, b.keys.Delete):
			if task, ok := b.current(); ok {
				b.loading = true
				return b, b.delete(task)
			}

		case key.Matches(msg, b.keys.MoveUp):
			if b.cursor > 0 {
				from := b.cursor
				b.cursor--
				b.loading = true
				return b, b.move(from, from-1)
			}

		case key.Matches(msg, b.keys.MoveDn):
			if b.cursor < len(b.rows)-1 {
				from := b.cursor
				b.cursor++
				b.loading = true
				return b, b.move(from, from+1)
			}
		}
	}

	return b, nil
}

func (b *Board) current() (api.Task, bool) {
	if b.cursor < 0 || b.cursor >= len(b.rows) {
		return api.Task{}, false
	}
	return b.rows[b.cursor], true
}

func (b *Board) toggle(task api.Task) tea.Cmd {
	return func() tea.Msg {
		if _, err := b.tasks.ToggleCompletion(b.ctx, task.ID, !task.Done()); err != nil {
			return actionErrMsg{err: err}
		}
		return tasksLoadedMsg{}
	}
}

func (b *Board) delete(task api.Task) tea.Cmd {
	return func() tea.Msg {
		if err := b.tasks.Delete(b.ctx, task.ID); err != nil {
			return actionErrMsg{err: err}
		}
		return tasksLoadedMsg{}
	}
}

// move applies the store's optimistic reorder; a rejected move surfaces as an
// error after the store refetched the authoritative order.
func (b *Board) move(from, to int) tea.Cmd {
	return func() tea.Msg {
		if err := b.tasks.Reorder(b.ctx, from, to); err != nil {
			return actionErrMsg{err: err}
		}
		return tasksLoadedMsg{}
	}
}

func (b *Board) View() string {
	var sb strings.Builder

	sb.WriteString(b.styles.title.Render("taskdeck board"))
	sb.WriteString("\n")

	if len(b.rows) == 0 && !b.loading {
		sb.WriteString("no tasks\n")
	}

	for i, task := range b.rows {
		mark := "[ ]"
		if task.Done() {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s (%s)", mark, task.Title, task.Priority)
		switch {
		case i == b.cursor:
			line = b.styles.selected.Render(line)
		case task.Done():
			line = b.styles.done.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	switch {
	case b.lastErr != nil:
		sb.WriteString(b.styles.errLine.Render("error: " + b.lastErr.Error()))
		sb.WriteString("\n")
	case b.loading:
		sb.WriteString(b.styles.status.Render("loading..."))
		sb.WriteString("\n")
	case b.center != nil && b.center.Unread() > 0:
		sb.WriteString(b.styles.status.Render(fmt.Sprintf("%d unread notifications", b.center.Unread())))
		sb.WriteString("\n")
	}

	sb.WriteString(b.styles.help.Render("j/k move · space toggle · J/K reorder · d delete · r refresh · q quit"))
	sb.WriteString("\n")
	return sb.String()
}
