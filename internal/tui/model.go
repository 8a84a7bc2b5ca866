// Package tui is the terminal rendering surface of a table view.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/admin-datatable/pkg/admin"
	"github.com/Sternrassler/admin-datatable/pkg/query"
	"github.com/Sternrassler/admin-datatable/pkg/table"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

// DeleteFunc removes items by id.
type DeleteFunc func(ctx context.Context, ids []int) error

// Options configures a Model.
type Options[T any] struct {
	Resource   admin.Resource[T]
	Controller *table.Controller[T]

	// Delete enables the delete key. The view is reloaded afterwards.
	Delete DeleteFunc

	// Context bounds every fetch. Defaults to context.Background().
	Context context.Context

	Logger zerolog.Logger
}

// fetchDoneMsg reports the outcome of one controller operation.
type fetchDoneMsg struct {
	err error
}

// deleteDoneMsg reports the outcome of a bulk delete.
type deleteDoneMsg struct {
	ids []int
	err error
}

// Model renders a table.Controller and maps keys onto its operations.
type Model[T any] struct {
	resource admin.Resource[T]
	ctrl     *table.Controller[T]
	remove   DeleteFunc
	ctx      context.Context
	logger   zerolog.Logger

	keys    keyMap
	help    help.Model
	table   btable.Model
	search  textinput.Model
	spinner spinner.Model

	column    int // index of the column s sorts by
	searching bool
	status    string
	err       error
	width     int
	height    int
}

// New creates a model. The controller is mounted by Init.
func New[T any](opts Options[T]) (*Model[T], error) {
	if opts.Controller == nil {
		return nil, errors.New("tui: controller is required")
	}
	if len(opts.Resource.Columns) == 0 {
		return nil, errors.New("tui: resource has no columns")
	}

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	keys := defaultKeyMap()
	keys.Delete.SetEnabled(opts.Delete != nil)

	search := textinput.New()
	search.Placeholder = "Search " + strings.ToLower(opts.Resource.Title) + "..."
	search.Prompt = "/ "

	m := &Model[T]{
		resource: opts.Resource,
		ctrl:     opts.Controller,
		remove:   opts.Delete,
		ctx:      ctx,
		logger:   opts.Logger,
		keys:     keys,
		help:     help.New(),
		search:   search,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(TitleStyle)),
	}
	m.column = m.firstSortableColumn()

	m.table = btable.New(
		btable.WithColumns(m.columns(opts.Controller.View())),
		btable.WithFocused(true),
		btable.WithHeight(opts.Controller.Query().Limit+1),
	)

	return m, nil
}

// Init mounts the controller.
func (m *Model[T]) Init() tea.Cmd {
	return tea.Batch(m.run(m.ctrl.Mount), m.spinner.Tick)
}

// Update implements tea.Model.
func (m *Model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.search.Width = max(msg.Width-4, 10)
		m.table.SetHeight(max(msg.Height-6, 3))
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKey(msg)
		}
		m.status = ""
		return m.handleKey(msg)

	case fetchDoneMsg:
		m.applyResult(msg.err)
		return m, nil

	case deleteDoneMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("delete: %w", msg.err)
			m.logger.Warn().Err(msg.err).Ints("ids", msg.ids).Msg("Bulk delete failed")
			return m, nil
		}
		m.status = fmt.Sprintf("Deleted %d row(s)", len(msg.ids))
		return m, m.run(m.ctrl.Reload)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model[T]) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view := m.ctrl.View()

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.ctrl.Unmount()
		return m, tea.Quit

	case key.Matches(msg, m.keys.NextPage):
		if (view.Page+1)*view.RowsPerPage >= view.Count {
			return m, nil
		}
		page, rows := view.Page+1, view.RowsPerPage
		return m, m.run(func(ctx context.Context) error { return m.ctrl.ChangePage(ctx, page, rows) })

	case key.Matches(msg, m.keys.PrevPage):
		if view.Page == 0 {
			return m, nil
		}
		page, rows := view.Page-1, view.RowsPerPage
		return m, m.run(func(ctx context.Context) error { return m.ctrl.ChangePage(ctx, page, rows) })

	case key.Matches(msg, m.keys.MoreRows):
		return m, m.cycleRows(view, 1)

	case key.Matches(msg, m.keys.FewerRows):
		return m, m.cycleRows(view, -1)

	case key.Matches(msg, m.keys.NextColumn):
		m.moveColumn(1)
		m.table.SetColumns(m.columns(view))
		return m, nil

	case key.Matches(msg, m.keys.PrevColumn):
		m.moveColumn(-1)
		m.table.SetColumns(m.columns(view))
		return m, nil

	case key.Matches(msg, m.keys.Sort):
		column, ok := m.resource.SortableColumn(m.column)
		if !ok {
			return m, nil
		}
		dir := query.Ascending
		if current, currentDir := query.ParseSort(view.Query.Sort); current == column {
			dir = currentDir.Toggle()
		}
		return m, m.run(func(ctx context.Context) error { return m.ctrl.SortColumn(ctx, column, dir) })

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(view.Query.Like)
		m.search.CursorEnd()
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Reload):
		return m, m.run(m.ctrl.Reload)

	case key.Matches(msg, m.keys.Delete):
		return m, m.deleteSelected(view)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model[T]) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		like := strings.TrimSpace(m.search.Value())
		return m, m.run(func(ctx context.Context) error { return m.ctrl.Search(ctx, like) })
	case tea.KeyCtrlC:
		m.ctrl.Unmount()
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// cycleRows moves to the next or previous rows-per-page option and returns
// to the first page.
func (m *Model[T]) cycleRows(view table.View[T], step int) tea.Cmd {
	options := view.RowsPerPageOptions
	if len(options) == 0 {
		return nil
	}
	idx := 0
	for i, n := range options {
		if n == view.Query.Limit {
			idx = i
			break
		}
	}
	next := idx + step
	if next < 0 || next >= len(options) {
		return nil
	}
	rows := options[next]
	return m.run(func(ctx context.Context) error { return m.ctrl.ChangeRowsPerPage(ctx, 0, rows) })
}

func (m *Model[T]) deleteSelected(view table.View[T]) tea.Cmd {
	if m.remove == nil || len(view.Items) == 0 {
		return nil
	}
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(view.Items) {
		return nil
	}
	ids := m.resource.IDs(view.Items[cursor : cursor+1])
	m.status = "Deleting…"
	ctx := m.ctx
	remove := m.remove
	return func() tea.Msg {
		return deleteDoneMsg{ids: ids, err: remove(ctx, ids)}
	}
}

// run executes a controller operation off the event loop.
func (m *Model[T]) run(op func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return fetchDoneMsg{err: op(ctx)}
	}
}

// applyResult refreshes the table from the controller snapshot. Superseded
// and post-unmount responses change nothing.
func (m *Model[T]) applyResult(err error) {
	if errors.Is(err, table.ErrStale) || errors.Is(err, table.ErrUnmounted) {
		return
	}
	view := m.ctrl.View()
	m.err = view.Err
	m.refresh(view)
}

func (m *Model[T]) refresh(view table.View[T]) {
	m.table.SetColumns(m.columns(view))
	m.table.SetRows(m.rows(view.Items))
	if m.table.Cursor() >= len(view.Items) {
		m.table.SetCursor(max(len(view.Items)-1, 0))
	}
}

func (m *Model[T]) columns(view table.View[T]) []btable.Column {
	sortColumn, dir := query.ParseSort(view.Query.Sort)
	columns := make([]btable.Column, len(m.resource.Columns))
	for i, col := range m.resource.Columns {
		title := col.Label
		if col.Name == sortColumn {
			if dir == query.Descending {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		if i == m.column {
			title = "›" + title
		}
		columns[i] = btable.Column{Title: title, Width: max(col.Width, lipgloss.Width(title))}
	}
	return columns
}

func (m *Model[T]) rows(items []T) []btable.Row {
	rows := make([]btable.Row, len(items))
	for i, cells := range m.resource.Rows(items) {
		rows[i] = btable.Row(cells)
	}
	return rows
}

func (m *Model[T]) firstSortableColumn() int {
	for i := range m.resource.Columns {
		if _, ok := m.resource.SortableColumn(i); ok {
			return i
		}
	}
	return 0
}

// moveColumn selects the next sortable column in the given direction.
func (m *Model[T]) moveColumn(step int) {
	n := len(m.resource.Columns)
	for i := 1; i <= n; i++ {
		next := ((m.column+step*i)%n + n) % n
		if _, ok := m.resource.SortableColumn(next); ok {
			m.column = next
			return
		}
	}
}

// View implements tea.Model.
func (m *Model[T]) View() string {
	view := m.ctrl.View()

	sections := []string{m.header(view), TableBoxStyle.Render(m.table.View())}
	if m.searching {
		sections = append(sections, m.search.View())
	}
	if m.err != nil {
		sections = append(sections, ErrorStyle.Render("Error: "+m.err.Error()))
	} else if m.status != "" {
		sections = append(sections, renderMuted(m.status))
	}
	sections = append(sections, m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model[T]) header(view table.View[T]) string {
	title := TitleStyle.Render(m.resource.Title)
	if view.Loading() {
		title += " " + m.spinner.View()
	}

	pages := max((view.Count+view.RowsPerPage-1)/max(view.RowsPerPage, 1), 1)
	parts := []string{
		fmt.Sprintf("page %d/%d", view.Page+1, pages),
		fmt.Sprintf("%d rows", view.Count),
		fmt.Sprintf("%d per page", view.RowsPerPage),
	}
	if column, dir := query.ParseSort(view.Query.Sort); column != "" {
		parts = append(parts, fmt.Sprintf("sort %s %s", column, dir))
	}
	if view.Query.Like != "" {
		parts = append(parts, fmt.Sprintf("like %q", view.Query.Like))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", renderMuted(strings.Join(parts, " · ")))
}
