package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgcompare/pkg/compare"
	"github.com/matzehuels/pkgcompare/pkg/integrations/npm"
	"github.com/matzehuels/pkgcompare/pkg/notify"
	"github.com/matzehuels/pkgcompare/pkg/panel"
	"github.com/matzehuels/pkgcompare/pkg/record"
	"github.com/matzehuels/pkgcompare/pkg/render"
	"github.com/matzehuels/pkgcompare/pkg/search"
	"github.com/matzehuels/pkgcompare/pkg/selection"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	tabActiveStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Underline(true)
)

const (
	// searchDebounce is how long typing must pause before a search runs.
	searchDebounce = 250 * time.Millisecond

	// suggestionRows is the number of suggestions visible at once.
	suggestionRows = 8
)

// tuiCommand creates the interactive comparison command.
func (c *CLI) tuiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui [package...]",
		Short: "Compare packages interactively",
		Long: `Tui opens an interactive comparison. Type to search the registry, pick
suggestions to add them, and switch between the package cards and the
size, versions and downloads panels.

Keys:
  type      search              ↓/↑       move through suggestions
  ⏎         add suggestion      tab       next panel
  s         focus selection     ←/→       move through selection
  x         remove package      r         re-fetch bundle size
  /         back to search      ctrl+c    quit`,
		ValidArgsFunction: c.completePackages,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTUI(cmd.Context(), dedupe(args))
		},
	}
}

func (c *CLI) runTUI(ctx context.Context, initial []string) error {
	ws, err := c.newWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	// Log lines would tear the alternate screen; notifications show in the
	// status line instead.
	level := c.Logger.GetLevel()
	c.Logger.SetLevel(log.ErrorLevel)
	defer c.Logger.SetLevel(level)

	m := newCompareModel(ctx, ws)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	ws.OnPanelChange(func(s panel.State) { p.Send(panelMsg(s)) })
	defer ws.Notifications().Subscribe(func(n notify.Notification) { p.Send(noticeMsg(n)) })()
	defer ws.Selection().Subscribe(func(s selection.Snapshot) { p.Send(selectionMsg(s)) })()

	go func() {
		for _, name := range initial {
			_, _ = ws.Select(ctx, name)
		}
	}()

	_, err = p.Run()
	return err
}

// =============================================================================
// Messages
// =============================================================================

type (
	panelMsg     panel.State
	noticeMsg    notify.Notification
	selectionMsg selection.Snapshot

	// debounceMsg fires after a pause in typing; gen identifies the keystroke.
	debounceMsg struct{ gen int }

	// suggestionsMsg reports a finished search or page load.
	suggestionsMsg struct{ err error }

	// selectedMsg reports a finished selection fetch.
	selectedMsg struct {
		name string
		err  error
	}

	// refetchMsg reports the outcome of a size re-fetch request.
	refetchMsg struct {
		name    string
		started bool
		err     error
	}
)

// =============================================================================
// compareModel - Interactive comparison
// =============================================================================

type focusArea int

const (
	focusInput focusArea = iota
	focusList
	focusSelection
)

// tabs lists the views in display order; the empty dimension is the
// package cards.
var tabs = []record.Dimension{"", record.DimensionSize, record.DimensionVersion, record.DimensionDownloads}

// compareModel is the bubbletea model for the interactive comparison.
type compareModel struct {
	ctx context.Context
	ws  *compare.Workspace

	input string
	gen   int
	focus focusArea

	suggestions search.State
	cursor      int
	offset      int

	selected []string
	selCur   int

	tab    int
	panels map[record.Dimension]panel.State
	status string
}

func newCompareModel(ctx context.Context, ws *compare.Workspace) compareModel {
	m := compareModel{
		ctx:    ctx,
		ws:     ws,
		panels: make(map[record.Dimension]panel.State, len(tabs)-1),
	}
	for _, dim := range tabs[1:] {
		m.panels[dim], _ = ws.Panel(dim)
	}
	m.selected = ws.Selection().Names()
	return m
}

func (m compareModel) Init() tea.Cmd {
	return nil
}

func (m compareModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case debounceMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		return m, m.searchCmd(m.input)

	case suggestionsMsg:
		m.suggestions = m.ws.Suggestions()
		if m.cursor >= len(m.suggestions.Items) {
			m.cursor = max(len(m.suggestions.Items)-1, 0)
			m.offset = min(m.offset, m.cursor)
		}
		if len(m.suggestions.Items) == 0 && m.focus == focusList {
			m.focus = focusInput
		}

	case selectedMsg:
		if msg.err == nil {
			m.status = StyleValue.Render(fmt.Sprintf("Added %s", msg.name))
		}

	case refetchMsg:
		switch {
		case msg.err != nil:
			m.status = styleIconError.Render(msg.err.Error())
		case !msg.started:
			m.status = StyleWarning.Render(fmt.Sprintf("Size re-fetch already running for %s", msg.name))
		}

	case selectionMsg:
		m.selected = selection.Snapshot(msg).Names()
		if m.selCur >= len(m.selected) {
			m.selCur = max(len(m.selected)-1, 0)
		}
		if len(m.selected) == 0 && m.focus == focusSelection {
			m.focus = focusList
		}

	case panelMsg:
		s := panel.State(msg)
		m.panels[s.Dimension] = s

	case noticeMsg:
		m.status = noticeLine(notify.Notification(msg))
	}
	return m, nil
}

func (m compareModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.tab = (m.tab + 1) % len(tabs)
		return m, nil
	case "shift+tab":
		m.tab = (m.tab + len(tabs) - 1) % len(tabs)
		return m, nil
	}

	switch m.focus {
	case focusInput:
		return m.handleInputKey(msg)
	case focusList:
		return m.handleListKey(msg)
	default:
		return m.handleSelectionKey(msg)
	}
}

func (m compareModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyDown, tea.KeyEnter:
		if len(m.suggestions.Items) > 0 {
			m.focus = focusList
		}
		return m, nil
	case tea.KeyBackspace:
		if m.input == "" {
			return m, nil
		}
		r := []rune(m.input)
		m.input = string(r[:len(r)-1])
	case tea.KeyRunes, tea.KeySpace:
		m.input += string(msg.Runes)
	default:
		return m, nil
	}
	cmd := m.debounce()
	return m, cmd
}

func (m compareModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.suggestions.Items
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "/":
		m.focus = focusInput
	case "s":
		if len(m.selected) > 0 {
			m.focus = focusSelection
		}
	case "up", "k":
		if m.cursor == 0 {
			m.focus = focusInput
			return m, nil
		}
		m.cursor--
		if m.cursor < m.offset {
			m.offset = m.cursor
		}
	case "down", "j":
		if m.cursor < len(items)-1 {
			m.cursor++
			if m.cursor >= m.offset+suggestionRows {
				m.offset = m.cursor - suggestionRows + 1
			}
		}
		// Reaching the end of the list loads the next page.
		if m.cursor == len(items)-1 && m.suggestions.HasMore && !m.suggestions.Loading {
			m.suggestions.Loading = true
			return m, m.moreCmd()
		}
	case "enter":
		if m.cursor < len(items) {
			return m, m.selectCmd(items[m.cursor])
		}
	}
	return m, nil
}

func (m compareModel) handleSelectionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.focus = focusInput
	case "esc":
		m.focus = focusList
	case "left", "h":
		if m.selCur > 0 {
			m.selCur--
		}
	case "right", "l":
		if m.selCur < len(m.selected)-1 {
			m.selCur++
		}
	case "x", "delete", "backspace":
		if m.selCur < len(m.selected) {
			return m, m.removeCmd(m.selected[m.selCur])
		}
	case "r":
		if m.selCur < len(m.selected) {
			return m, m.refetchCmd(m.selected[m.selCur])
		}
	}
	return m, nil
}

// =============================================================================
// Commands
// =============================================================================

func (m *compareModel) debounce() tea.Cmd {
	m.gen++
	gen := m.gen
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg { return debounceMsg{gen: gen} })
}

func (m compareModel) searchCmd(q string) tea.Cmd {
	ws, ctx := m.ws, m.ctx
	return func() tea.Msg {
		return suggestionsMsg{err: ws.Search(ctx, q)}
	}
}

func (m compareModel) moreCmd() tea.Cmd {
	ws, ctx := m.ws, m.ctx
	return func() tea.Msg {
		return suggestionsMsg{err: ws.MoreSuggestions(ctx)}
	}
}

func (m compareModel) selectCmd(name string) tea.Cmd {
	ws, ctx := m.ws, m.ctx
	return func() tea.Msg {
		_, err := ws.Select(ctx, name)
		return selectedMsg{name: name, err: err}
	}
}

// removeCmd removes name outside the event loop; selection subscribers
// send messages back to the program.
func (m compareModel) removeCmd(name string) tea.Cmd {
	ws := m.ws
	return func() tea.Msg {
		ws.Remove(name)
		return nil
	}
}

func (m compareModel) refetchCmd(name string) tea.Cmd {
	ws, ctx := m.ws, m.ctx
	return func() tea.Msg {
		started, err := ws.RefetchSize(ctx, name)
		return refetchMsg{name: name, started: started, err: err}
	}
}

// =============================================================================
// View
// =============================================================================

func (m compareModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(appName))
	b.WriteString("\n\n")
	b.WriteString(m.viewInput())
	b.WriteString("\n")
	b.WriteString(m.viewSuggestions())
	b.WriteString("\n")
	b.WriteString(m.viewSelection())
	b.WriteString("\n\n")
	b.WriteString(m.viewTabs())
	b.WriteString("\n\n")
	b.WriteString(m.viewContent())
	b.WriteString("\n\n")
	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(m.help()))

	return b.String()
}

func (m compareModel) viewInput() string {
	prompt := listDimStyle.Render("Search: ")
	if m.focus == focusInput {
		prompt = listSelectedStyle.Render("Search: ")
		return prompt + listNormalStyle.Render(m.input) + listSelectedStyle.Render("█")
	}
	return prompt + listNormalStyle.Render(m.input)
}

func (m compareModel) viewSuggestions() string {
	st := m.suggestions
	if npm.QueryTooShort(npm.NormalizeQuery(m.input)) {
		return listDimStyle.Render(fmt.Sprintf("  type at least %d characters", npm.MinQueryLength))
	}
	if len(st.Items) == 0 {
		if st.Loading {
			return listDimStyle.Render("  searching…")
		}
		return listDimStyle.Render("  no suggestions")
	}

	end := min(m.offset+suggestionRows, len(st.Items))
	visible := st.Items[m.offset:end]
	highlights := search.Highlights(st.Query, visible)

	var b strings.Builder
	for i, name := range visible {
		idx := m.offset + i
		cursor := "  "
		if m.focus == focusList && idx == m.cursor {
			cursor = listSelectedStyle.Render("▸ ")
		}
		mark := ""
		for _, sel := range m.selected {
			if sel == name {
				mark = styleIconSuccess.Render(" ✓")
				break
			}
		}
		b.WriteString(cursor + highlight(name, highlights[i]) + mark + "\n")
	}

	more := ""
	switch {
	case st.Loading:
		more = "  loading…"
	case st.HasMore:
		more = "  ↓ more"
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]%s", m.cursor+1, len(st.Items), more)))
	return b.String()
}

func (m compareModel) viewSelection() string {
	if len(m.selected) == 0 {
		return listDimStyle.Render("Selected: none")
	}
	chips := make([]string, len(m.selected))
	for i, name := range m.selected {
		style := listNormalStyle
		if m.focus == focusSelection && i == m.selCur {
			style = listSelectedStyle
		}
		chips[i] = style.Render("[" + name + "]")
	}
	return listDimStyle.Render("Selected: ") + strings.Join(chips, " ")
}

func (m compareModel) viewTabs() string {
	names := make([]string, len(tabs))
	for i, dim := range tabs {
		title := "Packages"
		if dim != "" {
			title = render.Title(dim)
		}
		if i == m.tab {
			names[i] = tabActiveStyle.Render(title)
		} else {
			names[i] = listDimStyle.Render(title)
		}
	}
	return strings.Join(names, listDimStyle.Render("  │  "))
}

func (m compareModel) viewContent() string {
	dim := tabs[m.tab]
	if dim == "" {
		return render.Cards(m.ws.Selection().Records())
	}
	return render.Panel(m.panels[dim])
}

func (m compareModel) help() string {
	switch m.focus {
	case focusInput:
		return "type to search  ↓ suggestions  tab panel  esc quit"
	case focusList:
		return "↑/↓ navigate  ⏎ add  s selection  / search  tab panel  q quit"
	default:
		return "←/→ navigate  x remove  r re-fetch size  / search  esc back  q quit"
	}
}

// noticeLine formats a notification for the status line.
func noticeLine(n notify.Notification) string {
	switch n.Level {
	case notify.LevelError:
		return styleIconError.Render("✗ " + n.Message)
	case notify.LevelWarn:
		return StyleWarning.Render("! " + n.Message)
	}
	return StyleDim.Render(n.Message)
}
