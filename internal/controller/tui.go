package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"sloth.dev/pkg/sloth/internal/domain"
	m "sloth.dev/pkg/sloth/internal/model"
)

// DefaultRefreshInterval is how often the watch view polls the fuzzer.
const DefaultRefreshInterval = time.Second

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

// TUI implements the interactive watch view using Bubble Tea.
type TUI struct {
	output io.Writer
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// WatchOptions configures Watch.
type WatchOptions struct {
	Interval    time.Duration
	PageSize    int
	SortBy      m.SortOrder
	OnlyMutated bool
}

// Watch polls fuzzer and renders its state until the user quits or ctx ends.
// When the output is not a terminal a single frame is printed.
func (p *TUI) Watch(ctx context.Context, fuzzer domain.Fuzzer, opts WatchOptions) error {
	model := newWatchModel(ctx, fuzzer, opts)

	f, ok := p.output.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		model = model.apply(model.fetch())
		if model.err != nil {
			return model.err
		}

		_, err := fmt.Fprint(p.output, model.View())

		return err
	}

	if width, height, err := term.GetSize(int(f.Fd())); err == nil {
		model = model.resize(width, height)
	}

	program := tea.NewProgram(model, tea.WithOutput(p.output), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return err
	}

	return nil
}

type refreshMsg struct {
	stat     m.Statistics
	snippets []m.Snippet
	err      error
}

type tickMsg time.Time

type controlMsg struct {
	action string
	err    error
}

// watchModel represents the Bubble Tea model of the watch view.
type watchModel struct {
	ctx      context.Context
	fuzzer   domain.Fuzzer
	opts     WatchOptions
	sortIdx  int
	stat     m.Statistics
	table    table.Model
	spinner  spinner.Model
	status   string
	err      error
	width    int
	height   int
	quitting bool
}

func newWatchModel(ctx context.Context, fuzzer domain.Fuzzer, opts WatchOptions) watchModel {
	if opts.Interval <= 0 {
		opts.Interval = DefaultRefreshInterval
	}

	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}

	sortIdx := 0

	for i, order := range m.SortOrders {
		if order == opts.SortBy {
			sortIdx = i
		}
	}

	columns := make([]table.Column, len(snippetHeader))
	for i, title := range snippetHeader {
		columns[i] = table.Column{Title: title, Width: columnWidth(i)}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return watchModel{
		ctx:     ctx,
		fuzzer:  fuzzer,
		opts:    opts,
		sortIdx: sortIdx,
		table:   t,
		spinner: sp,
	}
}

func columnWidth(i int) int {
	switch i {
	case 0:
		return 4
	case 1:
		return 28
	default:
		return 12
	}
}

func (wm watchModel) sortOrder() m.SortOrder {
	return m.SortOrders[wm.sortIdx]
}

func (wm watchModel) fetch() refreshMsg {
	stat, err := wm.fuzzer.Stat(wm.ctx)
	if err != nil {
		return refreshMsg{err: err}
	}

	snippets, err := wm.fuzzer.Generation(wm.ctx, 0, wm.opts.PageSize, wm.sortOrder(), wm.opts.OnlyMutated)

	return refreshMsg{stat: stat, snippets: snippets, err: err}
}

func (wm watchModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return wm.fetch()
	}
}

func (wm watchModel) tick() tea.Cmd {
	return tea.Tick(wm.opts.Interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (wm watchModel) control(action string, op func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return controlMsg{action: action, err: op(wm.ctx)}
	}
}

func (wm watchModel) apply(msg refreshMsg) watchModel {
	wm.err = msg.err
	if msg.err != nil {
		return wm
	}

	wm.stat = msg.stat

	rows := make([]table.Row, len(msg.snippets))
	for i, s := range msg.snippets {
		rows[i] = snippetRow(i+1, s)
	}

	wm.table.SetRows(rows)

	return wm
}

func (wm watchModel) resize(width, height int) watchModel {
	wm.width = width
	wm.height = height

	// title box, stat lines, status and help
	reserved := 12

	wm.table.SetHeight(max(3, height-reserved))

	return wm
}

func (wm watchModel) Init() tea.Cmd {
	return tea.Batch(wm.refresh(), wm.tick(), wm.spinner.Tick)
}

func (wm watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return wm.resize(msg.Width, msg.Height), nil

	case tickMsg:
		return wm, tea.Batch(wm.refresh(), wm.tick())

	case refreshMsg:
		return wm.apply(msg), nil

	case controlMsg:
		wm.err = msg.err
		if msg.err == nil {
			wm.status = msg.action
		}

		return wm, wm.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		wm.spinner, cmd = wm.spinner.Update(msg)

		return wm, cmd

	case tea.KeyMsg:
		return wm.handleKeyPress(msg)
	}

	return wm, nil
}

func (wm watchModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	//nolint:exhaustive // only quit keys are matched by type
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		wm.quitting = true
		return wm, tea.Quit
	default:
	}

	switch msg.String() {
	case "q":
		wm.quitting = true
		return wm, tea.Quit

	case "s":
		return wm, wm.control("started", wm.fuzzer.Start)

	case "x":
		return wm, wm.control("stopped", wm.fuzzer.Stop)

	case "p":
		return wm, wm.control("pause toggled", wm.fuzzer.TogglePause)

	case "o":
		wm.sortIdx = (wm.sortIdx + 1) % len(m.SortOrders)
		return wm, wm.refresh()

	case "m":
		wm.opts.OnlyMutated = !wm.opts.OnlyMutated
		return wm, wm.refresh()

	case "r":
		return wm, wm.refresh()
	}

	var cmd tea.Cmd
	wm.table, cmd = wm.table.Update(msg)

	return wm, cmd
}

func (wm watchModel) View() string {
	if wm.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Sloth - Compiler Fuzzer"))
	b.WriteString("\n")

	indicator := " "
	if wm.stat.RunState == m.Started {
		indicator = wm.spinner.View()
	}

	fmt.Fprintf(&b, "%s %s %s  %s %s  %s %s\n",
		indicator,
		labelStyle.Render("state"), wm.stat.RunState,
		labelStyle.Render("run"), wm.stat.RunID,
		labelStyle.Render("uptime"), formatUptime(wm.stat.UptimeSeconds))
	fmt.Fprintf(&b, "  %s %d  %s %d  %s %d  %s %d/%d (%s)\n",
		labelStyle.Render("generation"), wm.stat.GenerationCount,
		labelStyle.Render("population"), wm.stat.PopulationSize,
		labelStyle.Render("mutations"), wm.stat.MutationCount,
		labelStyle.Render("compiled"), wm.stat.Successful, wm.stat.Compilations,
		formatRate(wm.stat.CompileSuccessRate))
	fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("phase"), wm.stat.Phase)

	if top := sortDiagnostics(wm.stat.Diagnostics); len(top) > 0 {
		fmt.Fprintf(&b, "  %s %s (%d)\n", labelStyle.Render("top diagnostic"), top[0].message, top[0].count)
	}

	mutated := ""
	if wm.opts.OnlyMutated {
		mutated = ", mutated only"
	}

	fmt.Fprintf(&b, "\n  %s %s%s\n", labelStyle.Render("sorted by"), wm.sortOrder(), mutated)
	b.WriteString(wm.table.View())
	b.WriteString("\n")

	switch {
	case wm.err != nil:
		b.WriteString(errorStyle.Render("  " + wm.err.Error()))
		b.WriteString("\n")
	case wm.status != "":
		fmt.Fprintf(&b, "  %s\n", wm.status)
	}

	b.WriteString(helpStyle.Render("  s: start | x: stop | p: pause | o: sort | m: mutated | ↑/↓: scroll | q: quit"))
	b.WriteString("\n")

	return b.String()
}
