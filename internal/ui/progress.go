package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"jets/internal/loader"
)

type progressModel struct {
	title   string
	events  <-chan loader.Event
	spinner spinner.Model
	prog    progress.Model
	items   []fileItem
	index   map[string]int
	width   int
	done    bool
}

type fileItem struct {
	path    string
	status  loader.Status
	records int
	elapsed time.Duration
	err     error
}

type eventMsg loader.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders load progress
// for paths until events is closed.
func NewProgressModel(title string, paths []string, events <-chan loader.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]fileItem, 0, len(paths))
	index := make(map[string]int, len(paths))
	for i, p := range paths {
		items = append(items, fileItem{path: p, status: loader.StatusQueued})
		index[p] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(loader.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	header := m.title
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	const statusWidth = 12
	nameWidth := max(m.width-statusWidth-16, 20)
	for _, item := range m.items {
		status := styleStatus(item.status).Render(fmt.Sprintf("%12s", item.status))
		line := fmt.Sprintf("  %s %s", status, truncate(item.path, nameWidth))
		switch item.status {
		case loader.StatusDone:
			line += dimStyle.Render(fmt.Sprintf("  %d records in %s", item.records, item.elapsed.Round(time.Millisecond)))
		case loader.StatusError:
			if item.err != nil {
				line += "  " + truncate(item.err.Error(), nameWidth)
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	finished := 0
	for _, item := range m.items {
		if item.status == loader.StatusDone || item.status == loader.StatusError {
			finished++
		}
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("\n  %d/%d traces", finished, len(m.items))))
	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev loader.Event) tea.Cmd {
	idx, ok := m.index[ev.Path]
	if !ok {
		return nil
	}
	item := &m.items[idx]
	item.status = ev.Status
	item.records = ev.Records
	item.elapsed = ev.Elapsed
	item.err = ev.Err
	return m.prog.SetPercent(m.fraction())
}

// fraction counts a loading path as half done.
func (m *progressModel) fraction() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, item := range m.items {
		switch item.status {
		case loader.StatusDone, loader.StatusError:
			total++
		case loader.StatusLoading:
			total += 0.5
		}
	}
	return total / float64(len(m.items))
}

func styleStatus(status loader.Status) lipgloss.Style {
	switch status {
	case loader.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case loader.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case loader.StatusLoading:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
