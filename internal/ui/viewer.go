package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"

	"jets/internal/loader"
	"jets/internal/sorting"
	"jets/internal/trace"
	"jets/internal/visibility"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// header and footer lines around the rows
const chromeLines = 4

const helpLine = "↑/↓ move  enter toggle  s sort  S reverse  f filter  e/c expand/collapse all  r reload  q quit"

// ViewerOptions configure a Viewer.
type ViewerOptions struct {
	Path string
	// Start begins a load of Path. It is called once at startup and again
	// on every reload.
	Start func() <-chan loader.Result
	// Current reports whether a result answers the latest Start. Nil
	// accepts every result.
	Current func(loader.Result) bool
	// Sessions may be nil; then nothing is restored or saved.
	Sessions    *SessionStore
	Sort        *sorting.Spec
	ExpandDepth int
	// Range fixes the filter window instead of the rows on screen.
	Range *visibility.Viewport
}

// Viewer is the interactive tree browser.
type Viewer struct {
	opts    ViewerOptions
	spinner spinner.Model
	bar     progress.Model
	state   *State
	pending <-chan loader.Result
	err     error
	saveErr error
	width   int
	height  int
}

type loadedMsg loader.Result

func NewViewer(opts ViewerOptions) *Viewer {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 20
	return &Viewer{opts: opts, spinner: sp, bar: bar, width: 80, height: 24}
}

// Err is the load error, if the trace could not be loaded.
func (v *Viewer) Err() error { return v.err }

// SaveErr is the error from saving the session on quit.
func (v *Viewer) SaveErr() error { return v.saveErr }

// State is nil until the trace has loaded.
func (v *Viewer) State() *State { return v.state }

func (v *Viewer) Init() tea.Cmd {
	return tea.Batch(v.spinner.Tick, v.startLoad())
}

func (v *Viewer) startLoad() tea.Cmd {
	v.pending = v.opts.Start()
	return v.waitForLoad(v.pending)
}

func (v *Viewer) waitForLoad(ch <-chan loader.Result) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			return loadedMsg{Err: errors.Newf("load of %s produced no result", v.opts.Path)}
		}
		return loadedMsg(res)
	}
}

func (v *Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if v.opts.Current != nil && !v.opts.Current(loader.Result(msg)) {
			return v, nil
		}
		if msg.Err != nil {
			v.err = msg.Err
			return v, tea.Quit
		}
		v.loaded(msg.Trace)
		return v, nil
	case spinner.TickMsg:
		if v.state != nil {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	case tea.WindowSizeMsg:
		v.width, v.height = msg.Width, msg.Height
		if v.state != nil {
			v.state.SetHeight(v.rowsHeight())
		}
		return v, nil
	case tea.KeyMsg:
		return v, v.key(msg.String())
	}
	return v, nil
}

func (v *Viewer) rowsHeight() int {
	return max(v.height-chromeLines, 1)
}

func (v *Viewer) loaded(tr trace.Trace) {
	s := NewState(tr, v.rowsHeight())
	s.SetRange(v.opts.Range)
	if v.state != nil {
		// reload: carry the current view over
		s.Restore(v.state.Snapshot(v.opts.Path))
	} else if sess, ok, err := v.opts.Sessions.Load(v.opts.Path); err == nil && ok {
		s.Restore(sess)
	} else {
		s.ExpandDepth(v.opts.ExpandDepth)
		if v.opts.Sort != nil {
			s.SetSort(v.opts.Sort)
		}
	}
	v.state = s
}

// key applies one key press. Keys before the trace loads only quit.
func (v *Viewer) key(k string) tea.Cmd {
	if k == "ctrl+c" || k == "q" {
		v.save()
		return tea.Quit
	}
	s := v.state
	if s == nil {
		return nil
	}
	switch k {
	case "up", "k":
		s.Move(-1)
	case "down", "j":
		s.Move(1)
	case "pgup":
		s.Move(-s.Height())
	case "pgdown":
		s.Move(s.Height())
	case "home", "g":
		s.Home()
	case "end", "G":
		s.End()
	case "enter", " ":
		s.Toggle()
	case "s":
		s.CycleSort()
	case "S":
		s.FlipSort()
	case "f":
		s.ToggleFilter()
	case "e":
		s.ExpandAll()
	case "c":
		s.CollapseAll()
	case "r":
		return v.startLoad()
	}
	return nil
}

func (v *Viewer) save() {
	if v.state == nil || v.opts.Sessions == nil {
		return
	}
	v.saveErr = v.opts.Sessions.Save(v.state.Snapshot(v.opts.Path))
}

func (v *Viewer) View() string {
	if v.err != nil {
		return errorStyle.Render("error: "+v.err.Error()) + "\n"
	}
	s := v.state
	if s == nil {
		return fmt.Sprintf("%s loading %s\n", v.spinner.View(), v.opts.Path)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(truncate(v.status(), v.width)))
	b.WriteString("\n\n")

	window := s.Window()
	for i, row := range window {
		line := Pad(Fit(Describe(s.Trace(), s.Expanded(), row).String(), v.width), v.width)
		if s.Offset()+i == s.Cursor() {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for range s.Height() - len(window) {
		b.WriteByte('\n')
	}

	pos := 1.0
	if n := len(s.Rows()); n > 1 {
		pos = float64(s.Cursor()) / float64(n-1)
	}
	b.WriteString(v.bar.ViewAs(pos))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(truncate(helpLine, v.width-v.bar.Width-2)))
	return b.String()
}

func (v *Viewer) status() string {
	s := v.state
	parts := []string{
		v.opts.Path,
		s.Trace().Format().String(),
		fmt.Sprintf("%d/%d rows", s.FilteredRows(), s.TotalRows()),
		fmt.Sprintf("depth %d", s.MaxDepth()),
	}
	if spec, ok := s.Sort(); ok {
		parts = append(parts, "sort "+spec.String())
	}
	if f, ok := s.Filter(); ok {
		parts = append(parts, fmt.Sprintf("filter [%d, %d]", f.Start, f.End))
	}
	return strings.Join(parts, " | ")
}
