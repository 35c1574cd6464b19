package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/launchpad-sh/launchpad/internal/domain/download"
)

// Reporter drives the visible progress of an install run and must be
// stopped with Stop once materialization finishes.
type Reporter interface {
	Progress() download.ProgressFunc
	Stop()
}

// NewReporter picks a Bubble Tea progress list when out is a TTY, and a
// plain percentage-line reporter otherwise (spec's "never break a
// non-interactive shell" requirement extends to progress output).
func NewReporter(out *os.File) Reporter {
	if term.IsTerminal(int(out.Fd())) {
		return newTeaReporter(out)
	}
	return newPlainReporter(out)
}

// plainReporter prints one percentage line per task whenever progress
// crosses a 10% boundary, suitable for logs and CI.
type plainReporter struct {
	mu       sync.Mutex
	out      io.Writer
	lastTens map[string]int
}

func newPlainReporter(out io.Writer) *plainReporter {
	return &plainReporter{out: out, lastTens: make(map[string]int)}
}

func (r *plainReporter) Progress() download.ProgressFunc {
	return func(task download.Task, downloaded, total int64) {
		if total <= 0 {
			return
		}
		pct := int(float64(downloaded) / float64(total) * 100)
		tens := pct / 10

		r.mu.Lock()
		defer r.mu.Unlock()
		last, seen := r.lastTens[task.Domain]
		if seen && last >= tens && pct < 100 {
			return
		}
		r.lastTens[task.Domain] = tens
		fmt.Fprintf(r.out, "%s: %d%%\n", task.Domain, pct)
	}
}

func (r *plainReporter) Stop() {}

// teaReporter relays progress callbacks into a running Bubble Tea
// program via tea.Program.Send, from whatever goroutine the download
// engine calls ProgressFunc on.
type teaReporter struct {
	program *tea.Program
	done    chan struct{}
}

func newTeaReporter(out *os.File) *teaReporter {
	model := newProgressModel()
	program := tea.NewProgram(model, tea.WithOutput(out))
	done := make(chan struct{})
	go func() {
		_, _ = program.Run()
		close(done)
	}()
	return &teaReporter{program: program, done: done}
}

func (r *teaReporter) Progress() download.ProgressFunc {
	return func(task download.Task, downloaded, total int64) {
		r.program.Send(taskProgressMsg{domain: task.Domain, downloaded: downloaded, total: total})
	}
}

func (r *teaReporter) Stop() {
	r.program.Send(allDoneMsg{})
	<-r.done
}

type taskProgressMsg struct {
	domain     string
	downloaded int64
	total      int64
}

type allDoneMsg struct{}

type progressModel struct {
	styles  Styles
	bar     Bar
	spinner spinner.Model
	tasks   map[string]float64
	order   []string
	done    bool
}

func newProgressModel() progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = DefaultStyles().Title
	return progressModel{
		styles:  DefaultStyles(),
		bar:     NewBar(40),
		spinner: s,
		tasks:   make(map[string]float64),
	}
}

func (m progressModel) Init() tea.Cmd { return m.spinner.Tick }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskProgressMsg:
		if _, ok := m.tasks[msg.domain]; !ok {
			m.order = append(m.order, msg.domain)
		}
		if msg.total > 0 {
			m.tasks[msg.domain] = float64(msg.downloaded) / float64(msg.total)
		}
		return m, nil
	case allDoneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}
	if len(m.order) == 0 {
		return fmt.Sprintf("%s %s\n", m.spinner.View(), m.styles.Help.Render("resolving packages"))
	}

	var sum float64
	for _, d := range m.order {
		sum += m.tasks[d]
	}
	overall := sum / float64(len(m.order))

	out := m.styles.Title.Render("Installing") + "\n"
	out += m.bar.SetPercent(overall).View() + "\n"
	for _, domain := range m.order {
		pct := int(m.tasks[domain] * 100)
		out += m.styles.Help.Render(fmt.Sprintf("  %s %d%%", domain, pct)) + "\n"
	}
	return out
}
