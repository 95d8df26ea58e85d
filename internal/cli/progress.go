package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"

	"github.com/plugindex/plugindex/pkg/observability"
)

// Bubbletea messages fed by the observability hooks.
type (
	buildStartMsg struct{ total int }
	fetchDoneMsg  struct {
		entry string
		err   error
	}
)

// buildProgressModel renders a one-line progress bar for the fetch phase.
type buildProgressModel struct {
	total  int
	done   int
	failed int
	last   string
	width  int
}

func (m buildProgressModel) Init() tea.Cmd {
	return nil
}

func (m buildProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case buildStartMsg:
		m.total = msg.total
	case fetchDoneMsg:
		m.done++
		m.last = msg.entry
		if msg.err != nil {
			m.failed++
		}
		if m.total > 0 && m.done >= m.total {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m buildProgressModel) View() string {
	if m.total == 0 {
		return ""
	}

	const barWidth = 30
	filled := barWidth * m.done / m.total
	bar := styleBar.Render(strings.Repeat("█", filled)) + StyleDim.Render(strings.Repeat("░", barWidth-filled))

	line := fmt.Sprintf("%s %d/%d", bar, m.done, m.total)
	if m.failed > 0 {
		line += " " + StyleWarning.Render(fmt.Sprintf("(%d failed)", m.failed))
	}
	if m.last != "" {
		line += " " + StyleDim.Render(m.last)
	}
	// Truncate by display width; the bar runes are multibyte and the
	// styles embed escape sequences, so byte slicing would split both.
	if m.width > 0 {
		line = ansi.Truncate(line, m.width, "")
	}
	return line + "\n"
}

// teaBuildHooks forwards build events into the bubbletea program.
type teaBuildHooks struct {
	observability.NoopBuildHooks
	prog *tea.Program
}

func (h *teaBuildHooks) OnBuildStart(_ context.Context, _ string, total int) {
	h.prog.Send(buildStartMsg{total: total})
}

func (h *teaBuildHooks) OnFetchComplete(_ context.Context, entry string, _ time.Duration, err error) {
	h.prog.Send(fetchDoneMsg{entry: entry, err: err})
}

// startBuildProgress shows a live progress bar during the fetch phase when
// stderr is a terminal. The returned stop function tears the display down
// and must be called before printing the summary. When the display is not
// shown, stop is a no-op.
func startBuildProgress(verbose bool) (stop func()) {
	if verbose || !isatty.IsTerminal(os.Stderr.Fd()) {
		return func() {}
	}

	prog := tea.NewProgram(buildProgressModel{},
		tea.WithOutput(os.Stderr),
		tea.WithoutSignalHandler(),
	)
	observability.SetBuildHooks(&teaBuildHooks{prog: prog})

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		_, _ = prog.Run()
	}()

	return func() {
		observability.Reset()
		prog.Quit()
		<-finished
	}
}
