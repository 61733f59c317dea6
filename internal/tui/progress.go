package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/qgsim/internal/sim"
)

const barWidth = 40

type ProgressMsg sim.Progress

type DoneMsg struct {
	Err error
}

type progressModel struct {
	title    string
	cancel   context.CancelFunc
	started  time.Time
	current  sim.Progress
	done     bool
	canceled bool
	err      error
}

func newProgressModel(title string, cancel context.CancelFunc) progressModel {
	return progressModel{title: title, cancel: cancel, started: time.Now()}
}

func (m progressModel) Init() tea.Cmd { return nil }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.canceled = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil
	case ProgressMsg:
		m.current = sim.Progress(msg)
		return m, nil
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	var b strings.Builder
	b.WriteString(Title(m.title))
	b.WriteString("\n\n")

	phases := []sim.Phase{sim.PhaseTransient, sim.PhaseAttractor}
	for _, ph := range phases {
		frac := 0.0
		switch {
		case m.done && m.err == nil:
			frac = 1
		case ph < m.current.Phase:
			frac = 1
		case ph == m.current.Phase:
			frac = m.current.Fraction
		}
		fmt.Fprintf(&b, "%s %s %5.1f%%\n", Label.Render(ph.String()), ProgressBar(frac, barWidth), 100*frac)
	}

	b.WriteString("\n")
	elapsed := time.Since(m.started).Round(time.Millisecond)
	switch {
	case m.done && m.err != nil:
		b.WriteString(Err("failed: " + m.err.Error()))
	case m.done:
		b.WriteString(OK(fmt.Sprintf("done in %s", elapsed)))
	case m.canceled:
		b.WriteString(Warn("canceling..."))
	default:
		b.WriteString(dim.Render(fmt.Sprintf("t=%.2f  elapsed %s  q to cancel", m.current.Time, elapsed)))
	}
	b.WriteString("\n")
	return b.String()
}

// RunWithProgress runs job while rendering its progress reports to out. The
// context passed to job is canceled when the user quits the view.
func RunWithProgress(ctx context.Context, out io.Writer, title string, job func(ctx context.Context, report sim.ProgressFunc) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(title, cancel), tea.WithOutput(out), tea.WithContext(ctx))

	errc := make(chan error, 1)
	go func() {
		err := job(ctx, func(pr sim.Progress) { p.Send(ProgressMsg(pr)) })
		errc <- err
		p.Send(DoneMsg{Err: err})
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return <-errc
}
