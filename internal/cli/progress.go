package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	bprogress "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/WrongGitUsername/gns3-snapshot/pkg/pipeline"
)

// reporter shows batch progress. Update may be called from several workers
// at once.
type reporter interface {
	Update(p pipeline.Progress)
	Close()
}

// newReporter picks a progress bar for terminals and plain lines otherwise.
func newReporter(ctx context.Context, w io.Writer, total int) reporter {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return newBarReporter(ctx, w, total)
	}
	return newLineReporter(w, total)
}

// =============================================================================
// Plain lines
// =============================================================================

// lineReporter prints a line roughly every tenth of the batch, and one per
// failure.
type lineReporter struct {
	mu   sync.Mutex
	w    io.Writer
	step int
}

func newLineReporter(w io.Writer, total int) *lineReporter {
	return &lineReporter{w: w, step: max(1, total/10)}
}

func (r *lineReporter) Update(p pipeline.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !p.Result.Success {
		printError(r.w, "%s: %s", p.Result.ProjectID, p.Result.Reason)
	}
	if p.Done%r.step == 0 || p.Done == p.Total {
		printInfo(r.w, "%d/%d completed", p.Done, p.Total)
	}
}

func (r *lineReporter) Close() {}

// =============================================================================
// Progress bar
// =============================================================================

const maxBarWidth = 60

type progressMsg pipeline.Progress

type finishedMsg struct{}

// progressModel is the bubbletea model behind the terminal progress bar.
type progressModel struct {
	bar    bprogress.Model
	total  int
	done   int
	failed int
	last   string
}

func newProgressModel(total int) progressModel {
	bar := bprogress.New(bprogress.WithDefaultGradient(), bprogress.WithoutPercentage())
	bar.Width = 40
	return progressModel{bar: bar, total: total}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.done = msg.Done
		m.last = msg.Result.ProjectID
		if !msg.Result.Success {
			m.failed++
		}
	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(msg.Width-30, maxBarWidth))
	case finishedMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) percent() float64 {
	if m.total == 0 {
		return 1
	}
	return float64(m.done) / float64(m.total)
}

func (m progressModel) View() string {
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(m.bar.ViewAs(m.percent()))
	b.WriteString(" ")
	b.WriteString(StyleNumber.Render(fmt.Sprintf("%d/%d", m.done, m.total)))
	if m.failed > 0 {
		b.WriteString(StyleDim.Render(" · "))
		b.WriteString(styleIconError.Render(fmt.Sprintf("%d failed", m.failed)))
	}
	if m.last != "" && m.done < m.total {
		b.WriteString(StyleDim.Render(" · " + m.last))
	}
	b.WriteString("\n")
	return b.String()
}

// barReporter drives a bubbletea program on its own goroutine. The program
// reads no input, so Ctrl+C still reaches the process signal handler.
type barReporter struct {
	program *tea.Program
	stopped chan struct{}
}

func newBarReporter(ctx context.Context, w io.Writer, total int) *barReporter {
	r := &barReporter{
		program: tea.NewProgram(newProgressModel(total),
			tea.WithContext(ctx),
			tea.WithOutput(w),
			tea.WithInput(nil),
			tea.WithoutSignalHandler()),
		stopped: make(chan struct{}),
	}
	go func() {
		defer close(r.stopped)
		_, _ = r.program.Run()
	}()
	return r
}

func (r *barReporter) Update(p pipeline.Progress) {
	r.program.Send(progressMsg(p))
}

func (r *barReporter) Close() {
	r.program.Send(finishedMsg{})
	<-r.stopped
}
