// ABOUTME: Bubbletea spinner shown while a slow API call runs
// ABOUTME: Runs the call in the background and quits when it returns

package spinner

import (
	"context"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/agrisense/leafdoctor/cli/internal/tui/styles"
)

// doneMsg is sent when the background call returns
type doneMsg struct{}

// Model is the spinner bubbletea model
type Model struct {
	spinner   spinner.Model
	title     string
	done      bool
	cancelled bool
}

// New creates a spinner model with the given title
func New(title string) Model {
	return Model{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(styles.KeyStyle),
		),
		title: title,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "esc" {
			m.cancelled = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return m.spinner.View() + " " + m.title + styles.Help.Render("  (ctrl+c to cancel)") + "\n"
}

// Cancelled reports whether the user interrupted the spinner
func (m Model) Cancelled() bool {
	return m.cancelled
}

// Run shows a spinner on out while fn runs. Interrupting the spinner cancels
// the context passed to fn; Run always waits for fn to return.
func Run[T any](ctx context.Context, out io.Writer, title string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(title), tea.WithContext(ctx), tea.WithOutput(out))

	var (
		result T
		err    error
	)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		result, err = fn(ctx)
		p.Send(doneMsg{})
	}()

	final, runErr := p.Run()
	if m, ok := final.(Model); runErr != nil || (ok && m.Cancelled()) {
		cancel()
	}
	<-finished
	return result, err
}
