package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bnema/colony-cli/internal/application"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type launchDoneMsg struct {
	err error
}

// launchSpinnerModel launches sessions one after another and shows a
// spinner with progress until all of them have answered.
type launchSpinnerModel struct {
	spinner spinner.Model
	launch  func() tea.Msg
	total   int
	done    int
	errs    []error
}

func newLaunchSpinnerModel(total int, launch func() tea.Msg) launchSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return launchSpinnerModel{
		spinner: s,
		launch:  launch,
		total:   total,
	}
}

func (m launchSpinnerModel) Init() tea.Cmd {
	if m.total == 0 {
		return tea.Quit
	}
	return tea.Batch(m.spinner.Tick, m.launch)
}

func (m launchSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case launchDoneMsg:
		m.done++
		if msg.err != nil {
			m.errs = append(m.errs, msg.err)
		}
		if m.done >= m.total {
			return m, tea.Quit
		}
		return m, m.launch
	default:
		return m, nil
	}
}

func (m launchSpinnerModel) View() string {
	if m.done >= m.total {
		return ""
	}

	return fmt.Sprintf("%s Starting sessions %d/%d...", m.spinner.View(), m.done+1, m.total)
}

// launchSessions adds and starts n sessions. Sessions whose start failed
// stay Idle in the manager; their errors are joined.
func launchSessions(ctx context.Context, output io.Writer, controls *application.Controls, n int) error {
	launch := func() tea.Msg {
		_, err := controls.Launch(ctx)
		return launchDoneMsg{err: err}
	}

	p := tea.NewProgram(
		newLaunchSpinnerModel(n, launch),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(launchSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return errors.Join(result.errs...)
}
