package board

import (
	"errors"
	"io"

	"github.com/bnema/colony-cli/internal/application"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

// model renders one frame of snapshots and quits. It backs the plain,
// non-interactive output.
type model struct {
	snapshots []application.SessionSnapshot
	opts      RenderOptions
	styles    styles
	output    string
}

func newModel(snapshots []application.SessionSnapshot, opts RenderOptions) model {
	return model{
		snapshots: snapshots,
		opts:      opts,
		styles:    newStyles(),
	}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = renderView(m.snapshots, m.opts, m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

func Render(snapshots []application.SessionSnapshot, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newModel(snapshots, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
