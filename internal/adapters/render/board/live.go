package board

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bnema/colony-cli/internal/application"
	"github.com/bnema/colony-cli/internal/domain"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Controller is what the live board needs from the application layer.
type Controller interface {
	ListSessions() []application.SessionSnapshot
	Launch(ctx context.Context) (application.SessionKey, error)
	TogglePause(key application.SessionKey) error
	SpeedUp(key application.SessionKey) (time.Duration, error)
	SlowDown(key application.SessionKey) (time.Duration, error)
	StartOrReset(ctx context.Context, key application.SessionKey) error
	Stop(ctx context.Context, key application.SessionKey) error
	Remove(ctx context.Context, key application.SessionKey) error
}

type updateMsg struct {
	update application.Update
}

type actionDoneMsg struct {
	action string
	err    error
}

// LiveModel is the interactive board: a tab per session, the focused
// session's grid, and key bindings mapped onto Controller calls. Remote
// calls run as commands so the view never blocks on the network.
type LiveModel struct {
	ctx      context.Context
	ctrl     Controller
	updates  <-chan application.Update
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	styles   styles
	now      func() time.Time
	sessions []application.SessionSnapshot
	focus    application.SessionKey
	notice   string
	quitting bool
}

func NewLiveModel(ctx context.Context, ctrl Controller, updates <-chan application.Update) LiveModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	m := LiveModel{
		ctx:     ctx,
		ctrl:    ctrl,
		updates: updates,
		keys:    newKeyMap(),
		help:    help.New(),
		spinner: s,
		styles:  newStyles(),
		now:     time.Now,
	}
	m.refresh()
	return m
}

func (m LiveModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForUpdate(m.updates))
}

func waitForUpdate(updates <-chan application.Update) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return nil
		}
		return updateMsg{update: u}
	}
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case updateMsg:
		m.refresh()
		return m, waitForUpdate(m.updates)
	case actionDoneMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
		} else {
			m.notice = msg.action + " done"
		}
		m.refresh()
		return m, nil
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m LiveModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Next):
		m.focusNext()
		return m, nil
	case key.Matches(msg, m.keys.Add):
		return m, m.run("add", func(ctx context.Context) error {
			_, err := m.ctrl.Launch(ctx)
			return err
		})
	}

	if len(m.sessions) == 0 {
		return m, nil
	}
	focus := m.focus

	switch {
	case key.Matches(msg, m.keys.Pause):
		m.setNotice("pause", m.ctrl.TogglePause(focus))
	case key.Matches(msg, m.keys.Faster):
		interval, err := m.ctrl.SpeedUp(focus)
		m.setIntervalNotice(interval, err)
	case key.Matches(msg, m.keys.Slower):
		interval, err := m.ctrl.SlowDown(focus)
		m.setIntervalNotice(interval, err)
	case key.Matches(msg, m.keys.Reset):
		return m, m.run("reset", func(ctx context.Context) error {
			return m.ctrl.StartOrReset(ctx, focus)
		})
	case key.Matches(msg, m.keys.Stop):
		return m, m.run("stop", func(ctx context.Context) error {
			return m.ctrl.Stop(ctx, focus)
		})
	case key.Matches(msg, m.keys.Remove):
		return m, m.run("remove", func(ctx context.Context) error {
			return m.ctrl.Remove(ctx, focus)
		})
	}

	m.refresh()
	return m, nil
}

func (m LiveModel) run(action string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{action: action, err: fn(ctx)}
	}
}

func (m *LiveModel) setNotice(action string, err error) {
	if err != nil {
		m.notice = fmt.Sprintf("%s failed: %v", action, err)
		return
	}
	m.notice = ""
}

func (m *LiveModel) setIntervalNotice(interval time.Duration, err error) {
	if err != nil {
		m.setNotice("speed", err)
		return
	}
	m.notice = fmt.Sprintf("polling every %s", interval)
}

// refresh reloads snapshots and keeps focus on an existing session.
func (m *LiveModel) refresh() {
	m.sessions = m.ctrl.ListSessions()
	for _, snap := range m.sessions {
		if snap.Key == m.focus {
			return
		}
	}
	m.focus = 0
	if len(m.sessions) > 0 {
		m.focus = m.sessions[0].Key
	}
}

func (m *LiveModel) focusNext() {
	if len(m.sessions) == 0 {
		return
	}
	for i, snap := range m.sessions {
		if snap.Key == m.focus {
			m.focus = m.sessions[(i+1)%len(m.sessions)].Key
			return
		}
	}
	m.focus = m.sessions[0].Key
}

func (m LiveModel) Focus() application.SessionKey {
	return m.focus
}

func (m LiveModel) View() string {
	if m.quitting {
		return ""
	}

	s := m.styles
	parts := []string{s.title.Render("Colony"), m.tabs()}

	if focused, ok := m.focused(); ok {
		body := renderSession(focused, RenderOptions{Now: m.now()}, s)
		if focused.Status == domain.StatusStarting || focused.Status == domain.StatusStopping {
			body = lipgloss.JoinVertical(lipgloss.Left, m.spinner.View()+" "+focused.Status.String()+"...", body)
		}
		parts = append(parts, s.section.Render(body))
	} else {
		parts = append(parts, s.section.Render(s.empty.Render("No sessions. Press a to add one.")))
	}

	if m.notice != "" {
		parts = append(parts, s.notice.Render(m.notice))
	}
	parts = append(parts, s.section.Render(m.help.View(m.keys)))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m LiveModel) tabs() string {
	if len(m.sessions) == 0 {
		return m.styles.header.Render("sessions: 0")
	}

	tabs := make([]string, 0, len(m.sessions))
	for _, snap := range m.sessions {
		label := fmt.Sprintf("#%d %s", snap.Key, snap.Status)
		if snap.Key == m.focus {
			tabs = append(tabs, m.styles.tabFocus.Render(label))
			continue
		}
		tabs = append(tabs, m.styles.tab.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m LiveModel) focused() (application.SessionSnapshot, bool) {
	for _, snap := range m.sessions {
		if snap.Key == m.focus {
			return snap, true
		}
	}
	return application.SessionSnapshot{}, false
}

// RunLive runs the interactive board until the user quits or ctx ends.
func RunLive(ctx context.Context, ctrl Controller, updates <-chan application.Update, input io.Reader, output io.Writer) error {
	p := tea.NewProgram(
		NewLiveModel(ctx, ctrl, updates),
		tea.WithContext(ctx),
		tea.WithInput(input),
		tea.WithOutput(output),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
