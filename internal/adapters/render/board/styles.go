package board

import (
	"github.com/bnema/colony-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	session  lipgloss.Style
	detail   lipgloss.Style
	warning  lipgloss.Style
	section  lipgloss.Style
	empty    lipgloss.Style
	counter  lipgloss.Style
	tab      lipgloss.Style
	tabFocus lipgloss.Style
	frame    lipgloss.Style
	notice   lipgloss.Style
	statuses map[domain.Status]lipgloss.Style
	cells    map[domain.Role]lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true),
		header:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		session:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		warning:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:  lipgloss.NewStyle().MarginTop(1),
		empty:    lipgloss.NewStyle().Faint(true),
		counter:  lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		tab:      lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245")),
		tabFocus: lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("255")).Background(lipgloss.Color("24")),
		frame:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")),
		notice:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true),
		statuses: map[domain.Status]lipgloss.Style{
			domain.StatusIdle:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			domain.StatusStarting:   lipgloss.NewStyle().Foreground(lipgloss.Color("69")),
			domain.StatusRunning:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("78")),
			domain.StatusPaused:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("221")),
			domain.StatusStopping:   lipgloss.NewStyle().Foreground(lipgloss.Color("209")),
			domain.StatusTerminated: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		},
		cells: map[domain.Role]lipgloss.Style{
			domain.RoleEmpty:    lipgloss.NewStyle(),
			domain.RoleObstacle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
			domain.RoleBase:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")),
			domain.RoleScout:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
			domain.RoleGatherer: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			domain.RoleCrystal:  lipgloss.NewStyle().Foreground(lipgloss.Color("177")),
			domain.RoleEnergy:   lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		},
	}
}

func (s styles) status(status domain.Status) lipgloss.Style {
	if style, ok := s.statuses[status]; ok {
		return style
	}
	return s.detail
}
