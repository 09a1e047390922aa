package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/colony-cli/internal/application"
	"github.com/bnema/colony-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
	// Plain skips colouring grid cells, e.g. when output is piped.
	Plain bool
}

func renderView(snapshots []application.SessionSnapshot, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Colony sessions"),
		s.header.Render(fmt.Sprintf("sessions: %d", len(snapshots))),
	}

	if len(snapshots) == 0 {
		lines = append(lines, s.empty.Render("No sessions."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, snap := range snapshots {
		lines = append(lines, s.section.Render(renderSession(snap, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSession(snap application.SessionSnapshot, opts RenderOptions, s styles) string {
	parts := []string{sessionTitle(snap, s), sessionMeta(snap, opts, s)}
	if snap.LastError != "" {
		parts = append(parts, s.warning.Render("error: "+snap.LastError))
	}
	parts = append(parts, renderGrid(snap, opts, s))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func sessionTitle(snap application.SessionSnapshot, s styles) string {
	title := fmt.Sprintf("Session %d", snap.Key)
	if snap.RemoteID != "" {
		title += fmt.Sprintf(" (%s)", shortID(snap.RemoteID))
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.session.Render(title),
		" ",
		s.status(snap.Status).Render(snap.Status.String()),
	)
}

func sessionMeta(snap application.SessionSnapshot, opts RenderOptions, s styles) string {
	meta := []string{
		s.counter.Render(fmt.Sprintf("crystals: %d", snap.LastState.CrystalCount)),
		s.counter.Render(fmt.Sprintf("energy: %d", snap.LastState.EnergyCount)),
		s.detail.Render(fmt.Sprintf("every %s", snap.PollInterval)),
	}
	if snap.Config != nil {
		meta = append(meta, s.detail.Render(fmt.Sprintf("%dx%d seed %d", snap.Config.Columns, snap.Config.Rows, snap.Config.Seed)))
	}
	if age := updatedAge(snap.UpdatedAt, opts.Now); age != "" {
		meta = append(meta, s.header.Render(age))
	}

	return strings.Join(meta, "  ")
}

func renderGrid(snap application.SessionSnapshot, opts RenderOptions, s styles) string {
	if snap.LastState.Empty() {
		return s.empty.Render(emptyGridLabel(snap.Status))
	}

	symbols := domain.DefaultCellSymbols()
	if snap.Config != nil {
		symbols = snap.Config.CellSymbols
	}

	rows := make([]string, 0, len(snap.LastState.Grid))
	var b strings.Builder
	for _, row := range snap.LastState.Grid {
		b.Reset()
		for _, cell := range row {
			if opts.Plain {
				b.WriteString(cell)
				continue
			}
			role, ok := symbols.RoleOf(cell)
			if !ok {
				b.WriteString(cell)
				continue
			}
			b.WriteString(s.cells[role].Render(cell))
		}
		rows = append(rows, b.String())
	}

	grid := strings.Join(rows, "\n")
	if opts.Plain {
		return grid
	}
	return s.frame.Render(grid)
}

func emptyGridLabel(status domain.Status) string {
	switch status {
	case domain.StatusIdle:
		return "Not started."
	case domain.StatusStarting:
		return "Starting..."
	case domain.StatusTerminated:
		return "Stopped."
	default:
		return "Waiting for first state..."
	}
}

func updatedAge(updatedAt, now time.Time) string {
	if updatedAt.IsZero() || now.IsZero() {
		return ""
	}

	age := now.Sub(updatedAt)
	if age < time.Second {
		return "updated just now"
	}
	return fmt.Sprintf("updated %s ago", age.Truncate(time.Second))
}

func shortID(id domain.RemoteID) string {
	const width = 8
	if len(id) <= width {
		return string(id)
	}
	return string(id[:width])
}
