package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/epitok/epitok/internal/domain/attendance"
	"github.com/epitok/epitok/internal/infrastructure/external/intra"
)

// styles colour the output. Colours are dropped when w is not a terminal.
type styles struct {
	title   lipgloss.Style
	muted   lipgloss.Style
	warning lipgloss.Style
	status  map[attendance.Presence]lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		warning: r.NewStyle().Foreground(lipgloss.Color("3")),
		status: map[attendance.Presence]lipgloss.Style{
			attendance.PresenceNone:          r.NewStyle().Foreground(lipgloss.Color("8")),
			attendance.PresencePresent:       r.NewStyle().Foreground(lipgloss.Color("2")),
			attendance.PresenceMissing:       r.NewStyle().Foreground(lipgloss.Color("1")),
			attendance.PresenceNotApplicable: r.NewStyle().Foreground(lipgloss.Color("4")),
			attendance.PresenceFailed:        r.NewStyle().Foreground(lipgloss.Color("5")),
		},
	}
}

// presence renders p padded to the widest label.
func (s styles) presence(p attendance.Presence) string {
	return s.status[p].Width(8).Render(p.String())
}

// renderEvent prints one listed event. index is 1-based.
func renderEvent(w io.Writer, s styles, baseURL string, index int, ev *attendance.Event, withStudents bool) {
	fmt.Fprintf(w, "%2d. %s-%s  %s\n", index, ev.Start(), ev.End(),
		s.title.Render(ev.Module()+" - "+ev.Title()))
	fmt.Fprintf(w, "    %s\n", s.muted.Render(ev.Code().Event+"  "+intra.PageURL(baseURL, ev.Code())))
	fmt.Fprintf(w, "    %s\n", ev.Summary())

	if !withStudents {
		return
	}
	for _, st := range ev.Students() {
		fmt.Fprintf(w, "      %s %s  %s\n", s.presence(st.Presence()), st.Login(), s.muted.Render(st.Name()))
	}
}
