package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/skyframe/internal/display"
	"github.com/unklstewy/skyframe/internal/slideshow"
	"github.com/unklstewy/skyframe/pkg/feed"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Bold(true)

	statusStyles = map[feed.Status]lipgloss.Style{
		feed.StatusClimbing:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		feed.StatusDescending:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		feed.StatusCruising:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		feed.StatusApproaching: lipgloss.NewStyle().Foreground(lipgloss.Color("201")),
		feed.StatusLanded:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}

	captionStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("252"))

	overlayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("SKYFRAME"))
	b.WriteString("\n\n")

	if m.controller.Mode() == display.ModeFlight {
		b.WriteString(m.flightView())
	} else {
		b.WriteString(m.slideshowView())
	}

	b.WriteString("\n")
	b.WriteString(m.footer())

	return b.String()
}

// flightView renders the current carousel card plus a position indicator.
func (m model) flightView() string {
	flight, ok := m.controller.Current()
	if !ok {
		return cardStyle.Render("Waiting for first poll...")
	}

	statusStyle, found := statusStyles[flight.Status]
	if !found {
		statusStyle = valueStyle
	}

	ident := flight.Callsign
	if ident == "" {
		ident = flight.FlightNumber
	}
	if ident == "" {
		ident = flight.ID
	}

	rows := []string{
		valueStyle.Render(ident) + "  " + statusStyle.Render(strings.ToUpper(string(flight.Status))),
		"",
		row("Airline", airlineLabel(flight.Airline)),
		row("Route", fmt.Sprintf("%s -> %s", flight.Departure.IATA, flight.Arrival.IATA)),
		row("Aircraft", aircraftLabel(flight.Aircraft)),
		"",
		row("Altitude", fmt.Sprintf("%d ft", flight.Position.AltitudeFt)),
		row("Speed", fmt.Sprintf("%d kt", flight.Position.GroundSpeedKt)),
		row("Heading", fmt.Sprintf("%.0f°", flight.Position.Heading)),
		row("V/S", fmt.Sprintf("%+d fpm", flight.Position.VerticalRateFPM)),
		row("Position", fmt.Sprintf("%.4f, %.4f", flight.Position.Latitude, flight.Position.Longitude)),
	}

	card := cardStyle.Render(strings.Join(rows, "\n"))

	return card + "\n" + overlayStyle.Render(dots(len(m.controller.Flights()), m.controller.Index()))
}

// slideshowView renders the active photo's caption card, the crossfade
// progress and the drifting overlays.
func (m model) slideshowView() string {
	photo, ok := m.show.ActivePhoto()
	if !ok {
		// Zero photos: the engine renders nothing, so show a quiet notice.
		return cardStyle.Render("No aircraft overhead and no photos configured.")
	}

	var rows []string
	rows = append(rows, valueStyle.Render(photo.Src))
	if photo.Caption != "" {
		rows = append(rows, captionStyle.Render(photo.Caption))
	}
	if m.show.Transitioning() {
		rows = append(rows, labelStyle.Render("crossfading..."))
	}

	card := cardStyle.Render(strings.Join(rows, "\n"))

	clock := overlayStyle.Render(time.Now().Format("15:04"))
	indicator := overlayStyle.Render(dots(m.show.PhotoCount(), m.show.ActiveIndex()))

	width := lipgloss.Width(card)
	drift := m.show.CurrentDrift()

	return card + "\n" +
		placeOverlay(clock, m.show.ClockCorner(), width, drift) + "\n" +
		placeOverlay(indicator, m.show.DotsCorner(), width, drift)
}

// placeOverlay pins an overlay to its corner with the anti-burn-in drift
// translated into column padding.
func placeOverlay(s string, corner slideshow.Corner, width int, drift slideshow.Drift) string {
	pos := lipgloss.Left
	if corner == slideshow.CornerRight {
		pos = lipgloss.Right
	}

	pad := drift.X
	if corner == slideshow.CornerRight {
		pad = -drift.X
	}
	if pad > 0 {
		s = strings.Repeat(" ", pad) + s
	}

	return lipgloss.PlaceHorizontal(width, pos, s)
}

func (m model) footer() string {
	parts := []string{fmt.Sprintf("mode=%s", m.controller.Mode())}

	if m.lastSource != "" {
		parts = append(parts, fmt.Sprintf("source=%s", m.lastSource))
	}
	if !m.lastUpdate.IsZero() {
		parts = append(parts, fmt.Sprintf("updated=%s", m.lastUpdate.Format("15:04:05")))
	}
	if streak := m.controller.EmptyStreak(); streak > 0 {
		parts = append(parts, fmt.Sprintf("empty=%d", streak))
	}
	if m.lastErr != nil {
		parts = append(parts, "last poll failed")
	}
	parts = append(parts, "q: quit  ←/→: select flight")

	return footerStyle.Render(strings.Join(parts, "  |  "))
}

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-9s", label)) + " " + valueStyle.Render(value)
}

func airlineLabel(a feed.Airline) string {
	if a.Name != feed.Unknown {
		return a.Name
	}
	if a.ICAO != feed.Unknown {
		return a.ICAO
	}
	if a.IATA != feed.Unknown {
		return a.IATA
	}
	return feed.Unknown
}

func aircraftLabel(a feed.Aircraft) string {
	label := a.ICAOType
	if label == "" {
		label = feed.Unknown
	}
	if a.Registration != "" {
		label += " (" + a.Registration + ")"
	}
	return label
}

// dots renders a position indicator, one dot per entry.
func dots(n, current int) string {
	if n < 2 {
		return ""
	}
	marks := make([]string, n)
	for i := range marks {
		if i == current {
			marks[i] = "●"
		} else {
			marks[i] = "○"
		}
	}
	return strings.Join(marks, " ")
}
