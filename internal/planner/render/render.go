// Package render draws a planner view as a lane-stacked terminal grid.
package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"asiops/internal/planner"
	"asiops/pkg/model"
)

const (
	minCellWidth = 3
	maxNameWidth = 20
	emptyCell    = "·"
)

type Options struct {
	// CellWidth is the number of characters per day column.
	CellWidth int
	// Plain disables colours and borders, for tests and piping.
	Plain bool
}

type styles struct {
	header     lipgloss.Style
	name       lipgloss.Style
	unassigned lipgloss.Style
	empty      lipgloss.Style
	status     map[model.BookingStatus]lipgloss.Style
	eot        lipgloss.Style
	box        lipgloss.Style
}

func newStyles(plain bool) styles {
	if plain {
		return styles{status: map[model.BookingStatus]lipgloss.Style{}}
	}
	return styles{
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true),
		name:       lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")),
		unassigned: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Italic(true),
		empty:      lipgloss.NewStyle().Foreground(lipgloss.Color("#444444")),
		status: map[model.BookingStatus]lipgloss.Style{
			model.BookingScheduled:  lipgloss.NewStyle().Background(lipgloss.Color("#2D3E63")).Foreground(lipgloss.Color("#FFFFFF")),
			model.BookingConfirmed:  lipgloss.NewStyle().Background(lipgloss.Color("#2E6B3A")).Foreground(lipgloss.Color("#FFFFFF")),
			model.BookingInProgress: lipgloss.NewStyle().Background(lipgloss.Color("#7A5C00")).Foreground(lipgloss.Color("#FFFFFF")),
			model.BookingCompleted:  lipgloss.NewStyle().Background(lipgloss.Color("#3A3A3A")).Foreground(lipgloss.Color("#999999")),
		},
		eot: lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true),
		box: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1),
	}
}

type Renderer struct {
	cellWidth int
	plain     bool
	styles    styles
}

func New(opts Options) *Renderer {
	width := opts.CellWidth
	if width < minCellWidth {
		width = 8
	}
	return &Renderer{cellWidth: width, plain: opts.Plain, styles: newStyles(opts.Plain)}
}

func (r *Renderer) render(style lipgloss.Style, s string) string {
	if r.plain {
		return s
	}
	return style.Render(s)
}

// Grid renders one line per lane. The staff name is printed on the first
// lane of each row.
func (r *Renderer) Grid(v planner.View) string {
	nameWidth := nameColumnWidth(v.Rows)

	lines := []string{r.headerLine(v, nameWidth), strings.Repeat("─", nameWidth) + "─┼─" + strings.Repeat("─", r.cellWidth*len(v.Days))}
	if len(v.Rows) == 0 {
		lines = append(lines, fit("(no staff or bookings in range)", nameWidth+3+r.cellWidth*len(v.Days)))
	}
	for _, row := range v.Rows {
		lines = append(lines, r.rowLines(row, len(v.Days), nameWidth)...)
	}

	grid := strings.Join(lines, "\n")
	title := fmt.Sprintf("%s view  %s – %s", v.Range.Mode,
		v.Range.Start.Format(planner.DateLayout),
		v.Range.End.AddDate(0, 0, -1).Format(planner.DateLayout))
	if r.plain {
		return title + "\n" + grid + "\n"
	}
	return r.styles.box.Render(lipgloss.JoinVertical(lipgloss.Left, r.styles.header.Render(title), grid)) + "\n"
}

func nameColumnWidth(rows []planner.Row) int {
	width := len("Staff")
	for _, row := range rows {
		if w := lipgloss.Width(row.Staff.Name); w > width {
			width = w
		}
	}
	return min(width, maxNameWidth)
}

func (r *Renderer) headerLine(v planner.View, nameWidth int) string {
	var b strings.Builder
	b.WriteString(r.render(r.styles.header, fit("Staff", nameWidth)))
	b.WriteString(" │ ")
	for _, day := range v.Days {
		b.WriteString(r.render(r.styles.header, fit(dayLabel(day, r.cellWidth), r.cellWidth)))
	}
	return b.String()
}

func dayLabel(day string, width int) string {
	t, err := time.Parse(planner.DateLayout, day)
	if err != nil {
		return day
	}
	if width >= 6 {
		return t.Format("Mon 02")
	}
	return t.Format("02")
}

type segment struct {
	start, end int
	label      string
	status     model.BookingStatus
}

func (r *Renderer) rowLines(row planner.Row, days, nameWidth int) []string {
	lanes := make([][]planner.PlacedEvent, max(row.LaneCount, 1))
	for _, ev := range row.Events {
		if ev.Lane >= 0 && ev.Lane < len(lanes) {
			lanes[ev.Lane] = append(lanes[ev.Lane], ev)
		}
	}

	nameStyle := r.styles.name
	if row.Unassigned {
		nameStyle = r.styles.unassigned
	}

	lines := make([]string, 0, len(lanes))
	for i, lane := range lanes {
		name := ""
		if i == 0 {
			name = row.Staff.Name
		}
		lines = append(lines, r.render(nameStyle, fit(name, nameWidth))+" │ "+r.laneCells(lane, days))
	}
	return lines
}

// laneCells draws a lane's events. Two short events on the same day share
// a column; the later ones are folded into a "+N" suffix.
func (r *Renderer) laneCells(events []planner.PlacedEvent, days int) string {
	sort.SliceStable(events, func(i, j int) bool { return events[i].StartCol < events[j].StartCol })

	var segs []segment
	var folded []int
	for _, ev := range events {
		if n := len(segs); n > 0 && ev.StartCol < segs[n-1].end {
			folded[n-1]++
			segs[n-1].end = max(segs[n-1].end, ev.EndCol)
			continue
		}
		segs = append(segs, segment{start: ev.StartCol, end: ev.EndCol, label: ev.ClientName, status: ev.BookingStatus})
		folded = append(folded, 0)
	}

	var b strings.Builder
	col := 0
	for i, seg := range segs {
		for ; col < seg.start && col < days; col++ {
			b.WriteString(r.render(r.styles.empty, fit(emptyCell, r.cellWidth)))
		}
		end := min(seg.end, days)
		if end <= col {
			continue
		}
		label := seg.label
		if folded[i] > 0 {
			label = fmt.Sprintf("%s +%d", label, folded[i])
		}
		b.WriteString(r.render(r.styles.status[seg.status], fit("["+label, (end-col)*r.cellWidth-1)+"]"))
		col = end
	}
	for ; col < days; col++ {
		b.WriteString(r.render(r.styles.empty, fit(emptyCell, r.cellWidth)))
	}
	return b.String()
}

// Candidates lists EOT candidates, one per line.
func (r *Renderer) Candidates(candidates []planner.EOTCandidate) string {
	if len(candidates) == 0 {
		return "No bookings awaiting an EOT decision.\n"
	}

	var b strings.Builder
	b.WriteString(r.render(r.styles.eot, fmt.Sprintf("EOT check needed (%d)", len(candidates))))
	b.WriteString("\n")
	for _, c := range candidates {
		prompted := "not yet prompted"
		if c.PromptedAt != nil {
			prompted = "prompted " + c.PromptedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&b, "  %s  %s  job %s (%s)  %s → %s  %s  [%s]\n",
			c.BookingID,
			c.ClientName,
			c.JobID,
			c.JobStatus,
			c.Window.Start.Format("2006-01-02 15:04"),
			c.Window.End.Format("2006-01-02 15:04"),
			prompted,
			joinActions(c.SuggestedActions),
		)
	}
	return b.String()
}

func joinActions(actions []model.EOTStatus) string {
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = string(a)
	}
	return strings.Join(parts, " | ")
}

// fit truncates or right-pads s to exactly width display cells.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if w := lipgloss.Width(s); w <= width {
		return s + strings.Repeat(" ", width-w)
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	out := string(runes) + "…"
	return out + strings.Repeat(" ", max(0, width-lipgloss.Width(out)))
}
