package planner

import (
	"sort"
	"strings"
	"time"

	"asiops/pkg/model"
)

const (
	UnassignedID   = "unassigned"
	UnassignedName = "Unassigned"
)

// Snapshot is the state of the world a view is computed from. Views hold
// no references back into it beyond the bookings they display.
type Snapshot struct {
	Bookings []model.Booking `json:"bookings" yaml:"bookings"`
	Jobs     []model.Job     `json:"jobs" yaml:"jobs"`
	Staff    []model.Staff   `json:"staff" yaml:"staff"`
}

type Request struct {
	Mode   Mode
	Anchor time.Time
}

type View struct {
	Range Range    `json:"range"`
	Days  []string `json:"days"`
	Rows  []Row    `json:"rows"`
}

type Row struct {
	Staff      model.AllocatedStaff `json:"staff"`
	Unassigned bool                 `json:"unassigned"`
	Directory  bool                 `json:"directory"`
	LaneCount  int                  `json:"laneCount"`
	Events     []PlacedEvent        `json:"events"`
}

type PlacedEvent struct {
	ID            string              `json:"id"`
	BookingID     string              `json:"bookingId"`
	ClientName    string              `json:"clientName,omitempty"`
	BookingStatus model.BookingStatus `json:"bookingStatus"`
	JobID         string              `json:"jobId,omitempty"`
	JobStatus     model.JobStatus     `json:"jobStatus,omitempty"`
	Window        Window              `json:"window"`
	Lane          int                 `json:"lane"`
	StartCol      int                 `json:"startCol"`
	EndCol        int                 `json:"endCol"`
}

type rowBuilder struct {
	row    Row
	events []Event
}

// BuildView lays out every resolvable, non-cancelled booking of the
// snapshot that overlaps the requested range. Rows come in three groups:
// directory staff (even when idle), staff only known from bookings, then
// the Unassigned row.
func BuildView(snap Snapshot, req Request, loc *time.Location) View {
	if loc == nil {
		loc = time.UTC
	}
	r := RangeFor(req.Mode, req.Anchor.In(loc))

	jobs := make(map[string]*model.Job, len(snap.Jobs))
	for i := range snap.Jobs {
		jobs[snap.Jobs[i].ID] = &snap.Jobs[i]
	}

	rows := make(map[string]*rowBuilder)
	var directory []string
	for _, s := range snap.Staff {
		key := staffKey(s.ID, s.Name)
		if key == "" {
			continue
		}
		if _, dup := rows[key]; dup {
			continue
		}
		rows[key] = &rowBuilder{row: Row{
			Staff:     model.AllocatedStaff{ID: s.ID, Name: s.Name, Type: s.Type},
			Directory: true,
		}}
		directory = append(directory, key)
	}

	var extra []string
	unassigned := &rowBuilder{row: Row{
		Staff:      model.AllocatedStaff{ID: UnassignedID, Name: UnassignedName},
		Unassigned: true,
	}}

	for i := range snap.Bookings {
		b := &snap.Bookings[i]
		if b.IsCancelled() {
			continue
		}
		w, ok := ResolveWindow(b, loc)
		if !ok || !w.Intersects(r.Start, r.End) {
			continue
		}
		job := jobs[b.ConvertedJobID]

		if len(b.AllocatedStaff) == 0 {
			unassigned.events = append(unassigned.events, Event{
				ID: b.ID + ":" + UnassignedID, Booking: b, Staff: unassigned.row.Staff, Job: job, Window: w,
			})
			continue
		}
		for _, s := range b.AllocatedStaff {
			key := staffKey(s.ID, s.Name)
			rb, found := rows[key]
			if !found {
				rb = &rowBuilder{row: Row{Staff: s}}
				rows[key] = rb
				extra = append(extra, key)
			}
			rb.events = append(rb.events, Event{
				ID: b.ID + ":" + key, Booking: b, Staff: s, Job: job, Window: w,
			})
		}
	}

	inactive := make(map[string]bool)
	for _, s := range snap.Staff {
		if !s.Active {
			inactive[staffKey(s.ID, s.Name)] = true
		}
	}

	sort.SliceStable(extra, func(i, j int) bool {
		return strings.ToLower(rows[extra[i]].row.Staff.Name) < strings.ToLower(rows[extra[j]].row.Staff.Name)
	})

	view := View{Range: r, Days: r.DayLabels()}
	for _, key := range directory {
		rb := rows[key]
		if inactive[key] && len(rb.events) == 0 {
			continue
		}
		view.Rows = append(view.Rows, rb.layout(r))
	}
	for _, key := range extra {
		view.Rows = append(view.Rows, rows[key].layout(r))
	}
	if len(unassigned.events) > 0 {
		view.Rows = append(view.Rows, unassigned.layout(r))
	}
	return view
}

func (rb *rowBuilder) layout(r Range) Row {
	row := rb.row
	row.Events = []PlacedEvent{}
	SortByStart(rb.events)
	lanes := Pack(rb.events)
	row.LaneCount = len(lanes)
	for lane, events := range lanes {
		for _, ev := range events {
			row.Events = append(row.Events, place(ev, lane, r))
		}
	}
	sort.SliceStable(row.Events, func(i, j int) bool {
		return row.Events[i].Window.Start.Before(row.Events[j].Window.Start)
	})
	return row
}

func place(ev Event, lane int, r Range) PlacedEvent {
	startCol, endCol := r.Columns(ev.Window)
	p := PlacedEvent{
		ID:            ev.ID,
		BookingID:     ev.Booking.ID,
		ClientName:    ev.Booking.ClientName,
		BookingStatus: ev.Booking.Status,
		Window:        ev.Window,
		Lane:          lane,
		StartCol:      startCol,
		EndCol:        endCol,
	}
	if ev.Job != nil {
		p.JobID = ev.Job.ID
		p.JobStatus = ev.Job.Status
	}
	return p
}

func staffKey(id, name string) string {
	if id != "" {
		return id
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	return "name:" + name
}
