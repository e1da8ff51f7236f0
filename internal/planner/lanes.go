package planner

import (
	"sort"

	"asiops/pkg/model"
)

// Event is one block on the planner: a booking as seen by one staff row.
type Event struct {
	ID      string
	Booking *model.Booking
	Staff   model.AllocatedStaff
	Job     *model.Job
	Window  Window
}

// SortByStart orders events by window start, keeping input order on ties.
func SortByStart(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Window.Start.Before(events[j].Window.Start)
	})
}

// Pack assigns start-ordered events to the first lane whose last event
// ends at or before the next start. Touching events share a lane. For
// start-ordered input this first-fit rule yields the minimum lane count.
func Pack(events []Event) [][]Event {
	var lanes [][]Event
	for _, ev := range events {
		placed := false
		for i := range lanes {
			last := lanes[i][len(lanes[i])-1]
			if !last.Window.End.After(ev.Window.Start) {
				lanes[i] = append(lanes[i], ev)
				placed = true
				break
			}
		}
		if !placed {
			lanes = append(lanes, []Event{ev})
		}
	}
	return lanes
}
