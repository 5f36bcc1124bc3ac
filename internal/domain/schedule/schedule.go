// Package schedule implements the doctor availability engine: weekly
// working-hour windows, leave-date exclusions, hospital-wide weekend
// closure, and free-slot enumeration. Everything in this package is pure
// computation over its inputs; callers supply schedules, leave dates and
// already-booked times, and persistence stays in the domain services.
package schedule

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar-date format used for leave dates and
// appointment dates throughout the system.
const DateLayout = "2006-01-02"

// TimeLayout is the HH:MM format used for working windows and slot times.
const TimeLayout = "15:04"

// DefaultSlotMinutes is the appointment slot duration used when a caller
// does not specify one.
const DefaultSlotMinutes = 30

// DayWindow is the working window for a single weekday. Start and End are
// HH:MM times of day; the window is half-open [Start, End). A disabled
// window means the doctor does not work that day.
type DayWindow struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Enabled bool   `json:"enabled"`
}

// WeekSchedule holds one window per weekday, indexed 0=Monday .. 6=Sunday.
// The zero value has every day disabled, which the engine treats as
// "unavailable until a default schedule is installed".
type WeekSchedule [7]DayWindow

// DefaultWeek returns the hospital default: Monday-Friday 08:00-17:00,
// Saturday and Sunday disabled.
func DefaultWeek() WeekSchedule {
	var ws WeekSchedule
	for d := 0; d < 7; d++ {
		ws[d] = DayWindow{Start: "08:00", End: "17:00", Enabled: d < 5}
	}
	return ws
}

// IsZero reports whether no weekday has a window configured at all.
func (ws WeekSchedule) IsZero() bool {
	for _, w := range ws {
		if w != (DayWindow{}) {
			return false
		}
	}
	return true
}

// Validate checks every enabled window for parseable HH:MM bounds with
// start strictly before end. Used at the boundary when admins edit a
// doctor's schedule.
func (ws WeekSchedule) Validate() error {
	for d, w := range ws {
		if !w.Enabled {
			continue
		}
		start, err := time.Parse(TimeLayout, w.Start)
		if err != nil {
			return fmt.Errorf("weekday %d: invalid start %q", d, w.Start)
		}
		end, err := time.Parse(TimeLayout, w.End)
		if err != nil {
			return fmt.Errorf("weekday %d: invalid end %q", d, w.End)
		}
		if !start.Before(end) {
			return fmt.Errorf("weekday %d: start %s must be before end %s", d, w.Start, w.End)
		}
	}
	return nil
}

// Weekday converts a calendar date to the Monday-indexed weekday used by
// WeekSchedule (0=Monday .. 6=Sunday).
func Weekday(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

// IsWeekend reports whether the date falls on Saturday or Sunday. The
// hospital is closed on weekends regardless of per-doctor configuration.
func IsWeekend(date time.Time) bool {
	return Weekday(date) >= 5
}

// WindowForWeekday returns the working window for the given Monday-indexed
// weekday. The second return value is false when the day is out of range,
// unconfigured, or disabled.
func (ws WeekSchedule) WindowForWeekday(weekday int) (DayWindow, bool) {
	if weekday < 0 || weekday > 6 {
		return DayWindow{}, false
	}
	w := ws[weekday]
	if !w.Enabled {
		return DayWindow{}, false
	}
	return w, true
}

// IsAvailableOnDate decides whether a doctor with the given weekly schedule
// and leave dates works on the given calendar date. Weekend closure is
// checked first, then leave dates (ISO strings), then the weekday window.
func IsAvailableOnDate(ws WeekSchedule, leaveDates []string, date time.Time) bool {
	if IsWeekend(date) {
		return false
	}
	iso := date.Format(DateLayout)
	for _, d := range leaveDates {
		if d == iso {
			return false
		}
	}
	_, ok := ws.WindowForWeekday(Weekday(date))
	return ok
}

// ContainsTime reports whether the HH:MM time of day falls inside the
// half-open window [Start, End). A time equal to End is outside.
func (w DayWindow) ContainsTime(hhmm string) bool {
	t, err := time.Parse(TimeLayout, hhmm)
	if err != nil {
		return false
	}
	start, err := time.Parse(TimeLayout, w.Start)
	if err != nil {
		return false
	}
	end, err := time.Parse(TimeLayout, w.End)
	if err != nil {
		return false
	}
	return !t.Before(start) && t.Before(end)
}

// AvailableSlots enumerates the bookable HH:MM slot times for the given
// date: start, start+d, start+2d, ... while strictly before the window end,
// skipping any time present in booked. The result is chronological and
// rebuilt on every call. It is empty when the doctor is unavailable that
// day or when slotMinutes is not positive.
func AvailableSlots(ws WeekSchedule, leaveDates []string, date time.Time, slotMinutes int, booked map[string]bool) []string {
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}
	if !IsAvailableOnDate(ws, leaveDates, date) {
		return []string{}
	}
	w, ok := ws.WindowForWeekday(Weekday(date))
	if !ok {
		return []string{}
	}

	start, err := time.Parse(TimeLayout, w.Start)
	if err != nil {
		return []string{}
	}
	end, err := time.Parse(TimeLayout, w.End)
	if err != nil {
		return []string{}
	}

	slots := []string{}
	for cur := start; cur.Before(end); cur = cur.Add(time.Duration(slotMinutes) * time.Minute) {
		hhmm := cur.Format(TimeLayout)
		if booked[hhmm] {
			continue
		}
		slots = append(slots, hhmm)
	}
	return slots
}
