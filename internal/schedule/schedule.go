// Package schedule provides sort order and time-window predicates over
// appointments.
package schedule

import (
	"fmt"
	"math"
	"time"

	"github.com/onestopai/clinicdesk/internal/records"
)

// FilterMode selects an appointment list view.
type FilterMode string

const (
	FilterAll      FilterMode = "all"
	FilterToday    FilterMode = "today"
	FilterUpcoming FilterMode = "upcoming"
	FilterOverdue  FilterMode = "overdue"
)

// ParseFilterMode maps arbitrary input to a mode, falling back to all.
func ParseFilterMode(s string) FilterMode {
	switch FilterMode(s) {
	case FilterToday, FilterUpcoming, FilterOverdue:
		return FilterMode(s)
	default:
		return FilterAll
	}
}

// SortAscending restores the ascending-date invariant in place. The sort is
// stable: equal timestamps keep their relative order.
func SortAscending(appts []records.Appointment) {
	records.SortByDateAsc(appts)
}

// Filter selects appointments by calendar day relative to now. Day comparison
// truncates both sides to midnight in now's location, so 23:59 today and
// 00:01 tomorrow land on different days.
func Filter(appts []records.Appointment, mode FilterMode, now time.Time) []records.Appointment {
	if mode == FilterAll {
		return append([]records.Appointment(nil), appts...)
	}
	today := records.StartOfDay(now)
	var out []records.Appointment
	for _, a := range appts {
		day := records.StartOfDay(a.Date.In(now.Location()))
		switch mode {
		case FilterToday:
			if day.Equal(today) {
				out = append(out, a)
			}
		case FilterUpcoming:
			if !day.Before(today) {
				out = append(out, a)
			}
		case FilterOverdue:
			if day.Before(today) && a.Status == records.StatusPending {
				out = append(out, a)
			}
		}
	}
	return out
}

// Due is an appointment inside the reminder window with its countdown bucket.
type Due struct {
	Appointment records.Appointment
	HoursUntil  int
	Countdown   string
}

// ReminderWindow selects pending appointments with 0 < date-now <= horizon,
// ascending by date. HoursUntil is rounded to the nearest hour; Countdown
// displays hours below 24 and whole rounded days from there.
func ReminderWindow(appts []records.Appointment, now time.Time, horizon time.Duration) []Due {
	if horizon <= 0 {
		horizon = 48 * time.Hour
	}
	selected := make([]records.Appointment, 0, len(appts))
	for _, a := range appts {
		if a.Status != records.StatusPending {
			continue
		}
		diff := a.Date.Sub(now)
		if diff > 0 && diff <= horizon {
			selected = append(selected, a)
		}
	}
	records.SortByDateAsc(selected)

	due := make([]Due, 0, len(selected))
	for _, a := range selected {
		hours := int(math.Round(a.Date.Sub(now).Hours()))
		due = append(due, Due{
			Appointment: a,
			HoursUntil:  hours,
			Countdown:   countdown(hours),
		})
	}
	return due
}

func countdown(hours int) string {
	if hours < 24 {
		return fmt.Sprintf("%dh", hours)
	}
	days := int(math.Round(float64(hours) / 24))
	return fmt.Sprintf("%dd", days)
}
