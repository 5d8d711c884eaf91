package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onestopai/clinicdesk/internal/records"
)

func appt(id string, date time.Time, status records.AppointmentStatus) records.Appointment {
	return records.Appointment{ID: id, PatientID: "PAT-x", Date: date, Status: status}
}

func TestSortAscendingIsStable(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	appts := []records.Appointment{
		appt("c", base.Add(2*time.Hour), records.StatusPending),
		appt("a", base, records.StatusPending),
		appt("b", base, records.StatusPending),
	}

	SortAscending(appts)

	require.Len(t, appts, 3)
	assert.Equal(t, "a", appts[0].ID)
	assert.Equal(t, "b", appts[1].ID, "equal dates keep insertion order")
	assert.Equal(t, "c", appts[2].ID)
}

func TestFilterCalendarDayBoundaries(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	lateToday := appt("late", time.Date(2024, 5, 1, 23, 59, 59, 0, time.UTC), records.StatusPending)
	earlyTomorrow := appt("early", time.Date(2024, 5, 2, 0, 0, 1, 0, time.UTC), records.StatusPending)
	yesterday := appt("past", time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC), records.StatusPending)
	pastDone := appt("done", time.Date(2024, 4, 29, 9, 0, 0, 0, time.UTC), records.StatusCompleted)
	all := []records.Appointment{yesterday, pastDone, lateToday, earlyTomorrow}

	today := Filter(all, FilterToday, now)
	require.Len(t, today, 1)
	assert.Equal(t, "late", today[0].ID)

	upcoming := Filter(all, FilterUpcoming, now)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "late", upcoming[0].ID)
	assert.Equal(t, "early", upcoming[1].ID)

	overdue := Filter(all, FilterOverdue, now)
	require.Len(t, overdue, 1)
	assert.Equal(t, "past", overdue[0].ID, "completed past appointments are not overdue")

	assert.Len(t, Filter(all, FilterAll, now), 4)
}

func TestParseFilterMode(t *testing.T) {
	assert.Equal(t, FilterToday, ParseFilterMode("today"))
	assert.Equal(t, FilterAll, ParseFilterMode("bogus"))
	assert.Equal(t, FilterAll, ParseFilterMode(""))
}

func TestReminderWindowSelection(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		offset   time.Duration
		status   records.AppointmentStatus
		included bool
	}{
		{"47h ahead pending", 47 * time.Hour, records.StatusPending, true},
		{"49h ahead pending", 49 * time.Hour, records.StatusPending, false},
		{"1h in the past", -time.Hour, records.StatusPending, false},
		{"10h ahead completed", 10 * time.Hour, records.StatusCompleted, false},
		{"exactly 48h ahead", 48 * time.Hour, records.StatusPending, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due := ReminderWindow([]records.Appointment{appt("x", now.Add(tt.offset), tt.status)}, now, 48*time.Hour)
			if tt.included {
				assert.Len(t, due, 1)
			} else {
				assert.Empty(t, due)
			}
		})
	}
}

func TestReminderWindowOrderAndCountdown(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	appts := []records.Appointment{
		appt("far", now.Add(40*time.Hour), records.StatusPending),
		appt("near", now.Add(7*time.Hour), records.StatusPending),
	}

	due := ReminderWindow(appts, now, 48*time.Hour)

	require.Len(t, due, 2)
	assert.Equal(t, "near", due[0].Appointment.ID)
	assert.Equal(t, 7, due[0].HoursUntil)
	assert.Equal(t, "7h", due[0].Countdown)
	assert.Equal(t, "far", due[1].Appointment.ID)
	assert.Equal(t, 40, due[1].HoursUntil)
	assert.Equal(t, "2d", due[1].Countdown)
}

func TestReminderWindowDefaultHorizon(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	due := ReminderWindow([]records.Appointment{
		appt("in", now.Add(30*time.Hour), records.StatusPending),
		appt("out", now.Add(72*time.Hour), records.StatusPending),
	}, now, 0)

	require.Len(t, due, 1)
	assert.Equal(t, "in", due[0].Appointment.ID)
}
