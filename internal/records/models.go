package records

import (
	"sort"
	"time"
)

// Gender of a patient record. Free-form input is normalized to Other.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// AppointmentStatus tracks the lifecycle of an appointment.
// Appointments are created pending; no core operation transitions them.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Patient is a registered patient record.
type Patient struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	DOB              string    `json:"dob"`
	Gender           Gender    `json:"gender"`
	Phone            string    `json:"phone"`
	WhatsApp         string    `json:"whatsapp"`
	BloodGroup       string    `json:"bloodGroup"`
	Allergies        string    `json:"allergies"`
	Address          string    `json:"address"`
	EmergencyContact string    `json:"emergencyContact"`
	RegistrationDate time.Time `json:"registrationDate"`
}

// Age returns the patient's age in full years at the given time.
// The second return is false when the date of birth is absent or unparseable.
func (p Patient) Age(now time.Time) (int, bool) {
	if p.DOB == "" {
		return 0, false
	}
	birth, err := time.ParseInLocation("2006-01-02", p.DOB, now.Location())
	if err != nil {
		return 0, false
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age, true
}

// Appointment is a scheduled visit. PatientID is not checked against the
// patient collection; readers must tolerate a dangling reference.
type Appointment struct {
	ID        string            `json:"id"`
	PatientID string            `json:"patientId"`
	Date      time.Time         `json:"date"`
	Reason    string            `json:"reason"`
	Status    AppointmentStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Visit is an opaque record; the engine only ever counts visits.
type Visit map[string]any

// Profile holds the doctor/clinic display fields and the auto-send flag.
type Profile struct {
	AppName            string `json:"appName"`
	Name               string `json:"name"`
	Qualification      string `json:"qualification"`
	Specialization     string `json:"specialization"`
	Clinic             string `json:"clinic"`
	Phone              string `json:"phone"`
	Address            string `json:"address"`
	AutoSendOnSchedule bool   `json:"autoSendWhatsAppOnSchedule"`
}

// ProfilePatch updates a subset of profile fields; nil fields are left alone.
type ProfilePatch struct {
	AppName            *string
	Name               *string
	Qualification      *string
	Specialization     *string
	Clinic             *string
	Phone              *string
	Address            *string
	AutoSendOnSchedule *bool
}

// UIPreferences survive reloads; they are not business data.
type UIPreferences struct {
	CurrentView string `json:"currentView"`
	Search      string `json:"search"`
	ApptFilter  string `json:"apptFilter"`
}

// FeatureFlags is the persisted boolean flag object.
type FeatureFlags struct {
	ShowInstall bool `json:"showInstall"`
}

// ThemePresets are the accepted theme names; anything else falls back to dark.
var ThemePresets = []string{"light", "dark", "pastel", "glass", "neo"}

const defaultTheme = "dark"

// NormalizeTheme maps unknown theme names to the default preset.
func NormalizeTheme(name string) string {
	for _, preset := range ThemePresets {
		if name == preset {
			return name
		}
	}
	return defaultTheme
}

// DefaultProfile returns the profile a fresh install starts with.
func DefaultProfile() Profile {
	return Profile{
		AppName:            "Onestop AI",
		Name:               "Dr. John Smith",
		Qualification:      "MBBS, MD",
		Specialization:     "General Physician",
		Clinic:             "HealthCare Clinic",
		Phone:              "+1234567890",
		Address:            "123 Medical Street, City",
		AutoSendOnSchedule: true,
	}
}

// DefaultUI returns the initial UI preferences.
func DefaultUI() UIPreferences {
	return UIPreferences{CurrentView: "dashboard", ApptFilter: "all"}
}

// DefaultFlags returns the initial feature flags.
func DefaultFlags() FeatureFlags {
	return FeatureFlags{ShowInstall: false}
}

// RecordSet is everything the store persists.
type RecordSet struct {
	Patients     []Patient
	Appointments []Appointment
	Visits       []Visit
	Profile      Profile
	UI           UIPreferences
	Flags        FeatureFlags
	Theme        string
	Templates    map[string]string
}

// SortByDateAsc stable-sorts appointments ascending by date, preserving the
// relative order of equal timestamps. The appointment collection invariant.
func SortByDateAsc(appts []Appointment) {
	sort.SliceStable(appts, func(i, j int) bool {
		return appts[i].Date.Before(appts[j].Date)
	})
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameCalendarDay reports whether a and b fall on the same calendar day,
// evaluated in b's location.
func SameCalendarDay(a, b time.Time) bool {
	return StartOfDay(a.In(b.Location())).Equal(StartOfDay(b))
}
