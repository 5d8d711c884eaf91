package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/onestopai/clinicdesk/internal/message"
	"github.com/onestopai/clinicdesk/internal/observability/metrics"
	"github.com/onestopai/clinicdesk/pkg/logging"
)

// Persisted document keys. One JSON document per key.
const (
	keyPatients     = "patients"
	keyAppointments = "appointments"
	keyVisits       = "visits"
	keyProfile      = "profile"
	keyUI           = "ui"
	keyFlags        = "flags"
	keyTheme        = "theme"
	keyTemplates    = "templates"
)

// Store owns every persisted record collection. All mutation goes through
// its methods, and every mutating method re-persists before returning; a
// failed save rolls the in-memory mutation back, so an operation that
// reports an error did not happen.
// The runtime is single-threaded; Store is not safe for concurrent use.
type Store struct {
	backend     Backend
	logger      *logging.Logger
	metrics     *metrics.EngineMetrics
	now         func() time.Time
	countryCode string
	subs        []func(Event)
	data        RecordSet
}

// Options configures a Store. Zero values get sensible defaults.
type Options struct {
	Logger      *logging.Logger
	Metrics     *metrics.EngineMetrics
	Clock       func() time.Time
	CountryCode string
}

// New creates a Store over the given backend with default (empty) records.
// Call Load to pull persisted state.
func New(backend Backend, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	cc := opts.CountryCode
	if cc == "" {
		cc = "91"
	}
	return &Store{
		backend:     backend,
		logger:      logger,
		metrics:     opts.Metrics,
		now:         clock,
		countryCode: cc,
		data:        defaultRecordSet(),
	}
}

func defaultRecordSet() RecordSet {
	return RecordSet{
		Patients:     []Patient{},
		Appointments: []Appointment{},
		Visits:       []Visit{},
		Profile:      DefaultProfile(),
		UI:           DefaultUI(),
		Flags:        DefaultFlags(),
		Theme:        defaultTheme,
		Templates:    message.DefaultTemplates(),
	}
}

// Load reads every persisted key. Each key fails independently: a missing or
// malformed document is logged and replaced by its default, never raised.
func (s *Store) Load(ctx context.Context) {
	s.data = defaultRecordSet()

	loadKey(s, ctx, keyPatients, &s.data.Patients)
	loadKey(s, ctx, keyAppointments, &s.data.Appointments)
	loadKey(s, ctx, keyVisits, &s.data.Visits)
	loadKey(s, ctx, keyProfile, &s.data.Profile)
	loadKey(s, ctx, keyUI, &s.data.UI)
	loadKey(s, ctx, keyFlags, &s.data.Flags)
	loadKey(s, ctx, keyTheme, &s.data.Theme)

	var stored map[string]string
	loadKey(s, ctx, keyTemplates, &stored)
	for key, text := range stored {
		s.data.Templates[key] = text
	}

	s.data.Theme = NormalizeTheme(s.data.Theme)
	SortByDateAsc(s.data.Appointments)
}

func loadKey[T any](s *Store, ctx context.Context, key string, dst *T) {
	data, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn("records: load key failed, using default", "key", key, "error", err)
		return
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		s.logger.Warn("records: malformed document, using default", "key", key, "error", err)
		return
	}
	*dst = value
}

// Save writes all persisted keys. Writes are sequential: a failure leaves
// keys written earlier in place.
func (s *Store) Save(ctx context.Context) error {
	writes := []struct {
		key   string
		value any
	}{
		{keyPatients, s.data.Patients},
		{keyAppointments, s.data.Appointments},
		{keyVisits, s.data.Visits},
		{keyProfile, s.data.Profile},
		{keyUI, s.data.UI},
		{keyFlags, s.data.Flags},
		{keyTheme, s.data.Theme},
		{keyTemplates, s.data.Templates},
	}
	for _, w := range writes {
		data, err := json.Marshal(w.value)
		if err != nil {
			return fmt.Errorf("records: encode %s: %w", w.key, err)
		}
		if err := s.backend.Put(ctx, w.key, data); err != nil {
			return fmt.Errorf("records: save %s: %w", w.key, err)
		}
	}
	return nil
}

// Patients returns a copy of the patient collection.
func (s *Store) Patients() []Patient {
	return append([]Patient(nil), s.data.Patients...)
}

// Appointments returns a copy of the appointment collection, ascending by date.
func (s *Store) Appointments() []Appointment {
	return append([]Appointment(nil), s.data.Appointments...)
}

// Visits returns a copy of the visit collection.
func (s *Store) Visits() []Visit {
	return append([]Visit(nil), s.data.Visits...)
}

func (s *Store) Profile() Profile { return s.data.Profile }

func (s *Store) UI() UIPreferences { return s.data.UI }

func (s *Store) Flags() FeatureFlags { return s.data.Flags }

func (s *Store) Theme() string { return s.data.Theme }

// Templates returns a copy of the template set.
func (s *Store) Templates() map[string]string {
	out := make(map[string]string, len(s.data.Templates))
	for k, v := range s.data.Templates {
		out[k] = v
	}
	return out
}

// Template looks up one template by key.
func (s *Store) Template(key string) (string, bool) {
	text, ok := s.data.Templates[key]
	return text, ok
}

// FindPatient looks a patient up by id.
func (s *Store) FindPatient(id string) (Patient, bool) {
	for _, p := range s.data.Patients {
		if p.ID == id {
			return p, true
		}
	}
	return Patient{}, false
}

// FindAppointment looks an appointment up by id.
func (s *Store) FindAppointment(id string) (Appointment, bool) {
	for _, a := range s.data.Appointments {
		if a.ID == id {
			return a, true
		}
	}
	return Appointment{}, false
}

// HasPatientPhone reports whether any patient has exactly this phone string.
func (s *Store) HasPatientPhone(phone string) bool {
	for _, p := range s.data.Patients {
		if p.Phone == phone {
			return true
		}
	}
	return false
}

// AddPatientInput carries the raw form or CSV fields for a new patient.
type AddPatientInput struct {
	Name             string
	DOB              string
	Gender           Gender
	Phone            string
	WhatsApp         string
	BloodGroup       string
	Allergies        string
	Address          string
	EmergencyContact string
}

// AddPatient constructs, appends, and persists a patient. Name falls back to
// "Unknown", gender to Other, WhatsApp to the phone number.
func (s *Store) AddPatient(ctx context.Context, in AddPatientInput) (Patient, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Unknown"
	}
	gender := in.Gender
	if gender == "" {
		gender = GenderOther
	}
	whatsapp := in.WhatsApp
	if whatsapp == "" {
		whatsapp = in.Phone
	}

	patient := Patient{
		ID:               newID("PAT"),
		Name:             name,
		DOB:              in.DOB,
		Gender:           gender,
		Phone:            in.Phone,
		WhatsApp:         whatsapp,
		BloodGroup:       in.BloodGroup,
		Allergies:        in.Allergies,
		Address:          in.Address,
		EmergencyContact: in.EmergencyContact,
		RegistrationDate: s.now().UTC(),
	}

	prev := s.data.Patients
	s.data.Patients = append(s.data.Patients, patient)
	if err := s.Save(ctx); err != nil {
		s.data.Patients = prev
		return Patient{}, fmt.Errorf("records: add patient: %w", err)
	}

	s.metrics.ObservePatientAdded()
	s.logger.Info("records: patient added", "id", patient.ID, "name", patient.Name)
	s.publish(Event{Type: EventPatientAdded, Patient: &patient})
	return patient, nil
}

// AddAppointmentInput carries the fields for a new appointment.
type AddAppointmentInput struct {
	PatientID string
	Date      time.Time
	Reason    string
}

// AddAppointment appends an appointment, restores the ascending-date
// invariant, and persists. With the profile auto-send flag on and a resolvable
// patient, it emits a DispatchRequested event carrying the confirmation
// message; a dangling patient id simply skips the event.
func (s *Store) AddAppointment(ctx context.Context, in AddAppointmentInput) (Appointment, error) {
	if in.PatientID == "" || in.Date.IsZero() {
		return Appointment{}, fmt.Errorf("records: add appointment: patient id and date are required")
	}

	appt := Appointment{
		ID:        newID("APT"),
		PatientID: in.PatientID,
		Date:      in.Date,
		Reason:    in.Reason,
		Status:    StatusPending,
		CreatedAt: s.now().UTC(),
	}

	// sort a fresh slice so a failed save can restore the old one untouched
	prev := s.data.Appointments
	next := append(append([]Appointment(nil), prev...), appt)
	SortByDateAsc(next)
	s.data.Appointments = next
	if err := s.Save(ctx); err != nil {
		s.data.Appointments = prev
		return Appointment{}, fmt.Errorf("records: add appointment: %w", err)
	}

	s.metrics.ObserveAppointmentScheduled()
	s.logger.Info("records: appointment scheduled",
		"id", appt.ID, "patient_id", appt.PatientID, "date", appt.Date.Format(time.RFC3339))
	s.publish(Event{Type: EventAppointmentScheduled, Appointment: &appt})

	if s.data.Profile.AutoSendOnSchedule {
		if patient, ok := s.FindPatient(appt.PatientID); ok {
			s.requestConfirmation(patient, appt)
		}
	}
	return appt, nil
}

func (s *Store) requestConfirmation(patient Patient, appt Appointment) {
	text := message.Render(message.ConfirmationText, message.Context{
		PatientName: patient.Name,
		Timestamp:   appt.Date,
		DoctorName:  s.data.Profile.Name,
		ClinicName:  s.data.Profile.Clinic,
	})
	to := message.WhatsAppNumber(patient.WhatsApp, s.countryCode)
	dispatch := DispatchRequest{
		To:   to,
		Text: text,
		Link: message.Link(to, text),
	}
	s.metrics.ObserveDispatchRequest("confirmation")
	s.publish(Event{Type: EventDispatchRequested, Appointment: &appt, Dispatch: &dispatch})
}

// AddVisit appends an opaque visit record, assigning its id.
func (s *Store) AddVisit(ctx context.Context, payload Visit) (Visit, error) {
	visit := Visit{}
	for k, v := range payload {
		visit[k] = v
	}
	visit["id"] = newID("VIS")

	prev := s.data.Visits
	s.data.Visits = append(s.data.Visits, visit)
	if err := s.Save(ctx); err != nil {
		s.data.Visits = prev
		return nil, fmt.Errorf("records: add visit: %w", err)
	}
	s.publish(Event{Type: EventVisitAdded})
	return visit, nil
}

// UpdateProfile shallow-merges the patch onto the profile and persists.
// No field-level validation is performed.
func (s *Store) UpdateProfile(ctx context.Context, patch ProfilePatch) (Profile, error) {
	p := s.data.Profile
	if patch.AppName != nil {
		p.AppName = *patch.AppName
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Qualification != nil {
		p.Qualification = *patch.Qualification
	}
	if patch.Specialization != nil {
		p.Specialization = *patch.Specialization
	}
	if patch.Clinic != nil {
		p.Clinic = *patch.Clinic
	}
	if patch.Phone != nil {
		p.Phone = *patch.Phone
	}
	if patch.Address != nil {
		p.Address = *patch.Address
	}
	if patch.AutoSendOnSchedule != nil {
		p.AutoSendOnSchedule = *patch.AutoSendOnSchedule
	}
	prev := s.data.Profile
	s.data.Profile = p
	if err := s.Save(ctx); err != nil {
		s.data.Profile = prev
		return Profile{}, fmt.Errorf("records: update profile: %w", err)
	}
	s.publish(Event{Type: EventProfileUpdated})
	return p, nil
}

// SetUI persists the UI preferences.
func (s *Store) SetUI(ctx context.Context, ui UIPreferences) error {
	prev := s.data.UI
	s.data.UI = ui
	if err := s.Save(ctx); err != nil {
		s.data.UI = prev
		return fmt.Errorf("records: set ui: %w", err)
	}
	s.publish(Event{Type: EventUIChanged})
	return nil
}

// SetTheme normalizes and persists the theme preference, returning the
// applied preset.
func (s *Store) SetTheme(ctx context.Context, name string) (string, error) {
	prev := s.data.Theme
	s.data.Theme = NormalizeTheme(name)
	if err := s.Save(ctx); err != nil {
		s.data.Theme = prev
		return "", fmt.Errorf("records: set theme: %w", err)
	}
	s.publish(Event{Type: EventThemeChanged})
	return s.data.Theme, nil
}

// SetTemplate stores a message template. Keys are not validated; unknown keys
// are kept alongside the defaults.
func (s *Store) SetTemplate(ctx context.Context, key, text string) error {
	prev, existed := s.data.Templates[key]
	s.data.Templates[key] = text
	if err := s.Save(ctx); err != nil {
		if existed {
			s.data.Templates[key] = prev
		} else {
			delete(s.data.Templates, key)
		}
		return fmt.Errorf("records: set template: %w", err)
	}
	s.publish(Event{Type: EventTemplateChanged})
	return nil
}

// ClearAll resets every collection to its default and persists, equivalent
// to a fresh install.
func (s *Store) ClearAll(ctx context.Context) error {
	prev := s.data
	s.data = defaultRecordSet()
	if err := s.Save(ctx); err != nil {
		s.data = prev
		return fmt.Errorf("records: clear all: %w", err)
	}
	s.logger.Info("records: all data cleared")
	s.publish(Event{Type: EventDataCleared})
	return nil
}

// Stats summarizes the dashboard counters.
type Stats struct {
	TotalPatients     int
	TodayAppointments int
	PendingReminders  int
	TotalVisits       int
}

// Snapshot computes dashboard stats at the given time.
func (s *Store) Snapshot(now time.Time) Stats {
	st := Stats{
		TotalPatients: len(s.data.Patients),
		TotalVisits:   len(s.data.Visits),
	}
	for _, a := range s.data.Appointments {
		if SameCalendarDay(a.Date, now) {
			st.TodayAppointments++
		}
		if a.Status == StatusPending {
			st.PendingReminders++
		}
	}
	return st
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
