// Package reminders composes the scheduler window with the template engine
// to produce ready-to-send destination/text pairs. Actual dispatch is the
// caller's job; the selector only guarantees order.
package reminders

import (
	"time"

	"github.com/onestopai/clinicdesk/internal/message"
	"github.com/onestopai/clinicdesk/internal/observability/metrics"
	"github.com/onestopai/clinicdesk/internal/records"
	"github.com/onestopai/clinicdesk/internal/schedule"
	"github.com/onestopai/clinicdesk/pkg/logging"
)

// Dispatch is one ready-to-send reminder. Index is the deterministic send
// order, contiguous from zero in ascending appointment-date order.
type Dispatch struct {
	Index         int
	AppointmentID string
	PatientID     string
	PatientName   string
	To            string
	Text          string
	EncodedText   string
	Link          string
	HoursUntil    int
	Countdown     string
}

// Options configures a Selector.
type Options struct {
	Window      time.Duration
	Stagger     time.Duration
	CountryCode string
	Logger      *logging.Logger
	Metrics     *metrics.EngineMetrics
}

// Selector builds outbound reminder batches from the record store.
type Selector struct {
	store   *records.Store
	window  time.Duration
	stagger time.Duration
	cc      string
	logger  *logging.Logger
	metrics *metrics.EngineMetrics
}

func New(store *records.Store, opts Options) *Selector {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	window := opts.Window
	if window <= 0 {
		window = 48 * time.Hour
	}
	stagger := opts.Stagger
	if stagger <= 0 {
		stagger = 800 * time.Millisecond
	}
	cc := opts.CountryCode
	if cc == "" {
		cc = "91"
	}
	return &Selector{
		store:   store,
		window:  window,
		stagger: stagger,
		cc:      cc,
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// SendAll builds the full reminder batch for the window ending at
// now+window. Appointments whose patient no longer exists are omitted.
func (s *Selector) SendAll(now time.Time) []Dispatch {
	due := schedule.ReminderWindow(s.store.Appointments(), now, s.window)
	profile := s.store.Profile()

	batch := make([]Dispatch, 0, len(due))
	for _, d := range due {
		patient, ok := s.store.FindPatient(d.Appointment.PatientID)
		if !ok {
			s.logger.Debug("reminders: dangling patient reference, skipping",
				"appointment_id", d.Appointment.ID, "patient_id", d.Appointment.PatientID)
			continue
		}
		text := message.Render(message.ReminderText, message.Context{
			PatientName: patient.Name,
			Timestamp:   d.Appointment.Date,
			DoctorName:  profile.Name,
			ClinicName:  profile.Clinic,
		})
		batch = append(batch, s.dispatch(len(batch), patient, d, text))
		s.metrics.ObserveDispatchRequest("reminder")
	}
	return batch
}

// Remind builds the generic single-appointment reminder. The second return
// is false when the appointment or its patient cannot be resolved.
func (s *Selector) Remind(appointmentID string) (Dispatch, bool) {
	appt, ok := s.store.FindAppointment(appointmentID)
	if !ok {
		return Dispatch{}, false
	}
	patient, ok := s.store.FindPatient(appt.PatientID)
	if !ok {
		return Dispatch{}, false
	}
	profile := s.store.Profile()
	text := message.Render(message.ReminderText, message.Context{
		PatientName: patient.Name,
		Timestamp:   appt.Date,
		DoctorName:  profile.Name,
		ClinicName:  profile.Clinic,
	})
	s.metrics.ObserveDispatchRequest("reminder")
	return s.dispatch(0, patient, schedule.Due{Appointment: appt}, text), true
}

// Preset renders a stored template (nextVisit, medicationReminder, ...) for a
// patient and appointment.
func (s *Selector) Preset(templateKey, patientID, appointmentID string) (Dispatch, bool) {
	tmpl, ok := s.store.Template(templateKey)
	if !ok {
		return Dispatch{}, false
	}
	patient, ok := s.store.FindPatient(patientID)
	if !ok {
		return Dispatch{}, false
	}
	appt, ok := s.store.FindAppointment(appointmentID)
	if !ok {
		return Dispatch{}, false
	}
	profile := s.store.Profile()
	text := message.Render(tmpl, message.Context{
		PatientName: patient.Name,
		Timestamp:   appt.Date,
		DoctorName:  profile.Name,
		ClinicName:  profile.Clinic,
		Medicine:    "As prescribed",
		Timing:      message.FormatTime(appt.Date),
	})
	s.metrics.ObserveDispatchRequest("preset")
	return s.dispatch(0, patient, schedule.Due{Appointment: appt}, text), true
}

// Custom builds a signed free-text message for one patient.
func (s *Selector) Custom(patientID, text string) (Dispatch, bool) {
	patient, ok := s.store.FindPatient(patientID)
	if !ok {
		return Dispatch{}, false
	}
	profile := s.store.Profile()
	signed := message.SignedCustom(text, profile.Name, profile.Clinic)
	s.metrics.ObserveDispatchRequest("custom")
	return s.dispatch(0, patient, schedule.Due{}, signed), true
}

// Greet builds the one-tap introduction message for a patient.
func (s *Selector) Greet(patientID string) (Dispatch, bool) {
	patient, ok := s.store.FindPatient(patientID)
	if !ok {
		return Dispatch{}, false
	}
	profile := s.store.Profile()
	text := message.QuickGreeting(patient.Name, profile.Name, profile.Clinic)
	s.metrics.ObserveDispatchRequest("greeting")
	return s.dispatch(0, patient, schedule.Due{}, text), true
}

// StaggerDelay returns how long the caller should wait before dispatching
// the item at the given send-order index.
func (s *Selector) StaggerDelay(index int) time.Duration {
	if index < 0 {
		return 0
	}
	return time.Duration(index) * s.stagger
}

func (s *Selector) dispatch(index int, patient records.Patient, d schedule.Due, text string) Dispatch {
	to := message.WhatsAppNumber(patient.WhatsApp, s.cc)
	return Dispatch{
		Index:         index,
		AppointmentID: d.Appointment.ID,
		PatientID:     patient.ID,
		PatientName:   patient.Name,
		To:            to,
		Text:          text,
		EncodedText:   message.EncodeText(text),
		Link:          message.Link(to, text),
		HoursUntil:    d.HoursUntil,
		Countdown:     d.Countdown,
	}
}
