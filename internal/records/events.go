package records

// EventType identifies a store change notification.
type EventType string

const (
	EventPatientAdded         EventType = "patient.added"
	EventAppointmentScheduled EventType = "appointment.scheduled"
	EventDispatchRequested    EventType = "dispatch.requested"
	EventProfileUpdated       EventType = "profile.updated"
	EventThemeChanged         EventType = "theme.changed"
	EventUIChanged            EventType = "ui.changed"
	EventTemplateChanged      EventType = "template.changed"
	EventVisitAdded           EventType = "visit.added"
	EventDataImported         EventType = "data.imported"
	EventDataCleared          EventType = "data.cleared"
)

// DispatchRequest asks the presentation layer to open an outbound message.
// The store never performs the send itself.
type DispatchRequest struct {
	To   string
	Text string
	Link string
}

// Event is delivered to subscribers after a store mutation has persisted.
type Event struct {
	Type        EventType
	Patient     *Patient
	Appointment *Appointment
	Dispatch    *DispatchRequest
}

// Subscribe registers a change listener. Listeners run synchronously on the
// mutating call, in registration order.
func (s *Store) Subscribe(fn func(Event)) {
	s.subs = append(s.subs, fn)
}

func (s *Store) publish(evt Event) {
	for _, fn := range s.subs {
		fn(evt)
	}
}
