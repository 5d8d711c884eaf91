package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidImport is returned when an import document is not parseable.
// No mutation happens in that case.
var ErrInvalidImport = errors.New("records: invalid import document")

// ExportDocument is the backup format.
type ExportDocument struct {
	Patients     []Patient     `json:"patients"`
	Appointments []Appointment `json:"appointments"`
	Visits       []Visit       `json:"visits"`
	Profile      Profile       `json:"profile"`
	ExportedAt   time.Time     `json:"exportedAt"`
}

// Export serializes the business collections as indented JSON.
func (s *Store) Export() ([]byte, error) {
	doc := ExportDocument{
		Patients:     s.data.Patients,
		Appointments: s.data.Appointments,
		Visits:       s.data.Visits,
		Profile:      s.data.Profile,
		ExportedAt:   s.now().UTC(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("records: export: %w", err)
	}
	return data, nil
}

type importDocument struct {
	Patients     json.RawMessage `json:"patients"`
	Appointments json.RawMessage `json:"appointments"`
	Visits       json.RawMessage `json:"visits"`
	Profile      json.RawMessage `json:"profile"`
}

// Import applies a backup document. Each of patients/appointments/visits
// replaces the current collection only when the field is a JSON array;
// non-array or absent fields leave existing data untouched. Appointments are
// re-sorted ascending. A profile object is merged onto the defaults.
func (s *Store) Import(ctx context.Context, data []byte) error {
	var doc importDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}

	// importArray swaps in freshly decoded slices, so restoring the old
	// headers undoes everything if the save fails
	prev := s.data

	importArray(s, keyPatients, doc.Patients, &s.data.Patients)
	if importArray(s, keyAppointments, doc.Appointments, &s.data.Appointments) {
		SortByDateAsc(s.data.Appointments)
	}
	importArray(s, keyVisits, doc.Visits, &s.data.Visits)

	if isJSONObject(doc.Profile) {
		profile := DefaultProfile()
		if err := json.Unmarshal(doc.Profile, &profile); err != nil {
			s.logger.Warn("records: import profile malformed, keeping current", "error", err)
		} else {
			s.data.Profile = profile
		}
	}

	if err := s.Save(ctx); err != nil {
		s.data = prev
		return fmt.Errorf("records: import: %w", err)
	}
	s.logger.Info("records: data imported",
		"patients", len(s.data.Patients),
		"appointments", len(s.data.Appointments),
		"visits", len(s.data.Visits))
	s.publish(Event{Type: EventDataImported})
	return nil
}

func importArray[T any](s *Store, key string, raw json.RawMessage, dst *[]T) bool {
	if !isJSONArray(raw) {
		return false
	}
	var value []T
	if err := json.Unmarshal(raw, &value); err != nil {
		s.logger.Warn("records: import field malformed, keeping current", "key", key, "error", err)
		return false
	}
	if value == nil {
		value = []T{}
	}
	*dst = value
	return true
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
