package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics exposes counters for the record engine. All observe methods
// are nil-safe so components can run without metrics wired.
type EngineMetrics struct {
	patientsAdded    prometheus.Counter
	appointments     prometheus.Counter
	importRows       *prometheus.CounterVec
	dispatchRequests *prometheus.CounterVec
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		patientsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "records",
			Name:      "patients_added_total",
			Help:      "Total patients added, manually or via CSV import",
		}),
		appointments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "records",
			Name:      "appointments_scheduled_total",
			Help:      "Total appointments scheduled",
		}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "importer",
			Name:      "csv_rows_total",
			Help:      "CSV import rows by outcome",
		}, []string{"outcome"}),
		dispatchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "reminders",
			Name:      "dispatch_requests_total",
			Help:      "Outbound message dispatch requests by kind",
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.patientsAdded, m.appointments, m.importRows, m.dispatchRequests)
	return m
}

func (m *EngineMetrics) ObservePatientAdded() {
	if m == nil {
		return
	}
	m.patientsAdded.Inc()
}

func (m *EngineMetrics) ObserveAppointmentScheduled() {
	if m == nil {
		return
	}
	m.appointments.Inc()
}

// ObserveImportRow records a CSV row outcome: imported, duplicate, or skipped.
func (m *EngineMetrics) ObserveImportRow(outcome string) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues(outcome).Inc()
}

func (m *EngineMetrics) ObserveDispatchRequest(kind string) {
	if m == nil {
		return
	}
	m.dispatchRequests.WithLabelValues(kind).Inc()
}
