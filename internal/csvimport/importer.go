// Package csvimport maps arbitrary spreadsheet headers onto the patient
// schema and bulk-loads rows through the record store.
package csvimport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/onestopai/clinicdesk/internal/observability/metrics"
	"github.com/onestopai/clinicdesk/internal/records"
	"github.com/onestopai/clinicdesk/pkg/logging"
)

// ErrInvalidFile is returned when the CSV has no usable header row.
var ErrInvalidFile = errors.New("csvimport: empty or invalid CSV file")

// Header synonyms per logical column, matched case-insensitively.
// Deliberately a literal lookup table, not a fuzzy matcher.
var headerSynonyms = map[string][]string{
	"phone":            {"phone", "mobile", "contact", "phone number"},
	"name":             {"name", "patient name", "full name"},
	"dob":              {"dob", "date of birth", "birthdate"},
	"gender":           {"gender", "sex"},
	"whatsapp":         {"whatsapp", "whatsapp number"},
	"bloodGroup":       {"bloodgroup", "blood group", "blood"},
	"allergies":        {"allergies", "allergy"},
	"address":          {"address", "location"},
	"emergencyContact": {"emergency", "emergency contact", "emergency number"},
}

// Result reports how many rows were imported and how many were counted as
// duplicate skips. Rows missing phone or name are dropped silently and appear
// in neither count.
type Result struct {
	Imported int
	Skipped  int
}

// Importer parses raw delimited text into patient records.
type Importer struct {
	store   *records.Store
	logger  *logging.Logger
	metrics *metrics.EngineMetrics
}

func New(store *records.Store, logger *logging.Logger, m *metrics.EngineMetrics) *Importer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Importer{store: store, logger: logger, metrics: m}
}

// ImportPatients runs the bulk import over raw CSV text. Parsing is
// line-based with a plain comma delimiter; quoted fields are not supported.
// A file without a header row and at least one data row aborts with
// ErrInvalidFile and no mutation.
func (imp *Importer) ImportPatients(ctx context.Context, rawText string) (Result, error) {
	headers, rows := parse(rawText)
	if len(headers) == 0 {
		return Result{}, ErrInvalidFile
	}

	idx := map[string]int{}
	for field, synonyms := range headerSynonyms {
		idx[field] = findHeader(headers, synonyms)
	}

	var res Result
	for _, cols := range rows {
		phone := cell(cols, idx["phone"])
		name := cell(cols, idx["name"])
		if phone == "" || name == "" {
			imp.metrics.ObserveImportRow("skipped")
			continue
		}
		if imp.store.HasPatientPhone(phone) {
			res.Skipped++
			imp.metrics.ObserveImportRow("duplicate")
			continue
		}

		gender := records.Gender(cell(cols, idx["gender"]))
		if gender == "" {
			gender = records.GenderMale
		}

		_, err := imp.store.AddPatient(ctx, records.AddPatientInput{
			Name:             name,
			Phone:            phone,
			DOB:              cell(cols, idx["dob"]),
			Gender:           gender,
			WhatsApp:         cell(cols, idx["whatsapp"]),
			BloodGroup:       cell(cols, idx["bloodGroup"]),
			Allergies:        cell(cols, idx["allergies"]),
			Address:          cell(cols, idx["address"]),
			EmergencyContact: cell(cols, idx["emergencyContact"]),
		})
		if err != nil {
			return res, fmt.Errorf("csvimport: import row: %w", err)
		}
		res.Imported++
		imp.metrics.ObserveImportRow("imported")
	}

	imp.logger.Info("csvimport: finished", "imported", res.Imported, "skipped", res.Skipped)
	return res, nil
}

// parse splits raw text into a lowercased header row and trimmed data rows.
// Fewer than two non-blank lines means there is nothing usable to import.
func parse(rawText string) (headers []string, rows [][]string) {
	var lines []string
	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return nil, nil
	}
	for _, h := range strings.Split(lines[0], ",") {
		headers = append(headers, strings.ToLower(strings.TrimSpace(h)))
	}
	for _, line := range lines[1:] {
		cols := strings.Split(line, ",")
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
		rows = append(rows, cols)
	}
	return headers, rows
}

func findHeader(headers, synonyms []string) int {
	for i, h := range headers {
		for _, s := range synonyms {
			if h == s {
				return i
			}
		}
	}
	return -1
}

func cell(cols []string, idx int) string {
	if idx < 0 || idx >= len(cols) {
		return ""
	}
	return cols[idx]
}
