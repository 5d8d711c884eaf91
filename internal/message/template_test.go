package message

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRenderSubstitutesKnownTokens(t *testing.T) {
	ctx := Context{
		PatientName: "Asha",
		Timestamp:   time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}
	out := Render("Hi {{patientName}}, {{date}}", ctx)

	assert.Equal(t, "Hi Asha, 01 May 2024", out)
	assert.NotContains(t, out, "{{")
}

func TestRenderEveryOccurrence(t *testing.T) {
	out := Render("{{patientName}} {{patientName}}", Context{PatientName: "Ravi"})
	assert.Equal(t, "Ravi Ravi", out)
}

func TestRenderAbsentValuesAndUnknownTokens(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"absent value", "Take {{medicine}} now", "Take  now"},
		{"unknown token", "Hi {{patinetName}}", "Hi {{patinetName}}"},
		{"unmatched brace", "Hi {{patientName", "Hi {{patientName"},
		{"no tokens", "plain text", "plain text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.tmpl, Context{}))
		})
	}
}

func TestRenderDateAndTimeFromTimestamp(t *testing.T) {
	ts := time.Date(2024, 12, 3, 18, 5, 0, 0, time.UTC)
	out := Render("{{date}} {{time}}", Context{Timestamp: ts})
	assert.Equal(t, "03 Dec 2024 18:05", out)

	empty := Render("{{date}}|{{time}}", Context{})
	assert.Equal(t, "|", empty)
}

func TestDefaultTemplatesRender(t *testing.T) {
	ctx := Context{
		PatientName: "Asha",
		Timestamp:   time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		DoctorName:  "Dr. Rao",
		ClinicName:  "City Clinic",
		Medicine:    "Metformin",
		Dosage:      "500mg",
		Timing:      "after meals",
	}
	for key, tmpl := range DefaultTemplates() {
		t.Run(key, func(t *testing.T) {
			out := Render(tmpl, ctx)
			assert.NotContains(t, out, "{{", "template %s left tokens behind", key)
			assert.True(t, strings.Contains(out, "Asha"))
		})
	}
}

func TestStylize(t *testing.T) {
	base := Render("Hi {{patientName}}", Context{PatientName: "Asha"})

	assert.Equal(t, "*Hi Asha*", Stylize(base, StyleBold))
	assert.Equal(t, "_Hi Asha_", Stylize(base, StyleItalic))
	assert.Equal(t, "Hi Asha", Stylize(base, StylePlain))

	// selecting a new style always starts from the base render
	assert.Equal(t, "_Hi Asha_", Stylize(base, StyleItalic))
}

func TestSignedCustom(t *testing.T) {
	out := SignedCustom("  See you soon ", "Dr. Rao", "City Clinic")
	assert.Equal(t, "See you soon\n\n— Dr. Rao, City Clinic", out)
}
