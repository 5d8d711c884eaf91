package message

import (
	"strings"
	"time"
)

// Template keys shipped by default. The template set is user-editable and
// unknown keys are stored without validation.
const (
	TemplateNextVisit          = "nextVisit"
	TemplateMedicationReminder = "medicationReminder"
	TemplateIntakeReminder     = "intakeReminder"
	TemplateCustom             = "custom"
)

// DefaultTemplates returns the built-in template set.
func DefaultTemplates() map[string]string {
	return map[string]string{
		TemplateNextVisit:          "Hi {{patientName}}, this is a reminder for your next visit on {{date}} at {{time}} with {{doctorName}} at {{clinicName}}. Reply YES to confirm.",
		TemplateMedicationReminder: "Hello {{patientName}}, please remember to take your medication {{medicine}} ({{dosage}}) at {{timing}}. — {{doctorName}}",
		TemplateIntakeReminder:     "Dear {{patientName}}, it’s time to take {{medicine}} ({{dosage}}). Stay consistent for best results. — {{doctorName}}",
		TemplateCustom:             "Hi {{patientName}}, {{customMessage}} — {{doctorName}}",
	}
}

// ConfirmationText is rendered when an appointment is scheduled with
// auto-send enabled.
const ConfirmationText = "Hi {{patientName}}, your appointment is scheduled with {{doctorName}}.\n\n📆 {{date}}\n🕒 {{time}}\n🏥 {{clinicName}}\n\nReply to confirm."

// ReminderText is the generic one-tap appointment reminder.
const ReminderText = "Hi {{patientName}}, reminder for your appointment with {{doctorName}}.\n\n📆 {{date}}\n🕒 {{time}}\n🏥 {{clinicName}}\n\nReply to confirm."

// Context supplies values for the closed token set. Timestamp drives both
// the {{date}} and {{time}} tokens.
type Context struct {
	PatientName   string
	Timestamp     time.Time
	DoctorName    string
	ClinicName    string
	Medicine      string
	Dosage        string
	Timing        string
	CustomMessage string
}

func (c Context) tokens() map[string]string {
	var date, clock string
	if !c.Timestamp.IsZero() {
		date = FormatDate(c.Timestamp)
		clock = FormatTime(c.Timestamp)
	}
	return map[string]string{
		"patientName":   c.PatientName,
		"date":          date,
		"time":          clock,
		"doctorName":    c.DoctorName,
		"clinicName":    c.ClinicName,
		"medicine":      c.Medicine,
		"dosage":        c.Dosage,
		"timing":        c.Timing,
		"customMessage": c.CustomMessage,
	}
}

// Render substitutes every occurrence of each known {{token}} with its
// context value. Absent values become empty strings; unknown or malformed
// tokens are left verbatim. Render never fails.
func Render(tmpl string, ctx Context) string {
	out := tmpl
	for name, value := range ctx.tokens() {
		out = strings.ReplaceAll(out, "{{"+name+"}}", value)
	}
	return out
}

// FormatDate renders a timestamp as e.g. "01 May 2024".
func FormatDate(t time.Time) string {
	return t.Format("02 Jan 2006")
}

// FormatTime renders a timestamp as 24-hour "15:04".
func FormatTime(t time.Time) string {
	return t.Format("15:04")
}

// Style is a whole-message format modifier for WhatsApp text.
type Style string

const (
	StylePlain  Style = "plain"
	StyleBold   Style = "bold"
	StyleItalic Style = "italic"
)

// Stylize wraps an unstyled render in WhatsApp markers. Callers must always
// pass the base render: styles replace each other, they never stack.
func Stylize(rendered string, style Style) string {
	switch style {
	case StyleBold:
		return "*" + rendered + "*"
	case StyleItalic:
		return "_" + rendered + "_"
	default:
		return rendered
	}
}

// SignedCustom appends the doctor/clinic signature to a free-text message.
func SignedCustom(text, doctorName, clinicName string) string {
	return strings.TrimSpace(text) + "\n\n— " + doctorName + ", " + clinicName
}

// QuickGreeting is the one-tap introduction message from the patient list.
func QuickGreeting(patientName, doctorName, clinicName string) string {
	return "Hi " + patientName + ", this is " + doctorName + " (" + clinicName + ")."
}
