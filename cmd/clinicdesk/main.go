package main

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/onestopai/clinicdesk/internal/config"
	"github.com/onestopai/clinicdesk/internal/csvimport"
	"github.com/onestopai/clinicdesk/internal/message"
	"github.com/onestopai/clinicdesk/internal/observability/metrics"
	"github.com/onestopai/clinicdesk/internal/records"
	"github.com/onestopai/clinicdesk/internal/reminders"
	"github.com/onestopai/clinicdesk/internal/schedule"
	"github.com/onestopai/clinicdesk/pkg/logging"
)

type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	store    *records.Store
	importer *csvimport.Importer
	selector *reminders.Selector
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "clinicdesk",
		Short:         "Local patient records, appointments and WhatsApp reminders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			a.cfg = config.Load()
			a.logger = logging.New(a.cfg.LogLevel, a.cfg.LogFormat)

			m := metrics.NewEngineMetrics(prometheus.DefaultRegisterer)
			backend, err := newBackend(a.cfg)
			if err != nil {
				return err
			}
			a.store = records.New(backend, records.Options{
				Logger:      a.logger,
				Metrics:     m,
				CountryCode: a.cfg.DefaultCountryCode,
			})
			a.store.Load(cmd.Context())
			a.importer = csvimport.New(a.store, a.logger, m)
			a.selector = reminders.New(a.store, reminders.Options{
				Window:      a.cfg.ReminderWindow,
				Stagger:     a.cfg.SendStaggerDelay,
				CountryCode: a.cfg.DefaultCountryCode,
				Logger:      a.logger,
				Metrics:     m,
			})

			// the dispatch collaborator: print the deep link for the
			// clinician to open
			a.store.Subscribe(func(evt records.Event) {
				if evt.Type == records.EventDispatchRequested {
					fmt.Fprintln(cmd.OutOrStdout(), "open:", evt.Dispatch.Link)
				}
			})

			if a.cfg.MetricsAddr != "" {
				go func() {
					if err := http.ListenAndServe(a.cfg.MetricsAddr, promhttp.Handler()); err != nil {
						a.logger.Error("metrics listener failed", "error", err)
					}
				}()
			}
			return nil
		},
	}

	root.AddCommand(
		newAddPatientCmd(a),
		newPatientsCmd(a),
		newScheduleCmd(a),
		newAppointmentsCmd(a),
		newRemindersCmd(a),
		newSendAllCmd(a),
		newGreetCmd(a),
		newImportCSVCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newProfileCmd(a),
		newThemeCmd(a),
		newClearCmd(a),
	)
	return root
}

func newBackend(cfg *config.Config) (records.Backend, error) {
	switch cfg.StorageBackend {
	case "redis":
		return records.NewRedisBackend(newRedisClient(cfg), cfg.RedisKeyPrefix), nil
	case "memory":
		return records.NewMemoryBackend(), nil
	default:
		return records.NewFileBackend(cfg.DataDir)
	}
}

func newRedisClient(cfg *config.Config) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}

func newAddPatientCmd(a *app) *cobra.Command {
	var in records.AddPatientInput
	var gender string
	cmd := &cobra.Command{
		Use:   "add-patient",
		Short: "Register a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Gender = records.Gender(gender)
			p, err := a.store.AddPatient(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "full name")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&in.WhatsApp, "whatsapp", "", "whatsapp number (defaults to phone)")
	cmd.Flags().StringVar(&in.DOB, "dob", "", "date of birth (YYYY-MM-DD)")
	cmd.Flags().StringVar(&gender, "gender", "", "Male, Female or Other")
	cmd.Flags().StringVar(&in.BloodGroup, "blood-group", "", "blood group")
	cmd.Flags().StringVar(&in.Allergies, "allergies", "", "known allergies")
	cmd.Flags().StringVar(&in.Address, "address", "", "address")
	cmd.Flags().StringVar(&in.EmergencyContact, "emergency-contact", "", "emergency contact")
	return cmd
}

func newPatientsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "patients",
		Short: "List patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			for _, p := range a.store.Patients() {
				age := "-"
				if years, ok := p.Age(now); ok {
					age = fmt.Sprintf("%d", years)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s yrs\t%s\n",
					p.ID, p.Name, p.Phone, age, p.Gender)
			}
			return nil
		},
	}
}

func newScheduleCmd(a *app) *cobra.Command {
	var patientID, at, reason string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule an appointment",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseWhen(at)
			if err != nil {
				return err
			}
			appt, err := a.store.AddAppointment(cmd.Context(), records.AddAppointmentInput{
				PatientID: patientID,
				Date:      date,
				Reason:    reason,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scheduled %s for %s\n",
				appt.ID, message.FormatDate(appt.Date)+" "+message.FormatTime(appt.Date))
			return nil
		},
	}
	cmd.Flags().StringVar(&patientID, "patient", "", "patient id")
	cmd.Flags().StringVar(&at, "at", "", "date-time (2006-01-02 15:04 or RFC3339)")
	cmd.Flags().StringVar(&reason, "reason", "", "reason (optional)")
	return cmd
}

func parseWhen(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date-time %q", value)
}

func newAppointmentsCmd(a *app) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "List appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			ui := a.store.UI()
			if !cmd.Flags().Changed("filter") {
				filter = ui.ApptFilter
			}
			mode := schedule.ParseFilterMode(filter)
			for _, appt := range schedule.Filter(a.store.Appointments(), mode, time.Now()) {
				name := "(unknown patient)"
				if p, ok := a.store.FindPatient(appt.PatientID); ok {
					name = p.Name
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s %s\t%s\t%s\n",
					appt.ID, message.FormatDate(appt.Date), message.FormatTime(appt.Date), name, appt.Status)
			}
			if string(mode) != ui.ApptFilter {
				ui.ApptFilter = string(mode)
				if err := a.store.SetUI(cmd.Context(), ui); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "all", "filter to apply and remember: all, today, upcoming or overdue")
	return cmd
}

func newRemindersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reminders",
		Short: "Show pending appointments inside the reminder window",
		RunE: func(cmd *cobra.Command, args []string) error {
			due := schedule.ReminderWindow(a.store.Appointments(), time.Now(), a.cfg.ReminderWindow)
			for _, d := range due {
				name := "(unknown patient)"
				if p, ok := a.store.FindPatient(d.Appointment.PatientID); ok {
					name = p.Name
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s left\n", d.Appointment.ID, name, d.Countdown)
			}
			return nil
		},
	}
}

func newSendAllCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send-all",
		Short: "Print reminder links for every due appointment, in send order",
		RunE: func(cmd *cobra.Command, args []string) error {
			batch := a.selector.SendAll(time.Now())
			for i, d := range batch {
				if i > 0 {
					time.Sleep(a.cfg.SendStaggerDelay)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", d.Index, d.PatientName, d.Link)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d reminder(s)\n", len(batch))
			return nil
		},
	}
}

func newGreetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "greet <patient-id>",
		Short: "Print the introduction message link for a patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, ok := a.selector.Greet(args[0])
			if !ok {
				return fmt.Errorf("no patient %s", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), d.Link)
			return nil
		},
	}
}

func newImportCSVCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import-csv <file>",
		Short: "Bulk-import patients from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			res, err := a.importer.ImportPatients(cmd.Context(), string(raw))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d\n", res.Imported, res.Skipped)
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export all data as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.store.Export()
			if err != nil {
				return err
			}
			return os.WriteFile(args[0], data, 0o600)
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return a.store.Import(cmd.Context(), data)
		},
	}
}

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the doctor profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.store.Profile()
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %s)\n%s, %s\nauto-send confirmation: %v\n",
				p.Name, p.Qualification, p.Specialization, p.Clinic, p.Phone, p.AutoSendOnSchedule)
			return nil
		},
	}
	cmd.AddCommand(newProfileSetCmd(a))
	return cmd
}

func newProfileSetCmd(a *app) *cobra.Command {
	var patch records.ProfilePatch
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update profile fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			clearUnsetFlags(cmd, &patch)
			_, err := a.store.UpdateProfile(cmd.Context(), patch)
			return err
		},
	}
	patch.AppName = cmd.Flags().String("app-name", "", "app display name")
	patch.Name = cmd.Flags().String("name", "", "doctor name")
	patch.Qualification = cmd.Flags().String("qualification", "", "qualification")
	patch.Specialization = cmd.Flags().String("specialization", "", "specialization")
	patch.Clinic = cmd.Flags().String("clinic", "", "clinic name")
	patch.Phone = cmd.Flags().String("phone", "", "clinic phone")
	patch.Address = cmd.Flags().String("address", "", "clinic address")
	patch.AutoSendOnSchedule = cmd.Flags().Bool("auto-send", true, "auto-send confirmation on scheduling")
	return cmd
}

// clearUnsetFlags drops patch fields whose flags the user did not pass, so
// the shallow merge only touches what was asked for.
func clearUnsetFlags(cmd *cobra.Command, patch *records.ProfilePatch) {
	if !cmd.Flags().Changed("app-name") {
		patch.AppName = nil
	}
	if !cmd.Flags().Changed("name") {
		patch.Name = nil
	}
	if !cmd.Flags().Changed("qualification") {
		patch.Qualification = nil
	}
	if !cmd.Flags().Changed("specialization") {
		patch.Specialization = nil
	}
	if !cmd.Flags().Changed("clinic") {
		patch.Clinic = nil
	}
	if !cmd.Flags().Changed("phone") {
		patch.Phone = nil
	}
	if !cmd.Flags().Changed("address") {
		patch.Address = nil
	}
	if !cmd.Flags().Changed("auto-send") {
		patch.AutoSendOnSchedule = nil
	}
}

func newThemeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "theme [preset]",
		Short: "Show or set the UI theme preset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), a.store.Theme())
				return nil
			}
			applied, err := a.store.SetTheme(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), applied)
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete ALL data (fresh install)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to wipe data without --yes")
			}
			return a.store.ClearAll(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
