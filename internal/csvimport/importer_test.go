package csvimport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onestopai/clinicdesk/internal/records"
)

func newStore(t *testing.T) *records.Store {
	t.Helper()
	store := records.New(records.NewMemoryBackend(), records.Options{})
	store.Load(context.Background())
	return store
}

func TestImportPatients(t *testing.T) {
	store := newStore(t)
	imp := New(store, nil, nil)

	csv := "Name, Mobile, Date of Birth, Sex\n" +
		"Asha Rao, 9876543210, 1990-04-12, Female\n" +
		"Ravi Kumar, 9812345678,,\n"

	res, err := imp.ImportPatients(context.Background(), csv)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 0, res.Skipped)

	patients := store.Patients()
	require.Len(t, patients, 2)
	assert.Equal(t, "Asha Rao", patients[0].Name)
	assert.Equal(t, "9876543210", patients[0].Phone)
	assert.Equal(t, "1990-04-12", patients[0].DOB)
	assert.Equal(t, records.GenderFemale, patients[0].Gender)
	assert.Equal(t, records.GenderMale, patients[1].Gender, "empty gender cell defaults to Male")
	assert.Equal(t, "9812345678", patients[1].WhatsApp, "whatsapp defaults to phone")
}

func TestImportSkipsAndDedup(t *testing.T) {
	store := newStore(t)
	_, err := store.AddPatient(context.Background(), records.AddPatientInput{
		Name:  "Existing",
		Phone: "9000000000",
	})
	require.NoError(t, err)

	imp := New(store, nil, nil)
	csv := "name,phone\n" +
		"No Phone,\n" + // silent skip, uncounted
		"Existing Again,9000000000\n" + // duplicate, counted
		"Fresh,9111111111\n"

	res, err := imp.ImportPatients(context.Background(), csv)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, store.Patients(), 2)
}

func TestImportTwiceDedupsByPhone(t *testing.T) {
	store := newStore(t)
	imp := New(store, nil, nil)
	csv := "name,phone\nAsha,9876543210\nRavi,9812345678\n"

	first, err := imp.ImportPatients(context.Background(), csv)
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 2, Skipped: 0}, first)

	second, err := imp.ImportPatients(context.Background(), csv)
	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 0, Skipped: 2}, second)
	assert.Len(t, store.Patients(), 2)
}

func TestImportDedupsWithinOneFile(t *testing.T) {
	store := newStore(t)
	imp := New(store, nil, nil)
	csv := "name,phone\nAsha,9876543210\nAsha Again,9876543210\n"

	res, err := imp.ImportPatients(context.Background(), csv)

	require.NoError(t, err)
	assert.Equal(t, Result{Imported: 1, Skipped: 1}, res)
}

func TestImportMissingRequiredHeader(t *testing.T) {
	store := newStore(t)
	imp := New(store, nil, nil)

	// no phone synonym in the header: every row is silently skipped
	res, err := imp.ImportPatients(context.Background(), "name,address\nAsha,Somewhere\n")

	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Empty(t, store.Patients())
}

func TestImportInvalidFile(t *testing.T) {
	store := newStore(t)
	imp := New(store, nil, nil)

	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"blank lines only", "\n  \n\r\n"},
		{"header only", "name,phone\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := imp.ImportPatients(context.Background(), tt.text)
			assert.ErrorIs(t, err, ErrInvalidFile)
			assert.Equal(t, Result{}, res)
		})
	}
	assert.Empty(t, store.Patients())
}

func TestImportRowsShorterThanHeader(t *testing.T) {
	store := newStore(t)
	imp := New(store, nil, nil)

	res, err := imp.ImportPatients(context.Background(), "name,phone,address\nAsha,9876543210\n")

	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, "", store.Patients()[0].Address)
}
