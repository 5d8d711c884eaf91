package records

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisBackend(t *testing.T) *RedisBackend {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBackend(client, "test")
}

func TestRedisBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := newRedisBackend(t)

	_, err := backend.Get(ctx, "profile")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, backend.Put(ctx, "profile", []byte(`{"clinic":"Lakeside"}`)))

	data, err := backend.Get(ctx, "profile")
	require.NoError(t, err)
	assert.JSONEq(t, `{"clinic":"Lakeside"}`, string(data))
}

func TestRedisBackendOverStore(t *testing.T) {
	ctx := context.Background()
	backend := newRedisBackend(t)

	store := New(backend, Options{Clock: testClock})
	store.Load(ctx)

	p, err := store.AddPatient(ctx, AddPatientInput{Name: "Asha", Phone: "9876543210"})
	require.NoError(t, err)
	_, err = store.AddAppointment(ctx, AddAppointmentInput{PatientID: p.ID, Date: testClock().Add(time.Hour)})
	require.NoError(t, err)

	reloaded := New(backend, Options{Clock: testClock})
	reloaded.Load(ctx)
	assert.Len(t, reloaded.Patients(), 1)
	assert.Len(t, reloaded.Appointments(), 1)
}
