package core

import (
	"context"
	"sync"
	"testing"

	"smartcare/internal/core/coretest"
	"smartcare/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func booking(doctorID int64, date, slot string) pkg.BookingRequest {
	return pkg.BookingRequest{
		PatientName:     "Ann Lee",
		PatientEmail:    "ann@example.com",
		DoctorID:        doctorID,
		AppointmentDate: date,
		AppointmentTime: slot,
	}
}

func TestCandidateSlots(t *testing.T) {
	slots := CandidateSlots()
	require.Len(t, slots, 9)
	assert.Equal(t, "09:00", slots[0])
	assert.Equal(t, "17:00", slots[8])
}

func TestAvailableSlots_CapacityPerSlot(t *testing.T) {
	ctx := context.Background()
	store := coretest.NewStore()
	doc := store.AddDoctor("Dr. Sarah Johnson", "Cardiology")
	s := NewScheduler(store)

	for i := 0; i < 3; i++ {
		_, err := s.Book(ctx, booking(doc.ID, "2025-01-10", "10:00"))
		require.NoError(t, err)
	}
	_, err := s.Book(ctx, booking(doc.ID, "2025-01-10", "11:00"))
	require.NoError(t, err)

	got, err := s.AvailableSlots(ctx, doc.ID, "2025-01-10")
	require.NoError(t, err)

	var times []string
	for _, slot := range got.AvailableSlots {
		assert.True(t, slot.Available)
		times = append(times, slot.Time)
	}
	assert.NotContains(t, times, "10:00")
	assert.Contains(t, times, "11:00", "a slot below capacity stays available")
	assert.Len(t, times, 8)
	assert.Equal(t, []string{"10:00", "10:00", "10:00", "11:00"}, got.BookedSlots)
	assert.Equal(t, doc.ID, got.DoctorID)
}

func TestAvailableSlots_CancelledFreesCapacity(t *testing.T) {
	ctx := context.Background()
	store := coretest.NewStore()
	doc := store.AddDoctor("Dr. Sarah Johnson", "Cardiology")
	s := NewScheduler(store)

	var first *pkg.Appointment
	for i := 0; i < 3; i++ {
		a, err := s.Book(ctx, booking(doc.ID, "2025-01-10", "10:00"))
		require.NoError(t, err)
		if first == nil {
			first = a
		}
	}
	require.NoError(t, s.Cancel(ctx, first.ID))

	got, err := s.AvailableSlots(ctx, doc.ID, "2025-01-10")
	require.NoError(t, err)
	assert.Len(t, got.AvailableSlots, 9)
	assert.Len(t, got.BookedSlots, 2)
}

func TestAvailableSlots_Errors(t *testing.T) {
	ctx := context.Background()
	store := coretest.NewStore()
	doc := store.AddDoctor("Dr. Sarah Johnson", "Cardiology")
	s := NewScheduler(store)

	_, err := s.AvailableSlots(ctx, doc.ID, "")
	assert.ErrorIs(t, err, pkg.ErrValidation)
	_, err = s.AvailableSlots(ctx, doc.ID, "10/01/2025")
	assert.ErrorIs(t, err, pkg.ErrValidation)
	_, err = s.AvailableSlots(ctx, 999, "2025-01-10")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestBook_FourthBookingRejected(t *testing.T) {
	ctx := context.Background()
	store := coretest.NewStore()
	doc := store.AddDoctor("Dr. Sarah Johnson", "Cardiology")
	s := NewScheduler(store)

	for i := 0; i < 3; i++ {
		a, err := s.Book(ctx, booking(doc.ID, "2025-01-10", "10:00"))
		require.NoError(t, err)
		assert.Equal(t, pkg.StatusPending, a.Status)
	}

	_, err := s.Book(ctx, booking(doc.ID, "2025-01-10", "10:00"))
	assert.ErrorIs(t, err, pkg.ErrCapacityExceeded)
	assert.EqualError(t, err, "This time slot is fully booked. Please choose another time.")

	appts, err := s.ByDoctor(ctx, doc.ID, "2025-01-10")
	require.NoError(t, err)
	assert.Len(t, appts, 3)
}

func TestBook_ConcurrentRequestsNeverExceedCapacity(t *testing.T) {
	ctx := context.Background()
	store := coretest.NewStore()
	doc := store.AddDoctor("Dr. Sarah Johnson", "Cardiology")
	s := NewScheduler(store)

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Book(ctx, booking(doc.ID, "2025-01-10", "14:00"))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, full int
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, pkg.ErrCapacityExceeded)
		full++
	}
	assert.Equal(t, SlotCapacity, ok)
	assert.Equal(t, 10-SlotCapacity, full)
}

func TestBook_Validation(t *testing.T) {
	ctx := context.Background()
	store := coretest.NewStore()
	doc := store.AddDoctor("Dr. Sarah Johnson", "Cardiology")
	s := NewScheduler(store)

	tests := []struct {
		name string
		req  pkg.BookingRequest
		want error
	}{
		{"missing name", pkg.BookingRequest{PatientEmail: "a@b.c", DoctorID: doc.ID, AppointmentDate: "2025-01-10", AppointmentTime: "10:00"}, pkg.ErrValidation},
		{"missing doctor", booking(0, "2025-01-10", "10:00"), pkg.ErrValidation},
		{"bad date", booking(doc.ID, "2025-13-40", "10:00"), pkg.ErrValidation},
		{"off-grid time", booking(doc.ID, "2025-01-10", "10:30"), pkg.ErrValidation},
		{"after hours", booking(doc.ID, "2025-01-10", "18:00"), pkg.ErrValidation},
		{"unknown doctor", booking(404, "2025-01-10", "10:00"), pkg.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Book(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := s.Book(ctx, pkg.BookingRequest{})
	assert.EqualError(t, err, "Patient name, email, doctor ID, date, and time are required")
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	store := coretest.NewStore()
	doc := store.AddDoctor("Dr. Sarah Johnson", "Cardiology")
	s := NewScheduler(store)
	a, err := s.Book(ctx, booking(doc.ID, "2025-01-10", "09:00"))
	require.NoError(t, err)

	err = s.SetStatus(ctx, a.ID, "archived")
	assert.EqualError(t, err, "Valid status is required (pending, confirmed, cancelled, completed)")

	require.NoError(t, s.SetStatus(ctx, a.ID, pkg.StatusConfirmed))
	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, pkg.StatusConfirmed, got.Status)

	assert.ErrorIs(t, s.SetStatus(ctx, 999, pkg.StatusCompleted), pkg.ErrNotFound)
}

func TestCancel_KeepsRowAndIsRepeatable(t *testing.T) {
	ctx := context.Background()
	store := coretest.NewStore()
	doc := store.AddDoctor("Dr. Sarah Johnson", "Cardiology")
	s := NewScheduler(store)
	a, err := s.Book(ctx, booking(doc.ID, "2025-01-10", "09:00"))
	require.NoError(t, err)

	require.NoError(t, s.Cancel(ctx, a.ID))
	require.NoError(t, s.Cancel(ctx, a.ID))

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, pkg.StatusCancelled, got.Status)

	mine, err := s.ByPatient(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	assert.ErrorIs(t, s.Cancel(ctx, 999), pkg.ErrNotFound)
}
