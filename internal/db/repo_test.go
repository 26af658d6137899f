package db

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"smartcare/pkg"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewRepository(db), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func bookingFixture() *pkg.Appointment {
	return &pkg.Appointment{
		PatientName:     "Ann Lee",
		PatientEmail:    "ann@example.com",
		DoctorID:        7,
		AppointmentDate: "2030-01-10",
		AppointmentTime: "10:00",
	}
}

func TestBookSlot_InsertsUnderLock(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM doctors WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "specialty", "email", "phone"}).
			AddRow("Dr. Sarah Johnson", "Cardiology", "sarah@example.com", nil))
	mock.ExpectQuery(q("SELECT COUNT(*) FROM appointments")).
		WithArgs(int64(7), "2030-01-10", "10:00").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(q("INSERT INTO appointments")).
		WithArgs("Ann Lee", "ann@example.com", int64(7), "2030-01-10", "10:00", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at"}).AddRow(41, "pending", now))
	mock.ExpectCommit()

	appt := bookingFixture()
	var seen int
	err := repo.BookSlot(context.Background(), appt, func(booked int) error {
		seen = booked
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
	assert.Equal(t, int64(41), appt.ID)
	assert.Equal(t, pkg.StatusPending, appt.Status)
	assert.Equal(t, "Dr. Sarah Johnson", appt.DoctorName)
	assert.Nil(t, appt.DoctorPhone)
}

func TestBookSlot_VetoRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"name", "specialty", "email", "phone"}).
			AddRow("Dr. Sarah Johnson", "Cardiology", "sarah@example.com", "+1-555-0101"))
	mock.ExpectQuery(q("SELECT COUNT(*) FROM appointments")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	full := pkg.CapacityExceeded("full")
	err := repo.BookSlot(context.Background(), bookingFixture(), func(booked int) error {
		if booked >= 3 {
			return full
		}
		return nil
	})
	assert.Same(t, full, err)
}

func TestBookSlot_UnknownDoctor(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"name", "specialty", "email", "phone"}))
	mock.ExpectRollback()

	err := repo.BookSlot(context.Background(), bookingFixture(), func(int) error {
		t.Fatal("check must not run without a doctor")
		return nil
	})
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	assert.EqualError(t, err, "Doctor not found")
}

func TestCreateDoctor_DuplicateEmail(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(q("INSERT INTO doctors")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.CreateDoctor(context.Background(), &pkg.Doctor{Name: "X", Specialty: "Y", Email: "dup@example.com"})
	assert.ErrorIs(t, err, pkg.ErrValidation)
	assert.EqualError(t, err, "Doctor with this email already exists")
}

func TestDeleteDoctor(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(q("DELETE FROM doctors WHERE id = $1")).
			WithArgs(int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.DeleteDoctor(context.Background(), 99), pkg.ErrNotFound)
	})
	t.Run("referenced", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(q("DELETE FROM doctors")).
			WillReturnError(&pq.Error{Code: "23503"})
		assert.ErrorIs(t, repo.DeleteDoctor(context.Background(), 1), pkg.ErrValidation)
	})
	t.Run("other failure is wrapped", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		boom := errors.New("connection reset")
		mock.ExpectExec(q("DELETE FROM doctors")).WillReturnError(boom)
		err := repo.DeleteDoctor(context.Background(), 1)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, pkg.ErrValidation)
	})
}

func TestListSpecialties(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(q("SELECT DISTINCT specialty FROM doctors ORDER BY specialty ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"specialty"}).AddRow("Cardiology").AddRow("Neurology"))

	got, err := repo.ListSpecialties(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Cardiology", "Neurology"}, got)
}

func TestListAppointmentsByDoctor_DateFilter(t *testing.T) {
	cols := []string{"id", "patient_name", "patient_email", "doctor_id", "appointment_date", "appointment_time",
		"symptoms", "status", "created_at", "name", "specialty", "email", "phone"}

	repo, mock := newMockRepo(t)
	mock.ExpectQuery(q("WHERE a.doctor_id = $1 AND a.appointment_date = $2 ORDER BY a.appointment_date ASC")).
		WithArgs(int64(3), "2030-01-10").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "Ann", "ann@example.com", 3, "2030-01-10", "09:00",
			"cough", "confirmed", time.Now(), "Dr. Lisa Thompson", "Pediatrics", "lisa@example.com", nil))

	appts, err := repo.ListAppointmentsByDoctor(context.Background(), 3, "2030-01-10")
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, pkg.StatusConfirmed, appts[0].Status)
	require.NotNil(t, appts[0].Symptoms)
	assert.Equal(t, "cough", *appts[0].Symptoms)
}

func TestSetAppointmentStatus_Missing(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(q("UPDATE appointments SET status = $1 WHERE id = $2")).
		WithArgs("cancelled", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetAppointmentStatus(context.Background(), 5, pkg.StatusCancelled)
	assert.EqualError(t, err, "Appointment not found")
}

func TestListOximeter_Filters(t *testing.T) {
	repo, mock := newMockRepo(t)
	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	mock.ExpectQuery(q("WHERE device_id = $1 AND recorded_at >= $2 AND recorded_at <= $3 ORDER BY recorded_at DESC, id DESC LIMIT $4 OFFSET $5")).
		WithArgs("ESP32_001", start, end, 50, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "device_id", "heart_rate", "spo2", "ir_value", "red_value",
			"finger_detected", "recorded_at", "created_at"}).
			AddRow(1, "ESP32_001", 72, 98.5, nil, nil, true, start, start))

	got, err := repo.ListOximeter(context.Background(), pkg.ReadingQuery{
		DeviceID: "ESP32_001", Limit: 50, Offset: 10, Start: &start, End: &end,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].HeartRate)
	assert.Equal(t, 72, *got[0].HeartRate)
	assert.Nil(t, got[0].IRValue)
}

func TestListTemperature_NoFilters(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(q("FROM temperature_readings ORDER BY recorded_at DESC, id DESC LIMIT $1 OFFSET $2")).
		WithArgs(100, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "device_id", "temperature", "humidity", "recorded_at", "created_at"}))

	got, err := repo.ListTemperature(context.Background(), pkg.ReadingQuery{Limit: 100})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLatestOximeter_None(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(q("FROM oximeter_readings WHERE device_id = $1 ORDER BY recorded_at DESC, id DESC LIMIT 1")).
		WithArgs("ESP32_404").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := repo.LatestOximeter(context.Background(), "ESP32_404")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOximeterAggregate_EmptyWindow(t *testing.T) {
	repo, mock := newMockRepo(t)
	until := time.Now()
	since := until.Add(-7 * 24 * time.Hour)

	mock.ExpectQuery(q("COUNT(*) FILTER (WHERE finger_detected)")).
		WithArgs(since, until).
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d", "e", "f", "total", "valid"}).
			AddRow(nil, nil, nil, nil, nil, nil, 0, 0))

	agg, err := repo.OximeterAggregate(context.Background(), "", since, until)
	require.NoError(t, err)
	assert.Nil(t, agg.AvgHeartRate)
	assert.Nil(t, agg.MaxSpO2)
	assert.Zero(t, agg.TotalReadings)
}

func TestTemperatureAggregate_Device(t *testing.T) {
	repo, mock := newMockRepo(t)
	until := time.Now()
	since := until.Add(-24 * time.Hour)

	mock.ExpectQuery(q("FROM temperature_readings WHERE recorded_at >= $1 AND recorded_at <= $2 AND device_id = $3")).
		WithArgs(since, until, "TEMP_1").
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d", "e", "f", "total"}).
			AddRow("36.6666", 36.1, 37.2, "45.25", 40.0, 50.5, 3))

	agg, err := repo.TemperatureAggregate(context.Background(), "TEMP_1", since, until)
	require.NoError(t, err)
	require.NotNil(t, agg.AvgTemperature)
	assert.InDelta(t, 36.6666, *agg.AvgTemperature, 1e-9)
	assert.Equal(t, int64(3), agg.TotalReadings)
}

func TestPurgeReadings(t *testing.T) {
	repo, mock := newMockRepo(t)
	cutoff := time.Now().Add(-30 * 24 * time.Hour)
	mock.ExpectExec(q("DELETE FROM oximeter_readings WHERE recorded_at < $1")).
		WithArgs(cutoff).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(q("DELETE FROM temperature_readings WHERE recorded_at < $1")).
		WithArgs(cutoff).WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.PurgeReadings(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
}

func TestCreateFile_UnknownSession(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(q("INSERT INTO uploaded_files")).
		WillReturnError(&pq.Error{Code: "23503"})

	err := repo.CreateFile(context.Background(), &pkg.UploadedFile{SessionID: "nope"})
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestGetSession_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(q("FROM chat_sessions WHERE session_id = $1")).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetSession(context.Background(), "abc")
	assert.EqualError(t, err, "Session not found")
}

func TestSeedDoctors_CountsInserted(t *testing.T) {
	repo, mock := newMockRepo(t)
	for i := range sampleDoctors {
		var affected int64
		if i%2 == 0 {
			affected = 1
		}
		mock.ExpectExec(q("ON CONFLICT (email) DO NOTHING")).
			WillReturnResult(sqlmock.NewResult(0, affected))
	}

	n, err := SeedDoctors(context.Background(), repo.DB)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
