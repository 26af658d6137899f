package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"smartcare/pkg"
)

const appointmentJoinColumns = `a.id, a.patient_name, a.patient_email, a.doctor_id, a.appointment_date,
        a.appointment_time, a.symptoms, a.status, a.created_at,
        d.name, d.specialty, d.email, d.phone`

func scanAppointment(s scanner) (*pkg.Appointment, error) {
	var a pkg.Appointment
	err := s.Scan(&a.ID, &a.PatientName, &a.PatientEmail, &a.DoctorID, &a.AppointmentDate,
		&a.AppointmentTime, &a.Symptoms, &a.Status, &a.CreatedAt,
		&a.DoctorName, &a.Specialty, &a.DoctorEmail, &a.DoctorPhone)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) queryAppointments(ctx context.Context, query string, args ...interface{}) ([]pkg.Appointment, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()
	appts := []pkg.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, *a)
	}
	return appts, rows.Err()
}

// BookedTimes returns the time of every live booking of doctor on date, one
// entry per appointment. Cancelled appointments do not count.
func (r *Repository) BookedTimes(ctx context.Context, doctorID int64, date string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT appointment_time
         FROM appointments
         WHERE doctor_id = $1 AND appointment_date = $2 AND status <> 'cancelled'
         ORDER BY appointment_time, id`, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("booked times: %w", err)
	}
	defer rows.Close()
	times := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// BookSlot inserts appt inside a transaction that holds the doctor's row lock.
// check is called with the number of live bookings already in the slot and
// may veto the insert by returning an error, which is passed through
// unchanged. Concurrent bookings for the same doctor serialize on the lock,
// so the count check cannot race. On success appt is filled in with its ID,
// status, creation time and doctor details.
func (r *Repository) BookSlot(ctx context.Context, appt *pkg.Appointment, check func(booked int) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx,
		`SELECT name, specialty, email, phone FROM doctors WHERE id = $1 FOR UPDATE`, appt.DoctorID,
	).Scan(&appt.DoctorName, &appt.Specialty, &appt.DoctorEmail, &appt.DoctorPhone)
	if errors.Is(err, sql.ErrNoRows) {
		return pkg.NotFound("Doctor")
	}
	if err != nil {
		return fmt.Errorf("lock doctor %d: %w", appt.DoctorID, err)
	}

	var booked int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appointments
         WHERE doctor_id = $1 AND appointment_date = $2 AND appointment_time = $3 AND status <> 'cancelled'`,
		appt.DoctorID, appt.AppointmentDate, appt.AppointmentTime,
	).Scan(&booked)
	if err != nil {
		return fmt.Errorf("count slot: %w", err)
	}
	if err := check(booked); err != nil {
		return err
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO appointments (patient_name, patient_email, doctor_id, appointment_date, appointment_time, symptoms, status)
         VALUES ($1, $2, $3, $4, $5, $6, 'pending')
         RETURNING id, status, created_at`,
		appt.PatientName, appt.PatientEmail, appt.DoctorID, appt.AppointmentDate, appt.AppointmentTime, appt.Symptoms,
	).Scan(&appt.ID, &appt.Status, &appt.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}
	return nil
}

// GetAppointment loads one appointment with its doctor details.
func (r *Repository) GetAppointment(ctx context.Context, id int64) (*pkg.Appointment, error) {
	a, err := scanAppointment(r.DB.QueryRowContext(ctx,
		`SELECT `+appointmentJoinColumns+`
         FROM appointments a
         JOIN doctors d ON d.id = a.doctor_id
         WHERE a.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.NotFound("Appointment")
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment %d: %w", id, err)
	}
	return a, nil
}

// ListAppointmentsByPatient returns a patient's appointments, latest slot first.
func (r *Repository) ListAppointmentsByPatient(ctx context.Context, email string) ([]pkg.Appointment, error) {
	return r.queryAppointments(ctx,
		`SELECT `+appointmentJoinColumns+`
         FROM appointments a
         JOIN doctors d ON d.id = a.doctor_id
         WHERE a.patient_email = $1
         ORDER BY a.appointment_date DESC, a.appointment_time DESC`, email)
}

// ListAppointmentsByDoctor returns a doctor's appointments in slot order,
// optionally restricted to one date.
func (r *Repository) ListAppointmentsByDoctor(ctx context.Context, doctorID int64, date string) ([]pkg.Appointment, error) {
	query := `SELECT ` + appointmentJoinColumns + `
         FROM appointments a
         JOIN doctors d ON d.id = a.doctor_id
         WHERE a.doctor_id = $1`
	args := []interface{}{doctorID}
	if date != "" {
		query += ` AND a.appointment_date = $2`
		args = append(args, date)
	}
	query += ` ORDER BY a.appointment_date ASC, a.appointment_time ASC`
	return r.queryAppointments(ctx, query, args...)
}

// SetAppointmentStatus moves an appointment to status.
func (r *Repository) SetAppointmentStatus(ctx context.Context, id int64, status pkg.AppointmentStatus) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE appointments SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("set appointment %d status: %w", id, err)
	}
	return expectRow(res, pkg.NotFound("Appointment"))
}
