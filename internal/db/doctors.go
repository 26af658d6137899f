package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"smartcare/pkg"
)

const doctorColumns = `id, name, specialty, email, phone, experience_years, availability, rating, image_url, created_at`

func scanDoctor(s scanner, extra ...interface{}) (*pkg.Doctor, error) {
	var d pkg.Doctor
	dest := []interface{}{&d.ID, &d.Name, &d.Specialty, &d.Email, &d.Phone, &d.ExperienceYears,
		&d.Availability, &d.Rating, &d.ImageURL, &d.CreatedAt}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repository) queryDoctors(ctx context.Context, query string, args ...interface{}) ([]pkg.Doctor, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query doctors: %w", err)
	}
	defer rows.Close()
	doctors := []pkg.Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, *d)
	}
	return doctors, rows.Err()
}

// ListDoctors returns every doctor, best rated first.
func (r *Repository) ListDoctors(ctx context.Context) ([]pkg.Doctor, error) {
	return r.queryDoctors(ctx, `SELECT `+doctorColumns+` FROM doctors ORDER BY rating DESC, name ASC`)
}

// ListDoctorsBySpecialty matches specialty as a case-insensitive substring.
func (r *Repository) ListDoctorsBySpecialty(ctx context.Context, specialty string) ([]pkg.Doctor, error) {
	return r.queryDoctors(ctx,
		`SELECT `+doctorColumns+`
         FROM doctors
         WHERE specialty ILIKE '%' || $1 || '%'
         ORDER BY rating DESC, name ASC`, specialty)
}

// GetDoctor loads one doctor.
func (r *Repository) GetDoctor(ctx context.Context, id int64) (*pkg.Doctor, error) {
	d, err := scanDoctor(r.DB.QueryRowContext(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.NotFound("Doctor")
	}
	if err != nil {
		return nil, fmt.Errorf("get doctor %d: %w", id, err)
	}
	return d, nil
}

// ListSpecialties returns the distinct specialties in alphabetical order.
func (r *Repository) ListSpecialties(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT DISTINCT specialty FROM doctors ORDER BY specialty ASC`)
	if err != nil {
		return nil, fmt.Errorf("list specialties: %w", err)
	}
	defer rows.Close()
	specialties := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		specialties = append(specialties, s)
	}
	return specialties, rows.Err()
}

// ListAvailableDoctors returns the doctors of a specialty that hold fewer
// than capacity live bookings at the given date and time.
func (r *Repository) ListAvailableDoctors(ctx context.Context, specialty, date, slot string, capacity int) ([]pkg.AvailableDoctor, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT d.id, d.name, d.specialty, d.email, d.phone, d.experience_years, d.availability,
                d.rating, d.image_url, d.created_at, COUNT(a.id) AS appointment_count
         FROM doctors d
         LEFT JOIN appointments a ON a.doctor_id = d.id
              AND a.appointment_date = $1
              AND a.appointment_time = $2
              AND a.status <> 'cancelled'
         WHERE d.specialty ILIKE '%' || $3 || '%'
         GROUP BY d.id
         HAVING COUNT(a.id) < $4
         ORDER BY d.rating DESC, d.name ASC`,
		date, slot, specialty, capacity)
	if err != nil {
		return nil, fmt.Errorf("list available doctors: %w", err)
	}
	defer rows.Close()
	doctors := []pkg.AvailableDoctor{}
	for rows.Next() {
		var count int
		d, err := scanDoctor(rows, &count)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, pkg.AvailableDoctor{Doctor: *d, AppointmentCount: count})
	}
	return doctors, rows.Err()
}

// CreateDoctor inserts d and fills in its ID and CreatedAt.
func (r *Repository) CreateDoctor(ctx context.Context, d *pkg.Doctor) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO doctors (name, specialty, email, phone, experience_years, availability, rating, image_url)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
         RETURNING id, created_at`,
		d.Name, d.Specialty, d.Email, d.Phone, d.ExperienceYears, d.Availability, d.Rating, d.ImageURL,
	).Scan(&d.ID, &d.CreatedAt)
	if isPQError(err, pgUniqueViolation) {
		return pkg.Validationf("Doctor with this email already exists")
	}
	if err != nil {
		return fmt.Errorf("create doctor: %w", err)
	}
	return nil
}

// UpdateDoctor overwrites every editable column of doctor d.ID.
func (r *Repository) UpdateDoctor(ctx context.Context, d *pkg.Doctor) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE doctors
         SET name = $1, specialty = $2, email = $3, phone = $4,
             experience_years = $5, availability = $6, rating = $7, image_url = $8
         WHERE id = $9`,
		d.Name, d.Specialty, d.Email, d.Phone, d.ExperienceYears, d.Availability, d.Rating, d.ImageURL, d.ID,
	)
	if isPQError(err, pgUniqueViolation) {
		return pkg.Validationf("Doctor with this email already exists")
	}
	if err != nil {
		return fmt.Errorf("update doctor %d: %w", d.ID, err)
	}
	return expectRow(res, pkg.NotFound("Doctor"))
}

// DeleteDoctor removes a doctor that no appointment references.
func (r *Repository) DeleteDoctor(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if isPQError(err, pgForeignKeyViolation) {
		return pkg.Validationf("Doctor has appointments and cannot be deleted")
	}
	if err != nil {
		return fmt.Errorf("delete doctor %d: %w", id, err)
	}
	return expectRow(res, pkg.NotFound("Doctor"))
}
