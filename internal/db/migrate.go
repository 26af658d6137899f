package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "embed"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies schema.sql. Every statement in it is idempotent, so it is
// run unconditionally at start-up.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

type seedDoctor struct {
	name            string
	specialty       string
	email           string
	phone           string
	experienceYears int
	availability    string
	rating          float64
	imageURL        string
}

var sampleDoctors = []seedDoctor{
	{"Dr. Sarah Johnson", "Cardiology", "sarah.johnson@smartcare.com", "+1-555-0101", 15, "Mon-Fri 9AM-5PM", 4.8, "/images/doctor1.jpg"},
	{"Dr. Michael Chen", "Neurology", "michael.chen@smartcare.com", "+1-555-0102", 12, "Mon-Thu 10AM-6PM", 4.7, "/images/doctor2.jpg"},
	{"Dr. Emily Rodriguez", "Dermatology", "emily.rodriguez@smartcare.com", "+1-555-0103", 8, "Tue-Sat 8AM-4PM", 4.9, "/images/doctor3.jpg"},
	{"Dr. James Wilson", "Orthopedics", "james.wilson@smartcare.com", "+1-555-0104", 20, "Mon-Fri 8AM-6PM", 4.6, "/images/doctor4.jpg"},
	{"Dr. Lisa Thompson", "Pediatrics", "lisa.thompson@smartcare.com", "+1-555-0105", 10, "Mon-Fri 9AM-5PM", 4.8, "/images/doctor5.jpg"},
	{"Dr. Robert Kim", "Psychiatry", "robert.kim@smartcare.com", "+1-555-0106", 14, "Mon-Thu 11AM-7PM", 4.7, "/images/doctor6.jpg"},
}

// SeedDoctors inserts the sample doctors, skipping any whose email already
// exists. It returns the number of rows inserted.
func SeedDoctors(ctx context.Context, db *sql.DB) (int64, error) {
	var inserted int64
	for _, d := range sampleDoctors {
		res, err := db.ExecContext(ctx,
			`INSERT INTO doctors (name, specialty, email, phone, experience_years, availability, rating, image_url)
             VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
             ON CONFLICT (email) DO NOTHING`,
			d.name, d.specialty, d.email, d.phone, d.experienceYears, d.availability, d.rating, d.imageURL,
		)
		if err != nil {
			return inserted, fmt.Errorf("seed doctor %s: %w", d.email, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, err
		}
		inserted += n
	}
	return inserted, nil
}
