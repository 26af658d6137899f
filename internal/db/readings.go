package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartcare/pkg"
)

const (
	oximeterColumns    = `id, device_id, heart_rate, spo2, ir_value, red_value, finger_detected, recorded_at, created_at`
	temperatureColumns = `id, device_id, temperature, humidity, recorded_at, created_at`
)

func scanOximeter(s scanner) (*pkg.OximeterReading, error) {
	var o pkg.OximeterReading
	err := s.Scan(&o.ID, &o.DeviceID, &o.HeartRate, &o.SpO2, &o.IRValue, &o.RedValue, &o.FingerDetected, &o.Timestamp, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanTemperature(s scanner) (*pkg.TemperatureReading, error) {
	var t pkg.TemperatureReading
	err := s.Scan(&t.ID, &t.DeviceID, &t.Temperature, &t.Humidity, &t.Timestamp, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// readingFilter builds the WHERE clause shared by the listing and latest
// queries. Placeholders are numbered in the order conditions are added.
type readingFilter struct {
	conds []string
	args  []interface{}
}

func (f *readingFilter) add(cond string, arg interface{}) {
	f.args = append(f.args, arg)
	f.conds = append(f.conds, fmt.Sprintf(cond, len(f.args)))
}

func (f *readingFilter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

func (f *readingFilter) page(limit, offset int) string {
	f.args = append(f.args, limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(f.args)-1, len(f.args))
}

func newReadingFilter(q pkg.ReadingQuery) *readingFilter {
	f := &readingFilter{}
	if q.DeviceID != "" {
		f.add("device_id = $%d", q.DeviceID)
	}
	if q.Start != nil {
		f.add("recorded_at >= $%d", *q.Start)
	}
	if q.End != nil {
		f.add("recorded_at <= $%d", *q.End)
	}
	return f
}

// statsFilter restricts aggregation to [since, until] and optionally to one
// device.
func statsFilter(deviceID string, since, until time.Time) *readingFilter {
	f := &readingFilter{}
	f.add("recorded_at >= $%d", since)
	f.add("recorded_at <= $%d", until)
	if deviceID != "" {
		f.add("device_id = $%d", deviceID)
	}
	return f
}

// InsertOximeter stores o and fills in its ID and CreatedAt.
func (r *Repository) InsertOximeter(ctx context.Context, o *pkg.OximeterReading) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO oximeter_readings (device_id, heart_rate, spo2, ir_value, red_value, finger_detected, recorded_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING id, created_at`,
		o.DeviceID, o.HeartRate, o.SpO2, o.IRValue, o.RedValue, o.FingerDetected, o.Timestamp,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert oximeter reading: %w", err)
	}
	return nil
}

// LatestOximeter returns the most recent reading, or nil when none matches.
func (r *Repository) LatestOximeter(ctx context.Context, deviceID string) (*pkg.OximeterReading, error) {
	f := newReadingFilter(pkg.ReadingQuery{DeviceID: deviceID})
	o, err := scanOximeter(r.DB.QueryRowContext(ctx,
		`SELECT `+oximeterColumns+` FROM oximeter_readings`+f.where()+` ORDER BY recorded_at DESC, id DESC LIMIT 1`,
		f.args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest oximeter reading: %w", err)
	}
	return o, nil
}

// ListOximeter returns readings matching q, newest first.
func (r *Repository) ListOximeter(ctx context.Context, q pkg.ReadingQuery) ([]pkg.OximeterReading, error) {
	f := newReadingFilter(q)
	query := `SELECT ` + oximeterColumns + ` FROM oximeter_readings` + f.where() +
		` ORDER BY recorded_at DESC, id DESC` + f.page(q.Limit, q.Offset)
	rows, err := r.DB.QueryContext(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("list oximeter readings: %w", err)
	}
	defer rows.Close()
	readings := []pkg.OximeterReading{}
	for rows.Next() {
		o, err := scanOximeter(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, *o)
	}
	return readings, rows.Err()
}

// OximeterAggregate computes the raw statistics of readings recorded in
// [since, until].
func (r *Repository) OximeterAggregate(ctx context.Context, deviceID string, since, until time.Time) (*pkg.OximeterAggregate, error) {
	f := statsFilter(deviceID, since, until)
	var a pkg.OximeterAggregate
	err := r.DB.QueryRowContext(ctx,
		`SELECT AVG(heart_rate), MIN(heart_rate), MAX(heart_rate),
                AVG(spo2), MIN(spo2), MAX(spo2),
                COUNT(*), COUNT(*) FILTER (WHERE finger_detected)
         FROM oximeter_readings`+f.where(), f.args...,
	).Scan(&a.AvgHeartRate, &a.MinHeartRate, &a.MaxHeartRate,
		&a.AvgSpO2, &a.MinSpO2, &a.MaxSpO2,
		&a.TotalReadings, &a.ValidReadings)
	if err != nil {
		return nil, fmt.Errorf("oximeter stats: %w", err)
	}
	return &a, nil
}

// DeleteOximeter removes one reading.
func (r *Repository) DeleteOximeter(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM oximeter_readings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete oximeter reading %d: %w", id, err)
	}
	return expectRow(res, pkg.NotFound("Reading"))
}

// InsertTemperature stores t and fills in its ID and CreatedAt.
func (r *Repository) InsertTemperature(ctx context.Context, t *pkg.TemperatureReading) error {
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO temperature_readings (device_id, temperature, humidity, recorded_at)
         VALUES ($1, $2, $3, $4)
         RETURNING id, created_at`,
		t.DeviceID, t.Temperature, t.Humidity, t.Timestamp,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert temperature reading: %w", err)
	}
	return nil
}

// LatestTemperature returns the most recent reading, or nil when none matches.
func (r *Repository) LatestTemperature(ctx context.Context, deviceID string) (*pkg.TemperatureReading, error) {
	f := newReadingFilter(pkg.ReadingQuery{DeviceID: deviceID})
	t, err := scanTemperature(r.DB.QueryRowContext(ctx,
		`SELECT `+temperatureColumns+` FROM temperature_readings`+f.where()+` ORDER BY recorded_at DESC, id DESC LIMIT 1`,
		f.args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest temperature reading: %w", err)
	}
	return t, nil
}

// ListTemperature returns readings matching q, newest first.
func (r *Repository) ListTemperature(ctx context.Context, q pkg.ReadingQuery) ([]pkg.TemperatureReading, error) {
	f := newReadingFilter(q)
	query := `SELECT ` + temperatureColumns + ` FROM temperature_readings` + f.where() +
		` ORDER BY recorded_at DESC, id DESC` + f.page(q.Limit, q.Offset)
	rows, err := r.DB.QueryContext(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("list temperature readings: %w", err)
	}
	defer rows.Close()
	readings := []pkg.TemperatureReading{}
	for rows.Next() {
		t, err := scanTemperature(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, *t)
	}
	return readings, rows.Err()
}

// TemperatureAggregate computes the raw statistics of readings recorded in
// [since, until].
func (r *Repository) TemperatureAggregate(ctx context.Context, deviceID string, since, until time.Time) (*pkg.TemperatureAggregate, error) {
	f := statsFilter(deviceID, since, until)
	var a pkg.TemperatureAggregate
	err := r.DB.QueryRowContext(ctx,
		`SELECT AVG(temperature), MIN(temperature), MAX(temperature),
                AVG(humidity), MIN(humidity), MAX(humidity),
                COUNT(*)
         FROM temperature_readings`+f.where(), f.args...,
	).Scan(&a.AvgTemperature, &a.MinTemperature, &a.MaxTemperature,
		&a.AvgHumidity, &a.MinHumidity, &a.MaxHumidity,
		&a.TotalReadings)
	if err != nil {
		return nil, fmt.Errorf("temperature stats: %w", err)
	}
	return &a, nil
}

// DeleteTemperature removes one reading.
func (r *Repository) DeleteTemperature(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM temperature_readings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete temperature reading %d: %w", id, err)
	}
	return expectRow(res, pkg.NotFound("Reading"))
}

// PurgeReadings deletes readings of both kinds recorded before cutoff and
// returns how many rows went.
func (r *Repository) PurgeReadings(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	for _, table := range []string{"oximeter_readings", "temperature_readings"} {
		res, err := r.DB.ExecContext(ctx, `DELETE FROM `+table+` WHERE recorded_at < $1`, cutoff)
		if err != nil {
			return total, fmt.Errorf("purge %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
