package core

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"smartcare/pkg"

	"go.uber.org/zap"
)

// Defaults for reading listings and statistics windows.
const (
	DefaultReadingLimit = 100
	MaxReadingLimit     = 1000
	DefaultStatsDays    = 7
)

// SensorService ingests oximeter and temperature readings. Every stored
// reading is announced through Publisher; a failed announcement is logged and
// does not fail the ingestion.
type SensorService struct {
	Store     ReadingStore
	Publisher Publisher
	Logger    *zap.Logger
	Now       func() time.Time
}

// NewSensorService constructs a new SensorService. pub may be nil.
func NewSensorService(store ReadingStore, pub Publisher, logger *zap.Logger) *SensorService {
	return &SensorService{Store: store, Publisher: pub, Logger: logger, Now: time.Now}
}

func (s *SensorService) publish(ctx context.Context, kind pkg.ReadingKind, deviceID string, reading interface{}) {
	if s.Publisher == nil {
		return
	}
	raw, err := json.Marshal(reading)
	if err == nil {
		err = s.Publisher.Notify(ctx, pkg.ReadingEvent{Kind: kind, DeviceID: deviceID, Reading: raw})
	}
	if err != nil {
		s.Logger.Warn("publish reading", zap.String("kind", string(kind)), zap.String("device_id", deviceID), zap.Error(err))
	}
}

func (s *SensorService) timestamp(ts *pkg.Timestamp) time.Time {
	if ts != nil && !ts.IsZero() {
		return ts.Time
	}
	return s.Now()
}

func normalizeQuery(q pkg.ReadingQuery) (pkg.ReadingQuery, error) {
	q.DeviceID = strings.TrimSpace(q.DeviceID)
	if q.Limit < 0 || q.Offset < 0 {
		return q, pkg.Validationf("Limit and offset must not be negative")
	}
	if q.Limit == 0 {
		q.Limit = DefaultReadingLimit
	}
	if q.Limit > MaxReadingLimit {
		q.Limit = MaxReadingLimit
	}
	if q.Start != nil && q.End != nil && q.End.Before(*q.Start) {
		return q, pkg.Validationf("End date must not be before start date")
	}
	return q, nil
}

// statsWindow returns [now-days, now].
func (s *SensorService) statsWindow(days int) (time.Time, time.Time, error) {
	if days <= 0 {
		return time.Time{}, time.Time{}, pkg.Validationf("Days must be a positive integer")
	}
	until := s.Now()
	return until.AddDate(0, 0, -days), until, nil
}

func round1(p *float64) float64 {
	if p == nil {
		return 0
	}
	return math.Round(*p*10) / 10
}

func round0(p *float64) float64 {
	if p == nil {
		return 0
	}
	return math.Round(*p)
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// RecordOximeter stores one oximeter sample.
func (s *SensorService) RecordOximeter(ctx context.Context, in pkg.OximeterInput) (*pkg.OximeterReading, error) {
	deviceID := strings.TrimSpace(in.DeviceID)
	if deviceID == "" {
		return nil, pkg.Validationf("Device ID is required")
	}
	r := &pkg.OximeterReading{
		DeviceID:       deviceID,
		HeartRate:      in.HeartRate,
		SpO2:           in.SpO2,
		IRValue:        in.IRValue,
		RedValue:       in.RedValue,
		FingerDetected: in.FingerDetected != nil && *in.FingerDetected,
		Timestamp:      s.timestamp(in.Timestamp),
	}
	if err := s.Store.InsertOximeter(ctx, r); err != nil {
		return nil, err
	}
	s.publish(ctx, pkg.KindOximeter, deviceID, r)
	return r, nil
}

// LatestOximeter returns the newest reading, optionally of one device. It
// returns nil without error when there is none.
func (s *SensorService) LatestOximeter(ctx context.Context, deviceID string) (*pkg.OximeterReading, error) {
	return s.Store.LatestOximeter(ctx, strings.TrimSpace(deviceID))
}

// OximeterReadings lists readings newest first.
func (s *SensorService) OximeterReadings(ctx context.Context, q pkg.ReadingQuery) ([]pkg.OximeterReading, error) {
	q, err := normalizeQuery(q)
	if err != nil {
		return nil, err
	}
	return s.Store.ListOximeter(ctx, q)
}

// OximeterStats summarizes the last days of readings. The average heart rate
// is rounded to a whole number and the average SpO2 to one decimal.
func (s *SensorService) OximeterStats(ctx context.Context, deviceID string, days int) (*pkg.OximeterStats, error) {
	since, until, err := s.statsWindow(days)
	if err != nil {
		return nil, err
	}
	a, err := s.Store.OximeterAggregate(ctx, strings.TrimSpace(deviceID), since, until)
	if err != nil {
		return nil, err
	}
	return &pkg.OximeterStats{
		AvgHeartRate:  round0(a.AvgHeartRate),
		MinHeartRate:  value(a.MinHeartRate),
		MaxHeartRate:  value(a.MaxHeartRate),
		AvgSpO2:       round1(a.AvgSpO2),
		MinSpO2:       value(a.MinSpO2),
		MaxSpO2:       value(a.MaxSpO2),
		TotalReadings: a.TotalReadings,
		ValidReadings: a.ValidReadings,
	}, nil
}

// DeleteOximeter removes one reading.
func (s *SensorService) DeleteOximeter(ctx context.Context, id int64) error {
	return s.Store.DeleteOximeter(ctx, id)
}

// RecordTemperature stores one temperature sample. Both metrics are optional.
func (s *SensorService) RecordTemperature(ctx context.Context, in pkg.TemperatureInput) (*pkg.TemperatureReading, error) {
	deviceID := strings.TrimSpace(in.DeviceID)
	if deviceID == "" {
		return nil, pkg.Validationf("Device ID is required")
	}
	r := &pkg.TemperatureReading{
		DeviceID:    deviceID,
		Temperature: in.Temperature,
		Humidity:    in.Humidity,
		Timestamp:   s.timestamp(in.Timestamp),
	}
	if err := s.Store.InsertTemperature(ctx, r); err != nil {
		return nil, err
	}
	s.publish(ctx, pkg.KindTemperature, deviceID, r)
	return r, nil
}

// LatestTemperature returns the newest reading, or nil when there is none.
func (s *SensorService) LatestTemperature(ctx context.Context, deviceID string) (*pkg.TemperatureReading, error) {
	return s.Store.LatestTemperature(ctx, strings.TrimSpace(deviceID))
}

// TemperatureReadings lists readings newest first.
func (s *SensorService) TemperatureReadings(ctx context.Context, q pkg.ReadingQuery) ([]pkg.TemperatureReading, error) {
	q, err := normalizeQuery(q)
	if err != nil {
		return nil, err
	}
	return s.Store.ListTemperature(ctx, q)
}

// TemperatureStats summarizes the last days of readings, averages rounded to
// one decimal.
func (s *SensorService) TemperatureStats(ctx context.Context, deviceID string, days int) (*pkg.TemperatureStats, error) {
	since, until, err := s.statsWindow(days)
	if err != nil {
		return nil, err
	}
	a, err := s.Store.TemperatureAggregate(ctx, strings.TrimSpace(deviceID), since, until)
	if err != nil {
		return nil, err
	}
	return &pkg.TemperatureStats{
		AvgTemperature: round1(a.AvgTemperature),
		MinTemperature: value(a.MinTemperature),
		MaxTemperature: value(a.MaxTemperature),
		AvgHumidity:    round1(a.AvgHumidity),
		MinHumidity:    value(a.MinHumidity),
		MaxHumidity:    value(a.MaxHumidity),
		TotalReadings:  a.TotalReadings,
	}, nil
}

// DeleteTemperature removes one reading.
func (s *SensorService) DeleteTemperature(ctx context.Context, id int64) error {
	return s.Store.DeleteTemperature(ctx, id)
}
