package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"smartcare/internal/core/coretest"
	"smartcare/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fptr(f float64) *float64 { return &f }
func iptr(i int) *int         { return &i }

func newSensorService(store *coretest.Store, pub Publisher, now time.Time) *SensorService {
	s := NewSensorService(store, pub, zap.NewNop())
	s.Now = func() time.Time { return now }
	return s
}

func TestRecordOximeter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)
	store := coretest.NewStore()
	pub := &coretest.Publisher{}
	s := newSensorService(store, pub, now)

	_, err := s.RecordOximeter(ctx, pkg.OximeterInput{HeartRate: iptr(70)})
	assert.EqualError(t, err, "Device ID is required")

	r, err := s.RecordOximeter(ctx, pkg.OximeterInput{DeviceID: " ESP32_001 ", HeartRate: iptr(0), SpO2: fptr(97.5)})
	require.NoError(t, err)
	assert.Equal(t, "ESP32_001", r.DeviceID)
	assert.Equal(t, now, r.Timestamp, "timestamp defaults to ingestion time")
	assert.False(t, r.FingerDetected)
	require.NotNil(t, r.HeartRate)
	assert.Equal(t, 0, *r.HeartRate, "zero is stored as given")
	assert.Nil(t, r.IRValue)

	require.Len(t, pub.Events, 1)
	ev := pub.Events[0]
	assert.Equal(t, pkg.KindOximeter, ev.Kind)
	assert.Equal(t, "ESP32_001", ev.DeviceID)
	var decoded pkg.OximeterReading
	require.NoError(t, json.Unmarshal(ev.Reading, &decoded))
	assert.Equal(t, r.ID, decoded.ID)

	sent := now.Add(-time.Hour)
	finger := true
	r, err = s.RecordOximeter(ctx, pkg.OximeterInput{DeviceID: "ESP32_001", FingerDetected: &finger, Timestamp: &pkg.Timestamp{Time: sent}})
	require.NoError(t, err)
	assert.Equal(t, sent, r.Timestamp)
	assert.True(t, r.FingerDetected)
}

func TestRecordOximeter_LatestReturnsReadingUnchanged(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newSensorService(coretest.NewStore(), &coretest.Publisher{}, now)

	sent := time.UnixMilli(1736500000000).UTC()
	ir, red := int64(48000), int64(45000)
	finger := true
	stored, err := s.RecordOximeter(ctx, pkg.OximeterInput{
		DeviceID:       "ESP32_SIMULATOR_001",
		HeartRate:      iptr(72),
		SpO2:           fptr(97.5),
		IRValue:        &ir,
		RedValue:       &red,
		FingerDetected: &finger,
		Timestamp:      &pkg.Timestamp{Time: sent},
	})
	require.NoError(t, err)

	latest, err := s.LatestOximeter(ctx, "ESP32_SIMULATOR_001")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, stored.ID, latest.ID)
	assert.Equal(t, "ESP32_SIMULATOR_001", latest.DeviceID)
	require.NotNil(t, latest.HeartRate)
	assert.Equal(t, 72, *latest.HeartRate)
	require.NotNil(t, latest.SpO2)
	assert.Equal(t, 97.5, *latest.SpO2)
	require.NotNil(t, latest.IRValue)
	assert.Equal(t, int64(48000), *latest.IRValue)
	require.NotNil(t, latest.RedValue)
	assert.Equal(t, int64(45000), *latest.RedValue)
	assert.True(t, latest.FingerDetected)
	assert.True(t, sent.Equal(latest.Timestamp), "caller timestamp kept, got %s", latest.Timestamp)
}

func TestRecord_PublishFailureDoesNotFailIngestion(t *testing.T) {
	ctx := context.Background()
	store := coretest.NewStore()
	s := newSensorService(store, &coretest.Publisher{Err: errors.New("db gone")}, time.Now())

	_, err := s.RecordTemperature(ctx, pkg.TemperatureInput{DeviceID: "TEMP_1", Temperature: fptr(36.6)})
	require.NoError(t, err)
	latest, err := s.LatestTemperature(ctx, "TEMP_1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 36.6, *latest.Temperature)
	assert.Nil(t, latest.Humidity)
}

func TestLatest_NoneIsNil(t *testing.T) {
	s := newSensorService(coretest.NewStore(), nil, time.Now())
	got, err := s.LatestOximeter(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReadings_QueryDefaults(t *testing.T) {
	ctx := context.Background()
	store := coretest.NewStore()
	s := newSensorService(store, nil, time.Now())

	_, err := s.OximeterReadings(ctx, pkg.ReadingQuery{DeviceID: " D1 "})
	require.NoError(t, err)
	assert.Equal(t, pkg.ReadingQuery{DeviceID: "D1", Limit: DefaultReadingLimit}, store.LastQuery)

	_, err = s.TemperatureReadings(ctx, pkg.ReadingQuery{Limit: 5000, Offset: 20})
	require.NoError(t, err)
	assert.Equal(t, MaxReadingLimit, store.LastQuery.Limit)
	assert.Equal(t, 20, store.LastQuery.Offset)

	_, err = s.OximeterReadings(ctx, pkg.ReadingQuery{Offset: -1})
	assert.ErrorIs(t, err, pkg.ErrValidation)

	start := time.Now()
	end := start.Add(-time.Hour)
	_, err = s.OximeterReadings(ctx, pkg.ReadingQuery{Start: &start, End: &end})
	assert.ErrorIs(t, err, pkg.ErrValidation)
}

func TestOximeterStats_Rounding(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2030, 5, 8, 12, 0, 0, 0, time.UTC)
	store := coretest.NewStore()
	store.OxAgg = pkg.OximeterAggregate{
		AvgHeartRate:  fptr(72.6),
		MinHeartRate:  fptr(60),
		MaxHeartRate:  fptr(88),
		AvgSpO2:       fptr(97.349),
		MinSpO2:       fptr(95),
		MaxSpO2:       fptr(99.5),
		TotalReadings: 10,
		ValidReadings: 8,
	}
	s := newSensorService(store, nil, now)

	st, err := s.OximeterStats(ctx, "ESP32_001", DefaultStatsDays)
	require.NoError(t, err)
	assert.Equal(t, 73.0, st.AvgHeartRate)
	assert.Equal(t, 97.3, st.AvgSpO2)
	assert.Equal(t, 99.5, st.MaxSpO2)
	assert.Equal(t, int64(8), st.ValidReadings)

	assert.Equal(t, "ESP32_001", store.AggDevice)
	assert.Equal(t, now, store.AggUntil)
	assert.Equal(t, now.AddDate(0, 0, -7), store.AggSince)
}

func TestStats_EmptyWindowIsZero(t *testing.T) {
	ctx := context.Background()
	s := newSensorService(coretest.NewStore(), nil, time.Now())

	ox, err := s.OximeterStats(ctx, "", 1)
	require.NoError(t, err)
	assert.Equal(t, pkg.OximeterStats{}, *ox)

	temp, err := s.TemperatureStats(ctx, "", 30)
	require.NoError(t, err)
	assert.Equal(t, pkg.TemperatureStats{}, *temp)
}

func TestStats_DaysMustBePositive(t *testing.T) {
	s := newSensorService(coretest.NewStore(), nil, time.Now())
	_, err := s.OximeterStats(context.Background(), "", 0)
	assert.ErrorIs(t, err, pkg.ErrValidation)
	_, err = s.TemperatureStats(context.Background(), "", -3)
	assert.ErrorIs(t, err, pkg.ErrValidation)
}

func TestTemperatureStats_Rounding(t *testing.T) {
	store := coretest.NewStore()
	store.TempAgg = pkg.TemperatureAggregate{
		AvgTemperature: fptr(36.666),
		MinTemperature: fptr(36.1),
		MaxTemperature: fptr(37.2),
		AvgHumidity:    fptr(45.25),
		TotalReadings:  3,
	}
	st, err := newSensorService(store, nil, time.Now()).TemperatureStats(context.Background(), "", 7)
	require.NoError(t, err)
	assert.Equal(t, 36.7, st.AvgTemperature)
	assert.Equal(t, 45.3, st.AvgHumidity)
	assert.Zero(t, st.MaxHumidity)
	assert.Equal(t, int64(3), st.TotalReadings)
}

func TestDeleteReading(t *testing.T) {
	ctx := context.Background()
	store := coretest.NewStore()
	s := newSensorService(store, nil, time.Now())
	r, err := s.RecordOximeter(ctx, pkg.OximeterInput{DeviceID: "D"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteOximeter(ctx, r.ID))
	err = s.DeleteOximeter(ctx, r.ID)
	assert.EqualError(t, err, "Reading not found")
	assert.ErrorIs(t, s.DeleteTemperature(ctx, 42), pkg.ErrNotFound)
}
