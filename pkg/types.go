package pkg

import (
	"encoding/json"
	"time"
)

// Doctor is a row of the doctor directory.
type Doctor struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Specialty       string    `json:"specialty"`
	Email           string    `json:"email"`
	Phone           *string   `json:"phone"`
	ExperienceYears *int      `json:"experience_years"`
	Availability    *string   `json:"availability"`
	Rating          float64   `json:"rating"`
	ImageURL        *string   `json:"image_url"`
	CreatedAt       time.Time `json:"created_at"`
}

// AvailableDoctor is a doctor together with the number of live bookings in
// the slot that was asked about.
type AvailableDoctor struct {
	Doctor
	AppointmentCount int `json:"appointment_count"`
}

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// Valid reports whether s is one of the four known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Appointment is a booking of one hourly slot. The doctor fields are filled
// by the queries that join the doctors table.
type Appointment struct {
	ID              int64             `json:"id"`
	PatientName     string            `json:"patient_name"`
	PatientEmail    string            `json:"patient_email"`
	DoctorID        int64             `json:"doctor_id"`
	AppointmentDate string            `json:"appointment_date"`
	AppointmentTime string            `json:"appointment_time"`
	Symptoms        *string           `json:"symptoms"`
	Status          AppointmentStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`

	DoctorName  string  `json:"doctor_name,omitempty"`
	Specialty   string  `json:"specialty,omitempty"`
	DoctorEmail string  `json:"doctor_email,omitempty"`
	DoctorPhone *string `json:"doctor_phone,omitempty"`
}

// Slot is one candidate appointment time.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// SlotAvailability is the answer to "when can I see doctor X on day Y".
type SlotAvailability struct {
	DoctorID       int64    `json:"doctorId"`
	Date           string   `json:"date"`
	AvailableSlots []Slot   `json:"availableSlots"`
	BookedSlots    []string `json:"bookedSlots"`
}

// BookingRequest carries the fields a patient submits to book a slot.
type BookingRequest struct {
	PatientName     string  `json:"patientName"`
	PatientEmail    string  `json:"patientEmail"`
	DoctorID        int64   `json:"doctorId"`
	AppointmentDate string  `json:"appointmentDate"`
	AppointmentTime string  `json:"appointmentTime"`
	Symptoms        *string `json:"symptoms"`
}

// ChatSession is a patient's AI consultation. SessionID is the public,
// immutable identifier.
type ChatSession struct {
	ID                   int64     `json:"id"`
	SessionID            string    `json:"session_id"`
	PatientName          *string   `json:"patient_name"`
	PatientEmail         *string   `json:"patient_email"`
	Symptoms             *string   `json:"symptoms"`
	Diagnosis            *string   `json:"diagnosis"`
	Severity             *string   `json:"severity"`
	RecommendedSpecialty *string   `json:"recommended_specialty"`
	CreatedAt            time.Time `json:"created_at"`
}

// Analysis is the structured result of a symptom analysis. Fallback is set
// when the model could not be reached or its answer could not be parsed.
type Analysis struct {
	Diagnosis               string   `json:"diagnosis"`
	Severity                string   `json:"severity"`
	RecommendedSpecialty    string   `json:"recommendedSpecialty"`
	SymptomsAnalysis        string   `json:"symptomsAnalysis"`
	Recommendations         string   `json:"recommendations"`
	FollowUpQuestions       []string `json:"followUpQuestions"`
	UrgentAttention         bool     `json:"urgentAttention"`
	PrescriptionSuggestions []string `json:"prescriptionSuggestions"`
	LifestyleAdvice         string   `json:"lifestyleAdvice"`
	Fallback                bool     `json:"fallback"`
}

// FileRef is a client-side reference to an uploaded file, optionally with a
// description to pass on to the model.
type FileRef struct {
	OriginalName string `json:"originalName"`
	Description  string `json:"description"`
}

// UploadedFile is the metadata row of a file stored on disk.
type UploadedFile struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"session_id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	FileType     string    `json:"file_type"`
	FileSize     int64     `json:"file_size"`
	UploadPath   string    `json:"upload_path"`
	CreatedAt    time.Time `json:"created_at"`
}

// OximeterReading is one pulse-oximeter measurement. Metric fields are nil
// when the device did not send them.
type OximeterReading struct {
	ID             int64     `json:"id"`
	DeviceID       string    `json:"device_id"`
	HeartRate      *int      `json:"heart_rate"`
	SpO2           *float64  `json:"spo2"`
	IRValue        *int64    `json:"ir_value"`
	RedValue       *int64    `json:"red_value"`
	FingerDetected bool      `json:"finger_detected"`
	Timestamp      time.Time `json:"timestamp"`
	CreatedAt      time.Time `json:"created_at"`
}

// TemperatureReading is one temperature/humidity measurement.
type TemperatureReading struct {
	ID          int64     `json:"id"`
	DeviceID    string    `json:"device_id"`
	Temperature *float64  `json:"temperature"`
	Humidity    *float64  `json:"humidity"`
	Timestamp   time.Time `json:"timestamp"`
	CreatedAt   time.Time `json:"created_at"`
}

// OximeterInput is the body a device posts for one oximeter sample. Absent
// metrics stay nil.
type OximeterInput struct {
	DeviceID       string     `json:"deviceId"`
	HeartRate      *int       `json:"heartRate"`
	SpO2           *float64   `json:"spo2"`
	IRValue        *int64     `json:"irValue"`
	RedValue       *int64     `json:"redValue"`
	FingerDetected *bool      `json:"fingerDetected"`
	Timestamp      *Timestamp `json:"timestamp"`
}

// TemperatureInput is the body a device posts for one temperature sample.
type TemperatureInput struct {
	DeviceID    string     `json:"deviceId"`
	Temperature *float64   `json:"temperature"`
	Humidity    *float64   `json:"humidity"`
	Timestamp   *Timestamp `json:"timestamp"`
}

// ReadingQuery filters the recent-readings listing. Zero values mean "no
// filter"; Limit is always positive once it reaches the store.
type ReadingQuery struct {
	DeviceID string
	Limit    int
	Offset   int
	Start    *time.Time
	End      *time.Time
}

// OximeterAggregate is the raw result of the statistics query. Nil means the
// window held no value for that column.
type OximeterAggregate struct {
	AvgHeartRate  *float64
	MinHeartRate  *float64
	MaxHeartRate  *float64
	AvgSpO2       *float64
	MinSpO2       *float64
	MaxSpO2       *float64
	TotalReadings int64
	ValidReadings int64
}

// TemperatureAggregate is the raw result of the temperature statistics query.
type TemperatureAggregate struct {
	AvgTemperature *float64
	MinTemperature *float64
	MaxTemperature *float64
	AvgHumidity    *float64
	MinHumidity    *float64
	MaxHumidity    *float64
	TotalReadings  int64
}

// OximeterStats is the display form of an OximeterAggregate.
type OximeterStats struct {
	AvgHeartRate  float64 `json:"avgHeartRate"`
	MinHeartRate  float64 `json:"minHeartRate"`
	MaxHeartRate  float64 `json:"maxHeartRate"`
	AvgSpO2       float64 `json:"avgSpO2"`
	MinSpO2       float64 `json:"minSpO2"`
	MaxSpO2       float64 `json:"maxSpO2"`
	TotalReadings int64   `json:"totalReadings"`
	ValidReadings int64   `json:"validReadings"`
}

// TemperatureStats is the display form of a TemperatureAggregate.
type TemperatureStats struct {
	AvgTemperature float64 `json:"avgTemperature"`
	MinTemperature float64 `json:"minTemperature"`
	MaxTemperature float64 `json:"maxTemperature"`
	AvgHumidity    float64 `json:"avgHumidity"`
	MinHumidity    float64 `json:"minHumidity"`
	MaxHumidity    float64 `json:"maxHumidity"`
	TotalReadings  int64   `json:"totalReadings"`
}

// ReadingKind names a sensor family. It is also the prefix of feed events.
type ReadingKind string

const (
	KindOximeter    ReadingKind = "oximeter"
	KindTemperature ReadingKind = "temperature"
)

// ReadingEvent is published whenever a reading is stored. Reading holds the
// stored row as JSON.
type ReadingEvent struct {
	Kind     ReadingKind     `json:"kind"`
	DeviceID string          `json:"device_id"`
	Reading  json.RawMessage `json:"reading"`
}
