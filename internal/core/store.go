package core

import (
	"context"
	"io"
	"time"

	"smartcare/pkg"
)

// The services depend on these narrow interfaces rather than on
// *db.Repository, which satisfies all of them.

type DoctorStore interface {
	ListDoctors(ctx context.Context) ([]pkg.Doctor, error)
	ListDoctorsBySpecialty(ctx context.Context, specialty string) ([]pkg.Doctor, error)
	GetDoctor(ctx context.Context, id int64) (*pkg.Doctor, error)
	ListSpecialties(ctx context.Context) ([]string, error)
	ListAvailableDoctors(ctx context.Context, specialty, date, slot string, capacity int) ([]pkg.AvailableDoctor, error)
	CreateDoctor(ctx context.Context, d *pkg.Doctor) error
	UpdateDoctor(ctx context.Context, d *pkg.Doctor) error
	DeleteDoctor(ctx context.Context, id int64) error
}

type AppointmentStore interface {
	GetDoctor(ctx context.Context, id int64) (*pkg.Doctor, error)
	BookedTimes(ctx context.Context, doctorID int64, date string) ([]string, error)
	// BookSlot must run check and the insert atomically with respect to other
	// bookings of the same doctor.
	BookSlot(ctx context.Context, appt *pkg.Appointment, check func(booked int) error) error
	GetAppointment(ctx context.Context, id int64) (*pkg.Appointment, error)
	ListAppointmentsByPatient(ctx context.Context, email string) ([]pkg.Appointment, error)
	ListAppointmentsByDoctor(ctx context.Context, doctorID int64, date string) ([]pkg.Appointment, error)
	SetAppointmentStatus(ctx context.Context, id int64, status pkg.AppointmentStatus) error
}

type SessionStore interface {
	CreateSession(ctx context.Context, patientName, patientEmail *string) (*pkg.ChatSession, error)
	GetSession(ctx context.Context, sessionID string) (*pkg.ChatSession, error)
	ListSessionsByEmail(ctx context.Context, email string) ([]pkg.ChatSession, error)
	SaveAnalysis(ctx context.Context, sessionID, symptoms string, a *pkg.Analysis) error
	ListFiles(ctx context.Context, sessionID string) ([]pkg.UploadedFile, error)
}

type FileStore interface {
	GetSession(ctx context.Context, sessionID string) (*pkg.ChatSession, error)
	CreateFile(ctx context.Context, f *pkg.UploadedFile) error
	ListFiles(ctx context.Context, sessionID string) ([]pkg.UploadedFile, error)
	GetFile(ctx context.Context, id int64) (*pkg.UploadedFile, error)
	DeleteFile(ctx context.Context, id int64) error
}

// BlobStorage keeps the bytes of uploaded files.
type BlobStorage interface {
	Save(name string, r io.Reader) (int64, error)
	Remove(name string) error
}

type ReadingStore interface {
	InsertOximeter(ctx context.Context, o *pkg.OximeterReading) error
	LatestOximeter(ctx context.Context, deviceID string) (*pkg.OximeterReading, error)
	ListOximeter(ctx context.Context, q pkg.ReadingQuery) ([]pkg.OximeterReading, error)
	OximeterAggregate(ctx context.Context, deviceID string, since, until time.Time) (*pkg.OximeterAggregate, error)
	DeleteOximeter(ctx context.Context, id int64) error

	InsertTemperature(ctx context.Context, t *pkg.TemperatureReading) error
	LatestTemperature(ctx context.Context, deviceID string) (*pkg.TemperatureReading, error)
	ListTemperature(ctx context.Context, q pkg.ReadingQuery) ([]pkg.TemperatureReading, error)
	TemperatureAggregate(ctx context.Context, deviceID string, since, until time.Time) (*pkg.TemperatureAggregate, error)
	DeleteTemperature(ctx context.Context, id int64) error
}

// Publisher announces stored readings to live-feed listeners.
type Publisher interface {
	Notify(ctx context.Context, ev pkg.ReadingEvent) error
}
