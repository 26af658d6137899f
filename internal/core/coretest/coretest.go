// Package coretest provides in-memory fakes of the core collaborators for
// tests of core and of the packages built on it.
package coretest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"smartcare/internal/llm"
	"smartcare/pkg"
)

// Store is an in-memory store. BookSlot holds the store lock across the
// check and the insert, like the row lock of the real repository.
type Store struct {
	mu sync.Mutex

	nextID   int64
	doctors  map[int64]*pkg.Doctor
	appts    []*pkg.Appointment
	sessions map[string]*pkg.ChatSession
	files    []*pkg.UploadedFile
	oximeter []*pkg.OximeterReading
	temps    []*pkg.TemperatureReading

	OxAgg     pkg.OximeterAggregate
	TempAgg   pkg.TemperatureAggregate
	AggDevice string
	AggSince  time.Time
	AggUntil  time.Time
	LastQuery pkg.ReadingQuery
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		doctors:  map[int64]*pkg.Doctor{},
		sessions: map[string]*pkg.ChatSession{},
	}
}

func (m *Store) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *Store) AddDoctor(name, specialty string) *pkg.Doctor {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := &pkg.Doctor{ID: m.id(), Name: name, Specialty: specialty, Email: strings.ToLower(strings.ReplaceAll(name, " ", "")) + "@example.com"}
	m.doctors[d.ID] = d
	return d
}

func (m *Store) AddSession(id string) *pkg.ChatSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &pkg.ChatSession{ID: m.id(), SessionID: id, CreatedAt: time.Now()}
	m.sessions[id] = s
	return s
}

func (m *Store) liveCount(doctorID int64, date, slot string) int {
	n := 0
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.AppointmentDate == date && a.AppointmentTime == slot && a.Status != pkg.StatusCancelled {
			n++
		}
	}
	return n
}

// DoctorStore

func (m *Store) ListDoctors(ctx context.Context) ([]pkg.Doctor, error) {
	return m.ListDoctorsBySpecialty(ctx, "")
}

func (m *Store) ListDoctorsBySpecialty(_ context.Context, specialty string) ([]pkg.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []pkg.Doctor{}
	for _, d := range m.doctors {
		if strings.Contains(strings.ToLower(d.Specialty), strings.ToLower(specialty)) {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *Store) GetDoctor(_ context.Context, id int64) (*pkg.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[id]
	if !ok {
		return nil, pkg.NotFound("Doctor")
	}
	cp := *d
	return &cp, nil
}

func (m *Store) ListSpecialties(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	out := []string{}
	for _, d := range m.doctors {
		if !seen[d.Specialty] {
			seen[d.Specialty] = true
			out = append(out, d.Specialty)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Store) ListAvailableDoctors(ctx context.Context, specialty, date, slot string, capacity int) ([]pkg.AvailableDoctor, error) {
	doctors, _ := m.ListDoctorsBySpecialty(ctx, specialty)
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []pkg.AvailableDoctor{}
	for _, d := range doctors {
		if n := m.liveCount(d.ID, date, slot); n < capacity {
			out = append(out, pkg.AvailableDoctor{Doctor: d, AppointmentCount: n})
		}
	}
	return out, nil
}

func (m *Store) CreateDoctor(_ context.Context, d *pkg.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.doctors {
		if o.Email == d.Email {
			return pkg.Validationf("Doctor with this email already exists")
		}
	}
	d.ID = m.id()
	cp := *d
	m.doctors[d.ID] = &cp
	return nil
}

func (m *Store) UpdateDoctor(_ context.Context, d *pkg.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.doctors[d.ID]; !ok {
		return pkg.NotFound("Doctor")
	}
	cp := *d
	m.doctors[d.ID] = &cp
	return nil
}

func (m *Store) DeleteDoctor(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.doctors[id]; !ok {
		return pkg.NotFound("Doctor")
	}
	for _, a := range m.appts {
		if a.DoctorID == id {
			return pkg.Validationf("Doctor has appointments and cannot be deleted")
		}
	}
	delete(m.doctors, id)
	return nil
}

// AppointmentStore

func (m *Store) BookedTimes(_ context.Context, doctorID int64, date string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []string{}
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.AppointmentDate == date && a.Status != pkg.StatusCancelled {
			out = append(out, a.AppointmentTime)
		}
	}
	return out, nil
}

func (m *Store) BookSlot(_ context.Context, appt *pkg.Appointment, check func(booked int) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[appt.DoctorID]
	if !ok {
		return pkg.NotFound("Doctor")
	}
	if err := check(m.liveCount(appt.DoctorID, appt.AppointmentDate, appt.AppointmentTime)); err != nil {
		return err
	}
	appt.ID = m.id()
	appt.Status = pkg.StatusPending
	appt.CreatedAt = time.Now()
	appt.DoctorName, appt.Specialty, appt.DoctorEmail, appt.DoctorPhone = d.Name, d.Specialty, d.Email, d.Phone
	cp := *appt
	m.appts = append(m.appts, &cp)
	return nil
}

func (m *Store) GetAppointment(_ context.Context, id int64) (*pkg.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appts {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, pkg.NotFound("Appointment")
}

func (m *Store) ListAppointmentsByPatient(_ context.Context, email string) ([]pkg.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []pkg.Appointment{}
	for _, a := range m.appts {
		if a.PatientEmail == email {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *Store) ListAppointmentsByDoctor(_ context.Context, doctorID int64, date string) ([]pkg.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []pkg.Appointment{}
	for _, a := range m.appts {
		if a.DoctorID == doctorID && (date == "" || a.AppointmentDate == date) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *Store) SetAppointmentStatus(_ context.Context, id int64, status pkg.AppointmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appts {
		if a.ID == id {
			a.Status = status
			return nil
		}
	}
	return pkg.NotFound("Appointment")
}

// SessionStore and FileStore

func (m *Store) CreateSession(_ context.Context, name, email *string) (*pkg.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	s := &pkg.ChatSession{ID: id, SessionID: fmt.Sprintf("sess-%d", id), PatientName: name, PatientEmail: email}
	m.sessions[s.SessionID] = s
	cp := *s
	return &cp, nil
}

func (m *Store) GetSession(_ context.Context, sessionID string) (*pkg.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, pkg.NotFound("Session")
	}
	cp := *s
	return &cp, nil
}

func (m *Store) ListSessionsByEmail(_ context.Context, email string) ([]pkg.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []pkg.ChatSession{}
	for _, s := range m.sessions {
		if s.PatientEmail != nil && *s.PatientEmail == email {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *Store) SaveAnalysis(_ context.Context, sessionID, symptoms string, a *pkg.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return pkg.NotFound("Session")
	}
	s.Symptoms, s.Diagnosis, s.Severity, s.RecommendedSpecialty = &symptoms, &a.Diagnosis, &a.Severity, &a.RecommendedSpecialty
	return nil
}

func (m *Store) CreateFile(_ context.Context, f *pkg.UploadedFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.ID = m.id()
	cp := *f
	m.files = append(m.files, &cp)
	return nil
}

func (m *Store) ListFiles(_ context.Context, sessionID string) ([]pkg.UploadedFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []pkg.UploadedFile{}
	for _, f := range m.files {
		if f.SessionID == sessionID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *Store) GetFile(_ context.Context, id int64) (*pkg.UploadedFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.files {
		if f.ID == id {
			cp := *f
			return &cp, nil
		}
	}
	return nil, pkg.NotFound("File")
}

func (m *Store) DeleteFile(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, f := range m.files {
		if f.ID == id {
			m.files = append(m.files[:i], m.files[i+1:]...)
			return nil
		}
	}
	return pkg.NotFound("File")
}

// ReadingStore

func (m *Store) InsertOximeter(_ context.Context, o *pkg.OximeterReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.id()
	o.CreatedAt = time.Now()
	cp := *o
	m.oximeter = append(m.oximeter, &cp)
	return nil
}

func (m *Store) LatestOximeter(_ context.Context, deviceID string) (*pkg.OximeterReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.oximeter) - 1; i >= 0; i-- {
		if deviceID == "" || m.oximeter[i].DeviceID == deviceID {
			cp := *m.oximeter[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Store) ListOximeter(_ context.Context, q pkg.ReadingQuery) ([]pkg.OximeterReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastQuery = q
	out := []pkg.OximeterReading{}
	for _, o := range m.oximeter {
		out = append(out, *o)
	}
	return out, nil
}

func (m *Store) OximeterAggregate(_ context.Context, deviceID string, since, until time.Time) (*pkg.OximeterAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AggDevice, m.AggSince, m.AggUntil = deviceID, since, until
	a := m.OxAgg
	return &a, nil
}

func (m *Store) DeleteOximeter(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, o := range m.oximeter {
		if o.ID == id {
			m.oximeter = append(m.oximeter[:i], m.oximeter[i+1:]...)
			return nil
		}
	}
	return pkg.NotFound("Reading")
}

func (m *Store) InsertTemperature(_ context.Context, t *pkg.TemperatureReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.id()
	t.CreatedAt = time.Now()
	cp := *t
	m.temps = append(m.temps, &cp)
	return nil
}

func (m *Store) LatestTemperature(_ context.Context, deviceID string) (*pkg.TemperatureReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.temps) - 1; i >= 0; i-- {
		if deviceID == "" || m.temps[i].DeviceID == deviceID {
			cp := *m.temps[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Store) ListTemperature(_ context.Context, q pkg.ReadingQuery) ([]pkg.TemperatureReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastQuery = q
	out := []pkg.TemperatureReading{}
	for _, t := range m.temps {
		out = append(out, *t)
	}
	return out, nil
}

func (m *Store) TemperatureAggregate(_ context.Context, deviceID string, since, until time.Time) (*pkg.TemperatureAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AggDevice, m.AggSince, m.AggUntil = deviceID, since, until
	a := m.TempAgg
	return &a, nil
}

func (m *Store) DeleteTemperature(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.temps {
		if t.ID == id {
			m.temps = append(m.temps[:i], m.temps[i+1:]...)
			return nil
		}
	}
	return pkg.NotFound("Reading")
}

// MockLLM is a function-field llm.Client.
type MockLLM struct {
	ChatFunc func(ctx context.Context, messages []llm.Message) (string, error)
	Calls    [][]llm.Message
}

func (m *MockLLM) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	m.Calls = append(m.Calls, messages)
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, messages)
	}
	return "", errors.New("ChatFunc not implemented in mock")
}

func Replying(reply string) *MockLLM {
	return &MockLLM{ChatFunc: func(context.Context, []llm.Message) (string, error) { return reply, nil }}
}

// Blobs is an in-memory BlobStorage.
type Blobs struct {
	mu      sync.Mutex
	Data    map[string][]byte
	SaveErr error
}

func NewBlobs() *Blobs { return &Blobs{Data: map[string][]byte{}} }

func (b *Blobs) Save(name string, r io.Reader) (int64, error) {
	if b.SaveErr != nil {
		return 0, b.SaveErr
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Data[name] = buf.Bytes()
	return n, nil
}

func (b *Blobs) Remove(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.Data, name)
	return nil
}

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	Events []pkg.ReadingEvent
	Err    error
}

func (p *Publisher) Notify(_ context.Context, ev pkg.ReadingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, ev)
	return p.Err
}
