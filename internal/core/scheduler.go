package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smartcare/pkg"
)

// SlotCapacity is the number of live bookings one doctor takes per hourly slot.
const SlotCapacity = 3

const (
	firstSlotHour = 9
	lastSlotHour  = 17
	dateLayout    = "2006-01-02"

	slotFullMessage = "This time slot is fully booked. Please choose another time."
)

// CandidateSlots returns every bookable time of a day: on the hour from
// 09:00 to 17:00 inclusive.
func CandidateSlots() []string {
	slots := make([]string, 0, lastSlotHour-firstSlotHour+1)
	for h := firstSlotHour; h <= lastSlotHour; h++ {
		slots = append(slots, fmt.Sprintf("%02d:00", h))
	}
	return slots
}

func validateDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return pkg.Validationf("Date must be in YYYY-MM-DD format")
	}
	return nil
}

func validateSlot(date, slot string) error {
	if err := validateDate(date); err != nil {
		return err
	}
	for _, c := range CandidateSlots() {
		if c == slot {
			return nil
		}
	}
	return pkg.Validationf("Time must be one of the hourly slots between 09:00 and 17:00")
}

// Scheduler owns appointment slots and bookings.
type Scheduler struct {
	Store AppointmentStore
}

// NewScheduler constructs a new Scheduler.
func NewScheduler(store AppointmentStore) *Scheduler {
	return &Scheduler{Store: store}
}

// AvailableSlots lists the slots of doctorID on date that hold fewer than
// SlotCapacity live bookings, together with the raw booked times.
func (s *Scheduler) AvailableSlots(ctx context.Context, doctorID int64, date string) (*pkg.SlotAvailability, error) {
	if date == "" {
		return nil, pkg.Validationf("Date is required")
	}
	if err := validateDate(date); err != nil {
		return nil, err
	}
	if _, err := s.Store.GetDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	booked, err := s.Store.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(booked))
	for _, t := range booked {
		counts[t]++
	}
	available := []pkg.Slot{}
	for _, t := range CandidateSlots() {
		if counts[t] < SlotCapacity {
			available = append(available, pkg.Slot{Time: t, Available: true})
		}
	}
	return &pkg.SlotAvailability{
		DoctorID:       doctorID,
		Date:           date,
		AvailableSlots: available,
		BookedSlots:    booked,
	}, nil
}

// Book creates a pending appointment if the slot still has room. The
// capacity check and the insert are one atomic step in the store.
func (s *Scheduler) Book(ctx context.Context, req pkg.BookingRequest) (*pkg.Appointment, error) {
	req.PatientName = strings.TrimSpace(req.PatientName)
	req.PatientEmail = strings.TrimSpace(req.PatientEmail)
	if req.PatientName == "" || req.PatientEmail == "" || req.DoctorID == 0 ||
		req.AppointmentDate == "" || req.AppointmentTime == "" {
		return nil, pkg.Validationf("Patient name, email, doctor ID, date, and time are required")
	}
	if err := validateSlot(req.AppointmentDate, req.AppointmentTime); err != nil {
		return nil, err
	}

	appt := &pkg.Appointment{
		PatientName:     req.PatientName,
		PatientEmail:    req.PatientEmail,
		DoctorID:        req.DoctorID,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		Symptoms:        req.Symptoms,
	}
	err := s.Store.BookSlot(ctx, appt, func(booked int) error {
		if booked >= SlotCapacity {
			return pkg.CapacityExceeded(slotFullMessage)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// Get returns one appointment with its doctor details.
func (s *Scheduler) Get(ctx context.Context, id int64) (*pkg.Appointment, error) {
	return s.Store.GetAppointment(ctx, id)
}

// ByPatient returns a patient's appointments, latest first.
func (s *Scheduler) ByPatient(ctx context.Context, email string) ([]pkg.Appointment, error) {
	return s.Store.ListAppointmentsByPatient(ctx, email)
}

// ByDoctor returns a doctor's appointments in slot order. An empty date
// means every date.
func (s *Scheduler) ByDoctor(ctx context.Context, doctorID int64, date string) ([]pkg.Appointment, error) {
	if date != "" {
		if err := validateDate(date); err != nil {
			return nil, err
		}
	}
	return s.Store.ListAppointmentsByDoctor(ctx, doctorID, date)
}

// SetStatus moves an appointment to any of the four statuses.
func (s *Scheduler) SetStatus(ctx context.Context, id int64, status pkg.AppointmentStatus) error {
	if !status.Valid() {
		return pkg.Validationf("Valid status is required (pending, confirmed, cancelled, completed)")
	}
	return s.Store.SetAppointmentStatus(ctx, id, status)
}

// Cancel marks an appointment cancelled. The row is kept and cancelling twice
// is not an error.
func (s *Scheduler) Cancel(ctx context.Context, id int64) error {
	return s.Store.SetAppointmentStatus(ctx, id, pkg.StatusCancelled)
}
