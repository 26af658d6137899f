package core

import (
	"context"
	"strings"

	"smartcare/pkg"
)

// DoctorService is the doctor directory.
type DoctorService struct {
	Store DoctorStore
}

// NewDoctorService constructs a new DoctorService.
func NewDoctorService(store DoctorStore) *DoctorService {
	return &DoctorService{Store: store}
}

// List returns all doctors, best rated first and by name within a rating.
func (s *DoctorService) List(ctx context.Context) ([]pkg.Doctor, error) {
	return s.Store.ListDoctors(ctx)
}

// Get returns one doctor or a not-found error.
func (s *DoctorService) Get(ctx context.Context, id int64) (*pkg.Doctor, error) {
	return s.Store.GetDoctor(ctx, id)
}

// BySpecialty returns doctors whose specialty contains the given text,
// ignoring case.
func (s *DoctorService) BySpecialty(ctx context.Context, specialty string) ([]pkg.Doctor, error) {
	return s.Store.ListDoctorsBySpecialty(ctx, strings.TrimSpace(specialty))
}

// Specialties returns the distinct specialties, sorted.
func (s *DoctorService) Specialties(ctx context.Context) ([]string, error) {
	return s.Store.ListSpecialties(ctx)
}

// Available returns the doctors of a specialty that still have room in the
// given slot.
func (s *DoctorService) Available(ctx context.Context, specialty, date, slot string) ([]pkg.AvailableDoctor, error) {
	if date == "" || slot == "" {
		return nil, pkg.Validationf("Date and time are required")
	}
	if err := validateSlot(date, slot); err != nil {
		return nil, err
	}
	return s.Store.ListAvailableDoctors(ctx, specialty, date, slot, SlotCapacity)
}

// Create adds a doctor. Rating defaults to 0.
func (s *DoctorService) Create(ctx context.Context, d *pkg.Doctor) error {
	if err := validateDoctor(d); err != nil {
		return err
	}
	return s.Store.CreateDoctor(ctx, d)
}

// Update replaces the editable fields of doctor id.
func (s *DoctorService) Update(ctx context.Context, id int64, d *pkg.Doctor) error {
	if err := validateDoctor(d); err != nil {
		return err
	}
	d.ID = id
	return s.Store.UpdateDoctor(ctx, d)
}

// Delete removes a doctor that has no appointments.
func (s *DoctorService) Delete(ctx context.Context, id int64) error {
	return s.Store.DeleteDoctor(ctx, id)
}

func validateDoctor(d *pkg.Doctor) error {
	d.Name = strings.TrimSpace(d.Name)
	d.Specialty = strings.TrimSpace(d.Specialty)
	d.Email = strings.TrimSpace(d.Email)
	if d.Name == "" || d.Specialty == "" || d.Email == "" {
		return pkg.Validationf("Name, specialty, and email are required")
	}
	if d.Rating < 0 || d.Rating > 5 {
		return pkg.Validationf("Rating must be between 0 and 5")
	}
	return nil
}
