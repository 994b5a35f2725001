package appointments

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Viduth04/imax-backend/internal/apperr"
	"github.com/Viduth04/imax-backend/internal/auth"
	"github.com/Viduth04/imax-backend/internal/users"

	"github.com/google/uuid"
)

var (
	ErrSlotTaken          = errors.New("time slot already booked")
	ErrTooSoon            = errors.New("appointment date too soon")
	ErrCancelWindowPassed = errors.New("cancellation window passed")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

// minBookingLeadDays is how far ahead, in calendar days, an appointment must
// be booked. minCancelLeadDays is the owner's cancellation window.
const (
	minBookingLeadDays = 2
	minCancelLeadDays  = 1
	dateLayout         = "2006-01-02"
)

// TechnicianDirectory resolves technician accounts for assignment.
type TechnicianDirectory interface {
	GetTechnician(ctx context.Context, id string) (users.User, error)
}

type Service struct {
	store       Store
	technicians TechnicianDirectory
	now         func() time.Time
	randInt     func(n int) int
}

func NewService(store Store, technicians TechnicianDirectory) *Service {
	return &Service{
		store:       store,
		technicians: technicians,
		now:         time.Now,
		randInt:     rand.Intn,
	}
}

// WithClock overrides the service clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Book creates a pending appointment for the caller. Dates are day-granular:
// the slot must be at least two calendar days out and not already held.
func (s *Service) Book(ctx context.Context, caller auth.Claims, in NewAppointment) (Appointment, error) {
	date, err := s.validateSchedule(in.Date, in.TimeSlot, minBookingLeadDays)
	if err != nil {
		return Appointment{}, err
	}
	if !ValidIssueType(in.IssueType) {
		return Appointment{}, apperr.Newf(apperr.KindValidation, "Invalid issue type: %s", in.IssueType)
	}

	taken, err := s.store.SlotTaken(ctx, date, in.TimeSlot, "")
	if err != nil {
		return Appointment{}, err
	}
	if taken {
		return Appointment{}, apperr.Wrap(apperr.KindConflict, "Time slot is already booked", ErrSlotTaken)
	}

	seq, err := s.store.Count(ctx)
	if err != nil {
		return Appointment{}, fmt.Errorf("counting appointments: %w", err)
	}

	now := s.now()
	a := Appointment{
		ID:                uuid.NewString(),
		AppointmentNumber: s.appointmentNumber(now, seq),
		UserID:            caller.Subject,
		CustomerName:      in.CustomerName,
		CustomerEmail:     in.CustomerEmail,
		CustomerPhone:     in.CustomerPhone,
		Date:              date,
		TimeSlot:          in.TimeSlot,
		IssueType:         in.IssueType,
		IssueDescription:  in.IssueDescription,
		Status:            StatusPending,
	}
	return s.store.Create(ctx, a)
}

func (s *Service) appointmentNumber(now time.Time, seq int) string {
	return fmt.Sprintf("APT-%d-%d-%d", now.UnixMilli(), seq+1, s.randInt(1000))
}

// Get returns an appointment to its owner, the assigned technician, or an
// admin.
func (s *Service) Get(ctx context.Context, caller auth.Claims, id string) (Appointment, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if !s.canView(caller, a) {
		return Appointment{}, apperr.New(apperr.KindAccessDenied, "Access denied")
	}
	return a, nil
}

func (s *Service) canView(caller auth.Claims, a Appointment) bool {
	if caller.IsAdmin() || caller.Owns(a.UserID) {
		return true
	}
	return caller.Role == auth.RoleTechnician && a.TechnicianID != nil && *a.TechnicianID == caller.Subject
}

func (s *Service) ListForUser(ctx context.Context, caller auth.Claims) ([]Appointment, error) {
	return s.store.ListByUser(ctx, caller.Subject)
}

// ListForTechnician returns the caller's assigned appointments.
func (s *Service) ListForTechnician(ctx context.Context, caller auth.Claims, f ListFilter) ([]Appointment, int, error) {
	f.TechnicianID = caller.Subject
	return s.store.List(ctx, f)
}

func (s *Service) ListAll(ctx context.Context, f ListFilter) ([]Appointment, int, error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, 0, apperr.Newf(apperr.KindValidation, "Invalid status: %s", f.Status)
	}
	return s.store.List(ctx, f)
}

// Reschedule lets the owner move an appointment that work has not started on.
// The new slot obeys the same lead-time and availability rules as booking.
func (s *Service) Reschedule(ctx context.Context, caller auth.Claims, id string, in Reschedule) (Appointment, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if !caller.Owns(a.UserID) {
		return Appointment{}, apperr.New(apperr.KindAccessDenied, "Access denied")
	}
	if a.Status != StatusPending && a.Status != StatusConfirmed {
		return Appointment{}, apperr.Newf(apperr.KindValidation, "Cannot reschedule a %s appointment", a.Status)
	}

	date, err := s.validateSchedule(in.Date, in.TimeSlot, minBookingLeadDays)
	if err != nil {
		return Appointment{}, err
	}
	if !ValidIssueType(in.IssueType) {
		return Appointment{}, apperr.Newf(apperr.KindValidation, "Invalid issue type: %s", in.IssueType)
	}

	taken, err := s.store.SlotTaken(ctx, date, in.TimeSlot, a.ID)
	if err != nil {
		return Appointment{}, err
	}
	if taken {
		return Appointment{}, apperr.Wrap(apperr.KindConflict, "Time slot is already booked", ErrSlotTaken)
	}
	return s.store.Reschedule(ctx, id, date, in.TimeSlot, in.IssueType, in.IssueDescription)
}

// Cancel cancels an appointment. Owners must act at least one calendar day
// before the appointment date; admins may cancel any time before completion.
func (s *Service) Cancel(ctx context.Context, caller auth.Claims, id string) (Appointment, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if !caller.IsAdmin() && !caller.Owns(a.UserID) {
		return Appointment{}, apperr.New(apperr.KindAccessDenied, "Access denied")
	}
	if !CanTransition(a.Status, StatusCancelled) {
		return Appointment{}, apperr.Wrap(apperr.KindValidation,
			fmt.Sprintf("Cannot cancel a %s appointment", a.Status), ErrInvalidTransition)
	}
	if !caller.IsAdmin() && daysUntil(s.now(), a.Date) < minCancelLeadDays {
		return Appointment{}, apperr.Wrap(apperr.KindValidation,
			"Appointments must be cancelled at least 1 day in advance", ErrCancelWindowPassed)
	}
	return s.store.SetCancelled(ctx, id, s.now())
}

// AssignTechnician is an admin operation. The technician must exist and be
// active; a pending appointment moves to confirmed on assignment.
func (s *Service) AssignTechnician(ctx context.Context, id, technicianID string) (Appointment, error) {
	tech, err := s.technicians.GetTechnician(ctx, technicianID)
	if err != nil {
		return Appointment{}, err
	}
	if tech.Status != users.StatusActive {
		return Appointment{}, apperr.Newf(apperr.KindValidation, "Technician is %s", tech.Status)
	}

	a, err := s.store.Get(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if a.Status != StatusPending && a.Status != StatusConfirmed {
		return Appointment{}, apperr.Newf(apperr.KindValidation, "Cannot assign technician to a %s appointment", a.Status)
	}
	return s.store.AssignTechnician(ctx, id, technicianID)
}

// UpdateStatus applies a lifecycle change by an admin or the assigned
// technician. Completion stamps completedAt.
func (s *Service) UpdateStatus(ctx context.Context, caller auth.Claims, id string, next Status) (Appointment, error) {
	if !ValidStatus(next) {
		return Appointment{}, apperr.Newf(apperr.KindValidation, "Invalid status: %s", next)
	}
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if !caller.IsAdmin() {
		assigned := caller.Role == auth.RoleTechnician && a.TechnicianID != nil && *a.TechnicianID == caller.Subject
		if !assigned {
			return Appointment{}, apperr.New(apperr.KindAccessDenied, "Access denied")
		}
	}
	if !CanTransition(a.Status, next) {
		return Appointment{}, apperr.Wrap(apperr.KindValidation,
			fmt.Sprintf("Cannot move appointment from %s to %s", a.Status, next), ErrInvalidTransition)
	}

	switch next {
	case StatusCompleted:
		return s.store.SetCompleted(ctx, id, s.now())
	case StatusCancelled:
		return s.store.SetCancelled(ctx, id, s.now())
	default:
		return s.store.SetStatus(ctx, id, next)
	}
}

// AvailableSlots lists the time slots still free on a date.
func (s *Service) AvailableSlots(ctx context.Context, rawDate string) ([]string, error) {
	date, err := time.Parse(dateLayout, rawDate)
	if err != nil {
		return nil, apperr.Newf(apperr.KindValidation, "Invalid date: %s", rawDate)
	}
	var free []string
	for _, slot := range TimeSlots {
		taken, err := s.store.SlotTaken(ctx, date, slot, "")
		if err != nil {
			return nil, err
		}
		if !taken {
			free = append(free, slot)
		}
	}
	return free, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.store.Stats(ctx)
}

// validateSchedule parses the wire date and enforces slot validity plus the
// lead-time rule.
func (s *Service) validateSchedule(rawDate, slot string, leadDays int) (time.Time, error) {
	if !ValidTimeSlot(slot) {
		return time.Time{}, apperr.Newf(apperr.KindValidation, "Invalid time slot: %s", slot)
	}
	date, err := time.Parse(dateLayout, rawDate)
	if err != nil {
		return time.Time{}, apperr.Newf(apperr.KindValidation, "Invalid date: %s", rawDate)
	}
	if daysUntil(s.now(), date) < leadDays {
		return time.Time{}, apperr.Wrap(apperr.KindValidation,
			fmt.Sprintf("Appointments must be booked at least %d days in advance", leadDays), ErrTooSoon)
	}
	return date, nil
}

// daysUntil counts whole calendar days between now's date and the target
// date, ignoring the time of day.
func daysUntil(now, date time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	target := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return int(target.Sub(today) / (24 * time.Hour))
}
