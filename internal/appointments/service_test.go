package appointments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Viduth04/imax-backend/internal/apperr"
	"github.com/Viduth04/imax-backend/internal/auth"
	"github.com/Viduth04/imax-backend/internal/users"

	"github.com/golang-jwt/jwt/v5"
)

type fakeStore struct {
	appts map[string]Appointment
}

func newFakeStore() *fakeStore {
	return &fakeStore{appts: map[string]Appointment{}}
}

func (f *fakeStore) Create(_ context.Context, a Appointment) (Appointment, error) {
	f.appts[a.ID] = a
	return a, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (Appointment, error) {
	a, ok := f.appts[id]
	if !ok {
		return Appointment{}, apperr.New(apperr.KindNotFound, "Appointment not found")
	}
	return a, nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID string) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) List(_ context.Context, fl ListFilter) ([]Appointment, int, error) {
	var out []Appointment
	for _, a := range f.appts {
		if fl.TechnicianID != "" && (a.TechnicianID == nil || *a.TechnicianID != fl.TechnicianID) {
			continue
		}
		if fl.Status != "" && a.Status != fl.Status {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func (f *fakeStore) Count(_ context.Context) (int, error) {
	return len(f.appts), nil
}

func (f *fakeStore) SlotTaken(_ context.Context, date time.Time, slot, excludeID string) (bool, error) {
	for _, a := range f.appts {
		if a.ID == excludeID || a.Status == StatusCancelled || a.Status == StatusCompleted {
			continue
		}
		if a.Date.Equal(date) && a.TimeSlot == slot {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Reschedule(_ context.Context, id string, date time.Time, slot, issueType, issueDescription string) (Appointment, error) {
	a := f.appts[id]
	a.Date, a.TimeSlot, a.IssueType, a.IssueDescription = date, slot, issueType, issueDescription
	f.appts[id] = a
	return a, nil
}

func (f *fakeStore) AssignTechnician(_ context.Context, id, technicianID string) (Appointment, error) {
	a := f.appts[id]
	a.TechnicianID = &technicianID
	if a.Status == StatusPending {
		a.Status = StatusConfirmed
	}
	f.appts[id] = a
	return a, nil
}

func (f *fakeStore) SetStatus(_ context.Context, id string, status Status) (Appointment, error) {
	a := f.appts[id]
	a.Status = status
	f.appts[id] = a
	return a, nil
}

func (f *fakeStore) SetCancelled(_ context.Context, id string, at time.Time) (Appointment, error) {
	a := f.appts[id]
	a.Status = StatusCancelled
	a.CancelledAt = &at
	f.appts[id] = a
	return a, nil
}

func (f *fakeStore) SetCompleted(_ context.Context, id string, at time.Time) (Appointment, error) {
	a := f.appts[id]
	a.Status = StatusCompleted
	a.CompletedAt = &at
	f.appts[id] = a
	return a, nil
}

func (f *fakeStore) Stats(_ context.Context) (Stats, error) {
	return Stats{Total: len(f.appts)}, nil
}

type fakeDirectory struct {
	techs map[string]users.User
}

func (f *fakeDirectory) GetTechnician(_ context.Context, id string) (users.User, error) {
	u, ok := f.techs[id]
	if !ok {
		return users.User{}, apperr.New(apperr.KindNotFound, "Technician not found")
	}
	return u, nil
}

func claimsFor(id string, role auth.Role) auth.Claims {
	return auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: id}, Role: role}
}

// The clock is pinned to 2025-03-01 noon; lead-time cases book around it.
var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService() (*Service, *fakeStore, *fakeDirectory) {
	store := newFakeStore()
	dir := &fakeDirectory{techs: map[string]users.User{
		"t1": {ID: "t1", Role: auth.RoleTechnician, Status: users.StatusActive},
		"t2": {ID: "t2", Role: auth.RoleTechnician, Status: users.StatusInactive},
	}}
	svc := NewService(store, dir)
	svc.WithClock(func() time.Time { return testNow })
	svc.randInt = func(int) int { return 42 }
	return svc, store, dir
}

func validBooking(date string) NewAppointment {
	return NewAppointment{
		CustomerName:     "Jess Lee",
		CustomerEmail:    "jess@example.com",
		CustomerPhone:    "0771234567",
		Date:             date,
		TimeSlot:         "09:00-10:00",
		IssueType:        "Hardware Repair",
		IssueDescription: "Machine does not POST",
	}
}

func TestBookEnforcesLeadTime(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.Book(context.Background(), claimsFor("u1", auth.RoleUser), validBooking("2025-03-02")); !errors.Is(err, ErrTooSoon) {
		t.Fatalf("next-day booking: err = %v, want ErrTooSoon", err)
	}

	a, err := svc.Book(context.Background(), claimsFor("u1", auth.RoleUser), validBooking("2025-03-03"))
	if err != nil {
		t.Fatalf("two-day booking: %v", err)
	}
	if a.Status != StatusPending {
		t.Fatalf("status = %s, want pending", a.Status)
	}
	if !strings.HasPrefix(a.AppointmentNumber, "APT-") {
		t.Fatalf("appointment number = %s", a.AppointmentNumber)
	}
}

func TestBookRejectsTakenSlot(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.Book(context.Background(), claimsFor("u1", auth.RoleUser), validBooking("2025-03-05")); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, err := svc.Book(context.Background(), claimsFor("u2", auth.RoleUser), validBooking("2025-03-05")); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("second booking: err = %v, want ErrSlotTaken", err)
	}

	other := validBooking("2025-03-05")
	other.TimeSlot = "10:00-11:00"
	if _, err := svc.Book(context.Background(), claimsFor("u2", auth.RoleUser), other); err != nil {
		t.Fatalf("different slot: %v", err)
	}
}

func TestBookValidatesSlotAndIssue(t *testing.T) {
	svc, _, _ := newTestService()

	bad := validBooking("2025-03-05")
	bad.TimeSlot = "08:00-09:00"
	if _, err := svc.Book(context.Background(), claimsFor("u1", auth.RoleUser), bad); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("bad slot: err = %v, want validation error", err)
	}

	bad = validBooking("2025-03-05")
	bad.IssueType = "Exorcism"
	if _, err := svc.Book(context.Background(), claimsFor("u1", auth.RoleUser), bad); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("bad issue: err = %v, want validation error", err)
	}
}

func TestCancelWindow(t *testing.T) {
	svc, _, _ := newTestService()

	a, err := svc.Book(context.Background(), claimsFor("u1", auth.RoleUser), validBooking("2025-03-03"))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	// Day-of cancellation is too late for the owner but fine for an admin.
	svc.WithClock(func() time.Time { return time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC) })
	if _, err := svc.Cancel(context.Background(), claimsFor("u1", auth.RoleUser), a.ID); !errors.Is(err, ErrCancelWindowPassed) {
		t.Fatalf("day-of cancel: err = %v, want ErrCancelWindowPassed", err)
	}
	cancelled, err := svc.Cancel(context.Background(), claimsFor("admin", auth.RoleAdmin), a.ID)
	if err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("cancel not stamped: %+v", cancelled)
	}

	if _, err := svc.Cancel(context.Background(), claimsFor("admin", auth.RoleAdmin), a.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double cancel: err = %v, want ErrInvalidTransition", err)
	}
}

func TestCancelDayBefore(t *testing.T) {
	svc, _, _ := newTestService()

	a, _ := svc.Book(context.Background(), claimsFor("u1", auth.RoleUser), validBooking("2025-03-03"))

	svc.WithClock(func() time.Time { return time.Date(2025, 3, 2, 23, 0, 0, 0, time.UTC) })
	if _, err := svc.Cancel(context.Background(), claimsFor("u1", auth.RoleUser), a.ID); err != nil {
		t.Fatalf("day-before cancel: %v", err)
	}
}

func TestRescheduleChecksAvailability(t *testing.T) {
	svc, _, _ := newTestService()

	a, _ := svc.Book(context.Background(), claimsFor("u1", auth.RoleUser), validBooking("2025-03-03"))
	b, _ := svc.Book(context.Background(), claimsFor("u2", auth.RoleUser), validBooking("2025-03-04"))

	// Keeping its own slot is not a conflict.
	same := Reschedule{Date: "2025-03-03", TimeSlot: "09:00-10:00", IssueType: "Hardware Repair", IssueDescription: "Still broken"}
	if _, err := svc.Reschedule(context.Background(), claimsFor("u1", auth.RoleUser), a.ID, same); err != nil {
		t.Fatalf("same-slot reschedule: %v", err)
	}

	// Moving onto another live appointment is.
	conflict := Reschedule{Date: "2025-03-04", TimeSlot: "09:00-10:00", IssueType: "Hardware Repair", IssueDescription: "Still broken"}
	if _, err := svc.Reschedule(context.Background(), claimsFor("u1", auth.RoleUser), a.ID, conflict); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("conflicting reschedule: err = %v, want ErrSlotTaken", err)
	}

	if _, err := svc.Reschedule(context.Background(), claimsFor("u1", auth.RoleUser), b.ID, same); apperr.KindOf(err) != apperr.KindAccessDenied {
		t.Fatalf("foreign reschedule: err = %v, want access denied", err)
	}
}

func TestAssignTechnician(t *testing.T) {
	svc, _, _ := newTestService()

	a, _ := svc.Book(context.Background(), claimsFor("u1", auth.RoleUser), validBooking("2025-03-03"))

	if _, err := svc.AssignTechnician(context.Background(), a.ID, "t2"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("inactive technician: err = %v, want validation error", err)
	}

	assigned, err := svc.AssignTechnician(context.Background(), a.ID, "t1")
	if err != nil {
		t.Fatalf("AssignTechnician: %v", err)
	}
	if assigned.Status != StatusConfirmed {
		t.Fatalf("status = %s, want confirmed", assigned.Status)
	}
	if assigned.TechnicianID == nil || *assigned.TechnicianID != "t1" {
		t.Fatalf("technician not recorded: %+v", assigned.TechnicianID)
	}
}

func TestUpdateStatusByAssignedTechnician(t *testing.T) {
	svc, _, _ := newTestService()

	a, _ := svc.Book(context.Background(), claimsFor("u1", auth.RoleUser), validBooking("2025-03-03"))
	if _, err := svc.AssignTechnician(context.Background(), a.ID, "t1"); err != nil {
		t.Fatalf("AssignTechnician: %v", err)
	}

	tech := claimsFor("t1", auth.RoleTechnician)
	other := claimsFor("t9", auth.RoleTechnician)

	if _, err := svc.UpdateStatus(context.Background(), other, a.ID, StatusInProgress); apperr.KindOf(err) != apperr.KindAccessDenied {
		t.Fatalf("unassigned technician: err = %v, want access denied", err)
	}

	if _, err := svc.UpdateStatus(context.Background(), tech, a.ID, StatusInProgress); err != nil {
		t.Fatalf("start work: %v", err)
	}
	done, err := svc.UpdateStatus(context.Background(), tech, a.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != StatusCompleted || done.CompletedAt == nil {
		t.Fatalf("completion not stamped: %+v", done)
	}

	if _, err := svc.UpdateStatus(context.Background(), tech, a.ID, StatusInProgress); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("reopen completed: err = %v, want ErrInvalidTransition", err)
	}
}

func TestAvailableSlots(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.Book(context.Background(), claimsFor("u1", auth.RoleUser), validBooking("2025-03-05")); err != nil {
		t.Fatalf("Book: %v", err)
	}

	slots, err := svc.AvailableSlots(context.Background(), "2025-03-05")
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(slots) != len(TimeSlots)-1 {
		t.Fatalf("free slots = %d, want %d", len(slots), len(TimeSlots)-1)
	}
	for _, s := range slots {
		if s == "09:00-10:00" {
			t.Fatalf("booked slot still listed as free")
		}
	}
}
