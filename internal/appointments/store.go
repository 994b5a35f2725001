package appointments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Viduth04/imax-backend/internal/apperr"
)

// Store is the persistence port for appointments.
type Store interface {
	Create(ctx context.Context, a Appointment) (Appointment, error)
	Get(ctx context.Context, id string) (Appointment, error)
	ListByUser(ctx context.Context, userID string) ([]Appointment, error)
	List(ctx context.Context, f ListFilter) ([]Appointment, int, error)
	Count(ctx context.Context) (int, error)
	SlotTaken(ctx context.Context, date time.Time, slot, excludeID string) (bool, error)
	Reschedule(ctx context.Context, id string, date time.Time, slot, issueType, issueDescription string) (Appointment, error)
	AssignTechnician(ctx context.Context, id, technicianID string) (Appointment, error)
	SetStatus(ctx context.Context, id string, status Status) (Appointment, error)
	SetCancelled(ctx context.Context, id string, at time.Time) (Appointment, error)
	SetCompleted(ctx context.Context, id string, at time.Time) (Appointment, error)
	Stats(ctx context.Context) (Stats, error)
}

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

const apptColumns = `id, appointment_number, user_id, customer_name, customer_email, customer_phone,
	appointment_date, time_slot, issue_type, issue_description, technician_id, status,
	cancelled_at, completed_at, created_at, updated_at`

func scanAppointment(row interface{ Scan(...any) error }) (Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.AppointmentNumber, &a.UserID, &a.CustomerName, &a.CustomerEmail,
		&a.CustomerPhone, &a.Date, &a.TimeSlot, &a.IssueType, &a.IssueDescription,
		&a.TechnicianID, &a.Status, &a.CancelledAt, &a.CompletedAt, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (c *Conf) Create(ctx context.Context, a Appointment) (Appointment, error) {
	row := c.db.QueryRowContext(ctx, `
		INSERT INTO appointments (id, appointment_number, user_id, customer_name, customer_email,
			customer_phone, appointment_date, time_slot, issue_type, issue_description, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+apptColumns,
		a.ID, a.AppointmentNumber, a.UserID, a.CustomerName, a.CustomerEmail,
		a.CustomerPhone, a.Date, a.TimeSlot, a.IssueType, a.IssueDescription, a.Status)

	created, err := scanAppointment(row)
	if err != nil {
		return Appointment{}, fmt.Errorf("inserting appointment: %w", err)
	}
	return created, nil
}

func (c *Conf) Get(ctx context.Context, id string) (Appointment, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+apptColumns+` FROM appointments WHERE id = $1`, id)
	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Appointment{}, apperr.New(apperr.KindNotFound, "Appointment not found")
	}
	if err != nil {
		return Appointment{}, fmt.Errorf("querying appointment: %w", err)
	}
	return a, nil
}

func (c *Conf) ListByUser(ctx context.Context, userID string) ([]Appointment, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT `+apptColumns+` FROM appointments WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (c *Conf) List(ctx context.Context, f ListFilter) ([]Appointment, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Date != nil {
		args = append(args, f.Date.Format("2006-01-02"))
		where += fmt.Sprintf(" AND appointment_date = $%d", len(args))
	}
	if f.TechnicianID != "" {
		args = append(args, f.TechnicianID)
		where += fmt.Sprintf(" AND technician_id = $%d", len(args))
	}

	var total int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM appointments`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting appointments: %w", err)
	}

	page, size := f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	args = append(args, size, (page-1)*size)
	query := `SELECT ` + apptColumns + ` FROM appointments` + where +
		fmt.Sprintf(" ORDER BY appointment_date, time_slot LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing appointments: %w", err)
	}
	defer rows.Close()

	out, err := collectAppointments(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (c *Conf) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting appointments: %w", err)
	}
	return n, nil
}

// SlotTaken reports whether a live appointment already holds the given date
// and time slot. Cancelled and completed appointments release their slot.
// excludeID skips the appointment being rescheduled.
func (c *Conf) SlotTaken(ctx context.Context, date time.Time, slot, excludeID string) (bool, error) {
	var taken bool
	err := c.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE appointment_date = $1 AND time_slot = $2
			  AND status NOT IN ('cancelled', 'completed')
			  AND ($3 = '' OR id::text <> $3)
		)`, date.Format("2006-01-02"), slot, excludeID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("checking slot: %w", err)
	}
	return taken, nil
}

func (c *Conf) Reschedule(ctx context.Context, id string, date time.Time, slot, issueType, issueDescription string) (Appointment, error) {
	row := c.db.QueryRowContext(ctx, `
		UPDATE appointments
		SET appointment_date = $2, time_slot = $3, issue_type = $4, issue_description = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+apptColumns, id, date, slot, issueType, issueDescription)
	return c.scanUpdated(row)
}

func (c *Conf) AssignTechnician(ctx context.Context, id, technicianID string) (Appointment, error) {
	row := c.db.QueryRowContext(ctx, `
		UPDATE appointments
		SET technician_id = $2,
		    status = CASE WHEN status = 'pending' THEN 'confirmed' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+apptColumns, id, technicianID)
	return c.scanUpdated(row)
}

func (c *Conf) SetStatus(ctx context.Context, id string, status Status) (Appointment, error) {
	row := c.db.QueryRowContext(ctx, `
		UPDATE appointments SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+apptColumns, id, status)
	return c.scanUpdated(row)
}

func (c *Conf) SetCancelled(ctx context.Context, id string, at time.Time) (Appointment, error) {
	row := c.db.QueryRowContext(ctx, `
		UPDATE appointments SET status = 'cancelled', cancelled_at = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+apptColumns, id, at)
	return c.scanUpdated(row)
}

func (c *Conf) SetCompleted(ctx context.Context, id string, at time.Time) (Appointment, error) {
	row := c.db.QueryRowContext(ctx, `
		UPDATE appointments SET status = 'completed', completed_at = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+apptColumns, id, at)
	return c.scanUpdated(row)
}

func (c *Conf) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := c.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'confirmed'),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM appointments`).
		Scan(&st.Total, &st.Pending, &st.Confirmed, &st.Completed, &st.Cancelled)
	if err != nil {
		return Stats{}, fmt.Errorf("querying appointment stats: %w", err)
	}
	return st, nil
}

func (c *Conf) scanUpdated(row *sql.Row) (Appointment, error) {
	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Appointment{}, apperr.New(apperr.KindNotFound, "Appointment not found")
	}
	if err != nil {
		return Appointment{}, fmt.Errorf("updating appointment: %w", err)
	}
	return a, nil
}

func collectAppointments(rows *sql.Rows) ([]Appointment, error) {
	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
