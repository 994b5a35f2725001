package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Viduth04/imax-backend/internal/apperr"
	"github.com/Viduth04/imax-backend/internal/auth"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

const userColumns = `id, name, email, role, status, phone, specialization, experience, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Status, &u.Phone,
		&u.Specialization, &u.Experience, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// InsertUser creates a regular user account with a bcrypt password hash.
func (c *Conf) InsertUser(ctx context.Context, nu NewUser, role auth.Role) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	var exists bool
	err = c.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, nu.Email).Scan(&exists)
	if err != nil {
		return User{}, fmt.Errorf("checking email: %w", err)
	}
	if exists {
		return User{}, apperr.Wrap(apperr.KindValidation, "User already exists", ErrEmailTaken)
	}

	row := c.db.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, status)
		VALUES ($1, $2, $3, $4, $5, 'active')
		RETURNING `+userColumns,
		uuid.NewString(), nu.Name, nu.Email, string(hash), role)

	u, err := scanUser(row)
	if err != nil {
		return User{}, fmt.Errorf("inserting user: %w", err)
	}
	return u, nil
}

// Authenticate verifies email/password and account status, returning the
// user on success.
func (c *Conf) Authenticate(ctx context.Context, email, password string) (User, error) {
	var u User
	var hash string
	row := c.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`, password_hash FROM users WHERE email = $1`, email)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Status, &u.Phone,
		&u.Specialization, &u.Experience, &u.CreatedAt, &u.UpdatedAt, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, apperr.Wrap(apperr.KindValidation, "Invalid credentials", ErrInvalidCredentials)
	}
	if err != nil {
		return User{}, fmt.Errorf("querying user: %w", err)
	}

	if u.Role == auth.RoleTechnician && u.Status == StatusPendingDeletion {
		return User{}, apperr.New(apperr.KindAccessDenied, "Deletion pending. Contact admin.")
	}
	if u.Status == StatusInactive {
		return User{}, apperr.New(apperr.KindAccessDenied, "Account deactivated. Contact admin.")
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, apperr.Wrap(apperr.KindValidation, "Invalid credentials", ErrInvalidCredentials)
	}
	return u, nil
}

func (c *Conf) GetByID(ctx context.Context, id string) (User, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, apperr.New(apperr.KindNotFound, "User not found")
	}
	if err != nil {
		return User{}, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// InsertTechnician creates a technician account (admin operation).
func (c *Conf) InsertTechnician(ctx context.Context, nt NewTechnician) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(nt.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	var exists bool
	err = c.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, nt.Email).Scan(&exists)
	if err != nil {
		return User{}, fmt.Errorf("checking email: %w", err)
	}
	if exists {
		return User{}, apperr.Wrap(apperr.KindValidation, "Email already registered", ErrEmailTaken)
	}

	row := c.db.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, status, phone, specialization, experience)
		VALUES ($1, $2, $3, $4, 'technician', 'active', $5, $6, $7)
		RETURNING `+userColumns,
		uuid.NewString(), nt.Name, nt.Email, string(hash), nt.Phone, nt.Specialization, nt.Experience)

	u, err := scanUser(row)
	if err != nil {
		return User{}, fmt.Errorf("inserting technician: %w", err)
	}
	return u, nil
}

// GetTechnician fetches a user only when it carries the technician role.
func (c *Conf) GetTechnician(ctx context.Context, id string) (User, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1 AND role = 'technician'`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, apperr.New(apperr.KindNotFound, "Technician not found")
	}
	if err != nil {
		return User{}, fmt.Errorf("querying technician: %w", err)
	}
	return u, nil
}

// ListTechnicians returns technician accounts, optionally filtered by status
// and specialization.
func (c *Conf) ListTechnicians(ctx context.Context, status, specialization string) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = 'technician'`
	args := []any{}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if specialization != "" {
		args = append(args, specialization)
		query += fmt.Sprintf(" AND specialization = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing technicians: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning technician: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateTechnicianStatus flips a technician between active and inactive.
func (c *Conf) UpdateTechnicianStatus(ctx context.Context, id, status string) (User, error) {
	if status != StatusActive && status != StatusInactive {
		return User{}, apperr.Newf(apperr.KindValidation, "Invalid status: %s", status)
	}
	row := c.db.QueryRowContext(ctx, `
		UPDATE users SET status = $2, updated_at = NOW()
		WHERE id = $1 AND role = 'technician'
		RETURNING `+userColumns, id, status)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, apperr.New(apperr.KindNotFound, "Technician not found")
	}
	if err != nil {
		return User{}, fmt.Errorf("updating technician status: %w", err)
	}
	return u, nil
}
