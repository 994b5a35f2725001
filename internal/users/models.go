package users

import (
	"time"

	"github.com/Viduth04/imax-backend/internal/auth"
)

const (
	StatusActive          = "active"
	StatusInactive        = "inactive"
	StatusPendingDeletion = "pending-deletion"
)

// Specializations a technician account may carry.
var Specializations = []string{
	"Hardware Repair", "Software Issues", "Network Problems",
	"Data Recovery", "Virus Removal", "General Maintenance",
}

func ValidSpecialization(s string) bool {
	for _, v := range Specializations {
		if v == s {
			return true
		}
	}
	return false
}

type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           auth.Role `json:"role"`
	Status         string    `json:"status"`
	Phone          string    `json:"phone,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	Experience     int       `json:"experience,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type NewUser struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type NewTechnician struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
	Phone          string `json:"phone" validate:"required"`
	Specialization string `json:"specialization" validate:"required"`
	Experience     int    `json:"experience" validate:"min=0"`
}
