package appointments

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// validNext is the appointment lifecycle. Work starts only on confirmed
// appointments; completed and cancelled are terminal.
var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed:  {StatusInProgress: true, StatusCompleted: true, StatusCancelled: true},
	StatusInProgress: {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// TimeSlots are the bookable service-desk hours. One appointment per slot per
// day.
var TimeSlots = []string{
	"09:00-10:00",
	"10:00-11:00",
	"11:00-12:00",
	"13:00-14:00",
	"14:00-15:00",
	"15:00-16:00",
	"16:00-17:00",
	"17:00-18:00",
}

func ValidTimeSlot(slot string) bool {
	for _, s := range TimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

var IssueTypes = []string{
	"Hardware Repair",
	"Software Issue",
	"Virus Removal",
	"Data Recovery",
	"Upgrade/Installation",
	"Network Problem",
	"Other",
}

func ValidIssueType(issue string) bool {
	for _, t := range IssueTypes {
		if t == issue {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID                string     `json:"id"`
	AppointmentNumber string     `json:"appointment_number"`
	UserID            string     `json:"user_id"`
	CustomerName      string     `json:"customer_name"`
	CustomerEmail     string     `json:"customer_email"`
	CustomerPhone     string     `json:"customer_phone"`
	Date              time.Time  `json:"date"`
	TimeSlot          string     `json:"time_slot"`
	IssueType         string     `json:"issue_type"`
	IssueDescription  string     `json:"issue_description"`
	TechnicianID      *string    `json:"technician_id,omitempty"`
	Status            Status     `json:"status"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type NewAppointment struct {
	CustomerName     string `json:"customer_name" validate:"required"`
	CustomerEmail    string `json:"customer_email" validate:"required,email"`
	CustomerPhone    string `json:"customer_phone" validate:"required"`
	Date             string `json:"date" validate:"required"`
	TimeSlot         string `json:"time_slot" validate:"required"`
	IssueType        string `json:"issue_type" validate:"required"`
	IssueDescription string `json:"issue_description" validate:"required"`
}

// Reschedule carries the fields an owner may change before work starts.
type Reschedule struct {
	Date             string `json:"date" validate:"required"`
	TimeSlot         string `json:"time_slot" validate:"required"`
	IssueType        string `json:"issue_type" validate:"required"`
	IssueDescription string `json:"issue_description" validate:"required"`
}

type ListFilter struct {
	Status       Status
	Date         *time.Time
	TechnicianID string
	Page         int
	PageSize     int
}

type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}
