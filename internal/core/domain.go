package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"

	StatusConfirmed RSVPStatus = "confirmed"
	StatusDeclined  RSVPStatus = "declined"
	StatusPending   RSVPStatus = "pending"

	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	StatusCompleted TransactionStatus = "completed"
	StatusOpen      TransactionStatus = "pending"
	StatusCancelled TransactionStatus = "cancelled"
)

type (
	Role              string
	RSVPStatus        string
	TransactionType   string
	TransactionStatus string

	Member struct {
		ID        string
		FullName  string
		Email     string
		Phone     string
		Role      Role
		CreatedAt time.Time
	}

	Game struct {
		ID       string
		Date     time.Time
		Location string
		// Attendance maps member id to RSVP status; a missing key means pending.
		Attendance map[string]RSVPStatus
		CreatedAt  time.Time
	}

	Transaction struct {
		ID          string
		MemberID    string
		Type        TransactionType
		Amount      Money // always a non-negative magnitude; sign derives from Type
		Date        time.Time
		Month       string // zero-padded "MM"
		Year        int
		Description string
		Category    string
		Status      TransactionStatus
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
)

var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrUnauthorized    = errors.New("not authorized")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")

	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
)

func (m Member) IsAdmin() bool {
	return m.Role == RoleAdmin
}

// StatusFor returns the member's RSVP status, defaulting to pending when the
// attendance map has no entry for them.
func (g Game) StatusFor(memberID string) RSVPStatus {
	if s, ok := g.Attendance[memberID]; ok {
		return s
	}
	return StatusPending
}

// ValidRSVP reports whether a status may be written by a member. Pending is
// never written explicitly; it is the absence of an entry.
func ValidRSVP(s RSVPStatus) bool {
	return s == StatusConfirmed || s == StatusDeclined
}

// MonthKey formats a time's month as the zero-padded "MM" key stored on
// transactions.
func MonthKey(t time.Time) string {
	m := strconv.Itoa(int(t.Month()))
	if len(m) == 1 {
		m = "0" + m
	}
	return m
}

func (t Transaction) Validate() error {
	switch t.Type {
	case Income, Expense:
	default:
		return ErrInvalidType
	}
	switch t.Status {
	case StatusCompleted, StatusOpen, StatusCancelled:
	default:
		return ErrInvalidStatus
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(t.Month) != 2 {
		return ErrInvalidMonth
	}
	if m, err := strconv.Atoi(t.Month); err != nil || m < 1 || m > 12 {
		return ErrInvalidMonth
	}
	if t.Year < 2000 || t.Year > 2200 {
		return errors.New("invalid year")
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (m Member) Validate() error {
	if strings.TrimSpace(m.FullName) == "" {
		return errors.New("empty full name")
	}
	if !strings.Contains(m.Email, "@") {
		return errors.New("invalid email")
	}
	switch m.Role {
	case RoleUser, RoleAdmin:
		return nil
	default:
		return errors.New("invalid role")
	}
}
