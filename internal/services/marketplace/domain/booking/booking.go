// Package booking models paid engagements between a client and a student.
package booking

import (
	"math"
	"strings"
	"time"

	apperrors "github.com/imranshabbir-developer/project-management/internal/platform/errors"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/user"
)

// Status is the booking lifecycle state.
type Status string

const (
	StatusUnspecified Status = ""
	StatusPending     Status = "pending"
	StatusConfirmed   Status = "confirmed"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
)

// ParseStatus canonicalizes a booking status label.
func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, true
	case StatusConfirmed:
		return StatusConfirmed, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusCancelled, "canceled":
		return StatusCancelled, true
	default:
		return StatusUnspecified, false
	}
}

// IsTransitionAllowed enforces the booking transition whitelist.
func IsTransitionAllowed(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}

// Booking is an agreement between a client and a student.
// TotalAmount is fixed at creation.
type Booking struct {
	ID                 string
	ClientID           string
	StudentID          string
	MissionID          string
	Description        string
	HourlyRate         float64
	Hours              float64
	TotalAmount        float64
	ScheduledAt        *time.Time
	Status             Status
	CancellationReason string
	CancelledBy        string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ConfirmedAt        *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
}

// Draft holds the caller-supplied fields of a new booking.
type Draft struct {
	StudentID   string
	MissionID   string
	Description string
	HourlyRate  float64
	Hours       float64
	ScheduledAt *time.Time
}

// TotalAmount returns hourlyRate × hours rounded to cents.
func TotalAmount(hourlyRate, hours float64) float64 {
	return math.Round(hourlyRate*hours*100) / 100
}

// New validates a draft and returns a pending booking.
func New(id, clientID string, draft Draft, now time.Time) (Booking, error) {
	switch {
	case strings.TrimSpace(draft.StudentID) == "":
		return Booking{}, apperrors.Validation("student_id", "student id is required")
	case draft.StudentID == clientID:
		return Booking{}, apperrors.Validation("student_id", "client and student must differ")
	case !(draft.HourlyRate > 0) || math.IsInf(draft.HourlyRate, 0):
		return Booking{}, apperrors.Validation("hourly_rate", "hourly rate must be positive")
	case !(draft.Hours > 0) || math.IsInf(draft.Hours, 0):
		return Booking{}, apperrors.Validation("hours", "hours must be positive")
	}
	total := TotalAmount(draft.HourlyRate, draft.Hours)
	if math.IsInf(total, 0) || math.IsNaN(total) {
		return Booking{}, apperrors.Validation("hours", "hourly rate times hours is out of range")
	}
	now = now.UTC()
	var scheduled *time.Time
	if draft.ScheduledAt != nil && !draft.ScheduledAt.IsZero() {
		v := draft.ScheduledAt.UTC()
		scheduled = &v
	}
	return Booking{
		ID:          id,
		ClientID:    clientID,
		StudentID:   strings.TrimSpace(draft.StudentID),
		MissionID:   strings.TrimSpace(draft.MissionID),
		Description: strings.TrimSpace(draft.Description),
		HourlyRate:  draft.HourlyRate,
		Hours:       draft.Hours,
		TotalAmount: total,
		ScheduledAt: scheduled,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsParty reports whether userID is the client or the student.
func (b Booking) IsParty(userID string) bool {
	return userID != "" && (userID == b.ClientID || userID == b.StudentID)
}

// CanView reports whether the actor may read b.
func CanView(b Booking, actorID string, role user.Role) bool {
	return role.IsAdmin() || b.IsParty(actorID)
}

// Transition applies a status change requested by actorID.
//
// Only the student party confirms. Either party completes or cancels.
// Admins outside the booking may only cancel.
func Transition(b Booking, actorID string, role user.Role, to Status, reason string, now time.Time) (Booking, error) {
	isParty := b.IsParty(actorID)
	if !isParty && !role.IsAdmin() {
		return Booking{}, apperrors.New(apperrors.CodeForbidden, "actor is not a party to this booking")
	}
	if !IsTransitionAllowed(b.Status, to) {
		return Booking{}, apperrors.InvalidTransition("booking", string(b.Status), string(to))
	}
	if to == StatusConfirmed && actorID != b.StudentID {
		return Booking{}, apperrors.New(apperrors.CodeForbidden, "only the student may confirm a booking")
	}
	if !isParty && to != StatusCancelled {
		return Booking{}, apperrors.New(apperrors.CodeForbidden, "admins may only cancel bookings")
	}

	now = now.UTC()
	b.Status = to
	b.UpdatedAt = now
	switch to {
	case StatusConfirmed:
		b.ConfirmedAt = &now
	case StatusCompleted:
		b.CompletedAt = &now
	case StatusCancelled:
		b.CancelledAt = &now
		b.CancelledBy = actorID
		b.CancellationReason = strings.TrimSpace(reason)
	}
	return b, nil
}
