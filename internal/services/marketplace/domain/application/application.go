// Package application models a student's request to work on a mission.
package application

import (
	"strings"
	"time"

	apperrors "github.com/imranshabbir-developer/project-management/internal/platform/errors"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/user"
)

// MaxCoverLetterRunes bounds the cover letter length.
const MaxCoverLetterRunes = 5000

// Status is the application decision state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Decision is the mission owner's verdict on a pending application.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// ParseDecision canonicalizes a decision label.
func ParseDecision(value string) (Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "accept", "accepted":
		return DecisionAccept, true
	case "reject", "rejected":
		return DecisionReject, true
	default:
		return "", false
	}
}

// Application links a student to a mission. At most one exists per
// (mission, student) pair.
type Application struct {
	ID              string
	MissionID       string
	StudentID       string
	CoverLetter     string
	Status          Status
	RejectionReason string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	AcceptedAt      *time.Time
	RejectedAt      *time.Time
}

// New returns a pending application.
func New(id, missionID, studentID, coverLetter string, now time.Time) (Application, error) {
	coverLetter = strings.TrimSpace(coverLetter)
	if err := validateCoverLetter(coverLetter); err != nil {
		return Application{}, err
	}
	now = now.UTC()
	return Application{
		ID:          id,
		MissionID:   missionID,
		StudentID:   studentID,
		CoverLetter: coverLetter,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Decide applies the decision to a pending application.
func Decide(a Application, decision Decision, reason string, now time.Time) (Application, error) {
	var to Status
	switch decision {
	case DecisionAccept:
		to = StatusAccepted
	case DecisionReject:
		to = StatusRejected
	default:
		return Application{}, apperrors.Validation("decision", "decision must be accept or reject")
	}
	if a.Status != StatusPending {
		return Application{}, apperrors.InvalidTransition("application", string(a.Status), string(to))
	}
	now = now.UTC()
	a.Status = to
	a.UpdatedAt = now
	if to == StatusAccepted {
		a.AcceptedAt = &now
	} else {
		a.RejectedAt = &now
		a.RejectionReason = strings.TrimSpace(reason)
	}
	return a, nil
}

// EditCoverLetter replaces the cover letter while the application is pending.
func EditCoverLetter(a Application, coverLetter string, now time.Time) (Application, error) {
	coverLetter = strings.TrimSpace(coverLetter)
	if err := validateCoverLetter(coverLetter); err != nil {
		return Application{}, err
	}
	if a.Status != StatusPending {
		return Application{}, apperrors.WithMetadata(
			apperrors.CodeInvalidTransition,
			"cover letter can only change while pending",
			map[string]string{"Entity": "application", "From": string(a.Status), "To": string(a.Status)},
		)
	}
	a.CoverLetter = coverLetter
	a.UpdatedAt = now.UTC()
	return a, nil
}

// CanView reports whether the actor may read a.
// missionOwnerID is the client_id of the mission a belongs to.
func CanView(a Application, missionOwnerID, actorID string, role user.Role) bool {
	if role.IsAdmin() {
		return true
	}
	return actorID != "" && (a.StudentID == actorID || missionOwnerID == actorID)
}

func validateCoverLetter(coverLetter string) error {
	if coverLetter == "" {
		return apperrors.Validation("cover_letter", "cover letter is required")
	}
	if len([]rune(coverLetter)) > MaxCoverLetterRunes {
		return apperrors.Validation("cover_letter", "cover letter is too long")
	}
	return nil
}
