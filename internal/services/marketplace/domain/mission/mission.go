// Package mission models posted jobs and their lifecycle.
package mission

import (
	"strings"
	"time"

	apperrors "github.com/imranshabbir-developer/project-management/internal/platform/errors"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/user"
)

// Status describes where a mission is in its lifecycle.
type Status string

const (
	StatusUnspecified  Status = ""
	StatusOpen         Status = "open"
	StatusInDiscussion Status = "in_discussion"
	StatusInProgress   Status = "in_progress"
	StatusCompleted    Status = "completed"
	StatusCancelled    Status = "cancelled"
)

// ParseStatus canonicalizes a mission status label.
func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusOpen:
		return StatusOpen, true
	case StatusInDiscussion:
		return StatusInDiscussion, true
	case StatusInProgress:
		return StatusInProgress, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusCancelled, "canceled":
		return StatusCancelled, true
	default:
		return StatusUnspecified, false
	}
}

// IsTerminal reports whether no further transitions leave s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsTransitionAllowed enforces the mission transition table.
func IsTransitionAllowed(from, to Status) bool {
	switch from {
	case StatusOpen:
		return to == StatusInDiscussion || to == StatusCancelled
	case StatusInDiscussion:
		return to == StatusOpen || to == StatusInProgress || to == StatusCancelled
	case StatusInProgress:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}

// Mission is a job posted by a customer.
type Mission struct {
	ID          string
	ClientID    string
	Title       string
	Description string
	Category    string
	Budget      int64
	Deadline    *time.Time
	Location    string
	IsRemote    bool
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// Draft holds the caller-supplied fields of a new mission.
type Draft struct {
	Title       string
	Description string
	Category    string
	Budget      int64
	Deadline    *time.Time
	Location    string
	IsRemote    bool
}

// Patch holds optional field updates. Nil fields are left unchanged.
type Patch struct {
	Title       *string
	Description *string
	Category    *string
	Budget      *int64
	Deadline    *time.Time
	Location    *string
	IsRemote    *bool
}

// New validates a draft and returns an open mission owned by clientID.
func New(id, clientID string, draft Draft, now time.Time) (Mission, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Description = strings.TrimSpace(draft.Description)
	draft.Category = strings.TrimSpace(draft.Category)
	if err := validateFields(draft.Title, draft.Description, draft.Category, draft.Budget); err != nil {
		return Mission{}, err
	}
	now = now.UTC()
	return Mission{
		ID:          id,
		ClientID:    clientID,
		Title:       draft.Title,
		Description: draft.Description,
		Category:    draft.Category,
		Budget:      draft.Budget,
		Deadline:    utcPtr(draft.Deadline),
		Location:    strings.TrimSpace(draft.Location),
		IsRemote:    draft.IsRemote,
		Status:      StatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ApplyPatch returns m with the patch applied and revalidated.
func ApplyPatch(m Mission, patch Patch, now time.Time) (Mission, error) {
	if patch.Title != nil {
		m.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		m.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Category != nil {
		m.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Budget != nil {
		m.Budget = *patch.Budget
	}
	if patch.Deadline != nil {
		m.Deadline = utcPtr(patch.Deadline)
	}
	if patch.Location != nil {
		m.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.IsRemote != nil {
		m.IsRemote = *patch.IsRemote
	}
	if err := validateFields(m.Title, m.Description, m.Category, m.Budget); err != nil {
		return Mission{}, err
	}
	m.UpdatedAt = now.UTC()
	return m, nil
}

// Transition moves m to status to and stamps the matching timestamp.
func Transition(m Mission, to Status, now time.Time) (Mission, error) {
	if !IsTransitionAllowed(m.Status, to) {
		return Mission{}, apperrors.InvalidTransition("mission", string(m.Status), string(to))
	}
	return stamp(m, to, now), nil
}

// ForceInDiscussion is the side effect of accepting an application: the
// mission moves to in_discussion from any non-terminal status.
func ForceInDiscussion(m Mission, now time.Time) (Mission, error) {
	if m.Status.IsTerminal() {
		return Mission{}, apperrors.InvalidTransition("mission", string(m.Status), string(StatusInDiscussion))
	}
	return stamp(m, StatusInDiscussion, now), nil
}

func stamp(m Mission, to Status, now time.Time) Mission {
	now = now.UTC()
	m.Status = to
	m.UpdatedAt = now
	switch to {
	case StatusCompleted:
		m.CompletedAt = &now
	case StatusCancelled:
		m.CancelledAt = &now
	}
	return m
}

// CanMutate reports whether the actor may update, transition or delete m.
func CanMutate(m Mission, actorID string, role user.Role) bool {
	return role.IsAdmin() || (actorID != "" && m.ClientID == actorID)
}

func validateFields(title, description, category string, budget int64) error {
	switch {
	case title == "":
		return apperrors.Validation("title", "title is required")
	case description == "":
		return apperrors.Validation("description", "description is required")
	case category == "":
		return apperrors.Validation("category", "category is required")
	case budget < 0:
		return apperrors.Validation("budget", "budget must not be negative")
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}
