package lifecycle

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/imranshabbir-developer/project-management/internal/platform/errors"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/application"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/mission"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/storage"
)

// CreateApplication submits studentID's application to an open mission.
// The store's unique (mission, student) index turns a concurrent duplicate
// into a Conflict.
func (c *Coordinator) CreateApplication(ctx context.Context, missionID, studentID, coverLetter string) (a application.Application, err error) {
	ctx, span := c.start(ctx, "CreateApplication",
		attribute.String("mission.id", missionID),
		attribute.String("student.id", studentID),
	)
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return application.Application{}, err
	}
	student, err := c.actor(ctx, studentID)
	if err != nil {
		return application.Application{}, err
	}
	if !student.Role.CanApply() {
		return application.Application{}, forbidden("only students may apply to missions")
	}
	missionID, err = requireID("mission_id", missionID)
	if err != nil {
		return application.Application{}, err
	}
	applicationID, err := c.generateID()
	if err != nil {
		return application.Application{}, err
	}
	a, err = application.New(applicationID, missionID, student.ID, coverLetter, c.now())
	if err != nil {
		return application.Application{}, err
	}

	err = c.store.CreateApplication(ctx, a, func(m mission.Mission) error {
		if m.Status != mission.StatusOpen {
			return apperrors.WithMetadata(
				apperrors.CodeInvalidTransition,
				"mission is not open for applications",
				map[string]string{"Entity": "mission", "From": string(m.Status), "To": string(mission.StatusOpen)},
			)
		}
		if m.ClientID == student.ID {
			return forbidden("cannot apply to your own mission")
		}
		return nil
	})
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// The mission lookup is the only read inside the insert that can miss.
		return application.Application{}, apperrors.NotFound("mission")
	case err != nil:
		return application.Application{}, mapStoreError(err, "application")
	}
	return a, nil
}

// DecideApplication accepts or rejects a pending application. Only the
// mission owner or an admin may decide. Accepting moves the mission to
// in_discussion in the same transaction.
func (c *Coordinator) DecideApplication(ctx context.Context, applicationID, actorID, decision, reason string) (a application.Application, err error) {
	ctx, span := c.start(ctx, "DecideApplication",
		attribute.String("application.id", applicationID),
		attribute.String("decision", decision),
	)
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return application.Application{}, err
	}
	actor, err := c.actor(ctx, actorID)
	if err != nil {
		return application.Application{}, err
	}
	applicationID, err = requireID("application_id", applicationID)
	if err != nil {
		return application.Application{}, err
	}
	verdict, ok := application.ParseDecision(decision)
	if !ok {
		return application.Application{}, apperrors.Validation("decision", "decision must be accept or reject")
	}

	now := c.now()
	a, _, err = c.store.UpdateApplication(ctx, applicationID, func(current application.Application, m mission.Mission) (application.Application, *mission.Mission, error) {
		if !mission.CanMutate(m, actor.ID, actor.Role) {
			return application.Application{}, nil, forbidden("only the mission owner may decide applications")
		}
		decided, err := application.Decide(current, verdict, reason, now)
		if err != nil {
			return application.Application{}, nil, err
		}
		if verdict != application.DecisionAccept {
			return decided, nil, nil
		}
		moved, err := mission.ForceInDiscussion(m, now)
		if err != nil {
			return application.Application{}, nil, err
		}
		return decided, &moved, nil
	})
	if err != nil {
		return application.Application{}, mapStoreError(err, "application")
	}
	return a, nil
}

// GetApplication returns an application to its applicant, the mission
// owner or an admin.
func (c *Coordinator) GetApplication(ctx context.Context, actorID, applicationID string) (a application.Application, err error) {
	ctx, span := c.start(ctx, "GetApplication", attribute.String("application.id", applicationID))
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return application.Application{}, err
	}
	actor, err := c.actor(ctx, actorID)
	if err != nil {
		return application.Application{}, err
	}
	applicationID, err = requireID("application_id", applicationID)
	if err != nil {
		return application.Application{}, err
	}
	a, m, err := c.store.GetApplication(ctx, applicationID)
	if err != nil {
		return application.Application{}, mapStoreError(err, "application")
	}
	if !application.CanView(a, m.ClientID, actor.ID, actor.Role) {
		return application.Application{}, forbidden("not allowed to view this application")
	}
	return a, nil
}

// ListApplications returns the applications visible to the actor. Students
// see their own; customers see those on missions they own.
func (c *Coordinator) ListApplications(ctx context.Context, actorID, missionID string) (apps []application.Application, err error) {
	ctx, span := c.start(ctx, "ListApplications", attribute.String("mission.id", missionID))
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return nil, err
	}
	actor, err := c.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	query := storage.ApplicationQuery{MissionID: strings.TrimSpace(missionID)}
	switch {
	case actor.Role.IsAdmin():
	case actor.Role.CanApply():
		query.StudentID = actor.ID
	default:
		if query.MissionID != "" {
			m, err := c.store.GetMission(ctx, query.MissionID)
			if err != nil {
				return nil, mapStoreError(err, "mission")
			}
			if !mission.CanMutate(m, actor.ID, actor.Role) {
				return nil, forbidden("only the mission owner may list its applications")
			}
		}
		query.MissionOwnerID = actor.ID
	}
	apps, err = c.store.ListApplications(ctx, query)
	if err != nil {
		return nil, mapStoreError(err, "application")
	}
	return apps, nil
}

// UpdateCoverLetter lets the applicant edit a pending application.
func (c *Coordinator) UpdateCoverLetter(ctx context.Context, actorID, applicationID, coverLetter string) (a application.Application, err error) {
	ctx, span := c.start(ctx, "UpdateCoverLetter", attribute.String("application.id", applicationID))
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return application.Application{}, err
	}
	actor, err := c.actor(ctx, actorID)
	if err != nil {
		return application.Application{}, err
	}
	applicationID, err = requireID("application_id", applicationID)
	if err != nil {
		return application.Application{}, err
	}
	now := c.now()
	a, _, err = c.store.UpdateApplication(ctx, applicationID, func(current application.Application, _ mission.Mission) (application.Application, *mission.Mission, error) {
		if current.StudentID != actor.ID {
			return application.Application{}, nil, forbidden("only the applicant may edit the cover letter")
		}
		edited, err := application.EditCoverLetter(current, coverLetter, now)
		return edited, nil, err
	})
	if err != nil {
		return application.Application{}, mapStoreError(err, "application")
	}
	return a, nil
}
