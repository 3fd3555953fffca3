package lifecycle

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/imranshabbir-developer/project-management/internal/platform/errors"
	"github.com/imranshabbir-developer/project-management/internal/platform/pagination"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/mission"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/storage"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/storage/filter"
)

var missionPageSize = pagination.PageSizeConfig{Default: 20, Max: 100}

// ListMissionsInput selects a page of missions.
type ListMissionsInput struct {
	// Filter is an AIP-160 expression over status, category, client_id,
	// location, budget, create_time and deadline.
	Filter    string
	Remote    *bool
	PageSize  int
	PageToken string
}

// CreateMission posts a new open mission owned by the actor.
func (c *Coordinator) CreateMission(ctx context.Context, actorID string, draft mission.Draft) (m mission.Mission, err error) {
	ctx, span := c.start(ctx, "CreateMission", attribute.String("actor.id", actorID))
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return mission.Mission{}, err
	}
	actor, err := c.actor(ctx, actorID)
	if err != nil {
		return mission.Mission{}, err
	}
	if !actor.Role.CanPostMissions() {
		return mission.Mission{}, forbidden("only customers may post missions")
	}
	missionID, err := c.generateID()
	if err != nil {
		return mission.Mission{}, err
	}
	m, err = mission.New(missionID, actor.ID, draft, c.now())
	if err != nil {
		return mission.Mission{}, err
	}
	if err := c.store.CreateMission(ctx, m); err != nil {
		return mission.Mission{}, mapStoreError(err, "mission")
	}
	return m, nil
}

// GetMission returns one mission to any registered actor.
func (c *Coordinator) GetMission(ctx context.Context, actorID, missionID string) (m mission.Mission, err error) {
	ctx, span := c.start(ctx, "GetMission", attribute.String("mission.id", missionID))
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return mission.Mission{}, err
	}
	if _, err := c.actor(ctx, actorID); err != nil {
		return mission.Mission{}, err
	}
	missionID, err = requireID("mission_id", missionID)
	if err != nil {
		return mission.Mission{}, err
	}
	m, err = c.store.GetMission(ctx, missionID)
	if err != nil {
		return mission.Mission{}, mapStoreError(err, "mission")
	}
	return m, nil
}

// ListMissions returns one page of missions, newest first.
func (c *Coordinator) ListMissions(ctx context.Context, actorID string, in ListMissionsInput) (page storage.MissionPage, err error) {
	ctx, span := c.start(ctx, "ListMissions", attribute.String("filter", in.Filter))
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return storage.MissionPage{}, err
	}
	if _, err := c.actor(ctx, actorID); err != nil {
		return storage.MissionPage{}, err
	}
	cond, err := filter.ParseMissionFilter(in.Filter)
	if err != nil {
		return storage.MissionPage{}, &apperrors.Error{
			Code:     apperrors.CodeValidation,
			Message:  "invalid filter",
			Metadata: map[string]string{"Field": "filter"},
			Cause:    err,
		}
	}
	token := strings.TrimSpace(in.PageToken)
	if token != "" {
		if _, err := pagination.DecodeCursor(token); err != nil {
			return storage.MissionPage{}, apperrors.Validation("page_token", "page token is invalid")
		}
	}
	page, err = c.store.ListMissions(ctx, storage.MissionQuery{
		Condition: cond,
		Remote:    in.Remote,
		PageSize:  pagination.ClampPageSize(in.PageSize, missionPageSize),
		PageToken: token,
	})
	if err != nil {
		return storage.MissionPage{}, mapStoreError(err, "mission")
	}
	return page, nil
}

// UpdateMission applies a field patch. Owner or admin only.
func (c *Coordinator) UpdateMission(ctx context.Context, actorID, missionID string, patch mission.Patch) (m mission.Mission, err error) {
	ctx, span := c.start(ctx, "UpdateMission", attribute.String("mission.id", missionID))
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return mission.Mission{}, err
	}
	actor, err := c.actor(ctx, actorID)
	if err != nil {
		return mission.Mission{}, err
	}
	missionID, err = requireID("mission_id", missionID)
	if err != nil {
		return mission.Mission{}, err
	}
	now := c.now()
	m, err = c.store.UpdateMission(ctx, missionID, func(current mission.Mission) (mission.Mission, error) {
		if !mission.CanMutate(current, actor.ID, actor.Role) {
			return mission.Mission{}, forbidden("only the mission owner may update it")
		}
		return mission.ApplyPatch(current, patch, now)
	})
	if err != nil {
		return mission.Mission{}, mapStoreError(err, "mission")
	}
	return m, nil
}

// ChangeMissionStatus moves a mission along its transition table. Owner or
// admin only.
func (c *Coordinator) ChangeMissionStatus(ctx context.Context, actorID, missionID, status string) (m mission.Mission, err error) {
	ctx, span := c.start(ctx, "ChangeMissionStatus",
		attribute.String("mission.id", missionID),
		attribute.String("mission.status", status),
	)
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return mission.Mission{}, err
	}
	actor, err := c.actor(ctx, actorID)
	if err != nil {
		return mission.Mission{}, err
	}
	missionID, err = requireID("mission_id", missionID)
	if err != nil {
		return mission.Mission{}, err
	}
	to, ok := mission.ParseStatus(status)
	if !ok {
		return mission.Mission{}, apperrors.Validation("status", "unknown mission status")
	}
	now := c.now()
	m, err = c.store.UpdateMission(ctx, missionID, func(current mission.Mission) (mission.Mission, error) {
		if !mission.CanMutate(current, actor.ID, actor.Role) {
			return mission.Mission{}, forbidden("only the mission owner may change its status")
		}
		return mission.Transition(current, to, now)
	})
	if err != nil {
		return mission.Mission{}, mapStoreError(err, "mission")
	}
	return m, nil
}

// DeleteMission removes a mission and its applications. Owner or admin only.
func (c *Coordinator) DeleteMission(ctx context.Context, actorID, missionID string) (err error) {
	ctx, span := c.start(ctx, "DeleteMission", attribute.String("mission.id", missionID))
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return err
	}
	actor, err := c.actor(ctx, actorID)
	if err != nil {
		return err
	}
	missionID, err = requireID("mission_id", missionID)
	if err != nil {
		return err
	}
	err = c.store.DeleteMission(ctx, missionID, func(current mission.Mission) error {
		if !mission.CanMutate(current, actor.ID, actor.Role) {
			return forbidden("only the mission owner may delete it")
		}
		return nil
	})
	return mapStoreError(err, "mission")
}
