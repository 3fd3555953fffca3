package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/imranshabbir-developer/project-management/internal/platform/pagination"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/mission"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/storage"
)

const missionColumns = `id, client_id, title, description, category, budget, deadline,
	location, is_remote, status, created_at, updated_at, completed_at, cancelled_at`

// CreateMission inserts one mission.
func (s *Store) CreateMission(ctx context.Context, m mission.Mission) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("mission id is required")
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO missions (`+missionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.ClientID,
		m.Title,
		m.Description,
		m.Category,
		m.Budget,
		toNullMillis(m.Deadline),
		m.Location,
		boolToInt(m.IsRemote),
		string(m.Status),
		toMillis(m.CreatedAt),
		toMillis(m.UpdatedAt),
		toNullMillis(m.CompletedAt),
		toNullMillis(m.CancelledAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("create mission: %w", err)
	}
	return nil
}

// GetMission returns one mission by ID.
func (s *Store) GetMission(ctx context.Context, missionID string) (mission.Mission, error) {
	if err := s.ready(ctx); err != nil {
		return mission.Mission{}, err
	}
	return getMission(ctx, s.sqlDB, missionID)
}

func getMission(ctx context.Context, q queryer, missionID string) (mission.Mission, error) {
	row := q.QueryRowContext(ctx, `SELECT `+missionColumns+` FROM missions WHERE id = ?`, strings.TrimSpace(missionID))
	m, err := scanMission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mission.Mission{}, storage.ErrNotFound
		}
		return mission.Mission{}, fmt.Errorf("get mission: %w", err)
	}
	return m, nil
}

// ListMissions returns one page of missions ordered newest first.
func (s *Store) ListMissions(ctx context.Context, query storage.MissionQuery) (storage.MissionPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.MissionPage{}, err
	}
	if query.PageSize <= 0 {
		return storage.MissionPage{}, fmt.Errorf("page size must be greater than zero")
	}

	var (
		clauses []string
		params  []any
	)
	if !query.Condition.Empty() {
		clauses = append(clauses, query.Condition.Clause)
		params = append(params, query.Condition.Params...)
	}
	if query.Remote != nil {
		clauses = append(clauses, "is_remote = ?")
		params = append(params, boolToInt(*query.Remote))
	}
	if token := strings.TrimSpace(query.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return storage.MissionPage{}, err
		}
		millis := toMillis(cursor.CreatedAt)
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		params = append(params, millis, millis, cursor.ID)
	}

	sqlText := `SELECT ` + missionColumns + ` FROM missions`
	if len(clauses) > 0 {
		sqlText += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	sqlText += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	params = append(params, query.PageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return storage.MissionPage{}, fmt.Errorf("list missions: %w", err)
	}
	defer rows.Close()

	page := storage.MissionPage{Missions: make([]mission.Mission, 0, query.PageSize)}
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return storage.MissionPage{}, fmt.Errorf("list missions: %w", err)
		}
		page.Missions = append(page.Missions, m)
	}
	if err := rows.Err(); err != nil {
		return storage.MissionPage{}, fmt.Errorf("list missions: %w", err)
	}
	if len(page.Missions) > query.PageSize {
		last := page.Missions[query.PageSize-1]
		page.NextPageToken = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.Missions = page.Missions[:query.PageSize]
	}
	return page, nil
}

// UpdateMission applies mutate to the stored mission in one transaction.
func (s *Store) UpdateMission(ctx context.Context, missionID string, mutate func(mission.Mission) (mission.Mission, error)) (mission.Mission, error) {
	if err := s.ready(ctx); err != nil {
		return mission.Mission{}, err
	}
	if mutate == nil {
		return mission.Mission{}, fmt.Errorf("mission mutation is required")
	}
	var updated mission.Mission
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getMission(ctx, tx, missionID)
		if err != nil {
			return err
		}
		next, err := mutate(current)
		if err != nil {
			return err
		}
		next.ID = current.ID
		next.ClientID = current.ClientID
		next.CreatedAt = current.CreatedAt
		if err := writeMission(ctx, tx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return mission.Mission{}, err
	}
	return updated, nil
}

// DeleteMission removes a mission and its applications.
func (s *Store) DeleteMission(ctx context.Context, missionID string, guard func(mission.Mission) error) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getMission(ctx, tx, missionID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(current); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM applications WHERE mission_id = ?`, current.ID); err != nil {
			return fmt.Errorf("delete mission applications: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM missions WHERE id = ?`, current.ID); err != nil {
			return fmt.Errorf("delete mission: %w", err)
		}
		return nil
	})
}

func writeMission(ctx context.Context, q queryer, m mission.Mission) error {
	result, err := q.ExecContext(
		ctx,
		`UPDATE missions
		    SET title = ?, description = ?, category = ?, budget = ?, deadline = ?,
		        location = ?, is_remote = ?, status = ?, updated_at = ?,
		        completed_at = ?, cancelled_at = ?
		  WHERE id = ?`,
		m.Title,
		m.Description,
		m.Category,
		m.Budget,
		toNullMillis(m.Deadline),
		m.Location,
		boolToInt(m.IsRemote),
		string(m.Status),
		toMillis(m.UpdatedAt),
		toNullMillis(m.CompletedAt),
		toNullMillis(m.CancelledAt),
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("update mission: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanMission(row rowScanner) (mission.Mission, error) {
	var (
		m                        mission.Mission
		deadline                 sql.NullInt64
		isRemote                 int
		status                   string
		createdAt, updatedAt     int64
		completedAt, cancelledAt sql.NullInt64
	)
	if err := row.Scan(
		&m.ID,
		&m.ClientID,
		&m.Title,
		&m.Description,
		&m.Category,
		&m.Budget,
		&deadline,
		&m.Location,
		&isRemote,
		&status,
		&createdAt,
		&updatedAt,
		&completedAt,
		&cancelledAt,
	); err != nil {
		return mission.Mission{}, err
	}
	m.Deadline = fromNullMillis(deadline)
	m.IsRemote = isRemote != 0
	m.Status = mission.Status(status)
	m.CreatedAt = fromMillis(createdAt)
	m.UpdatedAt = fromMillis(updatedAt)
	m.CompletedAt = fromNullMillis(completedAt)
	m.CancelledAt = fromNullMillis(cancelledAt)
	return m, nil
}
