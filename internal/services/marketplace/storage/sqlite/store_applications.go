package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/application"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/mission"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/storage"
)

const applicationColumns = `id, mission_id, student_id, cover_letter, status, rejection_reason,
	created_at, updated_at, accepted_at, rejected_at`

// CreateApplication inserts a after guard accepts the target mission.
// A second application for the same (mission, student) pair fails with
// storage.ErrAlreadyExists.
func (s *Store) CreateApplication(ctx context.Context, a application.Application, guard func(mission.Mission) error) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("application id is required")
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		m, err := getMission(ctx, tx, a.MissionID)
		if err != nil {
			return err
		}
		var existing int
		if err := tx.QueryRowContext(
			ctx,
			`SELECT COUNT(1) FROM applications WHERE mission_id = ? AND student_id = ?`,
			a.MissionID, a.StudentID,
		).Scan(&existing); err != nil {
			return fmt.Errorf("check application: %w", err)
		}
		if existing > 0 {
			return storage.ErrAlreadyExists
		}
		if guard != nil {
			if err := guard(m); err != nil {
				return err
			}
		}
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO applications (`+applicationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID,
			a.MissionID,
			a.StudentID,
			a.CoverLetter,
			string(a.Status),
			a.RejectionReason,
			toMillis(a.CreatedAt),
			toMillis(a.UpdatedAt),
			toNullMillis(a.AcceptedAt),
			toNullMillis(a.RejectedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return storage.ErrAlreadyExists
			}
			return fmt.Errorf("create application: %w", err)
		}
		return nil
	})
}

// GetApplication returns an application together with its mission.
func (s *Store) GetApplication(ctx context.Context, applicationID string) (application.Application, mission.Mission, error) {
	if err := s.ready(ctx); err != nil {
		return application.Application{}, mission.Mission{}, err
	}
	a, err := getApplication(ctx, s.sqlDB, applicationID)
	if err != nil {
		return application.Application{}, mission.Mission{}, err
	}
	m, err := getMission(ctx, s.sqlDB, a.MissionID)
	if err != nil {
		return application.Application{}, mission.Mission{}, err
	}
	return a, m, nil
}

// ListApplications returns applications matching query, newest first.
func (s *Store) ListApplications(ctx context.Context, query storage.ApplicationQuery) ([]application.Application, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var (
		clauses []string
		params  []any
	)
	if id := strings.TrimSpace(query.MissionID); id != "" {
		clauses = append(clauses, "a.mission_id = ?")
		params = append(params, id)
	}
	if id := strings.TrimSpace(query.StudentID); id != "" {
		clauses = append(clauses, "a.student_id = ?")
		params = append(params, id)
	}
	if id := strings.TrimSpace(query.MissionOwnerID); id != "" {
		clauses = append(clauses, "m.client_id = ?")
		params = append(params, id)
	}

	sqlText := `SELECT a.id, a.mission_id, a.student_id, a.cover_letter, a.status, a.rejection_reason,
	                   a.created_at, a.updated_at, a.accepted_at, a.rejected_at
	              FROM applications a
	              JOIN missions m ON m.id = a.mission_id`
	if len(clauses) > 0 {
		sqlText += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	sqlText += ` ORDER BY a.created_at DESC, a.id DESC`

	rows, err := s.sqlDB.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []application.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("list applications: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return out, nil
}

// UpdateApplication writes the application, and the mission when mutate
// returns one, in a single transaction.
func (s *Store) UpdateApplication(ctx context.Context, applicationID string, mutate storage.ApplicationMutation) (application.Application, mission.Mission, error) {
	if err := s.ready(ctx); err != nil {
		return application.Application{}, mission.Mission{}, err
	}
	if mutate == nil {
		return application.Application{}, mission.Mission{}, fmt.Errorf("application mutation is required")
	}
	var (
		updatedApp     application.Application
		updatedMission mission.Mission
	)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getApplication(ctx, tx, applicationID)
		if err != nil {
			return err
		}
		m, err := getMission(ctx, tx, current.MissionID)
		if err != nil {
			return err
		}
		next, nextMission, err := mutate(current, m)
		if err != nil {
			return err
		}
		next.ID = current.ID
		next.MissionID = current.MissionID
		next.StudentID = current.StudentID
		next.CreatedAt = current.CreatedAt
		if err := writeApplication(ctx, tx, next); err != nil {
			return err
		}
		if nextMission != nil {
			nextMission.ID = m.ID
			nextMission.ClientID = m.ClientID
			nextMission.CreatedAt = m.CreatedAt
			if err := writeMission(ctx, tx, *nextMission); err != nil {
				return err
			}
			m = *nextMission
		}
		updatedApp = next
		updatedMission = m
		return nil
	})
	if err != nil {
		return application.Application{}, mission.Mission{}, err
	}
	return updatedApp, updatedMission, nil
}

func getApplication(ctx context.Context, q queryer, applicationID string) (application.Application, error) {
	row := q.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, strings.TrimSpace(applicationID))
	a, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return application.Application{}, storage.ErrNotFound
		}
		return application.Application{}, fmt.Errorf("get application: %w", err)
	}
	return a, nil
}

func writeApplication(ctx context.Context, q queryer, a application.Application) error {
	result, err := q.ExecContext(
		ctx,
		`UPDATE applications
		    SET cover_letter = ?, status = ?, rejection_reason = ?, updated_at = ?,
		        accepted_at = ?, rejected_at = ?
		  WHERE id = ?`,
		a.CoverLetter,
		string(a.Status),
		a.RejectionReason,
		toMillis(a.UpdatedAt),
		toNullMillis(a.AcceptedAt),
		toNullMillis(a.RejectedAt),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanApplication(row rowScanner) (application.Application, error) {
	var (
		a                      application.Application
		status                 string
		createdAt, updatedAt   int64
		acceptedAt, rejectedAt sql.NullInt64
	)
	if err := row.Scan(
		&a.ID,
		&a.MissionID,
		&a.StudentID,
		&a.CoverLetter,
		&status,
		&a.RejectionReason,
		&createdAt,
		&updatedAt,
		&acceptedAt,
		&rejectedAt,
	); err != nil {
		return application.Application{}, err
	}
	a.Status = application.Status(status)
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updatedAt)
	a.AcceptedAt = fromNullMillis(acceptedAt)
	a.RejectedAt = fromNullMillis(rejectedAt)
	return a, nil
}
