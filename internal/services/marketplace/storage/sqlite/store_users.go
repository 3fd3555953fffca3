package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/user"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/storage"
)

// PutUser inserts a user. Users are never updated because role is fixed.
func (s *Store) PutUser(ctx context.Context, u user.User) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("user role is invalid: %q", u.Role)
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO users (id, display_name, email, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID,
		u.DisplayName,
		u.Email,
		string(u.Role),
		toMillis(u.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// GetUser fetches a user record by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (user.User, error) {
	if err := s.ready(ctx); err != nil {
		return user.User{}, err
	}
	return getUser(ctx, s.sqlDB, userID)
}

func getUser(ctx context.Context, q queryer, userID string) (user.User, error) {
	row := q.QueryRowContext(
		ctx,
		`SELECT id, display_name, email, role, created_at FROM users WHERE id = ?`,
		strings.TrimSpace(userID),
	)
	var (
		u         user.User
		role      string
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.DisplayName, &u.Email, &role, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, storage.ErrNotFound
		}
		return user.User{}, fmt.Errorf("get user: %w", err)
	}
	u.Role = user.Role(role)
	u.CreatedAt = fromMillis(createdAt)
	return u, nil
}
