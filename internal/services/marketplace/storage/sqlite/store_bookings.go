package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/booking"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/storage"
)

const bookingColumns = `id, client_id, student_id, mission_id, description, hourly_rate, hours,
	total_amount, scheduled_at, status, cancellation_reason, cancelled_by,
	created_at, updated_at, confirmed_at, completed_at, cancelled_at`

// CreateBooking inserts one booking.
func (s *Store) CreateBooking(ctx context.Context, b booking.Booking) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("booking id is required")
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID,
		b.ClientID,
		b.StudentID,
		b.MissionID,
		b.Description,
		b.HourlyRate,
		b.Hours,
		b.TotalAmount,
		toNullMillis(b.ScheduledAt),
		string(b.Status),
		b.CancellationReason,
		b.CancelledBy,
		toMillis(b.CreatedAt),
		toMillis(b.UpdatedAt),
		toNullMillis(b.ConfirmedAt),
		toNullMillis(b.CompletedAt),
		toNullMillis(b.CancelledAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// GetBooking returns one booking by ID.
func (s *Store) GetBooking(ctx context.Context, bookingID string) (booking.Booking, error) {
	if err := s.ready(ctx); err != nil {
		return booking.Booking{}, err
	}
	return getBooking(ctx, s.sqlDB, bookingID)
}

// ListBookings returns bookings for partyID, or all bookings when empty.
func (s *Store) ListBookings(ctx context.Context, partyID string) ([]booking.Booking, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	sqlText := `SELECT ` + bookingColumns + ` FROM bookings`
	var params []any
	if partyID = strings.TrimSpace(partyID); partyID != "" {
		sqlText += ` WHERE client_id = ? OR student_id = ?`
		params = append(params, partyID, partyID)
	}
	sqlText += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.sqlDB.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("list bookings: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return out, nil
}

// UpdateBooking applies mutate to the stored booking in one transaction.
// Amounts and parties are never rewritten.
func (s *Store) UpdateBooking(ctx context.Context, bookingID string, mutate func(booking.Booking) (booking.Booking, error)) (booking.Booking, error) {
	if err := s.ready(ctx); err != nil {
		return booking.Booking{}, err
	}
	if mutate == nil {
		return booking.Booking{}, fmt.Errorf("booking mutation is required")
	}
	var updated booking.Booking
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		next, err := mutate(current)
		if err != nil {
			return err
		}
		result, err := tx.ExecContext(
			ctx,
			`UPDATE bookings
			    SET status = ?, cancellation_reason = ?, cancelled_by = ?, updated_at = ?,
			        confirmed_at = ?, completed_at = ?, cancelled_at = ?
			  WHERE id = ?`,
			string(next.Status),
			next.CancellationReason,
			next.CancelledBy,
			toMillis(next.UpdatedAt),
			toNullMillis(next.ConfirmedAt),
			toNullMillis(next.CompletedAt),
			toNullMillis(next.CancelledAt),
			current.ID,
		)
		if err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		if affected, err := result.RowsAffected(); err == nil && affected == 0 {
			return storage.ErrNotFound
		}
		updated, err = getBooking(ctx, tx, current.ID)
		return err
	})
	if err != nil {
		return booking.Booking{}, err
	}
	return updated, nil
}

func getBooking(ctx context.Context, q queryer, bookingID string) (booking.Booking, error) {
	row := q.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, strings.TrimSpace(bookingID))
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.Booking{}, storage.ErrNotFound
		}
		return booking.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func scanBooking(row rowScanner) (booking.Booking, error) {
	var (
		b                                     booking.Booking
		scheduledAt                           sql.NullInt64
		status                                string
		createdAt, updatedAt                  int64
		confirmedAt, completedAt, cancelledAt sql.NullInt64
	)
	if err := row.Scan(
		&b.ID,
		&b.ClientID,
		&b.StudentID,
		&b.MissionID,
		&b.Description,
		&b.HourlyRate,
		&b.Hours,
		&b.TotalAmount,
		&scheduledAt,
		&status,
		&b.CancellationReason,
		&b.CancelledBy,
		&createdAt,
		&updatedAt,
		&confirmedAt,
		&completedAt,
		&cancelledAt,
	); err != nil {
		return booking.Booking{}, err
	}
	b.ScheduledAt = fromNullMillis(scheduledAt)
	b.Status = booking.Status(status)
	b.CreatedAt = fromMillis(createdAt)
	b.UpdatedAt = fromMillis(updatedAt)
	b.ConfirmedAt = fromNullMillis(confirmedAt)
	b.CompletedAt = fromNullMillis(completedAt)
	b.CancelledAt = fromNullMillis(cancelledAt)
	return b, nil
}
