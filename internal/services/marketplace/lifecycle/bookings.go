package lifecycle

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/imranshabbir-developer/project-management/internal/platform/errors"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/booking"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/mission"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/user"
)

// CreateBooking opens a pending booking between the customer actor and a
// student. The total amount is fixed here and never recomputed.
func (c *Coordinator) CreateBooking(ctx context.Context, actorID string, draft booking.Draft) (b booking.Booking, err error) {
	ctx, span := c.start(ctx, "CreateBooking", attribute.String("actor.id", actorID))
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return booking.Booking{}, err
	}
	client, err := c.actor(ctx, actorID)
	if err != nil {
		return booking.Booking{}, err
	}
	if !client.Role.CanBook() {
		return booking.Booking{}, forbidden("only customers may create bookings")
	}
	studentID, err := requireID("student_id", draft.StudentID)
	if err != nil {
		return booking.Booking{}, err
	}
	student, err := c.store.GetUser(ctx, studentID)
	if err != nil {
		return booking.Booking{}, mapStoreError(err, "student")
	}
	if student.Role != user.RoleStudent {
		return booking.Booking{}, apperrors.Validation("student_id", "counterpart must be a student")
	}
	if missionID := strings.TrimSpace(draft.MissionID); missionID != "" {
		m, err := c.store.GetMission(ctx, missionID)
		if err != nil {
			return booking.Booking{}, mapStoreError(err, "mission")
		}
		if !mission.CanMutate(m, client.ID, client.Role) {
			return booking.Booking{}, forbidden("bookings can only reference your own missions")
		}
	}

	bookingID, err := c.generateID()
	if err != nil {
		return booking.Booking{}, err
	}
	b, err = booking.New(bookingID, client.ID, draft, c.now())
	if err != nil {
		return booking.Booking{}, err
	}
	if err := c.store.CreateBooking(ctx, b); err != nil {
		return booking.Booking{}, mapStoreError(err, "booking")
	}
	return b, nil
}

// TransitionBooking applies a status change under the booking transition
// table. Only the student confirms; either party completes or cancels;
// admins may cancel.
func (c *Coordinator) TransitionBooking(ctx context.Context, bookingID, actorID, newStatus, reason string) (b booking.Booking, err error) {
	ctx, span := c.start(ctx, "TransitionBooking",
		attribute.String("booking.id", bookingID),
		attribute.String("booking.status", newStatus),
	)
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return booking.Booking{}, err
	}
	actor, err := c.actor(ctx, actorID)
	if err != nil {
		return booking.Booking{}, err
	}
	bookingID, err = requireID("booking_id", bookingID)
	if err != nil {
		return booking.Booking{}, err
	}
	to, ok := booking.ParseStatus(newStatus)
	if !ok {
		return booking.Booking{}, apperrors.Validation("status", "unknown booking status")
	}
	now := c.now()
	b, err = c.store.UpdateBooking(ctx, bookingID, func(current booking.Booking) (booking.Booking, error) {
		return booking.Transition(current, actor.ID, actor.Role, to, reason, now)
	})
	if err != nil {
		return booking.Booking{}, mapStoreError(err, "booking")
	}
	return b, nil
}

// GetBooking returns a booking to its parties or an admin.
func (c *Coordinator) GetBooking(ctx context.Context, actorID, bookingID string) (b booking.Booking, err error) {
	ctx, span := c.start(ctx, "GetBooking", attribute.String("booking.id", bookingID))
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return booking.Booking{}, err
	}
	actor, err := c.actor(ctx, actorID)
	if err != nil {
		return booking.Booking{}, err
	}
	bookingID, err = requireID("booking_id", bookingID)
	if err != nil {
		return booking.Booking{}, err
	}
	b, err = c.store.GetBooking(ctx, bookingID)
	if err != nil {
		return booking.Booking{}, mapStoreError(err, "booking")
	}
	if !booking.CanView(b, actor.ID, actor.Role) {
		return booking.Booking{}, forbidden("not a party to this booking")
	}
	return b, nil
}

// ListBookings returns the actor's bookings, or every booking for admins.
func (c *Coordinator) ListBookings(ctx context.Context, actorID string) (list []booking.Booking, err error) {
	ctx, span := c.start(ctx, "ListBookings")
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return nil, err
	}
	actor, err := c.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	partyID := actor.ID
	if actor.Role.IsAdmin() {
		partyID = ""
	}
	list, err = c.store.ListBookings(ctx, partyID)
	if err != nil {
		return nil, mapStoreError(err, "booking")
	}
	return list, nil
}
