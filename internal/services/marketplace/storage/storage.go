// Package storage defines persistence contracts for marketplace state.
//
// Operations that must read, check and write as one unit take a callback
// that runs inside the store's transaction. Callbacks must not block or
// call back into the store.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/application"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/booking"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/conversation"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/mission"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/user"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/storage/filter"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// UserStore persists marketplace identities.
type UserStore interface {
	PutUser(ctx context.Context, u user.User) error
	GetUser(ctx context.Context, userID string) (user.User, error)
}

// MissionQuery selects one page of missions, newest first.
type MissionQuery struct {
	Condition filter.SQLCondition
	// Remote restricts to remote (true) or on-site (false) missions when set.
	Remote    *bool
	PageSize  int
	PageToken string
}

// MissionPage is one page of missions.
type MissionPage struct {
	Missions      []mission.Mission
	NextPageToken string
}

// MissionStore persists missions.
type MissionStore interface {
	CreateMission(ctx context.Context, m mission.Mission) error
	GetMission(ctx context.Context, missionID string) (mission.Mission, error)
	ListMissions(ctx context.Context, query MissionQuery) (MissionPage, error)
	// UpdateMission loads the mission, applies mutate and writes the result
	// in one transaction.
	UpdateMission(ctx context.Context, missionID string, mutate func(mission.Mission) (mission.Mission, error)) (mission.Mission, error)
	// DeleteMission removes the mission and its applications after guard
	// accepts the stored mission.
	DeleteMission(ctx context.Context, missionID string, guard func(mission.Mission) error) error
}

// ApplicationQuery filters application listings. Empty fields match all.
type ApplicationQuery struct {
	MissionID      string
	StudentID      string
	MissionOwnerID string
}

// ApplicationMutation returns the updated application and, when the
// mission must change too, the updated mission.
type ApplicationMutation func(application.Application, mission.Mission) (application.Application, *mission.Mission, error)

// ApplicationStore persists applications. The (mission, student) pair is
// unique: a second insert fails with ErrAlreadyExists.
type ApplicationStore interface {
	// CreateApplication inserts a after guard accepts the target mission.
	// An existing (mission, student) application fails with ErrAlreadyExists
	// before guard runs.
	CreateApplication(ctx context.Context, a application.Application, guard func(mission.Mission) error) error
	GetApplication(ctx context.Context, applicationID string) (application.Application, mission.Mission, error)
	ListApplications(ctx context.Context, query ApplicationQuery) ([]application.Application, error)
	// UpdateApplication writes the application and optional mission change
	// returned by mutate in one transaction.
	UpdateApplication(ctx context.Context, applicationID string, mutate ApplicationMutation) (application.Application, mission.Mission, error)
}

// BookingStore persists bookings.
type BookingStore interface {
	CreateBooking(ctx context.Context, b booking.Booking) error
	GetBooking(ctx context.Context, bookingID string) (booking.Booking, error)
	// ListBookings returns bookings where partyID is client or student,
	// or every booking when partyID is empty.
	ListBookings(ctx context.Context, partyID string) ([]booking.Booking, error)
	UpdateBooking(ctx context.Context, bookingID string, mutate func(booking.Booking) (booking.Booking, error)) (booking.Booking, error)
}

// ConversationStore persists conversations and their messages.
type ConversationStore interface {
	// GetOrCreateConversation returns the conversation for the
	// (client, student, mission) triple of c, inserting c if none exists.
	GetOrCreateConversation(ctx context.Context, c conversation.Conversation) (conversation.Conversation, bool, error)
	GetConversation(ctx context.Context, conversationID string) (conversation.Conversation, error)
	// ListConversations returns userID's conversations with their unread
	// counts, most recent activity first.
	ListConversations(ctx context.Context, userID string) ([]conversation.Conversation, error)
	// AppendMessage inserts msg and advances the conversation's
	// last_message projection in one transaction, after guard accepts the
	// stored conversation.
	AppendMessage(ctx context.Context, msg conversation.Message, guard func(conversation.Conversation) error) (conversation.Conversation, error)
	// ReadMessages marks messages not sent by readerID as read at readAt and
	// returns the thread oldest first, after guard accepts the conversation.
	ReadMessages(ctx context.Context, conversationID, readerID string, readAt time.Time, guard func(conversation.Conversation) error) ([]conversation.Message, error)
}

// Store is the full marketplace persistence contract.
type Store interface {
	UserStore
	MissionStore
	ApplicationStore
	BookingStore
	ConversationStore
}
