// Package conversation models message threads between a client and a
// student, optionally scoped to a mission.
package conversation

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/imranshabbir-developer/project-management/internal/platform/errors"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/user"
)

// MaxContentRunes bounds a single message body.
const MaxContentRunes = 5000

// Conversation is unique per (ClientID, StudentID, MissionID). MissionID is
// empty when the thread is not tied to a mission.
//
// LastMessage and LastMessageAt are a projection of the newest message,
// updated in the same transaction as every message insert.
type Conversation struct {
	ID            string
	ClientID      string
	StudentID     string
	MissionID     string
	LastMessage   string
	LastMessageAt *time.Time
	CreatedAt     time.Time
	// UnreadCount is computed per reader when listing.
	UnreadCount int
}

// Message belongs to exactly one conversation. ReadAt is set once the
// recipient fetches the thread.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	Content        string
	ReadAt         *time.Time
	CreatedAt      time.Time
}

// Parties identifies both sides of a conversation.
type Parties struct {
	ClientID  string
	StudentID string
}

// ResolveParties maps the caller and the counterpart onto client and
// student sides using the caller's role.
func ResolveParties(actorID string, actorRole user.Role, counterpartID string) (Parties, error) {
	counterpartID = strings.TrimSpace(counterpartID)
	if counterpartID == "" {
		return Parties{}, apperrors.Validation("counterpart_id", "counterpart id is required")
	}
	if counterpartID == actorID {
		return Parties{}, apperrors.Validation("counterpart_id", "cannot open a conversation with yourself")
	}
	switch actorRole {
	case user.RoleStudent:
		return Parties{ClientID: counterpartID, StudentID: actorID}, nil
	case user.RoleCustomer:
		return Parties{ClientID: actorID, StudentID: counterpartID}, nil
	default:
		return Parties{}, apperrors.New(apperrors.CodeForbidden, "only students and customers hold conversations")
	}
}

// CounterpartRole is the role the other side must hold.
func CounterpartRole(actorRole user.Role) user.Role {
	if actorRole == user.RoleStudent {
		return user.RoleCustomer
	}
	return user.RoleStudent
}

// IsParty reports whether userID is one of the two participants.
func (c Conversation) IsParty(userID string) bool {
	return userID != "" && (userID == c.ClientID || userID == c.StudentID)
}

// NewMessage validates content and returns an unread message.
func NewMessage(id, conversationID, senderID, content string, now time.Time) (Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Message{}, apperrors.Validation("content", "message content is required")
	}
	if utf8.RuneCountInString(content) > MaxContentRunes {
		return Message{}, apperrors.Validation("content", "message content is too long")
	}
	return Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      now.UTC(),
	}, nil
}
