package lifecycle

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/imranshabbir-developer/project-management/internal/platform/errors"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/conversation"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/user"
)

// GetOrCreateConversation returns the conversation for the caller, the
// counterpart and the optional mission, creating it on first use. A
// student supplies the client id and a customer the student id.
func (c *Coordinator) GetOrCreateConversation(ctx context.Context, actorID string, actorRole user.Role, counterpartID, missionID string) (conv conversation.Conversation, err error) {
	ctx, span := c.start(ctx, "GetOrCreateConversation",
		attribute.String("actor.id", actorID),
		attribute.String("mission.id", missionID),
	)
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return conversation.Conversation{}, err
	}
	actor, err := c.actor(ctx, actorID)
	if err != nil {
		return conversation.Conversation{}, err
	}
	if actorRole != user.RoleUnspecified && actorRole != actor.Role {
		return conversation.Conversation{}, forbidden("claimed role does not match the registered role")
	}
	parties, err := conversation.ResolveParties(actor.ID, actor.Role, counterpartID)
	if err != nil {
		return conversation.Conversation{}, err
	}
	counterpart, err := c.store.GetUser(ctx, strings.TrimSpace(counterpartID))
	if err != nil {
		return conversation.Conversation{}, mapStoreError(err, "user")
	}
	if counterpart.Role != conversation.CounterpartRole(actor.Role) {
		return conversation.Conversation{}, apperrors.Validation("counterpart_id", "counterpart has the wrong role")
	}
	missionID = strings.TrimSpace(missionID)
	if missionID != "" {
		if _, err := c.store.GetMission(ctx, missionID); err != nil {
			return conversation.Conversation{}, mapStoreError(err, "mission")
		}
	}

	conversationID, err := c.generateID()
	if err != nil {
		return conversation.Conversation{}, err
	}
	conv, _, err = c.store.GetOrCreateConversation(ctx, conversation.Conversation{
		ID:        conversationID,
		ClientID:  parties.ClientID,
		StudentID: parties.StudentID,
		MissionID: missionID,
		CreatedAt: c.now(),
	})
	if err != nil {
		return conversation.Conversation{}, mapStoreError(err, "conversation")
	}
	return conv, nil
}

// PostMessage appends a message from a party and advances the
// conversation's last_message projection in the same transaction.
func (c *Coordinator) PostMessage(ctx context.Context, conversationID, actorID, content string) (msg conversation.Message, err error) {
	ctx, span := c.start(ctx, "PostMessage", attribute.String("conversation.id", conversationID))
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return conversation.Message{}, err
	}
	actor, err := c.actor(ctx, actorID)
	if err != nil {
		return conversation.Message{}, err
	}
	conversationID, err = requireID("conversation_id", conversationID)
	if err != nil {
		return conversation.Message{}, err
	}
	messageID, err := c.generateID()
	if err != nil {
		return conversation.Message{}, err
	}
	msg, err = conversation.NewMessage(messageID, conversationID, actor.ID, content, c.now())
	if err != nil {
		return conversation.Message{}, err
	}
	if _, err := c.store.AppendMessage(ctx, msg, partyGuard(actor.ID)); err != nil {
		return conversation.Message{}, mapStoreError(err, "conversation")
	}
	return msg, nil
}

// ListMessages returns the thread oldest first and marks every message
// not sent by the actor as read.
func (c *Coordinator) ListMessages(ctx context.Context, conversationID, actorID string) (msgs []conversation.Message, err error) {
	ctx, span := c.start(ctx, "ListMessages", attribute.String("conversation.id", conversationID))
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return nil, err
	}
	actor, err := c.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	conversationID, err = requireID("conversation_id", conversationID)
	if err != nil {
		return nil, err
	}
	msgs, err = c.store.ReadMessages(ctx, conversationID, actor.ID, c.now(), partyGuard(actor.ID))
	if err != nil {
		return nil, mapStoreError(err, "conversation")
	}
	return msgs, nil
}

// ListConversations returns the actor's conversations with unread counts.
func (c *Coordinator) ListConversations(ctx context.Context, actorID string) (list []conversation.Conversation, err error) {
	ctx, span := c.start(ctx, "ListConversations")
	defer func() { finish(span, err) }()
	if err := c.ready(); err != nil {
		return nil, err
	}
	actor, err := c.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	list, err = c.store.ListConversations(ctx, actor.ID)
	if err != nil {
		return nil, mapStoreError(err, "conversation")
	}
	return list, nil
}

func partyGuard(actorID string) func(conversation.Conversation) error {
	return func(conv conversation.Conversation) error {
		if !conv.IsParty(actorID) {
			return forbidden("not a party to this conversation")
		}
		return nil
	}
}
