package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/conversation"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/storage"
)

const conversationColumns = `id, client_id, student_id, mission_id, last_message, last_message_at, created_at`

// GetOrCreateConversation inserts c unless its (client, student, mission)
// triple already exists, then returns the stored row. The boolean reports
// whether c was inserted.
func (s *Store) GetOrCreateConversation(ctx context.Context, c conversation.Conversation) (conversation.Conversation, bool, error) {
	if err := s.ready(ctx); err != nil {
		return conversation.Conversation{}, false, err
	}
	if strings.TrimSpace(c.ID) == "" {
		return conversation.Conversation{}, false, fmt.Errorf("conversation id is required")
	}
	var (
		stored  conversation.Conversation
		created bool
	)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(
			ctx,
			`INSERT INTO conversations (id, client_id, student_id, mission_id, last_message, created_at)
			 VALUES (?, ?, ?, ?, '', ?)
			 ON CONFLICT (client_id, student_id, mission_id) DO NOTHING`,
			c.ID,
			c.ClientID,
			c.StudentID,
			c.MissionID,
			toMillis(c.CreatedAt),
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return storage.ErrNotFound
			}
			return fmt.Errorf("create conversation: %w", err)
		}
		if affected, err := result.RowsAffected(); err == nil && affected == 1 {
			created = true
		}
		row := tx.QueryRowContext(
			ctx,
			`SELECT `+conversationColumns+` FROM conversations
			  WHERE client_id = ? AND student_id = ? AND mission_id = ?`,
			c.ClientID,
			c.StudentID,
			c.MissionID,
		)
		stored, err = scanConversation(row)
		if err != nil {
			return fmt.Errorf("get conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return conversation.Conversation{}, false, err
	}
	return stored, created, nil
}

// GetConversation returns one conversation by ID.
func (s *Store) GetConversation(ctx context.Context, conversationID string) (conversation.Conversation, error) {
	if err := s.ready(ctx); err != nil {
		return conversation.Conversation{}, err
	}
	return getConversation(ctx, s.sqlDB, conversationID)
}

// ListConversations returns userID's conversations with unread counts.
func (s *Store) ListConversations(ctx context.Context, userID string) ([]conversation.Conversation, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT c.id, c.client_id, c.student_id, c.mission_id, c.last_message, c.last_message_at, c.created_at,
		        (SELECT COUNT(*) FROM messages m
		          WHERE m.conversation_id = c.id AND m.sender_id != ? AND m.read_at IS NULL)
		   FROM conversations c
		  WHERE c.client_id = ? OR c.student_id = ?
		  ORDER BY COALESCE(c.last_message_at, c.created_at) DESC, c.id DESC`,
		userID,
		userID,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []conversation.Conversation
	for rows.Next() {
		var (
			c             conversation.Conversation
			lastMessageAt sql.NullInt64
			createdAt     int64
		)
		if err := rows.Scan(
			&c.ID,
			&c.ClientID,
			&c.StudentID,
			&c.MissionID,
			&c.LastMessage,
			&lastMessageAt,
			&createdAt,
			&c.UnreadCount,
		); err != nil {
			return nil, fmt.Errorf("list conversations: %w", err)
		}
		c.LastMessageAt = fromNullMillis(lastMessageAt)
		c.CreatedAt = fromMillis(createdAt)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return out, nil
}

// AppendMessage inserts msg and updates the conversation projection in one
// transaction. last_message_at never moves backwards.
func (s *Store) AppendMessage(ctx context.Context, msg conversation.Message, guard func(conversation.Conversation) error) (conversation.Conversation, error) {
	if err := s.ready(ctx); err != nil {
		return conversation.Conversation{}, err
	}
	if strings.TrimSpace(msg.ID) == "" {
		return conversation.Conversation{}, fmt.Errorf("message id is required")
	}
	var updated conversation.Conversation
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getConversation(ctx, tx, msg.ConversationID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(current); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO messages (id, conversation_id, sender_id, content, read_at, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			msg.ID,
			current.ID,
			msg.SenderID,
			msg.Content,
			toNullMillis(msg.ReadAt),
			toMillis(msg.CreatedAt),
		); err != nil {
			if isUniqueViolation(err) {
				return storage.ErrAlreadyExists
			}
			return fmt.Errorf("insert message: %w", err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE conversations
			    SET last_message = ?,
			        last_message_at = MAX(COALESCE(last_message_at, 0), ?)
			  WHERE id = ?`,
			msg.Content,
			toMillis(msg.CreatedAt),
			current.ID,
		); err != nil {
			return fmt.Errorf("update conversation summary: %w", err)
		}
		updated, err = getConversation(ctx, tx, current.ID)
		return err
	})
	if err != nil {
		return conversation.Conversation{}, err
	}
	return updated, nil
}

// ReadMessages marks the reader's incoming messages as read and returns the
// whole thread oldest first.
func (s *Store) ReadMessages(ctx context.Context, conversationID, readerID string, readAt time.Time, guard func(conversation.Conversation) error) ([]conversation.Message, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var out []conversation.Message
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getConversation(ctx, tx, conversationID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(current); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE messages SET read_at = ?
			  WHERE conversation_id = ? AND sender_id != ? AND read_at IS NULL`,
			toMillis(readAt),
			current.ID,
			readerID,
		); err != nil {
			return fmt.Errorf("mark messages read: %w", err)
		}
		rows, err := tx.QueryContext(
			ctx,
			`SELECT id, conversation_id, sender_id, content, read_at, created_at
			   FROM messages
			  WHERE conversation_id = ?
			  ORDER BY created_at ASC, rowid ASC`,
			current.ID,
		)
		if err != nil {
			return fmt.Errorf("list messages: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				msg       conversation.Message
				readAtCol sql.NullInt64
				createdAt int64
			)
			if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &readAtCol, &createdAt); err != nil {
				return fmt.Errorf("list messages: %w", err)
			}
			msg.ReadAt = fromNullMillis(readAtCol)
			msg.CreatedAt = fromMillis(createdAt)
			out = append(out, msg)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("list messages: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func getConversation(ctx context.Context, q queryer, conversationID string) (conversation.Conversation, error) {
	row := q.QueryRowContext(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, strings.TrimSpace(conversationID))
	c, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return conversation.Conversation{}, storage.ErrNotFound
		}
		return conversation.Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

func scanConversation(row rowScanner) (conversation.Conversation, error) {
	var (
		c             conversation.Conversation
		lastMessageAt sql.NullInt64
		createdAt     int64
	)
	if err := row.Scan(&c.ID, &c.ClientID, &c.StudentID, &c.MissionID, &c.LastMessage, &lastMessageAt, &createdAt); err != nil {
		return conversation.Conversation{}, err
	}
	c.LastMessageAt = fromNullMillis(lastMessageAt)
	c.CreatedAt = fromMillis(createdAt)
	return c, nil
}
