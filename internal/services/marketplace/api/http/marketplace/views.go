package marketplace

import (
	"time"

	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/application"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/booking"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/conversation"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/mission"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/user"
)

type userView struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
	CreatedAt   string `json:"created_at"`
}

type missionView struct {
	ID          string  `json:"id"`
	ClientID    string  `json:"client_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Budget      int64   `json:"budget"`
	Deadline    *string `json:"deadline,omitempty"`
	Location    string  `json:"location,omitempty"`
	IsRemote    bool    `json:"is_remote"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	CompletedAt *string `json:"completed_at,omitempty"`
	CancelledAt *string `json:"cancelled_at,omitempty"`
}

type missionPageView struct {
	Missions      []missionView `json:"missions"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

type applicationView struct {
	ID              string  `json:"id"`
	MissionID       string  `json:"mission_id"`
	StudentID       string  `json:"student_id"`
	CoverLetter     string  `json:"cover_letter"`
	Status          string  `json:"status"`
	RejectionReason string  `json:"rejection_reason,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
	AcceptedAt      *string `json:"accepted_at,omitempty"`
	RejectedAt      *string `json:"rejected_at,omitempty"`
}

type bookingView struct {
	ID                 string  `json:"id"`
	ClientID           string  `json:"client_id"`
	StudentID          string  `json:"student_id"`
	MissionID          string  `json:"mission_id,omitempty"`
	Description        string  `json:"description,omitempty"`
	HourlyRate         float64 `json:"hourly_rate"`
	Hours              float64 `json:"hours"`
	TotalAmount        float64 `json:"total_amount"`
	ScheduledAt        *string `json:"scheduled_at,omitempty"`
	Status             string  `json:"status"`
	CancellationReason string  `json:"cancellation_reason,omitempty"`
	CancelledBy        string  `json:"cancelled_by,omitempty"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
	ConfirmedAt        *string `json:"confirmed_at,omitempty"`
	CompletedAt        *string `json:"completed_at,omitempty"`
	CancelledAt        *string `json:"cancelled_at,omitempty"`
}

type conversationView struct {
	ID            string  `json:"id"`
	ClientID      string  `json:"client_id"`
	StudentID     string  `json:"student_id"`
	MissionID     string  `json:"mission_id,omitempty"`
	LastMessage   string  `json:"last_message,omitempty"`
	LastMessageAt *string `json:"last_message_at,omitempty"`
	UnreadCount   int     `json:"unread_count"`
	CreatedAt     string  `json:"created_at"`
}

type messageView struct {
	ID             string  `json:"id"`
	ConversationID string  `json:"conversation_id"`
	SenderID       string  `json:"sender_id"`
	Content        string  `json:"content"`
	ReadAt         *string `json:"read_at,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	value := formatTime(*t)
	return &value
}

func toUserView(u user.User) userView {
	return userView{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Role:        string(u.Role),
		CreatedAt:   formatTime(u.CreatedAt),
	}
}

func toMissionView(m mission.Mission) missionView {
	return missionView{
		ID:          m.ID,
		ClientID:    m.ClientID,
		Title:       m.Title,
		Description: m.Description,
		Category:    m.Category,
		Budget:      m.Budget,
		Deadline:    formatTimePtr(m.Deadline),
		Location:    m.Location,
		IsRemote:    m.IsRemote,
		Status:      string(m.Status),
		CreatedAt:   formatTime(m.CreatedAt),
		UpdatedAt:   formatTime(m.UpdatedAt),
		CompletedAt: formatTimePtr(m.CompletedAt),
		CancelledAt: formatTimePtr(m.CancelledAt),
	}
}

func toApplicationView(a application.Application) applicationView {
	return applicationView{
		ID:              a.ID,
		MissionID:       a.MissionID,
		StudentID:       a.StudentID,
		CoverLetter:     a.CoverLetter,
		Status:          string(a.Status),
		RejectionReason: a.RejectionReason,
		CreatedAt:       formatTime(a.CreatedAt),
		UpdatedAt:       formatTime(a.UpdatedAt),
		AcceptedAt:      formatTimePtr(a.AcceptedAt),
		RejectedAt:      formatTimePtr(a.RejectedAt),
	}
}

func toBookingView(b booking.Booking) bookingView {
	return bookingView{
		ID:                 b.ID,
		ClientID:           b.ClientID,
		StudentID:          b.StudentID,
		MissionID:          b.MissionID,
		Description:        b.Description,
		HourlyRate:         b.HourlyRate,
		Hours:              b.Hours,
		TotalAmount:        b.TotalAmount,
		ScheduledAt:        formatTimePtr(b.ScheduledAt),
		Status:             string(b.Status),
		CancellationReason: b.CancellationReason,
		CancelledBy:        b.CancelledBy,
		CreatedAt:          formatTime(b.CreatedAt),
		UpdatedAt:          formatTime(b.UpdatedAt),
		ConfirmedAt:        formatTimePtr(b.ConfirmedAt),
		CompletedAt:        formatTimePtr(b.CompletedAt),
		CancelledAt:        formatTimePtr(b.CancelledAt),
	}
}

func toConversationView(c conversation.Conversation) conversationView {
	return conversationView{
		ID:            c.ID,
		ClientID:      c.ClientID,
		StudentID:     c.StudentID,
		MissionID:     c.MissionID,
		LastMessage:   c.LastMessage,
		LastMessageAt: formatTimePtr(c.LastMessageAt),
		UnreadCount:   c.UnreadCount,
		CreatedAt:     formatTime(c.CreatedAt),
	}
}

func toMessageView(m conversation.Message) messageView {
	return messageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		ReadAt:         formatTimePtr(m.ReadAt),
		CreatedAt:      formatTime(m.CreatedAt),
	}
}

func mapSlice[T, V any](items []T, fn func(T) V) []V {
	out := make([]V, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
