package types

import (
	"time"

	"github.com/google/uuid"
)

// ChatMode tags which assistant surface a session belongs to.
type ChatMode string

const (
	ModeChat      ChatMode = "chat"
	ModeItinerary ChatMode = "itinerary"
	ModeLandmark  ChatMode = "landmark"
	ModePolaroid  ChatMode = "polaroid"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one conversation turn. Assistant turns may carry ranked venue
// attachments alongside the text.
type Message struct {
	ID          uuid.UUID      `json:"id"`
	Role        MessageRole    `json:"role"`
	Content     string         `json:"content"`
	Timestamp   time.Time      `json:"timestamp"`
	Attachments []RankedResult `json:"attachments,omitempty"`
}

// ChatSession holds the ordered history of one conversation. Messages are
// appended in send order; the assistant reply for message N always follows
// message N's user entry.
type ChatSession struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Mode      ChatMode  `json:"mode"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type SendMessageResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	Reply     Message   `json:"reply"`
}

type CreateSessionRequest struct {
	Mode ChatMode `json:"mode,omitempty"`
}
