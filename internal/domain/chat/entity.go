package chat

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Chat represents the chats table. Messages are loaded on demand.
type Chat struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message represents chat_messages. Seq orders messages within a chat.
type Message struct {
	ID            uuid.UUID
	ChatID        uuid.UUID
	Seq           int
	Role          string
	Content       string
	AttachmentURL string
	CreatedAt     time.Time
}

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleModel
}
