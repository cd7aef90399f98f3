package repository

import (
	"context"

	"gemini-gateway/internal/domain/chat"
	"gemini-gateway/internal/domain/user"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)

	CreateSession(ctx context.Context, s *user.UserSession) error
	GetSessionByID(ctx context.Context, sessionID uuid.UUID) (user.UserSession, error)
	// RotateSession stores s only if the session is live and still holds
	// previousHash; otherwise it returns ErrNotFound.
	RotateSession(ctx context.Context, s user.UserSession, previousHash string) error
	RevokeSession(ctx context.Context, sessionID uuid.UUID) error
}

type ChatRepository interface {
	Create(ctx context.Context, c *chat.Chat) error
	GetByID(ctx context.Context, userID, chatID uuid.UUID) (chat.Chat, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]chat.Chat, int64, error)
	// Update renames the chat when title is non-nil and appends msgs, all or nothing.
	Update(ctx context.Context, userID, chatID uuid.UUID, title *string, msgs []chat.Message) ([]chat.Message, error)
	Delete(ctx context.Context, userID, chatID uuid.UUID) error
}
