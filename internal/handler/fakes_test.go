package handler

import (
	"context"
	"strings"
	"sync"

	"gemini-gateway/internal/domain/chat"
	"gemini-gateway/internal/domain/user"
	"gemini-gateway/internal/storage"
	gateway_errors "gemini-gateway/pkg/errors"

	"github.com/google/uuid"
)

type stubUserRepo struct {
	mu       sync.Mutex
	users    map[uuid.UUID]user.User
	sessions map[uuid.UUID]user.UserSession
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: map[uuid.UUID]user.User{}, sessions: map[uuid.UUID]user.UserSession{}}
}

func (r *stubUserRepo) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return gateway_errors.ErrAlreadyExists
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r *stubUserRepo) GetUserByID(_ context.Context, id uuid.UUID) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return user.User{}, gateway_errors.ErrNotFound
}

func (r *stubUserRepo) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, gateway_errors.ErrNotFound
}

func (r *stubUserRepo) CreateSession(_ context.Context, s *user.UserSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = *s
	return nil
}

func (r *stubUserRepo) GetSessionByID(_ context.Context, id uuid.UUID) (user.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s, nil
	}
	return user.UserSession{}, gateway_errors.ErrNotFound
}

func (r *stubUserRepo) RotateSession(_ context.Context, s user.UserSession, previousHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.sessions[s.ID]
	if !ok || current.IsRevoked || current.RefreshTokenHash != previousHash {
		return gateway_errors.ErrNotFound
	}
	current.RefreshTokenHash = s.RefreshTokenHash
	current.ExpiresAt = s.ExpiresAt
	r.sessions[s.ID] = current
	return nil
}

func (r *stubUserRepo) RevokeSession(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return gateway_errors.ErrNotFound
	}
	s.IsRevoked = true
	r.sessions[id] = s
	return nil
}

type stubChatRepo struct {
	mu    sync.Mutex
	chats map[uuid.UUID]chat.Chat
}

func newStubChatRepo() *stubChatRepo {
	return &stubChatRepo{chats: map[uuid.UUID]chat.Chat{}}
}

func (r *stubChatRepo) Create(_ context.Context, c *chat.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range c.Messages {
		c.Messages[i].ChatID = c.ID
		c.Messages[i].Seq = i
	}
	stored := *c
	stored.Messages = append([]chat.Message(nil), c.Messages...)
	r.chats[c.ID] = stored
	return nil
}

func (r *stubChatRepo) GetByID(_ context.Context, userID, chatID uuid.UUID) (chat.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok || c.UserID != userID {
		return chat.Chat{}, gateway_errors.ErrNotFound
	}
	c.Messages = append([]chat.Message(nil), c.Messages...)
	return c, nil
}

func (r *stubChatRepo) ListByUser(_ context.Context, userID uuid.UUID, page, limit int) ([]chat.Chat, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []chat.Chat
	for _, c := range r.chats {
		if c.UserID == userID {
			c.Messages = nil
			all = append(all, c)
		}
	}
	start := min((page-1)*limit, len(all))
	end := min(start+limit, len(all))
	return all[start:end], int64(len(all)), nil
}

func (r *stubChatRepo) Update(_ context.Context, userID, chatID uuid.UUID, title *string, msgs []chat.Message) ([]chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok || c.UserID != userID {
		return nil, gateway_errors.ErrNotFound
	}
	if title != nil {
		c.Title = *title
	}
	for i := range msgs {
		msgs[i].ChatID = chatID
		msgs[i].Seq = len(c.Messages) + i
	}
	c.Messages = append(c.Messages, msgs...)
	r.chats[chatID] = c
	return msgs, nil
}

func (r *stubChatRepo) Delete(_ context.Context, userID, chatID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok || c.UserID != userID {
		return gateway_errors.ErrNotFound
	}
	delete(r.chats, chatID)
	return nil
}

type stubPresigner struct{}

func (stubPresigner) PresignPut(_ context.Context, key, contentType string, _ int64) (storage.PresignedUpload, error) {
	return storage.PresignedUpload{
		URL:     "https://bucket.example.com/" + key + "?X-Amz-Signature=abc",
		Headers: map[string]string{"Content-Type": contentType},
		FileURL: "https://cdn.example.com/" + strings.TrimPrefix(key, "/"),
	}, nil
}
