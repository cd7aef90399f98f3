package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"gemini-gateway/internal/domain/chat"
	"gemini-gateway/internal/repository"
	gateway_errors "gemini-gateway/pkg/errors"

	"github.com/google/uuid"
)

const (
	maxTitleRunes    = 60
	defaultPageLimit = 20
	maxPageLimit     = 100
	untitledChat     = "New chat"

	// keeps (page-1)*limit far from overflowing the OFFSET
	maxPage = 1_000_000
)

type ChatService struct {
	repo repository.ChatRepository
	now  func() time.Time
}

func NewChatService(repo repository.ChatRepository) *ChatService {
	return &ChatService{repo: repo, now: time.Now}
}

type MessageInput struct {
	Role          string
	Content       string
	AttachmentURL string
}

type CreateChatInput struct {
	UserID   uuid.UUID
	Title    string
	Messages []MessageInput
}

type UpdateChatInput struct {
	UserID   uuid.UUID
	ChatID   uuid.UUID
	Title    *string
	Messages []MessageInput
}

type ChatPage struct {
	Chats []chat.Chat
	Total int64
	Page  int
	Limit int
}

func (s *ChatService) Create(ctx context.Context, in CreateChatInput) (chat.Chat, error) {
	if in.UserID == uuid.Nil || len(in.Messages) == 0 {
		return chat.Chat{}, gateway_errors.ErrInvalidInput
	}
	now := s.now().UTC()
	msgs, err := s.buildMessages(in.Messages, now)
	if err != nil {
		return chat.Chat{}, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = deriveTitle(msgs)
	}

	c := chat.Chat{
		ID:        uuid.New(),
		UserID:    in.UserID,
		Title:     truncateRunes(title, maxTitleRunes),
		Messages:  msgs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, &c); err != nil {
		return chat.Chat{}, err
	}
	return c, nil
}

func (s *ChatService) Get(ctx context.Context, userID, chatID uuid.UUID) (chat.Chat, error) {
	if userID == uuid.Nil || chatID == uuid.Nil {
		return chat.Chat{}, gateway_errors.ErrInvalidInput
	}
	return s.repo.GetByID(ctx, userID, chatID)
}

func (s *ChatService) List(ctx context.Context, userID uuid.UUID, page, limit int) (ChatPage, error) {
	if userID == uuid.Nil {
		return ChatPage{}, gateway_errors.ErrInvalidInput
	}
	page, limit = normalizePage(page, limit)
	chats, total, err := s.repo.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return ChatPage{}, err
	}
	return ChatPage{Chats: chats, Total: total, Page: page, Limit: limit}, nil
}

// Update renames the chat and/or appends messages, then returns the full chat.
func (s *ChatService) Update(ctx context.Context, in UpdateChatInput) (chat.Chat, error) {
	if in.UserID == uuid.Nil || in.ChatID == uuid.Nil {
		return chat.Chat{}, gateway_errors.ErrInvalidInput
	}
	if in.Title == nil && len(in.Messages) == 0 {
		return chat.Chat{}, gateway_errors.ErrInvalidInput
	}

	var title *string
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return chat.Chat{}, gateway_errors.ErrInvalidInput
		}
		t = truncateRunes(t, maxTitleRunes)
		title = &t
	}

	var msgs []chat.Message
	if len(in.Messages) > 0 {
		var err error
		if msgs, err = s.buildMessages(in.Messages, s.now().UTC()); err != nil {
			return chat.Chat{}, err
		}
	}

	if _, err := s.repo.Update(ctx, in.UserID, in.ChatID, title, msgs); err != nil {
		return chat.Chat{}, err
	}

	return s.repo.GetByID(ctx, in.UserID, in.ChatID)
}

func (s *ChatService) Delete(ctx context.Context, userID, chatID uuid.UUID) error {
	if userID == uuid.Nil || chatID == uuid.Nil {
		return gateway_errors.ErrInvalidInput
	}
	return s.repo.Delete(ctx, userID, chatID)
}

func (s *ChatService) buildMessages(in []MessageInput, now time.Time) ([]chat.Message, error) {
	msgs := make([]chat.Message, 0, len(in))
	for _, m := range in {
		if !chat.ValidRole(m.Role) || strings.TrimSpace(m.Content) == "" {
			return nil, gateway_errors.ErrInvalidInput
		}
		msgs = append(msgs, chat.Message{
			ID:            uuid.New(),
			Role:          m.Role,
			Content:       m.Content,
			AttachmentURL: strings.TrimSpace(m.AttachmentURL),
			CreatedAt:     now,
		})
	}
	return msgs, nil
}

func deriveTitle(msgs []chat.Message) string {
	for _, m := range msgs {
		if m.Role == chat.RoleUser {
			if t := strings.Join(strings.Fields(m.Content), " "); t != "" {
				return t
			}
		}
	}
	return untitledChat
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}
