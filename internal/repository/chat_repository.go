package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gemini-gateway/internal/domain/chat"
	gateway_errors "gemini-gateway/pkg/errors"

	"github.com/google/uuid"
)

type PostgresChatRepository struct {
	db DBTX
}

func NewChatRepository(db DBTX) ChatRepository {
	return &PostgresChatRepository{db: db}
}

// Create inserts the chat and its initial messages in one transaction. Message
// sequence numbers are assigned from zero.
func (r *PostgresChatRepository) Create(ctx context.Context, c *chat.Chat) error {
	return WithTx(ctx, r.db, func(tx DBTX) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO chats (id, user_id, title, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
			c.ID, c.UserID, c.Title, c.CreatedAt, c.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return gateway_errors.ErrAlreadyExists
			}
			return err
		}
		for i := range c.Messages {
			c.Messages[i].ChatID = c.ID
			c.Messages[i].Seq = i
			if err := insertMessage(ctx, tx, c.Messages[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresChatRepository) GetByID(ctx context.Context, userID, chatID uuid.UUID) (chat.Chat, error) {
	var c chat.Chat
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, created_at, updated_at FROM chats WHERE id = $1 AND user_id = $2`,
		chatID, userID).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return chat.Chat{}, gateway_errors.ErrNotFound
		}
		return chat.Chat{}, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, chat_id, seq, role, content, attachment_url, created_at
		 FROM chat_messages WHERE chat_id = $1 ORDER BY seq`, chatID)
	if err != nil {
		return chat.Chat{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Seq, &m.Role, &m.Content, &m.AttachmentURL, &m.CreatedAt); err != nil {
			return chat.Chat{}, err
		}
		c.Messages = append(c.Messages, m)
	}
	return c, rows.Err()
}

// ListByUser returns chat headers without messages, most recently updated first.
func (r *PostgresChatRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]chat.Chat, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chats WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, created_at, updated_at FROM chats
		 WHERE user_id = $1 ORDER BY updated_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	chats := make([]chat.Chat, 0, limit)
	for rows.Next() {
		var c chat.Chat
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		chats = append(chats, c)
	}
	return chats, total, rows.Err()
}

// Update applies the rename and the appended messages in one transaction. The
// chat row is locked so concurrent appends get distinct sequence numbers.
func (r *PostgresChatRepository) Update(ctx context.Context, userID, chatID uuid.UUID, title *string, msgs []chat.Message) ([]chat.Message, error) {
	err := WithTx(ctx, r.db, func(tx DBTX) error {
		var locked uuid.UUID
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM chats WHERE id = $1 AND user_id = $2 FOR UPDATE`, chatID, userID).Scan(&locked)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return gateway_errors.ErrNotFound
			}
			return err
		}

		if len(msgs) > 0 {
			var next int
			if err := tx.QueryRowContext(ctx,
				`SELECT COALESCE(MAX(seq) + 1, 0) FROM chat_messages WHERE chat_id = $1`, chatID).Scan(&next); err != nil {
				return err
			}
			for i := range msgs {
				msgs[i].ChatID = chatID
				msgs[i].Seq = next + i
				if err := insertMessage(ctx, tx, msgs[i]); err != nil {
					return err
				}
			}
		}

		now := time.Now().UTC()
		if title != nil {
			_, err = tx.ExecContext(ctx, `UPDATE chats SET title = $2, updated_at = $3 WHERE id = $1`, chatID, *title, now)
		} else {
			_, err = tx.ExecContext(ctx, `UPDATE chats SET updated_at = $2 WHERE id = $1`, chatID, now)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *PostgresChatRepository) Delete(ctx context.Context, userID, chatID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chats WHERE id = $1 AND user_id = $2`, chatID, userID)
	if err != nil {
		return err
	}
	return rowsAffectedOrNotFound(res, gateway_errors.ErrNotFound)
}

func insertMessage(ctx context.Context, tx DBTX, m chat.Message) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO chat_messages (id, chat_id, seq, role, content, attachment_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.ChatID, m.Seq, m.Role, m.Content, m.AttachmentURL, m.CreatedAt)
	return err
}
