package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"gemini-gateway/internal/domain/user"
	gateway_errors "gemini-gateway/pkg/errors"

	"github.com/google/uuid"
)

type PostgresUserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, strings.ToLower(u.Email), u.Name, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return gateway_errors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at, updated_at FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at, updated_at FROM users WHERE email = $1`,
		strings.ToLower(email))
	return scanUser(row)
}

func (r *PostgresUserRepository) CreateSession(ctx context.Context, s *user.UserSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_sessions (id, user_id, refresh_token_hash, user_agent, ip_address, is_revoked, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.UserID, s.RefreshTokenHash, s.UserAgent, s.IPAddress, s.IsRevoked, s.ExpiresAt, s.CreatedAt)
	return err
}

func (r *PostgresUserRepository) GetSessionByID(ctx context.Context, sessionID uuid.UUID) (user.UserSession, error) {
	var s user.UserSession
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, refresh_token_hash, user_agent, ip_address, is_revoked, expires_at, created_at
		 FROM user_sessions WHERE id = $1`, sessionID).
		Scan(&s.ID, &s.UserID, &s.RefreshTokenHash, &s.UserAgent, &s.IPAddress, &s.IsRevoked, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.UserSession{}, gateway_errors.ErrNotFound
		}
		return user.UserSession{}, err
	}
	return s, nil
}

func (r *PostgresUserRepository) RotateSession(ctx context.Context, s user.UserSession, previousHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_sessions SET refresh_token_hash = $2, expires_at = $3
		 WHERE id = $1 AND refresh_token_hash = $4 AND NOT is_revoked`,
		s.ID, s.RefreshTokenHash, s.ExpiresAt, previousHash)
	if err != nil {
		return err
	}
	return rowsAffectedOrNotFound(res, gateway_errors.ErrNotFound)
}

func (r *PostgresUserRepository) RevokeSession(ctx context.Context, sessionID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_sessions SET is_revoked = TRUE WHERE id = $1`, sessionID)
	if err != nil {
		return err
	}
	return rowsAffectedOrNotFound(res, gateway_errors.ErrNotFound)
}

func scanUser(row *sql.Row) (user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, gateway_errors.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}
