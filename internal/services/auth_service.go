package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"gemini-gateway/config"
	"gemini-gateway/internal/domain/user"
	"gemini-gateway/internal/redis"
	"gemini-gateway/internal/repository"
	gateway_errors "gemini-gateway/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 8
	// bcrypt refuses longer inputs.
	maxPasswordLen = 72
)

// SessionCache is the read-through cache consulted before the session table.
type SessionCache interface {
	GetSession(ctx context.Context, sessionID uuid.UUID) (*redis.SessionCache, error)
	SetSession(ctx context.Context, s user.UserSession) error
	InvalidateSession(ctx context.Context, sessionID uuid.UUID) error
	GetUser(ctx context.Context, userID uuid.UUID) (*redis.UserCache, error)
	SetUser(ctx context.Context, u user.User) error
}

type AuthService struct {
	userRepo   repository.UserRepository
	cache      SessionCache
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewAuthService wires the service. cache may be nil, in which case every
// session check goes to the database.
func NewAuthService(userRepo repository.UserRepository, cache SessionCache, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		cache:      cache,
		jwtSecret:  []byte(cfg.JWTSecret),
		accessTTL:  time.Duration(cfg.JWTExpiryMin) * time.Minute,
		refreshTTL: time.Duration(cfg.RefreshExpiry) * 24 * time.Hour,
		now:        time.Now,
	}
}

type RegisterInput struct {
	Email     string
	Password  string
	Name      string
	UserAgent string
	IPAddress string
}

type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

type RefreshInput struct {
	SessionID    string
	RefreshToken string
}

type AuthResponse struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	SessionID    string
	User         UserInfo
}

type UserInfo struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

type AccessClaims struct {
	UserID    string `json:"sub"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := validateRegister(in); err != nil {
		return AuthResponse{}, err
	}

	if _, err := s.userRepo.GetUserByEmail(ctx, in.Email); err == nil {
		return AuthResponse{}, gateway_errors.ErrAlreadyExists
	} else if !errors.Is(err, gateway_errors.ErrNotFound) {
		return AuthResponse{}, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return AuthResponse{}, err
	}

	now := s.now().UTC()
	newUser := &user.User{
		ID:           uuid.New(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return AuthResponse{}, err
	}

	return s.startSession(ctx, *newUser, in.UserAgent, in.IPAddress)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || in.Password == "" {
		return AuthResponse{}, gateway_errors.ErrInvalidInput
	}

	u, err := s.userRepo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, gateway_errors.ErrNotFound) {
			return AuthResponse{}, gateway_errors.ErrUnauthorized
		}
		return AuthResponse{}, err
	}

	if err := comparePassword(u.PasswordHash, in.Password); err != nil {
		return AuthResponse{}, gateway_errors.ErrUnauthorized
	}

	return s.startSession(ctx, u, in.UserAgent, in.IPAddress)
}

// Refresh rotates the refresh token of a live session. Presenting a stale token
// revokes the session, since it indicates the token leaked.
func (s *AuthService) Refresh(ctx context.Context, in RefreshInput) (AuthResponse, error) {
	if in.SessionID == "" || in.RefreshToken == "" {
		return AuthResponse{}, gateway_errors.ErrInvalidInput
	}

	sessionID, err := uuid.Parse(in.SessionID)
	if err != nil {
		return AuthResponse{}, gateway_errors.ErrInvalidInput
	}

	session, err := s.userRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gateway_errors.ErrNotFound) {
			return AuthResponse{}, gateway_errors.ErrUnauthorized
		}
		return AuthResponse{}, err
	}

	if !session.Active(s.now()) {
		return AuthResponse{}, gateway_errors.ErrUnauthorized
	}

	if !compareRefreshToken(session.RefreshTokenHash, in.RefreshToken) {
		_ = s.revoke(ctx, session.ID)
		return AuthResponse{}, gateway_errors.ErrUnauthorized
	}

	newRefresh, err := generateToken(32)
	if err != nil {
		return AuthResponse{}, err
	}

	previousHash := session.RefreshTokenHash
	session.RefreshTokenHash = hashRefreshToken(newRefresh)
	session.ExpiresAt = s.now().UTC().Add(s.refreshTTL)

	// Only one of several concurrent refreshes with the same token can win.
	if err := s.userRepo.RotateSession(ctx, session, previousHash); err != nil {
		if errors.Is(err, gateway_errors.ErrNotFound) {
			return AuthResponse{}, gateway_errors.ErrUnauthorized
		}
		return AuthResponse{}, err
	}
	s.cacheSession(ctx, session)

	accessToken, expiresIn, err := s.newAccessToken(session.UserID, session.ID)
	if err != nil {
		return AuthResponse{}, err
	}

	u, err := s.userRepo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return AuthResponse{}, err
	}

	return AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresIn:    expiresIn,
		SessionID:    session.ID.String(),
		User:         toUserInfo(u),
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if sessionID == uuid.Nil {
		return gateway_errors.ErrInvalidInput
	}
	return s.revoke(ctx, sessionID)
}

// Me returns the profile of userID, served from cache when possible.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (UserInfo, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetUser(ctx, userID); err == nil && cached != nil {
			return UserInfo{
				ID:        cached.ID.String(),
				Email:     cached.Email,
				Name:      cached.Name,
				CreatedAt: cached.CreatedAt,
			}, nil
		}
	}

	u, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return UserInfo{}, err
	}
	if s.cache != nil {
		_ = s.cache.SetUser(ctx, u)
	}
	return toUserInfo(u), nil
}

func (s *AuthService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, gateway_errors.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, gateway_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return AccessClaims{}, gateway_errors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return AccessClaims{}, gateway_errors.ErrUnauthorized
	}

	return *claims, nil
}

// ValidateSession confirms sessionID is live and belongs to userID.
func (s *AuthService) ValidateSession(ctx context.Context, sessionID, userID uuid.UUID) error {
	if s.cache != nil {
		cached, err := s.cache.GetSession(ctx, sessionID)
		if err == nil && cached != nil {
			if cached.UserID != userID || !s.now().Before(cached.ExpiresAt) {
				return gateway_errors.ErrUnauthorized
			}
			return nil
		}
	}

	session, err := s.userRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gateway_errors.ErrNotFound) {
			return gateway_errors.ErrUnauthorized
		}
		return err
	}
	if session.UserID != userID || !session.Active(s.now()) {
		return gateway_errors.ErrUnauthorized
	}
	s.cacheSession(ctx, session)
	return nil
}

func (s *AuthService) startSession(ctx context.Context, u user.User, userAgent, ip string) (AuthResponse, error) {
	refreshToken, err := generateToken(32)
	if err != nil {
		return AuthResponse{}, err
	}

	createdAt := s.now().UTC()
	session := &user.UserSession{
		ID:               uuid.New(),
		UserID:           u.ID,
		RefreshTokenHash: hashRefreshToken(refreshToken),
		UserAgent:        userAgent,
		IPAddress:        ip,
		ExpiresAt:        createdAt.Add(s.refreshTTL),
		CreatedAt:        createdAt,
	}
	if err := s.userRepo.CreateSession(ctx, session); err != nil {
		return AuthResponse{}, err
	}
	s.cacheSession(ctx, *session)

	accessToken, expiresIn, err := s.newAccessToken(u.ID, session.ID)
	if err != nil {
		return AuthResponse{}, err
	}

	return AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		SessionID:    session.ID.String(),
		User:         toUserInfo(u),
	}, nil
}

// revoke marks the row first so a concurrent ValidateSession cannot re-cache
// a live copy after the eviction.
func (s *AuthService) revoke(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.userRepo.RevokeSession(ctx, sessionID); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateSession(ctx, sessionID)
	}
	return nil
}

func (s *AuthService) cacheSession(ctx context.Context, session user.UserSession) {
	if s.cache != nil {
		_ = s.cache.SetSession(ctx, session)
	}
}

func (s *AuthService) newAccessToken(userID, sessionID uuid.UUID) (string, int64, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)

	claims := AccessClaims{
		UserID:    userID.String(),
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", 0, err
	}

	return signed, int64(s.accessTTL.Seconds()), nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func compareRefreshToken(hash, token string) bool {
	computed := hashRefreshToken(token)
	return subtle.ConstantTimeCompare([]byte(hash), []byte(computed)) == 1
}

func validateRegister(in RegisterInput) error {
	if in.Email == "" || in.Password == "" || in.Name == "" {
		return gateway_errors.ErrInvalidInput
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return gateway_errors.ErrInvalidInput
	}
	if len(in.Password) < minPasswordLen || len(in.Password) > maxPasswordLen {
		return gateway_errors.ErrInvalidInput
	}
	return nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func comparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func generateToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func toUserInfo(u user.User) UserInfo {
	return UserInfo{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}
