package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/config"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/logger"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/models"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/storage"
)

var (
	ErrPhoneTaken         = errors.New("phone number already registered")
	ErrInvalidCredentials = errors.New("invalid phone or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// SessionStore is the part of the redis layer auth needs; it keeps a token
// valid only while its JWT ID is present, so logout revokes immediately.
type SessionStore interface {
	AddSession(ctx context.Context, jti, phone string, ttl time.Duration) error
	RemoveSession(ctx context.Context, jti string) error
	SessionExists(ctx context.Context, jti string) (bool, error)
}

type AuthService struct {
	store    storage.Store
	sessions SessionStore
	log      *logger.Logger
	cfg      config.AuthConfig
}

func NewAuthService(store storage.Store, sessions SessionStore, log *logger.Logger, cfg config.AuthConfig) *AuthService {
	return &AuthService{store: store, sessions: sessions, log: log, cfg: cfg}
}

// Register creates a staff account. The very first account becomes the
// admin; everyone after that is a cashier.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.UserOut, error) {
	if _, err := s.store.GetUserByPhone(ctx, req.Phone); err == nil {
		return nil, ErrPhoneTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	role := models.RoleCashier
	if count == 0 {
		role = models.RoleAdmin
	}

	user := &models.User{
		Name:         req.Name,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.LogSecurity("REGISTER", "New "+string(role)+" account for "+req.Phone)
	return user.Out(), nil
}

// Login verifies credentials and issues a fresh access token.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.Token, error) {
	user, err := s.store.GetUserByPhone(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.log.LogSecurity("LOGIN_FAILED", "Bad password for "+req.Phone)
		return nil, ErrInvalidCredentials
	}

	jti := uuid.NewString()
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   user.Phone,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	if err := s.sessions.AddSession(ctx, jti, user.Phone, s.cfg.TokenTTL); err != nil {
		return nil, err
	}

	s.log.LogSecurity("LOGIN", "Issued token for "+user.Phone)
	return &models.Token{AccessToken: signed, TokenType: "bearer"}, nil
}

// Logout revokes the token carried by the request. Unknown or malformed
// tokens are treated as already logged out.
func (s *AuthService) Logout(ctx context.Context, tokenStr string) error {
	claims, err := s.parseClaims(tokenStr)
	if err != nil {
		return nil
	}
	return s.sessions.RemoveSession(ctx, claims.ID)
}

// Authenticate resolves a raw token to its user, rejecting tokens that were
// revoked by logout.
func (s *AuthService) Authenticate(ctx context.Context, tokenStr string) (*models.User, error) {
	claims, err := s.parseClaims(tokenStr)
	if err != nil {
		return nil, ErrInvalidToken
	}

	ok, err := s.sessions.SessionExists(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidToken
	}

	user, err := s.store.GetUserByPhone(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) parseClaims(tokenStr string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
