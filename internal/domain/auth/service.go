package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/appctx"
	"partsledger/internal/core/entity"
	"partsledger/internal/core/id"
	"partsledger/internal/core/tx"
	"partsledger/pkg/logger"
)

// Repository is the storage contract for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, u *User) error
	List(ctx context.Context) ([]User, error)
}

// Claims is the JWT payload.
type Claims struct {
	UserID       string   `json:"uid"`
	Username     string   `json:"username"`
	Capabilities []string `json:"capabilities"`
	jwt.RegisteredClaims
}

// Config holds token settings.
type Config struct {
	Secret   []byte
	TokenTTL time.Duration
	Issuer   string
}

// Service implements account management and token auth.
type Service struct {
	repo      Repository
	txManager tx.Manager
	cfg       Config
}

// NewService wires the auth service.
func NewService(repo Repository, txManager tx.Manager, cfg Config) *Service {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "partsledger"
	}
	return &Service{repo: repo, txManager: txManager, cfg: cfg}
}

// CreateUser stores a new account with a hashed password.
func (s *Service) CreateUser(ctx context.Context, username, password, displayName string, capabilities []string) (*User, error) {
	if password == "" {
		return nil, apperror.NewValidation("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	now := time.Now().UTC()
	u := &User{
		BaseEntity:   entity.NewBaseEntity(),
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		Capabilities: capabilities,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, u)
	}); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and issues a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", nil, apperror.NewUnauthorized("invalid credentials")
		}
		return "", nil, err
	}
	if !u.IsActive {
		return "", nil, apperror.NewUnauthorized("account disabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperror.NewUnauthorized("invalid credentials")
	}

	token, err := s.issueToken(u)
	if err != nil {
		return "", nil, err
	}

	now := time.Now().UTC()
	u.LastLoginAt = &now
	if err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, u)
	}); err != nil {
		return "", nil, err
	}

	logger.Info(ctx, "user logged in", "username", username)
	return token, u, nil
}

func (s *Service) issueToken(u *User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:       u.ID.String(),
		Username:     u.Username,
		Capabilities: u.Capabilities,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.cfg.Secret)
	if err != nil {
		return "", apperror.NewInternal(err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token, returning the request identity.
func (s *Service) ValidateToken(tokenString string) (*appctx.User, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperror.NewUnauthorized("unexpected signing method")
		}
		return s.cfg.Secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperror.NewUnauthorized("invalid token")
	}

	userID, err := id.Parse(claims.UserID)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid token subject")
	}
	return &appctx.User{
		UserID:       userID,
		Username:     claims.Username,
		Capabilities: claims.Capabilities,
	}, nil
}

// ChangePassword rehashes and stores a new password.
func (s *Service) ChangePassword(ctx context.Context, userID id.ID, current, next string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		u, err := s.repo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
			return apperror.NewUnauthorized("invalid credentials")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
		if err != nil {
			return apperror.NewInternal(err)
		}
		u.PasswordHash = string(hash)
		u.UpdatedAt = time.Now().UTC()
		u.Touch()
		return s.repo.Update(ctx, u)
	})
}

// SetActive enables or disables an account.
func (s *Service) SetActive(ctx context.Context, userID id.ID, active bool) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		u, err := s.repo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		u.IsActive = active
		u.UpdatedAt = time.Now().UTC()
		u.Touch()
		return s.repo.Update(ctx, u)
	})
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}
