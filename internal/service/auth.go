package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/curatorapp/curator-server/internal/auth"
	"github.com/curatorapp/curator-server/internal/domain"
	"github.com/curatorapp/curator-server/internal/errors"
	"github.com/curatorapp/curator-server/internal/id"
	"github.com/curatorapp/curator-server/internal/store"
	"github.com/curatorapp/curator-server/internal/validation"
)

// AuthService resolves bearer tokens to users and provisions users and tokens
// for the admin CLI. There is no password login; tokens are issued out of band.
type AuthService struct {
	store        *store.Store
	tokenService *auth.TokenService
	validator    *validation.Validator
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store *store.Store, tokenService *auth.TokenService, validator *validation.Validator, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:        store,
		tokenService: tokenService,
		validator:    validator,
		logger:       logger,
	}
}

// CreateUserRequest contains the fields of a new user.
type CreateUserRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

// CreateUser registers a user. Emails are unique case-insensitively.
func (s *AuthService) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to generate user id")
	}
	user := &domain.User{
		ID:          userID,
		Email:       req.Email,
		DisplayName: strings.TrimSpace(req.DisplayName),
	}
	if user.DisplayName == "" {
		user.DisplayName, _, _ = strings.Cut(user.Email, "@")
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	if err := s.store.Users.Create(ctx, user.ID, user); err != nil {
		return nil, storeError(err, hideForeign)
	}

	s.logger.Info("user created", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// GetUser returns a user by id.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		return nil, storeError(err, hideForeign)
	}
	return user, nil
}

// GetUserByEmail returns a user by email, compared case-insensitively.
func (s *AuthService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.store.Users.GetByIndex(ctx, "email", email)
	if err != nil {
		return nil, storeError(err, hideForeign)
	}
	return user, nil
}

// IssueToken creates an access token for an existing user.
func (s *AuthService) IssueToken(ctx context.Context, userID string) (string, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	token, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to issue token")
	}
	s.logger.Info("access token issued", "user_id", user.ID)
	return token, nil
}

// Authenticate verifies a bearer token and returns the user it names. Any
// failure is reported as Unauthorized without detail.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokenService.VerifyAccessToken(token)
	if err != nil {
		s.logger.Debug("token verification failed", "error", err)
		return nil, errors.Unauthorized("invalid or expired token")
	}
	user, err := s.store.Users.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, errors.Unauthorized("invalid or expired token")
		}
		return nil, storeError(err, hideForeign)
	}
	return user, nil
}
