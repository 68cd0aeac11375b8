package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-mesh/internal/auth"
	"github.com/spec-kit/support-mesh/internal/config"
	"github.com/spec-kit/support-mesh/internal/domain"
	"github.com/spec-kit/support-mesh/internal/events"
	"github.com/spec-kit/support-mesh/internal/repository"
	apperrors "github.com/spec-kit/support-mesh/pkg/util"
)

// AuthService coordinates registration, login, logout and the identity lookups.
type AuthService struct {
	users      repository.UserRepository
	codec      *auth.TokenCodec
	registry   auth.RevocationRegistry
	validator  *auth.TokenValidator
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Codec      *auth.TokenCodec
	Registry   auth.RevocationRegistry
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		codec:      deps.Codec,
		registry:   deps.Registry,
		validator:  auth.NewTokenValidator(deps.Codec, deps.Registry),
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
	}
}

// LoginResult is what a successful login returns.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Register creates a ROLE_USER account.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username, email = strings.TrimSpace(username), domain.NormalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return nil, apperrors.NewValidationError("username, email, password required", nil)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := domain.NewUser(username, email, hash)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:   events.EventUserRegistered,
		UserID: user.ID,
		Payload: events.UserRegisteredPayload{
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
		},
	})
	return user, nil
}

// Login verifies credentials and issues a token carrying sub=email,
// id=userId and roles=[role].
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if repository.IsNotFound(err) {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.CanLogin() {
		return nil, apperrors.NewForbidden("account suspended")
	}

	token, exp, err := s.codec.Issue(auth.TokenClaims{
		Subject: user.Email,
		UserID:  user.ID,
		Roles:   user.Roles(),
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: exp}, nil
}

// Logout revokes token for the rest of its lifetime. Repeating a logout, or
// logging out with a token that has already expired, succeeds.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.NewUnauthorized("unauthorized")
	}
	claims, err := s.codec.Parse(token)
	if errors.Is(err, auth.ErrExpired) {
		return nil
	}
	if err != nil {
		s.logger.Info("logout with unusable token", zap.String("reason", auth.Reason(err)))
		return apperrors.NewUnauthorized("unauthorized")
	}

	if err := s.registry.Revoke(ctx, token, claims.ExpiresAtTime()); err != nil {
		return apperrors.NewDomainError("DEPENDENCY_UNAVAILABLE", "revocation store unavailable", http.StatusServiceUnavailable, nil)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventTokenRevoked,
		UserID:  claims.UserID,
		Payload: events.TokenRevokedPayload{ExpiresAt: claims.ExpiresAtTime()},
	})
	return nil
}

// ValidateToken runs the full validation pipeline.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (domain.IdentityEnvelope, error) {
	return s.validator.Validate(ctx, token)
}

// Validator exposes the validator wired to this service's codec and registry.
func (s *AuthService) Validator() *auth.TokenValidator {
	return s.validator
}

// RoleByUserID returns the stored role. Unknown ids are auth.ErrUserNotFound.
func (s *AuthService) RoleByUserID(ctx context.Context, userID string) (domain.Role, error) {
	role, err := s.users.GetRoleByID(ctx, userID)
	if repository.IsNotFound(err) {
		return "", auth.ErrUserNotFound
	}
	return role, err
}

// EmailByUserID returns the stored email. Unknown ids are auth.ErrUserNotFound.
func (s *AuthService) EmailByUserID(ctx context.Context, userID string) (string, error) {
	email, err := s.users.GetEmailByID(ctx, userID)
	if repository.IsNotFound(err) {
		return "", auth.ErrUserNotFound
	}
	return email, err
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
