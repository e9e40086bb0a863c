package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/consulting-service/internal/auth"
	"github.com/spec-kit/consulting-service/internal/config"
	"github.com/spec-kit/consulting-service/internal/domain"
	"github.com/spec-kit/consulting-service/internal/repository"
	apperrors "github.com/spec-kit/consulting-service/pkg/util/errorutil"
)

// PasswordResetNotifier delivers reset links.
type PasswordResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, user *domain.User, token string, ttl time.Duration) error
}

// AuthService coordinates registration, login and account management.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	notifier   PasswordResetNotifier
	tokenMgr   *auth.TokenManager
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	now        func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	Notifier          PasswordResetNotifier
	Logger            *zap.Logger
}

// AuthResult is a signed-in session.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// RegisterInput creates a client account.
type RegisterInput struct {
	DisplayName string `validate:"required,max=120"`
	Email       string `validate:"required,email"`
	Password    string `validate:"required"`
	Phone       string `validate:"max=40"`
	Company     string `validate:"max=160"`
}

// ProfileInput updates editable profile fields.
type ProfileInput struct {
	DisplayName string `validate:"required,max=120"`
	Phone       string `validate:"max=40"`
	Company     string `validate:"max=160"`
	Bio         string `validate:"max=2000"`
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		resets:     deps.PasswordResetRepo,
		notifier:   deps.Notifier,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		now:        time.Now,
	}
}

// Register creates a new client account and signs it in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Email = normalizeEmail(input.Email)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := auth.CheckPasswordPolicy(input.Password); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "password"})
	}
	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		DisplayName:  strings.TrimSpace(input.DisplayName),
		Email:        input.Email,
		PasswordHash: hash,
		Role:         domain.RoleClient,
		Phone:        strings.TrimSpace(input.Phone),
		Company:      strings.TrimSpace(input.Company),
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return s.issue(user)
}

// Login authenticates any account by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.Active {
		return nil, apperrors.NewForbidden("account disabled")
	}
	return s.issue(user)
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return user, nil
}

// UpdateProfile edits the caller's profile fields.
func (s *AuthService) UpdateProfile(ctx context.Context, actor domain.Actor, input ProfileInput) (*domain.User, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	user.DisplayName = strings.TrimSpace(input.DisplayName)
	user.Phone = strings.TrimSpace(input.Phone)
	user.Company = strings.TrimSpace(input.Company)
	user.Bio = strings.TrimSpace(input.Bio)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, actor domain.Actor, currentPassword, newPassword string) error {
	if err := auth.CheckPasswordPolicy(newPassword); err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"field": "new_password"})
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return notFoundOr(err, "user")
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// RequestPasswordReset stores a reset token and emails the link.
// Unknown addresses succeed silently so accounts cannot be probed.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return err
	}
	if !user.Active {
		return nil
	}

	token := &domain.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return err
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyPasswordReset(ctx, user, token.Token, s.resetTTL); err != nil {
			s.logger.Warn("password reset email failed", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	return nil
}

// ConfirmPasswordReset validates the reset token and updates password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	if err := auth.CheckPasswordPolicy(newPassword); err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"field": "new_password"})
	}
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewValidationError("invalid or expired token", nil)
		}
		return err
	}
	if token.UsedAt != nil || s.now().After(token.ExpiresAt) {
		return apperrors.NewValidationError("invalid or expired token", nil)
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return notFoundOr(err, "user")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	// claim the token first so a replayed request cannot reset twice
	if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewValidationError("invalid or expired token", nil)
		}
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// ListUsers returns accounts for admins.
func (s *AuthService) ListUsers(ctx context.Context, actor domain.Actor, filter repository.UserFilter) ([]domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin only")
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// SetRole changes an account's role.
func (s *AuthService) SetRole(ctx context.Context, actor domain.Actor, userID, rawRole string) (*domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin only")
	}
	role := domain.Role(strings.ToLower(strings.TrimSpace(rawRole)))
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": rawRole})
	}
	if userID == actor.ID && role != domain.RoleAdmin {
		return nil, apperrors.NewValidationError("admins cannot demote themselves", nil)
	}
	return s.mutateUser(ctx, actor, userID, func(u *domain.User) { u.Role = role })
}

// SetActive enables or disables an account.
func (s *AuthService) SetActive(ctx context.Context, actor domain.Actor, userID string, active bool) (*domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin only")
	}
	if userID == actor.ID && !active {
		return nil, apperrors.NewValidationError("admins cannot disable themselves", nil)
	}
	return s.mutateUser(ctx, actor, userID, func(u *domain.User) { u.Active = active })
}

func (s *AuthService) mutateUser(ctx context.Context, actor domain.Actor, userID string, apply func(*domain.User)) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	apply(user)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user updated by admin",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.Bool("active", user.Active),
		zap.String("actor_id", actor.ID))
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
