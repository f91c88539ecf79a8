package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/hash"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

type AuthService struct {
	Repo          *repo.GormRepo
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Session is a freshly issued access/refresh token pair.
type Session struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("email is invalid: %w", domain.ErrValidation)
	}
	if len(password) < hash.MinPasswordLen {
		return nil, fmt.Errorf("password must have at least %d characters: %w", hash.MinPasswordLen, domain.ErrValidation)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", domain.ErrValidation)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	u := &models.User{Email: email, Name: name, PasswordHash: pwHash, Role: models.RoleUser}
	if err := s.Repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	l.Info("user_registered", "user_id", u.ID)
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.Repo.FindUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !hash.CheckPassword(u.PasswordHash, password) {
		return nil, fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
	}

	sess, refresh, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SaveRefreshToken(ctx, refresh); err != nil {
		return nil, err
	}
	return sess, nil
}

// Refresh exchanges a refresh token for a new pair. Each refresh token is
// accepted once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %v: %w", err, domain.ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("refresh token subject: %w", domain.ErrUnauthorized)
	}
	u, err := s.Repo.FindUserByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("refresh token user: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	sess, next, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	err = s.Repo.RotateRefreshToken(ctx, claims.ID, hash.Sha256Hex(refreshToken), next)
	if errors.Is(err, repo.ErrRefreshRevoked) || errors.Is(err, domain.ErrNotFound) {
		logging.FromContext(ctx).Warn("refresh_rejected", "status", 401, "user_id", userID, "reason", err.Error())
		return nil, fmt.Errorf("refresh token: %v: %w", err, domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, hash.Sha256Hex(refreshToken))
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.Repo.FindUserByID(ctx, userID)
}

func (s *AuthService) issue(u *models.User) (*Session, *models.RefreshToken, error) {
	now := time.Now().UTC()
	accessExp := now.Add(s.AccessTTL)
	refreshExp := now.Add(s.RefreshTTL)

	access, err := tokens.NewAccessToken(s.AccessSecret, u.ID.String(), u.Role, u.Email, accessExp)
	if err != nil {
		return nil, nil, err
	}
	refresh, jti, err := tokens.NewRefreshToken(s.RefreshSecret, u.ID.String(), refreshExp)
	if err != nil {
		return nil, nil, err
	}

	row := &models.RefreshToken{
		TokenHash: hash.Sha256Hex(refresh),
		UserID:    u.ID,
		JTI:       jti,
		ExpiresAt: refreshExp,
	}
	return &Session{
		User:         u,
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, row, nil
}

// EnsureAdmin creates the bootstrap administrator when no account with that
// email exists yet. Existing accounts are left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = normalizeEmail(email)
	_, err := s.Repo.FindUserByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return false, err
	}
	u := &models.User{Email: email, Name: "Administrator", PasswordHash: pwHash, Role: models.RoleAdmin}
	if err := s.Repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
