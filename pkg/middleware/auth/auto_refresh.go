package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/cookies"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"

	roleAdmin = "admin"
)

// RefreshResult is a rotated token pair.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

type Refresher interface {
	RefreshSession(ctx context.Context, refreshToken string) (*RefreshResult, error)
}

type RefresherFunc func(ctx context.Context, refreshToken string) (*RefreshResult, error)

func (f RefresherFunc) RefreshSession(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	return f(ctx, refreshToken)
}

// AutoRefreshMiddleware authenticates requests from the access cookie and
// transparently rotates the pair when the access token has expired.
type AutoRefreshMiddleware struct {
	JWTSecret []byte
	Refresher Refresher
}

func NewAutoRefreshMiddleware(secret []byte, refresher Refresher) *AutoRefreshMiddleware {
	return &AutoRefreshMiddleware{
		JWTSecret: secret,
		Refresher: refresher,
	}
}

type ValidatorFunc func(claims *tokens.AccessClaims) error

// OptionalAuth attaches the caller's identity when one can be established
// and lets anonymous requests through otherwise.
func (m *AutoRefreshMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := m.authenticate(c)
		if err != nil {
			logging.FromContext(c.Request().Context()).Debug("optional_auth_anonymous", "reason", err.Error())
		} else {
			setUserContext(c, claims)
		}
		return next(c)
	}
}

func (m *AutoRefreshMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *AutoRefreshMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
		if claims.Role != roleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (m *AutoRefreshMiddleware) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := m.authenticate(c)
		if err != nil {
			return err
		}
		if validator != nil {
			if validationErr := validator(claims); validationErr != nil {
				return validationErr
			}
		}
		setUserContext(c, claims)
		return next(c)
	}
}

func (m *AutoRefreshMiddleware) authenticate(c echo.Context) (*tokens.AccessClaims, error) {
	accessCookie, err := c.Cookie(tokens.AccessCookie)
	hasAccess := err == nil && accessCookie.Value != ""

	if hasAccess {
		claims, err := tokens.AccessClaimsFromToken(accessCookie.Value, m.JWTSecret)
		if err == nil {
			return claims, nil
		}
		if !errors.Is(err, jwt.ErrTokenExpired) {
			clearAuthCookies(c)
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}
	}

	refreshCookie, rErr := c.Cookie(tokens.RefreshCookie)
	if rErr != nil || refreshCookie.Value == "" {
		if hasAccess {
			clearAuthCookies(c)
		}
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	if m.Refresher == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "access token expired")
	}

	res, refErr := m.Refresher.RefreshSession(c.Request().Context(), refreshCookie.Value)
	if refErr != nil {
		clearAuthCookies(c)
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "refresh failed")
	}

	c.SetCookie(cookies.Create(tokens.AccessCookie, res.AccessToken, "/", res.AccessExp))
	c.SetCookie(cookies.Create(tokens.RefreshCookie, res.RefreshToken, "/", res.RefreshExp))

	claims, pErr := tokens.AccessClaimsFromToken(res.AccessToken, m.JWTSecret)
	if pErr != nil {
		clearAuthCookies(c)
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "new access token invalid")
	}
	return claims, nil
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(cookies.Delete(tokens.AccessCookie, "/"))
	c.SetCookie(cookies.Delete(tokens.RefreshCookie, "/"))
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(ctxUserID, claims.Subject)
	c.Set(ctxRole, claims.Role)
}

// UserID returns the authenticated user's id, or nil for anonymous callers.
func UserID(c echo.Context) *uuid.UUID {
	s, ok := c.Get(ctxUserID).(string)
	if !ok || s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

func IsAdmin(c echo.Context) bool {
	role, _ := c.Get(ctxRole).(string)
	return role == roleAdmin
}
