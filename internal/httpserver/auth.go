package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/cookies"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

type sessionResponse struct {
	User    *models.User `json:"user"`
	IsAdmin bool         `json:"is_admin"`
}

func setSessionCookies(c echo.Context, s *service.Session) {
	c.SetCookie(cookies.Create(tokens.AccessCookie, s.AccessToken, "/", s.AccessExp))
	c.SetCookie(cookies.Create(tokens.RefreshCookie, s.RefreshToken, "/", s.RefreshExp))
}

func clearSessionCookies(c echo.Context) {
	c.SetCookie(cookies.Delete(tokens.AccessCookie, "/"))
	c.SetCookie(cookies.Delete(tokens.RefreshCookie, "/"))
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "register_error", "invalid body")
	}

	user, err := h.Svc.Register(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		return fail(c, l, "register_error", err)
	}
	l.Info("user registered", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "login_error", "invalid body")
	}

	sess, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(c, l, "login_error", err)
	}
	setSessionCookies(c, sess)

	l.Info("user logged in", "user_id", sess.User.ID)
	return c.JSON(http.StatusOK, sessionResponse{User: sess.User, IsAdmin: sess.User.Role == models.RoleAdmin})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	ck, err := c.Cookie(tokens.RefreshCookie)
	if err != nil || ck.Value == "" {
		return fail(c, l, "refresh_error", domain.ErrUnauthorized)
	}

	sess, err := h.Svc.Refresh(ctx, ck.Value)
	if err != nil {
		clearSessionCookies(c)
		return fail(c, l, "refresh_error", err)
	}
	setSessionCookies(c, sess)
	return c.JSON(http.StatusOK, sessionResponse{User: sess.User, IsAdmin: sess.User.Role == models.RoleAdmin})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	var refresh string
	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil {
		refresh = ck.Value
	}
	if err := h.Svc.Logout(ctx, refresh); err != nil {
		return fail(c, l, "logout_error", err)
	}
	clearSessionCookies(c)
	c.SetCookie(cookies.Delete(cartCookie, "/"))
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	uid := userID(c)
	if uid == nil {
		return fail(c, l, "me_error", domain.ErrUnauthorized)
	}
	user, err := h.Svc.Me(ctx, *uid)
	if err != nil {
		return fail(c, l, "me_error", err)
	}
	return c.JSON(http.StatusOK, user)
}
